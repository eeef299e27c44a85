package lua

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"bitterm/bitval"
	"bitterm/errors"
	"bitterm/logging"
	"bitterm/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRuntime(t *testing.T) (*LuaRuntime, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	lr := NewLuaRuntime(Options{Output: &out})
	require.NoError(t, lr.Initialize())
	t.Cleanup(func() { _ = lr.Cleanup() })
	return lr, &out
}

func evalString(t *testing.T, lr *LuaRuntime, code string) string {
	t.Helper()
	result, err := lr.Eval(context.Background(), code)
	require.NoError(t, err, code)
	switch v := result.(type) {
	case *bitval.BitValue:
		return v.String()
	case string:
		return v
	default:
		t.Fatalf("unexpected result %T for %q", result, code)
		return ""
	}
}

func TestEvalExpressionsAndStatements(t *testing.T) {
	lr, _ := newTestRuntime(t)
	ctx := context.Background()

	result, err := lr.Eval(ctx, "1 + 2")
	require.NoError(t, err)
	assert.Equal(t, int64(3), result)

	result, err = lr.Eval(ctx, "x = 5")
	require.NoError(t, err)
	assert.Nil(t, result)

	x, err := lr.GetVariable("x")
	require.NoError(t, err)
	assert.Equal(t, int64(5), x)

	result, err = lr.Eval(ctx, "1, 'two', true")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(1), "two", true}, result)

	result, err = lr.Eval(ctx, "1.5")
	require.NoError(t, err)
	assert.Equal(t, 1.5, result)
}

func TestBitsConstruction(t *testing.T) {
	lr, _ := newTestRuntime(t)

	assert.Equal(t, "0b0101", evalString(t, lr, "bits.new(4, 5)"))
	assert.Equal(t, "0b00011111", evalString(t, lr, `bits.new("0x1f")`))
	assert.Equal(t, "0b00000011", evalString(t, lr, "bits.new(3)"))
	assert.Equal(t, "0b0000", evalString(t, lr, "bits.new(4, nil)"))
	assert.Equal(t, "0b1010", evalString(t, lr, `bits.parse("0b1010")`))
	assert.Equal(t, "0b10", evalString(t, lr, `bits.resize(2, "0b101100")`))
	assert.Equal(t, "0b1000", evalString(t, lr, `bits.resize(4, "0b10")`))

	result, err := lr.Eval(context.Background(), "bits.default_width")
	require.NoError(t, err)
	assert.Equal(t, int64(8), result)

	wide := evalString(t, lr, `bits.new(70, "1180591620717411303423")`)
	assert.Equal(t, "0b"+strings.Repeat("1", 70), wide)
}

func TestBitsFormatting(t *testing.T) {
	lr, _ := newTestRuntime(t)

	assert.Equal(t, "0b1100", evalString(t, lr, "tostring(bits.new(4, 12))"))
	assert.Equal(t, "12", evalString(t, lr, "bits.decimal(bits.new(4, 12))"))
	assert.Equal(t, "0xc", evalString(t, lr, "bits.new(4, 12):hex()"))
	assert.Equal(t, "0b0001", evalString(t, lr, `bits.tostring("0b0001")`))
	assert.Equal(t, "<<5:3>>", evalString(t, lr, "bits.new(3, 5):erlang()"))
	assert.Equal(t, "<<171,12:4>>", evalString(t, lr, `bits.erlang("0b101010111100")`))

	result, err := lr.Eval(context.Background(), "bits.new(4, 12):tonumber()")
	require.NoError(t, err)
	assert.Equal(t, int64(12), result)

	result, err = lr.Eval(context.Background(), "bits.new(4, 5):bits()")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(0), int64(1), int64(0), int64(1)}, result)

	result, err = lr.Eval(context.Background(), "bits.new(4, 5):bit(1), bits.width(bits.new(6, 0))")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(1), int64(6)}, result)
}

func TestLogicMutatesFirstOperand(t *testing.T) {
	lr, _ := newTestRuntime(t)

	result, err := lr.Eval(context.Background(), `
		a = bits.new(4, 12)
		b = bits.new(4, 10)
		r = bits.band(a, b)
		return tostring(a), tostring(b), rawequal(a, r)`)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"0b1000", "0b1010", true}, result)

	assert.Equal(t, "0b1110", evalString(t, lr, `tostring(bits.new(4, 12):bor("0b0110"))`))
	assert.Equal(t, "0b0110", evalString(t, lr, `tostring(bits.new(4, 12):bxor(bits.new(4, 10)))`))
	assert.Equal(t, "0b0011", evalString(t, lr, "tostring(bits.new(4, 12):ones())"))
	assert.Equal(t, "0b1011", evalString(t, lr, "tostring(bits.twos(bits.new(4, 5)))"))
}

func TestAddForms(t *testing.T) {
	lr, _ := newTestRuntime(t)

	result, err := lr.Eval(context.Background(), `
		a = bits.new(4, 5)
		c = bits.add(a, bits.new(4, 3))
		d = a + "0b0011"
		return tostring(c), tostring(d), tostring(a)`)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"0b1000", "0b1000", "0b0101"}, result)

	result, err = lr.Eval(context.Background(), `
		a = bits.new(4, 5)
		a:add(bits.new(4, 3))
		return tostring(a)`)
	require.NoError(t, err)
	assert.Equal(t, "0b1000", result)

	assert.Equal(t, "0b00", evalString(t, lr, "tostring(bits.new(4, 1) + bits.new(4, 2))"))
}

func TestMetamethods(t *testing.T) {
	lr, _ := newTestRuntime(t)

	result, err := lr.Eval(context.Background(), `
		local v = bits.new(6, 1)
		return #v, v == bits.parse("0b000001"), v == bits.new(6, 2), "v=" .. v`)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(6), true, false, "v=0b000001"}, result)

	result, err = lr.Eval(context.Background(), `
		local v = bits.new(4, 9)
		local w = v:clone()
		w:ones()
		return tostring(v), tostring(w)`)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"0b1001", "0b0110"}, result)
}

func TestCoreErrorsKeepTheirChain(t *testing.T) {
	lr, _ := newTestRuntime(t)
	ctx := context.Background()

	_, err := lr.Eval(ctx, "bits.new(4, 16)")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, bitval.ErrOutOfRange))
	assert.Equal(t, "LUA_EVAL_ERROR", errors.Code(err))
	assert.Contains(t, err.Error(), "does not fit in 4 bits")

	_, err = lr.Eval(ctx, `bits.parse("0b12")`)
	assert.True(t, stderrors.Is(err, bitval.ErrInvalidLiteral))

	_, err = lr.Eval(ctx, `bits.new(8, "twelve")`)
	assert.True(t, stderrors.Is(err, bitval.ErrInvalidLiteral))

	_, err = lr.Eval(ctx, "bits.new(0, 0)")
	assert.True(t, stderrors.Is(err, bitval.ErrInvalidWidth))

	_, err = lr.Eval(ctx, `bits.new(64, "0xffffffffffffffff"):tonumber()`)
	assert.True(t, stderrors.Is(err, bitval.ErrNativeOverflow))
}

func TestPcallSeesErrorCode(t *testing.T) {
	lr, _ := newTestRuntime(t)

	result, err := lr.Eval(context.Background(), `
		local ok, e = pcall(bits.new, 4, 16)
		return ok, e.code, tostring(e)`)
	require.NoError(t, err)

	values := result.([]interface{})
	assert.Equal(t, false, values[0])
	assert.Equal(t, bitval.CodeOutOfRange, values[1])
	assert.Contains(t, values[2], "[VALIDATION][OUT_OF_RANGE]")
}

func TestLuaErrorsCarryPosition(t *testing.T) {
	lr, _ := newTestRuntime(t)
	ctx := context.Background()

	_, err := lr.Eval(ctx, "bits.new(")
	require.Error(t, err)
	assert.Equal(t, "LUA_SYNTAX_ERROR", errors.Code(err))

	err = lr.ExecuteBatch(ctx, "local a = 1\nerror('boom')")
	require.Error(t, err)
	execErr, ok := errors.AsExecutionError(err)
	require.True(t, ok)
	assert.Equal(t, "LUA_EVAL_ERROR", execErr.Code)
	assert.Equal(t, 2, execErr.Line)
	assert.Equal(t, "boom", execErr.Message)
}

func TestFailedEvaluationIsLogged(t *testing.T) {
	var logs bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Format: "simple"}, &logs)
	require.NoError(t, err)

	lr := NewLuaRuntime(Options{Output: &bytes.Buffer{}, Logger: logger})
	require.NoError(t, lr.Initialize())
	defer lr.Cleanup()

	_, err = lr.Eval(context.Background(), "bits.new(4, 99)")
	require.Error(t, err)
	assert.Contains(t, logs.String(), "DEBUG evaluation failed (error: ")
	assert.Contains(t, logs.String(), "value 99 does not fit in 4 bits")
}

func TestEvalTimeout(t *testing.T) {
	lr, _ := newTestRuntime(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := lr.Eval(ctx, "while true do end")
	require.Error(t, err)
	assert.Equal(t, "LUA_EVAL_TIMEOUT", errors.Code(err))
	assert.True(t, stderrors.Is(err, context.DeadlineExceeded))

	result, err := lr.Eval(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), result)
}

func TestPrintUsesDisplayFormat(t *testing.T) {
	lr, out := newTestRuntime(t)
	ctx := context.Background()

	_, err := lr.Eval(ctx, `print(bits.new(4, 5), 7, "x")`)
	require.NoError(t, err)
	assert.Equal(t, "0b0101\t7\tx\n", out.String())

	out.Reset()
	lr.SetDisplayOptions(shared.DisplayOptions{Format: shared.FormatHex, ShowWidth: true})
	require.NoError(t, lr.ExecuteBatch(ctx, "print(bits.new(8, 255))"))
	assert.Equal(t, "0xff\n", out.String())
}

func TestRequireReturnsGlobalModule(t *testing.T) {
	lr, _ := newTestRuntime(t)

	result, err := lr.Eval(context.Background(), `require("bits") == bits`)
	require.NoError(t, err)
	assert.Equal(t, true, result)

	result, err = lr.Eval(context.Background(), "local b = bits; bits = nil; return require('bits') == b")
	require.NoError(t, err)
	assert.Equal(t, true, result)
}

func TestModuleManagerRejectsDuplicates(t *testing.T) {
	_, err := NewModuleManager(NewBitsModule(8), NewBitsModule(16))
	assert.Equal(t, "LUA_MODULE_DUPLICATE", errors.Code(err))

	mm, err := NewModuleManager(NewBitsModule(0))
	require.NoError(t, err)
	assert.Equal(t, []string{"bits"}, mm.Names())
}

func TestVariables(t *testing.T) {
	lr, _ := newTestRuntime(t)

	require.NoError(t, lr.SetVariable("v", bitval.MustNew(4, 3)))
	assert.Equal(t, "0b0110", evalString(t, lr, "tostring(v + v)"))

	got, err := lr.GetVariable("v")
	require.NoError(t, err)
	assert.Equal(t, "0b0011", got.(*bitval.BitValue).String())

	require.NoError(t, lr.SetVariable("list", []interface{}{1, "a"}))
	got, err = lr.GetVariable("list")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(1), "a"}, got)

	_, err = lr.GetVariable("missing")
	assert.Equal(t, "LUA_VARIABLE_NOT_FOUND", errors.Code(err))

	err = lr.SetVariable("ch", make(chan int))
	assert.Equal(t, "LUA_VALUE_CONVERSION_ERROR", errors.Code(err))

	assert.Equal(t, []string{"list", "v"}, lr.GetGlobalVariables())
}

func TestCompletionSuggestions(t *testing.T) {
	lr, _ := newTestRuntime(t)
	require.NoError(t, lr.ExecuteBatch(context.Background(), "value = bits.new(4, 1)"))

	assert.Equal(t, []string{"bits.new"}, lr.GetCompletionSuggestions("bits.ne"))
	assert.Equal(t, []string{"x = bits.tonumber", "x = bits.tostring"}, lr.GetCompletionSuggestions("x = bits.to"))
	assert.Equal(t, []string{"value:decimal"}, lr.GetCompletionSuggestions("value:de"))
	assert.Equal(t, []string{"print(value"}, lr.GetCompletionSuggestions("print(val"))
	assert.Contains(t, lr.GetCompletionSuggestions("w"), "while")
	assert.Empty(t, lr.GetCompletionSuggestions("x = "))
}

func TestNotInitialized(t *testing.T) {
	lr := NewLuaRuntime(Options{})

	assert.False(t, lr.IsReady())
	_, err := lr.Eval(context.Background(), "1")
	assert.Equal(t, "LUA_RUNTIME_NOT_INITIALIZED", errors.Code(err))
	assert.Empty(t, lr.GetCompletionSuggestions("bi"))
	assert.Equal(t, "lua", lr.GetName())
}
