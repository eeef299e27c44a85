package lua

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"bitterm/bitval"
	"bitterm/errors"

	lua "github.com/yuin/gopher-lua"
)

const (
	valueTypeName = "bits.value"
	errorTypeName = "bits.error"
)

// BitsModule exposes bitval to Lua as the "bits" module. Values are
// userdata; band, bor, bxor, ones, twos and the :add method mutate their
// first operand, everything else returns a new value.
type BitsModule struct {
	defaultWidth int
}

// NewBitsModule creates the module; defaultWidth is used by bits.new
// when it is called with a single argument
func NewBitsModule(defaultWidth int) *BitsModule {
	if defaultWidth <= 0 {
		defaultWidth = 8
	}
	return &BitsModule{defaultWidth: defaultWidth}
}

// Name returns the module name
func (m *BitsModule) Name() string {
	return "bits"
}

func (m *BitsModule) functions() map[string]lua.LGFunction {
	return map[string]lua.LGFunction{
		"new":      m.newValue,
		"parse":    parseValue,
		"resize":   resizeValue,
		"add":      addPure,
		"band":     band,
		"bor":      bor,
		"bxor":     bxor,
		"ones":     ones,
		"twos":     twos,
		"width":    width,
		"tostring": toBinary,
		"tonumber": toNumber,
		"decimal":  toDecimal,
		"hex":      toHex,
		"erlang":   toErlang,
	}
}

var valueMethods = map[string]lua.LGFunction{
	"band":     band,
	"bor":      bor,
	"bxor":     bxor,
	"ones":     ones,
	"twos":     twos,
	"add":      addInPlace,
	"resize":   resizeValue,
	"clone":    cloneValue,
	"width":    width,
	"bit":      bitAt,
	"tonumber": toNumber,
	"decimal":  toDecimal,
	"hex":      toHex,
	"erlang":   toErlang,
	"bits":     bitsTable,
}

// Open creates the value and error metatables and the module table
func (m *BitsModule) Open(L *lua.LState) (*lua.LTable, error) {
	mt := L.NewTypeMetatable(valueTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), valueMethods))
	L.SetField(mt, "__tostring", L.NewFunction(toBinary))
	L.SetField(mt, "__eq", L.NewFunction(equal))
	L.SetField(mt, "__len", L.NewFunction(width))
	L.SetField(mt, "__add", L.NewFunction(addPure))
	L.SetField(mt, "__concat", L.NewFunction(concat))

	emt := L.NewTypeMetatable(errorTypeName)
	L.SetField(emt, "__tostring", L.NewFunction(errorString))
	L.SetField(emt, "__index", L.NewFunction(errorField))

	module := L.SetFuncs(L.NewTable(), m.functions())
	L.SetField(module, "default_width", lua.LNumber(m.defaultWidth))
	return module, nil
}

// newValueUserData wraps v in a userdata carrying the bits.value metatable
func newValueUserData(L *lua.LState, v *bitval.BitValue) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = v
	L.SetMetatable(ud, L.GetTypeMetatable(valueTypeName))
	return ud
}

func pushValue(L *lua.LState, v *bitval.BitValue) int {
	L.Push(newValueUserData(L, v))
	return 1
}

// raise aborts the current call with err as the Lua error object, so the
// runtime can recover the original Go error from the ApiError.
func raise(L *lua.LState, err error) {
	ud := L.NewUserData()
	ud.Value = err
	L.SetMetatable(ud, L.GetTypeMetatable(errorTypeName))
	L.Error(ud, 1)
}

// toValue accepts a bits.value userdata or a binary literal string.
func toValue(L *lua.LState, n int) *bitval.BitValue {
	switch arg := L.Get(n).(type) {
	case *lua.LUserData:
		if v, ok := arg.Value.(*bitval.BitValue); ok {
			return v
		}
	case lua.LString:
		v, err := bitval.Parse(string(arg))
		if err != nil {
			raise(L, err)
			return nil
		}
		return v
	}
	L.ArgError(n, "bit value expected, got "+L.Get(n).Type().String())
	return nil
}

// checkValue requires a bits.value userdata, for operations that mutate it.
func checkValue(L *lua.LState, n int) *bitval.BitValue {
	ud := L.CheckUserData(n)
	if v, ok := ud.Value.(*bitval.BitValue); ok {
		return v
	}
	L.ArgError(n, "bit value expected")
	return nil
}

// checkWhole requires an integral Lua number within the native int range.
func checkWhole(L *lua.LState, n int) int {
	f := float64(L.CheckNumber(n))
	if f != math.Trunc(f) {
		L.ArgError(n, "integer expected")
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		L.ArgError(n, "integer out of native range, pass a string instead")
	}
	return int(f)
}

func (m *BitsModule) newValue(L *lua.LState) int {
	w, valueIdx := m.defaultWidth, 1
	if L.GetTop() >= 2 {
		w, valueIdx = checkWhole(L, 1), 2
	}

	var (
		v   *bitval.BitValue
		err error
	)
	switch arg := L.Get(valueIdx).(type) {
	case lua.LString:
		literal := strings.ReplaceAll(strings.TrimSpace(string(arg)), "_", "")
		n, ok := new(big.Int).SetString(literal, 0)
		if !ok {
			raise(L, errors.NewValidationError(bitval.CodeInvalidLiteral,
				fmt.Sprintf("invalid integer literal %q", string(arg))))
			return 0
		}
		v, err = bitval.FromBig(w, n)
	case lua.LNumber:
		v, err = bitval.New(w, checkWhole(L, valueIdx))
	default:
		if arg != lua.LNil {
			L.ArgError(valueIdx, "number or string expected")
			return 0
		}
		v, err = bitval.New(w, 0)
	}
	if err != nil {
		raise(L, err)
		return 0
	}
	return pushValue(L, v)
}

func parseValue(L *lua.LState) int {
	v, err := bitval.Parse(L.CheckString(1))
	if err != nil {
		raise(L, err)
		return 0
	}
	return pushValue(L, v)
}

func resizeValue(L *lua.LState) int {
	src := toValue(L, 1)
	v, err := bitval.Resize(checkWhole(L, 2), src)
	if err != nil {
		raise(L, err)
		return 0
	}
	return pushValue(L, v)
}

func addPure(L *lua.LState) int {
	return pushValue(L, bitval.Add(toValue(L, 1), toValue(L, 2)))
}

func addInPlace(L *lua.LState) int {
	checkValue(L, 1).Add(toValue(L, 2))
	L.Push(L.Get(1))
	return 1
}

func band(L *lua.LState) int {
	checkValue(L, 1).And(toValue(L, 2))
	L.Push(L.Get(1))
	return 1
}

func bor(L *lua.LState) int {
	checkValue(L, 1).Or(toValue(L, 2))
	L.Push(L.Get(1))
	return 1
}

func bxor(L *lua.LState) int {
	checkValue(L, 1).Xor(toValue(L, 2))
	L.Push(L.Get(1))
	return 1
}

func ones(L *lua.LState) int {
	checkValue(L, 1).OnesComplement()
	L.Push(L.Get(1))
	return 1
}

func twos(L *lua.LState) int {
	checkValue(L, 1).TwosComplement()
	L.Push(L.Get(1))
	return 1
}

func cloneValue(L *lua.LState) int {
	return pushValue(L, toValue(L, 1).Clone())
}

func width(L *lua.LState) int {
	L.Push(lua.LNumber(toValue(L, 1).Width()))
	return 1
}

// bitAt returns bit i as 0 or 1, where 0 is the most significant bit.
func bitAt(L *lua.LState) int {
	v := toValue(L, 1)
	i := checkWhole(L, 2)
	if i < 0 || i >= v.Width() {
		L.ArgError(2, fmt.Sprintf("bit index %d out of range [0, %d)", i, v.Width()))
		return 0
	}
	if v.Bit(i) {
		L.Push(lua.LNumber(1))
	} else {
		L.Push(lua.LNumber(0))
	}
	return 1
}

// bitsTable returns the bits as a 1-based array of 0/1, MSB first.
func bitsTable(L *lua.LState) int {
	tbl := L.NewTable()
	for i, set := range toValue(L, 1).Bits() {
		n := lua.LNumber(0)
		if set {
			n = 1
		}
		tbl.RawSetInt(i+1, n)
	}
	L.Push(tbl)
	return 1
}

func toBinary(L *lua.LState) int {
	L.Push(lua.LString(toValue(L, 1).String()))
	return 1
}

func toNumber(L *lua.LState) int {
	n, err := toValue(L, 1).Int()
	if err != nil {
		raise(L, err)
		return 0
	}
	L.Push(lua.LNumber(n))
	return 1
}

func toDecimal(L *lua.LState) int {
	L.Push(lua.LString(toValue(L, 1).Decimal()))
	return 1
}

func toHex(L *lua.LState) int {
	L.Push(lua.LString(toValue(L, 1).Hex()))
	return 1
}

func toErlang(L *lua.LState) int {
	L.Push(lua.LString(toValue(L, 1).Erlang()))
	return 1
}

func equal(L *lua.LState) int {
	L.Push(lua.LBool(checkValue(L, 1).Equal(checkValue(L, 2))))
	return 1
}

func concat(L *lua.LState) int {
	L.Push(lua.LString(concatOperand(L.Get(1)) + concatOperand(L.Get(2))))
	return 1
}

func concatOperand(lv lua.LValue) string {
	if ud, ok := lv.(*lua.LUserData); ok {
		if v, ok := ud.Value.(*bitval.BitValue); ok {
			return v.String()
		}
	}
	if lua.LVCanConvToString(lv) {
		return lua.LVAsString(lv)
	}
	return lv.String()
}

func checkError(L *lua.LState) error {
	ud := L.CheckUserData(1)
	if err, ok := ud.Value.(error); ok {
		return err
	}
	L.ArgError(1, "bits error expected")
	return nil
}

func errorString(L *lua.LState) int {
	L.Push(lua.LString(checkError(L).Error()))
	return 1
}

// errorField serves err.code and err.message to scripts that pcall.
func errorField(L *lua.LState) int {
	err := checkError(L)
	switch L.CheckString(2) {
	case "code":
		L.Push(lua.LString(errors.Code(err)))
	case "message":
		if execErr, ok := errors.AsExecutionError(err); ok {
			L.Push(lua.LString(execErr.Message))
		} else {
			L.Push(lua.LString(err.Error()))
		}
	default:
		L.Push(lua.LNil)
	}
	return 1
}
