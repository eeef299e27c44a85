package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// ConsoleWriter writes log entries to a terminal stream
type ConsoleWriter struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewConsoleWriter creates a console writer over w, stderr when nil
func NewConsoleWriter(w io.Writer) *ConsoleWriter {
	if w == nil {
		w = os.Stderr
	}
	return &ConsoleWriter{writer: w}
}

// Write writes data to the console
func (w *ConsoleWriter) Write(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, err := w.writer.Write(data)
	return err
}

// Flush is a no-op; console output is unbuffered
func (w *ConsoleWriter) Flush() error {
	return nil
}

// Close leaves the underlying stream open since it is shared
func (w *ConsoleWriter) Close() error {
	return nil
}

// GetName returns the name of the writer
func (w *ConsoleWriter) GetName() string {
	return "console"
}

// FileWriter appends log entries to a file. When maxSize is positive the
// file is rotated to path.1, path.2, ... before it would grow past maxSize,
// keeping at most maxBackups old files.
type FileWriter struct {
	mu          sync.Mutex
	file        *os.File
	filePath    string
	currentSize int64
	maxSize     int64
	maxBackups  int
}

// NewRotatingFileWriter creates a file writer that rotates at maxSize bytes
func NewRotatingFileWriter(filePath string, maxSize int64, maxBackups int) (*FileWriter, error) {
	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	return &FileWriter{
		file:        file,
		filePath:    filePath,
		currentSize: info.Size(),
		maxSize:     maxSize,
		maxBackups:  maxBackups,
	}, nil
}

// Write writes data to the file, rotating first if needed
func (w *FileWriter) Write(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.maxSize > 0 && w.currentSize > 0 && w.currentSize+int64(len(data)) > w.maxSize {
		if err := w.rotate(); err != nil {
			return fmt.Errorf("rotation failed: %w", err)
		}
	}

	n, err := w.file.Write(data)
	w.currentSize += int64(n)
	if err != nil {
		return fmt.Errorf("failed to write to log file: %w", err)
	}
	return nil
}

func (w *FileWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return err
	}

	if w.maxBackups <= 0 {
		if err := os.Remove(w.filePath); err != nil && !os.IsNotExist(err) {
			return err
		}
	} else {
		_ = os.Remove(w.backupPath(w.maxBackups))
		for i := w.maxBackups - 1; i >= 1; i-- {
			if err := os.Rename(w.backupPath(i), w.backupPath(i+1)); err != nil && !os.IsNotExist(err) {
				return err
			}
		}
		if err := os.Rename(w.filePath, w.backupPath(1)); err != nil {
			return err
		}
	}

	file, err := os.OpenFile(w.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	w.file = file
	w.currentSize = 0
	return nil
}

func (w *FileWriter) backupPath(n int) string {
	return fmt.Sprintf("%s.%d", w.filePath, n)
}

// Flush flushes the file writer
func (w *FileWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.file.Sync()
}

// Close closes the file writer
func (w *FileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.file.Close()
}

// GetName returns the name of the writer
func (w *FileWriter) GetName() string {
	return fmt.Sprintf("file:%s", w.filePath)
}

// NullWriter discards all log entries
type NullWriter struct{}

// NewNullWriter creates a new null writer
func NewNullWriter() *NullWriter {
	return &NullWriter{}
}

// Write discards data
func (w *NullWriter) Write(data []byte) error {
	return nil
}

// Flush does nothing
func (w *NullWriter) Flush() error {
	return nil
}

// Close does nothing
func (w *NullWriter) Close() error {
	return nil
}

// GetName returns the name of the writer
func (w *NullWriter) GetName() string {
	return "null"
}
