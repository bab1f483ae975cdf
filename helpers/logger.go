package helpers

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LoggerInterface defines the interface for logger implementations
type LoggerInterface interface {
	LogError(name string, err error)
	LogInfo(format string, args ...interface{})
}

// FileLogger appends task errors to a file and forwards everything to next.
type FileLogger struct {
	mu        sync.Mutex
	errorFile string
	next      LoggerInterface
}

// NewFileLogger creates a file-backed logger. next may be nil.
func NewFileLogger(errorFile string, next LoggerInterface) *FileLogger {
	return &FileLogger{
		errorFile: errorFile,
		next:      next,
	}
}

// LogError logs an error to the file with the task name and timestamp
func (l *FileLogger) LogError(name string, err error) {
	if l.next != nil {
		l.next.LogError(name, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.errorFile); dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}
	f, fileErr := os.OpenFile(l.errorFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if fileErr != nil {
		return
	}
	defer f.Close()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(f, "[%s] [%s] %s\n", timestamp, name, err.Error())
}

// LogInfo logs an informational message
func (l *FileLogger) LogInfo(format string, args ...interface{}) {
	if l.next != nil {
		l.next.LogInfo(format, args...)
	}
}
