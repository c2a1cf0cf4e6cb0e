package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ExtractionLogger writes leveled lines for one store extraction to stdout
// and, when a log directory is configured, to a per-store log file.
type ExtractionLogger struct {
	file   *os.File
	logger *log.Logger
	debug  bool
}

type LoggerOptions struct {
	Dir   string
	Debug bool
}

func NewExtractionLogger(storeHost string, opts LoggerOptions) (*ExtractionLogger, error) {
	var out io.Writer = os.Stdout
	var file *os.File

	if opts.Dir != "" {
		// Sanitize host for file system
		sanitized := strings.NewReplacer(":", "_", "/", "_", " ", "_").Replace(strings.ToLower(storeHost))

		storeDir := filepath.Join(opts.Dir, sanitized)
		if err := os.MkdirAll(storeDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store log directory: %w", err)
		}

		timestamp := time.Now().Format("2006-01-02_15-04-05")
		logPath := filepath.Join(storeDir, fmt.Sprintf("extract_%s_%s.log", sanitized, timestamp))

		f, err := os.Create(logPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		file = f
		out = io.MultiWriter(os.Stdout, f)
	}

	return &ExtractionLogger{
		file:   file,
		logger: log.New(out, fmt.Sprintf("[%s] ", storeHost), log.Ldate|log.Ltime|log.Lmicroseconds),
		debug:  opts.Debug,
	}, nil
}

// NewDiscardLogger returns a logger that drops everything, for tests and tools.
func NewDiscardLogger() *ExtractionLogger {
	return &ExtractionLogger{logger: log.New(io.Discard, "", 0)}
}

func (l *ExtractionLogger) LogInfo(format string, v ...interface{}) {
	l.log("INFO", format, v...)
}

func (l *ExtractionLogger) LogError(format string, v ...interface{}) {
	l.log("ERROR", format, v...)
}

func (l *ExtractionLogger) LogDebug(format string, v ...interface{}) {
	if !l.debug {
		return
	}
	l.log("DEBUG", format, v...)
}

func (l *ExtractionLogger) log(level string, format string, v ...interface{}) {
	message := fmt.Sprintf(format, v...)
	l.logger.Printf("[%s] %s", level, message)
}

func (l *ExtractionLogger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
