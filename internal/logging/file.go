package logging

import (
	"io"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// File rotation defaults for TIGRIS_LOG_FILE.
const (
	fileMaxSizeMB  = 10
	fileMaxBackups = 3
	fileMaxAgeDays = 14
)

// NewFileWriter returns a size-rotated writer for path. The directory is
// created with owner-only permissions since entries may include request URLs.
func NewFileWriter(path string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    fileMaxSizeMB,
		MaxBackups: fileMaxBackups,
		MaxAge:     fileMaxAgeDays,
		Compress:   true,
	}, nil
}

// Setup configures DefaultLogger from the resolved level, format and optional
// log file. When a file is given, entries go to both stderr and the file. The
// returned closer must be called before exit.
func Setup(level Level, format Format, file string) (io.Closer, error) {
	DefaultLogger.SetLevel(level)
	DefaultLogger.SetFormat(format)

	if file == "" {
		DefaultLogger.SetOutput(os.Stderr)
		return nopCloser{}, nil
	}

	fw, err := NewFileWriter(file)
	if err != nil {
		return nopCloser{}, err
	}
	DefaultLogger.SetOutput(io.MultiWriter(os.Stderr, fw))
	return fw, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
