// Package logging configures the logrus logger shared by the engine and the demo
//
// Logging is off unless debug is requested. In debug mode entries go to a size-rotated file under
// the log directory; stdout and stderr stay untouched while a terminal UI owns the screen.
// A console writer may be attached for headless runs
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultDir  = "logs"
	FileName    = "stagecraft.log"
	MaxFileSize = 10 * 1024 * 1024
)

// Options selects logger outputs
type Options struct {
	Debug bool   // Enables the log file
	Dir   string // Log directory, DefaultDir when empty
	Level string // logrus level name, info when empty or invalid

	// Console receives colored entries when set (headless mode, validate command)
	Console io.Writer
	Color   bool
}

// Setup builds a logger for opts
// The returned closer releases the log file and must be called on shutdown
func Setup(opts Options) (*logrus.Logger, io.Closer, error) {
	log := logrus.New()

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	var (
		writers []io.Writer
		closer  io.Closer = nopCloser{}
	)

	if opts.Debug {
		file, err := openLogFile(opts.Dir)
		if err != nil {
			return nil, nil, err
		}
		writers = append(writers, file)
		closer = file
	}
	if opts.Console != nil {
		writers = append(writers, opts.Console)
	}

	switch len(writers) {
	case 0:
		log.SetOutput(io.Discard)
	case 1:
		log.SetOutput(writers[0])
	default:
		log.SetOutput(io.MultiWriter(writers...))
	}

	log.SetFormatter(&Formatter{
		TimestampFormat: "15:04:05.000",
		DisableColors:   !opts.Color || opts.Console == nil,
	})

	return log, closer, nil
}

// Discard returns a logger that drops every entry
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// openLogFile creates the directory, rotates an oversized file and opens the log for append
func openLogFile(dir string) (*os.File, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	path := filepath.Join(dir, FileName)
	if err := rotate(path, MaxFileSize, time.Now()); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return file, nil
}

// rotate renames path with a timestamp suffix when it exceeds limit bytes
func rotate(path string, limit int64, now time.Time) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat log file: %w", err)
	}
	if info.Size() <= limit {
		return nil
	}

	ext := filepath.Ext(path)
	rotated := strings.TrimSuffix(path, ext) + "-" + now.Format("20060102-150405") + ext
	if err := os.Rename(path, rotated); err != nil {
		return fmt.Errorf("rotate log file: %w", err)
	}
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
