// Package logging tees the standard logger to a size-capped daemon log
// file so long-running scrape daemons do not fill the disk. A debug
// level gates the chattier per-item lines.
package logging

import (
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

const maxLogSize = 2 * 1024 * 1024 // 2MB, one .1 backup kept

// Set once in Setup before any workers start.
var debugEnabled bool

// Debugf writes through the standard logger only when the configured
// level is debug.
func Debugf(format string, args ...any) {
	if !debugEnabled {
		return
	}
	log.Printf(format, args...)
}

type RotatingWriter struct {
	mu      sync.Mutex
	file    *os.File
	path    string
	size    int64
	maxSize int64
}

func Setup(logPath, level string) (*RotatingWriter, error) {
	debugEnabled = strings.EqualFold(level, "debug")

	// Truncate if too large on startup
	if info, err := os.Stat(logPath); err == nil && info.Size() > maxLogSize {
		os.Truncate(logPath, 0)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	info, _ := f.Stat()
	size := int64(0)
	if info != nil {
		size = info.Size()
	}

	rw := &RotatingWriter{
		file:    f,
		path:    logPath,
		size:    size,
		maxSize: maxLogSize,
	}

	multi := io.MultiWriter(os.Stdout, rw)
	log.SetOutput(multi)

	return rw, nil
}

func (w *RotatingWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err = w.file.Write(p)
	w.size += int64(n)

	if w.size > w.maxSize {
		w.rotate()
	}

	return n, err
}

func (w *RotatingWriter) rotate() {
	w.file.Close()

	// Keep one backup
	os.Rename(w.path, w.path+".1")

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return
	}

	w.file = f
	w.size = 0
}

func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
