package logging

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupAt(t *testing.T, level string) {
	t.Helper()
	rw, err := Setup(filepath.Join(t.TempDir(), "daemon.log"), level)
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	t.Cleanup(func() {
		rw.Close()
		log.SetOutput(os.Stderr)
	})
}

func TestDebugfSuppressedAtInfo(t *testing.T) {
	setupAt(t, "info")
	var buf bytes.Buffer
	log.SetOutput(&buf)

	Debugf("noisy per-item line %d", 1)
	if buf.Len() != 0 {
		t.Errorf("debug line written at info level: %q", buf.String())
	}
}

func TestDebugfWrittenAtDebug(t *testing.T) {
	setupAt(t, "DEBUG")
	var buf bytes.Buffer
	log.SetOutput(&buf)

	Debugf("noisy per-item line %d", 1)
	if !strings.Contains(buf.String(), "noisy per-item line 1") {
		t.Errorf("debug line missing at debug level: %q", buf.String())
	}
}

func TestRotatingWriterKeepsOneBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "daemon.log")

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	rw := &RotatingWriter{file: f, path: path, maxSize: 16}
	defer rw.Close()

	if _, err := rw.Write([]byte("0123456789abcdefghij")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if _, err := os.Stat(path + ".1"); err != nil {
		t.Errorf("backup file missing: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("log file missing after rotation: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("log file not truncated after rotation: %d bytes", info.Size())
	}
}
