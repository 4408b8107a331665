package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupJSONToWriter(t *testing.T) {
	var buf bytes.Buffer
	cleanup, err := Setup(Config{Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer func() { _ = cleanup() }()

	L().Info("run.completed", "steps", 50)

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("expected one JSON record, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "run.completed" || rec["steps"] != float64(50) {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestSetupDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	cleanup, err := Setup(Config{Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	L().Debug("hidden")
	_ = cleanup()
	if strings.Contains(buf.String(), "hidden") {
		t.Fatal("debug record written at info level")
	}

	buf.Reset()
	cleanup, err = Setup(Config{Output: &buf, Debug: true})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = cleanup() }()
	L().Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatal("debug record missing with Debug enabled")
	}
}

func TestSetupFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "radgrid.log")
	cleanup, err := Setup(Config{File: path})
	if err != nil {
		t.Fatal(err)
	}
	L().Warn("unstable", "step", 3)
	if err := cleanup(); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "unstable") {
		t.Fatalf("log file missing record: %q", b)
	}
}

func TestSetupClosesPreviousFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := Setup(Config{File: filepath.Join(dir, "first.log")}); err != nil {
		t.Fatal(err)
	}
	mu.RLock()
	first := logFile
	mu.RUnlock()

	cleanup, err := Setup(Config{File: filepath.Join(dir, "second.log")})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = cleanup() }()

	if _, err := first.Write([]byte("late\n")); !errors.Is(err, os.ErrClosed) {
		t.Fatalf("first log file still open after a second Setup: %v", err)
	}
	L().Info("second")
	b, err := os.ReadFile(filepath.Join(dir, "second.log"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "second") {
		t.Fatalf("second log file missing record: %q", b)
	}
}

func TestSetupRejectsUnknownFormat(t *testing.T) {
	if _, err := Setup(Config{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
