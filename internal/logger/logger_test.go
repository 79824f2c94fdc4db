package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInit(t *testing.T) {
	defer Reset()

	var buf bytes.Buffer
	Init(Options{
		Verbosity: 2,
		Output:    &buf,
	})

	Debug("test message", "key", "value")

	output := buf.String()
	if !strings.Contains(output, "test message") {
		t.Errorf("expected output to contain 'test message', got: %s", output)
	}
	if !strings.Contains(output, "key=value") {
		t.Errorf("expected output to contain 'key=value', got: %s", output)
	}
}

func TestInitOnlyOnce(t *testing.T) {
	defer Reset()

	var buf1, buf2 bytes.Buffer
	Init(Options{Verbosity: 2, Output: &buf1})
	Init(Options{Verbosity: 2, Output: &buf2}) // Should be ignored

	Debug("test message")

	if buf1.Len() == 0 {
		t.Error("expected first buffer to have output")
	}
	if buf2.Len() != 0 {
		t.Error("expected second buffer to be empty (Init should only work once)")
	}
}

func TestIsVerbose(t *testing.T) {
	defer Reset()

	if IsVerbose() {
		t.Error("expected IsVerbose to be false before Init")
	}

	Init(Options{Verbosity: 1})

	if !IsVerbose() {
		t.Error("expected IsVerbose to be true after Init with Verbosity: 1")
	}
}

func TestVerbositySaturates(t *testing.T) {
	defer Reset()

	Init(Options{Verbosity: 9, Output: &bytes.Buffer{}})
	if got := Verbosity(); got != 3 {
		t.Errorf("Verbosity() = %d, want 3", got)
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		verbosity int
		want      slog.Level
	}{
		{-1, slog.LevelWarn},
		{0, slog.LevelWarn},
		{1, slog.LevelInfo},
		{2, slog.LevelDebug},
		{3, LevelTrace},
		{7, LevelTrace},
	}
	for _, tt := range tests {
		if got := LevelFor(tt.verbosity); got != tt.want {
			t.Errorf("LevelFor(%d) = %v, want %v", tt.verbosity, got, tt.want)
		}
	}
}

func TestLogLevels(t *testing.T) {
	defer Reset()

	var buf bytes.Buffer
	Init(Options{
		Verbosity: 3,
		Output:    &buf,
	})

	Trace("trace message")
	Debug("debug message")
	Info("info message")
	Warn("warn message")
	Error("error message")

	output := buf.String()
	for _, msg := range []string{"trace message", "debug message", "info message", "warn message", "error message"} {
		if !strings.Contains(output, msg) {
			t.Errorf("expected output to contain %q", msg)
		}
	}
}

func TestQuietByDefault(t *testing.T) {
	defer Reset()

	var buf bytes.Buffer
	Init(Options{Output: &buf})

	Trace("trace message")
	Debug("debug message")
	Info("info message")

	if buf.Len() != 0 {
		t.Errorf("expected no output below warn level, got: %s", buf.String())
	}

	Warn("warn message")
	Error("error message")

	if !strings.Contains(buf.String(), "warn message") || !strings.Contains(buf.String(), "error message") {
		t.Error("expected warnings and errors to be logged without -v")
	}
}

func TestJSONFormat(t *testing.T) {
	defer Reset()

	var buf bytes.Buffer
	Init(Options{
		Verbosity: 2,
		Output:    &buf,
		JSON:      true,
	})

	Debug("test message", "key", "value")

	output := buf.String()
	if !strings.Contains(output, `"msg":"test message"`) {
		t.Errorf("expected JSON output with msg field, got: %s", output)
	}
	if !strings.Contains(output, `"key":"value"`) {
		t.Errorf("expected JSON output with key field, got: %s", output)
	}
}

func TestFileOutput(t *testing.T) {
	defer Reset()

	path := filepath.Join(t.TempDir(), "logs", "gitu.log")
	var buf bytes.Buffer
	Init(Options{Output: &buf, File: path})

	Debug("only in file", "op", "aa")
	Warn("in both")
	if err := Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "only in file") || !strings.Contains(string(data), "op=aa") {
		t.Errorf("expected debug record in log file, got: %s", data)
	}
	if !strings.Contains(string(data), "in both") {
		t.Errorf("expected warn record in log file, got: %s", data)
	}
	if strings.Contains(buf.String(), "only in file") {
		t.Error("expected debug record to stay out of stderr output")
	}
	if !strings.Contains(buf.String(), "in both") {
		t.Error("expected warn record on stderr output")
	}
}

func TestWith(t *testing.T) {
	defer Reset()

	var buf bytes.Buffer
	Init(Options{
		Verbosity: 2,
		Output:    &buf,
	})

	childLogger := With("component", "test")
	childLogger.Debug("child message")

	output := buf.String()
	if !strings.Contains(output, "component=test") {
		t.Errorf("expected output to contain 'component=test', got: %s", output)
	}
}

func TestLogBeforeInit(t *testing.T) {
	defer Reset()

	// These should not panic even before Init
	Trace("trace")
	Debug("debug")
	Info("info")
	Warn("warn")
	Error("error")
}

func TestReset(t *testing.T) {
	var buf1, buf2 bytes.Buffer

	Init(Options{Verbosity: 2, Output: &buf1})
	Debug("first")

	Reset()

	Init(Options{Verbosity: 2, Output: &buf2})
	Debug("second")
	Reset()

	if !strings.Contains(buf1.String(), "first") {
		t.Error("expected first buffer to contain 'first'")
	}
	if !strings.Contains(buf2.String(), "second") {
		t.Error("expected second buffer to contain 'second'")
	}
	if strings.Contains(buf1.String(), "second") {
		t.Error("expected first buffer to NOT contain 'second'")
	}
}
