package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesConsoleFormat(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "clipchimp.log")

	logger, err := New(Options{
		Level:            "info",
		Format:           "console",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("companion ready", String(FieldComponent, "server"), Int("port", 4600))
	logger.Debug("should be filtered")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "INFO server: companion ready") {
		t.Fatalf("unexpected console output: %q", out)
	}
	if !strings.Contains(out, "port=4600") {
		t.Fatalf("missing attr in output: %q", out)
	}
	if strings.Contains(out, "should be filtered") {
		t.Fatalf("debug record leaked through info level: %q", out)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewJSONFormat(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "clipchimp.log")

	logger, err := New(Options{Level: "debug", Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("hello", String("k", "v"))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	for _, want := range []string{`"level":"info"`, `"msg":"hello"`, `"k":"v"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %s in json output: %q", want, out)
		}
	}
}

func TestNopLoggerIsSilent(t *testing.T) {
	logger := NewNop()
	logger.Error("nothing happens")
	if logger.Enabled(nil, 0) {
		t.Fatal("nop logger should report disabled")
	}
}
