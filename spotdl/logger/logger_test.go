package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewWritesToConfiguredDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	log, err := New("debug", "json", dir, false)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	log.Info("hello", "track_id", "trk1")
	if err := log.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	path := filepath.Join(dir, time.Now().Local().Format("2006-01-02")+".log")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "hello") || !strings.Contains(string(data), "trk1") {
		t.Fatalf("log entry missing from file: %q", data)
	}
}

func TestLevelFiltering(t *testing.T) {
	dir := t.TempDir()

	log, err := New("warn", "text", dir, false)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	log.Debug("below threshold")
	log.Warn("kept")
	if err := log.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	path := filepath.Join(dir, time.Now().Local().Format("2006-01-02")+".log")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(data), "below threshold") {
		t.Fatal("debug entry must be filtered at warn level")
	}
	if !strings.Contains(string(data), "kept") {
		t.Fatal("warn entry missing")
	}
}
