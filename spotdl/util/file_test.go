package util

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCopyWithProgressReportsWrites(t *testing.T) {
	src := strings.NewReader(strings.Repeat("a", 100*1024))
	var dst bytes.Buffer

	var calls int
	var last int64
	written, err := CopyWithProgress(&dst, src, int64(src.Len()), func(w, total int64) {
		calls++
		last = w
	})
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	if written != 100*1024 {
		t.Fatalf("written: %d", written)
	}
	if calls == 0 || last != written {
		t.Fatalf("progress not reported to completion: calls=%d last=%d", calls, last)
	}
}

func TestCalculateMD5(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	sum, err := CalculateMD5(path)
	if err != nil {
		t.Fatalf("md5: %v", err)
	}
	if sum != "900150983cd24fb0d6963f7d28e17f72" {
		t.Fatalf("unexpected digest: %s", sum)
	}
}
