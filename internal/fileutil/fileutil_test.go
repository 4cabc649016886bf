package fileutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func writeClip(t *testing.T, dir, name string, size int) (string, []byte) {
	t.Helper()
	data := bytes.Repeat([]byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p'}, size/8+1)[:size]
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write clip: %v", err)
	}
	return path, data
}

func TestCopyFileWritesRecording(t *testing.T) {
	dir := t.TempDir()
	src, want := writeClip(t, dir, "recording.webm", 4096)
	dst := filepath.Join(dir, "snaplead-recording.webm")

	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Fatal("copied recording differs from source")
	}
}

func TestCopyFileModeTruncatesExistingOutput(t *testing.T) {
	dir := t.TempDir()
	src, want := writeClip(t, dir, "short.mp4", 16)
	dst, _ := writeClip(t, dir, "existing.mp4", 1024)

	if err := CopyFileMode(src, dst, 0o600); err != nil {
		t.Fatalf("CopyFileMode: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("expected %d bytes after truncation, got %d", len(want), len(got))
	}
}

func TestCopyFileVerifiedOptimizedClip(t *testing.T) {
	dir := t.TempDir()
	src, want := writeClip(t, dir, "platform.mp4", 1<<16)
	dst := filepath.Join(t.TempDir(), "out.mp4")

	if err := CopyFileVerified(src, dst); err != nil {
		t.Fatalf("CopyFileVerified: %v", err)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != int64(len(want)) {
		t.Fatalf("size mismatch: got %d, want %d", info.Size(), len(want))
	}
}

func TestCopyFailuresOnMissingSource(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.mp4")
	if err := CopyFileVerified(missing, filepath.Join(dir, "a.mp4")); err == nil {
		t.Fatal("expected verified copy to fail for missing source")
	}
	if err := CopyFile(missing, filepath.Join(dir, "b.mp4")); err == nil {
		t.Fatal("expected copy to fail for missing source")
	}
	if _, err := os.Stat(filepath.Join(dir, "b.mp4")); !os.IsNotExist(err) {
		t.Fatal("expected no output when source is missing")
	}
}
