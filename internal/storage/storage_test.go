package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

type countingReader struct {
	io.Reader
	reads  int
	closed int
}

func (r *countingReader) Read(p []byte) (int, error) {
	r.reads++
	return r.Reader.Read(p)
}

func (r *countingReader) Close() error {
	r.closed++
	return nil
}

func TestObjectHandleBytesMemoized(t *testing.T) {
	reader := &countingReader{Reader: io.LimitReader(neverEnding('a'), 16)}
	h := NewObjectHandle("a.jpg", "image/jpeg", 16, reader)

	first, err := h.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	second, err := h.Bytes()
	if err != nil {
		t.Fatalf("Bytes (second): %v", err)
	}
	if len(first) != 16 || string(first) != string(second) {
		t.Errorf("payload = %q / %q", first, second)
	}
	if reader.closed != 1 {
		t.Errorf("reader closed %d times, want 1", reader.closed)
	}

	reads := reader.reads
	if _, err := h.Bytes(); err != nil {
		t.Fatalf("Bytes (third): %v", err)
	}
	if reader.reads != reads {
		t.Error("subsequent Bytes calls must not touch the reader")
	}
}

type neverEnding byte

func (b neverEnding) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(b)
	}
	return len(p), nil
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.Put("photo.jpg", "image/jpeg", []byte("jpeg-bytes"))

	h, err := s.Get(ctx, "photo.jpg")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if h.Key != "photo.jpg" || h.ContentType != "image/jpeg" || h.Size != 10 {
		t.Errorf("handle = %+v", h)
	}
	body, err := h.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if string(body) != "jpeg-bytes" {
		t.Errorf("body = %q", body)
	}

	if _, err := s.Get(ctx, "missing.jpg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing key error = %v, want ErrNotFound", err)
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := s.Get(canceled, "photo.jpg"); !errors.Is(err, context.Canceled) {
		t.Errorf("canceled context error = %v", err)
	}
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "albums"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "albums", "photo.jpg"), []byte("jpeg-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "raw.bin"), []byte{0x01}, 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	h, err := s.Get(ctx, "albums/photo.jpg")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if h.ContentType != "image/jpeg" {
		t.Errorf("content type = %q", h.ContentType)
	}
	body, err := h.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if string(body) != "jpeg-bytes" {
		t.Errorf("body = %q", body)
	}

	if h, err := s.Get(ctx, "raw.bin"); err != nil {
		t.Errorf("Get raw.bin: %v", err)
	} else if h.ContentType != "application/octet-stream" {
		t.Errorf("unknown extension content type = %q", h.ContentType)
	}

	notFound := []string{
		"missing.jpg",
		"albums",      // directory, not an object
		"",            // empty key
		"../photo.jpg",
		"../../etc/passwd",
	}
	for _, key := range notFound {
		if _, err := s.Get(ctx, key); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(%q) error = %v, want ErrNotFound", key, err)
		}
	}
}

func TestNewFileStoreRejectsBadRoot(t *testing.T) {
	if _, err := NewFileStore(filepath.Join(t.TempDir(), "does-not-exist")); err == nil {
		t.Error("expected an error for a missing root")
	}

	file := filepath.Join(t.TempDir(), "plain.txt")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(file); err == nil {
		t.Error("expected an error for a non-directory root")
	}
}
