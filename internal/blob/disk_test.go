package blob

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/quickchat/server/internal/common/logger"
)

// Smallest valid PNG: header, IHDR, IDAT, IEND.
var pngBytes = []byte{
	0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A,
	0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4,
	0x89, 0x00, 0x00, 0x00, 0x0A, 0x49, 0x44, 0x41,
	0x54, 0x78, 0x9C, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0D, 0x0A, 0x2D, 0xB4, 0x00,
	0x00, 0x00, 0x00, 0x49, 0x45, 0x4E, 0x44, 0xAE,
	0x42, 0x60, 0x82,
}

type fixedIDGen struct {
	id string
}

func (g *fixedIDGen) NewID() string { return g.id }

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("", "test", "critical")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	return log
}

func newStore(t *testing.T, maxSize int64) (*DiskStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewDiskStore(dir, "/media/", maxSize, &fixedIDGen{id: "pic"}, testLogger(t))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store, dir
}

func TestUploadWritesImageAndReturnsURL(t *testing.T) {
	store, dir := newStore(t, 0)

	url, err := store.Upload(context.Background(), pngBytes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "/media/pic.png" {
		t.Fatalf("url = %q, want /media/pic.png", url)
	}

	written, err := os.ReadFile(filepath.Join(dir, "pic.png"))
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	if len(written) != len(pngBytes) {
		t.Fatalf("stored %d bytes, want %d", len(written), len(pngBytes))
	}
}

func TestUploadAcceptsDataURI(t *testing.T) {
	store, _ := newStore(t, 0)
	payload := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)

	url, err := store.Upload(context.Background(), []byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(url, ".png") {
		t.Fatalf("expected png url, got %q", url)
	}
}

func TestUploadRejectsNonImage(t *testing.T) {
	store, _ := newStore(t, 0)

	if _, err := store.Upload(context.Background(), []byte("plain text")); !errors.Is(err, ErrNotAnImage) {
		t.Fatalf("expected ErrNotAnImage, got %v", err)
	}
}

func TestUploadRejectsOversizedImage(t *testing.T) {
	store, _ := newStore(t, int64(len(pngBytes)-1))

	if _, err := store.Upload(context.Background(), pngBytes); !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge, got %v", err)
	}
}

func TestUploadHonorsCancelledContext(t *testing.T) {
	store, dir := newStore(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.Upload(ctx, pngBytes); err == nil {
		t.Fatal("expected context error")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatal("nothing must be written after cancellation")
	}
}

func TestDecodePayload(t *testing.T) {
	raw, err := DecodePayload([]byte("raw bytes"))
	if err != nil || string(raw) != "raw bytes" {
		t.Fatalf("raw passthrough failed: %v", err)
	}

	decoded, err := DecodePayload([]byte("data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("abc"))))
	if err != nil || string(decoded) != "abc" {
		t.Fatalf("base64 decode failed: %v", err)
	}

	if _, err := DecodePayload([]byte("data:image/png;base64")); !errors.Is(err, ErrMalformedDataURI) {
		t.Fatalf("missing comma must fail, got %v", err)
	}
	if _, err := DecodePayload([]byte("data:image/png,percent-encoded")); !errors.Is(err, ErrMalformedDataURI) {
		t.Fatalf("non-base64 data uri must fail, got %v", err)
	}
	if _, err := DecodePayload([]byte("data:image/png;base64,!!!")); !errors.Is(err, ErrMalformedDataURI) {
		t.Fatalf("bad base64 must fail, got %v", err)
	}
}
