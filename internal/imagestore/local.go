// internal/imagestore/local.go
package imagestore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"mcp-meal-scan/internal/models"
)

var (
	ErrNotFound = errors.New("image not found")
	ErrTooLarge = errors.New("image too large")
)

const fallbackMIMEType = "image/jpeg"

// LocalStore reads captured photos from the local filesystem.
type LocalStore struct {
	maxBytes int64
}

func NewLocalStore(maxBytes int64) *LocalStore {
	return &LocalStore{maxBytes: maxBytes}
}

// Resolve turns a reference into a filesystem path. Plain paths are returned as is,
// file:// URIs are unescaped. Any other scheme is rejected.
func Resolve(ref models.ImageReference) (string, error) {
	raw := strings.TrimSpace(string(ref))
	if raw == "" {
		return "", fmt.Errorf("empty image reference: %w", ErrNotFound)
	}
	if !strings.Contains(raw, "://") {
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid image reference %q: %w", raw, ErrNotFound)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("unsupported image scheme %q: %w", u.Scheme, ErrNotFound)
	}
	return u.Path, nil
}

// Stat checks that the image exists, is a regular readable file and fits the
// size limit. It returns the size in bytes.
func (s *LocalStore) Stat(ctx context.Context, ref models.ImageReference) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	path, err := Resolve(ref)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %v: %w", path, err, ErrNotFound)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s is a directory: %w", path, ErrNotFound)
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %v: %w", path, err, ErrNotFound)
	}
	f.Close()

	if s.maxBytes > 0 && info.Size() > s.maxBytes {
		return info.Size(), fmt.Errorf("%s is %d bytes, limit is %d: %w", path, info.Size(), s.maxBytes, ErrTooLarge)
	}
	return info.Size(), nil
}

// Load reads the image and encodes it as standard base64, sniffing the MIME type
// from the content.
func (s *LocalStore) Load(ctx context.Context, ref models.ImageReference) (*models.EncodedImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := Resolve(ref)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %v: %w", path, err, ErrNotFound)
	}
	defer f.Close()

	reader := io.Reader(f)
	if s.maxBytes > 0 {
		reader = io.LimitReader(f, s.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read %s: %v: %w", path, err, ErrNotFound)
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%s exceeds %d bytes: %w", path, s.maxBytes, ErrTooLarge)
	}

	return &models.EncodedImage{
		Base64:   base64.StdEncoding.EncodeToString(data),
		MIMEType: detectMIMEType(data),
		Size:     int64(len(data)),
	}, nil
}

func detectMIMEType(data []byte) string {
	mime := mimetype.Detect(data)
	if strings.HasPrefix(mime.String(), "image/") {
		return mime.String()
	}
	// Camera captures are JPEG; anything unrecognised is sent as such.
	return fallbackMIMEType
}
