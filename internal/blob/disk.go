package blob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/quickchat/server/internal/common/crypto"
	"github.com/quickchat/server/internal/common/logger"
)

var (
	ErrNotAnImage       = errors.New("payload is not an image")
	ErrImageTooLarge    = errors.New("image exceeds size limit")
	ErrMalformedDataURI = errors.New("malformed data uri")
)

// DiskStore writes images under a media directory and returns URLs below
// baseURL. The directory is expected to be served by the HTTP layer.
type DiskStore struct {
	dir     string
	baseURL string
	maxSize int64
	idGen   crypto.IDGenerator
	log     *logger.Logger
}

func NewDiskStore(dir, baseURL string, maxSize int64, idGen crypto.IDGenerator, log *logger.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	return &DiskStore{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		maxSize: maxSize,
		idGen:   idGen,
		log:     log,
	}, nil
}

func (s *DiskStore) Upload(ctx context.Context, payload []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := DecodePayload(payload)
	if err != nil {
		return "", err
	}

	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return "", ErrImageTooLarge
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", ErrNotAnImage
	}

	name := s.idGen.NewID() + mtype.Extension()
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	s.log.Debugf("image stored name=%s size=%d type=%s", name, len(data), mtype.String())
	return s.baseURL + "/" + name, nil
}
