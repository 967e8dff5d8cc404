package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/workoai/referrals/internal/metrics"
	"github.com/workoai/referrals/internal/storage"
)

const (
	// DefaultMaxDocumentBytes is the upload ceiling when none is configured.
	DefaultMaxDocumentBytes = 5 << 20

	// UploadsPathPrefix is the public retrieval prefix of stored documents.
	UploadsPathPrefix = "/uploads/"
)

// documentTypes maps accepted extensions to the content type they are
// stored and served with.
var documentTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// ObjectStore is the subset of storage.Storage used for documents.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// DocumentService validates and stores resume documents.
type DocumentService struct {
	store    ObjectStore
	metrics  *metrics.Metrics
	maxBytes int64
	now      func() time.Time
	entropy  io.Reader
}

func NewDocumentService(store ObjectStore, maxBytes int64, m *metrics.Metrics) *DocumentService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxDocumentBytes
	}
	if m == nil {
		m = metrics.Noop()
	}
	return &DocumentService{
		store:    store,
		metrics:  m,
		maxBytes: maxBytes,
		now:      time.Now,
		entropy:  ulid.DefaultEntropy(),
	}
}

// MaxBytes returns the upload ceiling.
func (s *DocumentService) MaxBytes() int64 {
	return s.maxBytes
}

// Accept stores a single document and returns its retrieval path
// ("/uploads/<name>"). The extension is checked before the size.
func (s *DocumentService) Accept(ctx context.Context, r io.Reader, filename string, size int64) (string, error) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
	contentType, ok := documentTypes[ext]
	if !ok {
		s.metrics.IncUploadsRejected("unsupported_type")
		return "", fmt.Errorf("%w: only PDF, DOC and DOCX files are allowed", ErrUnsupportedType)
	}
	if size > s.maxBytes {
		s.metrics.IncUploadsRejected("too_large")
		return "", fmt.Errorf("%w: maximum size is %d bytes", ErrTooLarge, s.maxBytes)
	}

	name, err := s.storageName(ext)
	if err != nil {
		return "", err
	}
	if err := s.store.Put(ctx, name, io.LimitReader(r, s.maxBytes), size, contentType); err != nil {
		return "", fmt.Errorf("store document: %w", err)
	}
	s.metrics.IncUploadsAccepted()

	return UploadsPathPrefix + name, nil
}

// Open returns a previously stored document and its content type. Names
// that could not have been generated by Accept are reported as ErrNotFound.
func (s *DocumentService) Open(ctx context.Context, name string) (io.ReadCloser, string, error) {
	if name == "" || path.Base(name) != name || strings.Contains(name, `\`) || strings.HasPrefix(name, ".") {
		return nil, "", ErrNotFound
	}
	contentType, ok := documentTypes[strings.ToLower(path.Ext(name))]
	if !ok {
		return nil, "", ErrNotFound
	}

	rc, err := s.store.Get(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("open document: %w", err)
	}
	return rc, contentType, nil
}

// storageName returns "<unix-millis>-<random><ext>". The random part is the
// entropy section of a ULID.
func (s *DocumentService) storageName(ext string) (string, error) {
	now := s.now()
	id, err := ulid.New(ulid.Timestamp(now), s.entropy)
	if err != nil {
		return "", fmt.Errorf("generate document name: %w", err)
	}
	suffix := strings.ToLower(id.String()[10:])
	return fmt.Sprintf("%d-%s%s", now.UnixMilli(), suffix, ext), nil
}
