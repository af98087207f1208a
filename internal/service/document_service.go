package service

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/dealflow/internal/model"
	"github.com/nurpe/dealflow/internal/repository"
	"github.com/nurpe/dealflow/internal/storage"
)

const (
	maxDocumentSize  = 50 << 20
	downloadURLValid = 15 * time.Minute
)

type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key, fileName string, expiry time.Duration) (string, error)
	Remove(ctx context.Context, key string) error
}

type DocumentService struct {
	base
	deals *repository.DealRepository
	store ObjectStore
}

// NewDocumentService wires the document store. A nil store disables uploads and downloads.
func NewDocumentService(deals *repository.DealRepository, store ObjectStore, log zerolog.Logger) *DocumentService {
	return &DocumentService{base: newBase(nil, log), deals: deals, store: store}
}

func (s *DocumentService) WithClock(now Clock) *DocumentService {
	s.now = now
	return s
}

type UploadInput struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Upload stores the file and records it. When recording fails the object is removed again.
func (s *DocumentService) Upload(ctx context.Context, p model.Principal, dealID uuid.UUID, in UploadInput) (*model.DealDocument, error) {
	if err := requireMutate(p); err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, ErrStorageUnavailable
	}
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(in.Name), "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return nil, invalid("file name is required")
	}
	if in.Size <= 0 || in.Size > maxDocumentSize {
		return nil, invalid("file size must be between 1 byte and %d MB", maxDocumentSize>>20)
	}
	if in.ContentType == "" {
		in.ContentType = "application/octet-stream"
	}
	if _, err := s.deals.Get(ctx, dealID); err != nil {
		return nil, translate(err, "deal")
	}

	doc := &model.DealDocument{
		ID:          uuid.New(),
		DealID:      dealID,
		Name:        name,
		ContentType: in.ContentType,
		Size:        in.Size,
		UploadedBy:  p.Name(),
		CreatedAt:   s.now(),
	}
	doc.ObjectKey = storage.ObjectKey(dealID, doc.ID, name)
	if err := s.store.Put(ctx, doc.ObjectKey, in.Body, in.Size, in.ContentType); err != nil {
		s.log.Error().Err(err).Str("key", doc.ObjectKey).Msg("store document")
		return nil, ErrStorageUnavailable
	}
	if err := s.deals.CreateDocument(ctx, doc); err != nil {
		if rmErr := s.store.Remove(ctx, doc.ObjectKey); rmErr != nil {
			s.log.Warn().Err(rmErr).Str("key", doc.ObjectKey).Msg("remove orphaned document")
		}
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) List(ctx context.Context, dealID uuid.UUID) ([]model.DealDocument, error) {
	return s.deals.ListDocuments(ctx, dealID)
}

type DownloadLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *DocumentService) DownloadURL(ctx context.Context, dealID, docID uuid.UUID) (*DownloadLink, error) {
	if s.store == nil {
		return nil, ErrStorageUnavailable
	}
	doc, err := s.deals.GetDocument(ctx, dealID, docID)
	if err != nil {
		return nil, translate(err, "document")
	}
	link, err := s.store.PresignGet(ctx, doc.ObjectKey, doc.Name, downloadURLValid)
	if err != nil {
		s.log.Error().Err(err).Str("key", doc.ObjectKey).Msg("presign document")
		return nil, ErrStorageUnavailable
	}
	return &DownloadLink{URL: link, ExpiresAt: s.now().Add(downloadURLValid)}, nil
}
