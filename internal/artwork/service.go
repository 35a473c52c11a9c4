package artwork

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/gallery/service/internal/storage"
)

// ErrTitleRequired is returned when a create submission has no title.
var ErrTitleRequired = errors.New("title required")

// ErrImageRequired is returned when a create submission has no image binary.
var ErrImageRequired = errors.New("image required")

// StorageError wraps a blob backend failure so the HTTP boundary can map it
// separately from metadata persistence failures.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string { return "storage: " + e.Err.Error() }
func (e *StorageError) Unwrap() error { return e.Err }

// repository is the persistence surface the orchestrator needs. *Repository
// satisfies it; tests substitute counting fakes.
type repository interface {
	Create(ctx context.Context, rec CreateRecord) (*Artwork, error)
	GetByID(ctx context.Context, id string) (*Artwork, error)
	IncrementViews(ctx context.Context, id string) (*Artwork, error)
	Update(ctx context.Context, id string, f UpdateFields) (*Artwork, error)
	Delete(ctx context.Context, id string) error
	ListPublic(ctx context.Context, limit int) ([]Artwork, error)
	ListAll(ctx context.Context, offset, limit int) ([]Artwork, int, error)
}

const (
	publicListLimit = 20
	defaultPageSize = 10
	maxPageSize     = 100
)

// Service orchestrates artwork uploads: it sequences blob storage and
// metadata persistence for a single record and reconciles their partial
// failures. The blob is always stored before the metadata write, so a
// failure can leak an unreferenced blob but never a record whose image does
// not resolve.
type Service struct {
	repo  repository
	blobs storage.BlobStore
	log   *zap.Logger
}

// NewService creates an artwork Service.
func NewService(repo repository, blobs storage.BlobStore, log *zap.Logger) *Service {
	return &Service{repo: repo, blobs: blobs, log: log}
}

// CreateInput carries a multipart create submission.
type CreateInput struct {
	Title       string
	Description string
	File        io.Reader
	Size        int64
	Filename    string
	ContentType string
}

// UpdateInput carries a partial update. Nil metadata fields are left
// unchanged; a non-nil File replaces the record's binary.
type UpdateInput struct {
	Title       *string
	Description *string
	IsPublic    *bool
	File        io.Reader
	Size        int64
	Filename    string
	ContentType string
}

// ListResult is one admin page of artworks.
type ListResult struct {
	Artworks []Artwork `json:"artworks"`
	Total    int       `json:"total"`
	Pages    int       `json:"pages"`
}

// Create validates the submission, stores the binary, then persists the
// metadata record referencing the returned locator. If the metadata write
// fails after a successful store, the orphaned blob is logged once and a
// best-effort compensating delete is attempted before the error surfaces.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Artwork, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if in.File == nil || in.Size == 0 {
		return nil, ErrImageRequired
	}

	loc, err := s.blobs.Upload(ctx, in.File, in.Size, in.Filename, in.ContentType)
	if err != nil {
		if errors.Is(err, storage.ErrEmptyPayload) {
			return nil, ErrImageRequired
		}
		return nil, &StorageError{Err: err}
	}

	art, err := s.repo.Create(ctx, CreateRecord{
		Title:       title,
		Description: in.Description,
		StorageKey:  loc.Key,
		ImageURL:    loc.URL,
		MimeType:    in.ContentType,
		IsPublic:    true,
	})
	if err != nil {
		s.log.Warn("orphaned blob: metadata write failed after successful store",
			zap.String("operation", "create"),
			zap.String("key", loc.Key),
			zap.Error(err),
		)
		s.deleteBlob(ctx, loc.Key)
		return nil, fmt.Errorf("create artwork: %w", err)
	}
	return art, nil
}

// Update applies a partial metadata update. When a new file is supplied the
// binary is stored first (same ordering as Create), swapped into the record
// by the metadata write, and the previous blob is deleted best-effort only
// after that write succeeds.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Artwork, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := UpdateFields{
		Title:       in.Title,
		Description: in.Description,
		IsPublic:    in.IsPublic,
	}

	var newKey string
	if in.File != nil {
		loc, err := s.blobs.Upload(ctx, in.File, in.Size, in.Filename, in.ContentType)
		if err != nil {
			return nil, &StorageError{Err: err}
		}
		newKey = loc.Key
		fields.StorageKey = &loc.Key
		fields.ImageURL = &loc.URL
		fields.MimeType = &in.ContentType
	}

	art, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		if newKey != "" {
			s.log.Warn("orphaned blob: metadata write failed after successful store",
				zap.String("operation", "update"),
				zap.String("id", id),
				zap.String("key", newKey),
				zap.Error(err),
			)
			s.deleteBlob(ctx, newKey)
		}
		return nil, err
	}

	if newKey != "" && current.StorageKey != "" {
		s.deleteBlob(ctx, current.StorageKey)
	}
	return art, nil
}

// Delete removes the metadata record and then the blob. Success is defined
// by the metadata deletion alone; a failed blob delete is only a warning.
func (s *Service) Delete(ctx context.Context, id string) error {
	art, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if art.StorageKey != "" {
		s.deleteBlob(ctx, art.StorageKey)
	}
	return nil
}

// ListPublic returns up to limit published artworks, newest first. limit
// values outside (0, publicListLimit] fall back to publicListLimit.
func (s *Service) ListPublic(ctx context.Context, limit int) ([]Artwork, error) {
	if limit <= 0 || limit > publicListLimit {
		limit = publicListLimit
	}
	return s.repo.ListPublic(ctx, limit)
}

// ListAll returns one admin page of artworks, newest first, with
// pages = ceil(total/pageSize).
func (s *Service) ListAll(ctx context.Context, page, pageSize int) (*ListResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	items, total, err := s.repo.ListAll(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}
	return &ListResult{
		Artworks: items,
		Total:    total,
		Pages:    (total + pageSize - 1) / pageSize,
	}, nil
}

// View returns a single public artwork and bumps its view counter.
func (s *Service) View(ctx context.Context, id string) (*Artwork, error) {
	return s.repo.IncrementViews(ctx, id)
}

// IsNotFound returns true when the error indicates a missing artwork.
func (s *Service) IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// deleteBlob issues a best-effort blob deletion; failure is logged for
// manual reconciliation and never propagated.
func (s *Service) deleteBlob(ctx context.Context, key string) {
	if err := s.blobs.Delete(ctx, key); err != nil {
		s.log.Warn("blob delete failed, manual reconciliation needed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
