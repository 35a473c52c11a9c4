// Package artwork manages gallery artwork records and their image uploads.
package artwork

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Artwork is the durable metadata record for one uploaded image. Exactly one
// binary belongs to each record; StorageKey identifies it inside the blob
// backend and ImageURL is the resolved address captured at store time.
type Artwork struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StorageKey  string    `json:"storageKey"`
	ImageURL    string    `json:"imageUrl"`
	MimeType    string    `json:"mimeType"`
	IsPublic    bool      `json:"isPublic"`
	Views       int       `json:"views"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ErrNotFound is returned when an artwork does not exist.
var ErrNotFound = errors.New("artwork not found")

const artworkColumns = `id, title, description, storage_key, image_url, mime_type, is_public, views, created_at, updated_at`

// Repository handles all artwork database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateRecord holds the fields for a new artwork row.
type CreateRecord struct {
	Title       string
	Description string
	StorageKey  string
	ImageURL    string
	MimeType    string
	IsPublic    bool
}

// UpdateFields holds a partial update; nil fields are left unchanged.
type UpdateFields struct {
	Title       *string
	Description *string
	IsPublic    *bool
	StorageKey  *string
	ImageURL    *string
	MimeType    *string
}

// Create inserts a new artwork and returns the created record.
func (r *Repository) Create(ctx context.Context, rec CreateRecord) (*Artwork, error) {
	a := &Artwork{}
	err := r.db.QueryRow(ctx,
		`INSERT INTO artworks (title, description, storage_key, image_url, mime_type, is_public)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+artworkColumns,
		rec.Title, rec.Description, rec.StorageKey, rec.ImageURL, rec.MimeType, rec.IsPublic,
	).Scan(&a.ID, &a.Title, &a.Description, &a.StorageKey, &a.ImageURL, &a.MimeType,
		&a.IsPublic, &a.Views, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create artwork: %w", err)
	}
	return a, nil
}

// GetByID fetches an artwork by its UUID.
func (r *Repository) GetByID(ctx context.Context, id string) (*Artwork, error) {
	a := &Artwork{}
	err := r.db.QueryRow(ctx,
		`SELECT `+artworkColumns+` FROM artworks WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.Title, &a.Description, &a.StorageKey, &a.ImageURL, &a.MimeType,
		&a.IsPublic, &a.Views, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get artwork by id: %w", err)
	}
	return a, nil
}

// IncrementViews atomically bumps the view counter of a public artwork and
// returns the updated record. Unpublished or missing ids report ErrNotFound.
func (r *Repository) IncrementViews(ctx context.Context, id string) (*Artwork, error) {
	a := &Artwork{}
	err := r.db.QueryRow(ctx,
		`UPDATE artworks SET views = views + 1
		 WHERE id = $1 AND is_public = true
		 RETURNING `+artworkColumns,
		id,
	).Scan(&a.ID, &a.Title, &a.Description, &a.StorageKey, &a.ImageURL, &a.MimeType,
		&a.IsPublic, &a.Views, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("increment views: %w", err)
	}
	return a, nil
}

// Update applies a partial update and returns the updated record.
func (r *Repository) Update(ctx context.Context, id string, f UpdateFields) (*Artwork, error) {
	a := &Artwork{}
	err := r.db.QueryRow(ctx,
		`UPDATE artworks SET
		   title       = COALESCE($2, title),
		   description = COALESCE($3, description),
		   is_public   = COALESCE($4, is_public),
		   storage_key = COALESCE($5, storage_key),
		   image_url   = COALESCE($6, image_url),
		   mime_type   = COALESCE($7, mime_type),
		   updated_at  = now()
		 WHERE id = $1
		 RETURNING `+artworkColumns,
		id, f.Title, f.Description, f.IsPublic, f.StorageKey, f.ImageURL, f.MimeType,
	).Scan(&a.ID, &a.Title, &a.Description, &a.StorageKey, &a.ImageURL, &a.MimeType,
		&a.IsPublic, &a.Views, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update artwork: %w", err)
	}
	return a, nil
}

// Delete removes an artwork row.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM artworks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete artwork: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPublic returns up to limit public artworks, newest first.
func (r *Repository) ListPublic(ctx context.Context, limit int) ([]Artwork, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+artworkColumns+` FROM artworks
		 WHERE is_public = true
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list public artworks: %w", err)
	}
	defer rows.Close()
	return scanArtworks(rows)
}

// ListAll returns one page of artworks (newest first) plus the total count.
func (r *Repository) ListAll(ctx context.Context, offset, limit int) ([]Artwork, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM artworks`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count artworks: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+artworkColumns+` FROM artworks
		 ORDER BY created_at DESC
		 OFFSET $1 LIMIT $2`,
		offset, limit,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list artworks: %w", err)
	}
	defer rows.Close()

	items, err := scanArtworks(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func scanArtworks(rows pgx.Rows) ([]Artwork, error) {
	artworks := []Artwork{}
	for rows.Next() {
		var a Artwork
		if err := rows.Scan(&a.ID, &a.Title, &a.Description, &a.StorageKey, &a.ImageURL,
			&a.MimeType, &a.IsPublic, &a.Views, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan artwork: %w", err)
		}
		artworks = append(artworks, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artworks: %w", err)
	}
	return artworks, nil
}
