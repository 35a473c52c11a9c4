package artwork

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gallery/service/internal/storage"
)

// fakeBlobStore counts calls and can be told to fail.
type fakeBlobStore struct {
	uploads     int
	deletes     int
	uploadErr   error
	deleteErr   error
	lastContent []byte
	deletedKeys []string
}

func (f *fakeBlobStore) Upload(_ context.Context, r io.Reader, size int64, originalName, _ string) (storage.Locator, error) {
	f.uploads++
	if f.uploadErr != nil {
		return storage.Locator{}, f.uploadErr
	}
	if size == 0 {
		return storage.Locator{}, storage.ErrEmptyPayload
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return storage.Locator{}, err
	}
	f.lastContent = b
	key := fmt.Sprintf("blob-%d-%s", f.uploads, originalName)
	return storage.Locator{Key: key, URL: "/images/" + key}, nil
}

func (f *fakeBlobStore) Delete(_ context.Context, key string) error {
	f.deletes++
	f.deletedKeys = append(f.deletedKeys, key)
	return f.deleteErr
}

func (f *fakeBlobStore) URL(key string) string { return "/images/" + key }

// fakeRepo is an in-memory repository with call counting and error injection.
type fakeRepo struct {
	createCalls int
	createErr   error
	updateErr   error
	artworks    []Artwork
}

func (f *fakeRepo) Create(_ context.Context, rec CreateRecord) (*Artwork, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	now := time.Now()
	a := Artwork{
		ID:          uuid.NewString(),
		Title:       rec.Title,
		Description: rec.Description,
		StorageKey:  rec.StorageKey,
		ImageURL:    rec.ImageURL,
		MimeType:    rec.MimeType,
		IsPublic:    rec.IsPublic,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.artworks = append(f.artworks, a)
	return &a, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*Artwork, error) {
	for i := range f.artworks {
		if f.artworks[i].ID == id {
			a := f.artworks[i]
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeRepo) IncrementViews(_ context.Context, id string) (*Artwork, error) {
	for i := range f.artworks {
		if f.artworks[i].ID == id && f.artworks[i].IsPublic {
			f.artworks[i].Views++
			a := f.artworks[i]
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeRepo) Update(_ context.Context, id string, fields UpdateFields) (*Artwork, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	for i := range f.artworks {
		if f.artworks[i].ID != id {
			continue
		}
		a := &f.artworks[i]
		if fields.Title != nil {
			a.Title = *fields.Title
		}
		if fields.Description != nil {
			a.Description = *fields.Description
		}
		if fields.IsPublic != nil {
			a.IsPublic = *fields.IsPublic
		}
		if fields.StorageKey != nil {
			a.StorageKey = *fields.StorageKey
		}
		if fields.ImageURL != nil {
			a.ImageURL = *fields.ImageURL
		}
		if fields.MimeType != nil {
			a.MimeType = *fields.MimeType
		}
		a.UpdatedAt = time.Now()
		out := *a
		return &out, nil
	}
	return nil, ErrNotFound
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	for i := range f.artworks {
		if f.artworks[i].ID == id {
			f.artworks = append(f.artworks[:i], f.artworks[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (f *fakeRepo) ListPublic(_ context.Context, limit int) ([]Artwork, error) {
	out := []Artwork{}
	for i := len(f.artworks) - 1; i >= 0 && len(out) < limit; i-- {
		if f.artworks[i].IsPublic {
			out = append(out, f.artworks[i])
		}
	}
	return out, nil
}

func (f *fakeRepo) ListAll(_ context.Context, offset, limit int) ([]Artwork, int, error) {
	total := len(f.artworks)
	if offset >= total {
		return []Artwork{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return append([]Artwork{}, f.artworks[offset:end]...), total, nil
}

func newTestService(repo *fakeRepo, blobs *fakeBlobStore) (*Service, *observer.ObservedLogs) {
	core, logs := observer.New(zap.WarnLevel)
	return NewService(repo, blobs, zap.New(core)), logs
}

func upload(content string) CreateInput {
	return CreateInput{
		Title:       "Sunset",
		Description: "Oil on canvas",
		File:        strings.NewReader(content),
		Size:        int64(len(content)),
		Filename:    "sunset.jpg",
		ContentType: "image/jpeg",
	}
}

func TestCreate_Success(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	blobs := &fakeBlobStore{}
	svc, _ := newTestService(repo, blobs)

	art, err := svc.Create(context.Background(), upload("jpeg bytes"))
	require.NoError(t, err)

	require.Equal(t, "Sunset", art.Title)
	require.True(t, art.IsPublic)
	require.Zero(t, art.Views)
	require.NotEmpty(t, art.StorageKey)
	require.Equal(t, "/images/"+art.StorageKey, art.ImageURL)
	require.Equal(t, []byte("jpeg bytes"), blobs.lastContent, "stored bytes must equal uploaded bytes")
	require.Equal(t, 1, blobs.uploads)
	require.Equal(t, 1, repo.createCalls)
}

func TestCreate_TitleRequired(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	blobs := &fakeBlobStore{}
	svc, _ := newTestService(repo, blobs)

	in := upload("jpeg bytes")
	in.Title = "   "
	_, err := svc.Create(context.Background(), in)

	require.ErrorIs(t, err, ErrTitleRequired)
	require.Zero(t, blobs.uploads, "no storage side effect on validation failure")
	require.Zero(t, repo.createCalls)
}

func TestCreate_ImageRequired(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	blobs := &fakeBlobStore{}
	svc, _ := newTestService(repo, blobs)

	_, err := svc.Create(context.Background(), CreateInput{Title: "Sunset"})

	require.ErrorIs(t, err, ErrImageRequired)
	require.Zero(t, blobs.uploads)
	require.Zero(t, repo.createCalls)
}

func TestCreate_StoreFails_NoRecordCreated(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	blobs := &fakeBlobStore{uploadErr: errors.New("bucket unreachable")}
	svc, _ := newTestService(repo, blobs)

	_, err := svc.Create(context.Background(), upload("jpeg bytes"))

	var se *StorageError
	require.ErrorAs(t, err, &se)
	require.Zero(t, repo.createCalls, "store failure must abort before the metadata write")
	require.Zero(t, blobs.deletes, "nothing to clean up")
}

func TestCreate_PersistFails_OrphanWarnedOnceAndCompensated(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{createErr: errors.New("connection reset")}
	blobs := &fakeBlobStore{}
	svc, logs := newTestService(repo, blobs)

	_, err := svc.Create(context.Background(), upload("jpeg bytes"))
	require.Error(t, err)

	var se *StorageError
	require.False(t, errors.As(err, &se), "persistence failure must not masquerade as a storage error")

	orphanWarnings := logs.FilterMessageSnippet("orphaned blob").Len()
	require.Equal(t, 1, orphanWarnings, "orphaned-blob warning must be logged exactly once")
	require.Equal(t, 1, blobs.deletes, "compensating delete must be attempted")
}

func TestCreate_CompensatingDeleteFailure_DoesNotChangeOutcome(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{createErr: errors.New("connection reset")}
	blobs := &fakeBlobStore{deleteErr: errors.New("also down")}
	svc, logs := newTestService(repo, blobs)

	_, err := svc.Create(context.Background(), upload("jpeg bytes"))
	require.Error(t, err)
	require.Equal(t, 1, logs.FilterMessageSnippet("orphaned blob").Len())
	require.Equal(t, 1, logs.FilterMessageSnippet("blob delete failed").Len())
}

func TestUpdate_MetadataOnly(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	blobs := &fakeBlobStore{}
	svc, _ := newTestService(repo, blobs)

	art, err := svc.Create(context.Background(), upload("jpeg bytes"))
	require.NoError(t, err)
	uploadsAfterCreate := blobs.uploads

	title := "Sunrise"
	hidden := false
	updated, err := svc.Update(context.Background(), art.ID, UpdateInput{Title: &title, IsPublic: &hidden})
	require.NoError(t, err)

	require.Equal(t, "Sunrise", updated.Title)
	require.False(t, updated.IsPublic)
	require.Equal(t, art.StorageKey, updated.StorageKey, "blob untouched without a new file")
	require.Equal(t, uploadsAfterCreate, blobs.uploads)
	require.Zero(t, blobs.deletes)
}

func TestUpdate_WithNewFile_SwapsAndDeletesOldBlob(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	blobs := &fakeBlobStore{}
	svc, _ := newTestService(repo, blobs)

	art, err := svc.Create(context.Background(), upload("old bytes"))
	require.NoError(t, err)
	oldKey := art.StorageKey

	updated, err := svc.Update(context.Background(), art.ID, UpdateInput{
		File:        strings.NewReader("new bytes"),
		Size:        9,
		Filename:    "sunrise.png",
		ContentType: "image/png",
	})
	require.NoError(t, err)

	require.NotEqual(t, oldKey, updated.StorageKey)
	require.Equal(t, "image/png", updated.MimeType)
	require.Equal(t, []string{oldKey}, blobs.deletedKeys, "previous blob deleted after the swap")
}

func TestUpdate_PersistFailsAfterStore_NewBlobCompensated(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	blobs := &fakeBlobStore{}
	svc, logs := newTestService(repo, blobs)

	art, err := svc.Create(context.Background(), upload("old bytes"))
	require.NoError(t, err)

	repo.updateErr = errors.New("connection reset")
	_, err = svc.Update(context.Background(), art.ID, UpdateInput{
		File:        strings.NewReader("new bytes"),
		Size:        9,
		Filename:    "sunrise.png",
		ContentType: "image/png",
	})
	require.Error(t, err)

	require.Equal(t, 1, logs.FilterMessageSnippet("orphaned blob").Len())
	require.Len(t, blobs.deletedKeys, 1)
	require.NotEqual(t, art.StorageKey, blobs.deletedKeys[0], "the new blob is compensated, the old one stays referenced")
}

func TestUpdate_NotFound(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(&fakeRepo{}, &fakeBlobStore{})

	title := "x"
	_, err := svc.Update(context.Background(), uuid.NewString(), UpdateInput{Title: &title})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDelete_RemovesRecordAndBlob(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	blobs := &fakeBlobStore{}
	svc, _ := newTestService(repo, blobs)

	art, err := svc.Create(context.Background(), upload("jpeg bytes"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), art.ID))
	require.Equal(t, []string{art.StorageKey}, blobs.deletedKeys)

	_, err = repo.GetByID(context.Background(), art.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDelete_BlobFailureIsOnlyAWarning(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	blobs := &fakeBlobStore{}
	svc, logs := newTestService(repo, blobs)

	art, err := svc.Create(context.Background(), upload("jpeg bytes"))
	require.NoError(t, err)

	blobs.deleteErr = errors.New("bucket unreachable")
	require.NoError(t, svc.Delete(context.Background(), art.ID), "metadata deletion defines success")
	require.Equal(t, 1, logs.FilterMessageSnippet("blob delete failed").Len())
}

func TestDelete_NotFound(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(&fakeRepo{}, &fakeBlobStore{})
	err := svc.Delete(context.Background(), uuid.NewString())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListPublic_FiltersUnpublished(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	blobs := &fakeBlobStore{}
	svc, _ := newTestService(repo, blobs)

	for i := 0; i < 5; i++ {
		art, err := svc.Create(context.Background(), upload("jpeg bytes"))
		require.NoError(t, err)
		if i%2 == 0 {
			hidden := false
			_, err = svc.Update(context.Background(), art.ID, UpdateInput{IsPublic: &hidden})
			require.NoError(t, err)
		}
	}

	artworks, err := svc.ListPublic(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, artworks, 2)
	for _, a := range artworks {
		require.True(t, a.IsPublic)
	}
}

func TestListAll_Pagination(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	blobs := &fakeBlobStore{}
	svc, _ := newTestService(repo, blobs)

	for i := 0; i < 25; i++ {
		_, err := svc.Create(context.Background(), upload("jpeg bytes"))
		require.NoError(t, err)
	}

	page1, err := svc.ListAll(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Equal(t, 25, page1.Total)
	require.Equal(t, 3, page1.Pages)
	require.Len(t, page1.Artworks, 10)

	page3, err := svc.ListAll(context.Background(), 3, 10)
	require.NoError(t, err)
	require.Len(t, page3.Artworks, 5)
}

func TestListAll_SanitizesPageParams(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	svc, _ := newTestService(repo, &fakeBlobStore{})

	result, err := svc.ListAll(context.Background(), -3, 0)
	require.NoError(t, err)
	require.Zero(t, result.Total)
	require.Zero(t, result.Pages)
	require.Empty(t, result.Artworks)
}

func TestView_IncrementsPublicOnly(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	svc, _ := newTestService(repo, &fakeBlobStore{})

	art, err := svc.Create(context.Background(), upload("jpeg bytes"))
	require.NoError(t, err)

	viewed, err := svc.View(context.Background(), art.ID)
	require.NoError(t, err)
	require.Equal(t, 1, viewed.Views)

	hidden := false
	_, err = svc.Update(context.Background(), art.ID, UpdateInput{IsPublic: &hidden})
	require.NoError(t, err)

	_, err = svc.View(context.Background(), art.ID)
	require.ErrorIs(t, err, ErrNotFound, "unpublished artworks are invisible to the public endpoint")
}
