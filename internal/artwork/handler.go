package artwork

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gallery/service/internal/response"
)

// maxUploadBytes bounds the in-memory multipart parse, matching the
// original deployment's 10mb body limit.
const maxUploadBytes = 10 << 20

// Handler holds HTTP handlers for gallery and admin artwork endpoints.
type Handler struct {
	svc *Service
	log *zap.Logger
}

// NewHandler creates a new artwork Handler.
func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

type galleryResponse struct {
	Artworks []Artwork `json:"artworks"`
}

type messageResponse struct {
	Message string `json:"message" example:"Deleted successfully"`
}

type updateRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	IsPublic    *bool   `json:"isPublic,omitempty"`
}

// Gallery godoc
//
//	@Summary		Public gallery
//	@Description	Returns up to 20 published artworks, newest first. No authentication.
//	@Tags			gallery
//	@Produce		json
//	@Success		200	{object}	galleryResponse
//	@Failure		500	{object}	response.Envelope
//	@Router			/gallery [get]
func (h *Handler) Gallery(w http.ResponseWriter, r *http.Request) {
	artworks, err := h.svc.ListPublic(r.Context(), publicListLimit)
	if err != nil {
		h.log.Error("list public artworks failed", zap.Error(err))
		response.InternalError(w)
		return
	}
	response.JSON(w, http.StatusOK, galleryResponse{Artworks: artworks})
}

// GalleryItem godoc
//
//	@Summary		Public artwork by id
//	@Description	Returns one published artwork and increments its view counter.
//	@Tags			gallery
//	@Produce		json
//	@Param			id	path		string	true	"Artwork ID"
//	@Success		200	{object}	Artwork
//	@Failure		404	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/gallery/{id} [get]
func (h *Handler) GalleryItem(w http.ResponseWriter, r *http.Request) {
	id, ok := artworkID(r)
	if !ok {
		response.NotFound(w, "Not found")
		return
	}

	art, err := h.svc.View(r.Context(), id)
	if err != nil {
		if h.svc.IsNotFound(err) {
			response.NotFound(w, "Not found")
			return
		}
		h.log.Error("view artwork failed", zap.String("id", id), zap.Error(err))
		response.InternalError(w)
		return
	}
	response.JSON(w, http.StatusOK, art)
}

// List godoc
//
//	@Summary		List all artworks
//	@Description	Admin listing including unpublished artworks, newest first, offset/limit paginated.
//	@Tags			admin
//	@Produce		json
//	@Security		BearerAuth
//	@Param			page	query		int	false	"Page number (1-based)"
//	@Param			limit	query		int	false	"Page size (default 10, max 100)"
//	@Success		200		{object}	ListResult
//	@Failure		401		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/admin/artworks [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.svc.ListAll(r.Context(), page, limit)
	if err != nil {
		h.log.Error("list artworks failed", zap.Error(err))
		response.InternalError(w)
		return
	}
	response.JSON(w, http.StatusOK, result)
}

// Create godoc
//
//	@Summary		Create artwork
//	@Description	Multipart upload: stores the image binary first, then the metadata record referencing it.
//	@Tags			admin
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			title		formData	string	true	"Artwork title"
//	@Param			description	formData	string	false	"Artwork description"
//	@Param			image		formData	file	true	"Image binary"
//	@Success		201			{object}	Artwork
//	@Failure		400			{object}	response.Envelope
//	@Failure		401			{object}	response.Envelope
//	@Failure		502			{object}	response.Envelope
//	@Failure		500			{object}	response.Envelope
//	@Router			/admin/artworks [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		response.BadRequest(w, "invalid multipart body")
		return
	}

	in := CreateInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	}

	file, header, err := r.FormFile("image")
	if err == nil {
		defer file.Close()
		in.File = file
		in.Size = header.Size
		in.Filename = header.Filename
		in.ContentType = header.Header.Get("Content-Type")
	}

	art, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.writeCreateError(w, err)
		return
	}
	response.Created(w, art)
}

// Update godoc
//
//	@Summary		Update artwork
//	@Description	Partial metadata update. A multipart body with an image field replaces the binary (store-then-swap).
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string			true	"Artwork ID"
//	@Param			request	body		updateRequest	true	"Fields to merge"
//	@Success		200		{object}	Artwork
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		404		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/admin/artworks/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := artworkID(r)
	if !ok {
		response.NotFound(w, "Not found")
		return
	}

	var in UpdateInput
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			response.BadRequest(w, "invalid multipart body")
			return
		}
		if v, present := r.MultipartForm.Value["title"]; present && len(v) > 0 {
			in.Title = &v[0]
		}
		if v, present := r.MultipartForm.Value["description"]; present && len(v) > 0 {
			in.Description = &v[0]
		}
		if v, present := r.MultipartForm.Value["isPublic"]; present && len(v) > 0 {
			isPublic := v[0] == "true"
			in.IsPublic = &isPublic
		}
		if file, header, err := r.FormFile("image"); err == nil {
			defer file.Close()
			in.File = file
			in.Size = header.Size
			in.Filename = header.Filename
			in.ContentType = header.Header.Get("Content-Type")
		}
	} else {
		var req updateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}
		in.Title = req.Title
		in.Description = req.Description
		in.IsPublic = req.IsPublic
	}

	art, err := h.svc.Update(r.Context(), id, in)
	if err != nil {
		if h.svc.IsNotFound(err) {
			response.NotFound(w, "Not found")
			return
		}
		var se *StorageError
		if errors.As(err, &se) {
			h.log.Error("image storage failed", zap.String("id", id), zap.Error(err))
			response.BadGateway(w, "image storage failed")
			return
		}
		h.log.Error("update artwork failed", zap.String("id", id), zap.Error(err))
		response.InternalError(w)
		return
	}
	response.JSON(w, http.StatusOK, art)
}

// Delete godoc
//
//	@Summary		Delete artwork
//	@Description	Deletes the metadata record, then the blob best-effort.
//	@Tags			admin
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Artwork ID"
//	@Success		200	{object}	messageResponse
//	@Failure		401	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/admin/artworks/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := artworkID(r)
	if !ok {
		response.NotFound(w, "Not found")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		if h.svc.IsNotFound(err) {
			response.NotFound(w, "Not found")
			return
		}
		h.log.Error("delete artwork failed", zap.String("id", id), zap.Error(err))
		response.InternalError(w)
		return
	}
	response.JSON(w, http.StatusOK, messageResponse{Message: "Deleted successfully"})
}

func (h *Handler) writeCreateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTitleRequired):
		response.BadRequest(w, "Title required")
	case errors.Is(err, ErrImageRequired):
		response.BadRequest(w, "Image required")
	default:
		var se *StorageError
		if errors.As(err, &se) {
			h.log.Error("image storage failed", zap.Error(err))
			response.BadGateway(w, "image storage failed")
			return
		}
		h.log.Error("create artwork failed", zap.Error(err))
		response.InternalError(w)
	}
}

// artworkID extracts and validates the id path parameter. A malformed UUID
// can never reference a row, so it reports not-found rather than a database
// error later.
func artworkID(r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}
