package handler

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"

	"github.com/stockpile/stockpile-go/internal/storage"
)

// ImageHandler serves stored product images.
type ImageHandler struct {
	images storage.ImageStore
	dev    bool
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(images storage.ImageStore, dev bool) *ImageHandler {
	return &ImageHandler{images: images, dev: dev}
}

// HandleServe handles GET /uploads/{name} requests.
func (h *ImageHandler) HandleServe(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	rc, err := h.images.Open(r.Context(), storage.PathPrefix+name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidPath) {
			writeJSON(w, http.StatusNotFound, errorResponse("image not found"))
			return
		}
		serverError(w, r, err, h.dev)
		return
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		serverError(w, r, err, h.dev)
		return
	}

	w.Header().Set("Content-Type", mimetype.Detect(data).String())
	w.Header().Set("X-Content-Type-Options", "nosniff")
	// Image names are never reused, so responses can be cached for long.
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeContent(w, r, name, time.Time{}, bytes.NewReader(data))
}
