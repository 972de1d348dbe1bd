package handlers

import (
	"errors"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/socialapp/backend/internal/logging"
)

const defaultMaxUploadBytes = 10 << 20

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// MediaHandler accepts image uploads for posts and profile photos.
type MediaHandler struct {
	Uploader ImageUploader
	MaxBytes int64
}

// Upload handles POST /api/v1/media. The image is read from the multipart "file" field
// and stored under the caller's prefix; the response carries its public URL.
func (h MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	logger := logging.FromContext(ctx)

	if h.Uploader == nil {
		logger.Warn("image upload requested without object storage")
		respondError(ctx, w, http.StatusServiceUnavailable, "image storage unavailable")
		return
	}

	maxBytes := h.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	if r.ContentLength > maxBytes {
		respondError(ctx, w, http.StatusRequestEntityTooLarge, "image exceeds upload limit")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(ctx, w, http.StatusRequestEntityTooLarge, "image exceeds upload limit")
			return
		}
		logger.Warn("invalid upload payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	contentType, _, _ := mime.ParseMediaType(header.Header.Get("Content-Type"))
	ext, ok := imageExtensions[strings.ToLower(contentType)]
	if !ok {
		respondError(ctx, w, http.StatusUnsupportedMediaType, "only jpeg, png, gif and webp images are accepted")
		return
	}

	key := path.Join("images", identity.UID, uuid.NewString()+ext)
	url, err := h.Uploader.Save(ctx, key, file)
	if err != nil {
		respondServiceError(ctx, w, err)
		return
	}

	logger.Info("image uploaded", "key", key, "size", header.Size)
	respondJSON(ctx, w, http.StatusCreated, map[string]string{"url": url})
}
