package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/msomdec/murmur/internal/domain"
	"github.com/msomdec/murmur/internal/service"
)

// multipartOverhead leaves room for form boundaries and headers on top of the file limit.
const multipartOverhead = 1 << 20

// MediaHandler handles media uploads and serves stored media.
type MediaHandler struct {
	media *service.MediaService
}

func NewMediaHandler(media *service.MediaService) *MediaHandler {
	return &MediaHandler{media: media}
}

// HandleUpload stores the multipart "file" field.
// POST /api/posts/upload-media
// Response: {"message":"...","filePath":"/uploads/media/..."}
func (h *MediaHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	limit := h.media.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large.")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid multipart form.")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded.")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		slog.Error("read upload", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	path, err := h.media.Upload(r.Context(), header.Filename, data)
	if err != nil {
		writeServiceError(w, "upload media", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message":  "File uploaded successfully.",
		"filePath": path,
	})
}

// HandleServe serves stored media bytes with their content type.
// GET /uploads/{key...}
func (h *MediaHandler) HandleServe(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := h.media.Get(r.Context(), r.PathValue("key"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Not found.")
			return
		}
		slog.Error("serve media", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
