package handler

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"gauntlet/internal/domain/services"
	"gauntlet/internal/httputil"
)

// uploadFormField is the multipart field carrying files
const uploadFormField = "files"

// UploadHandler handles file upload HTTP requests.
// maxRequestBytes caps the whole multipart body. bodyTimeout replaces the
// server's read deadline for upload requests; zero keeps the server's.
type UploadHandler struct {
	pipeline        services.UploadPipeline
	maxRequestBytes int64
	bodyTimeout     time.Duration
	logger          *slog.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(pipeline services.UploadPipeline, maxRequestBytes int64, bodyTimeout time.Duration, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		pipeline:        pipeline,
		maxRequestBytes: maxRequestBytes,
		bodyTimeout:     bodyTimeout,
		logger:          logger,
	}
}

// extendDeadlines gives the body read, storage and webhook calls room past
// the server-wide timeouts, which are sized for small JSON requests.
func (h *UploadHandler) extendDeadlines(w http.ResponseWriter) {
	if h.bodyTimeout <= 0 {
		return
	}

	rc := http.NewResponseController(w)
	deadline := time.Now().Add(h.bodyTimeout)
	if err := rc.SetReadDeadline(deadline); err != nil {
		h.logger.Debug("read deadline not extended", "error", err)
	}
	if err := rc.SetWriteDeadline(deadline); err != nil {
		h.logger.Debug("write deadline not extended", "error", err)
	}
}

// UploadFiles runs every file of the form through the upload pipeline.
// Invalid files are reported under "rejected"; the request itself succeeds.
// POST /api/uploads
func (h *UploadHandler) UploadFiles(w http.ResponseWriter, r *http.Request) {
	owner, ok := identityFrom(w, r)
	if !ok {
		return
	}

	h.extendDeadlines(w)

	headers, err := httputil.ParseMultipartFiles(w, r, uploadFormField, h.maxRequestBytes)
	if err != nil {
		h.logger.Debug("invalid upload form", "owner", owner.OwnerKey(), "error", err)
		if errors.Is(err, httputil.ErrBodyTooLarge) {
			handleError(w, err)
			return
		}
		httputil.RespondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	inputs := make([]services.UploadInput, 0, len(headers))
	for _, fh := range headers {
		file, err := fh.Open()
		if err != nil {
			h.logger.Error("failed to open uploaded file", "filename", fh.Filename, "error", err)
			httputil.RespondError(w, http.StatusBadRequest, "Could not read uploaded file")
			return
		}
		defer file.Close()

		inputs = append(inputs, services.UploadInput{
			Filename:    fh.Filename,
			ContentType: contentTypeOf(fh),
			Size:        fh.Size,
			Content:     file,
		})
	}

	batch, err := h.pipeline.Upload(r.Context(), owner, inputs)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, batch)
}

// ListUploads returns the caller's tracked uploads
// GET /api/uploads
func (h *UploadHandler) ListUploads(w http.ResponseWriter, r *http.Request) {
	owner, ok := identityFrom(w, r)
	if !ok {
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"files": h.pipeline.List(owner),
	})
}

// RemoveUpload drops a file from the tracked list. The stored object stays.
// DELETE /api/uploads/{id}
func (h *UploadHandler) RemoveUpload(w http.ResponseWriter, r *http.Request) {
	owner, ok := identityFrom(w, r)
	if !ok {
		return
	}

	if err := h.pipeline.Remove(owner, r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func contentTypeOf(fh *multipart.FileHeader) string {
	return fh.Header.Get("Content-Type")
}
