package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/workoai/referrals/internal/services"
)

const (
	formFieldResume = "resume"
	// multipartOverhead leaves room for boundaries and part headers on top
	// of the document limit.
	multipartOverhead = 1 << 20
)

// UploadHandler accepts resume documents and serves them back.
type UploadHandler struct {
	documentService *services.DocumentService
}

// NewUploadHandler constructs an UploadHandler.
func NewUploadHandler(documentService *services.DocumentService) *UploadHandler {
	return &UploadHandler{documentService: documentService}
}

// UploadRouter registers the authenticated upload endpoint.
func UploadRouter(r chi.Router, documentService *services.DocumentService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewUploadHandler(documentService)
	r.With(authMiddleware).Post("/", handler.Upload)
}

// DocumentRouter registers public retrieval of stored documents.
func DocumentRouter(r chi.Router, documentService *services.DocumentService) {
	handler := NewUploadHandler(documentService)
	r.Get("/{name}", handler.ServeDocument)
}

// Upload reads the "resume" part of a multipart body and stores it.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	maxBytes := h.documentService.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)

	reader, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "no file uploaded")
			return
		}
		if err != nil {
			writeUploadReadError(w, err)
			return
		}
		if part.FormName() != formFieldResume || part.FileName() == "" {
			_ = part.Close()
			continue
		}

		// One byte past the limit is enough to report the document as too large.
		data, err := io.ReadAll(io.LimitReader(part, maxBytes+1))
		_ = part.Close()
		if err != nil {
			writeUploadReadError(w, err)
			return
		}

		fileURL, err := h.documentService.Accept(r.Context(), bytes.NewReader(data), part.FileName(), int64(len(data)))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, UploadResponse{FileURL: fileURL})
		return
	}
}

// ServeDocument streams a stored document. No authentication is required.
func (h *UploadHandler) ServeDocument(w http.ResponseWriter, r *http.Request) {
	rc, contentType, err := h.documentService.Open(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, rc)
}

type UploadResponse struct {
	FileURL string `json:"fileUrl"`
}

func writeUploadReadError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		writeError(w, http.StatusBadRequest, services.ErrTooLarge.Error())
		return
	}
	writeError(w, http.StatusBadRequest, "invalid multipart form")
}
