package handler

import (
	"encoding/binary"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"

	models "privydocs/internal/domain/models/registry"
	"privydocs/internal/domain/services"
	"privydocs/internal/httputil"

	"github.com/zeebo/blake3"
)

// DocumentHandler handles document HTTP requests
type DocumentHandler struct {
	registry services.RegistryService
	logger   *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(registry services.RegistryService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		registry: registry,
		logger:   logger,
	}
}

// HealthCheck handles GET /health
func (h *DocumentHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"documents": h.registry.TotalDocuments(r.Context()),
	})
}

// CreateDocument creates a new document owned by the caller
// POST /api/documents
func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	caller := httputil.GetPrincipal(r)

	var req services.CreateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleParseError(w, err)
		return
	}

	doc, err := h.registry.CreateDocument(r.Context(), caller, &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.Header().Set("ETag", documentETag(doc))
	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// GetDocument returns the full document including opaque ciphertext
// GET /api/documents/{id}
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := DocumentIDParam(w, r)
	if !ok {
		return
	}

	doc, err := h.registry.GetDocumentDetails(r.Context(), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	etag := documentETag(doc)
	w.Header().Set("ETag", etag)
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// UpdateDocumentBody replaces the encrypted body
// PUT /api/documents/{id}/body
func (h *DocumentHandler) UpdateDocumentBody(w http.ResponseWriter, r *http.Request) {
	id, ok := DocumentIDParam(w, r)
	if !ok {
		return
	}
	caller := httputil.GetPrincipal(r)

	var req services.UpdateBodyRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleParseError(w, err)
		return
	}
	if req.EncryptedBody == nil {
		httputil.RespondError(w, http.StatusBadRequest, "encrypted_body is required")
		return
	}

	doc, err := h.registry.UpdateDocumentBody(r.Context(), caller, id, *req.EncryptedBody)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.Header().Set("ETag", documentETag(doc))
	httputil.RespondJSON(w, http.StatusOK, doc)
}

// ListMyDocuments lists the documents the caller owns or collaborates on
// GET /api/documents
func (h *DocumentHandler) ListMyDocuments(w http.ResponseWriter, r *http.Request) {
	h.listFor(w, r, httputil.GetPrincipal(r))
}

// ListPrincipalDocuments lists the documents visible to any principal
// GET /api/principals/{principal}/documents
func (h *DocumentHandler) ListPrincipalDocuments(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalParam(w, r)
	if !ok {
		return
	}
	h.listFor(w, r, principal)
}

func (h *DocumentHandler) listFor(w http.ResponseWriter, r *http.Request, principal models.Principal) {
	previews, err := h.registry.GetDocumentsFor(r.Context(), principal)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, previews)
}

// CountDocuments returns the number of documents ever created
// GET /api/documents/count
func (h *DocumentHandler) CountDocuments(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]uint64{
		"total": h.registry.TotalDocuments(r.Context()),
	})
}

// documentETag digests every field of the representation. Ciphertext is
// opaque, so a content hash is the only meaningful validator.
func documentETag(doc *models.Document) string {
	hasher := blake3.New()

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], doc.ID)
	hasher.Write(buf[:])
	hasher.Write([]byte(doc.Name))
	hasher.Write([]byte{0})
	hasher.Write([]byte(doc.Owner))
	hasher.Write([]byte{0})
	hasher.Write(doc.EncryptedKey[:])
	binary.BigEndian.PutUint64(buf[:], uint64(doc.UpdatedAt.UnixNano()))
	hasher.Write(buf[:])
	hasher.Write(doc.EncryptedBody)

	sum := hasher.Sum(nil)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

// etagMatches implements the If-None-Match comparison, including "*"
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		candidate = strings.TrimPrefix(candidate, "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}
