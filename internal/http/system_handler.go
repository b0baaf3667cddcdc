package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"filippo.io/age"

	"github.com/example/directus-governance/internal/application"
	"github.com/example/directus-governance/internal/archive"
	"github.com/example/directus-governance/internal/governance"
)

const defaultMaxImportBytes = 32 << 20

type systemService interface {
	Branding(ctx context.Context) governance.Branding
	UpdateBranding(ctx context.Context, principal application.Principal, branding governance.Branding) (governance.Branding, error)
	Export(ctx context.Context, params application.ExportParams) (application.ExportResult, error)
	Import(ctx context.Context, params application.ImportParams) (application.ImportResult, error)
	Reset(ctx context.Context, params application.ResetParams) error
}

// SystemHandlerConfig carries the server side archive settings.
type SystemHandlerConfig struct {
	// Export is used when a request does not name a compression.
	Export archive.Options
	// Identities decrypt encrypted uploads. Without them such uploads are refused.
	Identities []age.Identity
	// MaxImportBytes bounds the upload size. Zero selects 32 MiB.
	MaxImportBytes int64
}

type SystemHandler struct {
	service   systemService
	cfg       SystemHandlerConfig
	responder responder
	logger    *slog.Logger
}

func NewSystemHandler(service systemService, cfg SystemHandlerConfig, logger *slog.Logger) *SystemHandler {
	base := defaultLogger(logger)
	if cfg.MaxImportBytes <= 0 {
		cfg.MaxImportBytes = defaultMaxImportBytes
	}
	return &SystemHandler{service: service, cfg: cfg, responder: newResponder(base), logger: base}
}

func (h *SystemHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "SystemHandler", operation, attrs...)
}

// Branding handles GET /system/branding. It needs no session.
func (h *SystemHandler) Branding(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, brandingResponse{Branding: h.service.Branding(r.Context())})
}

// UpdateBranding handles PUT /system/branding.
func (h *SystemHandler) UpdateBranding(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req governance.Branding
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "UpdateBranding", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode branding", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	branding, err := h.service.UpdateBranding(r.Context(), principal, req)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, brandingResponse{Branding: branding})
}

// Export handles GET /system/export?compression=. The sealed file is streamed
// as an attachment with its BLAKE3 digest in X-Content-Digest.
func (h *SystemHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	opts := h.cfg.Export
	if name := r.URL.Query().Get("compression"); name != "" {
		compression, err := archive.ParseCompression(name)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidQuery)
			return
		}
		opts.Compression = compression
	}

	principal, _ := PrincipalFromContext(r.Context())
	result, err := h.service.Export(r.Context(), application.ExportParams{Principal: principal, Options: opts})
	if err != nil && result.File.Data == nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if err != nil {
		h.log(r.Context(), "Export").WarnContext(r.Context(), "export audit entry not persisted", "error", err)
	}

	w.Header().Set("Content-Type", exportContentType(opts))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.File.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.File.Data)))
	w.Header().Set("X-Content-Digest", "blake3="+result.File.Digest)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.File.Data); err != nil {
		h.log(r.Context(), "Export").ErrorContext(r.Context(), "failed to write export", "error", err)
	}
}

// Import handles POST /system/import. The body is the raw export file in any
// of the formats Export produces, or a plain JSON document.
func (h *SystemHandler) Import(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.cfg.MaxImportBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.responder.writeError(r.Context(), w, http.StatusRequestEntityTooLarge, errors.New("import file is too large"))
			return
		}
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	result, err := h.service.Import(r.Context(), application.ImportParams{
		Principal:  principal,
		Data:       data,
		Identities: h.cfg.Identities,
	})
	if err != nil && result.Keys == nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if err != nil {
		h.log(r.Context(), "Import").WarnContext(r.Context(), "import applied in memory only", "error", err)
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, importResponse{Keys: result.Keys})
}

// Reset handles POST /system/reset. The body must carry {"confirm": true}.
func (h *SystemHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.Reset(r.Context(), application.ResetParams{Principal: principal, Confirm: req.Confirm}); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func exportContentType(opts archive.Options) string {
	switch {
	case len(opts.Recipients) > 0:
		return "application/age"
	case opts.Compression == archive.CompressionZstd:
		return "application/zstd"
	case opts.Compression == archive.CompressionLZ4:
		return "application/x-lz4"
	default:
		return "application/json"
	}
}

type brandingResponse struct {
	Branding governance.Branding `json:"branding"`
}

type importResponse struct {
	Keys []governance.Key `json:"keys"`
}

type resetRequest struct {
	Confirm bool `json:"confirm"`
}
