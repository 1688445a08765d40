package handler

import (
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/alanyoungcy/lottostats/internal/domain"
)

// archivePrefix is the root every archive object lives under.
const archivePrefix = "archive/"

// ArchiveHandler exposes archived JSONL exports.
type ArchiveHandler struct {
	reader domain.BlobReader
	logger *slog.Logger
}

// NewArchiveHandler creates an ArchiveHandler. A nil reader makes every
// route answer 503.
func NewArchiveHandler(reader domain.BlobReader, logger *slog.Logger) *ArchiveHandler {
	return &ArchiveHandler{reader: reader, logger: logHandler(logger, "archives")}
}

// ListArchives lists archived objects under an optional sub-prefix.
// GET /api/archives?prefix=draws/
func (h *ArchiveHandler) ListArchives(w http.ResponseWriter, r *http.Request) {
	if h.reader == nil {
		writeError(w, http.StatusServiceUnavailable, "archive storage not configured")
		return
	}
	prefix := archivePrefix + strings.TrimPrefix(r.URL.Query().Get("prefix"), "/")
	objects, err := h.reader.List(r.Context(), prefix)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"objects": objects, "count": len(objects)})
}

// GetArchive streams one archived object.
// GET /api/archives/{key...}
func (h *ArchiveHandler) GetArchive(w http.ResponseWriter, r *http.Request) {
	if h.reader == nil {
		writeError(w, http.StatusServiceUnavailable, "archive storage not configured")
		return
	}
	key := r.PathValue("key")
	clean := path.Clean("/" + key)[1:]
	if key == "" || clean != key || !strings.HasSuffix(key, ".jsonl") {
		writeError(w, http.StatusBadRequest, "invalid archive key")
		return
	}

	body, err := h.reader.Get(r.Context(), archivePrefix+key)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Content-Disposition", `attachment; filename="`+path.Base(key)+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.WarnContext(r.Context(), "archive stream interrupted",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
