package handlers

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/inhahackathon/foodmarket/internal/storage"
	"github.com/sirupsen/logrus"
)

// ObjectGetter opens stored files. Implemented by storage.Storage.
type ObjectGetter interface {
	Get(ctx context.Context, p string) (io.ReadCloser, error)
}

// ResourceHandler serves uploaded files below a URL prefix.
type ResourceHandler struct {
	storage ObjectGetter
	prefix  string
	logger  logrus.FieldLogger
}

func NewResourceHandler(storage ObjectGetter, prefix string, logger logrus.FieldLogger) *ResourceHandler {
	return &ResourceHandler{storage: storage, prefix: strings.TrimRight(prefix, "/"), logger: logger}
}

func (h *ResourceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeError(w, r, http.StatusMethodNotAllowed, CodeInvalidRequest, "method not allowed")
		return
	}

	rel := strings.TrimPrefix(r.URL.Path, h.prefix)
	if strings.Contains(rel, "..") {
		writeError(w, r, http.StatusNotFound, CodeNotFound, "resource not found")
		return
	}
	rel = path.Clean("/" + rel)

	rc, err := h.storage.Get(r.Context(), rel)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			writeError(w, r, http.StatusNotFound, CodeNotFound, "resource not found")
			return
		}
		writeAppError(w, r, h.logger, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(rel))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.WithError(err).WithField("path", rel).Warn("failed to stream resource")
	}
}
