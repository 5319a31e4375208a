package server

import (
	"context"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"soundfolio/core/catalog"
	"soundfolio/logger"
	"soundfolio/model"
)

// ObjectFetcher reads objects from the media bucket.
type ObjectFetcher interface {
	FetchObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// MediaHandler serves audio and cover objects from MinIO.
type MediaHandler struct {
	objects ObjectFetcher
	bucket  string
}

// NewMediaHandler creates a MediaHandler.
func NewMediaHandler(objects ObjectFetcher, bucket string) *MediaHandler {
	return &MediaHandler{objects: objects, bucket: bucket}
}

// ServeHTTP implements http.Handler.
func (h *MediaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	objectPath := strings.TrimPrefix(path.Clean("/"+strings.TrimPrefix(r.URL.Path, "/media/")), "/")
	if objectPath == "" {
		http.NotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	object, err := h.objects.FetchObject(ctx, h.bucket, objectPath)
	if err != nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	defer object.Close()

	w.Header().Set("Content-Type", detectContentType(objectPath))
	w.Header().Set("Cache-Control", "public, max-age=31536000")

	if _, err := io.Copy(w, object); err != nil {
		logger.Error("Error serving file from MinIO", logger.ErrorField(err))
	}
}

// detectContentType picks a content type from the file extension.
func detectContentType(p string) string {
	if t := catalog.InferType(model.Source{URL: p}); t != "" {
		return t
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
