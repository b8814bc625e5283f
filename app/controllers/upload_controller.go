package controllers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/storage"
	"github.com/shashiranjanraj/stockroom/pkg/view"
)

// UploadController streams stored product photos from the active disk.
type UploadController struct {
	base
	disk storage.Disk
}

func NewUploadController(v *view.Renderer, disk storage.Disk) *UploadController {
	return &UploadController{base: base{view: v}, disk: disk}
}

// Show serves /uploads/{path}.
func (c *UploadController) Show(w http.ResponseWriter, r *http.Request) {
	rel := path.Clean("/" + chi.URLParam(r, "*"))
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" || rel == "." {
		c.view.NotFound(w, r)
		return
	}

	rc, err := c.disk.GetStream(r.Context(), rel)
	if errors.Is(err, storage.ErrNotExist) {
		c.view.NotFound(w, r)
		return
	}
	if err != nil {
		logger.WithCtx(r.Context()).Error("upload: open", "path", rel, "error", err)
		c.view.Error(w, r, http.StatusInternalServerError, "The file could not be read.")
		return
	}
	defer rc.Close()

	if ct := mime.TypeByExtension(path.Ext(rel)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if _, err := io.Copy(w, rc); err != nil {
		logger.WithCtx(r.Context()).Warn("upload: stream", "path", rel, "error", err)
	}
}
