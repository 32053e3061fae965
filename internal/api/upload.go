package api

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"

	_ "golang.org/x/image/webp"

	"github.com/deylin/studio/internal/raster"
	"github.com/deylin/studio/internal/scene"
	"github.com/deylin/studio/internal/session"
)

// maxImageSide is the longer side of a freshly placed image, in CSS pixels.
const maxImageSide = 160

var uploadTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

type uploadResponse struct {
	ID     string `json:"id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Type   string `json:"type"`
	Name   string `json:"name"`
}

// UploadImage reads a multipart "file" field and places it on the card as
// an image element backed by a data URL.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request, s *session.Session) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "file too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "expected a multipart form"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing file field"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "read upload"})
		return
	}

	// Trust the bytes, not the client's Content-Type.
	contentType := http.DetectContentType(data)
	if !uploadTypes[contentType] {
		writeJSON(w, http.StatusUnsupportedMediaType, map[string]string{"error": "only PNG, JPEG, GIF and WebP images are supported"})
		return
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid image"})
		return
	}
	if err := raster.CheckImageSize(cfg.Width, cfg.Height); err != nil {
		slog.Warn("upload rejected", "session", s.ID, "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "image dimensions not supported"})
		return
	}

	width, height := fitSide(float64(cfg.Width), float64(cfg.Height), maxImageSide)
	url := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
	fw, fh := s.Engine.FrameSize()
	id := s.Engine.AddElement(scene.KindImage, url, scene.Patch{
		X:      scene.Ptr((fw - width) / 2),
		Y:      scene.Ptr((fh - height) / 2),
		Width:  scene.Ptr(width),
		Height: scene.Ptr(height),
	})
	h.publish(s)

	slog.Info("image uploaded", "session", s.ID, "element", id, "format", format, "bytes", len(data))
	writeJSON(w, http.StatusCreated, uploadResponse{
		ID:     id,
		Width:  cfg.Width,
		Height: cfg.Height,
		Type:   format,
		Name:   header.Filename,
	})
}

// fitSide scales w x h so the longer side equals side.
func fitSide(w, h, side float64) (float64, float64) {
	if w >= h {
		return side, side * h / w
	}
	return side * w / h, side
}
