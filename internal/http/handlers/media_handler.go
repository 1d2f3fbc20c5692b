// Media HTTP handlers.
//
//   - POST   /admin/upload          (multipart, field "image")
//   - GET    /admin/images
//   - DELETE /admin/images/{id}
//   - DELETE /admin/delete-upload   (path from query or JSON body)
//   - GET    /uploads/*file         (static, unauthenticated)
package handlers

import (
	"errors"
	"io"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/nailstudio/salon-backend/internal/services"
)

// uploadField is the multipart field holding the file.
const uploadField = "image"

// Upload stores one image and answers with its metadata record, whose path
// is the served URL.
func (h *Handlers) Upload(c *gin.Context) {
	fh, err := c.FormFile(uploadField)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			fail(c, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "request body too large")
			return
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "No file uploaded")
		return
	}
	f, err := fh.Open()
	if err != nil {
		failErr(c, err, "file", "failed to upload image")
		return
	}
	defer f.Close()

	img, err := h.media.Upload(c.Request.Context(), services.UploadInput{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Reader:      f,
	})
	if err != nil {
		failErr(c, err, "file", "failed to upload image")
		return
	}
	ok(c, http.StatusOK, img)
}

// ListImages returns upload metadata newest first.
func (h *Handlers) ListImages(c *gin.Context) {
	v, err := h.content.ListImages(c.Request.Context())
	if err != nil {
		failErr(c, err, "images", "failed to get images")
		return
	}
	ok(c, http.StatusOK, v)
}

// DeleteImage removes an image record and its file.
func (h *Handlers) DeleteImage(c *gin.Context) {
	if err := h.media.DeleteImage(c.Request.Context(), c.Param("id")); err != nil {
		failErr(c, err, "image", "failed to delete image")
		return
	}
	success(c)
}

// DeleteUpload removes a stored file by its served path and, when blockId
// and imageUrl are given, drops the reference from that block. Parameters
// come from the query string; the JSON body is read when the query has no
// path.
func (h *Handlers) DeleteUpload(c *gin.Context) {
	var in services.DeleteUploadInput
	if err := c.ShouldBindQuery(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid query")
		return
	}
	if in.Path == "" {
		if err := c.ShouldBindJSON(&in); err != nil && !errors.Is(err, io.EOF) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}
	if err := h.media.DeleteUpload(c.Request.Context(), in); err != nil {
		failErr(c, err, "file", "failed to delete file")
		return
	}
	success(c)
}

// ServeUpload serves a stored file. Unknown names and anything resolving
// outside the uploads directory answer a JSON 404.
func (h *Handlers) ServeUpload(c *gin.Context) {
	local, err := h.media.LocalPath(c.Request.URL.Path)
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "File not found")
		return
	}
	fi, err := os.Stat(local)
	if err != nil || !fi.Mode().IsRegular() {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "File not found")
		return
	}
	c.File(local)
}
