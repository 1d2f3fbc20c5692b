// Admin HTTP handlers.
//
// Everything here except Login sits behind middleware.AdminAuth:
//   - POST   /admin/login
//   - GET    /admin/settings, PUT /admin/settings
//   - GET    /admin/blocks, POST /admin/blocks
//   - GET    /admin/blocks/{id}, PUT /admin/blocks/{id}, DELETE /admin/blocks/{id}
//   - GET    /admin/services, POST /admin/services, PUT|DELETE /admin/services/{id}
//   - GET    /admin/reviews, POST /admin/reviews, PUT|DELETE /admin/reviews/{id}
//   - GET    /admin/requests, GET /admin/requests/export
//   - GET    /admin/stats
package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nailstudio/salon-backend/internal/domain"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// LoginRequest is the JSON payload of POST /admin/login.
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse carries the issued admin token.
type LoginResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login exchanges the admin password for an expiring bearer token. Every
// failure answers the same 401.
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	tok, err := h.auth.Login(c.Request.Context(), req.Password)
	if err != nil {
		failErr(c, err, "settings", "login failed")
		return
	}
	ok(c, http.StatusOK, LoginResponse{Success: true, Token: tok.Value, ExpiresAt: tok.ExpiresAt})
}

// GetAdminSettings returns the settings including the bot token.
func (h *Handlers) GetAdminSettings(c *gin.Context) {
	s, err := h.content.AdminSettings(c.Request.Context())
	if err != nil {
		failErr(c, err, "settings", "failed to get settings")
		return
	}
	ok(c, http.StatusOK, s)
}

// UpdateSettings merges the body into the settings. A plaintext
// adminPassword is hashed before it is stored.
func (h *Handlers) UpdateSettings(c *gin.Context) {
	var p domain.SettingsPatch
	if !bindJSON(c, &p) {
		return
	}
	s, err := h.content.UpdateSettings(c.Request.Context(), p)
	if err != nil {
		failErr(c, err, "settings", "failed to update settings")
		return
	}
	ok(c, http.StatusOK, s)
}

// ListBlocks returns every block, enabled or not.
func (h *Handlers) ListBlocks(c *gin.Context) {
	bs, err := h.content.ListBlocks(c.Request.Context())
	if err != nil {
		failErr(c, err, "blocks", "failed to get blocks")
		return
	}
	ok(c, http.StatusOK, bs)
}

// GetBlock returns one block.
func (h *Handlers) GetBlock(c *gin.Context) {
	b, err := h.content.GetBlock(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err, "block", "failed to get block")
		return
	}
	ok(c, http.StatusOK, b)
}

// CreateBlock adds a block.
func (h *Handlers) CreateBlock(c *gin.Context) {
	var p domain.BlockPatch
	if !bindJSON(c, &p) {
		return
	}
	b, err := h.content.CreateBlock(c.Request.Context(), p)
	if err != nil {
		failErr(c, err, "block", "failed to create block")
		return
	}
	ok(c, http.StatusOK, b)
}

// UpdateBlock merges the body into a block.
func (h *Handlers) UpdateBlock(c *gin.Context) {
	var p domain.BlockPatch
	if !bindJSON(c, &p) {
		return
	}
	b, err := h.content.UpdateBlock(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		failErr(c, err, "block", "failed to update block")
		return
	}
	ok(c, http.StatusOK, b)
}

// DeleteBlock removes a block.
func (h *Handlers) DeleteBlock(c *gin.Context) {
	if err := h.content.DeleteBlock(c.Request.Context(), c.Param("id")); err != nil {
		failErr(c, err, "block", "failed to delete block")
		return
	}
	success(c)
}

// CreateService adds a service.
func (h *Handlers) CreateService(c *gin.Context) {
	var p domain.ServicePatch
	if !bindJSON(c, &p) {
		return
	}
	v, err := h.content.CreateService(c.Request.Context(), p)
	if err != nil {
		failErr(c, err, "service", "failed to create service")
		return
	}
	ok(c, http.StatusOK, v)
}

// UpdateService merges the body into a service.
func (h *Handlers) UpdateService(c *gin.Context) {
	var p domain.ServicePatch
	if !bindJSON(c, &p) {
		return
	}
	v, err := h.content.UpdateService(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		failErr(c, err, "service", "failed to update service")
		return
	}
	ok(c, http.StatusOK, v)
}

// DeleteService removes a service.
func (h *Handlers) DeleteService(c *gin.Context) {
	if err := h.content.DeleteService(c.Request.Context(), c.Param("id")); err != nil {
		failErr(c, err, "service", "failed to delete service")
		return
	}
	success(c)
}

// CreateReview adds a review.
func (h *Handlers) CreateReview(c *gin.Context) {
	var p domain.ReviewPatch
	if !bindJSON(c, &p) {
		return
	}
	v, err := h.content.CreateReview(c.Request.Context(), p)
	if err != nil {
		failErr(c, err, "review", "failed to create review")
		return
	}
	ok(c, http.StatusOK, v)
}

// UpdateReview merges the body into a review.
func (h *Handlers) UpdateReview(c *gin.Context) {
	var p domain.ReviewPatch
	if !bindJSON(c, &p) {
		return
	}
	v, err := h.content.UpdateReview(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		failErr(c, err, "review", "failed to update review")
		return
	}
	ok(c, http.StatusOK, v)
}

// DeleteReview removes a review.
func (h *Handlers) DeleteReview(c *gin.Context) {
	if err := h.content.DeleteReview(c.Request.Context(), c.Param("id")); err != nil {
		failErr(c, err, "review", "failed to delete review")
		return
	}
	success(c)
}

// ListRequests returns booking requests newest first.
func (h *Handlers) ListRequests(c *gin.Context) {
	v, err := h.content.ListRequests(c.Request.Context())
	if err != nil {
		failErr(c, err, "requests", "failed to get requests")
		return
	}
	ok(c, http.StatusOK, v)
}

// ExportRequests downloads every request as an XLSX workbook. The workbook
// is rendered in memory first so a failure can still answer JSON.
func (h *Handlers) ExportRequests(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.export.WriteRequests(c.Request.Context(), &buf); err != nil {
		failErr(c, err, "requests", "failed to export requests")
		return
	}
	name := fmt.Sprintf("requests-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Stats returns collection counts for the dashboard.
func (h *Handlers) Stats(c *gin.Context) {
	s, err := h.content.Summary(c.Request.Context())
	if err != nil {
		failErr(c, err, "stats", "failed to get stats")
		return
	}
	ok(c, http.StatusOK, s)
}
