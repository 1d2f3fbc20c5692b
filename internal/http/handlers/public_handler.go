// Public HTTP handlers.
//
// This file exposes the unauthenticated endpoints used by the site:
//   - GET  /settings   (public-safe settings)
//   - GET  /blocks     (enabled blocks in display order)
//   - GET  /services
//   - GET  /reviews    (newest first)
//   - POST /requests   (booking submission)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nailstudio/salon-backend/internal/services"
)

// GetSettings returns the settings without the password hash and bot token.
func (h *Handlers) GetSettings(c *gin.Context) {
	s, err := h.content.PublicSettings(c.Request.Context())
	if err != nil {
		failErr(c, err, "settings", "failed to get settings")
		return
	}
	ok(c, http.StatusOK, s)
}

// ListPublicBlocks returns enabled blocks only.
func (h *Handlers) ListPublicBlocks(c *gin.Context) {
	bs, err := h.content.PublicBlocks(c.Request.Context())
	if err != nil {
		failErr(c, err, "blocks", "failed to get blocks")
		return
	}
	ok(c, http.StatusOK, bs)
}

// ListServices returns every service.
func (h *Handlers) ListServices(c *gin.Context) {
	v, err := h.content.ListServices(c.Request.Context())
	if err != nil {
		failErr(c, err, "services", "failed to get services")
		return
	}
	ok(c, http.StatusOK, v)
}

// ListReviews returns every review, newest first.
func (h *Handlers) ListReviews(c *gin.Context) {
	v, err := h.content.ListReviews(c.Request.Context())
	if err != nil {
		failErr(c, err, "reviews", "failed to get reviews")
		return
	}
	ok(c, http.StatusOK, v)
}

// SubmitRequest stores a booking and answers with the created request. The
// Telegram notification runs in the background.
func (h *Handlers) SubmitRequest(c *gin.Context) {
	var in services.BookingInput
	if !bindJSON(c, &in) {
		return
	}
	req, err := h.booking.Submit(c.Request.Context(), in)
	if err != nil {
		failErr(c, err, "request", "failed to create request")
		return
	}
	ok(c, http.StatusOK, req)
}
