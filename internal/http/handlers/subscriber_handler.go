// Subscriber and Telegram HTTP handlers.
//
//   - GET    /admin/subscribers
//   - POST   /admin/subscribers
//   - DELETE /admin/subscribers/{id}
//   - POST   /admin/telegram/test
//   - POST   /webhook/telegram   (unauthenticated, called by Telegram)
package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/nailstudio/salon-backend/internal/services"
)

// webhookSecretHeader carries the secret_token registered with setWebhook.
const webhookSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// TestResponse is the result of POST /admin/telegram/test.
type TestResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Sent    int    `json:"sent"`
	Total   int    `json:"total"`
}

// ListSubscribers returns subscribers in registration order.
func (h *Handlers) ListSubscribers(c *gin.Context) {
	v, err := h.subs.List(c.Request.Context())
	if err != nil {
		failErr(c, err, "subscribers", "failed to get subscribers")
		return
	}
	ok(c, http.StatusOK, v)
}

// CreateSubscriber registers a chat by hand. A known chat id answers 409.
func (h *Handlers) CreateSubscriber(c *gin.Context) {
	var in services.SubscriberInput
	if !bindJSON(c, &in) {
		return
	}
	v, err := h.subs.Create(c.Request.Context(), in)
	if err != nil {
		failErr(c, err, "subscriber", "failed to create subscriber")
		return
	}
	ok(c, http.StatusOK, v)
}

// DeleteSubscriber removes a subscriber.
func (h *Handlers) DeleteSubscriber(c *gin.Context) {
	if err := h.subs.Delete(c.Request.Context(), c.Param("id")); err != nil {
		failErr(c, err, "subscriber", "failed to delete subscriber")
		return
	}
	success(c)
}

// SendTestMessage broadcasts the test message and reports how many chats
// received it. Missing token or subscribers answer 400.
func (h *Handlers) SendTestMessage(c *gin.Context) {
	res, err := h.subs.SendTest(c.Request.Context())
	switch {
	case errors.Is(err, services.ErrBotTokenMissing):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Bot token not configured")
		return
	case errors.Is(err, services.ErrNoSubscribers):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "No subscribers found")
		return
	case err != nil:
		failErr(c, err, "settings", "failed to send test message")
		return
	}
	ok(c, http.StatusOK, TestResponse{Success: true, Message: res.Message, Sent: res.Sent, Total: res.Total})
}

// TelegramWebhook accepts bot updates. Anything that decodes is
// acknowledged with 200 so Telegram does not redeliver it; only storage
// failures answer 500.
func (h *Handlers) TelegramWebhook(c *gin.Context) {
	if h.webhookSecret != "" {
		got := c.GetHeader(webhookSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.webhookSecret)) != 1 {
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "unauthorized")
			return
		}
	}
	var u tgbotapi.Update
	if !bindJSON(c, &u) {
		return
	}
	if err := h.subs.HandleUpdate(c.Request.Context(), u); err != nil {
		failErr(c, err, "subscriber", "webhook failed")
		return
	}
	success(c)
}
