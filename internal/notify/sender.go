// Package notify delivers booking notifications to Telegram subscribers.
//
// A Dispatcher fans one message out to every subscriber, one task per
// recipient, and joins all tasks before reporting per-recipient outcomes.
// A failed delivery is logged and counted; it never aborts delivery to the
// remaining subscribers and is never returned as an error.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender delivers one text message to one chat using the given bot token.
type Sender interface {
	Send(ctx context.Context, token, chatID, text string) error
}

// DefaultEndpoint is the Bot API endpoint format (token, method).
const DefaultEndpoint = tgbotapi.APIEndpoint

// TelegramSender sends HTML messages through the Bot API. The bot client is
// created lazily and reused until the token changes.
type TelegramSender struct {
	endpoint string
	client   *http.Client

	mu    sync.Mutex
	token string
	cur   *tgbotapi.BotAPI
}

// NewTelegramSender returns a sender for endpoint (a format string with
// token and method verbs); every API call is bounded by timeout.
func NewTelegramSender(endpoint string, timeout time.Duration) *TelegramSender {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &TelegramSender{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (s *TelegramSender) cached(token string) *tgbotapi.BotAPI {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur != nil && s.token == token {
		return s.cur
	}
	return nil
}

// bot returns the client for token. The getMe round trip runs unlocked, so
// concurrent first sends may each build a client; one of them is kept.
func (s *TelegramSender) bot(token string) (*tgbotapi.BotAPI, error) {
	if b := s.cached(token); b != nil {
		return b, nil
	}
	// NewBotAPIWithClient validates the token with getMe.
	b, err := tgbotapi.NewBotAPIWithClient(token, s.endpoint, s.client)
	if err != nil {
		return nil, fmt.Errorf("telegram: init bot: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur != nil && s.token == token {
		return s.cur, nil
	}
	s.token, s.cur = token, b
	return b, nil
}

// Send implements Sender. Numeric chat ids address users and groups;
// anything else is treated as a channel username.
func (s *TelegramSender) Send(ctx context.Context, token, chatID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if token == "" {
		return errors.New("telegram: empty bot token")
	}
	b, err := s.bot(token)
	if err != nil {
		return err
	}
	var msg tgbotapi.MessageConfig
	if id, err := strconv.ParseInt(strings.TrimSpace(chatID), 10, 64); err == nil {
		msg = tgbotapi.NewMessage(id, text)
	} else {
		msg = tgbotapi.NewMessageToChannel(chatID, text)
	}
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.Send(msg); err != nil {
		return fmt.Errorf("telegram: send to %s: %w", chatID, err)
	}
	return nil
}
