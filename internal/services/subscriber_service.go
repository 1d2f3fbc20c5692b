// Package services – SubscriberService
//
// SubscriberService registers Telegram chats that receive booking
// notifications. Chats subscribe themselves by sending /start to the bot
// (delivered to us through the webhook); the admin can also add, list and
// remove subscribers and trigger a test broadcast.
package services

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/nailstudio/salon-backend/internal/domain"
	"github.com/nailstudio/salon-backend/internal/notify"
	"github.com/nailstudio/salon-backend/internal/repo"
)

// SubscriberInput is the admin form for adding a subscriber by hand.
type SubscriberInput struct {
	ChatID    string  `json:"chatId"`
	Username  *string `json:"username"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

// TestResult is the outcome of a test broadcast.
type TestResult struct {
	Sent    int    `json:"sent"`
	Total   int    `json:"total"`
	Message string `json:"message"`
}

// SubscriberService manages notification subscribers.
type SubscriberService struct {
	Store       repo.Store
	Sender      notify.Sender
	Broadcaster Broadcaster
	Formatter   *notify.Formatter
}

// HandleUpdate processes one webhook update. Only /start commands act; all
// other updates are ignored. Errors are returned only when persistence
// fails.
func (s *SubscriberService) HandleUpdate(ctx context.Context, u tgbotapi.Update) error {
	msg := u.Message
	if msg == nil || msg.Chat == nil || !isStart(msg) {
		return nil
	}
	tr := otel.Tracer("services/SubscriberService")
	ctx, span := tr.Start(ctx, "HandleUpdate")
	defer span.End()

	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	span.SetAttributes(attribute.String("chat.id", chatID))

	if _, err := s.Store.SubscriberByChatID(ctx, chatID); err == nil {
		return nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return err
	}

	sub := domain.Subscriber{ChatID: chatID}
	if from := msg.From; from != nil {
		sub.Username = optional(from.UserName)
		sub.FirstName = optional(from.FirstName)
		sub.LastName = optional(from.LastName)
	}
	created, err := s.Store.Subscribers().Create(ctx, sub)
	if errors.Is(err, repo.ErrConflict) {
		// Lost a race against a concurrent /start for the same chat.
		return nil
	}
	if err != nil {
		return err
	}
	log.Info().Str("chat_id", chatID).Str("subscriber", created.DisplayName()).Msg("subscriber registered")

	s.welcome(ctx, chatID)
	return nil
}

func (s *SubscriberService) welcome(ctx context.Context, chatID string) {
	if s.Sender == nil || s.Formatter == nil {
		return
	}
	st, err := s.Store.Settings().Get(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("welcome: read settings")
		return
	}
	token := st.BotTokenValue()
	if token == "" {
		return
	}
	if err := s.Sender.Send(ctx, token, chatID, s.Formatter.WelcomeMessage(st.MasterName)); err != nil {
		log.Warn().Err(err).Str("chat_id", chatID).Msg("welcome message failed")
	}
}

// isStart reports whether m is a /start command, with or without payload
// or bot mention.
func isStart(m *tgbotapi.Message) bool {
	if m.IsCommand() {
		return m.Command() == "start"
	}
	// Some clients send the text without a bot_command entity.
	text := strings.TrimSpace(m.Text)
	return text == "/start" || strings.HasPrefix(text, "/start ") || strings.HasPrefix(text, "/start@")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// List returns subscribers in registration order.
func (s *SubscriberService) List(ctx context.Context) ([]domain.Subscriber, error) {
	return s.Store.Subscribers().List(ctx)
}

// Create adds a subscriber by chat id.
func (s *SubscriberService) Create(ctx context.Context, in SubscriberInput) (domain.Subscriber, error) {
	chatID := strings.TrimSpace(in.ChatID)
	if chatID == "" {
		return domain.Subscriber{}, invalid("chatId", "is required")
	}
	sub, err := s.Store.Subscribers().Create(ctx, domain.Subscriber{
		ChatID:    chatID,
		Username:  in.Username,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	})
	if errors.Is(err, repo.ErrConflict) {
		return domain.Subscriber{}, ErrDuplicateSubscriber
	}
	return sub, err
}

// Delete removes a subscriber.
func (s *SubscriberService) Delete(ctx context.Context, id string) error {
	return notFound(s.Store.Subscribers().Delete(ctx, id))
}

// SendTest broadcasts the test message synchronously. Unlike booking
// notifications, missing preconditions are reported to the caller.
func (s *SubscriberService) SendTest(ctx context.Context) (TestResult, error) {
	tr := otel.Tracer("services/SubscriberService")
	ctx, span := tr.Start(ctx, "SendTest")
	defer span.End()

	st, err := s.Store.Settings().Get(ctx)
	if err != nil {
		return TestResult{}, err
	}
	if st.BotTokenValue() == "" {
		return TestResult{}, ErrBotTokenMissing
	}
	subs, err := s.Store.Subscribers().List(ctx)
	if err != nil {
		return TestResult{}, err
	}
	if len(subs) == 0 {
		return TestResult{}, ErrNoSubscribers
	}

	rep := s.Broadcaster.Broadcast(ctx, s.Formatter.TestMessage(st.MasterName))
	span.SetAttributes(attribute.Int("notify.sent", rep.Sent), attribute.Int("notify.total", rep.Total))
	return TestResult{
		Sent:    rep.Sent,
		Total:   rep.Total,
		Message: s.Formatter.TestResult(rep.Sent, rep.Total),
	}, nil
}
