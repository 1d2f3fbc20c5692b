package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/nailstudio/salon-backend/internal/notify/notifytest"
	"github.com/nailstudio/salon-backend/internal/repo"
)

func startUpdate(chatID int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{ID: chatID, UserName: "ann_nails", FirstName: "Ann"},
	}
	if strings.HasPrefix(text, "/") {
		n := len(text)
		if i := strings.IndexByte(text, ' '); i > 0 {
			n = i
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: n}}
	}
	return tgbotapi.Update{UpdateID: 1, Message: msg}
}

func newSubscriberService(st repo.Store, rec *notifytest.Recorder) *SubscriberService {
	return &SubscriberService{
		Store:       st,
		Sender:      rec,
		Broadcaster: newDispatcher(st, rec),
		Formatter:   testFormatter(),
	}
}

func TestHandleUpdate_StartRegistersOnceAndWelcomes(t *testing.T) {
	st := newSeededStore(t)
	setBotToken(t, st, "tok")
	rec := &notifytest.Recorder{}
	svc := newSubscriberService(st, rec)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := svc.HandleUpdate(ctx, startUpdate(42, "/start")); err != nil {
			t.Fatalf("HandleUpdate #%d: %v", i, err)
		}
	}

	subs, _ := st.Subscribers().List(ctx)
	if len(subs) != 1 {
		t.Fatalf("subscribers = %d; want 1", len(subs))
	}
	s := subs[0]
	if s.ChatID != "42" || s.Username == nil || *s.Username != "ann_nails" || s.FirstName == nil || s.LastName != nil {
		t.Fatalf("unexpected subscriber: %+v", s)
	}
	sent := rec.Sent()
	if len(sent) != 1 || sent[0].ChatID != "42" || !strings.Contains(sent[0].Text, "Анна Петрова") {
		t.Fatalf("welcome messages = %+v", sent)
	}
}

func TestHandleUpdate_StartWithPayload(t *testing.T) {
	st := newSeededStore(t)
	svc := newSubscriberService(st, &notifytest.Recorder{})

	if err := svc.HandleUpdate(context.Background(), startUpdate(7, "/start from_site")); err != nil {
		t.Fatalf("HandleUpdate: %v", err)
	}
	if _, err := st.SubscriberByChatID(context.Background(), "7"); err != nil {
		t.Fatalf("subscriber not registered: %v", err)
	}
}

func TestHandleUpdate_IgnoresOtherUpdates(t *testing.T) {
	st := newSeededStore(t)
	rec := &notifytest.Recorder{}
	svc := newSubscriberService(st, rec)
	ctx := context.Background()

	updates := []tgbotapi.Update{
		{UpdateID: 1},
		startUpdate(1, "hello"),
		startUpdate(2, "/help"),
		startUpdate(3, "/started"),
	}
	for _, u := range updates {
		if err := svc.HandleUpdate(ctx, u); err != nil {
			t.Fatalf("HandleUpdate: %v", err)
		}
	}
	subs, _ := st.Subscribers().List(ctx)
	if len(subs) != 0 || len(rec.Sent()) != 0 {
		t.Fatalf("subscribers=%d sent=%d; want 0/0", len(subs), len(rec.Sent()))
	}
}

func TestHandleUpdate_NoTokenSkipsWelcome(t *testing.T) {
	st := newSeededStore(t)
	rec := &notifytest.Recorder{}
	svc := newSubscriberService(st, rec)

	if err := svc.HandleUpdate(context.Background(), startUpdate(42, "/start")); err != nil {
		t.Fatalf("HandleUpdate: %v", err)
	}
	if len(rec.Sent()) != 0 {
		t.Fatalf("welcome sent without token")
	}
}

func TestHandleUpdate_WelcomeFailureIsNotAnError(t *testing.T) {
	st := newSeededStore(t)
	setBotToken(t, st, "tok")
	rec := &notifytest.Recorder{Fail: map[string]bool{"42": true}}
	svc := newSubscriberService(st, rec)

	if err := svc.HandleUpdate(context.Background(), startUpdate(42, "/start")); err != nil {
		t.Fatalf("HandleUpdate: %v", err)
	}
	if _, err := st.SubscriberByChatID(context.Background(), "42"); err != nil {
		t.Fatalf("subscriber must persist even if the welcome fails: %v", err)
	}
}

func TestSubscriberAdmin_CreateListDelete(t *testing.T) {
	st := newSeededStore(t)
	svc := newSubscriberService(st, &notifytest.Recorder{})
	ctx := context.Background()

	if _, err := svc.Create(ctx, SubscriberInput{ChatID: "  "}); err == nil {
		t.Fatalf("expected validation error for empty chat id")
	}
	s, err := svc.Create(ctx, SubscriberInput{ChatID: " 100 ", FirstName: strp("Kate")})
	if err != nil || s.ChatID != "100" {
		t.Fatalf("Create: %+v err=%v", s, err)
	}
	if _, err := svc.Create(ctx, SubscriberInput{ChatID: "100"}); !errors.Is(err, ErrDuplicateSubscriber) {
		t.Fatalf("expected ErrDuplicateSubscriber, got %v", err)
	}
	list, _ := svc.List(ctx)
	if len(list) != 1 {
		t.Fatalf("list = %d; want 1", len(list))
	}
	if err := svc.Delete(ctx, s.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSendTest(t *testing.T) {
	ctx := context.Background()

	t.Run("no token", func(t *testing.T) {
		st := newSeededStore(t)
		addSubscribers(t, st, "1")
		_, err := newSubscriberService(st, &notifytest.Recorder{}).SendTest(ctx)
		if !errors.Is(err, ErrBotTokenMissing) {
			t.Fatalf("expected ErrBotTokenMissing, got %v", err)
		}
	})

	t.Run("no subscribers", func(t *testing.T) {
		st := newSeededStore(t)
		setBotToken(t, st, "tok")
		_, err := newSubscriberService(st, &notifytest.Recorder{}).SendTest(ctx)
		if !errors.Is(err, ErrNoSubscribers) {
			t.Fatalf("expected ErrNoSubscribers, got %v", err)
		}
	})

	t.Run("partial delivery", func(t *testing.T) {
		st := newSeededStore(t)
		setBotToken(t, st, "tok")
		addSubscribers(t, st, "1", "2")
		rec := &notifytest.Recorder{Fail: map[string]bool{"2": true}}
		res, err := newSubscriberService(st, rec).SendTest(ctx)
		if err != nil {
			t.Fatalf("SendTest: %v", err)
		}
		if res.Sent != 1 || res.Total != 2 || res.Message != "Отправлено 1 из 2 подписчиков" {
			t.Fatalf("result = %+v", res)
		}
		if sent := rec.Sent(); len(sent) != 1 || !strings.Contains(sent[0].Text, "Тестовое уведомление") {
			t.Fatalf("sent = %+v", sent)
		}
	})
}
