// Package notifytest provides an in-process fake of the Telegram Bot API
// and a recording Sender for tests.
package notifytest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// Message is one sendMessage call received by the fake.
type Message struct {
	Token     string
	ChatID    string
	Text      string
	ParseMode string
}

// BotAPI is a fake Bot API server. Chats listed in Fail receive an API
// error; every other sendMessage succeeds.
type BotAPI struct {
	Server *httptest.Server

	mu       sync.Mutex
	fail     map[string]bool
	held     map[string]chan struct{}
	messages []Message
	getMe    int
}

// NewBotAPI starts the fake. Close it with Close.
func NewBotAPI(failChats ...string) *BotAPI {
	f := &BotAPI{fail: make(map[string]bool), held: make(map[string]chan struct{})}
	for _, c := range failChats {
		f.fail[c] = true
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

// Endpoint returns the endpoint format string for the sender.
func (f *BotAPI) Endpoint() string { return f.Server.URL + "/bot%s/%s" }

// Close stops the server.
func (f *BotAPI) Close() { f.Server.Close() }

// Messages returns a copy of the received messages.
func (f *BotAPI) Messages() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.messages...)
}

// HoldGetMe makes getMe for token wait until release is called.
func (f *BotAPI) HoldGetMe(token string) (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.held[token] = ch
	f.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.held, token)
			f.mu.Unlock()
			close(ch)
		})
	}
}

// GetMeCalls reports how many times the token was validated.
func (f *BotAPI) GetMeCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getMe
}

func (f *BotAPI) handle(w http.ResponseWriter, r *http.Request) {
	// Path: /bot<token>/<method>
	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/bot"), "/", 2)
	if len(parts) != 2 {
		http.NotFound(w, r)
		return
	}
	token, method := parts[0], parts[1]
	_ = r.ParseForm()
	w.Header().Set("Content-Type", "application/json")

	switch method {
	case "getMe":
		f.mu.Lock()
		f.getMe++
		hold := f.held[token]
		f.mu.Unlock()
		if hold != nil {
			select {
			case <-hold:
			case <-r.Context().Done():
				return
			}
		}
		if token == "bad" {
			writeError(w, http.StatusUnauthorized, 401, "Unauthorized")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"id": 1, "is_bot": true, "first_name": "Salon", "username": "salon_bot"},
		})
	case "sendMessage":
		chat := r.PostForm.Get("chat_id")
		f.mu.Lock()
		failing := f.fail[chat]
		if !failing {
			f.messages = append(f.messages, Message{
				Token:     token,
				ChatID:    chat,
				Text:      r.PostForm.Get("text"),
				ParseMode: r.PostForm.Get("parse_mode"),
			})
		}
		f.mu.Unlock()
		if failing {
			writeError(w, http.StatusBadRequest, 400, "Bad Request: chat not found")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"result": map[string]any{
				"message_id": 1,
				"date":       0,
				"chat":       map[string]any{"id": 1, "type": "private"},
				"text":       r.PostForm.Get("text"),
			},
		})
	default:
		writeError(w, http.StatusNotFound, 404, "Not Found")
	}
}

func writeError(w http.ResponseWriter, status, code int, desc string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error_code": code, "description": desc})
}

// Recorder is a Sender that records calls in memory. Chats in Fail return
// Err (or a generic error).
type Recorder struct {
	Fail map[string]bool
	Err  error

	mu   sync.Mutex
	sent []Message
}

// Send implements notify.Sender.
func (r *Recorder) Send(_ context.Context, token, chatID, text string) error {
	if r.Fail[chatID] {
		if r.Err != nil {
			return r.Err
		}
		return errDelivery
	}
	r.mu.Lock()
	r.sent = append(r.sent, Message{Token: token, ChatID: chatID, Text: text})
	r.mu.Unlock()
	return nil
}

// Sent returns a copy of the recorded messages.
func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.sent...)
}

type deliveryError struct{}

func (deliveryError) Error() string { return "notifytest: delivery failed" }

var errDelivery error = deliveryError{}
