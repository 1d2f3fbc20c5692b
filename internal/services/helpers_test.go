package services

import (
	"context"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/nailstudio/salon-backend/internal/domain"
	"github.com/nailstudio/salon-backend/internal/notify"
	"github.com/nailstudio/salon-backend/internal/notify/notifytest"
	"github.com/nailstudio/salon-backend/internal/repo"
)

var fixedNow = time.Date(2024, 3, 8, 9, 5, 7, 0, time.UTC)

// newSeededStore returns a memory store seeded with the stock content.
func newSeededStore(t *testing.T) repo.Store {
	t.Helper()
	st := repo.NewMemory()
	if err := repo.Seed(context.Background(), st, domain.DefaultSeed("admin123")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return st
}

func setBotToken(t *testing.T, st repo.Store, token string) {
	t.Helper()
	if _, err := st.Settings().Update(context.Background(), domain.SettingsPatch{BotToken: &token}); err != nil {
		t.Fatalf("set token: %v", err)
	}
}

func addSubscribers(t *testing.T, st repo.Store, chatIDs ...string) {
	t.Helper()
	for _, id := range chatIDs {
		if _, err := st.Subscribers().Create(context.Background(), domain.Subscriber{ChatID: id}); err != nil {
			t.Fatalf("add subscriber %s: %v", id, err)
		}
	}
}

func testFormatter() *notify.Formatter {
	return notify.NewFormatter(time.UTC, language.Russian).WithClock(func() time.Time { return fixedNow })
}

func newDispatcher(st repo.Store, sender notify.Sender) *notify.Dispatcher {
	return notify.NewDispatcher(st.Settings(), st.Subscribers(), sender, 2, time.Second)
}

var _ notify.Sender = (*notifytest.Recorder)(nil)
