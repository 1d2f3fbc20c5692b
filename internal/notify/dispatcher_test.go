package notify

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nailstudio/salon-backend/internal/domain"
	"github.com/nailstudio/salon-backend/internal/notify/notifytest"
)

type stubSettings struct {
	token string
	err   error
}

func (s stubSettings) Get(context.Context) (domain.Settings, error) {
	if s.err != nil {
		return domain.Settings{}, s.err
	}
	st := domain.Settings{MasterName: "Анна"}
	if s.token != "" {
		st.BotToken = &s.token
	}
	return st, nil
}

type stubSubs struct {
	subs []domain.Subscriber
	err  error
}

func (s stubSubs) List(context.Context) ([]domain.Subscriber, error) { return s.subs, s.err }

func subs(ids ...string) stubSubs {
	out := make([]domain.Subscriber, len(ids))
	for i, id := range ids {
		out[i] = domain.Subscriber{ID: fmt.Sprintf("s%d", i), ChatID: id}
	}
	return stubSubs{subs: out}
}

func TestBroadcast_SkipsWithoutTokenOrSubscribers(t *testing.T) {
	rec := &notifytest.Recorder{}
	tests := []struct {
		name string
		set  stubSettings
		subs stubSubs
		want string
	}{
		{"no token", stubSettings{}, subs("1"), SkipNoToken},
		{"no subscribers", stubSettings{token: "t"}, subs(), SkipNoSubscribers},
		{"settings error", stubSettings{err: errors.New("boom")}, subs("1"), SkipStoreError},
		{"subscribers error", stubSettings{token: "t"}, stubSubs{err: errors.New("boom")}, SkipStoreError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDispatcher(tt.set, tt.subs, rec, 2, 0)
			rep := d.Broadcast(context.Background(), "x")
			if rep.Skipped != tt.want || rep.Sent != 0 || rep.Total != 0 {
				t.Fatalf("report = %+v; want skipped %q", rep, tt.want)
			}
		})
	}
	if len(rec.Sent()) != 0 {
		t.Fatalf("skipped broadcasts must not send")
	}
}

func TestBroadcast_IsolatesFailures(t *testing.T) {
	rec := &notifytest.Recorder{Fail: map[string]bool{"2": true, "4": true}}
	d := NewDispatcher(stubSettings{token: "tok"}, subs("1", "2", "3", "4", "5"), rec, 2, time.Second)

	failedBefore := testutil.ToFloat64(deliveriesTotal.WithLabelValues("failed"))
	sentBefore := testutil.ToFloat64(deliveriesTotal.WithLabelValues("sent"))

	rep := d.Broadcast(context.Background(), "hello")
	if rep.Sent != 3 || rep.Total != 5 || rep.Skipped != "" {
		t.Fatalf("report = %+v", rep)
	}
	if len(rep.Outcomes) != 5 {
		t.Fatalf("outcomes = %d", len(rep.Outcomes))
	}
	for _, o := range rep.Outcomes {
		failed := o.ChatID == "2" || o.ChatID == "4"
		if failed != (o.Err != nil) {
			t.Fatalf("outcome %+v", o)
		}
	}
	if got := len(rec.Sent()); got != 3 {
		t.Fatalf("recorded %d sends; want 3", got)
	}
	if d := testutil.ToFloat64(deliveriesTotal.WithLabelValues("failed")) - failedBefore; d != 2 {
		t.Fatalf("failed counter delta = %v; want 2", d)
	}
	if d := testutil.ToFloat64(deliveriesTotal.WithLabelValues("sent")) - sentBefore; d != 3 {
		t.Fatalf("sent counter delta = %v; want 3", d)
	}
}

type slowSender struct {
	inflight, peak atomic.Int32
}

func (s *slowSender) Send(ctx context.Context, _, _, _ string) error {
	n := s.inflight.Add(1)
	defer s.inflight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	select {
	case <-time.After(20 * time.Millisecond):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestBroadcast_RespectsConcurrencyLimit(t *testing.T) {
	s := &slowSender{}
	d := NewDispatcher(stubSettings{token: "tok"}, subs("1", "2", "3", "4", "5", "6"), s, 2, 0)
	rep := d.Broadcast(context.Background(), "x")
	if rep.Sent != 6 {
		t.Fatalf("sent = %d", rep.Sent)
	}
	if p := s.peak.Load(); p > 2 {
		t.Fatalf("peak concurrency %d exceeds limit 2", p)
	}
}

func TestBroadcast_PerDeliveryTimeout(t *testing.T) {
	d := NewDispatcher(stubSettings{token: "tok"}, subs("1"), &slowSender{}, 1, time.Millisecond)
	rep := d.Broadcast(context.Background(), "x")
	if rep.Sent != 0 || rep.Total != 1 || !errors.Is(rep.Outcomes[0].Err, context.DeadlineExceeded) {
		t.Fatalf("report = %+v", rep)
	}
}

func TestBroadcast_ThroughFakeBotAPI(t *testing.T) {
	api := notifytest.NewBotAPI("666")
	defer api.Close()
	d := NewDispatcher(stubSettings{token: "123:abc"}, subs("1", "666", "2"), NewTelegramSender(api.Endpoint(), 5*time.Second), 4, 0)

	rep := d.Broadcast(context.Background(), "<b>x</b>")
	if rep.Sent != 2 || rep.Total != 3 {
		t.Fatalf("report = %+v", rep)
	}
	if n := len(api.Messages()); n != 2 {
		t.Fatalf("api received %d messages; want 2", n)
	}
}
