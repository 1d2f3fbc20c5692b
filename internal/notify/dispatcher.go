package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/nailstudio/salon-backend/internal/domain"
)

// Reasons a broadcast was skipped.
const (
	SkipNoToken       = "bot token not configured"
	SkipNoSubscribers = "no subscribers"
	SkipStoreError    = "store unavailable"
)

// SettingsReader provides the bot token.
type SettingsReader interface {
	Get(ctx context.Context) (domain.Settings, error)
}

// SubscriberLister provides the current recipients.
type SubscriberLister interface {
	List(ctx context.Context) ([]domain.Subscriber, error)
}

// Outcome is the result of one delivery. Err is nil on success.
type Outcome struct {
	ChatID string
	Err    error
}

// Report summarizes a broadcast. Skipped is non-empty when nothing was sent
// because a precondition did not hold.
type Report struct {
	Sent     int
	Total    int
	Skipped  string
	Outcomes []Outcome
}

// Dispatcher broadcasts messages to every subscriber.
type Dispatcher struct {
	settings    SettingsReader
	subscribers SubscriberLister
	sender      Sender
	concurrency int
	timeout     time.Duration
}

// NewDispatcher wires a dispatcher. concurrency bounds parallel deliveries;
// timeout bounds a single delivery (0 means no extra bound).
func NewDispatcher(settings SettingsReader, subscribers SubscriberLister, sender Sender, concurrency int, timeout time.Duration) *Dispatcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Dispatcher{
		settings:    settings,
		subscribers: subscribers,
		sender:      sender,
		concurrency: concurrency,
		timeout:     timeout,
	}
}

// Broadcast delivers text to every subscriber. Missing token or zero
// subscribers make it a logged no-op. It never fails the caller.
func (d *Dispatcher) Broadcast(ctx context.Context, text string) Report {
	tr := otel.Tracer("notify/Dispatcher")
	ctx, span := tr.Start(ctx, "Broadcast")
	defer span.End()

	s, err := d.settings.Get(ctx)
	if err != nil {
		log.Error().Err(err).Msg("notify: read settings")
		return d.skip(span, SkipStoreError)
	}
	token := s.BotTokenValue()
	if token == "" {
		return d.skip(span, SkipNoToken)
	}
	subs, err := d.subscribers.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("notify: list subscribers")
		return d.skip(span, SkipStoreError)
	}
	if len(subs) == 0 {
		return d.skip(span, SkipNoSubscribers)
	}

	outcomes := make([]Outcome, len(subs))
	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, sub := range subs {
		g.Go(func() error {
			outcomes[i] = Outcome{ChatID: sub.ChatID, Err: d.deliver(ctx, token, sub, text)}
			// Failures stay in the outcome so the group never cancels peers.
			return nil
		})
	}
	_ = g.Wait()

	rep := Report{Total: len(subs), Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Err == nil {
			rep.Sent++
		}
	}
	broadcastsTotal.WithLabelValues("delivered").Inc()
	span.SetAttributes(attribute.Int("notify.sent", rep.Sent), attribute.Int("notify.total", rep.Total))
	log.Info().Int("sent", rep.Sent).Int("total", rep.Total).Msg("notify: broadcast finished")
	return rep
}

func (d *Dispatcher) deliver(ctx context.Context, token string, sub domain.Subscriber, text string) error {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	err := d.sender.Send(ctx, token, sub.ChatID, text)
	if err != nil {
		deliveriesTotal.WithLabelValues("failed").Inc()
		log.Warn().Err(err).Str("chat_id", sub.ChatID).Str("subscriber", sub.DisplayName()).Msg("notify: delivery failed")
		return err
	}
	deliveriesTotal.WithLabelValues("sent").Inc()
	return nil
}

func (d *Dispatcher) skip(span trace.Span, reason string) Report {
	broadcastsTotal.WithLabelValues("skipped").Inc()
	span.SetAttributes(attribute.String("notify.skipped", reason))
	log.Info().Str("reason", reason).Msg("notify: broadcast skipped")
	return Report{Skipped: reason}
}
