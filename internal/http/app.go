package httpapi

import (
	"time"

	"github.com/nailstudio/salon-backend/internal/auth"
	"github.com/nailstudio/salon-backend/internal/config"
	"github.com/nailstudio/salon-backend/internal/http/handlers"
	"github.com/nailstudio/salon-backend/internal/notify"
	"github.com/nailstudio/salon-backend/internal/repo"
	"github.com/nailstudio/salon-backend/internal/services"
)

// App bundles the services behind the HTTP API. Booking is exposed so the
// caller can wait for in-flight notifications on shutdown.
type App struct {
	Store       repo.Store
	Guard       *auth.Guard
	Dispatcher  *notify.Dispatcher
	Booking     *services.BookingService
	Content     *services.ContentService
	Subscribers *services.SubscriberService
	Media       *services.MediaService
	Export      *services.ExportService
}

// NewApp wires the application services over st. sender delivers Telegram
// messages; tokens signs admin sessions.
func NewApp(st repo.Store, tokens *auth.Tokens, sender notify.Sender, cfg config.Config) *App {
	formatter := notify.NewFormatter(cfg.Notify.Location, cfg.Notify.Locale)
	dispatcher := notify.NewDispatcher(st.Settings(), st.Subscribers(), sender, cfg.Notify.Concurrency, cfg.Notify.Timeout)

	return &App{
		Store:      st,
		Guard:      auth.NewGuard(st.Settings(), tokens, cfg.Auth.AllowPasswordBearer),
		Dispatcher: dispatcher,
		Booking: &services.BookingService{
			Requests:      st.Requests(),
			Broadcaster:   dispatcher,
			Formatter:     formatter,
			NotifyTimeout: notifyTimeout(cfg.Notify),
		},
		Content: &services.ContentService{Store: st},
		Subscribers: &services.SubscriberService{
			Store:       st,
			Sender:      sender,
			Broadcaster: dispatcher,
			Formatter:   formatter,
		},
		Media: &services.MediaService{
			Store:     st,
			Dir:       cfg.Uploads.Dir,
			URLPrefix: cfg.Uploads.URLPrefix,
			MaxBytes:  cfg.Uploads.MaxBytes,
		},
		Export: &services.ExportService{Requests: st.Requests(), Location: cfg.Notify.Location},
	}
}

// Handlers builds the route handlers over the app services.
func (a *App) Handlers(webhookSecret string) *handlers.Handlers {
	return handlers.New(handlers.Deps{
		Content:       a.Content,
		Booking:       a.Booking,
		Subscribers:   a.Subscribers,
		Media:         a.Media,
		Export:        a.Export,
		Auth:          a.Guard,
		WebhookSecret: webhookSecret,
	})
}

// notifyTimeout bounds one background broadcast: a few sequential rounds of
// per-call timeouts at the configured concurrency.
func notifyTimeout(n config.NotifyConfig) time.Duration {
	if n.Timeout <= 0 {
		return time.Minute
	}
	return 6 * n.Timeout
}
