// Package handlers implements the HTTP endpoints of the salon site.
//
// Handlers are transport-thin: they decode input, call application services,
// and translate results into HTTP responses. Every service is consumed
// through a small interface declared here so tests can stub it.
package handlers

import (
	"context"
	"io"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/nailstudio/salon-backend/internal/auth"
	"github.com/nailstudio/salon-backend/internal/domain"
	"github.com/nailstudio/salon-backend/internal/repo"
	"github.com/nailstudio/salon-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// ContentService covers the settings singleton, blocks, services, reviews
// and the read-only request and image views.
type ContentService interface {
	PublicSettings(ctx context.Context) (domain.PublicSettings, error)
	AdminSettings(ctx context.Context) (domain.AdminSettings, error)
	UpdateSettings(ctx context.Context, p domain.SettingsPatch) (domain.AdminSettings, error)

	PublicBlocks(ctx context.Context) ([]domain.Block, error)
	ListBlocks(ctx context.Context) ([]domain.Block, error)
	GetBlock(ctx context.Context, id string) (domain.Block, error)
	CreateBlock(ctx context.Context, p domain.BlockPatch) (domain.Block, error)
	UpdateBlock(ctx context.Context, id string, p domain.BlockPatch) (domain.Block, error)
	DeleteBlock(ctx context.Context, id string) error

	ListServices(ctx context.Context) ([]domain.Service, error)
	CreateService(ctx context.Context, p domain.ServicePatch) (domain.Service, error)
	UpdateService(ctx context.Context, id string, p domain.ServicePatch) (domain.Service, error)
	DeleteService(ctx context.Context, id string) error

	ListReviews(ctx context.Context) ([]domain.Review, error)
	CreateReview(ctx context.Context, p domain.ReviewPatch) (domain.Review, error)
	UpdateReview(ctx context.Context, id string, p domain.ReviewPatch) (domain.Review, error)
	DeleteReview(ctx context.Context, id string) error

	ListRequests(ctx context.Context) ([]domain.Request, error)
	ListImages(ctx context.Context) ([]domain.Image, error)
	Summary(ctx context.Context) (repo.Summary, error)
}

// BookingService accepts booking submissions.
type BookingService interface {
	// Submit validates and stores a booking; notification happens in the
	// background and never affects the result.
	Submit(ctx context.Context, in services.BookingInput) (domain.Request, error)
}

// SubscriberService manages notification subscribers.
type SubscriberService interface {
	HandleUpdate(ctx context.Context, u tgbotapi.Update) error
	List(ctx context.Context) ([]domain.Subscriber, error)
	Create(ctx context.Context, in services.SubscriberInput) (domain.Subscriber, error)
	Delete(ctx context.Context, id string) error
	SendTest(ctx context.Context) (services.TestResult, error)
}

// MediaService stores, serves and removes uploaded images.
type MediaService interface {
	Upload(ctx context.Context, in services.UploadInput) (domain.Image, error)
	DeleteImage(ctx context.Context, id string) error
	DeleteUpload(ctx context.Context, in services.DeleteUploadInput) error
	LocalPath(urlPath string) (string, error)
}

// Exporter renders booking requests as a spreadsheet.
type Exporter interface {
	WriteRequests(ctx context.Context, w io.Writer) error
}

// Authenticator exchanges the admin password for a token.
type Authenticator interface {
	Login(ctx context.Context, password string) (auth.Token, error)
}

//
// Handler wiring
//

// Deps lists the services behind the handlers.
type Deps struct {
	Content     ContentService
	Booking     BookingService
	Subscribers SubscriberService
	Media       MediaService
	Export      Exporter
	Auth        Authenticator
	// WebhookSecret, when set, must match the
	// X-Telegram-Bot-Api-Secret-Token header of webhook calls.
	WebhookSecret string
}

// Handlers groups the HTTP endpoints. It depends on abstract service
// interfaces to keep transport concerns separate from business logic.
type Handlers struct {
	content       ContentService
	booking       BookingService
	subs          SubscriberService
	media         MediaService
	export        Exporter
	auth          Authenticator
	webhookSecret string
}

// New constructs a Handlers instance bound to the given services.
func New(d Deps) *Handlers {
	return &Handlers{
		content:       d.Content,
		booking:       d.Booking,
		subs:          d.Subscribers,
		media:         d.Media,
		export:        d.Export,
		auth:          d.Auth,
		webhookSecret: d.WebhookSecret,
	}
}
