// Package services – BookingService
//
// This file implements booking intake from the public form. A valid
// submission is persisted as a Request first; the Telegram broadcast runs
// afterwards in a tracked background goroutine, detached from the HTTP
// request, so delivery problems never change the response and never roll
// back the stored request.
package services

import (
	"context"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nailstudio/salon-backend/internal/domain"
	"github.com/nailstudio/salon-backend/internal/notify"
	"github.com/nailstudio/salon-backend/internal/repo"
)

// Reserved service selector values of the booking form.
const (
	ServiceConsultation = "consultation"
	ServiceOther        = "other"
)

var serviceLabels = map[string]string{
	ServiceConsultation: "Консультация",
	ServiceOther:        "Другое",
}

// ServiceLabel renders a service selector for humans. Known service names
// pass through unchanged.
func ServiceLabel(selector string) string {
	if l, ok := serviceLabels[selector]; ok {
		return l
	}
	return selector
}

// BookingInput is the public booking form.
type BookingInput struct {
	Name    string  `json:"name"    validate:"required,min=2,max=100"`
	Phone   string  `json:"phone"   validate:"required,min=10,max=32"`
	Service string  `json:"service" validate:"required,max=200"`
	Comment *string `json:"comment" validate:"omitempty,max=1000"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator reporting JSON field names in
// errors.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		validate = v
	})
	return validate
}

// ValidateBooking trims whitespace and checks the form rules: name of at
// least 2 characters, phone of at least 10 characters, a non-empty service
// selector and an optional comment. The phone format itself is not checked.
func ValidateBooking(in BookingInput) (BookingInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Service = strings.TrimSpace(in.Service)
	if in.Comment != nil {
		c := strings.TrimSpace(*in.Comment)
		if c == "" {
			in.Comment = nil
		} else {
			in.Comment = &c
		}
	}
	if err := Validator().Struct(in); err != nil {
		return in, fromValidator(err)
	}
	return in, nil
}

// Broadcaster fans a message out to subscribers.
type Broadcaster interface {
	Broadcast(ctx context.Context, text string) notify.Report
}

// BookingService validates, persists and announces booking requests.
type BookingService struct {
	Requests    repo.Requests
	Broadcaster Broadcaster
	Formatter   *notify.Formatter
	// NotifyTimeout bounds one background broadcast.
	NotifyTimeout time.Duration

	wg sync.WaitGroup
}

// Submit validates in, stores it and schedules the notification. The phone
// is stored as submitted, trimmed.
func (s *BookingService) Submit(ctx context.Context, in BookingInput) (domain.Request, error) {
	tr := otel.Tracer("services/BookingService")
	ctx, span := tr.Start(ctx, "Submit")
	defer span.End()

	in, err := ValidateBooking(in)
	if err != nil {
		return domain.Request{}, err
	}

	req, err := s.Requests.Create(ctx, domain.Request{
		Name:    in.Name,
		Phone:   in.Phone,
		Service: in.Service,
		Comment: in.Comment,
	})
	if err != nil {
		return domain.Request{}, err
	}
	span.SetAttributes(attribute.String("request.id", req.ID))

	s.notify(ctx, req, span)
	return req, nil
}

func (s *BookingService) notify(ctx context.Context, req domain.Request, parent trace.Span) {
	if s.Broadcaster == nil || s.Formatter == nil {
		return
	}
	b := notify.Booking{
		Name:    req.Name,
		Phone:   req.Phone,
		Service: ServiceLabel(req.Service),
		At:      req.CreatedAt,
	}
	if req.Comment != nil {
		b.Comment = *req.Comment
	}
	text := s.Formatter.BookingMessage(b)

	bctx := context.WithoutCancel(ctx)
	timeout := s.NotifyTimeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	parent.AddEvent("notification scheduled")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		bctx, cancel := context.WithTimeout(bctx, timeout)
		defer cancel()
		rep := s.Broadcaster.Broadcast(bctx, text)
		log.Info().
			Str("request_id", req.ID).
			Int("sent", rep.Sent).
			Int("total", rep.Total).
			Str("skipped", rep.Skipped).
			Msg("booking notification done")
	}()
}

// Wait blocks until every scheduled notification has finished.
func (s *BookingService) Wait() {
	s.wg.Wait()
}
