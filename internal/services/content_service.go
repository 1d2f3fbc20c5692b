// Package services – ContentService
//
// ContentService backs the public site reads and the admin content panel:
// the settings singleton, page blocks, services, reviews, and the read-only
// views over booking requests and uploaded images.
//
// Input validation that is specific to an entity (required names, block
// variant rules) happens here; missing records are reported as ErrNotFound.
package services

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nailstudio/salon-backend/internal/domain"
	"github.com/nailstudio/salon-backend/internal/repo"
)

// ContentService exposes site content over a repo.Store.
type ContentService struct {
	Store repo.Store
}

func (s *ContentService) span(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer("services/ContentService").Start(ctx, op, trace.WithAttributes(attrs...))
}

// PublicSettings returns the settings without credentials.
func (s *ContentService) PublicSettings(ctx context.Context) (domain.PublicSettings, error) {
	ctx, span := s.span(ctx, "PublicSettings")
	defer span.End()
	st, err := s.Store.Settings().Get(ctx)
	if err != nil {
		return domain.PublicSettings{}, notFound(err)
	}
	return st.Public(), nil
}

// AdminSettings returns everything except the password hash.
func (s *ContentService) AdminSettings(ctx context.Context) (domain.AdminSettings, error) {
	ctx, span := s.span(ctx, "AdminSettings")
	defer span.End()
	st, err := s.Store.Settings().Get(ctx)
	if err != nil {
		return domain.AdminSettings{}, notFound(err)
	}
	return st.Safe(), nil
}

// UpdateSettings merges p into the singleton. The master's name, phone,
// signature and description cannot be blanked.
func (s *ContentService) UpdateSettings(ctx context.Context, p domain.SettingsPatch) (domain.AdminSettings, error) {
	ctx, span := s.span(ctx, "UpdateSettings")
	defer span.End()

	required := []struct {
		field string
		v     *string
	}{
		{"masterName", p.MasterName},
		{"masterPhone", p.MasterPhone},
		{"masterSignature", p.MasterSignature},
		{"masterDescription", p.MasterDescription},
	}
	for _, r := range required {
		if r.v != nil && strings.TrimSpace(*r.v) == "" {
			return domain.AdminSettings{}, invalid(r.field, "must not be empty")
		}
	}
	st, err := s.Store.Settings().Update(ctx, p)
	if err != nil {
		return domain.AdminSettings{}, notFound(err)
	}
	return st.Safe(), nil
}

// PublicBlocks returns enabled blocks in display order.
func (s *ContentService) PublicBlocks(ctx context.Context) ([]domain.Block, error) {
	ctx, span := s.span(ctx, "PublicBlocks")
	defer span.End()
	all, err := s.Store.Blocks().List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Block, 0, len(all))
	for _, b := range all {
		if b.Enabled {
			out = append(out, b)
		}
	}
	return out, nil
}

// ListBlocks returns every block in display order.
func (s *ContentService) ListBlocks(ctx context.Context) ([]domain.Block, error) {
	ctx, span := s.span(ctx, "ListBlocks")
	defer span.End()
	return s.Store.Blocks().List(ctx)
}

// GetBlock returns one block.
func (s *ContentService) GetBlock(ctx context.Context, id string) (domain.Block, error) {
	ctx, span := s.span(ctx, "GetBlock", attribute.String("block.id", id))
	defer span.End()
	b, err := s.Store.Blocks().Get(ctx, id)
	return b, notFound(err)
}

// CreateBlock builds a block from p. Blocks are enabled unless p says
// otherwise.
func (s *ContentService) CreateBlock(ctx context.Context, p domain.BlockPatch) (domain.Block, error) {
	ctx, span := s.span(ctx, "CreateBlock")
	defer span.End()
	b, err := p.Merge(domain.Block{Enabled: true})
	if err != nil {
		return domain.Block{}, err
	}
	return s.Store.Blocks().Create(ctx, b)
}

// UpdateBlock validates the merged result before persisting it.
func (s *ContentService) UpdateBlock(ctx context.Context, id string, p domain.BlockPatch) (domain.Block, error) {
	ctx, span := s.span(ctx, "UpdateBlock", attribute.String("block.id", id))
	defer span.End()
	cur, err := s.Store.Blocks().Get(ctx, id)
	if err != nil {
		return domain.Block{}, notFound(err)
	}
	if _, err := p.Merge(cur); err != nil {
		return domain.Block{}, err
	}
	b, err := s.Store.Blocks().Update(ctx, id, p)
	return b, notFound(err)
}

// DeleteBlock removes a block.
func (s *ContentService) DeleteBlock(ctx context.Context, id string) error {
	ctx, span := s.span(ctx, "DeleteBlock", attribute.String("block.id", id))
	defer span.End()
	return notFound(s.Store.Blocks().Delete(ctx, id))
}

// ListServices returns services in insertion order.
func (s *ContentService) ListServices(ctx context.Context) ([]domain.Service, error) {
	ctx, span := s.span(ctx, "ListServices")
	defer span.End()
	return s.Store.Services().List(ctx)
}

// CreateService requires a name, description and price. The icon defaults
// to domain.DefaultServiceIcon.
func (s *ContentService) CreateService(ctx context.Context, p domain.ServicePatch) (domain.Service, error) {
	ctx, span := s.span(ctx, "CreateService")
	defer span.End()
	if err := requireAll(map[string]*string{
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
	}, "name", "description", "price"); err != nil {
		return domain.Service{}, err
	}
	var v domain.Service
	p.Apply(&v)
	if v.Icon == nil {
		icon := domain.DefaultServiceIcon
		v.Icon = &icon
	}
	return s.Store.Services().Create(ctx, v)
}

// UpdateService merges p; required fields cannot be blanked.
func (s *ContentService) UpdateService(ctx context.Context, id string, p domain.ServicePatch) (domain.Service, error) {
	ctx, span := s.span(ctx, "UpdateService", attribute.String("service.id", id))
	defer span.End()
	if err := rejectBlank(map[string]*string{
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
	}, "name", "description", "price"); err != nil {
		return domain.Service{}, err
	}
	v, err := s.Store.Services().Update(ctx, id, p)
	return v, notFound(err)
}

// DeleteService removes a service.
func (s *ContentService) DeleteService(ctx context.Context, id string) error {
	ctx, span := s.span(ctx, "DeleteService", attribute.String("service.id", id))
	defer span.End()
	return notFound(s.Store.Services().Delete(ctx, id))
}

// ListReviews returns reviews newest first.
func (s *ContentService) ListReviews(ctx context.Context) ([]domain.Review, error) {
	ctx, span := s.span(ctx, "ListReviews")
	defer span.End()
	return s.Store.Reviews().List(ctx)
}

// CreateReview requires a name and text.
func (s *ContentService) CreateReview(ctx context.Context, p domain.ReviewPatch) (domain.Review, error) {
	ctx, span := s.span(ctx, "CreateReview")
	defer span.End()
	if err := requireAll(map[string]*string{"name": p.Name, "text": p.Text}, "name", "text"); err != nil {
		return domain.Review{}, err
	}
	var v domain.Review
	p.Apply(&v)
	return s.Store.Reviews().Create(ctx, v)
}

// UpdateReview merges p; name and text cannot be blanked.
func (s *ContentService) UpdateReview(ctx context.Context, id string, p domain.ReviewPatch) (domain.Review, error) {
	ctx, span := s.span(ctx, "UpdateReview", attribute.String("review.id", id))
	defer span.End()
	if err := rejectBlank(map[string]*string{"name": p.Name, "text": p.Text}, "name", "text"); err != nil {
		return domain.Review{}, err
	}
	v, err := s.Store.Reviews().Update(ctx, id, p)
	return v, notFound(err)
}

// DeleteReview removes a review.
func (s *ContentService) DeleteReview(ctx context.Context, id string) error {
	ctx, span := s.span(ctx, "DeleteReview", attribute.String("review.id", id))
	defer span.End()
	return notFound(s.Store.Reviews().Delete(ctx, id))
}

// ListRequests returns booking requests newest first.
func (s *ContentService) ListRequests(ctx context.Context) ([]domain.Request, error) {
	ctx, span := s.span(ctx, "ListRequests")
	defer span.End()
	return s.Store.Requests().List(ctx)
}

// ListImages returns upload metadata newest first.
func (s *ContentService) ListImages(ctx context.Context) ([]domain.Image, error) {
	ctx, span := s.span(ctx, "ListImages")
	defer span.End()
	return s.Store.Images().List(ctx)
}

// Summary returns collection counts for the dashboard.
func (s *ContentService) Summary(ctx context.Context) (repo.Summary, error) {
	ctx, span := s.span(ctx, "Summary")
	defer span.End()
	return repo.Summarize(ctx, s.Store)
}

// requireAll checks that every named field is present and non-blank. order
// fixes which field is reported first.
func requireAll(fields map[string]*string, order ...string) error {
	for _, name := range order {
		v := fields[name]
		if v == nil || strings.TrimSpace(*v) == "" {
			return invalid(name, "is required")
		}
	}
	return nil
}

// rejectBlank checks that the present fields are non-blank.
func rejectBlank(fields map[string]*string, order ...string) error {
	for _, name := range order {
		if v := fields[name]; v != nil && strings.TrimSpace(*v) == "" {
			return invalid(name, "must not be empty")
		}
	}
	return nil
}
