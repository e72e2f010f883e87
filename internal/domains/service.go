// Package domains manages the custom hostnames bound to applications.
package domains

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/narvanalabs/domain-registry/internal/auth"
	"github.com/narvanalabs/domain-registry/internal/events"
	"github.com/narvanalabs/domain-registry/internal/metrics"
	"github.com/narvanalabs/domain-registry/internal/models"
	"github.com/narvanalabs/domain-registry/internal/store"
	"github.com/narvanalabs/domain-registry/internal/validation"
)

// Authorizer decides whether a caller may act on an application.
type Authorizer interface {
	Authorize(ctx context.Context, caller *auth.Caller, appID string, action auth.Action) error
}

// Validator normalizes and checks a candidate hostname.
type Validator interface {
	Validate(candidate string) (string, error)
}

// Service orchestrates domain management: authorize, validate, store, notify.
type Service struct {
	store     store.Store
	gate      Authorizer
	validator Validator
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithValidator(v Validator) Option {
	return func(s *Service) {
		s.validator = v
	}
}

// New constructs a Service.
func New(st store.Store, gate Authorizer, opts ...Option) *Service {
	s := &Service{
		store:     st,
		gate:      gate,
		validator: validation.NewHostnameValidator(nil),
		publisher: events.Discard{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateDomain binds hostname to the application.
func (s *Service) CreateDomain(ctx context.Context, caller *auth.Caller, appID, hostname string) (domain *models.Domain, err error) {
	start := time.Now()
	defer func() { s.metrics.Observe("create", outcome(err), start) }()

	if err := s.authorize(ctx, caller, appID, auth.ActionCreate); err != nil {
		return nil, err
	}

	normalized, err := s.validator.Validate(hostname)
	if err != nil {
		return nil, newValidationError(err)
	}

	domain = &models.Domain{
		Owner:  caller.UserID,
		App:    appID,
		Domain: normalized,
	}
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		if _, err := tx.Apps().Get(ctx, appID); err != nil {
			return err
		}
		return tx.Domains().Create(ctx, domain)
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, ErrNotFound
	case errors.Is(err, store.ErrConflict):
		return nil, fmt.Errorf("%w: %s", ErrConflict, normalized)
	case err != nil:
		return nil, fmt.Errorf("creating domain %s: %w", normalized, err)
	}

	s.logger.Info("domain created",
		"app_id", appID,
		"domain", domain.Domain,
		"user_id", caller.UserID,
	)
	s.notify(ctx, events.NewEvent(events.DomainCreated, domain))
	return domain, nil
}

// ListDomains returns the application's primary hostname followed by its
// custom domains in creation order.
func (s *Service) ListDomains(ctx context.Context, caller *auth.Caller, appID string) (result []*models.Domain, err error) {
	start := time.Now()
	defer func() { s.metrics.Observe("list", outcome(err), start) }()

	if err := s.authorize(ctx, caller, appID, auth.ActionList); err != nil {
		return nil, err
	}

	app, err := s.store.Apps().Get(ctx, appID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading app %s: %w", appID, err)
	}

	custom, err := s.store.Domains().List(ctx, appID)
	if err != nil {
		return nil, fmt.Errorf("listing domains for %s: %w", appID, err)
	}

	result = make([]*models.Domain, 0, len(custom)+1)
	result = append(result, models.PrimaryDomain(app))
	return append(result, custom...), nil
}

// DeleteDomain removes exactly the named custom domain from the application.
// The primary hostname is never stored and so is reported as not found.
func (s *Service) DeleteDomain(ctx context.Context, caller *auth.Caller, appID, hostname string) (err error) {
	start := time.Now()
	defer func() { s.metrics.Observe("delete", outcome(err), start) }()

	if err := s.authorize(ctx, caller, appID, auth.ActionDelete); err != nil {
		return err
	}

	hostname = strings.ToLower(hostname)
	if hostname == "" || hostname == appID {
		return ErrNotFound
	}

	var deleted *models.Domain
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		d, err := tx.Domains().GetByDomain(ctx, hostname)
		if err != nil {
			return err
		}
		if d.App != appID {
			return store.ErrNotFound
		}
		deleted = d
		return tx.Domains().Delete(ctx, appID, hostname)
	})
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("deleting domain %s: %w", hostname, err)
	}

	s.logger.Info("domain deleted",
		"app_id", appID,
		"domain", hostname,
		"user_id", caller.UserID,
	)
	s.notify(ctx, events.NewEvent(events.DomainDeleted, deleted))
	return nil
}

// ListAllDomains returns every custom domain in the system. Admin only.
func (s *Service) ListAllDomains(ctx context.Context, caller *auth.Caller) (result []*models.Domain, err error) {
	start := time.Now()
	defer func() { s.metrics.Observe("list_all", outcome(err), start) }()

	if caller == nil || !caller.IsAdmin {
		return nil, ErrForbidden
	}
	result, err = s.store.Domains().ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing all domains: %w", err)
	}
	return result, nil
}

func (s *Service) authorize(ctx context.Context, caller *auth.Caller, appID string, action auth.Action) error {
	err := s.gate.Authorize(ctx, caller, appID, action)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, auth.ErrNotVisible):
		return ErrNotFound
	case errors.Is(err, auth.ErrForbidden):
		return ErrForbidden
	default:
		return fmt.Errorf("authorizing %s on %s: %w", action, appID, err)
	}
}

// notify publishes a committed change. Delivery failures are logged and
// counted; the change itself stands.
func (s *Service) notify(ctx context.Context, event *events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.metrics.IncrementPublishFailures()
		s.logger.Warn("failed to publish domain event",
			"type", string(event.Type),
			"app_id", event.App,
			"domain", event.Domain,
			"error", err,
		)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrValidation):
		return metrics.OutcomeValidation
	case errors.Is(err, ErrConflict):
		return metrics.OutcomeConflict
	case errors.Is(err, ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, ErrForbidden):
		return metrics.OutcomeForbidden
	default:
		return metrics.OutcomeError
	}
}
