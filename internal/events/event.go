// Package events distributes domain change notifications to routing layers.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/narvanalabs/domain-registry/internal/models"
)

// Type identifies a change.
type Type string

const (
	DomainCreated Type = "domain.created"
	DomainDeleted Type = "domain.deleted"
)

// Event is a single committed change to an application's domains.
type Event struct {
	Type     Type      `json:"type"`
	App      string    `json:"app"`
	Domain   string    `json:"domain"`
	Wildcard bool      `json:"wildcard"`
	At       time.Time `json:"at"`
}

// NewEvent builds an event for a domain record.
func NewEvent(t Type, d *models.Domain) *Event {
	return &Event{
		Type:     t,
		App:      d.App,
		Domain:   d.Domain,
		Wildcard: d.IsWildcard(),
		At:       time.Now().UTC(),
	}
}

// Publisher delivers events. Publish is called after the change has been
// committed, so a failure never undoes the change.
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
}

// Fanout publishes to every publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, event *Event) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, *Event) error { return nil }
