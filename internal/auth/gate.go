package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/narvanalabs/domain-registry/internal/store"
)

// Gate errors. ErrNotVisible is reported to callers exactly like a missing
// application so that existence is not leaked.
var (
	ErrNotVisible = errors.New("application not found")
	ErrForbidden  = errors.New("permission denied")
)

// Action is an operation on an application's domains.
type Action string

const (
	ActionCreate Action = "create"
	ActionList   Action = "list"
	ActionDelete Action = "delete"
)

// Caller is an authenticated principal.
type Caller struct {
	UserID  string
	IsAdmin bool
}

// Gate decides whether a caller may perform an action on an application.
type Gate struct {
	apps   store.AppStore
	orgs   store.OrgStore
	logger *slog.Logger
}

// NewGate creates a gate backed by the application and organization stores.
// orgs may be nil when organization visibility is not in use.
func NewGate(apps store.AppStore, orgs store.OrgStore, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{apps: apps, orgs: orgs, logger: logger}
}

// Authorize returns nil when the action is allowed, ErrNotVisible when the
// application is missing or hidden from the caller, and ErrForbidden when the
// caller can see the application but may not change it.
func (g *Gate) Authorize(ctx context.Context, caller *Caller, appID string, action Action) error {
	app, err := g.apps.Get(ctx, appID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotVisible
	}
	if err != nil {
		return fmt.Errorf("loading app %s: %w", appID, err)
	}

	if caller == nil {
		return ErrNotVisible
	}
	if caller.IsAdmin {
		if !app.IsOwner(caller.UserID) && !app.IsCollaborator(caller.UserID) {
			g.logger.Info("admin override",
				"user_id", caller.UserID,
				"app_id", appID,
				"action", string(action),
			)
		}
		return nil
	}
	if app.IsOwner(caller.UserID) || app.IsCollaborator(caller.UserID) {
		return nil
	}

	visible, err := g.canSee(ctx, app.OrgID, caller.UserID)
	if err != nil {
		return err
	}
	if !visible {
		return ErrNotVisible
	}
	if action == ActionList {
		return nil
	}
	return ErrForbidden
}

func (g *Gate) canSee(ctx context.Context, orgID, userID string) (bool, error) {
	if orgID == "" || g.orgs == nil {
		return false, nil
	}
	ok, err := g.orgs.IsMember(ctx, orgID, userID)
	if err != nil {
		return false, fmt.Errorf("checking membership in %s: %w", orgID, err)
	}
	return ok, nil
}
