package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// WildcardPrefix marks a hostname that covers every subdomain one level down.
const WildcardPrefix = "*."

// primaryNamespace seeds the deterministic identifiers of synthesized primary entries.
var primaryNamespace = uuid.MustParse("6f1c7a52-3b0e-4c55-9a3e-0c2d4e8b9f10")

// Domain is a hostname bound to exactly one application.
type Domain struct {
	UUID      string    `json:"uuid"`
	Owner     string    `json:"owner"`
	App       string    `json:"app"`
	Domain    string    `json:"domain"`
	CreatedAt time.Time `json:"created"`
	UpdatedAt time.Time `json:"updated"`
}

// IsWildcard reports whether the domain is a wildcard hostname.
func (d *Domain) IsWildcard() bool {
	return strings.HasPrefix(d.Domain, WildcardPrefix)
}

// PrimaryDomain synthesizes the non-deletable entry for an application's own
// hostname. The identifier is derived from the app ID so repeated calls agree.
func PrimaryDomain(app *App) *Domain {
	return &Domain{
		UUID:      uuid.NewSHA1(primaryNamespace, []byte(app.ID)).String(),
		Owner:     app.OwnerID,
		App:       app.ID,
		Domain:    app.PrimaryHostname(),
		CreatedAt: app.CreatedAt,
		UpdatedAt: app.UpdatedAt,
	}
}
