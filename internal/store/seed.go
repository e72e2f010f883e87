package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/narvanalabs/domain-registry/internal/models"
)

// SeedData describes records loaded into a development store.
type SeedData struct {
	Users []SeedUser `yaml:"users"`
	Apps  []SeedApp  `yaml:"apps"`
}

// SeedUser is a user and its organization memberships.
type SeedUser struct {
	ID    string   `yaml:"id"`
	Email string   `yaml:"email"`
	Admin bool     `yaml:"admin"`
	Orgs  []string `yaml:"orgs"`
	// APIKeyHash is the SHA256 hex digest of a development API key.
	APIKeyHash string `yaml:"api_key_hash"`
}

// SeedApp is an application record.
type SeedApp struct {
	ID            string   `yaml:"id"`
	Org           string   `yaml:"org"`
	Owner         string   `yaml:"owner"`
	Collaborators []string `yaml:"collaborators"`
}

// LoadSeedFile parses a YAML seed file.
func LoadSeedFile(path string) (*SeedData, error) {
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	var data SeedData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	return &data, nil
}

// Seed inserts the seed records. Records that already exist are skipped, so
// seeding is safe to repeat. Each record is written on its own because a
// skipped duplicate would abort an enclosing Postgres transaction.
func Seed(ctx context.Context, st Store, data *SeedData) error {
	for _, u := range data.Users {
		err := st.Users().Create(ctx, &User{ID: u.ID, Email: u.Email, IsAdmin: u.Admin})
		if err != nil && !errors.Is(err, ErrConflict) {
			return fmt.Errorf("seeding user %s: %w", u.ID, err)
		}
		for _, org := range u.Orgs {
			if err := st.Orgs().AddMember(ctx, org, u.ID, models.RoleMember); err != nil {
				return fmt.Errorf("seeding membership %s/%s: %w", org, u.ID, err)
			}
		}
		if u.APIKeyHash != "" {
			err := st.APIKeys().Create(ctx, &APIKey{UserID: u.ID, KeyHash: u.APIKeyHash, Name: "seed"})
			if err != nil && !errors.Is(err, ErrConflict) {
				return fmt.Errorf("seeding API key for %s: %w", u.ID, err)
			}
		}
	}
	for _, a := range data.Apps {
		err := st.Apps().Create(ctx, &models.App{
			ID:            a.ID,
			OrgID:         a.Org,
			OwnerID:       a.Owner,
			Collaborators: a.Collaborators,
		})
		if err != nil && !errors.Is(err, ErrConflict) {
			return fmt.Errorf("seeding app %s: %w", a.ID, err)
		}
	}
	return nil
}
