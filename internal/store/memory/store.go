// Package memory provides an in-process implementation of the store
// interfaces for development mode and tests. It is not shared between
// processes.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/narvanalabs/domain-registry/internal/models"
	"github.com/narvanalabs/domain-registry/internal/store"
)

// Store implements store.Store with maps guarded by a single lock. Every
// operation is atomic on its own, so WithTx only needs to run fn.
type Store struct {
	mu      sync.RWMutex
	apps    map[string]*models.App
	domains map[string]*models.Domain // hostname -> domain
	byApp   map[string][]string       // app ID -> hostnames in creation order
	users   map[string]*store.User
	members map[string]map[string]models.Role // org ID -> user ID -> role
	apiKeys map[string]*store.APIKey          // key hash -> key
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		apps:    make(map[string]*models.App),
		domains: make(map[string]*models.Domain),
		byApp:   make(map[string][]string),
		users:   make(map[string]*store.User),
		members: make(map[string]map[string]models.Role),
		apiKeys: make(map[string]*store.APIKey),
	}
}

func (s *Store) Apps() store.AppStore       { return appStore{s} }
func (s *Store) Domains() store.DomainStore { return domainStore{s} }
func (s *Store) Users() store.UserStore     { return userStore{s} }
func (s *Store) Orgs() store.OrgStore       { return orgStore{s} }
func (s *Store) APIKeys() store.APIKeyStore { return apiKeyStore{s} }

// WithTx runs fn against the store itself.
func (s *Store) WithTx(ctx context.Context, fn func(store.Store) error) error {
	return fn(s)
}

func (s *Store) Ping(ctx context.Context) error { return nil }
func (s *Store) Close() error                   { return nil }

type appStore struct{ s *Store }

func (a appStore) Create(ctx context.Context, app *models.App) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	if _, exists := a.s.apps[app.ID]; exists {
		return store.ErrConflict
	}
	now := time.Now().UTC()
	if app.CreatedAt.IsZero() {
		app.CreatedAt = now
	}
	if app.UpdatedAt.IsZero() {
		app.UpdatedAt = now
	}
	a.s.apps[app.ID] = copyApp(app)
	return nil
}

func (a appStore) Get(ctx context.Context, id string) (*models.App, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()

	app, ok := a.s.apps[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyApp(app), nil
}

type domainStore struct{ s *Store }

// Create is the single compare-and-insert point for hostnames.
func (d domainStore) Create(ctx context.Context, domain *models.Domain) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()

	if _, ok := d.s.apps[domain.App]; !ok {
		return store.ErrNotFound
	}
	if _, taken := d.s.domains[domain.Domain]; taken {
		return store.ErrConflict
	}

	if domain.UUID == "" {
		domain.UUID = uuid.New().String()
	}
	now := time.Now().UTC()
	domain.CreatedAt = now
	domain.UpdatedAt = now

	stored := *domain
	d.s.domains[domain.Domain] = &stored
	d.s.byApp[domain.App] = append(d.s.byApp[domain.App], domain.Domain)
	return nil
}

func (d domainStore) List(ctx context.Context, appID string) ([]*models.Domain, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()

	hostnames := d.s.byApp[appID]
	domains := make([]*models.Domain, 0, len(hostnames))
	for _, hostname := range hostnames {
		domain := *d.s.domains[hostname]
		domains = append(domains, &domain)
	}
	return domains, nil
}

func (d domainStore) ListAll(ctx context.Context) ([]*models.Domain, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()

	domains := make([]*models.Domain, 0, len(d.s.domains))
	for _, stored := range d.s.domains {
		domain := *stored
		domains = append(domains, &domain)
	}
	sort.Slice(domains, func(i, j int) bool { return domains[i].Domain < domains[j].Domain })
	return domains, nil
}

func (d domainStore) Delete(ctx context.Context, appID, hostname string) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()

	domain, ok := d.s.domains[hostname]
	if !ok || domain.App != appID {
		return store.ErrNotFound
	}

	delete(d.s.domains, hostname)
	hostnames := d.s.byApp[appID]
	if i := slices.Index(hostnames, hostname); i >= 0 {
		d.s.byApp[appID] = slices.Delete(slices.Clone(hostnames), i, i+1)
	}
	return nil
}

func (d domainStore) GetByDomain(ctx context.Context, hostname string) (*models.Domain, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()

	stored, ok := d.s.domains[hostname]
	if !ok {
		return nil, store.ErrNotFound
	}
	domain := *stored
	return &domain, nil
}

func (d domainStore) Count(ctx context.Context, appID string) (int, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	return len(d.s.byApp[appID]), nil
}

type userStore struct{ s *Store }

func (u userStore) Create(ctx context.Context, user *store.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	if _, exists := u.s.users[user.ID]; exists {
		return store.ErrConflict
	}
	if user.CreatedAt == 0 {
		user.CreatedAt = time.Now().Unix()
	}
	stored := *user
	u.s.users[user.ID] = &stored
	return nil
}

func (u userStore) GetByID(ctx context.Context, id string) (*store.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	stored, ok := u.s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	user := *stored
	return &user, nil
}

type orgStore struct{ s *Store }

func (o orgStore) AddMember(ctx context.Context, orgID, userID string, role models.Role) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()

	if o.s.members[orgID] == nil {
		o.s.members[orgID] = make(map[string]models.Role)
	}
	o.s.members[orgID][userID] = role
	return nil
}

func (o orgStore) IsMember(ctx context.Context, orgID, userID string) (bool, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()

	_, ok := o.s.members[orgID][userID]
	return ok, nil
}

type apiKeyStore struct{ s *Store }

func (k apiKeyStore) Create(ctx context.Context, key *store.APIKey) error {
	k.s.mu.Lock()
	defer k.s.mu.Unlock()

	if _, exists := k.s.apiKeys[key.KeyHash]; exists {
		return store.ErrConflict
	}
	if key.ID == "" {
		key.ID = uuid.New().String()
	}
	stored := *key
	k.s.apiKeys[key.KeyHash] = &stored
	return nil
}

func (k apiKeyStore) GetByHash(ctx context.Context, hash string) (*store.APIKey, error) {
	k.s.mu.RLock()
	defer k.s.mu.RUnlock()

	stored, ok := k.s.apiKeys[hash]
	if !ok {
		return nil, store.ErrNotFound
	}
	key := *stored
	return &key, nil
}

func copyApp(app *models.App) *models.App {
	c := *app
	c.Collaborators = slices.Clone(app.Collaborators)
	return &c
}
