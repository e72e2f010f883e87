package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/narvanalabs/domain-registry/internal/api/errors"
	"github.com/narvanalabs/domain-registry/internal/auth"
	"github.com/narvanalabs/domain-registry/internal/domains"
	"github.com/narvanalabs/domain-registry/internal/events"
	"github.com/narvanalabs/domain-registry/internal/metrics"
	"github.com/narvanalabs/domain-registry/internal/models"
	"github.com/narvanalabs/domain-registry/internal/store"
	"github.com/narvanalabs/domain-registry/internal/store/memory"
	"github.com/narvanalabs/domain-registry/pkg/config"
)

type testEnv struct {
	server *Server
	auth   *auth.Service
	store  *memory.Store
	broker *events.Broker
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	cfg := config.LoadWithDefaults()

	st := memory.New()
	require.NoError(t, st.Apps().Create(ctx, &models.App{ID: "myapp", OrgID: "acme", OwnerID: "alice"}))
	require.NoError(t, st.Apps().Create(ctx, &models.App{ID: "otherapp", OwnerID: "dave"}))
	require.NoError(t, st.Users().Create(ctx, &store.User{ID: "alice", Email: "alice@example.com"}))
	require.NoError(t, st.Users().Create(ctx, &store.User{ID: "root", Email: "root@example.com", IsAdmin: true}))
	require.NoError(t, st.Orgs().AddMember(ctx, "acme", "carol", models.RoleMember))

	authSvc := auth.NewService(&auth.Config{JWTSecret: []byte(cfg.JWTSecret), TokenExpiry: time.Hour}, st.APIKeys(), st.Users(), nil)
	broker := events.NewBroker(nil)
	domainSvc := domains.New(st, auth.NewGate(st.Apps(), st.Orgs(), nil),
		domains.WithPublisher(broker),
		domains.WithMetrics(metrics.New(prometheus.NewRegistry())),
	)

	return &testEnv{
		server: NewServer(cfg, st, authSvc, domainSvc, broker, nil),
		auth:   authSvc,
		store:  st,
		broker: broker,
	}
}

func (e *testEnv) token(t *testing.T, userID string) string {
	t.Helper()
	token, err := e.auth.GenerateToken(userID, userID+"@example.com")
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+e.token(t, userID))
	}
	rr := httptest.NewRecorder()
	e.server.Router().ServeHTTP(rr, req)
	return rr
}

type listBody struct {
	Count   int              `json:"count"`
	Results []*models.Domain `json:"results"`
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v))
	return v
}

func TestDomainLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/v1/apps/myapp/domains", "alice", `{"domain":"Test-Domain.Example.com"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[map[string]any](t, rr)
	assert.Equal(t, "test-domain.example.com", created["domain"])
	assert.Equal(t, "myapp", created["app"])
	assert.Equal(t, "alice", created["owner"])
	for _, key := range []string{"uuid", "created", "updated"} {
		assert.Contains(t, created, key)
	}

	rr = env.do(t, http.MethodGet, "/v1/apps/myapp/domains", "alice", "")
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[listBody](t, rr)
	require.Equal(t, 2, list.Count)
	assert.Equal(t, "myapp", list.Results[0].Domain)
	assert.Equal(t, "test-domain.example.com", list.Results[1].Domain)

	rr = env.do(t, http.MethodDelete, "/v1/apps/myapp/domains/test-domain.example.com", "alice", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = env.do(t, http.MethodGet, "/v1/apps/myapp/domains", "alice", "")
	list = decode[listBody](t, rr)
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, "myapp", list.Results[0].Domain)
}

func TestDomainErrors(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/v1/apps/myapp/domains", "alice", `{"domain":"taken.example.com"}`).Code)

	tests := []struct {
		name   string
		method string
		path   string
		user   string
		body   string
		status int
		code   string
	}{
		{"invalid hostname", http.MethodPost, "/v1/apps/myapp/domains", "alice", `{"domain":"pass--sandbox.example.com"}`, http.StatusBadRequest, apierrors.CodeInvalidRequest},
		{"empty hostname", http.MethodPost, "/v1/apps/myapp/domains", "alice", `{}`, http.StatusBadRequest, apierrors.CodeInvalidRequest},
		{"malformed body", http.MethodPost, "/v1/apps/myapp/domains", "alice", `{"domain":`, http.StatusBadRequest, apierrors.CodeInvalidRequest},
		{"conflict", http.MethodPost, "/v1/apps/otherapp/domains", "root", `{"domain":"taken.example.com"}`, http.StatusConflict, apierrors.CodeConflict},
		{"missing app", http.MethodGet, "/v1/apps/ghost/domains", "alice", "", http.StatusNotFound, apierrors.CodeNotFound},
		{"hidden app", http.MethodGet, "/v1/apps/otherapp/domains", "alice", "", http.StatusNotFound, apierrors.CodeNotFound},
		{"org member create", http.MethodPost, "/v1/apps/myapp/domains", "carol", `{"domain":"carol.example.com"}`, http.StatusForbidden, apierrors.CodeForbidden},
		{"delete primary", http.MethodDelete, "/v1/apps/myapp/domains/myapp", "alice", "", http.StatusNotFound, apierrors.CodeNotFound},
		{"delete missing", http.MethodDelete, "/v1/apps/myapp/domains/missing.example.com", "alice", "", http.StatusNotFound, apierrors.CodeNotFound},
		{"unauthenticated", http.MethodGet, "/v1/apps/myapp/domains", "", "", http.StatusUnauthorized, apierrors.CodeUnauthorized},
		{"global list as user", http.MethodGet, "/v1/domains", "alice", "", http.StatusForbidden, apierrors.CodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, tt.method, tt.path, tt.user, tt.body)
			require.Equal(t, tt.status, rr.Code, rr.Body.String())
			body := decode[apierrors.APIError](t, rr)
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Message)
			assert.NotEmpty(t, body.RequestID)
		})
	}
}

func TestOrgMemberCanList(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodGet, "/v1/apps/myapp/domains", "carol", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAPIKeyAuthentication(t *testing.T) {
	env := newTestEnv(t)
	raw, err := auth.GenerateAPIKey()
	require.NoError(t, err)
	require.NoError(t, env.store.APIKeys().Create(context.Background(), &store.APIKey{UserID: "alice", KeyHash: auth.HashAPIKey(raw), Name: "ci"}))

	req := httptest.NewRequest(http.MethodGet, "/v1/apps/myapp/domains", nil)
	req.Header.Set("X-API-Key", raw)
	rr := httptest.NewRecorder()
	env.server.Router().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/apps/myapp/domains", nil)
	req.Header.Set("X-API-Key", "dom_wrong")
	rr = httptest.NewRecorder()
	env.server.Router().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminGlobalList(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/v1/apps/otherapp/domains", "root", `{"domain":"b.example.com"}`).Code)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/v1/apps/myapp/domains", "alice", `{"domain":"*.a.example.com"}`).Code)

	rr := env.do(t, http.MethodGet, "/v1/domains", "root", "")
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[listBody](t, rr)
	require.Equal(t, 2, list.Count)
	assert.Equal(t, "*.a.example.com", list.Results[0].Domain)
	assert.Equal(t, "b.example.com", list.Results[1].Domain)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"database"`)

	rr = env.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestWatchStreamsChanges(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.server.Router())
	defer srv.Close()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+env.token(t, "root"))
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/domains/watch?app=myapp"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.Eventually(t, func() bool { return env.broker.SubscriberCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/v1/apps/otherapp/domains", "root", `{"domain":"skip.example.com"}`).Code)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/v1/apps/myapp/domains", "alice", `{"domain":"watched.example.com"}`).Code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event events.Event
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, events.DomainCreated, event.Type)
	assert.Equal(t, "myapp", event.App)
	assert.Equal(t, "watched.example.com", event.Domain)
}

func TestWatchRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodGet, "/v1/domains/watch", "alice", "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
}
