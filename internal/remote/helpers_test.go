package remote_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/user-console/internal/config"
	"github.com/spec-kit/user-console/internal/events"
	"github.com/spec-kit/user-console/internal/observability"
	"github.com/spec-kit/user-console/internal/remote"
	"github.com/spec-kit/user-console/internal/session"
)

func tokenExpiringAt(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": exp.Unix(),
	}).SignedString([]byte("remote-api-secret"))
	require.NoError(t, err)
	return token
}

func freshToken(t *testing.T) string {
	return tokenExpiringAt(t, time.Now().Add(time.Hour))
}

func expiredToken(t *testing.T) string {
	return tokenExpiringAt(t, time.Now().Add(-time.Hour))
}

type testSession struct {
	store    *session.Store
	identity *session.IdentityStore
	client   *remote.Client
}

func newTestSession(t *testing.T, server *httptest.Server) *testSession {
	return newTestSessionWithRefreshTimeout(t, server, 5)
}

func newTestSessionWithObservers(t *testing.T, server *httptest.Server, dispatcher events.Dispatcher, metrics *observability.Metrics) *testSession {
	t.Helper()
	store := session.NewStore()
	identity := session.NewIdentityStore()
	client := remote.NewClient(remote.ClientOptions{
		Config: config.APIConfig{
			BaseURL:               server.URL,
			RequestTimeoutSeconds: 10,
			RefreshTimeoutSeconds: 5,
		},
		Store:      store,
		Identity:   identity,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		SessionID:  "test-session",
	})
	return &testSession{store: store, identity: identity, client: client}
}

func newTestSessionWithRefreshTimeout(t *testing.T, server *httptest.Server, refreshTimeoutSeconds int) *testSession {
	t.Helper()
	store := session.NewStore()
	identity := session.NewIdentityStore()
	client := remote.NewClient(remote.ClientOptions{
		Config: config.APIConfig{
			BaseURL:               server.URL,
			RequestTimeoutSeconds: 10,
			RefreshTimeoutSeconds: refreshTimeoutSeconds,
		},
		Store:    store,
		Identity: identity,
	})
	return &testSession{store: store, identity: identity, client: client}
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write([]byte(body))
	require.NoError(t, err)
}

const anaJSON = `{
	"id": "1",
	"name": "Ana",
	"email": "ana@example.com",
	"role": "user",
	"created_at": "2024-01-01T00:00:00Z",
	"updated_at": null,
	"last_login_at": "2025-05-20T10:00:00Z"
}`
