package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/user-console/internal/config"
	"github.com/spec-kit/user-console/internal/domain"
	"github.com/spec-kit/user-console/internal/remote"
	"github.com/spec-kit/user-console/internal/session"
)

func signToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": exp.Unix(),
	}).SignedString([]byte("remote-api-secret"))
	require.NoError(t, err)
	return token
}

func newSession(t *testing.T, server *httptest.Server) *session.Session {
	t.Helper()
	sess := &session.Session{
		ID:       "test-session",
		Store:    session.NewStore(),
		Identity: session.NewIdentityStore(),
	}
	sess.Remote = remote.NewClient(remote.ClientOptions{
		Config: config.APIConfig{
			BaseURL:               server.URL,
			RequestTimeoutSeconds: 10,
			RefreshTimeoutSeconds: 5,
		},
		Store:    sess.Store,
		Identity: sess.Identity,
	})
	return sess
}

func userJSON(role string) string {
	return fmt.Sprintf(`{
		"id": "1",
		"name": "Ana",
		"email": "ana@example.com",
		"role": %q,
		"created_at": "2024-01-01T00:00:00Z",
		"updated_at": null,
		"last_login_at": null
	}`, role)
}

func jsonResponse(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestRestoreWithoutCredentialOrCookie(t *testing.T) {
	// Scenario: fresh browser, nothing to renew with.
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusUnauthorized, `{"message":"no refresh session"}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	sess := newSession(t, server)
	svc := NewAuthService(nil, nil)

	credential, ok := svc.Restore(context.Background(), sess)
	assert.False(t, ok)
	assert.Empty(t, credential)
	_, held := sess.Identity.Get()
	assert.False(t, held)
}

func TestRestoreWithUnexpiredCredential(t *testing.T) {
	token := signToken(t, time.Now().Add(time.Hour))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+token, r.Header.Get("Authorization"))
		jsonResponse(w, http.StatusOK, userJSON("user"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	sess := newSession(t, server)
	sess.Store.Set(token)
	svc := NewAuthService(nil, nil)

	credential, ok := svc.Restore(context.Background(), sess)
	require.True(t, ok)
	assert.Equal(t, token, credential, "the already-held credential is returned untouched")

	identity, held := sess.Identity.Get()
	require.True(t, held)
	assert.Equal(t, "Ana", identity.Name)
	assert.Equal(t, domain.RoleUser, identity.Role)
}

func TestRestoreRenewsExpiredCredential(t *testing.T) {
	expired := signToken(t, time.Now().Add(-time.Hour))
	renewed := signToken(t, time.Now().Add(time.Hour))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, fmt.Sprintf(`{"access_token":%q}`, renewed))
	})
	mux.HandleFunc("GET /users/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+renewed, r.Header.Get("Authorization"))
		jsonResponse(w, http.StatusOK, userJSON("admin"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	sess := newSession(t, server)
	sess.Store.Set(expired)
	svc := NewAuthService(nil, nil)

	credential, ok := svc.Restore(context.Background(), sess)
	require.True(t, ok)
	assert.Equal(t, renewed, credential)

	identity, held := sess.Identity.Get()
	require.True(t, held)
	assert.True(t, identity.IsAdmin())
}

func TestRestoreIdentityFetchFailureDiscardsCredential(t *testing.T) {
	token := signToken(t, time.Now().Add(time.Hour))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/me", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusInternalServerError, `{"message":"boom"}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	sess := newSession(t, server)
	sess.Store.Set(token)
	svc := NewAuthService(nil, nil)

	credential, ok := svc.Restore(context.Background(), sess)
	assert.False(t, ok)
	assert.Empty(t, credential)
	_, held := sess.Store.Get()
	assert.False(t, held, "a credential the API rejects is discarded")
}

func TestRestoreAlwaysSettles(t *testing.T) {
	// A dead endpoint must still produce a definitive outcome, repeatedly.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusBadGateway, `{}`)
	}))
	defer server.Close()

	sess := newSession(t, server)
	svc := NewAuthService(nil, nil)

	for i := 0; i < 3; i++ {
		credential, ok := svc.Restore(context.Background(), sess)
		assert.False(t, ok)
		assert.Empty(t, credential)
	}
}

func TestLoginPopulatesBothStores(t *testing.T) {
	token := signToken(t, time.Now().Add(time.Hour))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, fmt.Sprintf(`{"access_token":%q,"user":%s}`, token, userJSON("admin")))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	sess := newSession(t, server)
	svc := NewAuthService(nil, nil)

	user, err := svc.Login(context.Background(), sess, "ana@example.com", "secret123")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin())

	stored, ok := sess.Store.Get()
	require.True(t, ok)
	assert.Equal(t, token, stored)
	identity, ok := sess.Identity.Get()
	require.True(t, ok)
	assert.Equal(t, user.ID, identity.ID)
}

func TestLoginFailureLeavesStoresEmpty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusUnauthorized, `{"error":{"code":"INVALID_CREDENTIALS","message":"nope"}}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	sess := newSession(t, server)
	svc := NewAuthService(nil, nil)

	_, err := svc.Login(context.Background(), sess, "ana@example.com", "wrong")
	require.Error(t, err)

	_, ok := sess.Store.Get()
	assert.False(t, ok)
	_, ok = sess.Identity.Get()
	assert.False(t, ok)
}

func TestLogoutClearsStateEvenWhenRemoteFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusInternalServerError, `{}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	sess := newSession(t, server)
	sess.Store.Set(signToken(t, time.Now().Add(time.Hour)))
	sess.Identity.Set(domain.User{ID: "1", Name: "Ana", Role: domain.RoleUser})
	svc := NewAuthService(nil, nil)

	svc.Logout(context.Background(), sess)

	_, ok := sess.Store.Get()
	assert.False(t, ok)
	_, ok = sess.Identity.Get()
	assert.False(t, ok)
}
