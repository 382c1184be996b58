package remote_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/user-console/internal/domain"
	"github.com/spec-kit/user-console/internal/events"
	"github.com/spec-kit/user-console/internal/observability"
	"github.com/spec-kit/user-console/internal/remote"
)

func TestGatewayAttachesValidCredential(t *testing.T) {
	var refreshCalls int32
	token := freshToken(t)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		writeJSON(t, w, http.StatusOK, `{"access_token":"should-not-happen"}`)
	})
	mux.HandleFunc("GET /users/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+token, r.Header.Get("Authorization"))
		writeJSON(t, w, http.StatusOK, anaJSON)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	sess := newTestSession(t, server)
	sess.store.Set(token)

	user, err := sess.client.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ana", user.Name)
	assert.Zero(t, atomic.LoadInt32(&refreshCalls), "an unexpired credential must not trigger renewal")
}

func TestGatewayRenewsExpiredCredential(t *testing.T) {
	renewed := freshToken(t)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, fmt.Sprintf(`{"access_token":%q}`, renewed))
	})
	mux.HandleFunc("GET /users/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+renewed, r.Header.Get("Authorization"))
		writeJSON(t, w, http.StatusOK, anaJSON)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	sess := newTestSession(t, server)
	sess.store.Set(expiredToken(t))

	_, err := sess.client.Me(context.Background())
	require.NoError(t, err)

	stored, ok := sess.store.Get()
	require.True(t, ok)
	assert.Equal(t, renewed, stored, "the renewed credential replaces the expired one")
}

func TestGatewayRenewsMissingCredential(t *testing.T) {
	renewed := freshToken(t)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, fmt.Sprintf(`{"access_token":%q}`, renewed))
	})
	mux.HandleFunc("GET /users/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+renewed, r.Header.Get("Authorization"))
		writeJSON(t, w, http.StatusOK, anaJSON)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	sess := newTestSession(t, server)

	_, err := sess.client.Me(context.Background())
	require.NoError(t, err)
}

func TestGatewayRenewalIsSingleFlight(t *testing.T) {
	const callers = 8
	var refreshCalls int32
	renewed := freshToken(t)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		time.Sleep(100 * time.Millisecond) // hold the flight open so callers pile up
		writeJSON(t, w, http.StatusOK, fmt.Sprintf(`{"access_token":%q}`, renewed))
	})
	mux.HandleFunc("GET /users/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+renewed, r.Header.Get("Authorization"))
		writeJSON(t, w, http.StatusOK, anaJSON)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	sess := newTestSession(t, server)
	sess.store.Set(expiredToken(t))

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = sess.client.Me(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "caller %d", i)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls),
		"concurrent callers must share one renewal network call")

	stored, ok := sess.store.Get()
	require.True(t, ok)
	assert.Equal(t, renewed, stored)
}

func TestGatewayRenewalFailureClearsSession(t *testing.T) {
	const callers = 4
	var refreshCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		time.Sleep(50 * time.Millisecond)
		writeJSON(t, w, http.StatusUnauthorized, `{"error":{"code":"REFRESH_EXPIRED","message":"refresh session expired"}}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	sess := newTestSession(t, server)
	sess.store.Set(expiredToken(t))
	sess.identity.Set(domain.User{ID: "1", Name: "Ana", Role: domain.RoleUser})

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = sess.client.Me(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.ErrorIs(t, err, remote.ErrSessionExpired, "caller %d", i)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls),
		"waiters share the failed flight instead of hanging or retrying")

	_, ok := sess.store.Get()
	assert.False(t, ok, "credential store cleared on renewal failure")
	_, ok = sess.identity.Get()
	assert.False(t, ok, "identity store cleared on renewal failure")
}

func TestGatewayExpiredCredentialFailurePublishesAndCounts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, `{"message":"refresh session expired"}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	dispatcher := events.NewInMemoryDispatcher()
	var expiredEvents int32
	dispatcher.Subscribe(events.EventSessionExpired, func(context.Context, events.Event) error {
		atomic.AddInt32(&expiredEvents, 1)
		return nil
	})
	metrics := observability.NewMetrics()

	sess := newTestSessionWithObservers(t, server, dispatcher, metrics)
	sess.store.Set(expiredToken(t))

	_, err := sess.client.Me(context.Background())
	require.ErrorIs(t, err, remote.ErrSessionExpired)

	assert.Equal(t, int32(1), atomic.LoadInt32(&expiredEvents))
	attempted, failed := metrics.RenewalCounts()
	assert.EqualValues(t, 1, attempted)
	assert.EqualValues(t, 1, failed)
}

func TestGatewayAnonymousBootstrapFailureIsQuiet(t *testing.T) {
	// A logged-out browser's first visit has nothing to renew with; the
	// inevitable refresh failure is not a session expiry.
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, `{"message":"no refresh session"}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	dispatcher := events.NewInMemoryDispatcher()
	var expiredEvents int32
	dispatcher.Subscribe(events.EventSessionExpired, func(context.Context, events.Event) error {
		atomic.AddInt32(&expiredEvents, 1)
		return nil
	})
	metrics := observability.NewMetrics()

	sess := newTestSessionWithObservers(t, server, dispatcher, metrics)

	_, err := sess.client.Me(context.Background())
	require.ErrorIs(t, err, remote.ErrSessionExpired)

	assert.Zero(t, atomic.LoadInt32(&expiredEvents), "no credential was ever held, so nothing expired")
	attempted, failed := metrics.RenewalCounts()
	assert.Zero(t, attempted)
	assert.Zero(t, failed)
}

func TestGatewayRenewalEmptyTokenIsFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, `{"access_token":""}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	sess := newTestSession(t, server)

	_, err := sess.client.Me(context.Background())
	assert.ErrorIs(t, err, remote.ErrSessionExpired)
}

func TestGatewayRenewalTimesOut(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		// Stall until the caller gives up.
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	sess := newTestSessionWithRefreshTimeout(t, server, 1)
	sess.store.Set(expiredToken(t))

	start := time.Now()
	_, err := sess.client.Me(context.Background())
	assert.ErrorIs(t, err, remote.ErrSessionExpired)
	assert.Less(t, time.Since(start), 3*time.Second,
		"a stalled renewal must fail by deadline instead of waiting forever")
}
