package remote

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spec-kit/user-console/internal/auth"
	"github.com/spec-kit/user-console/internal/events"
	"github.com/spec-kit/user-console/internal/observability"
)

// CredentialStore is the slice of session state the gateway reads and writes.
type CredentialStore interface {
	Get() (string, bool)
	Set(credential string)
	Clear()
}

// IdentityClearer lets the gateway drop the identity when renewal fails.
type IdentityClearer interface {
	Clear()
}

// Gateway is an http.RoundTripper that guarantees every outgoing call
// carries a currently valid credential, renewing it transparently when the
// stored one is missing or expired.
//
// Renewal is single-flight: concurrent requests that observe an expired
// credential share one renewal network call and all proceed with (or fail
// on) its outcome.
type Gateway struct {
	base         http.RoundTripper
	store        CredentialStore
	identity     IdentityClearer
	renew        func(ctx context.Context) (string, error)
	renewTimeout time.Duration
	now          func() time.Time
	sf           singleflight.Group
	dispatcher   events.Dispatcher
	metrics      *observability.Metrics
	logger       *zap.Logger
	sessionID    string
}

// GatewayOptions bundles gateway dependencies.
type GatewayOptions struct {
	Base         http.RoundTripper
	Store        CredentialStore
	Identity     IdentityClearer
	Renew        func(ctx context.Context) (string, error)
	RenewTimeout time.Duration
	Now          func() time.Time
	Dispatcher   events.Dispatcher
	Metrics      *observability.Metrics
	Logger       *zap.Logger
	SessionID    string
}

// NewGateway builds the authenticated transport.
func NewGateway(opts GatewayOptions) *Gateway {
	base := opts.Base
	if base == nil {
		base = http.DefaultTransport
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	renewTimeout := opts.RenewTimeout
	if renewTimeout <= 0 {
		renewTimeout = 10 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		base:         base,
		store:        opts.Store,
		identity:     opts.Identity,
		renew:        opts.Renew,
		renewTimeout: renewTimeout,
		now:          now,
		dispatcher:   opts.Dispatcher,
		metrics:      opts.Metrics,
		logger:       logger,
		sessionID:    opts.SessionID,
	}
}

// RoundTrip attaches the current credential, renewing it first when needed.
func (g *Gateway) RoundTrip(req *http.Request) (*http.Response, error) {
	credential, ok := g.store.Get()
	if !ok || auth.IsExpired(credential, g.now()) {
		renewed, err := g.Renew(req.Context())
		if err != nil {
			return nil, err
		}
		credential = renewed
	}

	// RoundTrippers must not mutate the caller's request.
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+credential)
	return g.base.RoundTrip(clone)
}

// Renew obtains a fresh credential through the single-flight coordinator and
// stores it. On failure it clears both the credential and identity stores and
// returns ErrSessionExpired; every concurrent waiter observes the same
// outcome.
func (g *Gateway) Renew(ctx context.Context) (string, error) {
	credential, err, _ := g.sf.Do("renew", func() (interface{}, error) {
		// A failed bootstrap renewal for a browser that never held a
		// credential is the normal anonymous case, not a session expiry.
		_, hadCredential := g.store.Get()

		// The flight outlives any single caller, so it runs on its own
		// deadline instead of the first caller's context.
		renewCtx, cancel := context.WithTimeout(context.Background(), g.renewTimeout)
		defer cancel()

		token, err := g.renew(renewCtx)
		if err == nil && token == "" {
			err = fmt.Errorf("renewal returned empty credential")
		}
		if err != nil {
			g.store.Clear()
			g.identity.Clear()
			if !hadCredential {
				g.logger.Debug("anonymous bootstrap renewal failed", zap.Error(err))
				return "", fmt.Errorf("%w: %v", ErrSessionExpired, err)
			}
			g.metrics.RecordRenewal(false)
			g.logger.Warn("credential renewal failed", zap.Error(err))
			if g.dispatcher != nil {
				_ = g.dispatcher.Publish(ctx, events.Event{
					Type:      events.EventSessionExpired,
					SessionID: g.sessionID,
					Payload:   events.SessionExpiredPayload{Reason: err.Error()},
				})
			}
			return "", fmt.Errorf("%w: %v", ErrSessionExpired, err)
		}

		g.metrics.RecordRenewal(true)
		g.store.Set(token)
		if g.dispatcher != nil {
			_ = g.dispatcher.Publish(ctx, events.Event{
				Type:      events.EventCredentialRenewed,
				SessionID: g.sessionID,
			})
		}
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return credential.(string), nil
}
