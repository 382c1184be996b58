package session

import (
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/spec-kit/user-console/internal/config"
	"github.com/spec-kit/user-console/internal/events"
	"github.com/spec-kit/user-console/internal/observability"
	"github.com/spec-kit/user-console/internal/remote"
)

// LocalsKey is where the transport layer parks the resolved session for the
// duration of one request.
const LocalsKey = "console_session"

// Session bundles the per-browser state: the credential store, the identity
// store, and a dedicated remote API client whose cookie jar carries the
// refresh cookie for this browser only.
type Session struct {
	ID       string
	Store    *Store
	Identity *IdentityStore
	Remote   *remote.Client
}

// Clear drops both stores together. Every logout/expiry path goes through
// here so the two stores never diverge.
func (s *Session) Clear() {
	s.Store.Clear()
	s.Identity.Clear()
}

// RegistryOptions bundles registry dependencies.
type RegistryOptions struct {
	Session    config.SessionConfig
	API        config.APIConfig
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Now        func() time.Time
}

// Registry tracks live browser sessions in memory. Entries expire after the
// configured TTL; credentials never outlive the process.
type Registry struct {
	cache *gocache.Cache
	opts  RegistryOptions
}

// NewRegistry creates the session registry.
func NewRegistry(opts RegistryOptions) *Registry {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	ttl := opts.Session.TTL()
	return &Registry{
		cache: gocache.New(ttl, ttl/2),
		opts:  opts,
	}
}

// Get looks up a session by ID, extending its lifetime on hit.
func (r *Registry) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	val, ok := r.cache.Get(id)
	if !ok {
		return nil, false
	}
	sess := val.(*Session)
	r.cache.SetDefault(id, sess)
	return sess, true
}

// Create builds a fresh session with its own stores and API client.
func (r *Registry) Create() *Session {
	sess := &Session{
		ID:       uuid.NewString(),
		Store:    NewStore(),
		Identity: NewIdentityStore(),
	}
	sess.Remote = remote.NewClient(remote.ClientOptions{
		Config:     r.opts.API,
		Store:      sess.Store,
		Identity:   sess.Identity,
		Dispatcher: r.opts.Dispatcher,
		Metrics:    r.opts.Metrics,
		Logger:     r.opts.Logger,
		SessionID:  sess.ID,
		Now:        r.opts.Now,
	})
	r.cache.SetDefault(sess.ID, sess)
	r.opts.Logger.Debug("session created", zap.String("session_id", sess.ID))
	return sess
}

// Drop removes a session from the registry.
func (r *Registry) Drop(id string) {
	r.cache.Delete(id)
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	return r.cache.ItemCount()
}
