package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/user-console/internal/auth"
	"github.com/spec-kit/user-console/internal/domain"
	"github.com/spec-kit/user-console/internal/events"
	"github.com/spec-kit/user-console/internal/session"
)

// AuthService coordinates login, logout and session restoration flows.
type AuthService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService builds the service.
func NewAuthService(dispatcher events.Dispatcher, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Login authenticates against the remote API and populates both stores.
func (s *AuthService) Login(ctx context.Context, sess *session.Session, email, password string) (domain.User, error) {
	res, err := sess.Remote.Login(ctx, email, password)
	if err != nil {
		return domain.User{}, err
	}

	sess.Store.Set(res.AccessToken)
	user := res.User.ToDomain()
	sess.Identity.Set(user)

	s.publish(ctx, events.Event{
		Type:      events.EventUserLoggedIn,
		SessionID: sess.ID,
		UserID:    user.ID,
	})
	return user, nil
}

// Register creates a new account. Registration does not authenticate; the
// user logs in afterwards.
func (s *AuthService) Register(ctx context.Context, sess *session.Session, name, email, password string) (domain.User, error) {
	res, err := sess.Remote.Register(ctx, name, email, password)
	if err != nil {
		return domain.User{}, err
	}

	user := res.ToDomain()
	s.publish(ctx, events.Event{
		Type:      events.EventUserRegistered,
		SessionID: sess.ID,
		UserID:    user.ID,
	})
	return user, nil
}

// Logout ends the browsing session. The remote call is best-effort; local
// state is cleared regardless of its outcome.
func (s *AuthService) Logout(ctx context.Context, sess *session.Session) {
	userID := ""
	if identity, ok := sess.Identity.Get(); ok {
		userID = identity.ID
	}

	if err := sess.Remote.Logout(ctx); err != nil {
		s.logger.Debug("remote logout failed", zap.Error(err))
	}
	sess.Clear()

	s.publish(ctx, events.Event{
		Type:      events.EventUserLoggedOut,
		SessionID: sess.ID,
		UserID:    userID,
	})
}

// Restore reconciles the session's credential state with the remote API and
// populates the identity store. It always settles to a definitive outcome:
// the valid credential and true, or empty and false. It never returns an
// error and writes neither the initialized flag nor the final store state;
// applying the outcome belongs to the caller.
func (s *AuthService) Restore(ctx context.Context, sess *session.Session) (credential string, ok bool) {
	// Restoration runs during bootstrap; a panic here must settle to
	// "not authenticated" instead of taking the request down.
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("restoration panicked", zap.Any("panic", r))
			sess.Store.Clear()
			credential, ok = "", false
		}
	}()

	if stored, held := sess.Store.Get(); held && !auth.IsExpired(stored, s.now()) {
		if s.fetchIdentity(ctx, sess) {
			return stored, true
		}
		sess.Store.Clear()
		return "", false
	}

	// Renewal goes through the gateway's coordinator, so a restoration
	// renewal and a concurrent request renewal collapse into one call.
	renewed, err := sess.Remote.Gateway().Renew(ctx)
	if err != nil {
		sess.Store.Clear()
		return "", false
	}
	if !s.fetchIdentity(ctx, sess) {
		sess.Store.Clear()
		return "", false
	}
	return renewed, true
}

// fetchIdentity loads /users/me into the identity store.
func (s *AuthService) fetchIdentity(ctx context.Context, sess *session.Session) bool {
	me, err := sess.Remote.Me(ctx)
	if err != nil {
		s.logger.Debug("identity fetch failed", zap.Error(err))
		return false
	}
	user := me.ToDomain()
	sess.Identity.Set(user)

	s.publish(ctx, events.Event{
		Type:      events.EventSessionRestored,
		SessionID: sess.ID,
		UserID:    user.ID,
	})
	return true
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
