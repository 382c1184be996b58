package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/user-console/internal/domain"
	"github.com/spec-kit/user-console/internal/events"
	"github.com/spec-kit/user-console/internal/remote"
	"github.com/spec-kit/user-console/internal/session"
	apperrors "github.com/spec-kit/user-console/pkg/util"
)

// Listing filter values accepted by the dashboard.
const (
	FilterAll       = "all"
	FilterAdmins    = "admin"
	FilterUsers     = "user"
	FilterInactives = "inactives"
)

// ListRequest carries dashboard listing parameters before normalization.
type ListRequest struct {
	Page   int
	Limit  int
	SortBy string
	Order  string
	Filter string
	Search string
}

// UserService handles profile and user-administration operations.
type UserService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewUserService builds the service.
func NewUserService(dispatcher events.Dispatcher, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{dispatcher: dispatcher, logger: logger}
}

// UpdateProfile changes the authenticated user's display name and merges the
// result into the identity store.
func (s *UserService) UpdateProfile(ctx context.Context, sess *session.Session, name string) (domain.User, error) {
	if name == "" {
		return domain.User{}, apperrors.NewValidationError("name must not be empty", nil)
	}

	updated, err := sess.Remote.UpdateMe(ctx, name)
	if err != nil {
		return domain.User{}, err
	}

	user := updated.ToDomain()
	patch := domain.UserPatch{Name: &user.Name, UpdatedAt: user.UpdatedAt}
	if mergeErr := sess.Identity.Update(patch); mergeErr != nil {
		// No identity to merge into; adopt the authoritative record.
		sess.Identity.Set(user)
	}

	s.publish(ctx, events.Event{
		Type:      events.EventProfileUpdated,
		SessionID: sess.ID,
		UserID:    user.ID,
		Payload:   events.ProfileUpdatedPayload{Name: user.Name},
	})
	return user, nil
}

// ChangePassword updates the authenticated user's password.
func (s *UserService) ChangePassword(ctx context.Context, sess *session.Session, password string) error {
	if len(password) < 8 {
		return apperrors.NewValidationError("password must be at least 8 characters", nil)
	}
	return sess.Remote.UpdatePassword(ctx, password)
}

// ListUsers fetches one dashboard page. The "inactives" filter switches to
// the dedicated inactive-user listing, which supports pagination only.
func (s *UserService) ListUsers(ctx context.Context, sess *session.Session, req ListRequest) (*remote.UserPage, error) {
	req = normalizeListRequest(req)

	if req.Filter == FilterInactives {
		return sess.Remote.ListInactiveUsers(ctx, req.Page, req.Limit)
	}

	query := remote.ListQuery{
		Page:   req.Page,
		Limit:  req.Limit,
		SortBy: req.SortBy,
		Order:  req.Order,
		Search: req.Search,
	}
	if req.Filter == FilterAdmins || req.Filter == FilterUsers {
		query.Role = req.Filter
	}
	return sess.Remote.ListUsers(ctx, query)
}

// DeleteUser removes an account. Admins cannot delete themselves.
func (s *UserService) DeleteUser(ctx context.Context, sess *session.Session, id string) error {
	if id == "" {
		return apperrors.NewValidationError("user id required", nil)
	}
	if identity, ok := sess.Identity.Get(); ok && identity.ID == id {
		return apperrors.NewValidationError("cannot delete the signed-in account", nil)
	}

	if err := sess.Remote.DeleteUser(ctx, id); err != nil {
		return err
	}

	actorID := ""
	if identity, ok := sess.Identity.Get(); ok {
		actorID = identity.ID
	}
	s.publish(ctx, events.Event{
		Type:      events.EventUserDeleted,
		SessionID: sess.ID,
		UserID:    actorID,
		Payload:   events.UserDeletedPayload{DeletedUserID: id},
	})
	return nil
}

func (s *UserService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func normalizeListRequest(req ListRequest) ListRequest {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 10
	}
	switch req.SortBy {
	case "name", "createdAt":
	default:
		req.SortBy = "name"
	}
	switch req.Order {
	case "asc", "desc":
	default:
		req.Order = "asc"
	}
	switch req.Filter {
	case FilterAll, FilterAdmins, FilterUsers, FilterInactives:
	default:
		req.Filter = FilterAll
	}
	return req
}
