package http

import (
	"context"
	"errors"
	"net/url"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/user-console/internal/auth"
	"github.com/spec-kit/user-console/internal/domain"
	"github.com/spec-kit/user-console/internal/observability"
	"github.com/spec-kit/user-console/internal/remote"
	"github.com/spec-kit/user-console/internal/service"
	"github.com/spec-kit/user-console/internal/session"
	apperrors "github.com/spec-kit/user-console/pkg/util"
)

const sessionKey = session.LocalsKey

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
	app.Use(observability.RequestLogger(logger, metrics))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err == nil {
				return
			}
			// A failed silent renewal means the session is gone; the only
			// acceptable outcome is landing on the login page.
			if errors.Is(err, remote.ErrSessionExpired) {
				err = c.Redirect(loginPath, fiber.StatusFound)
				return
			}
			domainErr := apperrors.ToDomainError(err)
			if metrics != nil {
				metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
			}
			response := fiber.Map{"error": fiber.Map{
				"code":    domainErr.Code,
				"message": domainErr.Message,
			}}
			if len(domainErr.Details) > 0 {
				response["error"].(fiber.Map)["details"] = domainErr.Details
			}
			if domainErr.HTTPStatus >= 500 {
				logger.Error("request failed", zap.Error(domainErr))
			}
			c.Status(domainErr.HTTPStatus)
			_ = c.JSON(response)
			err = nil
		}()
		return c.Next()
	}
}

// SessionMiddleware resolves the browser session for every request, creating
// one on first contact, and runs session restoration exactly once per
// session before any route logic sees it.
func SessionMiddleware(registry *session.Registry, cookieName string, cookieTTL time.Duration, authService *service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, ok := registry.Get(c.Cookies(cookieName))
		if !ok {
			sess = registry.Create()
			c.Cookie(&fiber.Cookie{
				Name:     cookieName,
				Value:    sess.ID,
				HTTPOnly: true,
				SameSite: fiber.CookieSameSiteLaxMode,
				Expires:  time.Now().Add(cookieTTL),
			})
		}

		if !sess.Store.Initialized() {
			credential, restored := authService.Restore(c.UserContext(), sess)
			if restored {
				sess.Store.Set(credential)
			} else {
				sess.Clear()
			}
			sess.Store.MarkInitialized()
		}

		c.Locals(sessionKey, sess)
		return c.Next()
	}
}

// SessionFromContext retrieves the browsing session placed by SessionMiddleware.
func SessionFromContext(c *fiber.Ctx) (*session.Session, bool) {
	val := c.Locals(sessionKey)
	if val == nil {
		return nil, false
	}
	sess, ok := val.(*session.Session)
	return sess, ok
}

// Require guards a destination with the route guard. An empty role admits
// any authenticated identity. The decision is computed fresh on every
// navigation, so a credential cleared mid-session takes effect on the next
// request.
func Require(required domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, ok := SessionFromContext(c)
		if !ok {
			return c.Redirect(loginPath, fiber.StatusFound)
		}

		credential, _ := sess.Store.Get()
		var identity *domain.User
		if u, held := sess.Identity.Get(); held {
			identity = &u
		}

		switch auth.Decide(credential, identity, required) {
		case auth.DecisionLogin:
			// Remember where the user was headed for post-login return.
			from := auth.SafeReturnTarget(c.OriginalURL())
			return c.Redirect(loginPath+"?from="+url.QueryEscape(from), fiber.StatusFound)
		case auth.DecisionUnauthorized:
			return c.Redirect(unauthorizedPath, fiber.StatusFound)
		}
		return c.Next()
	}
}
