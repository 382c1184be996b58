package auth

import "github.com/spec-kit/user-console/internal/domain"

// Decision is the outcome of a route guard evaluation.
type Decision int

const (
	// DecisionAllow renders the requested destination.
	DecisionAllow Decision = iota
	// DecisionLogin redirects to the login destination.
	DecisionLogin
	// DecisionUnauthorized redirects to the unauthorized destination.
	DecisionUnauthorized
)

// Decide evaluates the route guard for one navigation. It is a pure function
// of the current credential, identity and the destination's required role
// (empty required means any authenticated role is acceptable).
//
// A missing credential or identity always wins over a role mismatch: the
// caller must authenticate before authorization is even considered.
func Decide(credential string, identity *domain.User, required domain.Role) Decision {
	if credential == "" || identity == nil {
		return DecisionLogin
	}
	if required != "" && identity.Role != required {
		return DecisionUnauthorized
	}
	return DecisionAllow
}

// SafeReturnTarget constrains a post-login return destination to same-site
// relative paths. Absolute URLs, scheme-relative forms ("//host", "/\host")
// and anything else that could navigate off-site fall back to the root
// dispatcher.
func SafeReturnTarget(target string) string {
	if len(target) == 0 || target[0] != '/' {
		return "/"
	}
	if len(target) > 1 && (target[1] == '/' || target[1] == '\\') {
		return "/"
	}
	return target
}
