package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"cepas/internal/domain/access"
	userdomain "cepas/internal/domain/user"
	"cepas/pkg/logger"
)

type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (userdomain.Identity, error)
}

type BearerAuth struct {
	auth Authenticator
	log  logger.Logger
}

type contextKey int

const identityKey contextKey = iota

func NewBearerAuth(auth Authenticator, log logger.Logger) *BearerAuth {
	return &BearerAuth{auth: auth, log: log}
}

// Middleware rejects requests without a valid access token of an active,
// unlocked user.
func (a *BearerAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeError(w, http.StatusUnauthorized, "auth_error", "missing bearer token", nil)
			return
		}

		identity, err := a.auth.Authenticate(r.Context(), token)
		if err != nil {
			if userdomain.IsAuthError(err) {
				a.log.BusinessError("auth: token rejected", err, "path", r.URL.Path)
				writeError(w, http.StatusUnauthorized, "auth_error", authMessage(err), err)
				return
			}
			a.log.InternalError("auth: authenticate failed", err, "path", r.URL.Path)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error", err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// RequireAccess lets the request through only when the policy allows the
// caller's role to perform action on resource.
func RequireAccess(policy *access.Policy, resource access.Resource, action access.Action, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "auth_error", "missing bearer token", nil)
				return
			}
			if !policy.Allows(identity.Role, resource, action) {
				log.BusinessError("auth: access denied", errForbidden,
					"user_id", identity.UserID, "role", identity.Role, "resource", resource, "action", action)
				writeError(w, http.StatusForbidden, "forbidden", "role not allowed for this action", errForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

var errForbidden = errors.New("forbidden")

func authMessage(err error) string {
	switch {
	case errors.Is(err, userdomain.ErrAccountInactive):
		return "account inactive"
	case errors.Is(err, userdomain.ErrAccountLocked):
		return "account temporarily locked"
	default:
		return "invalid or expired token"
	}
}

func bearerToken(value string) (string, bool) {
	parts := strings.Fields(value)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func WithIdentity(ctx context.Context, identity userdomain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFromContext(ctx context.Context) (userdomain.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(userdomain.Identity)
	if !ok || identity.UserID == 0 {
		return userdomain.Identity{}, false
	}
	return identity, true
}

func writeError(w http.ResponseWriter, status int, code, message string, err error) {
	body := map[string]string{
		"code":    code,
		"message": message,
	}
	if err != nil {
		body["error"] = err.Error()
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
