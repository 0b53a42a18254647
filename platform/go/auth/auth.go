package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenGate-Global/palmyra-org-admin/platform/go/httpjson"
	platformlogging "github.com/zenGate-Global/palmyra-org-admin/platform/go/logging"
)

type ctxKey string

const (
	ctxPrincipal ctxKey = "PALMYRA_ADMIN_PRINCIPAL"
)

// RoleAdmin is the role of an organization's owning identity.
const RoleAdmin = "admin"

// ErrUnknownPrincipal is returned by resolvers when the token's identity no longer exists.
var ErrUnknownPrincipal = errors.New("principal not found")

// Principal is the authenticated admin identity attached to the request context.
type Principal struct {
	UserID  uuid.UUID
	Email   string
	Role    string
	OrgID   uuid.UUID
	OrgName string
}

// PrincipalFromContext returns the principal set by Gate, if any.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	v := ctx.Value(ctxPrincipal)
	if v == nil {
		return nil, false
	}
	p, ok := v.(*Principal)
	return p, ok && p != nil
}

// WithPrincipal stores p on the context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxPrincipal, p)
}

// Verifier validates a raw bearer token.
type Verifier interface {
	Verify(token string) (*Claims, error)
}

// PrincipalResolver loads the current identity for a verified token subject.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, userID uuid.UUID) (*Principal, error)
}

// Gate requires a valid bearer token whose identity still exists. Every request is verified
// independently; nothing is cached between requests.
func Gate(verifier Verifier, resolver PrincipalResolver) func(http.Handler) http.Handler {
	if verifier == nil {
		panic("auth.Gate: verifier must not be nil")
	}
	if resolver == nil {
		panic("auth.Gate: resolver must not be nil")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			token, found := ExtractJWTToken(r)
			if !found {
				unauthorized(w, "invalid_request", "Missing or invalid authorization header")
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				unauthorized(w, "invalid_token", "Invalid or expired token")
				return
			}

			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				unauthorized(w, "invalid_token", "Invalid or expired token")
				return
			}

			principal, err := resolver.ResolvePrincipal(r.Context(), userID)
			if err != nil {
				if errors.Is(err, ErrUnknownPrincipal) {
					unauthorized(w, "invalid_token", "User not found")
					return
				}
				platformlogging.FromRequest(r, zap.NewNop()).Error("resolve principal", zap.Error(err))
				unauthorized(w, "invalid_token", "Authentication failed")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

func unauthorized(w http.ResponseWriter, code, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="`+code+`"`)
	httpjson.WriteMessage(w, http.StatusUnauthorized, message)
}
