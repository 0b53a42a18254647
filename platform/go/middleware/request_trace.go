package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	platformauth "github.com/zenGate-Global/palmyra-org-admin/platform/go/auth"
	"github.com/zenGate-Global/palmyra-org-admin/platform/go/httpjson"
	platformlogging "github.com/zenGate-Global/palmyra-org-admin/platform/go/logging"
	"github.com/zenGate-Global/palmyra-org-admin/platform/go/requesttrace"
)

// RequestTrace populates the context with request-scoped AuditInfo. It may run more than once per
// request; the innermost run wins, so gated routes repeat it after auth.Gate.
func RequestTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := platformlogging.FromRequest(r, nil)
		requestID := middleware.GetReqID(r.Context())

		var audit requesttrace.AuditInfo
		if principal, ok := platformauth.PrincipalFromContext(r.Context()); ok {
			var err error
			audit, err = requesttrace.FromPrincipal(principal, requestID)
			if err != nil {
				if logger != nil {
					logger.Error("build audit info from principal", zap.Error(err))
				}
				httpjson.WriteMessage(w, http.StatusUnauthorized, "Authentication failed")
				return
			}
		} else {
			audit = requesttrace.Anonymous(requestID)
		}

		next.ServeHTTP(w, r.WithContext(requesttrace.IntoContext(r.Context(), audit)))
	})
}
