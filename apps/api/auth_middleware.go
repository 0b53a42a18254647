package main

import (
	"net/http"

	platformauth "github.com/zenGate-Global/palmyra-org-admin/platform/go/auth"
)

// buildAuthMiddleware constructs the bearer gate: the token is verified locally, then its subject
// is resolved against the admin directory on every request.
func buildAuthMiddleware(verifier platformauth.Verifier, resolver platformauth.PrincipalResolver) func(http.Handler) http.Handler {
	return platformauth.Gate(verifier, resolver)
}
