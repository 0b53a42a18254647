package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	oapimiddleware "github.com/oapi-codegen/nethttp-middleware"

	platformauth "github.com/zenGate-Global/palmyra-org-admin/platform/go/auth"
	"github.com/zenGate-Global/palmyra-org-admin/platform/go/httpjson"
)

// ContractValidator validates requests against the OpenAPI document. Routes the document does
// not describe are rejected, so it must only wrap the contract's own routes.
func ContractValidator(spec *openapi3.T) func(http.Handler) http.Handler {
	return oapimiddleware.OapiRequestValidatorWithOptions(spec, &oapimiddleware.Options{
		Options: openapi3filter.Options{
			AuthenticationFunc: ValidateAuthenticationViaSwagger,
		},
		ErrorHandler:          writeContractError,
		SilenceServersWarning: true,
	})
}

// ValidateAuthenticationViaSwagger enforces presence of a Bearer token for operations declaring bearerAuth.
// Signature, expiry, and identity checks happen in auth.Gate.
func ValidateAuthenticationViaSwagger(_ context.Context, input *openapi3filter.AuthenticationInput) error {
	if input == nil || input.SecuritySchemeName != "bearerAuth" {
		return nil
	}
	r := input.RequestValidationInput.Request
	if r == nil {
		return fmt.Errorf("no request in validation input")
	}
	if _, ok := platformauth.ExtractJWTToken(r); !ok {
		return fmt.Errorf("missing or invalid Authorization header")
	}
	return nil
}

func writeContractError(w http.ResponseWriter, message string, statusCode int) {
	if statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_request"`)
		httpjson.WriteMessage(w, http.StatusUnauthorized, "Missing or invalid authorization header")
		return
	}
	httpjson.WriteMessage(w, statusCode, message)
}
