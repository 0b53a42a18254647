package httpjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/zenGate-Global/palmyra-org-admin/platform/go/apperrors"
	platformlogging "github.com/zenGate-Global/palmyra-org-admin/platform/go/logging"
)

// MessageBody is the error envelope returned by every endpoint.
type MessageBody struct {
	Message string `json:"message"`
}

// Write encodes v as JSON with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteMessage writes {"message": msg}.
func WriteMessage(w http.ResponseWriter, status int, msg string) {
	Write(w, status, MessageBody{Message: msg})
}

// WriteError maps err to its status and caller-safe message. 5xx detail goes to the request logger only.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.StatusCode(err)
	if status >= http.StatusInternalServerError {
		logger := platformlogging.FromRequest(r, zap.NewNop())
		logger.Error("request failed", zap.Error(err))
	}
	WriteMessage(w, status, apperrors.PublicMessage(err))
}

// Decode reads a JSON object body into dst. An empty body leaves dst untouched so that
// required-field checks report the missing fields instead of a parse error.
func Decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperrors.Validation(fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit))
		}
		return apperrors.Validation("invalid JSON body")
	}
	return nil
}
