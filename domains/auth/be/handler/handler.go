package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenGate-Global/palmyra-org-admin/domains/auth/be/service"
	"github.com/zenGate-Global/palmyra-org-admin/platform/go/httpjson"
)

// Handler exposes admin authentication over HTTP.
type Handler struct {
	svc    *service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc *service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("auth service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the /admin routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/login", h.Login)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginUser struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

type loginOrganization struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	CollectionName string    `json:"collectionName"`
}

type loginResponse struct {
	Message      string            `json:"message"`
	Token        string            `json:"token"`
	User         loginUser         `json:"user"`
	Organization loginOrganization `json:"organization"`
}

// Login implements POST /admin/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := httpjson.Decode(r, &body); err != nil {
		httpjson.WriteError(w, r, err)
		return
	}

	result, err := h.svc.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		httpjson.WriteError(w, r, err)
		return
	}

	httpjson.Write(w, http.StatusOK, loginResponse{
		Message: "Login successful",
		Token:   result.Token,
		User: loginUser{
			ID:    result.Admin.ID,
			Email: result.Admin.Email,
			Role:  result.Admin.Role,
		},
		Organization: loginOrganization{
			ID:             result.Organization.ID,
			Name:           result.Organization.Name,
			CollectionName: result.Organization.CollectionName,
		},
	})
}
