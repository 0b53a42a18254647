package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenGate-Global/palmyra-org-admin/domains/organizations/be/service"
	platformauth "github.com/zenGate-Global/palmyra-org-admin/platform/go/auth"
	"github.com/zenGate-Global/palmyra-org-admin/platform/go/httpjson"
	platformlogging "github.com/zenGate-Global/palmyra-org-admin/platform/go/logging"
)

// Handler exposes the organization lifecycle over HTTP.
type Handler struct {
	svc    *service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc *service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("organizations service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the /org routes. requireAuth guards the delete endpoint.
func (h *Handler) Register(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Route("/org", func(r chi.Router) {
		r.Post("/create", h.Create)
		r.Get("/get", h.Get)
		r.Put("/update", h.Update)
		r.With(requireAuth).Delete("/delete", h.Delete)
	})
}

type createRequest struct {
	OrganizationName string `json:"organization_name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
}

type nameRequest struct {
	OrganizationName string `json:"organization_name"`
}

type updateRequest struct {
	OrganizationName    string `json:"organization_name"`
	Email               string `json:"email"`
	Password            string `json:"password"`
	NewOrganizationName string `json:"new_organization_name"`
}

type adminUser struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Role  string    `json:"role,omitempty"`
}

type createdOrganization struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	CollectionName string     `json:"collectionName"`
	AdminUser      *adminUser `json:"adminUser"`
	CreatedAt      time.Time  `json:"createdAt"`
}

type organization struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	CollectionName string     `json:"collectionName"`
	AdminUser      *adminUser `json:"adminUser"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type dataEnvelope struct {
	Message string `json:"message,omitempty"`
	Data    any    `json:"data"`
}

type deletedOrganization struct {
	Name string `json:"name"`
}

// Create implements POST /org/create
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var body createRequest
	if err := httpjson.Decode(r, &body); err != nil {
		httpjson.WriteError(w, r, err)
		return
	}

	org, err := h.svc.Create(r.Context(), service.CreateInput{
		OrganizationName: body.OrganizationName,
		Email:            body.Email,
		Password:         body.Password,
	})
	if err != nil {
		httpjson.WriteError(w, r, err)
		return
	}

	out := createdOrganization{
		ID:             org.ID,
		Name:           org.Name,
		CollectionName: org.CollectionName,
		CreatedAt:      org.CreatedAt,
	}
	if org.Admin != nil {
		out.AdminUser = &adminUser{ID: org.Admin.ID, Email: org.Admin.Email}
	}
	httpjson.Write(w, http.StatusCreated, dataEnvelope{Message: "Organization created", Data: out})
}

// Get implements GET /org/get. The name is read from the JSON body, falling back to the
// organization_name query parameter for clients that cannot send a body with GET.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	var body nameRequest
	if err := httpjson.Decode(r, &body); err != nil {
		httpjson.WriteError(w, r, err)
		return
	}
	name := body.OrganizationName
	if name == "" {
		name = r.URL.Query().Get("organization_name")
	}

	org, err := h.svc.Lookup(r.Context(), name)
	if err != nil {
		httpjson.WriteError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, dataEnvelope{Data: toOrganization(org)})
}

// Update implements PUT /org/update
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var body updateRequest
	if err := httpjson.Decode(r, &body); err != nil {
		httpjson.WriteError(w, r, err)
		return
	}

	org, err := h.svc.Update(r.Context(), service.UpdateInput{
		OrganizationName:    body.OrganizationName,
		Email:               body.Email,
		Password:            body.Password,
		NewOrganizationName: body.NewOrganizationName,
	})
	if err != nil {
		httpjson.WriteError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, dataEnvelope{Message: "Organization updated", Data: toOrganization(org)})
}

// Delete implements DELETE /org/delete
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	var body nameRequest
	if err := httpjson.Decode(r, &body); err != nil {
		httpjson.WriteError(w, r, err)
		return
	}

	var actor *service.Actor
	if p, ok := platformauth.PrincipalFromContext(r.Context()); ok {
		actor = &service.Actor{UserID: p.UserID, Role: p.Role}
	}

	name, err := h.svc.Delete(r.Context(), body.OrganizationName, actor)
	if err != nil {
		if actor != nil {
			platformlogging.FromRequest(r, h.logger).Debug("delete rejected",
				zap.String("actor_user_id", actor.UserID.String()),
				zap.Error(err),
			)
		}
		httpjson.WriteError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, dataEnvelope{
		Message: "Organization deleted successfully",
		Data:    deletedOrganization{Name: name},
	})
}

func toOrganization(org service.Organization) organization {
	out := organization{
		ID:             org.ID,
		Name:           org.Name,
		CollectionName: org.CollectionName,
		CreatedAt:      org.CreatedAt,
		UpdatedAt:      org.UpdatedAt,
	}
	if org.Admin != nil {
		out.AdminUser = &adminUser{ID: org.Admin.ID, Email: org.Admin.Email, Role: org.Admin.Role}
	}
	return out
}
