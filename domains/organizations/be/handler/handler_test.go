package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/zenGate-Global/palmyra-org-admin/domains/organizations/be/provisioning"
	"github.com/zenGate-Global/palmyra-org-admin/domains/organizations/be/repo"
	"github.com/zenGate-Global/palmyra-org-admin/domains/organizations/be/service"
	platformauth "github.com/zenGate-Global/palmyra-org-admin/platform/go/auth"
)

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

type repoResolver struct {
	repo *repo.MemoryRepository
}

func (r repoResolver) ResolvePrincipal(ctx context.Context, id uuid.UUID) (*platformauth.Principal, error) {
	admin, err := r.repo.GetAdmin(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrAdminNotFound) {
			return nil, platformauth.ErrUnknownPrincipal
		}
		return nil, err
	}
	return &platformauth.Principal{UserID: admin.ID, Email: admin.Email, Role: admin.Role, OrgID: admin.OrgID}, nil
}

type testServer struct {
	router http.Handler
	issuer *platformauth.TokenIssuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	memRepo := repo.NewMemoryRepository()
	svc := service.New(memRepo, provisioning.NewMemoryCollectionProvisioner(), plainHasher{})
	h := New(svc, zaptest.NewLogger(t))

	cfg := platformauth.TokenConfig{Secret: "handler-secret"}
	issuer, err := platformauth.NewTokenIssuer(cfg)
	require.NoError(t, err)
	verifier, err := platformauth.NewTokenVerifier(cfg)
	require.NoError(t, err)

	r := chi.NewRouter()
	h.Register(r, platformauth.Gate(verifier, repoResolver{repo: memRepo}))
	return &testServer{router: r, issuer: issuer}
}

func (s *testServer) do(t *testing.T, method, target, body, token string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func (s *testServer) tokenFor(t *testing.T, adminID string) string {
	t.Helper()
	token, _, err := s.issuer.Issue(platformauth.Claims{UserID: adminID, Role: platformauth.RoleAdmin})
	require.NoError(t, err)
	return token
}

func TestCreateAndGet(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodPost, "/org/create", `{"organization_name":"Acme Inc","email":"a@x.com","password":"p"}`, "")
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, "Organization created", body["message"])
	data := body["data"].(map[string]any)
	require.Equal(t, "Acme Inc", data["name"])
	require.Equal(t, "org_acme_inc", data["collectionName"])
	require.NotEmpty(t, data["createdAt"])
	admin := data["adminUser"].(map[string]any)
	require.Equal(t, "a@x.com", admin["email"])
	require.NotContains(t, admin, "password")
	require.NotContains(t, admin, "role")

	status, body = s.do(t, http.MethodGet, "/org/get", `{"organization_name":"Acme Inc"}`, "")
	require.Equal(t, http.StatusOK, status)
	require.NotContains(t, body, "message")
	data = body["data"].(map[string]any)
	require.Equal(t, "org_acme_inc", data["collectionName"])
	require.NotEmpty(t, data["updatedAt"])
	require.Equal(t, "admin", data["adminUser"].(map[string]any)["role"])

	status, body = s.do(t, http.MethodGet, "/org/get?organization_name=Acme%20Inc", "", "")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "Acme Inc", body["data"].(map[string]any)["name"])
}

func TestCreateErrors(t *testing.T) {
	s := newTestServer(t)
	status, _ := s.do(t, http.MethodPost, "/org/create", `{"organization_name":"Acme Inc","email":"a@x.com","password":"p"}`, "")
	require.Equal(t, http.StatusCreated, status)

	testCases := []struct {
		name        string
		body        string
		wantStatus  int
		wantMessage string
	}{
		{"empty body", "", http.StatusBadRequest, "organization_name, email, password are required"},
		{"missing email", `{"organization_name":"Beta","password":"p"}`, http.StatusBadRequest, "organization_name, email, password are required"},
		{"malformed json", `{"organization_name":`, http.StatusBadRequest, "invalid JSON body"},
		{"duplicate", `{"organization_name":"Acme Inc","email":"b@x.com","password":"p"}`, http.StatusConflict, "Organization name already exists"},
		{"invalid name", `{"organization_name":"!!!","email":"b@x.com","password":"p"}`, http.StatusConflict, "Invalid organization_name"},
		{"collision", `{"organization_name":"acme-inc","email":"b@x.com","password":"p"}`, http.StatusConflict, "Organization collection already exists"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := s.do(t, http.MethodPost, "/org/create", tc.body, "")
			require.Equal(t, tc.wantStatus, status)
			require.Equal(t, tc.wantMessage, body["message"])
		})
	}
}

func TestGetErrors(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/org/get", "", "")
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "organization_name is required", body["message"])

	status, body = s.do(t, http.MethodGet, "/org/get", `{"organization_name":"Nobody"}`, "")
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "Organization not found", body["message"])
}

func TestUpdate(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/org/create", `{"organization_name":"Acme Inc","email":"a@x.com","password":"p"}`, "")
	s.do(t, http.MethodPost, "/org/create", `{"organization_name":"Beta","email":"b@x.com","password":"p"}`, "")

	status, body := s.do(t, http.MethodPut, "/org/update", `{"organization_name":"Acme Inc","email":"new@x.com","new_organization_name":"Acme Corp"}`, "")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "Organization updated", body["message"])
	data := body["data"].(map[string]any)
	require.Equal(t, "Acme Corp", data["name"])
	require.Equal(t, "org_acme_corp", data["collectionName"])
	require.Equal(t, "new@x.com", data["adminUser"].(map[string]any)["email"])

	testCases := []struct {
		name        string
		body        string
		wantStatus  int
		wantMessage string
	}{
		{"missing name", `{}`, http.StatusBadRequest, "organization_name is required"},
		{"unknown", `{"organization_name":"Acme Inc"}`, http.StatusNotFound, "Organization not found"},
		{"taken", `{"organization_name":"Acme Corp","new_organization_name":"Beta"}`, http.StatusConflict, "New organization name already exists"},
		{"invalid", `{"organization_name":"Acme Corp","new_organization_name":"%%%"}`, http.StatusBadRequest, "Invalid new_organization_name"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := s.do(t, http.MethodPut, "/org/update", tc.body, "")
			require.Equal(t, tc.wantStatus, status)
			require.Equal(t, tc.wantMessage, body["message"])
		})
	}
}

func TestDelete(t *testing.T) {
	s := newTestServer(t)
	_, acme := s.do(t, http.MethodPost, "/org/create", `{"organization_name":"Acme Inc","email":"a@x.com","password":"p"}`, "")
	_, beta := s.do(t, http.MethodPost, "/org/create", `{"organization_name":"Beta","email":"b@x.com","password":"p"}`, "")
	acmeAdmin := acme["data"].(map[string]any)["adminUser"].(map[string]any)["id"].(string)
	betaAdmin := beta["data"].(map[string]any)["adminUser"].(map[string]any)["id"].(string)

	status, body := s.do(t, http.MethodDelete, "/org/delete", `{"organization_name":"Acme Inc"}`, "")
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "Missing or invalid authorization header", body["message"])

	status, body = s.do(t, http.MethodDelete, "/org/delete", `{"organization_name":"Acme Inc"}`, s.tokenFor(t, uuid.NewString()))
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "User not found", body["message"])

	status, body = s.do(t, http.MethodDelete, "/org/delete", `{"organization_name":"Acme Inc"}`, s.tokenFor(t, betaAdmin))
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, "You are not authorized to delete this organization", body["message"])

	status, body = s.do(t, http.MethodDelete, "/org/delete", `{}`, s.tokenFor(t, acmeAdmin))
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "organization_name is required", body["message"])

	status, body = s.do(t, http.MethodDelete, "/org/delete", `{"organization_name":"Acme Inc"}`, s.tokenFor(t, acmeAdmin))
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "Organization deleted successfully", body["message"])
	require.Equal(t, "Acme Inc", body["data"].(map[string]any)["name"])

	status, _ = s.do(t, http.MethodGet, "/org/get", `{"organization_name":"Acme Inc"}`, "")
	require.Equal(t, http.StatusNotFound, status)

	// The admin identity went with the organization.
	status, body = s.do(t, http.MethodDelete, "/org/delete", `{"organization_name":"Beta"}`, s.tokenFor(t, acmeAdmin))
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "User not found", body["message"])
}
