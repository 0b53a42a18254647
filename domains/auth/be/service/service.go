package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	orgservice "github.com/zenGate-Global/palmyra-org-admin/domains/organizations/be/service"
	"github.com/zenGate-Global/palmyra-org-admin/platform/go/apperrors"
	platformauth "github.com/zenGate-Global/palmyra-org-admin/platform/go/auth"
	platformlogging "github.com/zenGate-Global/palmyra-org-admin/platform/go/logging"
)

// Errors returned by the auth service.
var (
	ErrCredentialsRequired = apperrors.Validation("email and password are required")
	ErrInvalidCredentials  = apperrors.Authentication("Invalid credentials")
)

// Directory is the read side of the organization directory needed to authenticate admins.
type Directory interface {
	ListAdminsByEmail(ctx context.Context, email string) ([]orgservice.AdminIdentity, error)
	GetAdmin(ctx context.Context, id uuid.UUID) (orgservice.AdminIdentity, error)
	Get(ctx context.Context, id uuid.UUID) (orgservice.Organization, error)
}

// PasswordComparer checks a raw password against a stored hash.
type PasswordComparer interface {
	Compare(hash, password string) (bool, error)
}

// TokenIssuer signs tokens for authenticated identities.
type TokenIssuer interface {
	Issue(claims platformauth.Claims) (string, time.Time, error)
}

// LoginResult is what a successful login hands back to the caller.
type LoginResult struct {
	Token        string
	ExpiresAt    time.Time
	Admin        orgservice.AdminIdentity
	Organization orgservice.Organization
}

// Service authenticates organization admins and resolves token subjects.
type Service struct {
	directory Directory
	passwords PasswordComparer
	tokens    TokenIssuer
}

func New(directory Directory, passwords PasswordComparer, tokens TokenIssuer) *Service {
	if directory == nil {
		panic("directory is required")
	}
	if passwords == nil {
		panic("password comparer is required")
	}
	if tokens == nil {
		panic("token issuer is required")
	}
	return &Service{directory: directory, passwords: passwords, tokens: tokens}
}

// Login checks email and password and issues a token carrying the admin's organization.
// Admins of different organizations may share an email; the first whose password matches wins.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return LoginResult{}, ErrCredentialsRequired
	}

	candidates, err := s.directory.ListAdminsByEmail(ctx, email)
	if err != nil {
		return LoginResult{}, apperrors.Internal("list admins", err)
	}

	var (
		admin   orgservice.AdminIdentity
		matched bool
	)
	for _, candidate := range candidates {
		ok, err := s.passwords.Compare(candidate.PasswordHash, password)
		if err != nil {
			platformlogging.FromContextOrNop(ctx).Warn("unusable password hash", zap.String("admin_id", candidate.ID.String()), zap.Error(err))
			continue
		}
		if ok {
			admin, matched = candidate, true
			break
		}
	}
	if !matched {
		return LoginResult{}, ErrInvalidCredentials
	}

	org, err := s.directory.Get(ctx, admin.OrgID)
	if err != nil {
		return LoginResult{}, apperrors.Internal("load admin organization", err)
	}

	token, expiresAt, err := s.tokens.Issue(platformauth.Claims{
		UserID:  admin.ID.String(),
		Email:   admin.Email,
		OrgID:   org.ID.String(),
		OrgName: org.Name,
		Role:    admin.Role,
	})
	if err != nil {
		return LoginResult{}, apperrors.Internal("issue token", err)
	}

	platformlogging.FromContextOrNop(ctx).Info("admin logged in",
		zap.String("admin_id", admin.ID.String()),
		zap.String("org_id", org.ID.String()),
	)
	return LoginResult{Token: token, ExpiresAt: expiresAt, Admin: admin, Organization: org}, nil
}

// ResolvePrincipal loads the current identity behind a token subject.
func (s *Service) ResolvePrincipal(ctx context.Context, userID uuid.UUID) (*platformauth.Principal, error) {
	admin, err := s.directory.GetAdmin(ctx, userID)
	if err != nil {
		if errors.Is(err, orgservice.ErrAdminNotFound) {
			return nil, platformauth.ErrUnknownPrincipal
		}
		return nil, fmt.Errorf("load admin: %w", err)
	}

	org, err := s.directory.Get(ctx, admin.OrgID)
	if err != nil {
		return nil, fmt.Errorf("load organization of admin %s: %w", admin.ID, err)
	}

	return &platformauth.Principal{
		UserID:  admin.ID,
		Email:   admin.Email,
		Role:    admin.Role,
		OrgID:   org.ID,
		OrgName: org.Name,
	}, nil
}

var _ platformauth.PrincipalResolver = (*Service)(nil)
