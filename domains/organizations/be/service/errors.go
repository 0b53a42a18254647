package service

import (
	"github.com/zenGate-Global/palmyra-org-admin/platform/go/apperrors"
)

// Errors returned by the service layer. Each matches its apperrors kind via errors.Is.
var (
	ErrCreateFieldsRequired  = apperrors.Validation("organization_name, email, password are required")
	ErrNameRequired          = apperrors.Validation("organization_name is required")
	ErrInvalidNewName        = apperrors.Validation("Invalid new_organization_name")
	ErrPasswordTooLong       = apperrors.Validation("password must be at most 72 bytes")
	ErrNameTaken             = apperrors.Conflict("Organization name already exists")
	ErrInvalidName           = apperrors.Conflict("Invalid organization_name")
	ErrCollectionExists      = apperrors.Conflict("Organization collection already exists")
	ErrNewNameTaken          = apperrors.Conflict("New organization name already exists")
	ErrTargetCollectionTaken = apperrors.Conflict("Target collection already exists")
	ErrAdminEmailTaken       = apperrors.Conflict("Admin email already exists for organization")
	ErrNotFound              = apperrors.NotFound("Organization not found")
	ErrAdminNotFound         = apperrors.NotFound("Admin user not found")
	ErrAdminRoleRequired     = apperrors.Authorization("Only admin can delete organization")
	ErrNotOrganizationAdmin  = apperrors.Authorization("You are not authorized to delete this organization")
)
