package requesttrace

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	platformauth "github.com/zenGate-Global/palmyra-org-admin/platform/go/auth"
)

type contextKey string

const (
	ctxAuditInfo contextKey = "PALMYRA_ORG_ADMIN_REQUEST_TRACE"
)

// ActorKind represents who initiated a request.
type ActorKind string

const (
	ActorKindUser      ActorKind = "user"
	ActorKindAnonymous ActorKind = "anonymous"
	ActorKindSystem    ActorKind = "system"
)

// AuditInfo captures request-scoped metadata for lifecycle logs.
// UserID and OrgID are set only when ActorKind is user.
type AuditInfo struct {
	ActorKind ActorKind
	UserID    *string
	OrgID     *string
	RequestID string
}

// Fields renders the actor as zap fields. The request id is left to the request logger.
func (a AuditInfo) Fields() []zap.Field {
	fields := []zap.Field{zap.String("actor_kind", string(a.ActorKind))}
	if a.UserID != nil {
		fields = append(fields, zap.String("actor_user_id", *a.UserID))
	}
	if a.OrgID != nil {
		fields = append(fields, zap.String("actor_org_id", *a.OrgID))
	}
	return fields
}

// IntoContext stores the AuditInfo in the provided context.
func IntoContext(ctx context.Context, audit AuditInfo) context.Context {
	return context.WithValue(ctx, ctxAuditInfo, audit)
}

// FromContext extracts the AuditInfo from context, returning false when not present.
func FromContext(ctx context.Context) (AuditInfo, bool) {
	if ctx == nil {
		return AuditInfo{}, false
	}
	v := ctx.Value(ctxAuditInfo)
	if v == nil {
		return AuditInfo{}, false
	}

	audit, ok := v.(AuditInfo)
	return audit, ok
}

// FromContextOrAnonymous returns the AuditInfo stored on the context, or an anonymous record when absent.
func FromContextOrAnonymous(ctx context.Context) AuditInfo {
	if audit, ok := FromContext(ctx); ok {
		return audit
	}
	return Anonymous("")
}

// FromPrincipal builds an AuditInfo from the authenticated admin and a request ID.
func FromPrincipal(p *platformauth.Principal, requestID string) (AuditInfo, error) {
	if p == nil {
		return AuditInfo{}, errors.New("principal is required to build audit info")
	}
	if p.UserID == uuid.Nil {
		return AuditInfo{}, errors.New("user id is required to build audit info")
	}

	userID := p.UserID.String()
	orgID := p.OrgID.String()
	return AuditInfo{
		ActorKind: ActorKindUser,
		UserID:    &userID,
		OrgID:     &orgID,
		RequestID: requestID,
	}, nil
}

// Anonymous builds an AuditInfo for unauthenticated requests (create, login) where no identity exists yet.
func Anonymous(requestID string) AuditInfo {
	return AuditInfo{ActorKind: ActorKindAnonymous, RequestID: requestID}
}

// System builds an AuditInfo for CLI and bootstrap operations.
func System(requestID string) AuditInfo {
	return AuditInfo{ActorKind: ActorKindSystem, RequestID: requestID}
}
