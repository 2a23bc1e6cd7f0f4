package session

import (
	"context"

	"heather-backend/internal/domain"
)

// Auditor records authentication events. pkg/security.SecurityLogger
// satisfies it.
type Auditor interface {
	LogLoginSuccess(ctx context.Context, email string)
	LogLoginFailed(ctx context.Context, email, reason string)
	LogSignup(ctx context.Context, email string, role domain.Role, needsConfirmation bool)
	LogSignupFailed(ctx context.Context, email, reason string)
	LogLogout(ctx context.Context, userID string)
}

type nopAuditor struct{}

func (nopAuditor) LogLoginSuccess(context.Context, string) {}
func (nopAuditor) LogLoginFailed(context.Context, string, string) {}
func (nopAuditor) LogSignup(context.Context, string, domain.Role, bool) {}
func (nopAuditor) LogSignupFailed(context.Context, string, string) {}
func (nopAuditor) LogLogout(context.Context, string) {}
