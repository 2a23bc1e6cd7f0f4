package usecase

import (
	"context"
	"strings"

	"heather-backend/internal/domain"
	"heather-backend/pkg/apperror"
	"heather-backend/pkg/validation"

	"github.com/go-playground/validator/v10"
)

// requireSelf checks that the authenticated caller is userID.
func requireSelf(ctx context.Context, userID string) error {
	ctxUserID, ok := ctx.Value(domain.KeyUserID).(string)
	if !ok || ctxUserID == "" {
		return apperror.Unauthorized("User not authenticated")
	}
	if ctxUserID != userID {
		return apperror.Forbidden("You can only access your own data")
	}
	return nil
}

func ctxString(ctx context.Context, key domain.CtxKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}

func validateStruct(v *validator.Validate, s any) error {
	if err := v.Struct(s); err != nil {
		return apperror.BadRequest(strings.Join(validation.FormatValidationErrors(err), "; "))
	}
	return nil
}
