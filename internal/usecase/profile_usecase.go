package usecase

import (
	"context"
	"errors"

	"heather-backend/internal/domain"
	"heather-backend/pkg/apperror"

	"github.com/go-playground/validator/v10"
)

type profileUsecase struct {
	repo     domain.ProfileRepository
	validate *validator.Validate
}

func NewProfileUsecase(repo domain.ProfileRepository, validate *validator.Validate) domain.ProfileUsecase {
	return &profileUsecase{
		repo:     repo,
		validate: validate,
	}
}

func (u *profileUsecase) GetProfile(ctx context.Context, userID string) (*domain.ProfileRow, error) {
	if err := requireSelf(ctx, userID); err != nil {
		return nil, err
	}

	row, err := u.repo.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperror.NotFound("Profile not found")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return row, nil
}

func (u *profileUsecase) CompleteDoctorProfile(ctx context.Context, userID string, req *domain.DoctorProfileRequest) (*domain.ProfileRow, error) {
	if err := requireSelf(ctx, userID); err != nil {
		return nil, err
	}
	if err := validateStruct(u.validate, req); err != nil {
		return nil, err
	}

	location, specialty := req.Location(), req.Specialty
	return u.complete(ctx, userID, domain.RoleDoctor, location, &specialty)
}

func (u *profileUsecase) CompletePatientProfile(ctx context.Context, userID string, req *domain.PatientProfileRequest) (*domain.ProfileRow, error) {
	if err := requireSelf(ctx, userID); err != nil {
		return nil, err
	}
	if err := validateStruct(u.validate, req); err != nil {
		return nil, err
	}

	return u.complete(ctx, userID, domain.RolePatient, req.Location(), nil)
}

// complete upserts the caller's row as completed. The role chosen at sign-up
// (stored row first, then token metadata) must match the form submitted.
func (u *profileUsecase) complete(ctx context.Context, userID string, role domain.Role, location string, specialty *string) (*domain.ProfileRow, error) {
	existing, err := u.repo.GetByID(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, apperror.Internal(err)
	}

	current := domain.Role(ctxString(ctx, domain.KeyUserRole))
	name, email := ctxString(ctx, domain.KeyUserName), ctxString(ctx, domain.KeyUserEmail)
	if existing != nil {
		if existing.Role.IsValid() {
			current = existing.Role
		}
		if existing.Name != "" {
			name = existing.Name
		}
		if existing.Email != "" {
			email = existing.Email
		}
	}
	if current.IsValid() && current != role {
		return nil, apperror.Forbidden("This profile form does not match your account type")
	}

	completed := true
	row := &domain.ProfileRow{
		ID:               userID,
		Name:             name,
		Email:            email,
		Role:             role,
		ProfileCompleted: &completed,
		Location:         &location,
		Specialty:        specialty,
	}
	if existing != nil {
		row.ImageURL = existing.ImageURL
		row.Verified = existing.Verified
	}

	if err := u.repo.Upsert(ctx, row); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperror.Internal(err)
	}
	return row, nil
}

func (u *profileUsecase) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.ProfileRow, error) {
	if err := requireSelf(ctx, userID); err != nil {
		return nil, err
	}
	if update.IsEmpty() {
		return nil, apperror.BadRequest("No fields to update")
	}
	if err := validateStruct(u.validate, update); err != nil {
		return nil, err
	}

	row, err := u.repo.Update(ctx, userID, update)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperror.NotFound("Profile not found")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return row, nil
}
