package domain

import (
	"context"
	"strings"
	"time"
)

// Role is the account type chosen at sign-up.
type Role string

const (
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
	RoleUnset   Role = ""
)

// IsValid reports whether r is one of the selectable roles.
func (r Role) IsValid() bool {
	return r == RoleDoctor || r == RolePatient
}

// ============================================================================
// User Profile (client-side cached copy)
// ============================================================================

// UserProfile is the application-level profile the session layer exposes.
type UserProfile struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Role             Role   `json:"role"`
	ProfileCompleted bool   `json:"profileCompleted"`
	ImageURL         string `json:"imageUrl,omitempty"`
	Location         string `json:"location,omitempty"`
	Specialty        string `json:"specialty,omitempty"`
	Verified         *bool  `json:"verified,omitempty"`
}

// ProfileUpdate is a partial update. Nil fields are left untouched.
type ProfileUpdate struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,min=1,max=120,valid_name,no_emoji"`
	Location  *string `json:"location,omitempty" validate:"omitempty,max=200,no_emoji"`
	Specialty *string `json:"specialty,omitempty" validate:"omitempty,specialty"`
	ImageURL  *string `json:"image_url,omitempty" validate:"omitempty,url"`
}

// IsEmpty reports whether the update carries no fields.
func (u ProfileUpdate) IsEmpty() bool {
	return u.Name == nil && u.Location == nil && u.Specialty == nil && u.ImageURL == nil
}

// Merge returns a copy of p with the non-nil fields of u applied.
func (p UserProfile) Merge(u ProfileUpdate) UserProfile {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Location != nil {
		p.Location = *u.Location
	}
	if u.Specialty != nil {
		p.Specialty = *u.Specialty
	}
	if u.ImageURL != nil {
		p.ImageURL = *u.ImageURL
	}
	return p
}

// FallbackProfile synthesizes an incomplete profile from session data when
// the stored profile cannot be fetched.
func FallbackProfile(s *Session) UserProfile {
	name := strings.TrimSpace(s.Metadata.Name)
	if name == "" {
		name = s.Email
		if at := strings.Index(name, "@"); at >= 0 {
			name = name[:at]
		}
	}
	role := s.Metadata.Role
	if !role.IsValid() {
		role = RolePatient
	}
	return UserProfile{
		ID:               s.UserID,
		Name:             name,
		Email:            s.Email,
		Role:             role,
		ProfileCompleted: false,
	}
}

// ============================================================================
// Profile Row (storage shape of the profiles table)
// ============================================================================

type ProfileRow struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Role             Role       `json:"role"`
	ProfileCompleted *bool      `json:"profile_completed,omitempty"`
	ImageURL         *string    `json:"image_url,omitempty"`
	Location         *string    `json:"location,omitempty"`
	Specialty        *string    `json:"specialty,omitempty"`
	Verified         *bool      `json:"verified,omitempty"`
	CreatedAt        *time.Time `json:"created_at,omitempty"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
}

// ToUserProfile normalizes a stored row. A stored row is complete unless it
// explicitly says otherwise.
func (r ProfileRow) ToUserProfile() UserProfile {
	completed := r.ProfileCompleted == nil || *r.ProfileCompleted
	role := r.Role
	if !role.IsValid() {
		role = RoleUnset
	}
	return UserProfile{
		ID:               r.ID,
		Name:             r.Name,
		Email:            r.Email,
		Role:             role,
		ProfileCompleted: completed,
		ImageURL:         deref(r.ImageURL),
		Location:         deref(r.Location),
		Specialty:        deref(r.Specialty),
		Verified:         r.Verified,
	}
}

// CompletedProfileRow builds the row written by the profile-completion flow.
func CompletedProfileRow(p UserProfile, location, specialty string) ProfileRow {
	completed := true
	row := ProfileRow{
		ID:               p.ID,
		Name:             p.Name,
		Email:            p.Email,
		Role:             p.Role,
		ProfileCompleted: &completed,
	}
	if location != "" {
		row.Location = &location
	}
	if specialty != "" {
		row.Specialty = &specialty
	}
	if p.ImageURL != "" {
		img := p.ImageURL
		row.ImageURL = &img
	}
	return row
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ============================================================================
// Profile Lookup (tagged result)
// ============================================================================

type LookupStatus int

const (
	LookupFound LookupStatus = iota + 1
	LookupNotFound
	LookupFailed
)

func (s LookupStatus) String() string {
	switch s {
	case LookupFound:
		return "found"
	case LookupNotFound:
		return "not_found"
	case LookupFailed:
		return "error"
	default:
		return "unknown"
	}
}

// ProfileLookup is the result of a ProfileStore select: exactly one of
// Found(row), NotFound or Failed(err).
type ProfileLookup struct {
	Status LookupStatus
	Row    ProfileRow
	Err    error
}

func Found(row ProfileRow) ProfileLookup {
	return ProfileLookup{Status: LookupFound, Row: row}
}

func NotFound() ProfileLookup {
	return ProfileLookup{Status: LookupNotFound}
}

func Failed(err error) ProfileLookup {
	return ProfileLookup{Status: LookupFailed, Err: err}
}

// ============================================================================
// Repository / Usecase Interfaces (API side)
// ============================================================================

type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*ProfileRow, error)
	GetByIDs(ctx context.Context, ids []string) ([]ProfileRow, error)
	Upsert(ctx context.Context, row *ProfileRow) error
	Update(ctx context.Context, id string, update ProfileUpdate) (*ProfileRow, error)
}

type ProfileUsecase interface {
	GetProfile(ctx context.Context, userID string) (*ProfileRow, error)
	CompleteDoctorProfile(ctx context.Context, userID string, req *DoctorProfileRequest) (*ProfileRow, error)
	CompletePatientProfile(ctx context.Context, userID string, req *PatientProfileRequest) (*ProfileRow, error)
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*ProfileRow, error)
}
