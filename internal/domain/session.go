package domain

import (
	"context"
	"time"
)

// UserMetadata is written to the auth account at sign-up.
type UserMetadata struct {
	Name string `json:"name,omitempty"`
	Role Role   `json:"role,omitempty"`
}

// Session is the backend-issued proof of authentication. Its presence means
// "authenticated"; it says nothing about the application profile.
type Session struct {
	UserID       string       `json:"user_id"`
	Email        string       `json:"email"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    time.Time    `json:"expires_at"`
	Metadata     UserMetadata `json:"user_metadata"`
}

// Expired reports whether the access token is past (or within skew of) expiry.
func (s *Session) Expired(now time.Time, skew time.Duration) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(skew).Before(s.ExpiresAt)
}

// AuthEvent is delivered to session-change subscribers.
type AuthEvent string

const (
	EventSignedIn       AuthEvent = "SIGNED_IN"
	EventSignedOut      AuthEvent = "SIGNED_OUT"
	EventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
	EventUserUpdated    AuthEvent = "USER_UPDATED"
)

// SignUpResponse is the backend's answer to a sign-up. A nil Session means
// the account awaits email confirmation.
type SignUpResponse struct {
	UserID  string
	Email   string
	Session *Session
}

// SignupResult is returned to the caller of the session layer's Signup.
type SignupResult struct {
	NeedsConfirmation bool `json:"needsConfirmation"`
}

// AuthState is the immutable snapshot published by the session controller.
type AuthState struct {
	User          *UserProfile `json:"user"`
	IsLoading     bool         `json:"isLoading"`
	IsInitialized bool         `json:"isInitialized"`
}

// IsAuthenticated reports whether a user profile is resolved.
func (s AuthState) IsAuthenticated() bool {
	return s.User != nil
}

// ============================================================================
// Collaborators consumed by the session layer
// ============================================================================

// Subscription is returned by OnAuthStateChange and must be disposed on teardown.
type Subscription interface {
	Unsubscribe()
}

// AuthStateListener receives session-change notifications.
type AuthStateListener func(event AuthEvent, session *Session)

type AuthBackend interface {
	GetSession(ctx context.Context) (*Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string, metadata UserMetadata, redirectTo string) (*SignUpResponse, error)
	SignOut(ctx context.Context) error
	OnAuthStateChange(listener AuthStateListener) Subscription
}

type ProfileStore interface {
	Select(ctx context.Context, id string) ProfileLookup
	Update(ctx context.Context, id string, update ProfileUpdate) error
	Upsert(ctx context.Context, row ProfileRow) error
}

// Navigator receives navigation intents. Calls are fire-and-forget.
type Navigator interface {
	Navigate(path string, replace bool)
}

// ============================================================================
// Navigation paths
// ============================================================================

const (
	PathLanding        = "/"
	PathSignIn         = "/sign-in"
	PathSignUp         = "/sign-up"
	PathDashboard      = "/dashboard"
	PathDoctorProfile  = "/doctor-profile"
	PathPatientProfile = "/patient-profile"
	PathMessages       = "/messages"
	PathHealthAnalysis = "/health-analysis"
)

// CompletionPath returns the profile-completion page for role.
func CompletionPath(role Role) string {
	if role == RoleDoctor {
		return PathDoctorProfile
	}
	return PathPatientProfile
}
