package session

import (
	"context"
	"errors"
	"fmt"

	"heather-backend/internal/domain"
)

// Login asks the backend to sign in. On success the session-change event
// drives profile resolution and navigation; the returned session is not
// used to update state here.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	guard, err := c.beginSignIn()
	if err != nil {
		return err
	}

	if _, err := c.backend.SignInWithPassword(ctx, email, password); err != nil {
		authErr := asAuthError(err)
		c.abortSignIn(guard)
		c.cfg.Audit.LogLoginFailed(ctx, email, authErr.Reason)
		return authErr
	}
	c.cfg.Audit.LogLoginSuccess(ctx, email)
	return nil
}

// Signup creates an account with name and role as metadata. When the
// backend returns no session the account awaits email confirmation and no
// resolution or navigation happens.
func (c *Controller) Signup(ctx context.Context, name, email, password string, role domain.Role) (domain.SignupResult, error) {
	guard, err := c.beginSignIn()
	if err != nil {
		return domain.SignupResult{}, err
	}

	meta := domain.UserMetadata{Name: name, Role: role}
	resp, err := c.backend.SignUp(ctx, email, password, meta, c.cfg.RedirectTo)
	if err != nil {
		authErr := asAuthError(err)
		c.abortSignIn(guard)
		c.cfg.Audit.LogSignupFailed(ctx, email, authErr.Reason)
		return domain.SignupResult{}, authErr
	}

	if resp == nil || resp.Session == nil {
		c.mu.Lock()
		c.freshSignIn = false
		c.mu.Unlock()
		c.endLoading()
		c.cfg.Audit.LogSignup(ctx, email, role, true)
		return domain.SignupResult{NeedsConfirmation: true}, nil
	}

	c.cfg.Audit.LogSignup(ctx, email, role, false)
	return domain.SignupResult{}, nil
}

// Logout always clears local state, even when the backend call fails.
func (c *Controller) Logout(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	userID := ""
	if c.session != nil {
		userID = c.session.UserID
	}
	c.state.replace(func(st *domain.AuthState) { st.IsLoading = true })
	c.mu.Unlock()

	if err := c.backend.SignOut(ctx); err != nil {
		c.log.Warn("backend sign-out failed, clearing local session anyway", "error", err)
	}

	c.mu.Lock()
	c.epoch++
	c.session = nil
	c.navigated = false
	c.freshSignIn = false
	c.state.replace(func(st *domain.AuthState) { st.User = nil })
	c.mu.Unlock()

	c.nav.Navigate(domain.PathLanding, false)
	c.endLoading()
	c.cfg.Audit.LogLogout(ctx, userID)
}

// UpdateProfile merges update into the current profile and writes it to the
// profile store. A failed write is logged; the merge stands.
func (c *Controller) UpdateProfile(ctx context.Context, update domain.ProfileUpdate) {
	if update.IsEmpty() {
		return
	}

	c.mu.Lock()
	current := c.state.load()
	if c.closed || current.User == nil {
		c.mu.Unlock()
		return
	}
	userID := current.User.ID
	c.state.replace(func(st *domain.AuthState) {
		merged := st.User.Merge(update)
		st.User = &merged
	})
	c.mu.Unlock()

	if err := c.profiles.Update(ctx, userID, update); err != nil {
		perr := &domain.PersistenceError{UserID: userID, Err: err}
		c.log.Error("profile update not persisted", "user_id", userID, "error", perr)
	}
}

// Refresh re-runs profile resolution for the current session and waits for
// it to commit.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	s := c.session
	if s == nil {
		c.mu.Unlock()
		return domain.ErrNotAuthenticated
	}
	epoch := c.epoch
	c.mu.Unlock()

	c.resolve(ctx, s, epoch)
	return nil
}

// CompleteProfile persists the current profile as completed and moves to the
// dashboard. Unlike UpdateProfile, a failed write is returned to the caller.
func (c *Controller) CompleteProfile(ctx context.Context, location, specialty string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	current := c.state.load()
	if current.User == nil {
		c.mu.Unlock()
		return domain.ErrNotAuthenticated
	}
	profile := *current.User
	epoch := c.epoch
	c.mu.Unlock()

	row := domain.CompletedProfileRow(profile, location, specialty)
	if err := c.profiles.Upsert(ctx, row); err != nil {
		return fmt.Errorf("complete profile: %w", &domain.PersistenceError{UserID: profile.ID, Err: err})
	}

	c.mu.Lock()
	if c.closed || epoch != c.epoch {
		c.mu.Unlock()
		return nil
	}
	c.state.replace(func(st *domain.AuthState) {
		if st.User == nil {
			return
		}
		st.User.ProfileCompleted = true
		if location != "" {
			st.User.Location = location
		}
		if specialty != "" {
			st.User.Specialty = specialty
		}
	})
	c.navigated = true
	c.freshSignIn = false
	c.mu.Unlock()

	c.nav.Navigate(domain.PathDashboard, true)
	return nil
}

// navGuard is the navigation guard as it stood before a sign-in attempt.
type navGuard struct {
	navigated   bool
	freshSignIn bool
	epoch       uint64
}

// beginSignIn raises isLoading and resets the navigation guard for a new
// sign-in cycle. The previous guard is returned for abortSignIn.
func (c *Controller) beginSignIn() (navGuard, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return navGuard{}, ErrClosed
	}
	prev := navGuard{navigated: c.navigated, freshSignIn: c.freshSignIn, epoch: c.epoch}
	c.navigated = false
	c.freshSignIn = true
	c.state.replace(func(st *domain.AuthState) { st.IsLoading = true })
	return prev, nil
}

// abortSignIn restores the guard after a failed sign-in unless the session
// changed meanwhile.
func (c *Controller) abortSignIn(prev navGuard) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if prev.epoch == c.epoch {
		c.navigated = prev.navigated
		c.freshSignIn = prev.freshSignIn
	}
	c.state.replace(func(st *domain.AuthState) { st.IsLoading = false })
}

func (c *Controller) endLoading() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.state.replace(func(st *domain.AuthState) { st.IsLoading = false })
}

func asAuthError(err error) *domain.AuthenticationError {
	var authErr *domain.AuthenticationError
	if errors.As(err, &authErr) {
		return authErr
	}
	return &domain.AuthenticationError{Reason: err.Error()}
}
