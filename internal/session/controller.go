// Package session owns the authenticated-user lifecycle: it acquires the
// initial session, follows session-change events, resolves the user's
// profile (falling back to session metadata when the profile store is
// unavailable) and emits navigation intents.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"heather-backend/internal/domain"
	"heather-backend/pkg/metrics"
)

// DefaultProfileTimeout bounds a profile lookup when Config leaves it unset.
const DefaultProfileTimeout = 8 * time.Second

var (
	// ErrClosed is returned by operations on a closed controller.
	ErrClosed = errors.New("session: controller closed")
	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("session: controller already started")
)

// Config tunes a Controller. The zero value is usable.
type Config struct {
	// ProfileTimeout bounds each profile lookup. Zero means DefaultProfileTimeout.
	ProfileTimeout time.Duration
	// RedirectTo is passed to the backend as the email-confirmation target.
	RedirectTo string
	Logger     *slog.Logger
	Audit      Auditor
}

// Controller is the single writer of AuthState.
type Controller struct {
	backend  domain.AuthBackend
	profiles domain.ProfileStore
	nav      domain.Navigator
	cfg      Config
	log      *slog.Logger

	mu    sync.Mutex
	state *stateStore
	ctx   context.Context
	sub   domain.Subscription

	started bool
	closed  bool
	// registration changes on Close; listener callbacks carrying an older
	// value are ignored.
	registration uint64
	// epoch changes whenever the session identity changes; resolutions
	// started under an older epoch do not commit.
	epoch   uint64
	session *domain.Session

	// One-shot navigation guard for the current sign-in cycle.
	navigated   bool
	freshSignIn bool
}

func NewController(backend domain.AuthBackend, profiles domain.ProfileStore, nav domain.Navigator, cfg Config) *Controller {
	if cfg.ProfileTimeout <= 0 {
		cfg.ProfileTimeout = DefaultProfileTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Audit == nil {
		cfg.Audit = nopAuditor{}
	}
	return &Controller{
		backend:  backend,
		profiles: profiles,
		nav:      nav,
		cfg:      cfg,
		log:      cfg.Logger.With("component", "session"),
		state:    newStateStore(),
		ctx:      context.Background(),
	}
}

// State returns the current snapshot.
func (c *Controller) State() domain.AuthState {
	return c.state.load()
}

// Subscribe delivers the current snapshot immediately and every later one.
// The channel is closed by cancel or Close.
func (c *Controller) Subscribe() (<-chan domain.AuthState, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, ch := c.state.watch()
	if c.closed {
		c.state.unwatch(id)
		return ch, func() {}
	}
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			c.state.unwatch(id)
			c.mu.Unlock()
		})
	}
}

// WaitInitialized blocks until the first resolution attempt has completed.
func (c *Controller) WaitInitialized(ctx context.Context) error {
	ch, cancel := c.Subscribe()
	defer cancel()
	for {
		select {
		case st, ok := <-ch:
			if !ok {
				return ErrClosed
			}
			if st.IsInitialized {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Start registers for session-change events and issues the one-shot
// session query. Both run concurrently; either may resolve the profile.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	c.ctx = ctx
	reg := c.registration
	c.mu.Unlock()

	sub := c.backend.OnAuthStateChange(func(event domain.AuthEvent, s *domain.Session) {
		c.handleEvent(reg, event, s)
	})

	c.mu.Lock()
	closed := c.closed
	if !closed {
		c.sub = sub
	}
	c.mu.Unlock()
	if closed {
		sub.Unsubscribe()
		return ErrClosed
	}

	go c.loadInitialSession(ctx, reg)
	return nil
}

// Close disposes the subscription. Results arriving afterwards are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.registration++
	c.epoch++
	sub := c.sub
	c.sub = nil
	c.state.closeAll()
	c.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
}

func (c *Controller) loadInitialSession(ctx context.Context, reg uint64) {
	s, err := c.backend.GetSession(ctx)
	if err != nil {
		c.log.Error("initial session query failed", "error", err)
	}

	c.mu.Lock()
	if c.closed || reg != c.registration {
		c.mu.Unlock()
		return
	}
	if s == nil {
		// A change event may already have delivered a session.
		if c.session == nil {
			c.state.replace(func(st *domain.AuthState) {
				st.User = nil
				st.IsLoading = false
				st.IsInitialized = true
			})
		}
		c.mu.Unlock()
		return
	}
	epoch := c.adoptSessionLocked(s)
	c.mu.Unlock()

	c.resolve(ctx, s, epoch)
}

func (c *Controller) handleEvent(reg uint64, event domain.AuthEvent, s *domain.Session) {
	c.mu.Lock()
	if c.closed || reg != c.registration {
		c.mu.Unlock()
		return
	}

	if s == nil || event == domain.EventSignedOut {
		c.clearSessionLocked()
		c.mu.Unlock()
		return
	}

	current := c.state.load()
	switch event {
	case domain.EventTokenRefreshed:
		if c.session != nil && c.session.UserID == s.UserID && current.User != nil {
			c.session = s
			c.mu.Unlock()
			return
		}
	case domain.EventSignedIn:
		// A sign-in that did not go through Login/Signup still counts as a
		// new sign-in cycle once the controller has settled as anonymous.
		if current.IsInitialized && current.User == nil && !c.freshSignIn {
			c.freshSignIn = true
			c.navigated = false
		}
	}

	epoch := c.adoptSessionLocked(s)
	if !current.IsLoading {
		c.state.replace(func(st *domain.AuthState) { st.IsLoading = true })
	}
	ctx := c.ctx
	c.mu.Unlock()

	go c.resolve(ctx, s, epoch)
}

func (c *Controller) adoptSessionLocked(s *domain.Session) uint64 {
	if c.session == nil || c.session.UserID != s.UserID {
		c.epoch++
	}
	c.session = s
	return c.epoch
}

func (c *Controller) clearSessionLocked() {
	c.epoch++
	c.session = nil
	c.navigated = false
	c.freshSignIn = false
	c.state.replace(func(st *domain.AuthState) {
		st.User = nil
		st.IsLoading = false
		st.IsInitialized = true
	})
}

// resolve fetches the profile for s and commits it if the session has not
// changed in the meantime. Safe to run repeatedly for the same session.
func (c *Controller) resolve(ctx context.Context, s *domain.Session, epoch uint64) {
	profile, err := c.fetchProfile(ctx, s)
	if err != nil {
		c.log.Warn("profile resolution fell back to session metadata",
			"user_id", s.UserID, "error", err)
	}

	c.mu.Lock()
	if c.closed || epoch != c.epoch {
		c.mu.Unlock()
		return
	}
	c.state.replace(func(st *domain.AuthState) {
		st.User = &profile
		st.IsLoading = false
		st.IsInitialized = true
	})
	path := c.nextNavigationLocked(profile)
	c.mu.Unlock()

	if path != "" {
		c.nav.Navigate(path, true)
	}
}

func (c *Controller) nextNavigationLocked(p domain.UserProfile) string {
	if c.navigated {
		return ""
	}
	if !p.ProfileCompleted {
		c.navigated = true
		return domain.CompletionPath(p.Role)
	}
	if c.freshSignIn {
		c.navigated = true
		c.freshSignIn = false
		return domain.PathDashboard
	}
	return ""
}

// fetchProfile races the store lookup against the configured timeout. The
// lookup is not cancelled when the timer wins; its result is discarded.
func (c *Controller) fetchProfile(ctx context.Context, s *domain.Session) (domain.UserProfile, error) {
	fallback := domain.FallbackProfile(s)

	done := make(chan domain.ProfileLookup, 1)
	go func() {
		done <- c.profiles.Select(context.WithoutCancel(ctx), s.UserID)
	}()

	timer := time.NewTimer(c.cfg.ProfileTimeout)
	defer timer.Stop()

	select {
	case res := <-done:
		metrics.ProfileResolutions.WithLabelValues(res.Status.String()).Inc()
		switch res.Status {
		case domain.LookupFound:
			return fromRow(res.Row, fallback), nil
		case domain.LookupNotFound:
			return fallback, nil
		default:
			return fallback, &domain.ProfileResolutionError{UserID: s.UserID, Err: res.Err}
		}
	case <-timer.C:
		metrics.ProfileResolutions.WithLabelValues("timeout").Inc()
		return fallback, &domain.ProfileResolutionError{UserID: s.UserID, Timeout: true, Err: context.DeadlineExceeded}
	case <-ctx.Done():
		return fallback, &domain.ProfileResolutionError{UserID: s.UserID, Err: ctx.Err()}
	}
}

// fromRow fills identity fields a sparse row leaves blank.
func fromRow(row domain.ProfileRow, fallback domain.UserProfile) domain.UserProfile {
	p := row.ToUserProfile()
	if p.ID == "" {
		p.ID = fallback.ID
	}
	if p.Email == "" {
		p.Email = fallback.Email
	}
	if p.Name == "" {
		p.Name = fallback.Name
	}
	if p.Role == domain.RoleUnset {
		p.Role = fallback.Role
	}
	return p
}
