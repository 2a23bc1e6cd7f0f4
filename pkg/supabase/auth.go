package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"heather-backend/internal/domain"
)

// refreshSkew refreshes access tokens slightly before they expire.
const refreshSkew = 30 * time.Second

type gotrueUser struct {
	ID           string              `json:"id"`
	Email        string              `json:"email"`
	UserMetadata domain.UserMetadata `json:"user_metadata"`
}

type tokenResponse struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresIn    int64      `json:"expires_in"`
	ExpiresAt    int64      `json:"expires_at"`
	User         gotrueUser `json:"user"`
}

// signUpResponse covers both shapes GoTrue answers a sign-up with: a token
// response when email confirmation is off, or the bare user otherwise.
type signUpResponse struct {
	tokenResponse
	ID    string `json:"id"`
	Email string `json:"email"`
}

type accessClaims struct {
	Email        string              `json:"email"`
	UserMetadata domain.UserMetadata `json:"user_metadata"`
	jwt.RegisteredClaims
}

var _ domain.AuthBackend = (*Client)(nil)

type subscription struct {
	c  *Client
	id int
}

func (s *subscription) Unsubscribe() {
	s.c.mu.Lock()
	delete(s.c.listeners, s.id)
	s.c.mu.Unlock()
}

type pendingEvent struct {
	event     domain.AuthEvent
	session   *domain.Session
	listeners []domain.AuthStateListener
}

// OnAuthStateChange registers listener. Events reach listeners in the order
// they happened, on a delivery goroutine that never holds the client lock.
func (c *Client) OnAuthStateChange(listener domain.AuthStateListener) domain.Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.listeners[c.nextID] = listener
	return &subscription{c: c, id: c.nextID}
}

// emit queues the event for the listeners registered right now.
func (c *Client) emit(event domain.AuthEvent, s *domain.Session) {
	c.mu.Lock()
	ls := make([]domain.AuthStateListener, 0, len(c.listeners))
	for _, l := range c.listeners {
		ls = append(ls, l)
	}
	c.pending = append(c.pending, pendingEvent{event: event, session: s, listeners: ls})
	start := !c.delivering
	c.delivering = true
	c.mu.Unlock()

	if start {
		go c.deliver()
	}
}

func (c *Client) deliver() {
	for {
		c.mu.Lock()
		if len(c.pending) == 0 {
			c.delivering = false
			c.mu.Unlock()
			return
		}
		ev := c.pending[0]
		c.pending[0] = pendingEvent{}
		c.pending = c.pending[1:]
		c.mu.Unlock()

		for _, l := range ev.listeners {
			l(ev.event, ev.session)
		}
	}
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error) {
	var tr tokenResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"password"}},
		body:   map[string]string{"email": email, "password": password},
	}, &tr)
	if err != nil {
		return nil, authError(err)
	}

	s := c.sessionFromToken(tr)
	c.setSession(ctx, s)
	c.emit(domain.EventSignedIn, s)
	return s, nil
}

func (c *Client) SignUp(ctx context.Context, email, password string, metadata domain.UserMetadata, redirectTo string) (*domain.SignUpResponse, error) {
	var q url.Values
	if redirectTo != "" {
		q = url.Values{"redirect_to": {redirectTo}}
	}

	var sr signUpResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		query:  q,
		body: map[string]any{
			"email":    email,
			"password": password,
			"data":     metadata,
		},
	}, &sr)
	if err != nil {
		return nil, authError(err)
	}

	resp := &domain.SignUpResponse{UserID: sr.ID, Email: sr.Email}
	if sr.AccessToken == "" {
		return resp, nil
	}

	s := c.sessionFromToken(sr.tokenResponse)
	resp.UserID, resp.Email, resp.Session = s.UserID, s.Email, s
	c.setSession(ctx, s)
	c.emit(domain.EventSignedIn, s)
	return resp, nil
}

// SignOut revokes the session on the backend. Local state is cleared and
// SIGNED_OUT emitted regardless of the backend's answer.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()

	var err error
	if s != nil && s.AccessToken != "" {
		err = c.do(ctx, request{
			method: http.MethodPost,
			path:   "/auth/v1/logout",
			token:  s.AccessToken,
		}, nil)
	}

	c.setSession(ctx, nil)
	c.emit(domain.EventSignedOut, nil)
	return err
}

// GetSession returns the current session, loading it from storage on first
// use. An expired session is refreshed; a refresh the backend rejects clears
// the session, emits SIGNED_OUT and reports no session.
func (c *Client) GetSession(ctx context.Context) (*domain.Session, error) {
	c.mu.Lock()
	if !c.loaded {
		stored, err := c.storage.Load(ctx)
		if err != nil {
			c.log.Warn("session storage load failed", "error", err)
		} else {
			c.session = stored
		}
		c.loaded = true
	}
	s := c.session
	c.mu.Unlock()

	if s == nil || !s.Expired(c.now(), refreshSkew) {
		return s, nil
	}

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// Another caller may have refreshed while we waited.
	c.mu.Lock()
	s = c.session
	c.mu.Unlock()
	if s == nil || !s.Expired(c.now(), refreshSkew) {
		return s, nil
	}

	refreshed, err := c.refresh(ctx, s.RefreshToken)
	if err != nil {
		var se *Error
		if errors.As(err, &se) && se.Status < http.StatusInternalServerError {
			c.log.Warn("session refresh rejected, signing out", "status", se.Status, "error", se.Message)
			c.setSession(ctx, nil)
			c.emit(domain.EventSignedOut, nil)
			return nil, nil
		}
		return nil, err
	}
	return refreshed, nil
}

// validToken returns the bearer token for table requests, refreshing an
// expired session first. It is "" when signed out, so the anon key is used.
func (c *Client) validToken(ctx context.Context) (string, error) {
	s, err := c.GetSession(ctx)
	if err != nil {
		return "", fmt.Errorf("supabase: refresh session: %w", err)
	}
	if s == nil {
		return "", nil
	}
	return s.AccessToken, nil
}

func (c *Client) refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	if refreshToken == "" {
		return nil, &Error{Status: http.StatusBadRequest, Message: "missing refresh token"}
	}
	var tr tokenResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"refresh_token"}},
		body:   map[string]string{"refresh_token": refreshToken},
	}, &tr)
	if err != nil {
		return nil, err
	}

	s := c.sessionFromToken(tr)
	c.setSession(ctx, s)
	c.emit(domain.EventTokenRefreshed, s)
	return s, nil
}

func (c *Client) setSession(ctx context.Context, s *domain.Session) {
	c.mu.Lock()
	c.session = s
	c.loaded = true
	c.mu.Unlock()

	var err error
	if s == nil {
		err = c.storage.Clear(ctx)
	} else {
		err = c.storage.Save(ctx, s)
	}
	if err != nil {
		c.log.Warn("session storage write failed", "error", err)
	}
}

// sessionFromToken fills gaps in the token response from the access
// token's own claims.
func (c *Client) sessionFromToken(tr tokenResponse) *domain.Session {
	s := &domain.Session{
		UserID:       tr.User.ID,
		Email:        tr.User.Email,
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		Metadata:     tr.User.UserMetadata,
	}
	switch {
	case tr.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(tr.ExpiresAt, 0)
	case tr.ExpiresIn > 0:
		s.ExpiresAt = c.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}

	var claims accessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tr.AccessToken, &claims); err != nil {
		return s
	}
	if s.UserID == "" {
		s.UserID = claims.Subject
	}
	if s.Email == "" {
		s.Email = claims.Email
	}
	if s.Metadata == (domain.UserMetadata{}) {
		s.Metadata = claims.UserMetadata
	}
	if s.ExpiresAt.IsZero() && claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s
}

func authError(err error) error {
	var se *Error
	if errors.As(err, &se) {
		return &domain.AuthenticationError{Reason: se.Message, Status: se.Status}
	}
	return &domain.AuthenticationError{Reason: err.Error()}
}
