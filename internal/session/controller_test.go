package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"heather-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Fakes
// ============================================================================

type fakeSubscription struct {
	backend *fakeBackend
	id      int
}

func (s *fakeSubscription) Unsubscribe() {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	delete(s.backend.listeners, s.id)
	s.backend.unsubscribed++
}

type fakeBackend struct {
	mu            sync.Mutex
	session       *domain.Session
	getSessionErr error
	signInErr     error
	signUpResp    *domain.SignUpResponse
	signUpErr     error
	signOutErr    error
	signUpMeta    domain.UserMetadata
	signUpRedir   string
	listeners     map[int]domain.AuthStateListener
	lastListener  domain.AuthStateListener
	nextID        int
	unsubscribed  int
	signOutCalls  int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{listeners: make(map[int]domain.AuthStateListener)}
}

func (b *fakeBackend) GetSession(ctx context.Context) (*domain.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session, b.getSessionErr
}

func (b *fakeBackend) SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error) {
	b.mu.Lock()
	if b.signInErr != nil {
		b.mu.Unlock()
		return nil, b.signInErr
	}
	s := &domain.Session{UserID: "user-" + email, Email: email, AccessToken: "token"}
	b.session = s
	b.mu.Unlock()
	b.emit(domain.EventSignedIn, s)
	return s, nil
}

func (b *fakeBackend) SignUp(ctx context.Context, email, password string, metadata domain.UserMetadata, redirectTo string) (*domain.SignUpResponse, error) {
	b.mu.Lock()
	b.signUpMeta = metadata
	b.signUpRedir = redirectTo
	resp, err := b.signUpResp, b.signUpErr
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if resp != nil && resp.Session != nil {
		b.emit(domain.EventSignedIn, resp.Session)
	}
	return resp, nil
}

func (b *fakeBackend) SignOut(ctx context.Context) error {
	b.mu.Lock()
	b.signOutCalls++
	err := b.signOutErr
	b.session = nil
	b.mu.Unlock()
	b.emit(domain.EventSignedOut, nil)
	return err
}

func (b *fakeBackend) OnAuthStateChange(listener domain.AuthStateListener) domain.Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = listener
	b.lastListener = listener
	return &fakeSubscription{backend: b, id: id}
}

func (b *fakeBackend) emit(event domain.AuthEvent, s *domain.Session) {
	b.mu.Lock()
	listeners := make([]domain.AuthStateListener, 0, len(b.listeners))
	for _, l := range b.listeners {
		listeners = append(listeners, l)
	}
	b.mu.Unlock()
	for _, l := range listeners {
		l(event, s)
	}
}

type fakeStore struct {
	mu        sync.Mutex
	selectFn  func(id string) domain.ProfileLookup
	selects   int
	updates   []domain.ProfileUpdate
	updateErr error
	upserts   []domain.ProfileRow
	upsertErr error
}

func (s *fakeStore) Select(ctx context.Context, id string) domain.ProfileLookup {
	s.mu.Lock()
	s.selects++
	fn := s.selectFn
	s.mu.Unlock()
	if fn == nil {
		return domain.NotFound()
	}
	return fn(id)
}

func (s *fakeStore) Update(ctx context.Context, id string, update domain.ProfileUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, update)
	return s.updateErr
}

func (s *fakeStore) Upsert(ctx context.Context, row domain.ProfileRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts = append(s.upserts, row)
	return s.upsertErr
}

func (s *fakeStore) selectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selects
}

type navCall struct {
	Path    string
	Replace bool
}

type recordingNavigator struct {
	mu    sync.Mutex
	calls []navCall
}

func (n *recordingNavigator) Navigate(path string, replace bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, navCall{Path: path, Replace: replace})
}

func (n *recordingNavigator) paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.calls))
	for i, c := range n.calls {
		out[i] = c.Path
	}
	return out
}

func newTestController(t *testing.T, b *fakeBackend, s *fakeStore, n *recordingNavigator, timeout time.Duration) *Controller {
	t.Helper()
	c := NewController(b, s, n, Config{
		ProfileTimeout: timeout,
		RedirectTo:     "http://localhost:5173/sign-in",
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	t.Cleanup(c.Close)
	return c
}

func startAndWait(t *testing.T, c *Controller) {
	t.Helper()
	require.NoError(t, c.Start(context.Background()))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.WaitInitialized(ctx))
}

func completedRow(id, name, email string, role domain.Role) domain.ProfileRow {
	done := true
	loc := "Austin, TX"
	return domain.ProfileRow{ID: id, Name: name, Email: email, Role: role, ProfileCompleted: &done, Location: &loc}
}

func janeSession() *domain.Session {
	return &domain.Session{UserID: "u-jane", Email: "jane@example.com", AccessToken: "tok"}
}

// ============================================================================
// Startup
// ============================================================================

func TestController_StartWithoutSessionIsAnonymous(t *testing.T) {
	b := newFakeBackend()
	store := &fakeStore{}
	nav := &recordingNavigator{}
	c := newTestController(t, b, store, nav, time.Second)

	assert.True(t, c.State().IsLoading)
	assert.False(t, c.State().IsInitialized)

	startAndWait(t, c)

	st := c.State()
	assert.Nil(t, st.User)
	assert.False(t, st.IsLoading)
	assert.True(t, st.IsInitialized)
	assert.Empty(t, nav.paths())
	assert.Equal(t, 0, store.selectCount())
}

func TestController_StartSessionQueryErrorStillInitializes(t *testing.T) {
	b := newFakeBackend()
	b.getSessionErr = errors.New("network unreachable")
	c := newTestController(t, b, &fakeStore{}, &recordingNavigator{}, time.Second)

	startAndWait(t, c)

	assert.Nil(t, c.State().User)
	assert.False(t, c.State().IsLoading)
}

func TestController_StartTwice(t *testing.T) {
	c := newTestController(t, newFakeBackend(), &fakeStore{}, &recordingNavigator{}, time.Second)
	require.NoError(t, c.Start(context.Background()))
	assert.ErrorIs(t, c.Start(context.Background()), ErrAlreadyStarted)
}

func TestController_RestoredCompleteProfileDoesNotNavigate(t *testing.T) {
	b := newFakeBackend()
	b.session = janeSession()
	store := &fakeStore{selectFn: func(id string) domain.ProfileLookup {
		return domain.Found(completedRow(id, "Jane Doe", "jane@example.com", domain.RolePatient))
	}}
	nav := &recordingNavigator{}
	c := newTestController(t, b, store, nav, time.Second)

	startAndWait(t, c)

	user := c.State().User
	require.NotNil(t, user)
	assert.True(t, user.ProfileCompleted)
	assert.Equal(t, "Jane Doe", user.Name)
	assert.Equal(t, "Austin, TX", user.Location)
	assert.Empty(t, nav.paths())
}

// ============================================================================
// Profile resolution
// ============================================================================

func TestController_ResolutionIsIdempotent(t *testing.T) {
	b := newFakeBackend()
	b.session = janeSession()
	store := &fakeStore{}
	nav := &recordingNavigator{}
	c := newTestController(t, b, store, nav, time.Second)

	startAndWait(t, c)
	first, err := json.Marshal(c.State().User)
	require.NoError(t, err)

	require.NoError(t, c.Refresh(context.Background()))
	second, err := json.Marshal(c.State().User)
	require.NoError(t, err)

	require.NoError(t, c.Refresh(context.Background()))
	third, err := json.Marshal(c.State().User)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.Equal(t, string(second), string(third))
	assert.Equal(t, []string{domain.PathPatientProfile}, nav.paths())
}

func TestController_FallbackProfile(t *testing.T) {
	tests := []struct {
		name     string
		session  *domain.Session
		lookup   domain.ProfileLookup
		wantName string
		wantRole domain.Role
		wantPath string
	}{
		{
			name:     "not found uses email local part and patient role",
			session:  janeSession(),
			lookup:   domain.NotFound(),
			wantName: "jane",
			wantRole: domain.RolePatient,
			wantPath: domain.PathPatientProfile,
		},
		{
			name: "lookup error uses metadata",
			session: &domain.Session{
				UserID:   "u-doc",
				Email:    "house@example.com",
				Metadata: domain.UserMetadata{Name: "Gregory House", Role: domain.RoleDoctor},
			},
			lookup:   domain.Failed(errors.New("connection reset")),
			wantName: "Gregory House",
			wantRole: domain.RoleDoctor,
			wantPath: domain.PathDoctorProfile,
		},
		{
			name: "unknown metadata role defaults to patient",
			session: &domain.Session{
				UserID:   "u-x",
				Email:    "x@example.com",
				Metadata: domain.UserMetadata{Role: "admin"},
			},
			lookup:   domain.NotFound(),
			wantName: "x",
			wantRole: domain.RolePatient,
			wantPath: domain.PathPatientProfile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFakeBackend()
			b.session = tt.session
			store := &fakeStore{selectFn: func(string) domain.ProfileLookup { return tt.lookup }}
			nav := &recordingNavigator{}
			c := newTestController(t, b, store, nav, time.Second)

			startAndWait(t, c)

			user := c.State().User
			require.NotNil(t, user)
			assert.Equal(t, tt.wantName, user.Name)
			assert.Equal(t, tt.wantRole, user.Role)
			assert.Equal(t, tt.session.Email, user.Email)
			assert.False(t, user.ProfileCompleted)
			assert.False(t, c.State().IsLoading)
			assert.Equal(t, []string{tt.wantPath}, nav.paths())
		})
	}
}

func TestController_ProfileTimeoutFallsBack(t *testing.T) {
	b := newFakeBackend()
	b.session = janeSession()
	release := make(chan struct{})
	store := &fakeStore{selectFn: func(id string) domain.ProfileLookup {
		<-release
		return domain.Found(completedRow(id, "Late Jane", "jane@example.com", domain.RolePatient))
	}}
	defer close(release)
	c := newTestController(t, b, store, &recordingNavigator{}, 30*time.Millisecond)

	startAndWait(t, c)

	user := c.State().User
	require.NotNil(t, user)
	assert.Equal(t, "jane", user.Name)
	assert.False(t, user.ProfileCompleted)
	assert.True(t, c.State().IsInitialized)
	assert.False(t, c.State().IsLoading)
}

func TestController_LateLookupResultIsDiscarded(t *testing.T) {
	b := newFakeBackend()
	b.session = janeSession()
	release := make(chan struct{})
	store := &fakeStore{selectFn: func(id string) domain.ProfileLookup {
		<-release
		return domain.Found(completedRow(id, "Late Jane", "jane@example.com", domain.RolePatient))
	}}
	c := newTestController(t, b, store, &recordingNavigator{}, 20*time.Millisecond)

	startAndWait(t, c)
	close(release)

	assert.Never(t, func() bool {
		u := c.State().User
		return u == nil || u.ProfileCompleted
	}, 100*time.Millisecond, 10*time.Millisecond)
}

// ============================================================================
// Navigation guard
// ============================================================================

func TestController_NavigationFiresOncePerSignIn(t *testing.T) {
	b := newFakeBackend()
	b.session = janeSession()
	store := &fakeStore{}
	nav := &recordingNavigator{}
	c := newTestController(t, b, store, nav, time.Second)

	require.NoError(t, c.Start(context.Background()))
	// The subscription reports the same session the one-shot query returns.
	b.emit(domain.EventSignedIn, janeSession())

	require.Eventually(t, func() bool { return store.selectCount() == 2 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return len(nav.paths()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return len(nav.paths()) > 1 }, 100*time.Millisecond, 10*time.Millisecond)
	assert.Equal(t, domain.PathPatientProfile, nav.paths()[0])
}

func TestController_LoginNavigatesToDashboardOnce(t *testing.T) {
	b := newFakeBackend()
	store := &fakeStore{selectFn: func(id string) domain.ProfileLookup {
		return domain.Found(completedRow(id, "Dr. Who", "who@example.com", domain.RoleDoctor))
	}}
	nav := &recordingNavigator{}
	c := newTestController(t, b, store, nav, time.Second)
	startAndWait(t, c)

	require.NoError(t, c.Login(context.Background(), "who@example.com", "secret"))

	require.Eventually(t, func() bool {
		u := c.State().User
		return u != nil && u.ProfileCompleted && !c.State().IsLoading
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return len(nav.paths()) == 1 }, time.Second, 5*time.Millisecond)

	// A repeated event for the same sign-in re-resolves but does not redirect.
	b.emit(domain.EventSignedIn, &domain.Session{UserID: "user-who@example.com", Email: "who@example.com"})
	require.Eventually(t, func() bool { return store.selectCount() == 2 }, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return len(nav.paths()) > 1 }, 100*time.Millisecond, 10*time.Millisecond)
	assert.Equal(t, []string{domain.PathDashboard}, nav.paths())
}

func TestController_NewLoginCycleResetsGuard(t *testing.T) {
	b := newFakeBackend()
	store := &fakeStore{}
	nav := &recordingNavigator{}
	c := newTestController(t, b, store, nav, time.Second)
	startAndWait(t, c)

	require.NoError(t, c.Login(context.Background(), "a@example.com", "pw"))
	require.Eventually(t, func() bool { return len(nav.paths()) == 1 }, time.Second, 5*time.Millisecond)

	c.Logout(context.Background())
	require.NoError(t, c.Login(context.Background(), "a@example.com", "pw"))
	require.Eventually(t, func() bool { return len(nav.paths()) == 3 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{domain.PathPatientProfile, domain.PathLanding, domain.PathPatientProfile}, nav.paths())
}

// ============================================================================
// Login / Signup
// ============================================================================

func TestController_LoginFailure(t *testing.T) {
	tests := []struct {
		name       string
		backendErr error
		wantReason string
	}{
		{
			name:       "typed backend error passes through",
			backendErr: &domain.AuthenticationError{Reason: "Invalid login credentials", Status: 400},
			wantReason: "Invalid login credentials",
		},
		{
			name:       "plain error message kept verbatim",
			backendErr: errors.New("Email not confirmed"),
			wantReason: "Email not confirmed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFakeBackend()
			b.signInErr = tt.backendErr
			nav := &recordingNavigator{}
			c := newTestController(t, b, &fakeStore{}, nav, time.Second)
			startAndWait(t, c)

			err := c.Login(context.Background(), "jane@example.com", "wrong")
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrAuthentication))
			assert.Equal(t, tt.wantReason, err.Error())
			assert.False(t, c.State().IsLoading)
			assert.Nil(t, c.State().User)
			assert.Empty(t, nav.paths())
		})
	}
}

func TestController_FailedSignInDoesNotArmDashboardRedirect(t *testing.T) {
	b := newFakeBackend()
	b.session = janeSession()
	store := &fakeStore{selectFn: func(id string) domain.ProfileLookup {
		return domain.Found(completedRow(id, "Jane Doe", "jane@example.com", domain.RolePatient))
	}}
	nav := &recordingNavigator{}
	c := newTestController(t, b, store, nav, time.Second)
	startAndWait(t, c)
	require.Empty(t, nav.paths())

	b.signInErr = &domain.AuthenticationError{Reason: "Invalid login credentials", Status: 400}
	require.Error(t, c.Login(context.Background(), "jane@example.com", "wrong"))

	b.signUpErr = &domain.AuthenticationError{Reason: "User already registered", Status: 422}
	_, err := c.Signup(context.Background(), "Jane", "jane@example.com", "pw", domain.RolePatient)
	require.Error(t, err)

	b.emit(domain.EventUserUpdated, janeSession())
	require.Eventually(t, func() bool { return store.selectCount() == 2 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return !c.State().IsLoading }, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return len(nav.paths()) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
	assert.True(t, c.State().User.ProfileCompleted)
}

func TestController_SignupNeedsConfirmation(t *testing.T) {
	b := newFakeBackend()
	b.signUpResp = &domain.SignUpResponse{UserID: "u-new", Email: "new@example.com"}
	store := &fakeStore{}
	nav := &recordingNavigator{}
	c := newTestController(t, b, store, nav, time.Second)
	startAndWait(t, c)

	res, err := c.Signup(context.Background(), "New Doc", "new@example.com", "Passw0rd!", domain.RoleDoctor)
	require.NoError(t, err)

	assert.True(t, res.NeedsConfirmation)
	assert.False(t, c.State().IsLoading)
	assert.Nil(t, c.State().User)
	assert.Equal(t, domain.UserMetadata{Name: "New Doc", Role: domain.RoleDoctor}, b.signUpMeta)
	assert.Equal(t, "http://localhost:5173/sign-in", b.signUpRedir)
	assert.Never(t, func() bool { return store.selectCount() > 0 || len(nav.paths()) > 0 },
		50*time.Millisecond, 10*time.Millisecond)
}

func TestController_SignupWithSessionResolvesViaEvent(t *testing.T) {
	b := newFakeBackend()
	s := &domain.Session{
		UserID:   "u-doc",
		Email:    "doc@example.com",
		Metadata: domain.UserMetadata{Name: "Doc", Role: domain.RoleDoctor},
	}
	b.signUpResp = &domain.SignUpResponse{UserID: s.UserID, Email: s.Email, Session: s}
	nav := &recordingNavigator{}
	c := newTestController(t, b, &fakeStore{}, nav, time.Second)
	startAndWait(t, c)

	res, err := c.Signup(context.Background(), "Doc", "doc@example.com", "Passw0rd!", domain.RoleDoctor)
	require.NoError(t, err)
	assert.False(t, res.NeedsConfirmation)

	require.Eventually(t, func() bool { return c.State().User != nil }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return len(nav.paths()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, domain.RoleDoctor, c.State().User.Role)
	assert.Equal(t, domain.PathDoctorProfile, nav.paths()[0])
}

func TestController_SignupFailure(t *testing.T) {
	b := newFakeBackend()
	b.signUpErr = &domain.AuthenticationError{Reason: "User already registered", Status: 422}
	c := newTestController(t, b, &fakeStore{}, &recordingNavigator{}, time.Second)
	startAndWait(t, c)

	_, err := c.Signup(context.Background(), "Jane", "jane@example.com", "pw", domain.RolePatient)

	var authErr *domain.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "User already registered", authErr.Reason)
	assert.False(t, c.State().IsLoading)
}

// ============================================================================
// Logout
// ============================================================================

func TestController_LogoutClearsState(t *testing.T) {
	tests := []struct {
		name       string
		signOutErr error
	}{
		{name: "backend sign-out succeeds"},
		{name: "backend sign-out fails", signOutErr: errors.New("503 service unavailable")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFakeBackend()
			b.session = janeSession()
			b.signOutErr = tt.signOutErr
			nav := &recordingNavigator{}
			c := newTestController(t, b, &fakeStore{}, nav, time.Second)
			startAndWait(t, c)
			require.NotNil(t, c.State().User)

			c.Logout(context.Background())

			st := c.State()
			assert.Nil(t, st.User)
			assert.False(t, st.IsLoading)
			assert.Equal(t, 1, b.signOutCalls)
			assert.Equal(t, domain.PathLanding, nav.paths()[len(nav.paths())-1])
		})
	}
}

func TestController_SignedOutEventClearsUser(t *testing.T) {
	b := newFakeBackend()
	b.session = janeSession()
	c := newTestController(t, b, &fakeStore{}, &recordingNavigator{}, time.Second)
	startAndWait(t, c)
	require.NotNil(t, c.State().User)

	b.emit(domain.EventSignedOut, nil)

	assert.Nil(t, c.State().User)
}

// ============================================================================
// Profile updates
// ============================================================================

func TestController_UpdateProfileIsOptimistic(t *testing.T) {
	tests := []struct {
		name      string
		updateErr error
	}{
		{name: "write succeeds"},
		{name: "write fails", updateErr: errors.New("permission denied for table profiles")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFakeBackend()
			b.session = janeSession()
			store := &fakeStore{updateErr: tt.updateErr}
			c := newTestController(t, b, store, &recordingNavigator{}, time.Second)
			startAndWait(t, c)

			name := "New Name"
			c.UpdateProfile(context.Background(), domain.ProfileUpdate{Name: &name})

			assert.Equal(t, "New Name", c.State().User.Name)
			require.Len(t, store.updates, 1)
			assert.Equal(t, "New Name", *store.updates[0].Name)
		})
	}
}

func TestController_UpdateProfileWithoutUserIsNoop(t *testing.T) {
	store := &fakeStore{}
	c := newTestController(t, newFakeBackend(), store, &recordingNavigator{}, time.Second)
	startAndWait(t, c)

	name := "Nobody"
	c.UpdateProfile(context.Background(), domain.ProfileUpdate{Name: &name})

	assert.Nil(t, c.State().User)
	assert.Empty(t, store.updates)
}

func TestController_SnapshotsAreImmutable(t *testing.T) {
	b := newFakeBackend()
	b.session = janeSession()
	c := newTestController(t, b, &fakeStore{}, &recordingNavigator{}, time.Second)
	startAndWait(t, c)

	before := c.State()
	name := "Changed"
	c.UpdateProfile(context.Background(), domain.ProfileUpdate{Name: &name})

	assert.Equal(t, "jane", before.User.Name)
	assert.Equal(t, "Changed", c.State().User.Name)
}

func TestController_CompleteProfile(t *testing.T) {
	b := newFakeBackend()
	b.session = &domain.Session{
		UserID:   "u-doc",
		Email:    "doc@example.com",
		Metadata: domain.UserMetadata{Name: "Doc", Role: domain.RoleDoctor},
	}
	store := &fakeStore{}
	nav := &recordingNavigator{}
	c := newTestController(t, b, store, nav, time.Second)
	startAndWait(t, c)

	require.NoError(t, c.CompleteProfile(context.Background(), "Boston, MA", "Cardiology"))

	user := c.State().User
	assert.True(t, user.ProfileCompleted)
	assert.Equal(t, "Cardiology", user.Specialty)
	require.Len(t, store.upserts, 1)
	assert.Equal(t, "u-doc", store.upserts[0].ID)
	assert.Equal(t, "Boston, MA", *store.upserts[0].Location)
	assert.True(t, *store.upserts[0].ProfileCompleted)
	assert.Equal(t, []string{domain.PathDoctorProfile, domain.PathDashboard}, nav.paths())
}

func TestController_CompleteProfileFailureIsReturned(t *testing.T) {
	b := newFakeBackend()
	b.session = janeSession()
	store := &fakeStore{upsertErr: errors.New("duplicate key")}
	c := newTestController(t, b, store, &recordingNavigator{}, time.Second)
	startAndWait(t, c)

	err := c.CompleteProfile(context.Background(), "Austin, TX", "")

	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.False(t, c.State().User.ProfileCompleted)
}

func TestController_RefreshWithoutSession(t *testing.T) {
	c := newTestController(t, newFakeBackend(), &fakeStore{}, &recordingNavigator{}, time.Second)
	startAndWait(t, c)
	assert.ErrorIs(t, c.Refresh(context.Background()), domain.ErrNotAuthenticated)
}

// ============================================================================
// Teardown
// ============================================================================

func TestController_CloseMakesLateCallbacksInert(t *testing.T) {
	b := newFakeBackend()
	store := &fakeStore{}
	nav := &recordingNavigator{}
	c := newTestController(t, b, store, nav, time.Second)
	startAndWait(t, c)

	listener := b.lastListener
	c.Close()

	assert.Equal(t, 1, b.unsubscribed)
	listener(domain.EventSignedIn, janeSession())

	assert.Never(t, func() bool { return store.selectCount() > 0 || c.State().User != nil },
		50*time.Millisecond, 10*time.Millisecond)
	assert.Empty(t, nav.paths())
	assert.ErrorIs(t, c.Login(context.Background(), "a@example.com", "pw"), ErrClosed)
}

func TestController_SubscribeReceivesSnapshots(t *testing.T) {
	b := newFakeBackend()
	b.session = janeSession()
	c := newTestController(t, b, &fakeStore{}, &recordingNavigator{}, time.Second)

	ch, cancel := c.Subscribe()
	defer cancel()

	first := <-ch
	assert.False(t, first.IsInitialized)

	require.NoError(t, c.Start(context.Background()))
	timeout := time.After(2 * time.Second)
	for {
		select {
		case st := <-ch:
			if st.IsInitialized {
				require.NotNil(t, st.User)
				assert.Equal(t, "u-jane", st.User.ID)
				return
			}
		case <-timeout:
			t.Fatal("no initialized snapshot delivered")
		}
	}
}
