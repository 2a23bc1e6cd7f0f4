// Package cli is the HEATHER terminal client: a command loop over one
// session controller.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"heather-backend/internal/domain"
)

// Session is the part of *session.Controller the client drives.
type Session interface {
	State() domain.AuthState
	Subscribe() (<-chan domain.AuthState, func())
	WaitInitialized(ctx context.Context) error
	Login(ctx context.Context, email, password string) error
	Signup(ctx context.Context, name, email, password string, role domain.Role) (domain.SignupResult, error)
	Logout(ctx context.Context)
	UpdateProfile(ctx context.Context, update domain.ProfileUpdate)
	CompleteProfile(ctx context.Context, location, specialty string) error
	Refresh(ctx context.Context) error
}

// settleTimeout bounds the wait for profile resolution after a command.
// Resolution itself gives up after at most ten seconds.
const settleTimeout = 15 * time.Second

type App struct {
	session Session
	nav     *Navigator
	prompt  *Prompter
	out     io.Writer
	settle  time.Duration
}

func NewApp(session Session, nav *Navigator, prompt *Prompter, out io.Writer) *App {
	return &App{session: session, nav: nav, prompt: prompt, out: out, settle: settleTimeout}
}

// SyncWriter serialises writes from the command loop and the navigator.
type SyncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewSyncWriter(w io.Writer) *SyncWriter {
	return &SyncWriter{w: w}
}

func (s *SyncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

type command struct {
	usage string
	help  string
	run   func(ctx context.Context, args []string) error
}

func (a *App) commands() map[string]command {
	return map[string]command{
		"help":     {"help", "list commands", a.help},
		"status":   {"status", "show the signed-in user", a.status},
		"login":    {"login", "sign in with email and password", a.login},
		"signup":   {"signup", "create a doctor or patient account", a.signup},
		"logout":   {"logout", "sign out", a.logout},
		"complete": {"complete", "fill in the profile completion form", a.complete},
		"update":   {"update <name|location|specialty|image> <value>", "change one profile field", a.update},
		"refresh":  {"refresh", "reload the profile", a.refresh},
		"go":       {"go <dashboard|messages|analysis>", "open a screen", a.goTo},
		"back":     {"back", "return to the previous screen", a.back},
	}
}

// Run waits for the initial session, then reads commands until quit, EOF or
// ctx ends.
func (a *App) Run(ctx context.Context) error {
	initCtx, cancel := context.WithTimeout(ctx, a.settle)
	err := a.session.WaitInitialized(initCtx)
	cancel()
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	a.printUser(a.session.State())

	cmds := a.commands()
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := a.prompt.Line("heather> ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		name, args := strings.ToLower(fields[0]), fields[1:]
		if name == "quit" || name == "exit" {
			return nil
		}

		cmd, ok := cmds[name]
		if !ok {
			fmt.Fprintf(a.out, "unknown command %q, try \"help\"\n", name)
			continue
		}
		if err := cmd.run(ctx, args); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			fmt.Fprintf(a.out, "error: %v\n", err)
		}
	}
}

func (a *App) help(context.Context, []string) error {
	cmds := a.commands()
	order := []string{"status", "login", "signup", "logout", "complete", "update", "refresh", "go", "back", "help"}
	for _, name := range order {
		fmt.Fprintf(a.out, "  %-50s %s\n", cmds[name].usage, cmds[name].help)
	}
	fmt.Fprintf(a.out, "  %-50s %s\n", "quit", "leave")
	return nil
}

func (a *App) status(context.Context, []string) error {
	a.printUser(a.session.State())
	fmt.Fprintf(a.out, "screen: %s\n", ScreenTitle(a.nav.Current()))
	return nil
}

func (a *App) login(ctx context.Context, _ []string) error {
	if a.session.State().IsAuthenticated() {
		return errors.New("already signed in, log out first")
	}
	email, err := a.prompt.Required("email: ")
	if err != nil {
		return err
	}
	password, err := a.prompt.Password("password: ")
	if err != nil {
		return err
	}

	if err := a.session.Login(ctx, email, password); err != nil {
		return err
	}
	a.printUser(a.waitSettled(ctx))
	return nil
}

func (a *App) signup(ctx context.Context, _ []string) error {
	if a.session.State().IsAuthenticated() {
		return errors.New("already signed in, log out first")
	}
	name, err := a.prompt.Required("full name: ")
	if err != nil {
		return err
	}
	email, err := a.prompt.Required("email: ")
	if err != nil {
		return err
	}
	password, err := a.prompt.Password("password: ")
	if err != nil {
		return err
	}
	role, err := a.prompt.Choice("role", string(domain.RolePatient), string(domain.RoleDoctor))
	if err != nil {
		return err
	}

	res, err := a.session.Signup(ctx, name, email, password, domain.Role(role))
	if err != nil {
		return err
	}
	if res.NeedsConfirmation {
		fmt.Fprintf(a.out, "Check %s for a confirmation link, then log in.\n", email)
		return nil
	}
	a.printUser(a.waitSettled(ctx))
	return nil
}

func (a *App) logout(ctx context.Context, _ []string) error {
	if !a.session.State().IsAuthenticated() {
		return domain.ErrNotAuthenticated
	}
	a.session.Logout(ctx)
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

func (a *App) complete(ctx context.Context, _ []string) error {
	st := a.session.State()
	if st.User == nil {
		return domain.ErrNotAuthenticated
	}
	if st.User.ProfileCompleted {
		fmt.Fprintln(a.out, "Your profile is already complete.")
		return nil
	}

	city, err := a.prompt.Required("city: ")
	if err != nil {
		return err
	}
	state, err := a.prompt.Required("state: ")
	if err != nil {
		return err
	}
	var specialty string
	if st.User.Role == domain.RoleDoctor {
		specialty, err = a.prompt.Choice("specialty", domain.Specialties...)
		if err != nil {
			return err
		}
	}

	if err := a.session.CompleteProfile(ctx, fmt.Sprintf("%s, %s", city, state), specialty); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Profile saved.")
	return nil
}

func (a *App) update(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: update <name|location|specialty|image> <value>")
	}
	if !a.session.State().IsAuthenticated() {
		return domain.ErrNotAuthenticated
	}

	value := strings.Join(args[1:], " ")
	var u domain.ProfileUpdate
	switch strings.ToLower(args[0]) {
	case "name":
		u.Name = &value
	case "location":
		u.Location = &value
	case "specialty":
		if !domain.IsValidSpecialty(value) {
			return fmt.Errorf("unknown specialty %q", value)
		}
		u.Specialty = &value
	case "image":
		u.ImageURL = &value
	default:
		return fmt.Errorf("unknown field %q", args[0])
	}

	a.session.UpdateProfile(ctx, u)
	a.printUser(a.session.State())
	return nil
}

func (a *App) refresh(ctx context.Context, _ []string) error {
	if err := a.session.Refresh(ctx); err != nil {
		return err
	}
	a.printUser(a.session.State())
	return nil
}

var goTargets = map[string]string{
	"dashboard": domain.PathDashboard,
	"messages":  domain.PathMessages,
	"analysis":  domain.PathHealthAnalysis,
}

func (a *App) goTo(_ context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: go <dashboard|messages|analysis>")
	}
	path, ok := goTargets[strings.ToLower(args[0])]
	if !ok {
		return fmt.Errorf("unknown screen %q", args[0])
	}
	st := a.session.State()
	if st.User == nil {
		return domain.ErrNotAuthenticated
	}
	if !st.User.ProfileCompleted {
		a.nav.Navigate(domain.CompletionPath(st.User.Role), true)
		return errors.New("complete your profile first")
	}
	a.nav.Navigate(path, false)
	return nil
}

func (a *App) back(context.Context, []string) error {
	if _, ok := a.nav.Back(); !ok {
		fmt.Fprintln(a.out, "Already at the first screen.")
	}
	return nil
}

// waitSettled blocks until the controller is no longer loading.
func (a *App) waitSettled(ctx context.Context) domain.AuthState {
	ctx, cancel := context.WithTimeout(ctx, a.settle)
	defer cancel()

	ch, unsubscribe := a.session.Subscribe()
	defer unsubscribe()

	last := a.session.State()
	for {
		select {
		case st, ok := <-ch:
			if !ok {
				return last
			}
			last = st
			if !st.IsLoading {
				return st
			}
		case <-ctx.Done():
			return last
		}
	}
}

func (a *App) printUser(st domain.AuthState) {
	u := st.User
	if u == nil {
		fmt.Fprintln(a.out, "Not signed in.")
		return
	}
	completion := "complete"
	if !u.ProfileCompleted {
		completion = "incomplete"
	}
	fmt.Fprintf(a.out, "Signed in as %s <%s> (%s, profile %s)\n", u.Name, u.Email, roleLabel(u.Role), completion)
	if u.Location != "" {
		fmt.Fprintf(a.out, "  location: %s\n", u.Location)
	}
	if u.Specialty != "" {
		fmt.Fprintf(a.out, "  specialty: %s\n", u.Specialty)
	}
}

func roleLabel(r domain.Role) string {
	if r == domain.RoleUnset {
		return "no role"
	}
	return string(r)
}
