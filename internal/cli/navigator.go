package cli

import (
	"fmt"
	"io"
	"sync"

	"heather-backend/internal/domain"
)

var screenTitles = map[string]string{
	domain.PathLanding:        "Welcome to HEATHER",
	domain.PathSignIn:         "Sign in",
	domain.PathSignUp:         "Create an account",
	domain.PathDashboard:      "Dashboard",
	domain.PathDoctorProfile:  "Complete your doctor profile",
	domain.PathPatientProfile: "Complete your patient profile",
	domain.PathMessages:       "Messages",
	domain.PathHealthAnalysis: "Health document analysis",
}

// ScreenTitle returns the heading shown for path.
func ScreenTitle(path string) string {
	if t, ok := screenTitles[path]; ok {
		return t
	}
	return path
}

// Navigator keeps a screen history and prints each screen it lands on. It is
// safe for concurrent use; the session controller navigates from its own
// goroutines.
type Navigator struct {
	mu      sync.Mutex
	out     io.Writer
	history []string
}

var _ domain.Navigator = (*Navigator)(nil)

func NewNavigator(out io.Writer) *Navigator {
	return &Navigator{out: out, history: []string{domain.PathLanding}}
}

// Navigate pushes path, or replaces the current entry when replace is set.
func (n *Navigator) Navigate(path string, replace bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if replace && len(n.history) > 0 {
		n.history[len(n.history)-1] = path
	} else {
		n.history = append(n.history, path)
	}
	fmt.Fprintf(n.out, "\n== %s ==\n", ScreenTitle(path))
}

// Back pops the current screen. It reports false at the first screen.
func (n *Navigator) Back() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.history) <= 1 {
		return n.history[0], false
	}
	n.history = n.history[:len(n.history)-1]
	path := n.history[len(n.history)-1]
	fmt.Fprintf(n.out, "\n== %s ==\n", ScreenTitle(path))
	return path, true
}

func (n *Navigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.history[len(n.history)-1]
}

// History returns a copy of the screen stack, oldest first.
func (n *Navigator) History() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.history...)
}
