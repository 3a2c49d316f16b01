package sessionguard

import (
	"context"
	"sync"
	"time"
)

// Page identifies where the visitor currently is.
type Page string

const (
	PageLogin         Page = "/login"
	PagePublic        Page = "/"
	PageStudentPortal Page = "/portal/student"
	PageTutorPortal   Page = "/portal/tutor"
)

func isProtected(p Page) bool {
	return p == PageStudentPortal || p == PageTutorPortal
}

func portalForRole(role string) (Page, bool) {
	switch role {
	case "student":
		return PageStudentPortal, true
	case "tutor":
		return PageTutorPortal, true
	default:
		return "", false
	}
}

// HintStore holds the locally cached session hints (the localStorage
// analog). Hints are UI convenience only and must never gate access on
// their own.
type HintStore interface {
	Token() (string, bool)
	RoleHint() (string, bool)
	SetSession(token, role, email string)
	Clear()
}

// Navigator receives redirect decisions.
type Navigator interface {
	NavigateTo(p Page)
}

// State is the guard's verification state. It resets to Unverified on every
// check; there is no persistent terminal state.
type State int

const (
	Unverified State = iota
	Verified
)

// Guard re-checks session validity on every page load and reconciles the
// cached role hint with the page the visitor is on.
type Guard struct {
	api   *Client
	hints HintStore
	nav   Navigator
	state State
}

func NewGuard(api *Client, hints HintStore, nav Navigator) *Guard {
	return &Guard{api: api, hints: hints, nav: nav}
}

// State reports the outcome of the most recent check.
func (g *Guard) State() State { return g.state }

// Check runs the page-load session check. Any failure (network error,
// non-200, malformed body, or an explicit "not authenticated") fails
// closed: on a protected page the local hints are cleared and the visitor
// goes to login. This is the only path that clears hints.
func (g *Guard) Check(ctx context.Context, current Page) State {
	g.state = Unverified

	token, _ := g.hints.Token()
	status, err := g.api.VerifySession(ctx, token)
	if err != nil || !status.Authenticated {
		if isProtected(current) {
			g.hints.Clear()
			g.nav.NavigateTo(PageLogin)
		}
		return g.state
	}

	g.state = Verified

	// Reconcile the cached role hint with the portal the visitor is on.
	// Advisory routing only: the hint is client-controlled and never the
	// sole gate for anything sensitive.
	role, ok := g.hints.RoleHint()
	if !ok {
		role = status.Role
	}
	if expected, known := portalForRole(role); known && isProtected(current) && current != expected {
		g.nav.NavigateTo(expected)
	}
	return g.state
}

// Login authenticates against the gateway, caches the session hints and
// routes the visitor to the portal matching their role.
func (g *Guard) Login(ctx context.Context, email, password string) (LoginResult, error) {
	result, err := g.api.Login(ctx, email, password)
	if err != nil {
		return LoginResult{}, err
	}
	g.hints.SetSession(result.Token, result.Role, email)
	if portal, ok := portalForRole(result.Role); ok {
		g.nav.NavigateTo(portal)
	}
	return result, nil
}

// Logout clears the local hints and navigates to login. Server-side cookie
// expiry is the browser's and server's business, not the guard's.
func (g *Guard) Logout() {
	g.state = Unverified
	g.hints.Clear()
	g.nav.NavigateTo(PageLogin)
}

// Watch re-runs the check on a fixed interval for pages that poll, until
// the context is cancelled.
func (g *Guard) Watch(ctx context.Context, interval time.Duration, current Page) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.Check(ctx, current)
		}
	}
}

// MemoryHints is an in-memory HintStore used by tests and CLI tooling.
type MemoryHints struct {
	mu    sync.Mutex
	token string
	role  string
	email string
	set   bool
}

func (m *MemoryHints) Token() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.set && m.token != ""
}

func (m *MemoryHints) RoleHint() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.role, m.set && m.role != ""
}

func (m *MemoryHints) SetSession(token, role, email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token, m.role, m.email, m.set = token, role, email, true
}

func (m *MemoryHints) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token, m.role, m.email, m.set = "", "", "", false
}
