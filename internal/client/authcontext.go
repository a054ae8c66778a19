package client

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/VJYGOUR/auth-system/internal/models"
)

var (
	// ErrActionPending is returned when login, signup or logout is called
	// while another of them is in flight.
	ErrActionPending = errors.New("another authentication request is in progress")
	// ErrNotReady is returned when an action is attempted before the
	// initial session check has finished.
	ErrNotReady = errors.New("authentication state is not ready")
)

// Phase is the lifecycle stage of an AuthContext.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseChecking
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseChecking:
		return "checking"
	case PhaseReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// Action names the in-flight user action, if any.
type Action string

const (
	ActionNone   Action = ""
	ActionLogin  Action = "login"
	ActionSignup Action = "signup"
	ActionLogout Action = "logout"
)

// State is a snapshot of who the client is.
type State struct {
	User            *models.PublicUser
	IsAuthenticated bool
	// IsLoading is true until the initial check resolves and while an
	// action is in flight.
	IsLoading bool
	Phase     Phase
	Pending   Action
}

// SessionAPI is the server surface an AuthContext needs; *Client
// implements it.
type SessionAPI interface {
	Session(ctx context.Context) (models.PublicUser, error)
	Login(ctx context.Context, email, password string) (models.PublicUser, error)
	Signup(ctx context.Context, name, email, password string) (models.PublicUser, error)
	Logout(ctx context.Context) error
}

// AuthContext is the single holder of client authentication state. State
// only changes after the server answers.
type AuthContext struct {
	api SessionAPI

	mu     sync.Mutex
	state  State
	subs   map[int]chan State
	nextID int

	initOnce sync.Once
	ready    chan struct{}
}

// NewAuthContext creates an uninitialized AuthContext. Call Init once the
// application starts.
func NewAuthContext(api SessionAPI) *AuthContext {
	return &AuthContext{
		api:   api,
		state: State{Phase: PhaseUninitialized, IsLoading: true},
		subs:  make(map[int]chan State),
		ready: make(chan struct{}),
	}
}

// Init starts the one and only session check in the background. Later
// calls do nothing.
func (a *AuthContext) Init(ctx context.Context) {
	a.initOnce.Do(func() {
		a.update(func(s *State) { s.Phase = PhaseChecking })
		go a.check(ctx)
	})
}

func (a *AuthContext) check(ctx context.Context) {
	user, err := a.api.Session(ctx)
	if err != nil && !errors.Is(err, ErrUnauthenticated) {
		log.Warn().Err(err).Msg("Session check failed; continuing as anonymous")
	}

	a.update(func(s *State) {
		s.Phase = PhaseReady
		s.IsLoading = false
		if err == nil {
			s.User = &user
			s.IsAuthenticated = true
		}
	})
	close(a.ready)
}

// Ready is closed once the initial check has resolved.
func (a *AuthContext) Ready() <-chan struct{} {
	return a.ready
}

// Wait blocks until the initial check resolves or ctx ends.
func (a *AuthContext) Wait(ctx context.Context) (State, error) {
	select {
	case <-a.ready:
		return a.State(), nil
	case <-ctx.Done():
		return a.State(), ctx.Err()
	}
}

// State returns the current snapshot.
func (a *AuthContext) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Subscribe returns a channel that receives the latest state after every
// change, and a function to stop receiving. Slow readers only see the most
// recent state.
func (a *AuthContext) Subscribe() (<-chan State, func()) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.nextID
	a.nextID++
	ch := make(chan State, 1)
	ch <- a.state
	a.subs[id] = ch

	return ch, func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		if _, ok := a.subs[id]; ok {
			delete(a.subs, id)
			close(ch)
		}
	}
}

// Login authenticates and, on success, records the user.
func (a *AuthContext) Login(ctx context.Context, email, password string) error {
	if err := a.begin(ActionLogin); err != nil {
		return err
	}
	user, err := a.api.Login(ctx, email, password)
	a.finish(func(s *State) {
		if err == nil {
			s.User = &user
			s.IsAuthenticated = true
		}
	})
	return err
}

// Signup registers and, on success, records the new user.
func (a *AuthContext) Signup(ctx context.Context, name, email, password string) error {
	if err := a.begin(ActionSignup); err != nil {
		return err
	}
	user, err := a.api.Signup(ctx, name, email, password)
	a.finish(func(s *State) {
		if err == nil {
			s.User = &user
			s.IsAuthenticated = true
		}
	})
	return err
}

// Logout ends the session. Local state is cleared even when the request
// fails; the cookie still expires on its own. The request error is
// returned for reporting.
func (a *AuthContext) Logout(ctx context.Context) error {
	if err := a.begin(ActionLogout); err != nil {
		return err
	}
	err := a.api.Logout(ctx)
	a.finish(func(s *State) {
		s.User = nil
		s.IsAuthenticated = false
	})
	if err != nil {
		log.Warn().Err(err).Msg("Logout request failed; local session cleared")
	}
	return err
}

func (a *AuthContext) begin(action Action) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case a.state.Phase != PhaseReady:
		return ErrNotReady
	case a.state.Pending != ActionNone:
		return ErrActionPending
	}
	a.state.Pending = action
	a.state.IsLoading = true
	a.publishLocked()
	return nil
}

func (a *AuthContext) finish(apply func(*State)) {
	a.update(func(s *State) {
		apply(s)
		s.Pending = ActionNone
		s.IsLoading = false
	})
}

func (a *AuthContext) update(apply func(*State)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	apply(&a.state)
	a.publishLocked()
}

func (a *AuthContext) publishLocked() {
	for _, ch := range a.subs {
		select {
		case <-ch:
		default:
		}
		ch <- a.state
	}
}
