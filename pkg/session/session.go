// Package session owns the authenticated-user identity and the session
// lifecycle. It is the single writer of session-invalidation side effects:
// the HTTP layer only signals authorization failures over the event bus and
// this store decides what happens.
package session

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/taskwell/core/errors"
	"github.com/taskwell/core/logging"
	"github.com/taskwell/core/pkg/api"
	"github.com/taskwell/core/pkg/events"
	"github.com/taskwell/core/pkg/models"
	"github.com/taskwell/core/pkg/notify"
	"github.com/taskwell/core/state"
)

// Status reports whether the initial identity check has completed. It moves
// from Loading to Ready exactly once per store lifetime; a later Refresh is
// silent and never re-enters Loading.
type Status int

const (
	StatusLoading Status = iota
	StatusReady
)

// Destination is a navigation hint emitted after lifecycle transitions. The
// store does not own routing; the view layer decides what a destination
// means.
type Destination string

const (
	DestinationDashboard Destination = "dashboard"
	DestinationLogin     Destination = "login"
)

// Options wires a Store to its collaborators.
type Options struct {
	Client   *api.Client
	Notifier *notify.Queue
	Tokens   *state.Store
	// AuthEvents is the forced-logout bus the HTTP layer publishes on.
	AuthEvents *events.Bus
	// Navigate receives destination hints. May be nil.
	Navigate func(Destination)
}

// Store is the single source of truth for "who is logged in".
type Store struct {
	mu     sync.Mutex
	user   *models.User
	status Status

	client      *api.Client
	notifier    *notify.Queue
	tokens      *state.Store
	navigate    func(Destination)
	unsubscribe func()
	log         *logrus.Entry
}

// NewStore creates a session store and subscribes it to the forced-logout
// bus. Construct exactly one per process, at startup.
func NewStore(opts Options) *Store {
	s := &Store{
		status:   StatusLoading,
		client:   opts.Client,
		notifier: opts.Notifier,
		tokens:   opts.Tokens,
		navigate: opts.Navigate,
		log:      logging.NewLogger("session"),
	}
	if opts.AuthEvents != nil {
		s.unsubscribe = opts.AuthEvents.Subscribe(s.handleForcedLogout)
	}
	return s
}

// Close detaches the store from the forced-logout bus.
func (s *Store) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// SetNavigate installs the navigation callback after construction. The CLI
// and the TUI route differently, so this is late-bound.
func (s *Store) SetNavigate(fn func(Destination)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navigate = fn
}

// User returns the current identity, or nil when anonymous.
func (s *Store) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Status reports whether the initial identity check has completed.
func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Refresh queries the identity endpoint and updates the stored user. Any
// failure, auth or transport, is absorbed: an unauthenticated state is a
// normal outcome here, not an error.
func (s *Store) Refresh(ctx context.Context) {
	user, err := s.client.Me(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.log.WithError(err).Debug("identity check failed, treating as anonymous")
		s.user = nil
	} else {
		s.user = user
	}
	s.status = StatusReady
}

// Login submits credentials, persists the returned token, and refreshes the
// identity. On failure the error notification carries the server's message
// and the error is re-raised so callers can attach field-level form errors.
func (s *Store) Login(ctx context.Context, username, password string) error {
	auth, err := s.client.Login(ctx, username, password)
	if err != nil {
		s.notifier.Error(errors.Message(err))
		return err
	}

	if auth.AccessToken != "" {
		if err := s.tokens.SetToken(auth.AccessToken); err != nil {
			wrapped := errors.Wrap(err, errors.ErrCodeInternal, "could not persist session token")
			s.notifier.Error(wrapped.Message)
			return wrapped
		}
	}

	s.Refresh(ctx)
	s.notifier.Success("Successfully logged in")
	s.navigateTo(DestinationDashboard)
	return nil
}

// Register creates an account. Registration does not authenticate; on
// success the caller is pointed at the login screen. Failures are re-raised
// for field-error mapping after notifying.
func (s *Store) Register(ctx context.Context, req models.CreateUserRequest) error {
	if err := s.client.Register(ctx, req); err != nil {
		s.notifier.Error(errors.Message(err))
		return err
	}

	s.notifier.Success("Registration successful! Please login.")
	s.navigateTo(DestinationLogin)
	return nil
}

// Logout ends the session. The remote call is best-effort: local state is
// cleared unconditionally even when the server is unreachable.
func (s *Store) Logout(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.user = nil
		s.mu.Unlock()
		if err := s.tokens.ClearToken(); err != nil {
			s.log.WithError(err).Warn("could not clear persisted token")
		}
		s.navigateTo(DestinationLogin)
	}()

	if err := s.client.Logout(ctx); err != nil {
		s.log.WithError(err).Debug("remote logout failed, clearing local state anyway")
		return
	}
	s.notifier.Success("Logged out successfully")
}

// handleForcedLogout reacts to the transport layer observing a 401 on a
// protected endpoint. Re-delivery while already anonymous is suppressed so
// racing 401s produce a single notification.
func (s *Store) handleForcedLogout() {
	s.mu.Lock()
	wasAuthenticated := s.user != nil
	s.user = nil
	s.mu.Unlock()

	if err := s.tokens.ClearToken(); err != nil {
		s.log.WithError(err).Warn("could not clear persisted token")
	}

	if !wasAuthenticated {
		return
	}

	s.log.Info("session invalidated by server")
	s.notifier.Info("Session expired. Please login again.")
	s.navigateTo(DestinationLogin)
}

func (s *Store) navigateTo(dest Destination) {
	s.mu.Lock()
	fn := s.navigate
	s.mu.Unlock()
	if fn != nil {
		fn(dest)
	}
}
