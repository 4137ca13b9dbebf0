package auth

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// Session holds the current user of a Provider and notifies subscribers when
// it changes.
type Session struct {
	provider Provider
	logger   *slog.Logger

	mu     sync.Mutex
	user   *User
	subs   map[int]func(*User)
	nextID int
}

// NewSession restores the provider's current user. A provider that cannot
// report one leaves the session signed out.
func NewSession(ctx context.Context, provider Provider, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		provider: provider,
		logger:   logger.With("component", "session"),
		subs:     make(map[int]func(*User)),
	}
	user, err := provider.CurrentUser(ctx)
	if err != nil {
		s.logger.Warn("failed to restore session", "error", err)
	}
	s.user = user
	return s
}

// User returns the signed-in user or nil.
func (s *Session) User() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyUser(s.user)
}

func (s *Session) SignedIn() bool {
	return s.User() != nil
}

func (s *Session) SignIn(ctx context.Context, email, password string) (*User, error) {
	user, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.logger.Info("signed in", "user_id", user.ID)
	s.publish(user)
	return copyUser(user), nil
}

func (s *Session) SignUp(ctx context.Context, email, password string) (*User, error) {
	user, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.logger.Info("account created", "user_id", user.ID)
	s.publish(user)
	return copyUser(user), nil
}

func (s *Session) SignOut(ctx context.Context) error {
	if err := s.provider.SignOut(ctx); err != nil {
		return err
	}
	s.publish(nil)
	return nil
}

// Subscribe calls fn with the current user now and on every change.
func (s *Session) Subscribe(fn func(*User)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	current := copyUser(s.user)
	s.mu.Unlock()

	fn(current)

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Session) publish(user *User) {
	s.mu.Lock()
	s.user = copyUser(user)
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(*User), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(copyUser(user))
	}
}

func copyUser(u *User) *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
