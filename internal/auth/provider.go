package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Identity is a signed-in user as seen by the rest of the system.
type Identity struct {
	UserID string
	Token  string
}

// Provider defines the interface of an identity provider.
// This abstraction allows swapping between anonymous tokens and other sign-in
// methods without changing the sync or service layers.
type Provider interface {
	// SignInAnonymous creates a fresh identity.
	SignInAnonymous(ctx context.Context) (Identity, error)

	// SignInWithToken resumes the identity a previously issued token belongs to.
	SignInWithToken(ctx context.Context, token string) (Identity, error)

	// OnIdentityChange registers fn for identity changes. fn receives the zero
	// Identity on sign-out. The returned function unregisters fn.
	OnIdentityChange(fn func(Identity)) (unsubscribe func())
}

// Ensure Session implements Provider
var _ Provider = (*Session)(nil)

// Session is a Provider backed by self-issued JWTs. It holds the current
// identity of one client.
type Session struct {
	jwt *JWTManager

	mu        sync.Mutex
	current   Identity
	listeners map[int]func(Identity)
	nextID    int
}

// NewSession creates a signed-out session.
func NewSession(jwt *JWTManager) *Session {
	return &Session{jwt: jwt, listeners: make(map[int]func(Identity))}
}

// SignInAnonymous mints a new user ID and a token for it.
func (s *Session) SignInAnonymous(_ context.Context) (Identity, error) {
	userID := uuid.NewString()
	token, err := s.jwt.Generate(userID)
	if err != nil {
		return Identity{}, err
	}
	id := Identity{UserID: userID, Token: token}
	s.set(id)
	slog.Info("Anonymous sign-in", "user_id", userID)
	return id, nil
}

// SignInWithToken validates token and adopts its user.
func (s *Session) SignInWithToken(_ context.Context, token string) (Identity, error) {
	claims, err := s.jwt.Validate(token)
	if err != nil {
		return Identity{}, err
	}
	id := Identity{UserID: claims.UserID, Token: token}
	s.set(id)
	return id, nil
}

// SignOut drops the current identity and notifies listeners.
func (s *Session) SignOut() {
	s.set(Identity{})
}

// Current returns the signed-in identity, or the zero Identity.
func (s *Session) Current() Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// OnIdentityChange registers fn and, when signed in, calls it right away with
// the current identity.
func (s *Session) OnIdentityChange(fn func(Identity)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	current := s.current
	s.mu.Unlock()

	if current.UserID != "" {
		fn(current)
	}
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Session) set(id Identity) {
	s.mu.Lock()
	if s.current == id {
		s.mu.Unlock()
		return
	}
	s.current = id
	listeners := make([]func(Identity), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(id)
	}
}

// Bootstrap signs in with token when one is given and anonymously otherwise.
// Any failure is reported as ErrNotAuthenticated.
func Bootstrap(ctx context.Context, p Provider, token string) (Identity, error) {
	var (
		id  Identity
		err error
	)
	if token != "" {
		id, err = p.SignInWithToken(ctx, token)
	} else {
		id, err = p.SignInAnonymous(ctx)
	}
	if err != nil {
		slog.Warn("Sign-in failed", "with_token", token != "", "error", err)
		return Identity{}, fmt.Errorf("%w: %w", ErrNotAuthenticated, err)
	}
	return id, nil
}
