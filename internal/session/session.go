// Package session is the boundary to the identity provider. Signing out
// erases the résumé held on this machine.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var ErrSignedOut = errors.New("not signed in")

type User struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photoUrl,omitempty"`
}

// Initials is what the navigation shows when there is no photo.
func (u User) Initials() string {
	var out []rune
	for _, f := range strings.Fields(u.DisplayName) {
		out = append(out, []rune(f)[0])
		if len(out) == 2 {
			break
		}
	}
	return strings.ToUpper(string(out))
}

// Provider is an identity provider.
type Provider interface {
	CurrentUser() *User
	SignIn(ctx context.Context) error
	SignOut(ctx context.Context) error
}

// Clearer erases the working document.
type Clearer interface {
	ClearDocument() error
}

type ClearFunc func() error

func (f ClearFunc) ClearDocument() error { return f() }

// Session couples the provider with the document a signed-in user edits.
type Session struct {
	provider Provider
	doc      Clearer
	log      *zap.Logger
}

func New(p Provider, doc Clearer, log *zap.Logger) *Session {
	return &Session{provider: p, doc: doc, log: log}
}

func (s *Session) User() *User { return s.provider.CurrentUser() }

func (s *Session) SignedIn() bool { return s.provider.CurrentUser() != nil }

func (s *Session) SignIn(ctx context.Context) (*User, error) {
	if err := s.provider.SignIn(ctx); err != nil {
		return nil, err
	}
	u := s.provider.CurrentUser()
	if u == nil {
		return nil, ErrSignedOut
	}
	s.log.Info("signed in", zap.String("user", u.Email))
	return u, nil
}

// SignOut ends the session and clears the document.
func (s *Session) SignOut(ctx context.Context) error {
	if err := s.provider.SignOut(ctx); err != nil {
		return err
	}
	if err := s.doc.ClearDocument(); err != nil {
		s.log.Warn("clearing document on sign-out failed", zap.Error(err))
		return err
	}
	s.log.Info("signed out, document cleared")
	return nil
}

// LocalProvider signs in the single user configured for this machine.
type LocalProvider struct {
	user User

	mu       sync.RWMutex
	signedIn bool
}

func NewLocalProvider(displayName, email string) *LocalProvider {
	return &LocalProvider{user: User{DisplayName: displayName, Email: email}}
}

func (p *LocalProvider) CurrentUser() *User {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.signedIn {
		return nil
	}
	u := p.user
	return &u
}

func (p *LocalProvider) SignIn(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.signedIn = true
	p.mu.Unlock()
	return nil
}

func (p *LocalProvider) SignOut(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.signedIn = false
	p.mu.Unlock()
	return nil
}
