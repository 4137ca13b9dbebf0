package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/marco/movieDeck/internal/storage"
)

const (
	accountsKey = "moviedeck_accounts"
	sessionKey  = "moviedeck_session"
)

// account is the stored form of a user, including the password hash.
type account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

func (a account) user() *User {
	return &User{ID: a.ID, Email: a.Email, CreatedAt: a.CreatedAt}
}

// LocalProvider keeps accounts and the current session in a BlobStore. It is
// meant for a single machine; there is no server behind it.
type LocalProvider struct {
	mu    sync.Mutex
	store storage.BlobStore
	cost  int
	now   func() time.Time

	// dummyHash is compared against when an email is unknown.
	dummyHash []byte
}

// LocalOption configures a LocalProvider.
type LocalOption func(*LocalProvider)

// WithBcryptCost sets the hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) LocalOption {
	return func(p *LocalProvider) { p.cost = cost }
}

// WithClock overrides the time source for account creation.
func WithClock(now func() time.Time) LocalOption {
	return func(p *LocalProvider) { p.now = now }
}

func NewLocalProvider(store storage.BlobStore, opts ...LocalOption) *LocalProvider {
	p := &LocalProvider{
		store: store,
		cost:  bcrypt.DefaultCost,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("moviedeck-dummy-password"), p.cost)
	if err != nil {
		hash, _ = bcrypt.GenerateFromPassword([]byte("moviedeck-dummy-password"), bcrypt.DefaultCost)
	}
	p.dummyHash = hash
	return p
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (*User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	accounts, err := p.loadAccounts()
	if err != nil {
		return nil, err
	}
	for _, a := range accounts {
		if a.Email == email {
			return nil, ErrEmailInUse
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	acct := account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    p.now().UTC(),
	}
	if err := p.saveAccounts(append(accounts, acct)); err != nil {
		return nil, err
	}

	user := acct.user()
	if err := p.saveSession(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	accounts, err := p.loadAccounts()
	if err != nil {
		return nil, err
	}

	for _, a := range accounts {
		if a.Email != email {
			continue
		}
		if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
			return nil, ErrInvalidCredentials
		}
		user := a.user()
		if err := p.saveSession(user); err != nil {
			return nil, err
		}
		return user, nil
	}

	// Compare anyway so unknown emails take as long as wrong passwords
	_ = bcrypt.CompareHashAndPassword(p.dummyHash, []byte(password))
	return nil, ErrInvalidCredentials
}

func (p *LocalProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saveSession(nil)
}

func (p *LocalProvider) CurrentUser(ctx context.Context) (*User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	raw, found, err := p.store.Get(sessionKey)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if !found || raw == "" || raw == "null" {
		return nil, nil
	}
	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &user, nil
}

func (p *LocalProvider) loadAccounts() ([]account, error) {
	raw, found, err := p.store.Get(accountsKey)
	if err != nil {
		return nil, fmt.Errorf("read accounts: %w", err)
	}
	if !found || raw == "" {
		return nil, nil
	}
	var accounts []account
	if err := json.Unmarshal([]byte(raw), &accounts); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}
	return accounts, nil
}

func (p *LocalProvider) saveAccounts(accounts []account) error {
	data, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("encode accounts: %w", err)
	}
	if err := p.store.Set(accountsKey, string(data)); err != nil {
		return fmt.Errorf("write accounts: %w", err)
	}
	return nil
}

func (p *LocalProvider) saveSession(user *User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := p.store.Set(sessionKey, string(data)); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// normalizeEmail accepts a bare address only (no display name) and lowercases it.
func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}
