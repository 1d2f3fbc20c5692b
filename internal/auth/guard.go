package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/nailstudio/salon-backend/internal/domain"
)

// ErrUnauthorized is the single outcome of every failed check. Callers must
// not reveal which part of the check failed.
var ErrUnauthorized = errors.New("unauthorized")

// SettingsReader provides the current admin password hash.
type SettingsReader interface {
	Get(ctx context.Context) (domain.Settings, error)
}

// Guard validates admin credentials against the stored hash.
type Guard struct {
	Settings SettingsReader
	Tokens   *Tokens
	// AllowPasswordBearer also accepts the raw admin password as a bearer
	// value, for clients that predate token login.
	AllowPasswordBearer bool
}

// NewGuard wires a Guard.
func NewGuard(settings SettingsReader, tokens *Tokens, allowPasswordBearer bool) *Guard {
	return &Guard{Settings: settings, Tokens: tokens, AllowPasswordBearer: allowPasswordBearer}
}

// Login checks password with bcrypt and issues a token.
func (g *Guard) Login(ctx context.Context, password string) (Token, error) {
	if password == "" {
		return Token{}, ErrUnauthorized
	}
	s, err := g.Settings.Get(ctx)
	if err != nil {
		return Token{}, err
	}
	if !CheckPassword(s.AdminPassword, password) {
		return Token{}, ErrUnauthorized
	}
	return g.Tokens.Issue(s.AdminPassword)
}

// Authorize validates a bearer value on every admin request. It rereads the
// stored hash each time; there is no session store.
func (g *Guard) Authorize(ctx context.Context, bearer string) error {
	bearer = strings.TrimSpace(bearer)
	if bearer == "" {
		return ErrUnauthorized
	}
	s, err := g.Settings.Get(ctx)
	if err != nil {
		return err
	}
	if g.Tokens.Verify(bearer, s.AdminPassword) == nil {
		return nil
	}
	if g.AllowPasswordBearer && CheckPassword(s.AdminPassword, bearer) {
		return nil
	}
	return ErrUnauthorized
}
