package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	adminSubject = "admin"
	claimPwd     = "pwd"
)

// Token is an issued admin credential.
type Token struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Tokens issues and verifies HS256 admin tokens. Each token embeds a short
// fingerprint of the password hash it was issued against, so changing the
// password invalidates every outstanding token.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens returns a token issuer. secret must be non-empty and ttl
// positive.
func NewTokens(secret []byte, ttl time.Duration) (*Tokens, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: empty token secret")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token ttl must be > 0")
	}
	return &Tokens{secret: secret, ttl: ttl, now: time.Now}, nil
}

// Issue signs a token bound to passwordHash.
func (t *Tokens) Issue(passwordHash string) (Token, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	claims := jwt.MapClaims{
		"sub":    adminSubject,
		"iat":    now.Unix(),
		"exp":    exp.Unix(),
		claimPwd: fingerprint(passwordHash),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{Value: signed, ExpiresAt: time.Unix(exp.Unix(), 0).UTC()}, nil
}

// Verify checks signature, expiry and subject, and that the token was
// issued against passwordHash.
func (t *Tokens) Verify(raw, passwordHash string) error {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(tok *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(adminSubject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return err
	}
	pwd, _ := claims[claimPwd].(string)
	if pwd == "" || pwd != fingerprint(passwordHash) {
		return errors.New("auth: token issued for another password")
	}
	return nil
}

func fingerprint(hash string) string {
	sum := sha256.Sum256([]byte(hash))
	return hex.EncodeToString(sum[:8])
}
