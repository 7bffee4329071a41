// Package token issues and verifies the signed one-shot links used for
// account activation and password reset.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go-blog-app/internal/data"

	"github.com/golang-jwt/jwt/v5"
)

// Purpose separates activation tokens from reset tokens.
type Purpose string

const (
	Activation    Purpose = "activate"
	PasswordReset Purpose = "reset"
)

// ErrInvalidUID is returned when a link's uid segment cannot be decoded.
var ErrInvalidUID = errors.New("invalid uid")

type claims struct {
	Purpose     Purpose `json:"purpose"`
	Fingerprint string  `json:"fp"`
	jwt.RegisteredClaims
}

// Generator signs tokens bound to the current state of a user.
// A token stops validating once that state changes: activation tokens
// when the account becomes active, reset tokens when the password hash
// or last login changes.
type Generator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewGenerator creates a Generator signing with secret. Tokens expire after ttl.
func NewGenerator(secret string, ttl time.Duration) *Generator {
	return &Generator{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock replaces the time source, for tests.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Make returns a token for the user and purpose.
func (g *Generator) Make(purpose Purpose, u *data.User) (string, error) {
	now := g.now()
	c := claims{
		Purpose:     purpose,
		Fingerprint: g.fingerprint(purpose, u),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Check reports whether tokenString was issued by Make for this user and
// purpose, has not expired, and the user's state has not changed since.
func (g *Generator) Check(purpose Purpose, u *data.User, tokenString string) bool {
	var c claims
	_, err := jwt.ParseWithClaims(tokenString, &c, func(*jwt.Token) (interface{}, error) {
		return g.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(g.now),
		jwt.WithSubject(strconv.FormatInt(u.ID, 10)),
		jwt.WithExpirationRequired(),
	)
	if err != nil || c.Purpose != purpose {
		return false
	}
	return hmac.Equal([]byte(c.Fingerprint), []byte(g.fingerprint(purpose, u)))
}

func (g *Generator) fingerprint(purpose Purpose, u *data.User) string {
	mac := hmac.New(sha256.New, g.secret)
	fmt.Fprintf(mac, "%s|%d|%s", purpose, u.ID, state(purpose, u))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func state(purpose Purpose, u *data.User) string {
	if purpose == Activation {
		return strconv.FormatBool(u.IsActive)
	}
	login := ""
	if u.LastLogin != nil {
		login = strconv.FormatInt(u.LastLogin.UTC().Unix(), 10)
	}
	return u.PasswordHash + "|" + login
}

// EncodeUID encodes a user id for use in a link.
func EncodeUID(id int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(id, 10)))
}

// DecodeUID reverses EncodeUID.
func DecodeUID(uid string) (int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return 0, ErrInvalidUID
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidUID
	}
	return id, nil
}
