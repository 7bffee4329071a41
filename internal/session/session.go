// Package session defines the session surface the handlers need and the keys
// they store in it.
package session

import (
	"context"
	"net/http"
)

// Keys stored in the session.
const (
	UserIDKey   = "user_id"
	UsernameKey = "username"
	FlashKey    = "flash"
	OIDCState   = "oidc_state"
)

// Manager is satisfied by *scs.SessionManager with any of its stores.
type Manager interface {
	LoadAndSave(next http.Handler) http.Handler
	Put(ctx context.Context, key string, val interface{})
	GetString(ctx context.Context, key string) string
	GetInt64(ctx context.Context, key string) int64
	PopString(ctx context.Context, key string) string
	RenewToken(ctx context.Context) error
	Destroy(ctx context.Context) error
	Remove(ctx context.Context, key string)
}

// Login renews the session token and records the user.
func Login(ctx context.Context, sm Manager, userID int64, username string) error {
	if err := sm.RenewToken(ctx); err != nil {
		return err
	}
	sm.Put(ctx, UserIDKey, userID)
	sm.Put(ctx, UsernameKey, username)
	return nil
}
