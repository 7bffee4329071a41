package middleware

import (
	"context"
	"errors"
	"net/http"

	"go-blog-app/internal/data"
	"go-blog-app/internal/identity"
	"go-blog-app/internal/logger"
	"go-blog-app/internal/session"
)

// UserLookup finds the account behind a session.
type UserLookup interface {
	GetUserByID(ctx context.Context, id int64) (*data.User, error)
}

// LoadIdentity puts the logged-in user into the request context.
// Sessions pointing at a missing or deactivated account are treated as anonymous.
func LoadIdentity(sm session.Manager, users UserLookup, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			info := &identity.UserInfo{}

			if id := sm.GetInt64(ctx, session.UserIDKey); id != 0 {
				user, err := users.GetUserByID(ctx, id)
				switch {
				case err == nil && user.IsActive:
					info = &identity.UserInfo{ID: user.ID, Username: user.Username}
				case err == nil || errors.Is(err, data.ErrNotFound):
					sm.Remove(ctx, session.UserIDKey)
					sm.Remove(ctx, session.UsernameKey)
				default:
					log.Error(err, "Failed to load session user")
				}
			}

			next.ServeHTTP(w, r.WithContext(identity.With(ctx, info)))
		})
	}
}
