// Package identity carries the requesting user through the request context.
package identity

import "context"

// Roles used as casbin subjects.
const (
	RoleAnonymous = "anonymous"
	RoleMember    = "member"
)

type contextKey string

const userContextKey = contextKey("user")

// UserInfo represents the essential user information loaded for a request.
type UserInfo struct {
	ID       int64
	Username string
}

// Authenticated reports whether the request carries a logged-in user.
func (u *UserInfo) Authenticated() bool {
	return u != nil && u.ID != 0
}

// Role returns the casbin subject for the user.
func (u *UserInfo) Role() string {
	if u.Authenticated() {
		return RoleMember
	}
	return RoleAnonymous
}

// From retrieves the user information from the request context.
func From(ctx context.Context) *UserInfo {
	if userInfo, ok := ctx.Value(userContextKey).(*UserInfo); ok {
		return userInfo
	}
	// Return an anonymous user if no user info is found in the context.
	return &UserInfo{}
}

// With adds the user information to the request context.
func With(ctx context.Context, userInfo *UserInfo) context.Context {
	return context.WithValue(ctx, userContextKey, userInfo)
}
