package middleware

import (
	"net/http"
	"net/url"

	"github.com/casbin/casbin/v2"
	"github.com/go-chi/chi/v5"

	"go-blog-app/internal/identity"
	"go-blog-app/internal/logger"
	"go-blog-app/internal/view"
)

// LoginPath is where anonymous users are sent when a route needs an account.
const LoginPath = "/accounts/login"

// Authorizer creates a new middleware for authorization.
// It checks the role of the request identity against the matched chi route
// pattern, so it must run inside the router (Group or With), after LoadIdentity.
func Authorizer(e casbin.IEnforcer, v *view.View, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := identity.From(r.Context())
			pattern := chi.RouteContext(r.Context()).RoutePattern()

			allowed, err := e.Enforce(user.Role(), pattern, r.Method)
			if err != nil {
				log.Error(err, "Authorization error")
				renderError(w, r, log, v, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
				return
			}

			if !allowed {
				if !user.Authenticated() {
					http.Redirect(w, r, LoginPath+"?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
					return
				}
				renderError(w, r, log, v, http.StatusForbidden, http.StatusText(http.StatusForbidden))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
