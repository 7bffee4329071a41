package auth

import (
	"fmt"
	"net/http"

	"go-blog-app/internal/identity"
	"go-blog-app/internal/logger"

	"github.com/casbin/casbin/v2"
)

// Route patterns, shared with the router so that policies and routes cannot drift apart.
const (
	RouteIndex          = "/"
	RouteAbout          = "/about"
	RouteSearch         = "/search"
	RouteLogin          = "/accounts/login"
	RouteLogout         = "/accounts/logout"
	RouteRegister       = "/accounts/register"
	RouteActivationSent = "/accounts/activation-sent"
	RouteActivate       = "/accounts/activate/{uid}/{token}"
	RoutePasswordChange = "/accounts/password-change"
	RoutePasswordReset  = "/accounts/password-reset"
	RouteResetConfirm   = "/accounts/reset/{uid}/{token}"
	RouteOIDCLogin      = "/accounts/oidc/login"
	RouteOIDCCallback   = "/accounts/oidc/callback"
	RouteProfileCreate  = "/accounts/profile/create"
	RouteProfile        = "/profile/{username}"
	RouteProfileEdit    = "/profile/{username}/edit"
	RoutePages          = "/pages"
	RouteWrite          = "/write"
	RoutePageCreate     = "/pages/create"
	RouteMyPages        = "/me/pages"
	RouteMyBlogs        = "/me/blogs"
	RoutePage           = "/pages/{page}"
	RoutePageEdit       = "/pages/{page}/edit"
	RoutePageDelete     = "/pages/{page}/delete"
	RoutePost           = "/pages/{page}/post"
	RouteBlog           = "/pages/{page}/{blog}"
	RouteBlogEdit       = "/pages/{page}/{blog}/edit"
	RouteBlogDelete     = "/pages/{page}/{blog}/delete"
	RouteTag            = "/tags/{tag}"
	RouteCategory       = "/categories/{category}"
	RouteSitemap        = "/sitemap.xml"
	RouteRobots         = "/robots.txt"
)

const (
	get  = http.MethodGet
	post = http.MethodPost
)

// DefaultPolicies grant anonymous visitors the public pages and members
// everything that changes content. Members inherit the anonymous grants.
var DefaultPolicies = [][]string{
	{identity.RoleAnonymous, RouteIndex, get},
	{identity.RoleAnonymous, RouteAbout, get},
	{identity.RoleAnonymous, RouteSearch, get},
	{identity.RoleAnonymous, RouteLogin, get},
	{identity.RoleAnonymous, RouteLogin, post},
	{identity.RoleAnonymous, RouteRegister, get},
	{identity.RoleAnonymous, RouteRegister, post},
	{identity.RoleAnonymous, RouteActivationSent, get},
	{identity.RoleAnonymous, RouteActivate, get},
	{identity.RoleAnonymous, RoutePasswordReset, get},
	{identity.RoleAnonymous, RoutePasswordReset, post},
	{identity.RoleAnonymous, RouteResetConfirm, get},
	{identity.RoleAnonymous, RouteResetConfirm, post},
	{identity.RoleAnonymous, RouteOIDCLogin, get},
	{identity.RoleAnonymous, RouteOIDCCallback, get},
	{identity.RoleAnonymous, RouteProfile, get},
	{identity.RoleAnonymous, RoutePages, get},
	{identity.RoleAnonymous, RouteWrite, get},
	{identity.RoleAnonymous, RoutePage, get},
	{identity.RoleAnonymous, RouteBlog, get},
	{identity.RoleAnonymous, RouteTag, get},
	{identity.RoleAnonymous, RouteCategory, get},
	{identity.RoleAnonymous, RouteSitemap, get},
	{identity.RoleAnonymous, RouteRobots, get},

	{identity.RoleMember, RouteLogout, post},
	{identity.RoleMember, RoutePasswordChange, get},
	{identity.RoleMember, RoutePasswordChange, post},
	{identity.RoleMember, RouteProfileCreate, get},
	{identity.RoleMember, RouteProfileCreate, post},
	{identity.RoleMember, RouteProfileEdit, get},
	{identity.RoleMember, RouteProfileEdit, post},
	{identity.RoleMember, RoutePageCreate, get},
	{identity.RoleMember, RoutePageCreate, post},
	{identity.RoleMember, RouteMyPages, get},
	{identity.RoleMember, RouteMyBlogs, get},
	{identity.RoleMember, RoutePageEdit, get},
	{identity.RoleMember, RoutePageEdit, post},
	{identity.RoleMember, RoutePageDelete, post},
	{identity.RoleMember, RoutePost, get},
	{identity.RoleMember, RoutePost, post},
	{identity.RoleMember, RouteBlogEdit, get},
	{identity.RoleMember, RouteBlogEdit, post},
	{identity.RoleMember, RouteBlogDelete, post},
}

// SeedDefaultPolicies adds any missing default policy and the member -> anonymous
// role link. It is idempotent and runs on every start.
func SeedDefaultPolicies(e casbin.IEnforcer, log logger.Logger) error {
	log.Info("Seeding default authorization policies...")
	for _, p := range DefaultPolicies {
		has, err := e.HasPolicy(p)
		if err != nil {
			return fmt.Errorf("failed to check policy %v: %w", p, err)
		}
		if has {
			continue
		}
		if _, err := e.AddPolicy(p); err != nil {
			return fmt.Errorf("failed to add policy %v: %w", p, err)
		}
	}

	has, err := e.HasRoleForUser(identity.RoleMember, identity.RoleAnonymous)
	if err != nil {
		return fmt.Errorf("failed to check role link: %w", err)
	}
	if !has {
		if _, err := e.AddRoleForUser(identity.RoleMember, identity.RoleAnonymous); err != nil {
			return fmt.Errorf("failed to add role %q -> %q: %w", identity.RoleMember, identity.RoleAnonymous, err)
		}
	}
	log.Info("Policy seeding complete.")
	return nil
}
