package handler

import (
	"io/fs"
	"net/http"

	"github.com/casbin/casbin/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"go-blog-app/internal/auth"
	"go-blog-app/internal/logger"
	"go-blog-app/internal/middleware"
	"go-blog-app/internal/service"
	"go-blog-app/internal/session"
	"go-blog-app/internal/view"
)

// Deps lists everything the router wires into the handlers.
type Deps struct {
	View     *view.View
	Sessions session.Manager
	Log      logger.Logger
	Enforcer casbin.IEnforcer
	Users    middleware.UserLookup
	Limiter  *middleware.RateLimiter

	Accounts *service.AccountService
	Profiles *service.ProfileService
	Pages    *service.PageService
	Blogs    *service.BlogService
	Taxonomy *service.TaxonomyService
	// OIDC is nil when single sign-on is disabled.
	OIDC *auth.Authenticator

	// StaticFS holds the static/ tree served under /static/.
	StaticFS  fs.FS
	MediaDir  string
	BaseURL   string
	MaxUpload int64
}

// NewRouter creates and configures a new chi router.
func NewRouter(d Deps) *chi.Mux {
	b := base{view: d.View, sessions: d.Sessions, log: d.Log}
	accounts := newAccountHandler(b, d.Accounts, d.OIDC, d.BaseURL)
	profiles := newProfileHandler(b, d.Profiles, d.MaxUpload)
	pages := newPageHandler(b, d.Pages, d.Blogs, d.MaxUpload)
	blogs := newBlogHandler(b, d.Blogs, d.Pages, d.Taxonomy)
	seo := newSeoHandler(d.Pages, d.Blogs, d.BaseURL)
	h := middleware.Error(d.Log, d.View)

	r := chi.NewRouter()

	// A good base middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLog(d.Log))
	r.Use(chimw.Recoverer)
	r.Use(d.Sessions.LoadAndSave)
	r.Use(middleware.LoadIdentity(d.Sessions, d.Users, d.Log))

	r.Handle("/static/*", http.FileServer(http.FS(d.StaticFS)))
	r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(d.MediaDir))))

	r.NotFound(h(func(w http.ResponseWriter, r *http.Request) *middleware.AppError {
		return middleware.NotFound(nil)
	}).ServeHTTP)
	r.MethodNotAllowed(h(func(w http.ResponseWriter, r *http.Request) *middleware.AppError {
		return &middleware.AppError{Message: http.StatusText(http.StatusMethodNotAllowed), Code: http.StatusMethodNotAllowed}
	}).ServeHTTP)

	// Every application route is checked against the casbin policies by its pattern.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authorizer(d.Enforcer, d.View, d.Log))

		r.Method(http.MethodGet, auth.RouteIndex, h(blogs.index))
		r.Method(http.MethodGet, auth.RouteAbout, h(blogs.about))
		r.Method(http.MethodGet, auth.RouteSearch, h(blogs.search))
		r.Method(http.MethodGet, auth.RouteSitemap, h(seo.sitemapHandler))
		r.Method(http.MethodGet, auth.RouteRobots, h(seo.robotsHandler))

		// Credential-handling forms are rate limited per client.
		r.Group(func(r chi.Router) {
			r.Use(d.Limiter.LimitPosts)
			getPost(r, auth.RouteLogin, h(accounts.login))
			getPost(r, auth.RouteRegister, h(accounts.register))
			getPost(r, auth.RoutePasswordReset, h(accounts.passwordReset))
			getPost(r, auth.RouteResetConfirm, h(accounts.resetConfirm))
		})
		r.Method(http.MethodPost, auth.RouteLogout, h(accounts.logout))
		r.Method(http.MethodGet, auth.RouteActivationSent, h(accounts.activationSent))
		r.Method(http.MethodGet, auth.RouteActivate, h(accounts.activate))
		getPost(r, auth.RoutePasswordChange, h(accounts.passwordChange))
		r.Method(http.MethodGet, auth.RouteOIDCLogin, h(accounts.oidcLogin))
		r.Method(http.MethodGet, auth.RouteOIDCCallback, h(accounts.oidcCallback))

		getPost(r, auth.RouteProfileCreate, h(profiles.create))
		r.Method(http.MethodGet, auth.RouteProfile, h(profiles.show))
		getPost(r, auth.RouteProfileEdit, h(profiles.edit))

		r.Method(http.MethodGet, auth.RoutePages, h(pages.list(false)))
		r.Method(http.MethodGet, auth.RouteWrite, h(pages.list(true)))
		getPost(r, auth.RoutePageCreate, h(pages.create))
		r.Method(http.MethodGet, auth.RouteMyPages, h(pages.myPages))
		r.Method(http.MethodGet, auth.RouteMyBlogs, h(blogs.myBlogs))
		r.Method(http.MethodGet, auth.RoutePage, h(pages.detail))
		getPost(r, auth.RoutePageEdit, h(pages.edit))
		r.Method(http.MethodPost, auth.RoutePageDelete, h(pages.delete))
		getPost(r, auth.RoutePost, h(blogs.post))
		r.Method(http.MethodGet, auth.RouteBlog, h(blogs.detail))
		getPost(r, auth.RouteBlogEdit, h(blogs.edit))
		r.Method(http.MethodPost, auth.RouteBlogDelete, h(blogs.delete))

		r.Method(http.MethodGet, auth.RouteTag, h(blogs.tag))
		r.Method(http.MethodGet, auth.RouteCategory, h(pages.category))
	})

	return r
}

func getPost(r chi.Router, pattern string, handler http.Handler) {
	r.Method(http.MethodGet, pattern, handler)
	r.Method(http.MethodPost, pattern, handler)
}
