package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-blog-app/internal/auth"
	"go-blog-app/internal/cache"
	"go-blog-app/internal/config"
	"go-blog-app/internal/data"
	"go-blog-app/internal/handler"
	"go-blog-app/internal/logger"
	"go-blog-app/internal/mailer"
	"go-blog-app/internal/media"
	"go-blog-app/internal/middleware"
	"go-blog-app/internal/service"
	"go-blog-app/internal/token"
	"go-blog-app/internal/view"
	"go-blog-app/web"

	"github.com/alexedwards/scs/mysqlstore"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
)

const placeholderSecret = "CHANGE_ME_IN_PRODUCTION_SECRET!!"

func main() {
	// --- Configuration Loading ---
	cfg, err := config.LoadConfig()
	if err != nil {
		// Use fmt.Printf here because the logger is not yet initialized.
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Initialization ---
	log := logger.New(cfg.Log, os.Stdout)

	// --- Pre-flight Checks ---
	if cfg.Session.SecretKey == "" || cfg.Session.SecretKey == placeholderSecret {
		log.Fatal(errors.New("session secret key not set"), "Please set a secure BLOG_SESSION_SECRETKEY environment variable.")
	}

	// --- Database Initialization and Migration ---
	log.Info("Applying database migrations...")
	if err := data.ApplyMigrations(cfg.DB); err != nil {
		log.Fatal(err, "Failed to apply migrations")
	}

	db, err := data.NewDB(cfg.DB)
	if err != nil {
		log.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()
	log.Info(fmt.Sprintf("Connected to %s database", cfg.DB.Driver))

	// --- Session Management Setup ---
	sessionManager := newSessionManager(cfg, db)

	// --- Authentication and Authorization Setup ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	authenticator, err := auth.NewAuthenticator(ctx, cfg.OIDC)
	if err != nil {
		log.Fatal(err, "Failed to initialize OIDC authenticator")
	}
	if authenticator == nil {
		log.Info("Single sign-on disabled")
	}
	enforcer, err := auth.NewEnforcer(auth.NewAdapter(cfg.DB))
	if err != nil {
		log.Fatal(err, "Failed to initialize enforcer")
	}
	if err := auth.SeedDefaultPolicies(enforcer, log); err != nil {
		log.Fatal(err, "Failed to seed authorization policies")
	}

	// --- View Template Initialization ---
	viewService, err := view.New(web.TemplateFS, sessionManager)
	if err != nil {
		log.Fatal(err, "Failed to initialize view templates")
	}

	// --- Cache, Media and Mail ---
	renderCache, err := cache.New(cfg.Cache)
	if err != nil {
		log.Fatal(err, "Failed to initialize cache")
	}
	defer renderCache.Close()
	go purgeCache(ctx, renderCache, log)

	store, err := media.NewStore(cfg.Media)
	if err != nil {
		log.Fatal(err, "Failed to initialize media storage")
	}
	mail := mailer.New(cfg.Mail, os.Stdout, log)

	// --- Dependency Injection ---
	users := data.NewSQLUserRepository(db)
	profiles := data.NewSQLProfileRepository(db)
	pages := data.NewSQLPageRepository(db)
	blogs := data.NewSQLBlogRepository(db)
	categories := data.NewCategoryRepository(db)
	tags := data.NewTagRepository(db)

	tokens := token.NewGenerator(cfg.Session.SecretKey, cfg.Security.TokenTTL)
	accountService, err := service.NewAccountService(users, tokens, mail, web.TemplateFS, cfg.Security.BcryptCost, log)
	if err != nil {
		log.Fatal(err, "Failed to initialize account service")
	}
	renderer := service.NewRenderer(renderCache, log)
	hidePrivate := cfg.Content.HidePrivate

	router := handler.NewRouter(handler.Deps{
		View:      viewService,
		Sessions:  sessionManager,
		Log:       log,
		Enforcer:  enforcer,
		Users:     users,
		Limiter:   middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		Accounts:  accountService,
		Profiles:  service.NewProfileService(profiles, users, store, log),
		Pages:     service.NewPageService(pages, categories, profiles, store, hidePrivate, log),
		Blogs:     service.NewBlogService(blogs, pages, tags, profiles, renderer, hidePrivate, log),
		Taxonomy:  service.NewTaxonomyService(tags, categories),
		OIDC:      authenticator,
		StaticFS:  web.StaticFS,
		MediaDir:  store.Dir(),
		BaseURL:   cfg.Server.BaseURL,
		MaxUpload: cfg.Media.MaxBytes,
	})

	// --- Server Initialization and Graceful Shutdown ---
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if cfg.Server.TLS.Enabled {
			log.Info(fmt.Sprintf("Starting HTTPS server on %s", server.Addr))
			if err := server.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTPS server")
			}
		} else {
			log.Info(fmt.Sprintf("Starting HTTP server on %s", server.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTP server")
			}
		}
	}()

	<-ctx.Done()
	log.Warn("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "Server forced to shutdown")
	}
	log.Info("Server exiting")
}

// newSessionManager keeps sessions in the application database.
func newSessionManager(cfg *config.Config, db *sqlx.DB) *scs.SessionManager {
	sm := scs.New()
	switch cfg.DB.Driver {
	case "mysql":
		sm.Store = mysqlstore.New(db.DB)
	default:
		sm.Store = sqlite3store.New(db.DB)
	}
	sm.Lifetime = time.Duration(cfg.Session.Lifetime) * time.Hour
	sm.Cookie.Name = "blog_session"
	sm.Cookie.Persist = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = cfg.Server.TLS.Enabled
	return sm
}

// purgeCache drops expired render cache entries until ctx is done.
func purgeCache(ctx context.Context, c *cache.Cache, log logger.Logger) {
	ticker := time.NewTicker(c.TTL())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := c.Purge(ctx)
			if err != nil {
				log.Error(err, "Failed to purge render cache")
				continue
			}
			if n > 0 {
				log.Debug(fmt.Sprintf("Purged %d expired cache entries", n))
			}
		}
	}
}
