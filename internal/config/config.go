package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	DB        DBConfig        `mapstructure:"db"`
	Session   SessionConfig   `mapstructure:"session"`
	Security  SecurityConfig  `mapstructure:"security"`
	Mail      MailConfig      `mapstructure:"mail"`
	Media     MediaConfig     `mapstructure:"media"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Content   ContentConfig   `mapstructure:"content"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	OIDC      OIDCConfig      `mapstructure:"oidc"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Port    string    `mapstructure:"port" validate:"required,numeric"`
	BaseURL string    `mapstructure:"base_url" validate:"omitempty,url"`
	TLS     TLSConfig `mapstructure:"tls"`
}

// TLSConfig holds TLS-specific configuration.
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"certFile" validate:"required_if=Enabled true"`
	KeyFile  string `mapstructure:"keyFile" validate:"required_if=Enabled true"`
}

// DBConfig holds database-specific configuration.
type DBConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=mysql sqlite3"`
	DSN    string `mapstructure:"dsn" validate:"required"`
}

// SessionConfig holds cookie session configuration.
type SessionConfig struct {
	SecretKey string `mapstructure:"secretkey"`
	Lifetime  int    `mapstructure:"lifetime" validate:"gte=1"` // hours
}

// SecurityConfig holds password and token settings.
type SecurityConfig struct {
	TokenTTL   time.Duration `mapstructure:"token_ttl" validate:"gt=0"`
	BcryptCost int           `mapstructure:"bcrypt_cost" validate:"gte=4,lte=31"`
}

// MailConfig selects and configures the outbound mail backend.
type MailConfig struct {
	Backend  string        `mapstructure:"backend" validate:"oneof=smtp console"`
	Host     string        `mapstructure:"host" validate:"required_if=Backend smtp"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from" validate:"required,email"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// MediaConfig holds upload storage settings.
type MediaConfig struct {
	Dir      string `mapstructure:"dir" validate:"required"`
	MaxBytes int64  `mapstructure:"max_bytes" validate:"gt=0"`
}

// CacheConfig holds the render cache settings.
type CacheConfig struct {
	FilePath string        `mapstructure:"file_path" validate:"required"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// ContentConfig holds content visibility settings.
type ContentConfig struct {
	HidePrivate bool `mapstructure:"hide_private"`
}

// RateLimitConfig limits credential-handling POSTs per client IP.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps" validate:"gt=0"`
	Burst int     `mapstructure:"burst" validate:"gte=1"`
}

// OIDCConfig holds OIDC client configuration. Single sign-on is disabled when IssuerURL is empty.
type OIDCConfig struct {
	IssuerURL    string `mapstructure:"issuer_url" validate:"omitempty,url"`
	ClientID     string `mapstructure:"client_id" validate:"required_with=IssuerURL"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url" validate:"required_with=IssuerURL"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // e.g., "debug", "info", "warn", "error"
	Format string `mapstructure:"format"` // e.g., "json", "console"
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadConfig reads configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	v := viper.New()

	// Set default values
	v.SetDefault("server.port", "8080")
	v.SetDefault("db.driver", "sqlite3")
	v.SetDefault("db.dsn", "blog.db?_foreign_keys=on")
	v.SetDefault("session.lifetime", 24*14)
	v.SetDefault("security.token_ttl", "72h")
	v.SetDefault("security.bcrypt_cost", 10)
	v.SetDefault("mail.backend", "console")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.from", "noreply@localhost.localdomain")
	v.SetDefault("mail.timeout", "10s")
	v.SetDefault("media.dir", "media")
	v.SetDefault("media.max_bytes", 5<<20)
	v.SetDefault("cache.file_path", "cache.db")
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("content.hide_private", false)
	v.SetDefault("ratelimit.rps", 1)
	v.SetDefault("ratelimit.burst", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Set up viper to read from config file
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/go-blog-app/")
	v.AddConfigPath("$HOME/.go-blog-app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return nil, err
		}
	}

	// Set up viper to read from environment variables
	v.SetEnvPrefix("BLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range []string{
		"session.secretkey", "server.base_url", "mail.host", "mail.username", "mail.password",
		"oidc.issuer_url", "oidc.client_id", "oidc.client_secret", "oidc.redirect_url",
		"server.tls.enabled", "server.tls.certFile", "server.tls.keyFile",
	} {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
