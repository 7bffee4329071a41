//go:build unit

package config

import (
	"os"
	"testing"
	"time"
)

// chdir changes the working directory for the duration of the test,
// equivalent to testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}

func TestLoadConfig_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Server.Port)
	}
	if cfg.DB.Driver != "sqlite3" {
		t.Errorf("expected default driver sqlite3, got %q", cfg.DB.Driver)
	}
	if cfg.Security.TokenTTL != 72*time.Hour {
		t.Errorf("expected token ttl 72h, got %v", cfg.Security.TokenTTL)
	}
	if cfg.Mail.Backend != "console" {
		t.Errorf("expected console mail backend, got %q", cfg.Mail.Backend)
	}
	if cfg.Content.HidePrivate {
		t.Error("expected private content to be listed by default")
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BLOG_SERVER_PORT", "9090")
	t.Setenv("BLOG_SESSION_SECRETKEY", "a-very-secret-key")
	t.Setenv("BLOG_CONTENT_HIDE_PRIVATE", "true")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %q", cfg.Server.Port)
	}
	if cfg.Session.SecretKey != "a-very-secret-key" {
		t.Errorf("expected secret from env, got %q", cfg.Session.SecretKey)
	}
	if !cfg.Content.HidePrivate {
		t.Error("expected hide_private to be enabled from env")
	}
}

func TestLoadConfig_RejectsUnknownDriver(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BLOG_DB_DRIVER", "oracle")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected validation error for unsupported driver")
	}
}
