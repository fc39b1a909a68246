package cfg

import (
	"log/slog"
	"os"
	"testing"
	"time"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	oldArgs := os.Args
	os.Args = append([]string{"test"}, args...)
	t.Cleanup(func() { os.Args = oldArgs })
}

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	withArgs(t)
	t.Setenv("SESSION_SECRET", "0123456789abcdef0123")
	t.Setenv("ADMIN_PASSWORD", "namaste")
	t.Setenv("PORT", "9090")
	t.Setenv("DB_PATH", "/tmp/site.db")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("TZ", "UTC")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Expected port '9090', got '%s'", cfg.Port)
	}
	if cfg.DBPath != "/tmp/site.db" {
		t.Errorf("Expected DB path '/tmp/site.db', got '%s'", cfg.DBPath)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Errorf("Expected session ttl 2h, got %v", cfg.SessionTTL)
	}
	if cfg.MaxUploadBytes != 1048576 {
		t.Errorf("Expected default upload limit 1048576, got %d", cfg.MaxUploadBytes)
	}
	if cfg.CollectionsDir != "./collections" {
		t.Errorf("Expected collections dir './collections', got '%s'", cfg.CollectionsDir)
	}
}

func TestLoadRequiresAdminCredential(t *testing.T) {
	withArgs(t)
	t.Setenv("SESSION_SECRET", "0123456789abcdef0123")
	t.Setenv("ADMIN_PASSWORD", "")
	t.Setenv("ADMIN_PASSWORD_HASH", "")

	if _, err := Load(); err == nil {
		t.Error("Expected error without an admin password")
	}
}

func TestLoadRejectsShortSecret(t *testing.T) {
	withArgs(t)
	t.Setenv("SESSION_SECRET", "short")
	t.Setenv("ADMIN_PASSWORD", "namaste")

	if _, err := Load(); err == nil {
		t.Error("Expected error for a short session secret")
	}
}

func TestFlagsOverrideDefaults(t *testing.T) {
	withArgs(t, "--port", "7000", "--debug", "--max-upload-bytes", "2048")
	t.Setenv("SESSION_SECRET", "0123456789abcdef0123")
	t.Setenv("ADMIN_PASSWORD", "namaste")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "7000" {
		t.Errorf("Expected port '7000', got '%s'", cfg.Port)
	}
	if cfg.MaxUploadBytes != 2048 {
		t.Errorf("Expected upload limit 2048, got %d", cfg.MaxUploadBytes)
	}
	if cfg.LogLevel() != slog.LevelDebug {
		t.Errorf("Expected debug log level, got %v", cfg.LogLevel())
	}
}

func TestPublicURL(t *testing.T) {
	cfg := &Cfg{Port: "8080"}
	if cfg.PublicURL() != "http://localhost:8080" {
		t.Errorf("Expected local URL, got '%s'", cfg.PublicURL())
	}

	cfg.BaseUrl = "https://sanskrithi.org"
	if cfg.PublicURL() != "https://sanskrithi.org" {
		t.Errorf("Expected base URL, got '%s'", cfg.PublicURL())
	}
}
