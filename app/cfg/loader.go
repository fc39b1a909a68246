package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage
	DBPath         string `long:"db-path" env:"DB_PATH" default:"./data/content.db" description:"SQLite database file"`
	CollectionsDir string `long:"collections-dir" env:"COLLECTIONS_DIR" default:"./collections" description:"Directory containing per-collection YAML settings"`
	RedisAddr      string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for cross-instance change fan-out (optional)"`
	RedisChannel   string `long:"redis-channel" env:"REDIS_CHANNEL" default:"sanskrithi:changes" description:"Redis pub/sub channel for change notifications"`

	// HTTP
	Port           string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl        string `long:"base-url" env:"BASE_URL" description:"Public base URL of the site (e.g., https://sanskrithi.org)"`
	MaxUploadBytes int64  `long:"max-upload-bytes" env:"MAX_UPLOAD_BYTES" default:"1048576" description:"Largest accepted image upload in bytes"`

	// Admin session
	SessionSecret     string        `long:"session-secret" env:"SESSION_SECRET" description:"Secret used to sign admin session tokens (required)" required:"true"`
	SessionTTL        time.Duration `long:"session-ttl" env:"SESSION_TTL" default:"12h" description:"Admin session lifetime"`
	AdminPassword     string        `long:"admin-password" env:"ADMIN_PASSWORD" description:"Admin password in plain text (hashed at startup)"`
	AdminPasswordHash string        `long:"admin-password-hash" env:"ADMIN_PASSWORD_HASH" description:"Admin password as a bcrypt hash"`
	LoginRate         float64       `long:"login-rate" env:"LOGIN_RATE" default:"0.2" description:"Login attempts per second allowed per client"`
	LoginBurst        int           `long:"login-burst" env:"LOGIN_BURST" default:"5" description:"Login attempt burst per client"`

	// Background work
	WorkerCount       int `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background workers for maintenance tasks"`
	SchedulerInterval int `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"3600" description:"Maintenance interval in seconds"`

	// Application metadata
	SiteTitle string `long:"site-title" env:"SITE_TITLE" default:"Sanskrithi" description:"Site title used in feeds"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Asia/Kolkata)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load reads an optional .env file, then flags and environment
func Load() (*Cfg, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := fromRaw(raw)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		slog.Warn("Invalid timezone, using system default", "timezone", cfg.Timezone, "error", err)
	}

	return cfg, nil
}

func fromRaw(raw rawCfg) *Cfg {
	return &Cfg{
		DBPath:            raw.DBPath,
		CollectionsDir:    raw.CollectionsDir,
		RedisAddr:         raw.RedisAddr,
		RedisChannel:      raw.RedisChannel,
		Port:              raw.Port,
		BaseUrl:           raw.BaseUrl,
		MaxUploadBytes:    raw.MaxUploadBytes,
		SessionSecret:     raw.SessionSecret,
		SessionTTL:        raw.SessionTTL,
		AdminPassword:     raw.AdminPassword,
		AdminPasswordHash: raw.AdminPasswordHash,
		LoginRate:         raw.LoginRate,
		LoginBurst:        raw.LoginBurst,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		SiteTitle:         raw.SiteTitle,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}
}

func (c *Cfg) validate() error {
	if len(c.SessionSecret) < 16 {
		return fmt.Errorf("session secret must be at least 16 characters")
	}
	if c.AdminPassword == "" && c.AdminPasswordHash == "" {
		return fmt.Errorf("either admin password or admin password hash is required")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}
	return nil
}

// LogLevel returns the slog level matching the debug flag
func (c *Cfg) LogLevel() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// PublicURL returns BaseUrl or the local address when unset
func (c *Cfg) PublicURL() string {
	if c.BaseUrl != "" {
		return c.BaseUrl
	}
	return fmt.Sprintf("http://localhost:%s", c.Port)
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
