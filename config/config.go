// campusvoice/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"campusvoice/utils"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	AppVersion = "1.2.0"

	// Form Limits
	MaxTitleLen       = 255
	MaxCategoryLen    = 50
	MaxDescriptionLen = 5000
	MaxReplyLen       = 2000
	MaxDeviceIDLen    = 100
	MaxPollLen        = 255

	DefaultCategory = "General"

	// Listing
	MaxPageSize = 200
)

// StandardCategories are offered by clients as fixed choices. Anything else is a custom category.
var StandardCategories = []string{"Canteen/Food", "Hostel", "Academic", "Non-academic", "Toilets", "Transport", "Security"}

type ServerConfig struct {
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	AdminLANOnly bool          `yaml:"admin_lan_only"`
	// TrustProxy honours X-Forwarded-For and friends. Enable only behind a
	// reverse proxy that overwrites them.
	TrustProxy bool `yaml:"trust_proxy"`
}

type DatabaseConfig struct {
	Driver    string `yaml:"driver"` // sqlite3 or pgx
	DSN       string `yaml:"dsn"`
	BackupDir string `yaml:"backup_dir"`
}

type S3Config struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
}

type AIConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	Timeout     time.Duration `yaml:"timeout"`
	PollTimeout time.Duration `yaml:"poll_timeout"`
	MinInterval time.Duration `yaml:"min_interval"`
}

// Enabled reports whether an upstream model has been configured.
func (c AIConfig) Enabled() bool { return c.BaseURL != "" && c.Model != "" }

type IdentityConfig struct {
	TokenSecret string        `yaml:"token_secret"`
	TokenTTL    time.Duration `yaml:"token_ttl"`
	CookieName  string        `yaml:"cookie_name"`
}

// Config is the full runtime configuration.
type Config struct {
	LogLevel string         `yaml:"log_level"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	S3       S3Config       `yaml:"s3"`
	Redis    RedisConfig    `yaml:"redis"`
	AI       AIConfig       `yaml:"ai"`
	Identity IdentityConfig `yaml:"identity"`
}

// Default returns a configuration that runs a local SQLite-backed server with AI disabled.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			AdminLANOnly: true,
		},
		Database: DatabaseConfig{
			Driver:    "sqlite3",
			DSN:       "./campusvoice.db?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000&_txlock=immediate",
			BackupDir: "./backups",
		},
		S3: S3Config{Region: "us-east-1", UseSSL: true},
		Redis: RedisConfig{
			Key: "campusvoice:visitors",
		},
		AI: AIConfig{
			Timeout:     30 * time.Second,
			PollTimeout: 8 * time.Second,
			MinInterval: 500 * time.Millisecond,
		},
		Identity: IdentityConfig{
			TokenTTL:   365 * 24 * time.Hour,
			CookieName: "cv_device",
		},
	}
}

// Load builds a Config from defaults, then the YAML file at path (if it
// exists), then a .env file, then CV_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			slog.Debug("Config file not found, using defaults", "path", path)
		case err != nil:
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	c.LogLevel = utils.GetEnv("CV_LOG_LEVEL", c.LogLevel)

	c.Server.Port = utils.GetEnv("CV_PORT", c.Server.Port)
	c.Database.Driver = utils.GetEnv("CV_DB_DRIVER", c.Database.Driver)
	c.Database.DSN = utils.GetEnv("CV_DB_DSN", c.Database.DSN)
	c.Database.BackupDir = utils.GetEnv("CV_BACKUP_DIR", c.Database.BackupDir)

	c.S3.Endpoint = utils.GetEnv("CV_S3_ENDPOINT", c.S3.Endpoint)
	c.S3.AccessKey = utils.GetEnv("CV_S3_ACCESS_KEY", c.S3.AccessKey)
	c.S3.SecretKey = utils.GetEnv("CV_S3_SECRET_KEY", c.S3.SecretKey)
	c.S3.Bucket = utils.GetEnv("CV_S3_BUCKET", c.S3.Bucket)
	c.S3.Region = utils.GetEnv("CV_S3_REGION", c.S3.Region)

	c.Redis.Addr = utils.GetEnv("CV_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = utils.GetEnv("CV_REDIS_PASSWORD", c.Redis.Password)

	c.AI.BaseURL = utils.GetEnv("CV_AI_BASE_URL", c.AI.BaseURL)
	c.AI.Model = utils.GetEnv("CV_AI_MODEL", c.AI.Model)
	c.AI.APIKey = utils.GetEnv("CV_AI_API_KEY", c.AI.APIKey)

	c.Identity.TokenSecret = utils.GetEnv("CV_TOKEN_SECRET", c.Identity.TokenSecret)

	var err error
	if c.S3.Enabled, err = envBool("CV_S3_ENABLED", c.S3.Enabled); err != nil {
		return err
	}
	if c.S3.UseSSL, err = envBool("CV_S3_USE_SSL", c.S3.UseSSL); err != nil {
		return err
	}
	if c.Server.AdminLANOnly, err = envBool("CV_ADMIN_LAN_ONLY", c.Server.AdminLANOnly); err != nil {
		return err
	}
	if c.Server.TrustProxy, err = envBool("CV_TRUST_PROXY", c.Server.TrustProxy); err != nil {
		return err
	}
	if c.Redis.DB, err = envInt("CV_REDIS_DB", c.Redis.DB); err != nil {
		return err
	}
	if c.AI.Timeout, err = envDuration("CV_AI_TIMEOUT", c.AI.Timeout); err != nil {
		return err
	}
	if c.AI.PollTimeout, err = envDuration("CV_AI_POLL_TIMEOUT", c.AI.PollTimeout); err != nil {
		return err
	}
	if c.AI.MinInterval, err = envDuration("CV_AI_MIN_INTERVAL", c.AI.MinInterval); err != nil {
		return err
	}
	if c.Identity.TokenTTL, err = envDuration("CV_TOKEN_TTL", c.Identity.TokenTTL); err != nil {
		return err
	}
	return nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite3", "pgx":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database dsn is required")
	}
	if c.S3.Enabled && c.S3.Bucket == "" {
		return errors.New("s3 backups enabled but no bucket set")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a config log level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return lvl, nil
}

func envBool(key string, fallback bool) (bool, error) {
	raw := utils.GetEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func envInt(key string, fallback int) (int, error) {
	raw := utils.GetEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := utils.GetEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
