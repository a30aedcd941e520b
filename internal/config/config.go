// Package config loads process configuration for the formlogic binary.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. FORMLOGIC_SERVER_ADDR.
const EnvPrefix = "FORMLOGIC"

// Config is the resolved process configuration.
type Config struct {
	Server   ServerConfig
	Forms    FormsConfig
	Database DatabaseConfig
	Render   RenderConfig
	LogLevel slog.Level
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FormsConfig locates form documents.
type FormsConfig struct {
	Dir string
}

// RenderConfig customises the submission-disabled notice. TemplatesDir, when
// set, is searched for notice.tpl before the built-in template.
type RenderConfig struct {
	TemplatesDir string
	NoticeTitle  string
}

// DatabaseConfig selects the submission store.
type DatabaseConfig struct {
	URL string
}

// Scheme returns the database URL scheme (sqlite, postgres).
func (d DatabaseConfig) Scheme() string {
	scheme, _, ok := strings.Cut(d.URL, "://")
	if !ok {
		return ""
	}
	return strings.ToLower(scheme)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("forms.dir", "forms")
	v.SetDefault("database.url", "sqlite://formlogic.db")
	v.SetDefault("render.templates_dir", "")
	v.SetDefault("render.notice_title", "")
	v.SetDefault("log_level", "info")
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"addr":         "server.addr",
	"forms":        "forms.dir",
	"database-url": "database.url",
	"templates":    "render.templates_dir",
	"notice-title": "render.notice_title",
	"log-level":    "log_level",
}

// Load resolves configuration with flags > environment > config file >
// defaults precedence. configPath and flags are optional.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configPath, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("config: bind flag %s: %w", name, err)
			}
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(v.GetString("log_level")))); err != nil {
		return nil, fmt.Errorf("config: log_level: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr:         strings.TrimSpace(v.GetString("server.addr")),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
		},
		Forms:    FormsConfig{Dir: strings.TrimSpace(v.GetString("forms.dir"))},
		Database: DatabaseConfig{URL: strings.TrimSpace(v.GetString("database.url"))},
		Render: RenderConfig{
			TemplatesDir: strings.TrimSpace(v.GetString("render.templates_dir")),
			NoticeTitle:  strings.TrimSpace(v.GetString("render.notice_title")),
		},
		LogLevel: level,
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Server.Addr == "" {
		return fmt.Errorf("config: server.addr must not be empty")
	}
	if cfg.Server.ReadTimeout <= 0 {
		return fmt.Errorf("config: server.read_timeout must be positive, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout <= 0 {
		return fmt.Errorf("config: server.write_timeout must be positive, got %v", cfg.Server.WriteTimeout)
	}
	if cfg.Forms.Dir == "" {
		return fmt.Errorf("config: forms.dir must not be empty")
	}
	if dir := cfg.Render.TemplatesDir; dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("config: render.templates_dir: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("config: render.templates_dir %q is not a directory", dir)
		}
	}
	switch cfg.Database.Scheme() {
	case "sqlite", "postgres", "postgresql":
	default:
		return fmt.Errorf("config: unsupported database.url %q (want sqlite:// or postgres://)", redact(cfg.Database.URL))
	}
	return nil
}

// redact hides credentials embedded in a database URL.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}
