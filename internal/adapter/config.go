package adapter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mmcdole/homestead/internal/domain"
)

// SourceType identifies the listing backend
type SourceType string

const (
	SourceTypeLocal  SourceType = "local"
	SourceTypeRemote SourceType = "remote"
)

// Config holds all application configuration
type Config struct {
	Source  SourceConfig  `mapstructure:"source"`
	Store   StoreConfig   `mapstructure:"store"`
	Paging  PagingConfig  `mapstructure:"paging"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Server  ServerConfig  `mapstructure:"server"`
	Viewer  ViewerConfig  `mapstructure:"viewer"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SourceConfig selects where listings come from
type SourceConfig struct {
	Type SourceType `mapstructure:"type"` // "local" or "remote"
	URL  string     `mapstructure:"url"`  // remote only
}

// StoreConfig holds the local database location
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// PagingConfig holds page sizes per view
type PagingConfig struct {
	PageSize        int `mapstructure:"page_size"`         // browse views
	ProfilePageSize int `mapstructure:"profile_page_size"` // profile fetches everything in chunks of this size
	LatestSize      int `mapstructure:"latest_size"`       // listings on the home view
}

// AuthConfig holds access gate settings
type AuthConfig struct {
	ResolveTimeout time.Duration `mapstructure:"resolve_timeout"` // 0 waits forever
	SignInPath     string        `mapstructure:"sign_in_path"`
}

// ServerConfig holds the HTTP listing API settings
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// ViewerConfig holds the photo viewer used by the detail view
type ViewerConfig struct {
	Command string   `mapstructure:"command"` // empty uses the system URL handler
	Args    []string `mapstructure:"args"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File   string `mapstructure:"file"`   // "-" logs to stderr
	Level  string `mapstructure:"level"`  // DEBUG, INFO, WARN or ERROR
	Format string `mapstructure:"format"` // "json" or "text"
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Type: SourceTypeLocal,
		},
		Store: StoreConfig{
			Path: filepath.Join(defaultDataPath(), "homestead.db"),
		},
		Paging: PagingConfig{
			PageSize:        4,
			ProfilePageSize: 50,
			LatestSize:      5,
		},
		Auth: AuthConfig{
			ResolveTimeout: 10 * time.Second,
			SignInPath:     "/sign-in",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Viewer: ViewerConfig{
			Args: []string{},
		},
		Logging: LoggingConfig{
			File:   filepath.Join(defaultDataPath(), "homestead.log"),
			Level:  "INFO",
			Format: "json",
		},
	}
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "homestead")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "homestead")
	}
}

// DefaultConfigPath returns the default config directory for the current OS
func DefaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "homestead")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "homestead")
	}
}

// LoadConfig loads configuration from the default locations and environment
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(DefaultConfigPath(), ".")
}

// LoadConfigFrom loads config.yaml from the first dir that has one, then
// applies HOMESTEAD_* environment overrides (e.g. HOMESTEAD_SOURCE_URL)
func LoadConfigFrom(dirs ...string) (*Config, error) {
	cfg := DefaultConfig()
	v := newViper(cfg)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, dir := range dirs {
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newViper registers every key so environment overrides apply even when no
// config file mentions them
func newViper(cfg *Config) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("HOMESTEAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setAll(v, cfg)
	return v
}

func setAll(v *viper.Viper, cfg *Config) {
	v.SetDefault("source.type", string(cfg.Source.Type))
	v.SetDefault("source.url", cfg.Source.URL)
	v.SetDefault("store.path", cfg.Store.Path)
	v.SetDefault("paging.page_size", cfg.Paging.PageSize)
	v.SetDefault("paging.profile_page_size", cfg.Paging.ProfilePageSize)
	v.SetDefault("paging.latest_size", cfg.Paging.LatestSize)
	v.SetDefault("auth.resolve_timeout", cfg.Auth.ResolveTimeout.String())
	v.SetDefault("auth.sign_in_path", cfg.Auth.SignInPath)
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("viewer.command", cfg.Viewer.Command)
	v.SetDefault("viewer.args", cfg.Viewer.Args)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
}

// Validate rejects settings the application cannot run with
func (c *Config) Validate() error {
	switch c.Source.Type {
	case SourceTypeLocal:
	case SourceTypeRemote:
		if c.Source.URL == "" {
			return errors.New("config: source.url is required for a remote source")
		}
	default:
		return fmt.Errorf("config: unknown source type %q", c.Source.Type)
	}
	if c.Paging.PageSize <= 0 || c.Paging.ProfilePageSize <= 0 || c.Paging.LatestSize <= 0 {
		return errors.New("config: page sizes must be positive")
	}
	if c.IsRemote() {
		for _, size := range []int{c.Paging.PageSize, c.Paging.ProfilePageSize, c.Paging.LatestSize} {
			if size > domain.MaxPageSize {
				return fmt.Errorf("config: page size %d exceeds the listing server limit of %d", size, domain.MaxPageSize)
			}
		}
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "json", "text":
	default:
		return fmt.Errorf("config: unknown logging format %q", c.Logging.Format)
	}
	if c.Auth.ResolveTimeout < 0 {
		return errors.New("config: auth.resolve_timeout must not be negative")
	}
	return nil
}

// IsRemote returns true if listings come from an HTTP listing server
func (c *Config) IsRemote() bool {
	return c.Source.Type == SourceTypeRemote
}

// SaveConfig writes cfg to config.yaml in the default config directory
func SaveConfig(cfg *Config) error {
	return SaveConfigTo(cfg, DefaultConfigPath())
}

// SaveConfigTo writes cfg to config.yaml in dir
func SaveConfigTo(cfg *Config, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	v := viper.New()
	v.Set("source.type", string(cfg.Source.Type))
	v.Set("source.url", cfg.Source.URL)
	v.Set("store.path", cfg.Store.Path)
	v.Set("paging.page_size", cfg.Paging.PageSize)
	v.Set("paging.profile_page_size", cfg.Paging.ProfilePageSize)
	v.Set("paging.latest_size", cfg.Paging.LatestSize)
	v.Set("auth.resolve_timeout", cfg.Auth.ResolveTimeout.String())
	v.Set("auth.sign_in_path", cfg.Auth.SignInPath)
	v.Set("server.addr", cfg.Server.Addr)
	v.Set("viewer.command", cfg.Viewer.Command)
	v.Set("viewer.args", cfg.Viewer.Args)
	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)
	v.Set("logging.format", cfg.Logging.Format)

	configFile := filepath.Join(dir, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
