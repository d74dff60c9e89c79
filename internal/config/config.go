package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const appName = "shokofin"

// Config is the root configuration
type Config struct {
	Shoko    ShokoConfig    `mapstructure:"shoko" yaml:"shoko"`
	Sync     SyncConfig     `mapstructure:"sync" yaml:"sync"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
	Advanced AdvancedConfig `mapstructure:"advanced" yaml:"advanced"`
}

// ShokoConfig holds the connection settings for Shoko Server
type ShokoConfig struct {
	URL        string        `mapstructure:"url" yaml:"url"`
	PublicURL  string        `mapstructure:"public_url" yaml:"public_url"`
	APIKey     string        `mapstructure:"api_key" yaml:"api_key"`
	Username   string        `mapstructure:"username" yaml:"username"`
	Password   string        `mapstructure:"password" yaml:"password"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxRetries int           `mapstructure:"max_retries" yaml:"max_retries"`
}

// SyncConfig controls user data synchronization
type SyncConfig struct {
	Enabled bool  `mapstructure:"enabled" yaml:"enabled"`
	Series  []int `mapstructure:"series" yaml:"series"`
}

// DatabaseConfig holds local store settings
type DatabaseConfig struct {
	Path           string `mapstructure:"path" yaml:"path"`
	MaxConnections int    `mapstructure:"max_connections" yaml:"max_connections"`
	WALMode        bool   `mapstructure:"wal_mode" yaml:"wal_mode"`
	AutoVacuum     bool   `mapstructure:"auto_vacuum" yaml:"auto_vacuum"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	File       string `mapstructure:"file" yaml:"file"`
	Color      bool   `mapstructure:"color" yaml:"color"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// AdvancedConfig holds debugging switches
type AdvancedConfig struct {
	Debug bool `mapstructure:"debug" yaml:"debug"`
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("shoko.url", "http://localhost:8111")
	v.SetDefault("shoko.public_url", "")
	v.SetDefault("shoko.api_key", "")
	v.SetDefault("shoko.username", "")
	v.SetDefault("shoko.password", "")
	v.SetDefault("shoko.timeout", 30*time.Second)
	v.SetDefault("shoko.max_retries", 3)

	v.SetDefault("sync.enabled", false)
	v.SetDefault("sync.series", []int{})

	v.SetDefault("database.path", filepath.Join(getDataDir(), appName, appName+".db"))
	v.SetDefault("database.max_connections", 4)
	v.SetDefault("database.wal_mode", true)
	v.SetDefault("database.auto_vacuum", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.color", true)
	v.SetDefault("logging.max_size", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)

	v.SetDefault("metrics.addr", "")
	v.SetDefault("advanced.debug", false)
}

// Load reads the configuration from cfgFile, or from the default location when
// cfgFile is empty. A missing default config file is not an error.
func Load(cfgFile string) (*Config, *viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(strings.ToUpper(appName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	return &cfg, v, nil
}

// Default returns the configuration built from defaults alone
func Default() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// WriteDefault writes a config file populated with defaults to path. An
// existing file is only replaced when force is set.
func WriteDefault(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file already exists: %s", path)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// Validate checks for settings that cannot work
func (c *Config) Validate() error {
	if c.Shoko.URL == "" {
		return fmt.Errorf("shoko.url must be set")
	}
	if !strings.HasPrefix(c.Shoko.URL, "http://") && !strings.HasPrefix(c.Shoko.URL, "https://") {
		return fmt.Errorf("shoko.url must be an http(s) URL: %s", c.Shoko.URL)
	}
	if c.Shoko.Timeout < 0 {
		return fmt.Errorf("shoko.timeout must not be negative")
	}
	for _, id := range c.Sync.Series {
		if id <= 0 {
			return fmt.Errorf("sync.series contains invalid series id %d", id)
		}
	}
	return nil
}

// PublicBaseURL returns the URL used for links handed to clients
func (c *ShokoConfig) PublicBaseURL() string {
	if c.PublicURL != "" {
		return strings.TrimRight(c.PublicURL, "/")
	}
	return strings.TrimRight(c.URL, "/")
}

// InitializeDirs creates the config, data and state directories
func InitializeDirs() error {
	for _, dir := range []string{ConfigDir(), filepath.Join(getDataDir(), appName), filepath.Join(getStateDir(), appName)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// ConfigDir returns the directory holding config.yaml
func ConfigDir() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), appName)
}

// ConfigPath returns the default config file path
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

func getDataDir() string {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func getStateDir() string {
	return xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), fallback)
	}
	return filepath.Join(home, fallback)
}
