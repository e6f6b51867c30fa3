package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultBaseURL        = "http://localhost:8000"
	DefaultTimeout        = 30 * time.Second
	DefaultRetryAttempts  = 3
	DefaultPlatform       = "terminal"
	DefaultInitialBalance = 50.43
)

type APIConfig struct {
	BaseURL string        `toml:"base_url"`
	Timeout time.Duration `toml:"timeout"`
	// RetryAttempts is surfaced for operators but not consumed by the call path.
	RetryAttempts int    `toml:"retry_attempts"`
	Platform      string `toml:"platform"`
}

type FeatureFlags struct {
	EnableChat        bool `toml:"enable_chat"`
	EnableBillPayment bool `toml:"enable_bill_payment"`
	EnableImageUpload bool `toml:"enable_image_upload"`
	EnableFileLogging bool `toml:"enable_file_logging"`
	EnableHistory     bool `toml:"enable_history"`
	SeedGreeting      bool `toml:"seed_greeting"`
}

type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
	// FileNamePattern accepts {date-today} for date substitution.
	FileNamePattern string `toml:"file_name_pattern"`
}

type AppConfig struct {
	Name           string  `toml:"name"`
	Description    string  `toml:"description"`
	Currency       string  `toml:"currency"`
	Locale         string  `toml:"locale"`
	InitialBalance float64 `toml:"initial_balance"`
	DataDirectory  string  `toml:"data_dir"`
}

type Config struct {
	API      APIConfig    `toml:"api"`
	Features FeatureFlags `toml:"features"`
	Log      LogConfig    `toml:"log"`
	App      AppConfig    `toml:"app"`
}

// Default returns the configuration used when no file or env overrides exist.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:       DefaultBaseURL,
			Timeout:       DefaultTimeout,
			RetryAttempts: DefaultRetryAttempts,
			Platform:      DefaultPlatform,
		},
		Features: FeatureFlags{
			EnableChat:        true,
			EnableBillPayment: true,
			EnableImageUpload: true,
			EnableFileLogging: true,
			EnableHistory:     false,
			SeedGreeting:      false,
		},
		Log: LogConfig{
			Level:           "info",
			Development:     false,
			FileNamePattern: "jomkira_{date-today}",
		},
		App: AppConfig{
			Name:           "JomKira",
			Description:    "Your Smart Digital Bank Assistant",
			Currency:       "RM",
			Locale:         "en-MY",
			InitialBalance: DefaultInitialBalance,
			DataDirectory:  "~/.local/share/jomkira",
		},
	}
}

// Load builds the config from defaults, an optional TOML file, an optional
// .env file and JOMKIRA_* environment variables, in that order. An empty
// path means the default settings file, which may be absent.
func Load(path string) (*Config, error) {
	cfg := Default()

	// .env is optional; only a malformed file is an error.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = GetSettingsFilePath()
	}
	if FileExists(path) {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("JOMKIRA_API_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("JOMKIRA_API_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid JOMKIRA_API_TIMEOUT: %w", err)
		}
		c.API.Timeout = d
	}
	if v := os.Getenv("JOMKIRA_PLATFORM"); v != "" {
		c.API.Platform = v
	}
	if v := os.Getenv("JOMKIRA_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("JOMKIRA_DATA_DIR"); v != "" {
		c.App.DataDirectory = v
	}
	if v := os.Getenv("JOMKIRA_INITIAL_BALANCE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid JOMKIRA_INITIAL_BALANCE: %w", err)
		}
		c.App.InitialBalance = f
	}
	if v := os.Getenv("JOMKIRA_ENABLE_HISTORY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid JOMKIRA_ENABLE_HISTORY: %w", err)
		}
		c.Features.EnableHistory = b
	}
	return nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api.base_url %q", c.API.BaseURL)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative, got %s", c.API.Timeout)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log.level %q", c.Log.Level)
	}
	return nil
}

// ChatURL is the full chat endpoint.
func (c *Config) ChatURL() string {
	return strings.TrimRight(c.API.BaseURL, "/") + "/api/chat"
}

func (c *Config) DataDir() string {
	return ExpandPath(c.App.DataDirectory)
}

// LogFilePath resolves the log file name pattern for the given day.
func (c *Config) LogFilePath(now time.Time) string {
	name := strings.ReplaceAll(c.Log.FileNamePattern, "{date-today}", now.Format("2006-01-02"))
	if filepath.Ext(name) == "" {
		name += ".log"
	}
	return filepath.Join(c.DataDir(), name)
}

func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.DataDir(), "jomkira.db")
}

func GetSettingsFilePath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, herr := os.UserHomeDir()
		if herr != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "jomkira", "config.toml")
}

func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// EnsureDataDir creates the data directory with owner-only permissions.
func (c *Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir(), 0o700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}
