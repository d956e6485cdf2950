package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ibeckermayer/xtop/internal/ranking"
)

const appName = "xtop"

// EnvConfigPath overrides the config file location
const EnvConfigPath = "XTOP_CONFIG"

// EnvSMTPPassword supplies the SMTP password when the config leaves it empty
const EnvSMTPPassword = "XTOP_SMTP_PASSWORD"

// Config holds all application configuration
type Config struct {
	Version   int            `toml:"version"`
	Usernames []string       `toml:"usernames"`
	Ranking   RankingConfig  `toml:"ranking"`
	Capture   CaptureConfig  `toml:"capture"`
	Schedule  ScheduleConfig `toml:"schedule"`
	Storage   StorageConfig  `toml:"storage"`
	Email     EmailConfig    `toml:"email"`
	Log       LogConfig      `toml:"log"`
}

type RankingConfig struct {
	TopN       int      `toml:"top_n"`
	Window     Duration `toml:"window"`
	FutureSkew Duration `toml:"future_skew"`
	MinYear    int      `toml:"min_year"`
	BaseURL    string   `toml:"base_url"`
}

type CaptureConfig struct {
	Headless    bool     `toml:"headless"`
	Scrolls     int      `toml:"scrolls"`
	ScrollPause Duration `toml:"scroll_pause"`
	InitialWait Duration `toml:"initial_wait"`
	Timeout     Duration `toml:"timeout"`
	Concurrency int      `toml:"concurrency"`
	LastOnly    bool     `toml:"last_only"` // rank only the final captured payload
}

type ScheduleConfig struct {
	Cron     string `toml:"cron"`
	Timezone string `toml:"timezone"`
}

type StorageConfig struct {
	DBPath  string `toml:"db_path"`  // empty: <cache dir>/xtop.db
	DataDir string `toml:"data_dir"` // empty: <cache dir>/data
	Debug   bool   `toml:"debug"`    // write raw payload and post dumps
}

type EmailConfig struct {
	Enabled  bool     `toml:"enabled"`
	Provider string   `toml:"provider"` // "smtp"
	SMTPHost string   `toml:"smtp_host"`
	SMTPPort int      `toml:"smtp_port"`
	SMTPUser string   `toml:"smtp_user"`
	SMTPPass string   `toml:"smtp_pass"` // prefer $XTOP_SMTP_PASSWORD
	FromAddr string   `toml:"from_addr"`
	To       []string `toml:"to"`
}

// Password returns the SMTP password from the config or the environment
func (e EmailConfig) Password() string {
	if e.SMTPPass != "" {
		return e.SMTPPass
	}
	return os.Getenv(EnvSMTPPassword)
}

type LogConfig struct {
	Level   string `toml:"level"`
	NoColor bool   `toml:"no_color"`
}

// Duration is a time.Duration written as "24h" or "90m" in TOML
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns a Config with sensible defaults
func Default() *Config {
	r := ranking.DefaultOptions()
	return &Config{
		Version:   1,
		Usernames: []string{},
		Ranking: RankingConfig{
			TopN:       r.TopN,
			Window:     Duration{r.Window},
			FutureSkew: Duration{r.FutureSkew},
			MinYear:    r.MinYear,
			BaseURL:    r.BaseURL,
		},
		Capture: CaptureConfig{
			Headless:    true,
			Scrolls:     25,
			ScrollPause: Duration{2 * time.Second},
			InitialWait: Duration{5 * time.Second},
			Timeout:     Duration{3 * time.Minute},
			Concurrency: 2,
		},
		Schedule: ScheduleConfig{
			Cron:     "0 9 * * *",
			Timezone: "UTC",
		},
		Storage: StorageConfig{
			Debug: true,
		},
		Email: EmailConfig{
			Provider: "smtp",
			SMTPPort: 587,
			To:       []string{},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// RankingOptions converts the ranking section into pipeline options
func (c *Config) RankingOptions() ranking.Options {
	return ranking.Options{
		TopN:       c.Ranking.TopN,
		Window:     c.Ranking.Window.Duration,
		FutureSkew: c.Ranking.FutureSkew.Duration,
		MinYear:    c.Ranking.MinYear,
		BaseURL:    c.Ranking.BaseURL,
		LastOnly:   c.Capture.LastOnly,
	}
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appName), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// CacheDir returns the platform-appropriate cache directory.
// On macOS this is ~/Library/Caches/xtop/
func CacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, appName), nil
}

// DBPath returns the configured SQLite path or the default one
func (c *Config) DBPath() (string, error) {
	if c.Storage.DBPath != "" {
		return c.Storage.DBPath, nil
	}
	dir, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName+".db"), nil
}

// DataDir returns the directory for debug dumps
func (c *Config) DataDir() (string, error) {
	if c.Storage.DataDir != "" {
		return c.Storage.DataDir, nil
	}
	dir, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "data"), nil
}

// Load reads config from the default location
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads config from path. Keys missing from the file keep
// their default values.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config to the default location
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes config to path
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}
