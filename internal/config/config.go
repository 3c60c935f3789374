package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	ProviderDeepSeek = "deepseek"
	ProviderOllama   = "ollama"
)

var ErrInvalid = errors.New("invalid config")

// Config is resolved in order: defaults, optional TOML file, environment.
type Config struct {
	Port     string `toml:"port"`
	LogLevel string `toml:"log_level"`

	DefaultProvider string        `toml:"provider"`
	DefaultModel    string        `toml:"model"`
	DeepSeekKey     string        `toml:"deepseek_api_key"`
	DeepSeekBaseURL string        `toml:"deepseek_base_url"`
	OllamaHost      string        `toml:"ollama_host"`
	OllamaModel     string        `toml:"ollama_model"`
	ModelTimeout    time.Duration `toml:"-"`
	ModelMaxRetries int           `toml:"model_max_retries"`
	ModelRatePerSec float64       `toml:"model_rate_per_sec"`

	StartingBudget int    `toml:"starting_budget"`
	CatalogDB      string `toml:"catalog_db"`
	CatalogSeed    string `toml:"catalog_seed"`
	StaticDir      string `toml:"static_dir"`
	ExportEnabled  bool   `toml:"export_enabled"`
	ExportFile     string `toml:"export_file"`
}

// fileConfig mirrors Config for the TOML overlay; durations are written as "300s".
type fileConfig struct {
	Config
	ModelTimeout string `toml:"model_timeout"`
}

func Defaults() Config {
	return Config{
		Port:            "5000",
		LogLevel:        "info",
		DefaultProvider: ProviderDeepSeek,
		DefaultModel:    "deepseek-reasoner",
		DeepSeekBaseURL: "https://api.deepseek.com",
		OllamaHost:      "http://localhost:11434",
		OllamaModel:     "qwen3",
		ModelTimeout:    300 * time.Second,
		ModelMaxRetries: 3,
		ModelRatePerSec: 2,
		StartingBudget:  11,
		CatalogDB:       "./data/players.db",
		CatalogSeed:     "./data/players.json",
		StaticDir:       "./public",
		ExportEnabled:   false,
		ExportFile:      "./nba-legend-results.txt",
	}
}

// FromEnv applies the environment on top of the defaults.
func FromEnv() Config {
	c := Defaults()
	applyEnv(&c)
	return c
}

// Load reads .env if present, then the TOML file at path (optional), then
// the environment, and validates the result.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	c := Defaults()
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := overlayFile(&c, path); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&c)
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func overlayFile(c *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	fc := fileConfig{Config: *c}
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	*c = fc.Config
	if fc.ModelTimeout != "" {
		d, err := time.ParseDuration(fc.ModelTimeout)
		if err != nil {
			return fmt.Errorf("%w: model_timeout: %v", ErrInvalid, err)
		}
		c.ModelTimeout = d
	}
	return nil
}

func applyEnv(c *Config) {
	c.Port = getenv("PORT", c.Port)
	c.LogLevel = getenv("LOG_LEVEL", c.LogLevel)
	c.DefaultProvider = strings.ToLower(getenv("DEFAULT_PROVIDER", c.DefaultProvider))
	c.DefaultModel = getenv("DEFAULT_MODEL", c.DefaultModel)
	c.DeepSeekKey = getenv("DEEPSEEK_API_KEY", c.DeepSeekKey)
	c.DeepSeekBaseURL = getenv("DEEPSEEK_BASE_URL", c.DeepSeekBaseURL)
	c.OllamaHost = getenv("OLLAMA_HOST", c.OllamaHost)
	c.OllamaModel = getenv("OLLAMA_MODEL", c.OllamaModel)
	c.ModelTimeout = getenvDuration("MODEL_TIMEOUT", c.ModelTimeout)
	c.ModelMaxRetries = getenvInt("MODEL_MAX_RETRIES", c.ModelMaxRetries)
	c.ModelRatePerSec = getenvFloat("MODEL_RATE_PER_SEC", c.ModelRatePerSec)
	c.StartingBudget = getenvInt("STARTING_BUDGET", c.StartingBudget)
	c.CatalogDB = getenv("CATALOG_DB", c.CatalogDB)
	c.CatalogSeed = getenv("CATALOG_SEED", c.CatalogSeed)
	c.StaticDir = getenv("STATIC_DIR", c.StaticDir)
	c.ExportEnabled = getenvBool("EXPORT_ENABLED", c.ExportEnabled)
	c.ExportFile = getenv("EXPORT_FILE", c.ExportFile)
}

func (c Config) Validate() error {
	switch c.DefaultProvider {
	case ProviderDeepSeek, ProviderOllama:
	default:
		return fmt.Errorf("%w: unknown provider %q", ErrInvalid, c.DefaultProvider)
	}
	if c.StartingBudget < 0 {
		return fmt.Errorf("%w: starting budget must not be negative", ErrInvalid)
	}
	if c.ModelMaxRetries < 0 {
		return fmt.Errorf("%w: model retries must not be negative", ErrInvalid)
	}
	if c.ModelTimeout <= 0 {
		return fmt.Errorf("%w: model timeout must be positive", ErrInvalid)
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("%w: port %q", ErrInvalid, c.Port)
	}
	return nil
}

// Model is the model name for the selected provider.
func (c Config) Model() string {
	if c.DefaultProvider == ProviderOllama {
		return c.OllamaModel
	}
	return c.DefaultModel
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return v
	}
	return def
}

func getenvFloat(k string, def float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(k), 64); err == nil {
		return v
	}
	return def
}

func getenvBool(k string, def bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(k)); err == nil {
		return v
	}
	return def
}

func getenvDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	// bare numbers are seconds
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
