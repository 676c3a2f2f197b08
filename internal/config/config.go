package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"

	"adcopy-engine/backend/internal/ai"
)

// Config is the service configuration read from the environment.
type Config struct {
	Port string `env:"PORT" envDefault:"8000"`

	OpenAIBaseURL     string        `env:"TEAM_GPT_BASE_URL" envDefault:"https://api.openai.com/v1"`
	OpenAIKey         string        `env:"TEAM_GPT_API_KEY"`
	VisionModel       string        `env:"OPENAI_VISION_MODEL" envDefault:"gpt-4o-mini"`
	FallbackModel     string        `env:"OPENAI_VISION_FALLBACK_MODEL" envDefault:"gpt-4o"`
	Temperature       float64       `env:"OPENAI_TEMPERATURE" envDefault:"0.8"`
	RefineTemperature float64       `env:"OPENAI_REFINE_TEMPERATURE" envDefault:"0.3"`
	MaxTokens         int           `env:"OPENAI_MAX_TOKENS" envDefault:"1200"`
	MaxRetries        int           `env:"OPENAI_MAX_RETRIES" envDefault:"2"`
	GenerateTimeout   time.Duration `env:"GENERATE_TIMEOUT" envDefault:"120s"`
	RefineTimeout     time.Duration `env:"REFINE_TIMEOUT" envDefault:"30s"`
	DisableAI         bool          `env:"DISABLE_AI" envDefault:"false"`

	PublicURL   string  `env:"BACKEND_PUBLIC_URL" envDefault:"http://localhost:8000"`
	StorageRoot string  `env:"STORAGE_ROOT" envDefault:"./data"`
	MaxFileMB   float64 `env:"MAX_FILE_MB" envDefault:"15"`
	DBPath      string  `env:"DB_PATH"`

	BannedTermsPath  string   `env:"BANNED_TERMS_PATH"`
	PersonaTablePath string   `env:"PERSONA_TABLE_PATH"`
	AllowedOrigins   []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	DiversityK          int     `env:"DIVERSITY_K" envDefault:"3"`
	SimilarityThreshold float64 `env:"SIMILARITY_THRESHOLD" envDefault:"0.6"`
}

// Load reads .env if present and parses environment variables into Config.
func Load() (Config, error) {
	// .env is optional
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg.finish()
}

// Parse builds a Config from an explicit variable set instead of the process environment.
func Parse(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg.finish()
}

func (c Config) finish() (Config, error) {
	c.OpenAIBaseURL = strings.TrimRight(strings.TrimSpace(c.OpenAIBaseURL), "/")
	c.PublicURL = strings.TrimRight(strings.TrimSpace(c.PublicURL), "/")
	if strings.TrimSpace(c.DBPath) == "" {
		c.DBPath = filepath.Join(c.StorageRoot, "adcopy.db")
	}
	origins := c.AllowedOrigins[:0]
	for _, origin := range c.AllowedOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	c.AllowedOrigins = origins
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects values the service cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.MaxFileMB <= 0 {
		errs = append(errs, fmt.Errorf("MAX_FILE_MB must be positive, got %v", c.MaxFileMB))
	}
	if c.DiversityK < 1 {
		errs = append(errs, fmt.Errorf("DIVERSITY_K must be at least 1, got %d", c.DiversityK))
	}
	if c.SimilarityThreshold <= 0 {
		errs = append(errs, fmt.Errorf("SIMILARITY_THRESHOLD must be positive, got %v", c.SimilarityThreshold))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("OPENAI_MAX_RETRIES must not be negative, got %d", c.MaxRetries))
	}
	return errors.Join(errs...)
}

// AIEnabled reports whether a real generation backend should be used.
func (c Config) AIEnabled() bool {
	return !c.DisableAI && strings.TrimSpace(c.OpenAIKey) != ""
}

// UploadDir is where uploaded images are stored.
func (c Config) UploadDir() string {
	return filepath.Join(c.StorageRoot, "uploads")
}

// MaxFileBytes is the upload size limit in bytes.
func (c Config) MaxFileBytes() int64 {
	return int64(c.MaxFileMB * 1024 * 1024)
}

// AI maps the OpenAI settings onto the generation client configuration.
func (c Config) AI() ai.Config {
	return ai.Config{
		APIKey:            c.OpenAIKey,
		Model:             c.VisionModel,
		BaseURL:           c.OpenAIBaseURL,
		Temperature:       c.Temperature,
		RefineTemperature: c.RefineTemperature,
		MaxTokens:         c.MaxTokens,
		MaxRetries:        c.MaxRetries,
		Timeout:           c.GenerateTimeout,
	}
}
