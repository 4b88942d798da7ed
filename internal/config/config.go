// Package config loads runtime settings from .env, an optional YAML file and
// environment variables, in that order of precedence (later wins).
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read when CONFIG_FILE is not set.
const DefaultConfigFile = "configs/config.yaml"

// Database holds the connection parameters for postgres.
type Database struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	// ConnectionString is used instead of the fields above when UseConnectionString is set
	ConnectionString    string `yaml:"connection_string"`
	UseConnectionString bool   `yaml:"use_connection_string"`
}

// Scorer configures the external CV analysis service.
type Scorer struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
	TempDir string        `yaml:"temp_dir"`
}

// Storage configures where resumes are written.
type Storage struct {
	// Bucket is the GCS bucket name, empty stores resumes in the database
	Bucket          string `yaml:"bucket"`
	CredentialsFile string `yaml:"credentials_file"`
	CredentialsJSON string `yaml:"-"`
}

// Review configures the resume review feature.
type Review struct {
	// Provider is either "scorer" or "gemini"
	Provider     string `yaml:"provider"`
	GeminiAPIKey string `yaml:"-"`
	GeminiModel  string `yaml:"gemini_model"`
}

// Config is the full application configuration.
type Config struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	SecretKey      string   `yaml:"-"`
	Logging        bool     `yaml:"logging"`

	RateLimitPerSecond uint  `yaml:"rate_limit_per_second"`
	MaxResumeBytes     int64 `yaml:"max_resume_bytes"`

	AdminUsername string `yaml:"-"`
	AdminPassword string `yaml:"-"`

	Database Database `yaml:"database"`
	Scorer   Scorer   `yaml:"scorer"`
	Storage  Storage  `yaml:"storage"`
	Review   Review   `yaml:"review"`
}

// Load reads .env, the YAML file and the environment, then fills defaults
// and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = DefaultConfigFile
	}
	if err := cfg.readFile(path); err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("Config file %s not found, using environment only", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT: %w", err)
		}
		c.Port = port
	}
	if v := os.Getenv("ALLOW_ORIGIN"); v != "" {
		c.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("SECRET_KEY"); v != "" {
		c.SecretKey = v
	}
	if v := os.Getenv("LOGGING"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid LOGGING: %w", err)
		}
		c.Logging = b
	}
	if v := os.Getenv("RATE_LIMIT_REQUESTS_PER_SECOND"); v != "" {
		rate, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_REQUESTS_PER_SECOND: %w", err)
		}
		c.RateLimitPerSecond = uint(rate)
	}
	if v := os.Getenv("MAX_RESUME_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MAX_RESUME_BYTES: %w", err)
		}
		c.MaxResumeBytes = n
	}
	c.AdminUsername = os.Getenv("ADMIN_USERNAME")
	c.AdminPassword = os.Getenv("ADMIN_PASSWORD")

	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.Port, "DB_PORT")
	setString(&c.Database.User, "DB_USERNAME")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Name, "DB_DATABASE")
	setString(&c.Database.ConnectionString, "DB_CONNECTION_STR")
	if v := os.Getenv("USE_CONNECTION_STR"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("USE_CONNECTION_STR environments variables are invalid: %w", err)
		}
		c.Database.UseConnectionString = b
	}

	setString(&c.Scorer.URL, "SCORER_URL")
	setString(&c.Scorer.TempDir, "SCORER_TEMP_DIR")
	if v := os.Getenv("SCORER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SCORER_TIMEOUT: %w", err)
		}
		c.Scorer.Timeout = d
	}

	setString(&c.Storage.Bucket, "GCS_BUCKET")
	setString(&c.Storage.CredentialsFile, "GCS_CREDENTIALS_FILE")
	setString(&c.Storage.CredentialsJSON, "GCS_CREDENTIALS_JSON")

	setString(&c.Review.Provider, "REVIEW_PROVIDER")
	setString(&c.Review.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&c.Review.GeminiModel, "GEMINI_MODEL")
	return nil
}

func (c *Config) setDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if c.RateLimitPerSecond == 0 {
		c.RateLimitPerSecond = 5
	}
	if c.MaxResumeBytes == 0 {
		c.MaxResumeBytes = 10 << 20
	}
	if c.Scorer.URL == "" {
		c.Scorer.URL = "http://localhost:8000"
	}
	if c.Scorer.Timeout == 0 {
		c.Scorer.Timeout = 60 * time.Second
	}
	if c.Review.Provider == "" {
		c.Review.Provider = "scorer"
	}
	if c.Review.GeminiModel == "" {
		c.Review.GeminiModel = "gemini-1.5-flash"
	}
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return errors.New("SECRET_KEY is required")
	}
	if c.Database.UseConnectionString {
		if c.Database.ConnectionString == "" {
			return errors.New("DB_CONNECTION_STR is empty")
		}
	} else if c.Database.Host == "" || c.Database.Port == "" || c.Database.User == "" || c.Database.Password == "" || c.Database.Name == "" {
		return errors.New("database configuration is incomplete")
	}
	if c.Scorer.Timeout < 0 {
		return errors.New("SCORER_TIMEOUT must not be negative")
	}
	switch c.Review.Provider {
	case "scorer":
	case "gemini":
		if c.Review.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is required when REVIEW_PROVIDER is gemini")
		}
	default:
		return fmt.Errorf("unknown REVIEW_PROVIDER: %s", c.Review.Provider)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
