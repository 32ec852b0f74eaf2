package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xhad/jurnalcek/internal/models"
)

type Config struct {
	Server struct {
		Addr            string        `yaml:"addr"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	} `yaml:"server"`

	Embedder struct {
		Provider   string        `yaml:"provider"`
		BaseURL    string        `yaml:"base_url"`
		Model      string        `yaml:"model"`
		APIKey     string        `yaml:"api_key"`
		BatchSize  int           `yaml:"batch_size"`
		MaxRetries int           `yaml:"max_retries"`
		RetryDelay time.Duration `yaml:"retry_delay"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"embedder"`

	Scorer struct {
		Threshold     *float64 `yaml:"threshold"`
		TopK          int      `yaml:"top_k"`
		SnippetLength int      `yaml:"snippet_length"`
	} `yaml:"scorer"`

	Scraper struct {
		RateLimit float64       `yaml:"rate_limit"`
		Timeout   time.Duration `yaml:"timeout"`
	} `yaml:"scraper"`

	Database struct {
		URL       string `yaml:"url"`
		TableName string `yaml:"table_name"`
	} `yaml:"database"`

	Journals []models.Journal `yaml:"journals"`
}

// Overrides carries values set explicitly on the command line. A nil field
// leaves the file and environment value in place.
type Overrides struct {
	Addr      *string
	Provider  *string
	Model     *string
	BaseURL   *string
	DBURL     *string
	Threshold *float64
	TopK      *int
}

func LoadConfig(path string) (*Config, error) {
	return LoadConfigWithOverrides(path, Overrides{})
}

// LoadConfigWithOverrides loads the config file (or defaults), then layers
// environment variables and overrides on top before provider-dependent
// defaults are filled in.
func LoadConfigWithOverrides(path string, overrides Overrides) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/jurnalcek/config.yaml"),
			"/etc/jurnalcek/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig(overrides)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	resolve(&config, overrides)
	return &config, nil
}

func getDefaultConfig(overrides Overrides) (*Config, error) {
	config := &Config{}
	resolve(config, overrides)
	return config, nil
}

// resolve settles the provider first so the environment and defaults
// steps see the provider that will actually be used.
func resolve(config *Config, overrides Overrides) {
	current := config.Embedder.Provider
	if current == "" {
		current = "ollama"
	}
	if overrides.Provider != nil && *overrides.Provider != current {
		// Model and base URL in the file belong to the old provider.
		config.Embedder.Provider = *overrides.Provider
		config.Embedder.Model = ""
		config.Embedder.BaseURL = ""
	}

	mergeWithEnv(config)
	applyOverrides(config, overrides)
	applyDefaults(config)
}

func applyOverrides(config *Config, overrides Overrides) {
	if overrides.Addr != nil {
		config.Server.Addr = *overrides.Addr
	}
	if overrides.Model != nil {
		config.Embedder.Model = *overrides.Model
	}
	if overrides.BaseURL != nil {
		config.Embedder.BaseURL = *overrides.BaseURL
	}
	if overrides.DBURL != nil {
		config.Database.URL = *overrides.DBURL
	}
	if overrides.Threshold != nil {
		threshold := *overrides.Threshold
		config.Scorer.Threshold = &threshold
	}
	if overrides.TopK != nil {
		config.Scorer.TopK = *overrides.TopK
	}
}

func applyDefaults(config *Config) {
	if config.Server.Addr == "" {
		config.Server.Addr = ":5000"
	}
	if config.Server.ReadTimeout == 0 {
		config.Server.ReadTimeout = 10 * time.Second
	}
	if config.Server.WriteTimeout == 0 {
		config.Server.WriteTimeout = 60 * time.Second
	}
	if config.Server.ShutdownTimeout == 0 {
		config.Server.ShutdownTimeout = 10 * time.Second
	}
	if config.Server.MaxBodyBytes == 0 {
		config.Server.MaxBodyBytes = 1 << 20
	}

	if config.Embedder.Provider == "" {
		config.Embedder.Provider = "ollama"
	}
	if config.Embedder.Model == "" {
		switch config.Embedder.Provider {
		case "openai":
			config.Embedder.Model = "text-embedding-3-small"
		default:
			config.Embedder.Model = "all-minilm"
		}
	}
	if config.Embedder.BaseURL == "" && config.Embedder.Provider == "ollama" {
		config.Embedder.BaseURL = "http://localhost:11434"
	}
	if config.Embedder.BatchSize == 0 {
		config.Embedder.BatchSize = 32
	}
	if config.Embedder.MaxRetries == 0 {
		config.Embedder.MaxRetries = 3
	}
	if config.Embedder.RetryDelay == 0 {
		config.Embedder.RetryDelay = 2 * time.Second
	}
	if config.Embedder.Timeout == 0 {
		config.Embedder.Timeout = 30 * time.Second
	}

	if config.Scorer.Threshold == nil {
		threshold := 0.58
		config.Scorer.Threshold = &threshold
	}
	if config.Scorer.TopK == 0 {
		config.Scorer.TopK = 5
	}
	if config.Scorer.SnippetLength == 0 {
		config.Scorer.SnippetLength = 280
	}

	if config.Scraper.RateLimit == 0 {
		config.Scraper.RateLimit = 2.0
	}
	if config.Scraper.Timeout == 0 {
		config.Scraper.Timeout = 30 * time.Second
	}

	if config.Database.TableName == "" {
		config.Database.TableName = "journals"
	}
}

func mergeWithEnv(config *Config) {
	if port := os.Getenv("PORT"); port != "" {
		if _, err := strconv.Atoi(port); err == nil {
			config.Server.Addr = ":" + port
		}
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && config.Embedder.Provider != "openai" {
		config.Embedder.BaseURL = baseURL
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.Embedder.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" && config.Embedder.Provider == "openai" {
		config.Embedder.BaseURL = baseURL
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
}
