package config

import (
	"fmt"
	"net/url"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if c.Server.Addr == "" {
		errors = append(errors, ValidationError{
			Field:   "server.addr",
			Message: "listen address is required",
		})
	}

	if c.Server.MaxBodyBytes < 1 {
		errors = append(errors, ValidationError{
			Field:   "server.max_body_bytes",
			Message: "max_body_bytes must be positive",
		})
	}

	// Validate embedder config
	switch c.Embedder.Provider {
	case "ollama":
		if c.Embedder.BaseURL == "" {
			errors = append(errors, ValidationError{
				Field:   "embedder.base_url",
				Message: "Ollama base URL is required",
			})
		}
	case "openai":
		if c.Embedder.APIKey == "" {
			errors = append(errors, ValidationError{
				Field:   "embedder.api_key",
				Message: "OpenAI API key is required",
			})
		}
	default:
		errors = append(errors, ValidationError{
			Field:   "embedder.provider",
			Message: fmt.Sprintf("unknown provider %q (want ollama or openai)", c.Embedder.Provider),
		})
	}

	if c.Embedder.BaseURL != "" && !isHTTPURL(c.Embedder.BaseURL) {
		errors = append(errors, ValidationError{
			Field:   "embedder.base_url",
			Message: "invalid embedder base URL",
		})
	}

	if c.Embedder.MaxRetries < 0 || c.Embedder.MaxRetries > 10 {
		errors = append(errors, ValidationError{
			Field:   "embedder.max_retries",
			Message: "max_retries must be between 0 and 10",
		})
	}

	// Validate scorer config
	if t := c.Scorer.Threshold; t != nil && (*t < -1 || *t > 1) {
		errors = append(errors, ValidationError{
			Field:   "scorer.threshold",
			Message: "threshold must be between -1 and 1",
		})
	}

	if c.Scorer.TopK < 1 {
		errors = append(errors, ValidationError{
			Field:   "scorer.top_k",
			Message: "top_k must be positive",
		})
	}

	if c.Scorer.SnippetLength < 1 {
		errors = append(errors, ValidationError{
			Field:   "scorer.snippet_length",
			Message: "snippet_length must be positive",
		})
	}

	if c.Scraper.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "scraper.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	// Validate Database config
	if c.Database.URL != "" {
		if u, err := url.Parse(c.Database.URL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			errors = append(errors, ValidationError{
				Field:   "database.url",
				Message: "invalid database URL",
			})
		}
	}

	// Validate journals
	seen := make(map[string]bool)
	for i, j := range c.Journals {
		field := fmt.Sprintf("journals[%d]", i)
		name := strings.TrimSpace(j.Name)
		if name == "" {
			errors = append(errors, ValidationError{
				Field:   field + ".name",
				Message: "journal name is required",
			})
			continue
		}
		if seen[name] {
			errors = append(errors, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate journal %q", name),
			})
		}
		seen[name] = true

		if strings.TrimSpace(j.Scope) == "" && j.ScopeURL == "" {
			errors = append(errors, ValidationError{
				Field:   field + ".scope",
				Message: "scope or scope_url is required",
			})
		}
		if j.ScopeURL != "" && !isHTTPURL(j.ScopeURL) {
			errors = append(errors, ValidationError{
				Field:   field + ".scope_url",
				Message: "invalid scope URL",
			})
		}
	}

	return errors
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
