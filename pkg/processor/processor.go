package processor

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	DefaultSnippetLength = 280
	Ellipsis             = "..."
)

type ProcessorConfig struct {
	SnippetLength int
	NoisePatterns []string
}

type Processor struct {
	config ProcessorConfig
}

func NewWithConfig(config ProcessorConfig) Processor {
	if config.SnippetLength == 0 {
		config.SnippetLength = DefaultSnippetLength
	}
	if config.NoisePatterns == nil {
		config.NoisePatterns = defaultNoisePatterns()
	}

	return Processor{
		config: config,
	}
}

func New() Processor {
	return NewWithConfig(ProcessorConfig{})
}

// CleanTitle trims and NFC-normalizes a submitted title. Inner whitespace is
// kept so the echoed title matches what the user typed.
func (p Processor) CleanTitle(title string) string {
	return norm.NFC.String(strings.TrimSpace(title))
}

// NormalizeScope NFC-normalizes scope text and collapses whitespace. Scopes
// from config or the database go through this only.
func (p Processor) NormalizeScope(text string) string {
	text = norm.NFC.String(text)

	// Replace multiple spaces with single space
	return strings.Join(strings.Fields(text), " ")
}

// CleanScope strips page chrome from text scraped off a journal website,
// then normalizes it.
func (p Processor) CleanScope(text string) string {
	text = norm.NFC.String(text)

	for _, pattern := range p.config.NoisePatterns {
		text = strings.ReplaceAll(text, pattern, "")
	}

	return p.NormalizeScope(text)
}

// Snippet cuts text to SnippetLength characters and appends an ellipsis if
// anything was dropped.
func (p Processor) Snippet(text string) string {
	limit := p.config.SnippetLength
	if utf8.RuneCountInString(text) <= limit {
		return text
	}

	n := 0
	for i := range text {
		if n == limit {
			return text[:i] + Ellipsis
		}
		n++
	}
	return text
}

// Common page chrome found on journal websites
func defaultNoisePatterns() []string {
	return []string{
		"Cookie Policy",
		"Accept Cookies",
		"Privacy Policy",
		"Terms of Service",
	}
}
