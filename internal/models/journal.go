package models

// Recommendation is the binary verdict returned for a checked title.
type Recommendation string

const (
	Suitable    Recommendation = "SESUAI"
	NotSuitable Recommendation = "TIDAK SESUAI"
)

// Journal is one entry of the scope registry. Name is the unique key.
type Journal struct {
	Name          string `json:"journal" yaml:"name"`
	Scope         string `json:"scope" yaml:"scope"`
	ScopeURL      string `json:"scope_url,omitempty" yaml:"scope_url"`
	ScopeSelector string `json:"-" yaml:"scope_selector"`
}

type Match struct {
	Journal      string  `json:"journal"`
	Score        float64 `json:"score"`
	ScopeSnippet string  `json:"scope_snippet"`
}

type CheckResult struct {
	Title          string         `json:"title"`
	Recommendation Recommendation `json:"recommendation"`
	BestMatch      Match          `json:"best_match"`
	Matches        []Match        `json:"matches"`
}
