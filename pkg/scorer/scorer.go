package scorer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/xhad/jurnalcek/internal/models"
	"github.com/xhad/jurnalcek/internal/types"
	"github.com/xhad/jurnalcek/pkg/processor"
)

const (
	DefaultThreshold = 0.58
	DefaultTopK      = 5
)

// ErrEmptyTitle is returned by Check for an empty or whitespace-only title.
var ErrEmptyTitle = errors.New("empty title")

type ScorerConfig struct {
	// Threshold is the SESUAI cut-off; nil means DefaultThreshold.
	Threshold     *float64
	TopK          int
	SnippetLength int
}

// Index holds the registry journals and their scope vectors. It is built once
// at startup and never mutated, so it is safe for concurrent Check calls.
type Index struct {
	config    ScorerConfig
	threshold float64
	embedder  types.Embedder
	processor processor.Processor
	journals  []models.Journal
	snippets  []string
	vectors   [][]float32
	dim       int
}

// NewIndex embeds every journal scope with embedder. The same embedder is used
// for titles, so scores stay on one cosine scale.
func NewIndex(ctx context.Context, embedder types.Embedder, journals []models.Journal, config ScorerConfig) (*Index, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if len(journals) == 0 {
		return nil, errors.New("journal registry is empty")
	}
	threshold := DefaultThreshold
	if config.Threshold != nil {
		threshold = *config.Threshold
	}
	if config.TopK <= 0 {
		config.TopK = DefaultTopK
	}

	p := processor.NewWithConfig(processor.ProcessorConfig{SnippetLength: config.SnippetLength})

	scopes := make([]string, len(journals))
	snippets := make([]string, len(journals))
	for i, j := range journals {
		scopes[i] = j.Scope
		snippets[i] = p.Snippet(j.Scope)
	}

	vectors, err := embedder.EmbedDocuments(ctx, scopes)
	if err != nil {
		return nil, fmt.Errorf("failed to embed journal scopes: %w", err)
	}
	if len(vectors) != len(journals) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d scopes", len(vectors), len(journals))
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, errors.New("embedder returned an empty vector")
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("scope %q has dimension %d, want %d", journals[i].Name, len(v), dim)
		}
	}

	return &Index{
		config:    config,
		threshold: threshold,
		embedder:  embedder,
		processor: p,
		journals:  append([]models.Journal(nil), journals...),
		snippets:  snippets,
		vectors:   vectors,
		dim:       dim,
	}, nil
}

// Check scores title against every journal scope. topK <= 0 selects the
// configured default.
func (ix *Index) Check(ctx context.Context, title string, topK int) (*models.CheckResult, error) {
	title = ix.processor.CleanTitle(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if topK <= 0 {
		topK = ix.config.TopK
	}

	query, err := ix.embedder.EmbedQuery(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("failed to embed title: %w", err)
	}
	if len(query) != ix.dim {
		return nil, fmt.Errorf("title embedding has dimension %d, want %d", len(query), ix.dim)
	}

	matches := make([]models.Match, len(ix.journals))
	for i, j := range ix.journals {
		matches[i] = models.Match{
			Journal:      j.Name,
			Score:        CosineSimilarity(query, ix.vectors[i]),
			ScopeSnippet: ix.snippets[i],
		}
	}

	// Stable so equal scores keep registry order.
	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})

	best := matches[0]
	if topK > len(matches) {
		topK = len(matches)
	}

	return &models.CheckResult{
		Title:          title,
		Recommendation: ix.Recommend(best.Score),
		BestMatch:      best,
		Matches:        matches[:topK],
	}, nil
}

// Recommend applies the threshold to a best-match score.
func (ix *Index) Recommend(score float64) models.Recommendation {
	if score >= ix.threshold {
		return models.Suitable
	}
	return models.NotSuitable
}

// Journals returns a copy of the registry in index order.
func (ix *Index) Journals() []models.Journal {
	return append([]models.Journal(nil), ix.journals...)
}

// Snippet truncates text with the index's snippet length.
func (ix *Index) Snippet(text string) string {
	return ix.processor.Snippet(text)
}

func (ix *Index) Threshold() float64 {
	return ix.threshold
}

func (ix *Index) Dimension() int {
	return ix.dim
}

// CosineSimilarity computes the cosine similarity between two vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
