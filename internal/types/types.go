package types

import (
	"context"

	"github.com/xhad/jurnalcek/internal/models"
)

// Core interfaces
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

type JournalSource interface {
	Journals(ctx context.Context) ([]models.Journal, error)
}

type ScopeFetcher interface {
	FetchScope(ctx context.Context, url, selector string) (string, error)
}

type Checker interface {
	Check(ctx context.Context, title string, topK int) (*models.CheckResult, error)
	Journals() []models.Journal
	Snippet(text string) string
}
