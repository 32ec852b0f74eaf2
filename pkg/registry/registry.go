package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xhad/jurnalcek/internal/models"
	"github.com/xhad/jurnalcek/internal/types"
	"github.com/xhad/jurnalcek/pkg/processor"
)

// Defaults is the built-in registry used when neither the config file nor a
// database provides journals.
func Defaults() []models.Journal {
	return []models.Journal{
		{
			Name:  "Jurnal Manajemen Kesehatan",
			Scope: "Manajemen rumah sakit, kebijakan kesehatan, administrasi layanan kesehatan, sistem informasi manajemen rumah sakit, pembiayaan kesehatan, audit klinis, mutu dan keselamatan pasien.",
		},
		{
			Name:  "Jurnal Abdimas JATIBARA",
			Scope: "Pengabdian kepada masyarakat, pemberdayaan komunitas, inovasi teknologi tepat guna untuk masyarakat, evaluasi program keberlanjutan sosial dan kesehatan masyarakat.",
		},
	}
}

// StaticSource serves a fixed slice of journals.
type StaticSource []models.Journal

func (s StaticSource) Journals(context.Context) ([]models.Journal, error) {
	return append([]models.Journal(nil), s...), nil
}

type RegistryConfig struct {
	Processor  processor.Processor
	Fetcher    types.ScopeFetcher
	OnProgress func(name string) // called once per journal
}

// Load reads journals from source, fetches scopes that are only given by URL,
// cleans scope text and checks names are unique. Order is preserved.
func Load(ctx context.Context, source types.JournalSource, config RegistryConfig) ([]models.Journal, error) {
	journals, err := source.Journals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load journals: %w", err)
	}
	if len(journals) == 0 {
		return nil, errors.New("no journals configured")
	}

	seen := make(map[string]bool, len(journals))
	out := make([]models.Journal, 0, len(journals))

	for _, j := range journals {
		j.Name = strings.TrimSpace(j.Name)
		if j.Name == "" {
			return nil, errors.New("journal with empty name")
		}
		if seen[j.Name] {
			return nil, fmt.Errorf("duplicate journal %q", j.Name)
		}
		seen[j.Name] = true

		if strings.TrimSpace(j.Scope) == "" && j.ScopeURL != "" {
			if config.Fetcher == nil {
				return nil, fmt.Errorf("journal %q needs its scope fetched but no fetcher is configured", j.Name)
			}
			scope, err := config.Fetcher.FetchScope(ctx, j.ScopeURL, j.ScopeSelector)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch scope for %q: %w", j.Name, err)
			}
			j.Scope = config.Processor.CleanScope(scope)
		} else {
			j.Scope = config.Processor.NormalizeScope(j.Scope)
		}

		if j.Scope == "" {
			return nil, fmt.Errorf("journal %q has no scope text", j.Name)
		}

		if config.OnProgress != nil {
			config.OnProgress(j.Name)
		}
		out = append(out, j)
	}

	return out, nil
}
