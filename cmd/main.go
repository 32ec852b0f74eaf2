package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"

	"github.com/xhad/jurnalcek/internal/models"
	"github.com/xhad/jurnalcek/internal/types"
	cfgPkg "github.com/xhad/jurnalcek/pkg/config"
	"github.com/xhad/jurnalcek/pkg/llm"
	"github.com/xhad/jurnalcek/pkg/processor"
	"github.com/xhad/jurnalcek/pkg/registry"
	"github.com/xhad/jurnalcek/pkg/scorer"
	"github.com/xhad/jurnalcek/pkg/scraper"
	"github.com/xhad/jurnalcek/pkg/store"
	"github.com/xhad/jurnalcek/server"
)

type Flags struct {
	ConfigPath string
	Overrides  cfgPkg.Overrides
}

func main() {
	// Load .env file if it exists (for API keys)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("level=warn msg=\"could not read .env\" err=%q", err)
	}

	flags, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	config, err := loadConfig(flags)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, config); err != nil {
		color.Red("✗ %v", err)
		os.Exit(1)
	}
}

// parseFlags records only the flags that were set, so unset flags never
// mask values from the config file or environment.
func parseFlags(fs *flag.FlagSet, args []string) (Flags, error) {
	var (
		f         Flags
		addr      string
		provider  string
		model     string
		ollamaURL string
		dbURL     string
		threshold float64
		topK      int
	)

	fs.StringVar(&f.ConfigPath, "config", "", "Path to config file")
	fs.StringVar(&addr, "addr", "", "Listen address (default :5000)")
	fs.StringVar(&provider, "provider", "", "Embedding provider: ollama or openai")
	fs.StringVar(&model, "model", "", "Embedding model")
	fs.StringVar(&ollamaURL, "ollama-url", "", "Ollama server URL")
	fs.StringVar(&dbURL, "db-url", "", "PostgreSQL connection string for the journal registry")
	fs.Float64Var(&threshold, "threshold", 0.58, "Similarity threshold for SESUAI")
	fs.IntVar(&topK, "top-k", 5, "Number of matches returned")
	if err := fs.Parse(args); err != nil {
		return f, err
	}

	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "addr":
			f.Overrides.Addr = &addr
		case "provider":
			f.Overrides.Provider = &provider
		case "model":
			f.Overrides.Model = &model
		case "ollama-url":
			f.Overrides.BaseURL = &ollamaURL
		case "db-url":
			f.Overrides.DBURL = &dbURL
		case "threshold":
			f.Overrides.Threshold = &threshold
		case "top-k":
			f.Overrides.TopK = &topK
		}
	})

	return f, nil
}

func loadConfig(f Flags) (*cfgPkg.Config, error) {
	config, err := cfgPkg.LoadConfigWithOverrides(f.ConfigPath, f.Overrides)
	if err != nil {
		return nil, err
	}

	if errs := config.Validate(); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("invalid configuration:\n  %s", strings.Join(msgs, "\n  "))
	}

	return config, nil
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("journals"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionSetWriter(os.Stderr),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionSetWriter(os.Stderr),
	)
}

func run(ctx context.Context, config *cfgPkg.Config) error {
	// Journal source: database, then config file, then built-in defaults
	var source types.JournalSource
	switch {
	case config.Database.URL != "":
		journalStore, err := store.NewWithConfig(ctx, store.JournalStoreConfig{
			ConnString: config.Database.URL,
			TableName:  config.Database.TableName,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize journal store: %w", err)
		}
		defer journalStore.Close()

		if err := journalStore.Migrate(ctx); err != nil {
			return err
		}
		// Seed an empty table so a fresh database starts with a usable registry.
		existing, err := journalStore.Journals(ctx)
		if err != nil {
			return err
		}
		if len(existing) == 0 {
			seed := config.Journals
			if len(seed) == 0 {
				seed = registry.Defaults()
			}
			if err := journalStore.Upsert(ctx, seed); err != nil {
				return err
			}
			color.Yellow("Seeded %d journals into %s", len(seed), config.Database.TableName)
		}
		source = journalStore
	case len(config.Journals) > 0:
		source = registry.StaticSource(config.Journals)
	default:
		source = registry.StaticSource(registry.Defaults())
	}

	proc := processor.NewWithConfig(processor.ProcessorConfig{SnippetLength: config.Scorer.SnippetLength})
	fetcher := scraper.NewWithConfig(scraper.ScraperConfig{
		RateLimit: config.Scraper.RateLimit,
		Timeout:   config.Scraper.Timeout,
	})

	loadBar := getProgressBar(-1, " Loading journal registry")
	journals, err := registry.Load(ctx, source, registry.RegistryConfig{
		Processor:  proc,
		Fetcher:    fetcher,
		OnProgress: func(string) { loadBar.Add(1) },
	})
	loadBar.Finish()
	if err != nil {
		return err
	}
	color.Green("\n✓ Loaded %d journals", len(journals))

	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Provider:   config.Embedder.Provider,
		Model:      config.Embedder.Model,
		BaseURL:    config.Embedder.BaseURL,
		APIKey:     config.Embedder.APIKey,
		BatchSize:  config.Embedder.BatchSize,
		MaxRetries: config.Embedder.MaxRetries,
		RetryDelay: config.Embedder.RetryDelay,
		Timeout:    config.Embedder.Timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize embedder: %w", err)
	}

	spinner := getSpinner(fmt.Sprintf(" Embedding scopes with %s/%s", config.Embedder.Provider, config.Embedder.Model))
	index, err := scorer.NewIndex(ctx, embedder, journals, scorer.ScorerConfig{
		Threshold:     config.Scorer.Threshold,
		TopK:          config.Scorer.TopK,
		SnippetLength: config.Scorer.SnippetLength,
	})
	spinner.Finish()
	if err != nil {
		return err
	}
	color.Green("\n✓ Scope index ready (dim=%d, threshold=%.2f)", index.Dimension(), index.Threshold())
	printRegistry(journals)

	srv := server.New(server.Config{
		Addr:            config.Server.Addr,
		ReadTimeout:     config.Server.ReadTimeout,
		WriteTimeout:    config.Server.WriteTimeout,
		ShutdownTimeout: config.Server.ShutdownTimeout,
		MaxBodyBytes:    config.Server.MaxBodyBytes,
	}, index)

	color.Cyan("\nServing title checker on %s (Ctrl+C to stop)", config.Server.Addr)
	return srv.Run(ctx)
}

func printRegistry(journals []models.Journal) {
	name := color.New(color.FgCyan).SprintFunc()
	for _, j := range journals {
		fmt.Fprintf(os.Stderr, "  • %s\n", name(j.Name))
	}
}
