package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/xhad/jurnalcek/internal/models"
)

type JournalStoreConfig struct {
	ConnString string
	TableName  string
}

// JournalStore reads the scope registry from Postgres. It never writes
// embeddings; vectors live only in the process.
type JournalStore struct {
	config JournalStoreConfig
	pool   *pgxpool.Pool
}

func NewWithConfig(ctx context.Context, config JournalStoreConfig) (*JournalStore, error) {
	if config.TableName == "" {
		config.TableName = "journals"
	}

	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &JournalStore{
		config: config,
		pool:   pool,
	}, nil
}

// Migrate creates the journals table if it does not exist.
func (js *JournalStore) Migrate(ctx context.Context) error {
	_, err := js.pool.Exec(ctx, createTableSQL(js.config.TableName))
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// Journals returns every journal ordered by position, then name.
func (js *JournalStore) Journals(ctx context.Context) ([]models.Journal, error) {
	rows, err := js.pool.Query(ctx, selectJournalsSQL(js.config.TableName))
	if err != nil {
		return nil, fmt.Errorf("failed to query journals: %w", err)
	}
	defer rows.Close()

	var journals []models.Journal
	for rows.Next() {
		var j models.Journal
		if err := rows.Scan(&j.Name, &j.Scope, &j.ScopeURL, &j.ScopeSelector); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		journals = append(journals, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journals: %w", err)
	}

	return journals, nil
}

// Upsert inserts or replaces journals, assigning positions in slice order.
func (js *JournalStore) Upsert(ctx context.Context, journals []models.Journal) error {
	batch := &pgx.Batch{}
	stmt := upsertJournalSQL(js.config.TableName)
	for i, j := range journals {
		batch.Queue(stmt, j.Name, j.Scope, j.ScopeURL, j.ScopeSelector, i)
	}

	br := js.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range journals {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to upsert journal: %w", err)
		}
	}
	return nil
}

func (js *JournalStore) Close() {
	if js.pool != nil {
		js.pool.Close()
	}
}

func tableIdent(table string) string {
	return pgx.Identifier{table}.Sanitize()
}

func createTableSQL(table string) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			name TEXT PRIMARY KEY,
			scope TEXT NOT NULL DEFAULT '',
			scope_url TEXT NOT NULL DEFAULT '',
			scope_selector TEXT NOT NULL DEFAULT '',
			position INTEGER NOT NULL DEFAULT 0
		)`, tableIdent(table))
}

func selectJournalsSQL(table string) string {
	return fmt.Sprintf(`
		SELECT name, scope, scope_url, scope_selector
		FROM %s
		ORDER BY position, name`, tableIdent(table))
}

func upsertJournalSQL(table string) string {
	return fmt.Sprintf(`
		INSERT INTO %s (name, scope, scope_url, scope_selector, position)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE SET
			scope = EXCLUDED.scope,
			scope_url = EXCLUDED.scope_url,
			scope_selector = EXCLUDED.scope_selector,
			position = EXCLUDED.position`, tableIdent(table))
}
