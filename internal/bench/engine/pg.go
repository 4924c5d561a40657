package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	DefaultPgTable        = "corpus"
	DefaultPgIDColumn     = "doc_id"
	DefaultPgVectorColumn = "search_vector"
	DefaultPgLanguage     = "english"
)

type PgConfig struct {
	ConnStr      string
	Table        string
	IDColumn     string
	VectorColumn string
	Language     string
}

type ConnectionPool struct {
	conn *pgxpool.Pool
}

func NewConnectionPool(ctx context.Context, connStr string) (*ConnectionPool, error) {
	dbpool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := dbpool.Ping(ctx); err != nil {
		dbpool.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	return &ConnectionPool{conn: dbpool}, nil
}

func (p *ConnectionPool) Close() {
	p.conn.Close()
}

func (p *ConnectionPool) Ping(ctx context.Context) error {
	c, err := p.conn.Acquire(ctx)
	if err != nil {
		return err
	}
	defer c.Release()
	return c.Ping(ctx)
}

// PgSearcher ranks rows of a table with a tsvector column using ts_rank.
type PgSearcher struct {
	name     string
	pool     *ConnectionPool
	sql      string
	language string
}

func NewPgSearcher(name string, pool *ConnectionPool, cfg PgConfig) *PgSearcher {
	language := cfg.Language
	if language == "" {
		language = DefaultPgLanguage
	}
	return &PgSearcher{
		name:     name,
		pool:     pool,
		sql:      buildPgSearchSQL(cfg),
		language: language,
	}
}

func buildPgSearchSQL(cfg PgConfig) string {
	table := cfg.Table
	if table == "" {
		table = DefaultPgTable
	}
	idCol := cfg.IDColumn
	if idCol == "" {
		idCol = DefaultPgIDColumn
	}
	vecCol := cfg.VectorColumn
	if vecCol == "" {
		vecCol = DefaultPgVectorColumn
	}

	tableIdent := pgx.Identifier(strings.Split(table, ".")).Sanitize()
	idIdent := pgx.Identifier{idCol}.Sanitize()
	vecIdent := pgx.Identifier{vecCol}.Sanitize()

	return fmt.Sprintf(`
		SELECT %[2]s::text, ts_rank(%[3]s, q) AS rank
		FROM %[1]s, plainto_tsquery($1::regconfig, $2) q
		WHERE %[3]s @@ q
		ORDER BY rank DESC, %[2]s
		LIMIT $3`, tableIdent, idIdent, vecIdent)
}

func (e *PgSearcher) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	rows, err := e.pool.conn.Query(ctx, e.sql, e.language, query, limit)
	if err != nil {
		return nil, fmt.Errorf("pg search: %w", err)
	}
	defer rows.Close()

	hits := make([]Hit, 0, limit)
	for rows.Next() {
		var h Hit
		var rank float32
		if err := rows.Scan(&h.DocID, &rank); err != nil {
			return nil, fmt.Errorf("pg scan hit: %w", err)
		}
		h.Score = float64(rank)
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pg iterate hits: %w", err)
	}
	return hits, nil
}

func (e *PgSearcher) Healthy(ctx context.Context) bool {
	return e.pool.Ping(ctx) == nil
}

func (e *PgSearcher) Name() string { return e.name }

// Close is a no-op; the pool is owned by the factory cleanup.
func (e *PgSearcher) Close() error { return nil }

var _ Searcher = (*PgSearcher)(nil)
