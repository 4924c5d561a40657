// Package dataset loads BEIR-style query sets and relevance judgments.
package dataset

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/DjordjeVuckovic/fts-bench/internal/apperr"
)

const (
	DefaultDataDir = "data"
	DefaultSplit   = "test"

	queriesJSONL   = "queries.jsonl"
	queriesParquet = "queries.parquet"
	qrelsDir       = "qrels"

	// maxLineSize bounds a single JSONL record; long passages in some BEIR
	// query files exceed bufio's 64KiB default.
	maxLineSize = 4 << 20
)

type Config struct {
	DataDir string
	Name    string
	Split   string
}

// Dir is the dataset directory: <data-dir>/<name>.
func (c Config) Dir() string {
	dataDir := c.DataDir
	if dataDir == "" {
		dataDir = DefaultDataDir
	}
	return filepath.Join(dataDir, c.Name)
}

func (c Config) QrelsPath() string {
	split := c.Split
	if split == "" {
		split = DefaultSplit
	}
	return filepath.Join(c.Dir(), qrelsDir, split+".tsv")
}

// Load reads the queries file and the qrels split of a dataset and returns
// the queries that have at least one relevant document. A queries.parquet
// file takes precedence over queries.jsonl when both exist.
func Load(cfg Config) (*QuerySet, error) {
	if cfg.Name == "" {
		return nil, apperr.NewFieldValidation("dataset.name", "is required")
	}

	raw, err := readQueries(cfg.Dir())
	if err != nil {
		return nil, err
	}

	qrelsPath := cfg.QrelsPath()
	f, err := os.Open(qrelsPath)
	if err != nil {
		return nil, fmt.Errorf("open qrels: %w", err)
	}
	defer f.Close()

	judgments, err := ParseQrels(f)
	if err != nil {
		return nil, fmt.Errorf("parse qrels %s: %w", qrelsPath, err)
	}

	qs := Join(cfg.Name, raw, judgments)
	slog.Info("Dataset loaded",
		"dataset", cfg.Name,
		"split", cfg.Split,
		"queries_total", len(raw),
		"queries_judged", qs.Len(),
		"relevant_pairs", qs.RelevantCount())

	return qs, nil
}

func readQueries(dir string) ([]RawQuery, error) {
	parquetPath := filepath.Join(dir, queriesParquet)
	if _, err := os.Stat(parquetPath); err == nil {
		raw, err := ReadParquetQueries(parquetPath)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", parquetPath, err)
		}
		return raw, nil
	}

	jsonlPath := filepath.Join(dir, queriesJSONL)
	f, err := os.Open(jsonlPath)
	if err != nil {
		return nil, fmt.Errorf("open queries: %w", err)
	}
	defer f.Close()

	raw, err := ParseQueries(f)
	if err != nil {
		return nil, fmt.Errorf("parse queries %s: %w", jsonlPath, err)
	}
	return raw, nil
}

// RawQuery is a query record before relevance judgments are attached.
type RawQuery struct {
	ID   string `json:"_id" parquet:"_id"`
	Text string `json:"text" parquet:"text"`
}

// ParseQueries reads line-delimited JSON records with "_id" and "text".
// Blank lines are skipped.
func ParseQueries(r io.Reader) ([]RawQuery, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var out []RawQuery
	line := 0
	for sc.Scan() {
		line++
		b := sc.Bytes()
		if len(strings.TrimSpace(string(b))) == 0 {
			continue
		}
		var q RawQuery
		if err := json.Unmarshal(b, &q); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if q.ID == "" {
			return nil, fmt.Errorf("line %d: missing _id", line)
		}
		out = append(out, q)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan queries: %w", err)
	}
	return out, nil
}

// Judgments maps query id to the ordered list of relevant doc ids.
type Judgments map[string][]string

// ParseQrels reads a tab-separated relevance table with a header row and
// columns (query-id, corpus-id, score). Only rows with score > 0 are kept.
func ParseQrels(r io.Reader) (Judgments, error) {
	sc := bufio.NewScanner(r)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		return nil, errors.New("empty qrels file")
	}

	out := make(Judgments)
	line := 1
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r\n")
		if strings.TrimSpace(text) == "" {
			continue
		}
		cols := strings.Split(text, "\t")
		if len(cols) != 3 {
			return nil, fmt.Errorf("line %d: expected 3 columns, got %d", line, len(cols))
		}
		score, err := strconv.Atoi(strings.TrimSpace(cols[2]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid score %q: %w", line, cols[2], err)
		}
		if score <= 0 {
			continue
		}
		qID := strings.TrimSpace(cols[0])
		out[qID] = append(out[qID], strings.TrimSpace(cols[1]))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan qrels: %w", err)
	}
	return out, nil
}

// Join attaches judgments to queries, keeping query order and dropping
// queries with no relevant documents. Judgments for unknown query ids and
// repeated query ids after the first are ignored.
func Join(name string, raw []RawQuery, judgments Judgments) *QuerySet {
	qs := &QuerySet{Name: name, Queries: make([]Query, 0, len(raw))}
	seen := make(map[string]struct{}, len(raw))

	for _, rq := range raw {
		if _, dup := seen[rq.ID]; dup {
			continue
		}
		seen[rq.ID] = struct{}{}

		docs := judgments[rq.ID]
		if len(docs) == 0 {
			continue
		}
		relevant := make(map[string]struct{}, len(docs))
		for _, d := range docs {
			relevant[d] = struct{}{}
		}
		qs.Queries = append(qs.Queries, Query{ID: rq.ID, Text: rq.Text, Relevant: relevant})
	}
	return qs
}
