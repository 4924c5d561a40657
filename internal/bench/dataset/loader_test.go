package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DjordjeVuckovic/fts-bench/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const queriesFixture = `{"_id": "1", "text": "How do I learn Go?"}
{"_id": "2", "text": "What is BM25?"}

{"_id": "3", "text": "Unjudged query"}
{"_id": "4", "text": "Only negative judgments"}
`

const qrelsFixture = "query-id\tcorpus-id\tscore\n" +
	"1\td10\t1\n" +
	"1\td11\t2\n" +
	"2\td20\t1\n" +
	"4\td40\t0\n" +
	"99\td99\t1\n"

func writeDataset(t *testing.T, queries, qrels string) Config {
	t.Helper()
	dir := t.TempDir()
	dsDir := filepath.Join(dir, "quora")
	require.NoError(t, os.MkdirAll(filepath.Join(dsDir, "qrels"), 0o755))
	if queries != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dsDir, "queries.jsonl"), []byte(queries), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dsDir, "qrels", "test.tsv"), []byte(qrels), 0o644))
	return Config{DataDir: dir, Name: "quora", Split: "test"}
}

func TestLoad(t *testing.T) {
	t.Run("joins queries with positive judgments", func(t *testing.T) {
		cfg := writeDataset(t, queriesFixture, qrelsFixture)

		qs, err := Load(cfg)
		require.NoError(t, err)
		require.Equal(t, 2, qs.Len())

		assert.Equal(t, "1", qs.Queries[0].ID)
		assert.Equal(t, "How do I learn Go?", qs.Queries[0].Text)
		assert.Len(t, qs.Queries[0].Relevant, 2)
		assert.True(t, qs.Queries[0].IsRelevant("d11"))

		assert.Equal(t, "2", qs.Queries[1].ID)
		assert.False(t, qs.Queries[1].IsRelevant("d10"))
		assert.Equal(t, 3, qs.RelevantCount())
	})

	t.Run("missing name is a validation error", func(t *testing.T) {
		_, err := Load(Config{DataDir: t.TempDir()})
		var ve *apperr.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "dataset.name", ve.Field)
	})

	t.Run("missing queries file", func(t *testing.T) {
		cfg := writeDataset(t, "", qrelsFixture)
		_, err := Load(cfg)
		assert.ErrorContains(t, err, "open queries")
	})

	t.Run("missing qrels split", func(t *testing.T) {
		cfg := writeDataset(t, queriesFixture, qrelsFixture)
		cfg.Split = "dev"
		_, err := Load(cfg)
		assert.ErrorContains(t, err, "open qrels")
	})

	t.Run("parquet queries take precedence", func(t *testing.T) {
		cfg := writeDataset(t, `{"_id": "x", "text": "ignored"}`+"\n", qrelsFixture)
		err := WriteParquetQueries(filepath.Join(cfg.Dir(), "queries.parquet"), []RawQuery{
			{ID: "2", Text: "from parquet"},
			{ID: "1", Text: "also parquet"},
		})
		require.NoError(t, err)

		qs, err := Load(cfg)
		require.NoError(t, err)
		require.Equal(t, 2, qs.Len())
		assert.Equal(t, "2", qs.Queries[0].ID)
		assert.Equal(t, "from parquet", qs.Queries[0].Text)
		assert.Equal(t, "1", qs.Queries[1].ID)
	})
}

func TestConfigPaths(t *testing.T) {
	cfg := Config{Name: "scifact"}
	assert.Equal(t, filepath.Join("data", "scifact"), cfg.Dir())
	assert.Equal(t, filepath.Join("data", "scifact", "qrels", "test.tsv"), cfg.QrelsPath())

	cfg = Config{DataDir: "/srv/beir", Name: "nq", Split: "dev"}
	assert.Equal(t, filepath.Join("/srv/beir", "nq", "qrels", "dev.tsv"), cfg.QrelsPath())
}

func TestParseQueries(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		raw, err := ParseQueries(strings.NewReader(queriesFixture))
		require.NoError(t, err)
		assert.Len(t, raw, 4)
		assert.Equal(t, RawQuery{ID: "2", Text: "What is BM25?"}, raw[1])
	})

	t.Run("extra fields ignored", func(t *testing.T) {
		raw, err := ParseQueries(strings.NewReader(`{"_id":"a","text":"t","metadata":{"k":1}}`))
		require.NoError(t, err)
		assert.Equal(t, "a", raw[0].ID)
	})

	t.Run("malformed line reports line number", func(t *testing.T) {
		_, err := ParseQueries(strings.NewReader("{\"_id\":\"a\",\"text\":\"t\"}\n{broken\n"))
		assert.ErrorContains(t, err, "line 2")
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := ParseQueries(strings.NewReader(`{"text":"no id"}`))
		assert.ErrorContains(t, err, "missing _id")
	})
}

func TestParseQrels(t *testing.T) {
	t.Run("keeps positive scores only", func(t *testing.T) {
		j, err := ParseQrels(strings.NewReader(qrelsFixture))
		require.NoError(t, err)
		assert.Equal(t, []string{"d10", "d11"}, j["1"])
		assert.Equal(t, []string{"d20"}, j["2"])
		assert.NotContains(t, j, "4")
		assert.Equal(t, []string{"d99"}, j["99"])
	})

	t.Run("windows line endings", func(t *testing.T) {
		j, err := ParseQrels(strings.NewReader("q\tc\ts\r\n1\td1\t1\r\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"d1"}, j["1"])
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := ParseQrels(strings.NewReader(""))
		assert.ErrorContains(t, err, "empty qrels")
	})

	t.Run("wrong column count", func(t *testing.T) {
		_, err := ParseQrels(strings.NewReader("h\n1\td1\n"))
		assert.ErrorContains(t, err, "expected 3 columns")
	})

	t.Run("non-integer score", func(t *testing.T) {
		_, err := ParseQrels(strings.NewReader("h\n1\td1\thigh\n"))
		assert.ErrorContains(t, err, "invalid score")
	})
}

func TestJoin(t *testing.T) {
	raw := []RawQuery{{ID: "a", Text: "first"}, {ID: "b", Text: "second"}, {ID: "a", Text: "dup"}}
	j := Judgments{"a": {"d1", "d1", "d2"}, "b": {"d3"}}

	qs := Join("ds", raw, j)
	require.Equal(t, 2, qs.Len())
	assert.Equal(t, "first", qs.Queries[0].Text)
	assert.Len(t, qs.Queries[0].Relevant, 2)
	assert.Equal(t, "ds", qs.Name)
}

func TestQuerySet_Truncate(t *testing.T) {
	qs := &QuerySet{Queries: make([]Query, 5)}

	assert.Equal(t, 3, qs.Truncate(3).Len())
	assert.Equal(t, 5, qs.Truncate(10).Len())
	assert.Equal(t, 5, qs.Truncate(0).Len())
	assert.Equal(t, 5, qs.Len(), "truncate must not modify the original set")
}

func TestQuerySet_Texts(t *testing.T) {
	qs := &QuerySet{Queries: []Query{{Text: "x"}, {Text: "y"}}}
	assert.Equal(t, []string{"x", "y"}, qs.Texts())

	var empty *QuerySet
	assert.Zero(t, empty.Len())
}
