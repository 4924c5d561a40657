package engine

import (
	"context"
	"testing"

	"github.com/DjordjeVuckovic/fts-bench/internal/bench/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFromSpec(t *testing.T) {
	ctx := context.Background()

	t.Run("api and elasticsearch engines", func(t *testing.T) {
		searchers, cleanup, err := CreateFromSpec(ctx, map[string]spec.Engine{
			"api": {Type: spec.EngineAPI, Connection: "http://localhost:8080"},
			"es":  {Type: spec.EngineElasticsearch, Connection: "http://a:9200, http://b:9200", Index: "quora"},
		})
		require.NoError(t, err)
		defer cleanup()

		require.Len(t, searchers, 2)
		assert.Equal(t, "api", searchers["api"].Name())
		assert.Equal(t, "es", searchers["es"].Name())
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, _, err := CreateFromSpec(ctx, map[string]spec.Engine{
			"solr": {Type: "solr", Connection: "http://localhost:8983"},
		})
		assert.ErrorContains(t, err, "unsupported engine type")
	})
}
