package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DjordjeVuckovic/fts-bench/internal/bench/spec"
	"github.com/DjordjeVuckovic/fts-bench/pkg/stringsutil"
)

// CreateFromSpec builds one searcher per configured engine. The returned
// cleanup releases connections and must be called once the searchers are no
// longer used.
func CreateFromSpec(ctx context.Context, engines map[string]spec.Engine) (map[string]Searcher, func(), error) {
	searchers := make(map[string]Searcher, len(engines))
	var cleanups []func()

	cleanup := func() {
		for _, s := range searchers {
			if err := s.Close(); err != nil {
				slog.Warn("close searcher", "engine", s.Name(), "error", err)
			}
		}
		for _, c := range cleanups {
			c()
		}
	}

	for name, eng := range engines {
		var s Searcher

		switch eng.Type {
		case spec.EnginePostgres:
			pool, err := NewConnectionPool(ctx, eng.Connection)
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("create pg pool for %q: %w", name, err)
			}
			cleanups = append(cleanups, pool.Close)
			s = NewPgSearcher(name, pool, PgConfig{
				ConnStr:      eng.Connection,
				Table:        eng.Table,
				IDColumn:     eng.IDColumn,
				VectorColumn: eng.VectorColumn,
				Language:     eng.Language,
			})

		case spec.EngineElasticsearch:
			es, err := NewEsSearcher(name, EsConfig{
				Addresses: stringsutil.SplitList(eng.Connection),
				Index:     eng.Index,
				Fields:    eng.Fields,
				IDField:   eng.IDField,
				Username:  eng.Username,
				Password:  eng.Password,
			})
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("create es client for %q: %w", name, err)
			}
			s = es

		case spec.EngineAPI:
			s = NewAPISearcher(name, eng.Connection, eng.Path)

		default:
			cleanup()
			return nil, nil, fmt.Errorf("unsupported engine type %q for %q", eng.Type, name)
		}

		searchers[name] = s
		slog.Info("Engine ready", "engine", name, "type", eng.Type)
	}

	return searchers, cleanup, nil
}
