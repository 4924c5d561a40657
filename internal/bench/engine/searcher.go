package engine

import (
	"context"
)

// Searcher is the only capability the harness needs from a retrieval
// backend: ranked document ids for a query.
type Searcher interface {
	// Search returns at most limit hits in backend rank order.
	Search(ctx context.Context, query string, limit int) ([]Hit, error)
	Name() string
	Close() error
}

// Hit is a single ranked result. Only DocID is consumed by the harness.
type Hit struct {
	DocID string
	Score float64
}

// DocIDs returns hit ids in rank order.
func DocIDs(hits []Hit) []string {
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.DocID
	}
	return ids
}
