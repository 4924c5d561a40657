package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DjordjeVuckovic/fts-bench/pkg/server"
)

var ErrTimeout = errors.New("search timed out")

type timeoutSearcher struct {
	Searcher
	timeout time.Duration
}

// WithTimeout bounds every Search call of s by d. The call runs in its own
// goroutine so a backend that ignores context cancellation still cannot
// stall the caller; its late result is dropped. d <= 0 returns s unchanged.
func WithTimeout(s Searcher, d time.Duration) Searcher {
	if d <= 0 {
		return s
	}
	return &timeoutSearcher{Searcher: s, timeout: d}
}

type searchResult struct {
	hits []Hit
	err  error
}

func (t *timeoutSearcher) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	done := make(chan searchResult, 1)
	go func() {
		hits, err := t.Searcher.Search(callCtx, query, limit)
		done <- searchResult{hits: hits, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w after %s: %v", ErrTimeout, t.timeout, res.err)
		}
		return res.hits, res.err
	case <-callCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w after %s", ErrTimeout, t.timeout)
	}
}

// Healthy delegates to the wrapped searcher when it can report health.
func (t *timeoutSearcher) Healthy(ctx context.Context) bool {
	if hc, ok := t.Searcher.(server.HealthChecker); ok {
		return hc.Healthy(ctx)
	}
	return true
}
