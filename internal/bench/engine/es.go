package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/operator"
)

const (
	DefaultEsIndex = "corpus"
	DefaultEsField = "body"
)

type EsConfig struct {
	Addresses []string
	Index     string
	Fields    []string
	// IDField names a _source field holding the document id. Empty means the
	// Elasticsearch _id is used.
	IDField  string
	Username string
	Password string
}

type EsSearcher struct {
	name    string
	client  *elasticsearch.TypedClient
	index   string
	fields  []string
	idField string
}

func newEsClient(cfg EsConfig) (*elasticsearch.TypedClient, error) {
	esCfg := elasticsearch.Config{
		Addresses: cfg.Addresses,
	}

	if cfg.Username != "" && cfg.Password != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	return elasticsearch.NewTypedClient(esCfg)
}

func NewEsSearcher(name string, cfg EsConfig) (*EsSearcher, error) {
	client, err := newEsClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	index := cfg.Index
	if index == "" {
		index = DefaultEsIndex
	}
	fields := cfg.Fields
	if len(fields) == 0 {
		fields = []string{DefaultEsField}
	}

	return &EsSearcher{
		name:    name,
		client:  client,
		index:   index,
		fields:  fields,
		idField: cfg.IDField,
	}, nil
}

// Search runs a multi_match query over the configured fields. Terms are
// ORed and the text is analyzed, never parsed as query syntax.
func (e *EsSearcher) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	or := operator.Or
	res, err := e.client.Search().
		Index(e.index).
		Query(&types.Query{
			MultiMatch: &types.MultiMatchQuery{
				Query:    query,
				Fields:   e.fields,
				Operator: &or,
			},
		}).
		Size(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("es search: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits.Hits))
	for _, h := range res.Hits.Hits {
		id, err := e.docID(h)
		if err != nil {
			return nil, err
		}
		var score float64
		if h.Score_ != nil {
			score = float64(*h.Score_)
		}
		hits = append(hits, Hit{DocID: id, Score: score})
	}
	return hits, nil
}

func (e *EsSearcher) docID(h types.Hit) (string, error) {
	if e.idField == "" {
		if h.Id_ == nil {
			return "", fmt.Errorf("es hit without _id")
		}
		return *h.Id_, nil
	}

	var src map[string]any
	if err := json.Unmarshal(h.Source_, &src); err != nil {
		return "", fmt.Errorf("es parse _source: %w", err)
	}
	v, ok := src[e.idField]
	if !ok {
		return "", fmt.Errorf("es _source has no field %q", e.idField)
	}
	switch id := v.(type) {
	case string:
		return id, nil
	case float64:
		return fmt.Sprintf("%.0f", id), nil
	default:
		return fmt.Sprintf("%v", id), nil
	}
}

func (e *EsSearcher) Healthy(ctx context.Context) bool {
	ok, err := e.client.Ping().IsSuccess(ctx)
	if err != nil {
		slog.Warn("Elasticsearch ping failed", "engine", e.name, "error", err)
		return false
	}
	return ok
}

func (e *EsSearcher) Name() string { return e.name }
func (e *EsSearcher) Close() error { return nil }

var _ Searcher = (*EsSearcher)(nil)
