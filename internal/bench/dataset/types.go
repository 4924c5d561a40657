package dataset

// Query is a test query with its ground-truth relevant documents.
// Relevant is never empty for queries produced by a Loader.
type Query struct {
	ID       string
	Text     string
	Relevant map[string]struct{}
}

// IsRelevant reports whether docID is judged relevant for the query.
func (q *Query) IsRelevant(docID string) bool {
	_, ok := q.Relevant[docID]
	return ok
}

// QuerySet is an ordered, read-only collection of queries. Order follows the
// queries file.
type QuerySet struct {
	Name    string
	Queries []Query
}

func (qs *QuerySet) Len() int {
	if qs == nil {
		return 0
	}
	return len(qs.Queries)
}

// Truncate returns a view holding at most n queries. n <= 0 keeps everything.
func (qs *QuerySet) Truncate(n int) *QuerySet {
	if n <= 0 || n >= len(qs.Queries) {
		return qs
	}
	return &QuerySet{Name: qs.Name, Queries: qs.Queries[:n]}
}

// Texts returns the raw query texts in set order.
func (qs *QuerySet) Texts() []string {
	out := make([]string, len(qs.Queries))
	for i := range qs.Queries {
		out[i] = qs.Queries[i].Text
	}
	return out
}

// RelevantCount is the total number of (query, relevant doc) pairs.
func (qs *QuerySet) RelevantCount() int {
	var n int
	for i := range qs.Queries {
		n += len(qs.Queries[i].Relevant)
	}
	return n
}
