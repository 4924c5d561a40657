package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func rel(ids ...string) Relevant {
	r := make(Relevant, len(ids))
	for _, id := range ids {
		r[id] = struct{}{}
	}
	return r
}

func TestHitCount(t *testing.T) {
	tests := []struct {
		name     string
		ranked   []string
		relevant Relevant
		k        int
		want     int
	}{
		{name: "empty ranked", ranked: nil, relevant: rel("a"), k: 10, want: 0},
		{name: "empty relevant", ranked: []string{"a"}, relevant: rel(), k: 10, want: 0},
		{name: "k=0", ranked: []string{"a"}, relevant: rel("a"), k: 0, want: 0},
		{name: "partial", ranked: []string{"A", "X", "B"}, relevant: rel("A", "B", "C"), k: 10, want: 2},
		{name: "duplicates count once", ranked: []string{"A", "A", "A"}, relevant: rel("A", "B"), k: 10, want: 1},
		{name: "cut at k", ranked: []string{"X", "Y", "A"}, relevant: rel("A"), k: 2, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HitCount(tt.ranked, tt.relevant, tt.k))
		})
	}
}

func TestPrecisionAtK(t *testing.T) {
	tests := []struct {
		name     string
		ranked   []string
		relevant Relevant
		k        int
		want     float64
	}{
		{name: "empty", ranked: nil, relevant: rel(), k: 5, want: 0},
		{name: "all relevant", ranked: []string{"a", "b", "c"}, relevant: rel("a", "b", "c"), k: 3, want: 1},
		{name: "denominator is k not returned count", ranked: []string{"A", "X", "B"}, relevant: rel("A", "B", "C"), k: 10, want: 0.2},
		{name: "k=0", ranked: []string{"a"}, relevant: rel("a"), k: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PrecisionAtK(tt.ranked, tt.relevant, tt.k), 1e-9)
		})
	}
}

func TestRecallAtK(t *testing.T) {
	assert.InDelta(t, 2.0/3.0, RecallAtK([]string{"A", "X", "B"}, rel("A", "B", "C"), 10), 1e-9)
	assert.Zero(t, RecallAtK([]string{"A"}, rel(), 10))
	assert.InDelta(t, 1.0, RecallAtK([]string{"A"}, rel("A"), 1), 1e-9)
}

func TestReciprocalRank(t *testing.T) {
	assert.Equal(t, 1.0, ReciprocalRank([]string{"A", "X"}, rel("A")))
	assert.Equal(t, 1.0/3.0, ReciprocalRank([]string{"X", "Y", "A"}, rel("A", "B")))
	assert.Zero(t, ReciprocalRank([]string{"X"}, rel("A")))
	assert.Zero(t, ReciprocalRank(nil, rel("A")))
}

func TestScore(t *testing.T) {
	t.Run("synthetic fixture", func(t *testing.T) {
		s := Score([]string{"A", "X", "B"}, rel("A", "B", "C"), 10)
		assert.Equal(t, 2, s.Hits)
		assert.Equal(t, 3, s.Relevant)
		assert.InDelta(t, 2.0/3.0, s.Recall, 1e-9)
		assert.InDelta(t, 0.2, s.Precision, 1e-9)
		assert.Equal(t, 1.0, s.RR)
	})

	t.Run("results beyond k are ignored", func(t *testing.T) {
		s := Score([]string{"X", "A"}, rel("A"), 1)
		assert.Zero(t, s.Hits)
		assert.Zero(t, s.RR)
	})

	t.Run("agrees with the at-k helpers", func(t *testing.T) {
		tests := []struct {
			ranked   []string
			relevant Relevant
			k        int
		}{
			{[]string{"A", "X", "B"}, rel("A", "B", "C"), 10},
			{[]string{"A", "B", "C", "D"}, rel("C", "D"), 2},
			{[]string{"X"}, rel(), 5},
		}
		for _, tt := range tests {
			s := Score(tt.ranked, tt.relevant, tt.k)
			assert.Equal(t, PrecisionAtK(tt.ranked, tt.relevant, tt.k), s.Precision)
			assert.Equal(t, RecallAtK(tt.ranked, tt.relevant, tt.k), s.Recall)
		}
	})

	t.Run("no results", func(t *testing.T) {
		s := Score(nil, rel("A", "B"), 10)
		assert.Zero(t, s.Hits)
		assert.Equal(t, 2, s.Relevant)
		assert.Zero(t, s.Recall)
		assert.Zero(t, s.Precision)
	})
}
