// Package index provides the in-memory cosine similarity index used by
// the deduplication engine. It is a flat exact index: an arena of vectors
// addressed by stable string handles, scanned in full on every query.
// At the volumes this system targets (thousands of vectors) a scan beats
// the bookkeeping cost of an approximate structure. There is no eviction
// and no persistence; on restart the engine repopulates it from the
// article store (cold-start contract).
package index

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/kailas-cloud/newsradar/internal/domain"
)

// Hit is a single nearest-neighbor result.
type Hit struct {
	ID         string
	Similarity float64
}

type entry struct {
	vector []float32
	norm   float64
}

// Index stores embedding vectors keyed by stable string handles and
// answers cosine nearest-neighbor queries. Safe for concurrent use.
type Index struct {
	mu   sync.RWMutex
	dim  int
	ids  []string
	pos  map[string]int
	rows []entry
}

// New creates an index for vectors of the given dimensionality.
func New(dim int) *Index {
	return &Index{dim: dim, pos: make(map[string]int)}
}

// Dim returns the configured vector dimensionality.
func (ix *Index) Dim() int { return ix.dim }

// Len returns the number of stored vectors.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.ids)
}

// Add inserts a vector under the given id, replacing any previous vector
// for that id. An empty vector is accepted (it simply never matches); a
// non-empty vector with the wrong dimensionality fails with
// domain.ErrVectorDimMismatch.
func (ix *Index) Add(id string, vec []float32) error {
	if len(vec) > 0 && len(vec) != ix.dim {
		return fmt.Errorf("%w: got %d, index expects %d", domain.ErrVectorDimMismatch, len(vec), ix.dim)
	}

	row := entry{vector: cloneVector(vec), norm: norm(vec)}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if i, ok := ix.pos[id]; ok {
		ix.rows[i] = row
		return nil
	}
	ix.pos[id] = len(ix.ids)
	ix.ids = append(ix.ids, id)
	ix.rows = append(ix.rows, row)
	return nil
}

// QueryNearest returns up to k hits ordered by descending cosine
// similarity. Returns an empty slice when the index is empty, the query
// vector is empty, or k <= 0. Zero-norm entries never match.
func (ix *Index) QueryNearest(vec []float32, k int) []Hit {
	if k <= 0 || len(vec) == 0 {
		return nil
	}
	qnorm := norm(vec)
	if qnorm == 0 {
		return nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	hits := make([]Hit, 0, len(ix.ids))
	for i, id := range ix.ids {
		row := ix.rows[i]
		if row.norm == 0 || len(row.vector) != len(vec) {
			continue
		}
		hits = append(hits, Hit{ID: id, Similarity: dot(vec, row.vector) / (qnorm * row.norm)})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func cloneVector(v []float32) []float32 {
	if v == nil {
		return nil
	}
	c := make([]float32, len(v))
	copy(c, v)
	return c
}
