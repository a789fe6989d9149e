package article

import (
	"context"
	"sort"
	"sync"

	"github.com/kailas-cloud/newsradar/internal/domain"
)

// MemoryRepo is an in-memory article store for tests and local runs.
type MemoryRepo struct {
	mu       sync.RWMutex
	byID     map[string]domain.Article
	ordered  []string // ids ordered by published_at
	resorted bool
}

// NewMemory creates an empty in-memory article store.
func NewMemory() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]domain.Article), resorted: true}
}

// Save appends an article; re-saving an existing id is a no-op.
func (r *MemoryRepo) Save(_ context.Context, a domain.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[a.ID()]; ok {
		return nil
	}
	r.byID[a.ID()] = a
	r.ordered = append(r.ordered, a.ID())
	r.resorted = false
	return nil
}

// FetchWindow returns articles published within the window, ordered by
// published_at ascending.
func (r *MemoryRepo) FetchWindow(_ context.Context, w domain.Window) ([]domain.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sortLocked()

	var out []domain.Article
	for _, id := range r.ordered {
		a := r.byID[id]
		if w.Contains(a.PublishedAt()) {
			out = append(out, a)
		}
	}
	return out, nil
}

// GetByIDs returns articles for the given ids, ordered by published_at.
func (r *MemoryRepo) GetByIDs(_ context.Context, ids []string) ([]domain.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sortLocked()

	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []domain.Article
	for _, id := range r.ordered {
		if _, ok := want[id]; ok {
			out = append(out, r.byID[id])
		}
	}
	return out, nil
}

// Get returns a single article by id.
func (r *MemoryRepo) Get(_ context.Context, id string) (domain.Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	if !ok {
		return domain.Article{}, domain.ErrArticleNotFound
	}
	return a, nil
}

// Len returns the number of stored articles.
func (r *MemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func (r *MemoryRepo) sortLocked() {
	if r.resorted {
		return
	}
	sort.SliceStable(r.ordered, func(i, j int) bool {
		ai := r.byID[r.ordered[i]]
		aj := r.byID[r.ordered[j]]
		return ai.PublishedAt().Before(aj.PublishedAt())
	})
	r.resorted = true
}
