package article

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/newsradar/internal/domain"
)

func seed(t *testing.T, r *MemoryRepo, id string, published time.Time) {
	t.Helper()
	a, err := domain.NewArticle(id, "src", "https://example.com/"+id, "t "+id, "b", published, published)
	if err != nil {
		t.Fatalf("NewArticle: %v", err)
	}
	if err := r.Save(context.Background(), a); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func TestMemoryRepo_FetchWindow(t *testing.T) {
	r := NewMemory()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	seed(t, r, "before", base.Add(-time.Hour))
	seed(t, r, "b", base.Add(2*time.Hour))
	seed(t, r, "a", base.Add(time.Hour))
	seed(t, r, "after", base.Add(30*time.Hour))

	w, _ := domain.NewWindow(base, base.Add(24*time.Hour))
	got, err := r.FetchWindow(context.Background(), w)
	if err != nil {
		t.Fatalf("FetchWindow: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(got))
	}
	if got[0].ID() != "a" || got[1].ID() != "b" {
		t.Errorf("wrong order: %s, %s", got[0].ID(), got[1].ID())
	}
}

func TestMemoryRepo_SaveIsAppendOnly(t *testing.T) {
	r := NewMemory()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	seed(t, r, "a", base)

	// re-save under the same id with a different title: ignored
	dup, _ := domain.NewArticle("a", "other-src", "", "changed", "b", base, base)
	if err := r.Save(context.Background(), dup); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := r.Get(context.Background(), "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title() != "t a" {
		t.Errorf("article mutated on re-save: title = %q", got.Title())
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}

func TestMemoryRepo_GetByIDs(t *testing.T) {
	r := NewMemory()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	seed(t, r, "late", base.Add(time.Hour))
	seed(t, r, "early", base)

	got, err := r.GetByIDs(context.Background(), []string{"late", "early", "missing"})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(got))
	}
	if got[0].ID() != "early" {
		t.Errorf("expected published order, got %s first", got[0].ID())
	}
}

func TestMemoryRepo_GetMissing(t *testing.T) {
	r := NewMemory()
	_, err := r.Get(context.Background(), "nope")
	if !errors.Is(err, domain.ErrArticleNotFound) {
		t.Errorf("expected ErrArticleNotFound, got %v", err)
	}
}

func TestVectorEncodeDecode(t *testing.T) {
	vec := []float32{0.25, -1, 42}
	got := decodeVector(encodeVector(vec))
	if len(got) != 3 {
		t.Fatalf("length = %d, want 3", len(got))
	}
	for i := range vec {
		if got[i] != vec[i] {
			t.Errorf("[%d] = %f, want %f", i, got[i], vec[i])
		}
	}
	if decodeVector(nil) != nil {
		t.Error("decode(nil) should be nil")
	}
	if decodeVector([]byte{1, 2, 3}) != nil {
		t.Error("decode of truncated payload should be nil")
	}
}
