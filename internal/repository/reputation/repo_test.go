package reputation

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/newsradar/internal/kv"
)

type mockStore struct {
	data map[string][]byte
	err  error
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, kv.ErrKeyNotFound
}

func TestGet_Override(t *testing.T) {
	r := New(nil, "test:", map[string]float64{"reuters": 0.95}, zap.NewNop())
	if got := r.Get(context.Background(), "Reuters"); got != 0.95 {
		t.Errorf("Get(Reuters) = %f, want 0.95", got)
	}
}

func TestGet_FromStore(t *testing.T) {
	ms := &mockStore{data: map[string][]byte{"test:reputation:blog-x": []byte("0.3")}}
	r := New(ms, "test:", nil, zap.NewNop())
	if got := r.Get(context.Background(), "blog-x"); got != 0.3 {
		t.Errorf("Get(blog-x) = %f, want 0.3", got)
	}
}

func TestGet_UnknownSourceIsNeutral(t *testing.T) {
	r := New(&mockStore{}, "test:", nil, zap.NewNop())
	if got := r.Get(context.Background(), "nobody"); got != Neutral {
		t.Errorf("Get(nobody) = %f, want %f", got, Neutral)
	}
}

func TestGet_StoreErrorDegradesToNeutral(t *testing.T) {
	r := New(&mockStore{err: errors.New("connection refused")}, "test:", nil, zap.NewNop())
	if got := r.Get(context.Background(), "reuters"); got != Neutral {
		t.Errorf("Get on store error = %f, want %f", got, Neutral)
	}
}

func TestGet_MalformedValueDegradesToNeutral(t *testing.T) {
	ms := &mockStore{data: map[string][]byte{"test:reputation:bad": []byte("not-a-float")}}
	r := New(ms, "test:", nil, zap.NewNop())
	if got := r.Get(context.Background(), "bad"); got != Neutral {
		t.Errorf("Get(bad) = %f, want %f", got, Neutral)
	}
}

func TestGet_ClampsOutOfRange(t *testing.T) {
	ms := &mockStore{data: map[string][]byte{"test:reputation:hyped": []byte("1.7")}}
	r := New(ms, "test:", nil, zap.NewNop())
	if got := r.Get(context.Background(), "hyped"); got != 1.0 {
		t.Errorf("Get(hyped) = %f, want 1.0", got)
	}
}

func TestGet_NoBackendsIsNeutral(t *testing.T) {
	r := New(nil, "test:", nil, zap.NewNop())
	if got := r.Get(context.Background(), "anything"); got != Neutral {
		t.Errorf("Get = %f, want %f", got, Neutral)
	}
}
