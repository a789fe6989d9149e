package hotness

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/newsradar/internal/domain"
)

type mockReputations struct {
	values map[string]float64
}

func (m *mockReputations) Get(_ context.Context, sourceID string) float64 {
	if v, ok := m.values[sourceID]; ok {
		return v
	}
	return 0.5
}

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newScorer() *Scorer {
	return New(&mockReputations{}, Config{})
}

func makeArticle(t *testing.T, id, source, title, body string, publishedAt time.Time) domain.Article {
	t.Helper()
	a, err := domain.NewArticle(id, source, "", title, body, publishedAt, publishedAt)
	if err != nil {
		t.Fatalf("NewArticle: %v", err)
	}
	return a
}

func buildCluster(t *testing.T, id string, articles []domain.Article) *domain.StoryCluster {
	t.Helper()
	c := domain.NewStoryCluster(id, testNow)
	for i := range articles {
		c.Add(articles[i], nil, testNow)
	}
	return c
}

func TestScoreEmptyCluster(t *testing.T) {
	s := newScorer()
	c := domain.NewStoryCluster("c1", testNow)

	res := s.Score(context.Background(), c, nil, testNow)
	if res.Score != 0 {
		t.Errorf("empty cluster scored %g, want 0", res.Score)
	}
	if res.IsHot {
		t.Error("empty cluster flagged hot")
	}
	if res.ClusterID != "c1" {
		t.Errorf("result carries cluster id %q", res.ClusterID)
	}
}

func TestScoreBounds(t *testing.T) {
	s := newScorer()
	// Future-dated article, maximal keywords, one source.
	a := makeArticle(t, "a1", "src",
		"Merger acquisition bankruptcy fraud lawsuit earnings",
		"", testNow.Add(2*time.Hour))
	c := buildCluster(t, "c1", []domain.Article{a})

	res := s.Score(context.Background(), c, []domain.Article{a}, testNow)
	if res.Score < 0 || res.Score > 1 {
		t.Errorf("score %g outside [0,1]", res.Score)
	}
	if res.Decay < 0 || res.Decay > 1 {
		t.Errorf("decay %g outside [0,1]", res.Decay)
	}
	comps := []float64{
		res.Components.Materiality, res.Components.Velocity, res.Components.Breadth,
		res.Components.Credibility, res.Components.Unexpectedness,
	}
	for i, v := range comps {
		if v < 0 || v > 1 {
			t.Errorf("component %d = %g outside [0,1]", i, v)
		}
	}
}

func TestScoreDecayMonotonicity(t *testing.T) {
	s := newScorer()
	a1 := makeArticle(t, "a1", "reuters", "Acme earnings beat", "body", testNow.Add(-2*time.Hour))
	a2 := makeArticle(t, "a2", "bloomberg", "Acme posts strong earnings", "body", testNow.Add(-1*time.Hour))
	articles := []domain.Article{a1, a2}
	c := buildCluster(t, "c1", articles)

	fresh := s.Score(context.Background(), c, articles, testNow)
	stale := s.Score(context.Background(), c, articles, testNow.Add(12*time.Hour))
	older := s.Score(context.Background(), c, articles, testNow.Add(36*time.Hour))

	if !(fresh.Score > stale.Score && stale.Score > older.Score) {
		t.Errorf("score not monotonically decreasing with age: %g, %g, %g",
			fresh.Score, stale.Score, older.Score)
	}
	if fresh.Components != stale.Components {
		t.Error("components changed with scoring time; only decay should")
	}
}

func TestScoreBurstBeatsDripFeed(t *testing.T) {
	s := newScorer()

	burst := make([]domain.Article, 10)
	for i := range burst {
		at := testNow.Add(-3 * time.Hour)
		if i < 9 {
			at = at.Add(time.Duration(i) * 30 * time.Second)
		} else {
			at = testNow.Add(-5 * time.Minute)
		}
		burst[i] = makeArticle(t, "b"+string(rune('0'+i)), "src", "headline", "body", at)
	}
	even := make([]domain.Article, 10)
	for i := range even {
		at := testNow.Add(-6 * time.Hour).Add(time.Duration(i) * 40 * time.Minute)
		even[i] = makeArticle(t, "e"+string(rune('0'+i)), "src", "headline", "body", at)
	}

	cb := buildCluster(t, "burst", burst)
	ce := buildCluster(t, "even", even)

	vb := s.Score(context.Background(), cb, burst, testNow).Components.Velocity
	ve := s.Score(context.Background(), ce, even, testNow).Components.Velocity
	if vb <= ve {
		t.Errorf("burst velocity %g not above drip-feed velocity %g", vb, ve)
	}
}

func TestScoreSingleArticleVelocity(t *testing.T) {
	s := newScorer()
	a := makeArticle(t, "a1", "src", "headline", "body", testNow)
	c := buildCluster(t, "c1", []domain.Article{a})

	res := s.Score(context.Background(), c, []domain.Article{a}, testNow)
	if res.Components.Velocity != singleArticleVelocity {
		t.Errorf("single-article velocity %g, want %g",
			res.Components.Velocity, singleArticleVelocity)
	}
}

func TestScoreBreadth(t *testing.T) {
	s := newScorer()
	a1 := makeArticle(t, "a1", "reuters", "headline", "body", testNow)
	a2 := makeArticle(t, "a2", "bloomberg", "headline two", "body", testNow)
	a3 := makeArticle(t, "a3", "reuters", "headline three", "body", testNow)
	articles := []domain.Article{a1, a2, a3}
	c := buildCluster(t, "c1", articles)

	res := s.Score(context.Background(), c, articles, testNow)
	// 2 distinct sources over a saturation of 5.
	if got, want := res.Components.Breadth, 0.4; got != want {
		t.Errorf("breadth %g, want %g", got, want)
	}
}

func TestScoreCredibility(t *testing.T) {
	reps := &mockReputations{values: map[string]float64{"reuters": 0.9, "blogspam": 0.1}}
	s := New(reps, Config{})

	a1 := makeArticle(t, "a1", "reuters", "headline", "body", testNow)
	a2 := makeArticle(t, "a2", "blogspam", "headline", "body", testNow)
	a3 := makeArticle(t, "a3", "unknown-wire", "headline", "body", testNow)
	articles := []domain.Article{a1, a2, a3}
	c := buildCluster(t, "c1", articles)

	res := s.Score(context.Background(), c, articles, testNow)
	// (0.9 + 0.1 + 0.5) / 3
	if got := res.Components.Credibility; got < 0.499 || got > 0.501 {
		t.Errorf("credibility %g, want 0.5", got)
	}
}

func TestScoreMaterialityKeywords(t *testing.T) {
	s := newScorer()
	hot := makeArticle(t, "a1", "src",
		"Acme bankruptcy filing triggers fraud lawsuit", "body", testNow)
	dull := makeArticle(t, "a2", "src",
		"Company opens new cafeteria", "body", testNow)

	ch := buildCluster(t, "c1", []domain.Article{hot})
	cd := buildCluster(t, "c2", []domain.Article{dull})

	mh := s.Score(context.Background(), ch, []domain.Article{hot}, testNow).Components.Materiality
	md := s.Score(context.Background(), cd, []domain.Article{dull}, testNow).Components.Materiality
	if mh != 1 {
		t.Errorf("three distinct keywords should saturate materiality, got %g", mh)
	}
	if md != 0 {
		t.Errorf("keyword-free article has materiality %g", md)
	}
}

func TestScoreEarningsDecaysFasterThanMergers(t *testing.T) {
	s := newScorer()
	at := testNow.Add(-24 * time.Hour)
	earnings := makeArticle(t, "a1", "src", "Acme quarterly earnings report", "body", at)
	mergers := makeArticle(t, "a2", "src", "Acme merger with Widget Corp", "body", at)

	ce := buildCluster(t, "c1", []domain.Article{earnings})
	cm := buildCluster(t, "c2", []domain.Article{mergers})

	de := s.Score(context.Background(), ce, []domain.Article{earnings}, testNow).Decay
	dm := s.Score(context.Background(), cm, []domain.Article{mergers}, testNow).Decay
	if de >= dm {
		t.Errorf("earnings decay %g not below mergers decay %g at equal age", de, dm)
	}
}

func TestScoreIsHotThreshold(t *testing.T) {
	reps := &mockReputations{values: map[string]float64{}}
	s := New(reps, Config{Threshold: 0.2})

	articles := make([]domain.Article, 6)
	sources := []string{"reuters", "bloomberg", "ft", "wsj", "cnbc", "marketwatch"}
	for i := range articles {
		articles[i] = makeArticle(t, "a"+string(rune('0'+i)), sources[i],
			"Mega merger acquisition bankruptcy shock", "a very long body "+longBody(),
			testNow.Add(-time.Duration(i)*time.Minute))
	}
	c := buildCluster(t, "c1", articles)

	res := s.Score(context.Background(), c, articles, testNow)
	if !res.IsHot {
		t.Errorf("score %g above threshold 0.2 not flagged hot", res.Score)
	}
	if res.ClusterVersion != c.Version() {
		t.Errorf("result version %d, cluster version %d", res.ClusterVersion, c.Version())
	}
}

func longBody() string {
	b := make([]byte, 2500)
	for i := range b {
		b[i] = 'x'
	}
	return string(b)
}
