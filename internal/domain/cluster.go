package domain

import (
	"sort"
	"time"
)

// Member is the per-article metadata a cluster keeps about its members.
type Member struct {
	ArticleID   string
	SourceID    string
	PublishedAt time.Time
}

// StoryCluster groups articles believed to report the same event.
// It is the one mutable aggregate in the model: clusters are never
// deleted, only grown, and the centroid is recomputed on every join.
type StoryCluster struct {
	id          string
	members     []Member // ordered by PublishedAt ascending
	centroidSum []float64
	vectorCount int
	createdAt   time.Time
	updatedAt   time.Time
	degraded    bool
	version     int
}

// NewStoryCluster creates an empty cluster.
func NewStoryCluster(id string, createdAt time.Time) *StoryCluster {
	return &StoryCluster{id: id, createdAt: createdAt.UTC(), updatedAt: createdAt.UTC()}
}

// ReconstructStoryCluster rebuilds a cluster from stored state.
func ReconstructStoryCluster(
	id string, members []Member, centroidSum []float64, vectorCount int,
	createdAt, updatedAt time.Time, degraded bool, version int,
) *StoryCluster {
	return &StoryCluster{
		id: id, members: members, centroidSum: centroidSum, vectorCount: vectorCount,
		createdAt: createdAt, updatedAt: updatedAt, degraded: degraded, version: version,
	}
}

// Add appends an article to the cluster and folds its vector into the
// running-mean centroid. Members with no vector (degraded ingestion)
// still join the membership but do not move the centroid.
// Each member weighs equally; recency does not reweight the mean.
func (c *StoryCluster) Add(a Article, vec []float32, now time.Time) {
	m := Member{ArticleID: a.ID(), SourceID: a.SourceID(), PublishedAt: a.PublishedAt()}
	idx := sort.Search(len(c.members), func(i int) bool {
		return c.members[i].PublishedAt.After(m.PublishedAt)
	})
	c.members = append(c.members, Member{})
	copy(c.members[idx+1:], c.members[idx:])
	c.members[idx] = m

	if len(vec) > 0 {
		if c.centroidSum == nil {
			c.centroidSum = make([]float64, len(vec))
		}
		if len(vec) == len(c.centroidSum) {
			for i, v := range vec {
				c.centroidSum[i] += float64(v)
			}
			c.vectorCount++
		}
	}

	c.updatedAt = now.UTC()
	c.version++
}

// ID returns the cluster identifier.
func (c *StoryCluster) ID() string { return c.id }

// Size returns the number of member articles.
func (c *StoryCluster) Size() int { return len(c.members) }

// Members returns a copy of the member list, ordered by publication time.
func (c *StoryCluster) Members() []Member {
	out := make([]Member, len(c.members))
	copy(out, c.members)
	return out
}

// ArticleIDs returns member article identifiers in publication order.
func (c *StoryCluster) ArticleIDs() []string {
	ids := make([]string, len(c.members))
	for i, m := range c.members {
		ids[i] = m.ArticleID
	}
	return ids
}

// Centroid returns the running-mean embedding, or nil if no member
// contributed a vector.
func (c *StoryCluster) Centroid() []float32 {
	if c.vectorCount == 0 {
		return nil
	}
	out := make([]float32, len(c.centroidSum))
	for i, s := range c.centroidSum {
		out[i] = float32(s / float64(c.vectorCount))
	}
	return out
}

// CreatedAt returns the cluster creation time.
func (c *StoryCluster) CreatedAt() time.Time { return c.createdAt }

// UpdatedAt returns the last membership change time.
func (c *StoryCluster) UpdatedAt() time.Time { return c.updatedAt }

// LatestPublished returns the newest member publication time.
func (c *StoryCluster) LatestPublished() time.Time {
	if len(c.members) == 0 {
		return time.Time{}
	}
	return c.members[len(c.members)-1].PublishedAt
}

// EarliestPublished returns the oldest member publication time.
func (c *StoryCluster) EarliestPublished() time.Time {
	if len(c.members) == 0 {
		return time.Time{}
	}
	return c.members[0].PublishedAt
}

// SourceCount returns the number of distinct sources among members.
func (c *StoryCluster) SourceCount() int {
	seen := make(map[string]struct{}, len(c.members))
	for _, m := range c.members {
		seen[m.SourceID] = struct{}{}
	}
	return len(seen)
}

// Degraded reports whether the cluster was created on an embedding
// failure fallback path.
func (c *StoryCluster) Degraded() bool { return c.degraded }

// MarkDegraded flags the cluster for observability.
func (c *StoryCluster) MarkDegraded() { c.degraded = true }

// Version increments on every membership change; used as a score cache key.
func (c *StoryCluster) Version() int { return c.version }
