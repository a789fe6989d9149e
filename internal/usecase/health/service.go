// Package health aggregates component liveness for the health endpoint.
package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks. Every dependency is optional: the
// service can run on the in-memory store with no cache, and the report
// only covers what is wired.
type Service struct {
	articles  Pinger
	cache     Pinger
	embedding EmbeddingChecker
}

// New creates a Service. Any argument may be nil.
func New(articles, cache Pinger, embedding EmbeddingChecker) *Service {
	return &Service{articles: articles, cache: cache, embedding: embedding}
}

// Check runs health checks against the wired components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if s.articles != nil {
		checks["articles"] = ping(ctx, s.articles)
	}
	if s.cache != nil {
		checks["cache"] = ping(ctx, s.cache)
	}
	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	return Report{Status: status, Checks: checks}
}

func ping(ctx context.Context, p Pinger) CheckResult {
	if err := p.Ping(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}
