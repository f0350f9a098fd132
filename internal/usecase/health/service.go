// Package health aggregates dependency checks for the /health endpoint.
package health

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultCheckTimeout bounds a single component check.
const DefaultCheckTimeout = 2 * time.Second

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure. Ranking still answers, possibly unranked.
	Degraded Status = "degraded"
	// Unhealthy indicates every checked component failed.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names reported in Report.Checks.
const (
	ComponentCache     = "cache"
	ComponentEmbedding = "embedding"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	cache     CachePinger
	embedding EmbeddingChecker
	timeout   time.Duration
}

// New creates a Service. Either dependency can be nil, in which case it is not reported.
func New(cache CachePinger, embedding EmbeddingChecker) *Service {
	return &Service{cache: cache, embedding: embedding, timeout: DefaultCheckTimeout}
}

// WithTimeout overrides the per-check timeout.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Check runs all configured checks concurrently.
func (s *Service) Check(ctx context.Context) Report {
	type probe struct {
		name string
		fn   func(context.Context) error
	}
	var probes []probe
	if s.cache != nil {
		probes = append(probes, probe{ComponentCache, s.cache.Ping})
	}
	if s.embedding != nil {
		probes = append(probes, probe{ComponentEmbedding, s.embedding.HealthCheck})
	}

	results := make([]CheckResult, len(probes))
	var g errgroup.Group
	for i, p := range probes {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			if err := p.fn(cctx); err != nil {
				results[i] = CheckError
			} else {
				results[i] = CheckOK
			}
			return nil
		})
	}
	_ = g.Wait()

	checks := make(map[string]CheckResult, len(probes))
	failed := 0
	for i, p := range probes {
		checks[p.name] = results[i]
		if results[i] == CheckError {
			failed++
		}
	}

	status := Healthy
	switch {
	case failed > 0 && failed == len(probes):
		status = Unhealthy
	case failed > 0:
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}
