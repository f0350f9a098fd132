// Package terms turns a chat message into GIF search terms.
package terms

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gifrank/internal/domain"
	"github.com/kailas-cloud/gifrank/internal/domain/rank"
	"github.com/kailas-cloud/gifrank/internal/logger"
	"github.com/kailas-cloud/gifrank/internal/metrics"
)

// Defaults.
const (
	DefaultMaxTerms   = 5
	DefaultLLMTimeout = 5 * time.Second
)

// Generator labels for metrics.
const (
	sourceLLM      = "llm"
	sourceRules    = "rules"
	sourceFallback = "fallback"
)

// Service generates search terms with an optional LLM generator, falling back to rules.
type Service struct {
	llm      Generator
	rules    *Classifier
	maxTerms int
	timeout  time.Duration
	logger   *zap.Logger
}

// New creates a rule-based term service.
func New(maxTerms int, logger *zap.Logger) *Service {
	if maxTerms <= 0 {
		maxTerms = DefaultMaxTerms
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		rules:    NewClassifier(maxTerms),
		maxTerms: maxTerms,
		timeout:  DefaultLLMTimeout,
		logger:   logger,
	}
}

// WithLLM puts gen in front of the rules. Failures and empty answers fall back to rules.
func (s *Service) WithLLM(gen Generator, timeout time.Duration) *Service {
	s.llm = gen
	if timeout > 0 {
		s.timeout = timeout
	}
	return s
}

// Generate returns between one and maxTerms search terms for message.
func (s *Service) Generate(ctx context.Context, message string) ([]string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("empty message: %w", domain.ErrInvalidInput)
	}
	if len(message) > rank.MaxQueryLength {
		return nil, fmt.Errorf("message exceeds %d bytes: %w", rank.MaxQueryLength, domain.ErrInvalidInput)
	}

	source := sourceRules
	var out []string
	if s.llm != nil {
		terms, err := s.fromLLM(ctx, message)
		if err == nil && len(terms) > 0 {
			out, source = terms, sourceLLM
		} else {
			if cerr := ctx.Err(); cerr != nil {
				return nil, fmt.Errorf("generate terms: %w", cerr)
			}
			logger.FromContextOr(ctx, s.logger).Warn("LLM term generation failed, using rules",
				zap.Int("terms", len(terms)),
				zap.Error(err),
			)
			source = sourceFallback
		}
	}
	if out == nil {
		out = s.clean(s.rules.Terms(message))
	}
	if len(out) == 0 {
		out = []string{rank.TruncateTerm(message)}
	}

	metrics.TermsGeneratedTotal.WithLabelValues(source).Inc()
	return out, nil
}

// Analyze exposes the rule-based reading of message.
func (s *Service) Analyze(message string) Analysis {
	return s.rules.Analyze(message)
}

func (s *Service) fromLLM(ctx context.Context, message string) ([]string, error) {
	lctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	terms, err := s.llm.GenerateTerms(lctx, message)
	if err != nil {
		return nil, fmt.Errorf("llm terms: %w", err)
	}
	return s.clean(terms), nil
}

// clean lowercases, truncates and dedupes terms, keeping order.
func (s *Service) clean(terms []string) []string {
	out := make([]string, 0, len(terms))
	seen := make(map[string]bool, len(terms))
	for _, t := range terms {
		t = rank.TruncateTerm(strings.ToLower(strings.TrimSpace(t)))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
		if len(out) == s.maxTerms {
			break
		}
	}
	return out
}
