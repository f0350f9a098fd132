// Package suggest answers a chat message with a drafted reply and GIFs ranked for it.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gifrank/internal/domain"
	"github.com/kailas-cloud/gifrank/internal/domain/rank"
	"github.com/kailas-cloud/gifrank/internal/logger"
)

// DefaultReplyTimeout bounds reply generation.
const DefaultReplyTimeout = 10 * time.Second

// Result is a suggestion: the reply used as query, the search terms and the ranked GIFs.
type Result struct {
	Reply string
	Query string
	Terms []string
	Rank  rank.Result
}

// Service runs message → reply → query → terms → rank.
type Service struct {
	ranker       Ranker
	replier      Replier
	terms        TermSource
	replyTimeout time.Duration
	logger       *zap.Logger
}

// New creates a suggest service. Without a replier the message itself is the query.
func New(ranker Ranker, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{ranker: ranker, replyTimeout: DefaultReplyTimeout, logger: logger}
}

// WithReplier enables reply drafting.
func (s *Service) WithReplier(r Replier, timeout time.Duration) *Service {
	s.replier = r
	if timeout > 0 {
		s.replyTimeout = timeout
	}
	return s
}

// WithTerms adds generated terms for the incoming message after the query term.
func (s *Service) WithTerms(t TermSource) *Service {
	s.terms = t
	return s
}

// Suggest drafts a reply to message and ranks up to topK GIFs for it. topK must be positive.
func (s *Service) Suggest(ctx context.Context, message string, topK int) (Result, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Result{}, fmt.Errorf("empty message: %w", domain.ErrInvalidInput)
	}
	if len(message) > rank.MaxQueryLength {
		return Result{}, fmt.Errorf("message exceeds %d bytes: %w", rank.MaxQueryLength, domain.ErrInvalidInput)
	}
	if topK <= 0 {
		return Result{}, fmt.Errorf("top_k must be positive: %w", domain.ErrInvalidInput)
	}
	log := logger.FromContextOr(ctx, s.logger)

	reply := s.reply(ctx, log, message)
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("suggest: %w", err)
	}
	query := message
	if reply != "" {
		query = reply
	}
	query = rank.TruncateTerm(query)

	terms := []string{query}
	if s.terms != nil {
		extra, err := s.terms.Generate(ctx, message)
		switch {
		case err == nil:
			terms = appendUnique(terms, extra)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return Result{}, fmt.Errorf("suggest: %w", err)
		default:
			log.Warn("Term generation failed, searching by query only", zap.Error(err))
		}
	}

	req, err := rank.NewRequest(query, terms, 0, topK)
	if err != nil {
		return Result{}, fmt.Errorf("suggest request: %w", err)
	}
	res, err := s.ranker.Rank(ctx, &req)
	if err != nil {
		return Result{}, fmt.Errorf("suggest: %w", err)
	}
	return Result{Reply: reply, Query: query, Terms: req.Terms(), Rank: res}, nil
}

func (s *Service) reply(ctx context.Context, log *zap.Logger, message string) string {
	if s.replier == nil {
		return ""
	}
	rctx, cancel := context.WithTimeout(ctx, s.replyTimeout)
	defer cancel()

	reply, err := s.replier.GenerateReply(rctx, message)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn("Reply generation failed, using message as query", zap.Error(err))
		}
		return ""
	}
	return strings.TrimSpace(reply)
}

func appendUnique(dst, src []string) []string {
	seen := make(map[string]bool, len(dst)+len(src))
	for _, t := range dst {
		seen[strings.ToLower(t)] = true
	}
	for _, t := range src {
		if len(dst) == rank.MaxTerms {
			break
		}
		k := strings.ToLower(strings.TrimSpace(t))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		dst = append(dst, t)
	}
	return dst
}
