package rank

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/gifrank/internal/domain"
)

// Rank parameter limits.
const (
	// MaxQueryLength is the maximum allowed query length in bytes.
	MaxQueryLength = 1024
	// MaxTermRunes is the truncation applied when query text is used as a search term.
	MaxTermRunes        = 50
	MaxTerms            = 20
	DefaultPerTermLimit = 10
	MaxPerTermLimit     = 50
	DefaultTopK         = 6
	MaxTopK             = 50
)

// Request is a validated ranking request.
type Request struct {
	query        string
	terms        []string
	perTermLimit int
	topK         int
}

// NewRequest validates and normalizes ranking parameters.
// Blank terms are dropped; no terms falls back to the truncated query.
// Non-positive topK is rejected; callers apply DefaultTopK when the caller omitted it.
func NewRequest(query string, terms []string, perTermLimit, topK int) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("query is required: %w", domain.ErrInvalidInput)
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d bytes): %w", MaxQueryLength, domain.ErrInvalidInput)
	}
	if len(terms) > MaxTerms {
		return Request{}, fmt.Errorf("too many search terms (max %d): %w", MaxTerms, domain.ErrInvalidInput)
	}
	if topK <= 0 {
		return Request{}, fmt.Errorf("top_k must be positive: %w", domain.ErrInvalidInput)
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}
	if perTermLimit <= 0 {
		perTermLimit = DefaultPerTermLimit
	}
	if perTermLimit > MaxPerTermLimit {
		perTermLimit = MaxPerTermLimit
	}

	cleaned := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	if len(cleaned) == 0 {
		cleaned = []string{TruncateTerm(query)}
	}

	return Request{
		query:        query,
		terms:        cleaned,
		perTermLimit: perTermLimit,
		topK:         topK,
	}, nil
}

// Query returns the text that is embedded and compared against candidates.
func (r *Request) Query() string { return r.query }

// Terms returns the search terms in priority order.
func (r *Request) Terms() []string { return r.terms }

// PerTermLimit returns the provider result limit per term.
func (r *Request) PerTermLimit() int { return r.perTermLimit }

// TopK returns the maximum number of ranked items.
func (r *Request) TopK() int { return r.topK }

// TruncateTerm cuts s to MaxTermRunes runes without splitting a rune.
func TruncateTerm(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= MaxTermRunes {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:MaxTermRunes]))
}
