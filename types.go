package gifrank

import (
	"github.com/kailas-cloud/gifrank/internal/domain/rank"
	healthuc "github.com/kailas-cloud/gifrank/internal/usecase/health"
	suggestuc "github.com/kailas-cloud/gifrank/internal/usecase/suggest"
)

// UnrankedScore is the score of items returned without similarity ranking.
const UnrankedScore = rank.UnrankedScore

// DefaultTopK is the number of items returned when TopK is not set.
const DefaultTopK = rank.DefaultTopK

// Outcome classifies a ranking result.
type Outcome string

// Ranking outcomes.
const (
	OutcomeRanked   Outcome = Outcome(rank.OutcomeRanked)
	OutcomeUnranked Outcome = Outcome(rank.OutcomeUnranked)
	OutcomeEmpty    Outcome = Outcome(rank.OutcomeEmpty)
)

// Reason explains why a result is not ranked.
type Reason string

// Degradation reasons.
const (
	ReasonNone                 Reason = Reason(rank.ReasonNone)
	ReasonNoCandidates         Reason = Reason(rank.ReasonNoCandidates)
	ReasonNoEmbeddings         Reason = Reason(rank.ReasonNoEmbeddings)
	ReasonEmbeddingUnavailable Reason = Reason(rank.ReasonEmbeddingUnavailable)
)

// Item is a ranked GIF.
type Item struct {
	URL   string
	Score float64
}

// Result is the outcome of a ranking call. Items are ordered by non-increasing score.
type Result struct {
	Outcome    Outcome
	Reason     Reason
	Items      []Item
	Candidates int
	Failed     int
}

// URLs returns item URLs in rank order.
func (r Result) URLs() []string {
	out := make([]string, len(r.Items))
	for i, it := range r.Items {
		out[i] = it.URL
	}
	return out
}

// Suggestion is a drafted reply with GIFs ranked against it.
type Suggestion struct {
	Reply  string // empty when no reply generator is configured or it failed
	Query  string
	Terms  []string
	Result Result
}

// HealthReport is the status of the client's dependencies.
type HealthReport struct {
	Status string            // "ok", "degraded" or "error"
	Checks map[string]string // component -> "ok" / "error"
}

func resultFromDomain(r rank.Result) Result {
	items := make([]Item, len(r.Items))
	for i, it := range r.Items {
		items[i] = Item{URL: it.URL, Score: it.Score}
	}
	return Result{
		Outcome:    Outcome(r.Outcome),
		Reason:     Reason(r.Reason),
		Items:      items,
		Candidates: r.Candidates,
		Failed:     r.Failed,
	}
}

func suggestionFromDomain(r suggestuc.Result) Suggestion {
	return Suggestion{
		Reply:  r.Reply,
		Query:  r.Query,
		Terms:  r.Terms,
		Result: resultFromDomain(r.Rank),
	}
}

func healthFromDomain(r healthuc.Report) HealthReport {
	checks := make(map[string]string, len(r.Checks))
	for k, v := range r.Checks {
		checks[k] = string(v)
	}
	return HealthReport{Status: string(r.Status), Checks: checks}
}
