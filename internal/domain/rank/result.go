package rank

// UnrankedScore marks items returned without similarity ranking.
// Cosine scores of normalized vectors live in [-1, 1], so it never collides with a real score.
const UnrankedScore = -2.0

// Outcome classifies a ranking result.
type Outcome string

// Ranking outcomes.
const (
	OutcomeRanked   Outcome = "ranked"
	OutcomeUnranked Outcome = "unranked"
	OutcomeEmpty    Outcome = "empty"
)

// Reason explains a non-ranked outcome.
type Reason string

// Degradation reasons.
const (
	ReasonNone                 Reason = ""
	ReasonNoCandidates         Reason = "no_candidates"
	ReasonNoEmbeddings         Reason = "no_embeddings"
	ReasonEmbeddingUnavailable Reason = "embedding_unavailable"
)

// Item is a single ranked GIF.
type Item struct {
	URL   string
	Score float64
}

// Result is the output of one ranking operation.
// Items are ordered by non-increasing score.
type Result struct {
	Outcome    Outcome
	Reason     Reason
	Items      []Item
	Candidates int
	Failed     int
}

// Empty builds an empty result with the given reason.
func Empty(reason Reason, candidates, failed int) Result {
	return Result{Outcome: OutcomeEmpty, Reason: reason, Items: []Item{}, Candidates: candidates, Failed: failed}
}

// Unranked builds a degraded result from the first topK candidates in retrieval order.
func Unranked(reason Reason, candidates []string, topK, failed int) Result {
	n := min(topK, len(candidates))
	items := make([]Item, n)
	for i := range n {
		items[i] = Item{URL: candidates[i], Score: UnrankedScore}
	}
	return Result{Outcome: OutcomeUnranked, Reason: reason, Items: items, Candidates: len(candidates), Failed: failed}
}

// URLs returns item URLs in rank order.
func (r Result) URLs() []string {
	out := make([]string, len(r.Items))
	for i, it := range r.Items {
		out[i] = it.URL
	}
	return out
}
