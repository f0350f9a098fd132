package chi

import (
	"context"

	"github.com/kailas-cloud/gifrank/internal/domain/rank"
	healthuc "github.com/kailas-cloud/gifrank/internal/usecase/health"
	suggestuc "github.com/kailas-cloud/gifrank/internal/usecase/suggest"
)

// Ranker ranks GIFs for a validated request.
type Ranker interface {
	Rank(ctx context.Context, req *rank.Request) (rank.Result, error)
}

// Suggester drafts a reply and ranks GIFs for it.
type Suggester interface {
	Suggest(ctx context.Context, message string, topK int) (suggestuc.Result, error)
}

// TermGenerator turns a message into search terms.
type TermGenerator interface {
	Generate(ctx context.Context, message string) ([]string, error)
}

// TrendingSource lists trending GIF URLs.
type TrendingSource interface {
	Trending(ctx context.Context, limit int) []string
}

// HealthChecker reports dependency status.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
