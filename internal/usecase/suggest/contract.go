package suggest

import (
	"context"

	"github.com/kailas-cloud/gifrank/internal/domain/rank"
)

// Replier drafts a chat reply to a message.
type Replier interface {
	GenerateReply(ctx context.Context, message string) (string, error)
}

// TermSource generates search terms for a message.
type TermSource interface {
	Generate(ctx context.Context, message string) ([]string, error)
}

// Ranker ranks GIFs for a request.
type Ranker interface {
	Rank(ctx context.Context, req *rank.Request) (rank.Result, error)
}
