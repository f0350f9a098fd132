package terms

import "context"

// Generator produces relevance-ranked search terms for a chat message.
type Generator interface {
	GenerateTerms(ctx context.Context, message string) ([]string, error)
}
