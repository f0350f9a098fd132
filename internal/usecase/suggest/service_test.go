package suggest

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/gifrank/internal/domain"
	"github.com/kailas-cloud/gifrank/internal/domain/rank"
)

// --- Mocks ---

type mockRanker struct {
	req rank.Request
	res rank.Result
	err error
}

func (m *mockRanker) Rank(_ context.Context, req *rank.Request) (rank.Result, error) {
	m.req = *req
	return m.res, m.err
}

type mockReplier struct {
	reply string
	err   error
	got   string
}

func (m *mockReplier) GenerateReply(_ context.Context, message string) (string, error) {
	m.got = message
	return m.reply, m.err
}

type mockTerms struct {
	terms []string
	err   error
}

func (m *mockTerms) Generate(_ context.Context, _ string) ([]string, error) {
	return m.terms, m.err
}

// --- Tests ---

func TestSuggest_ReplyBecomesQuery(t *testing.T) {
	ranker := &mockRanker{res: rank.Result{Outcome: rank.OutcomeRanked, Items: []rank.Item{{URL: "u1", Score: 0.3}}}}
	replier := &mockReplier{reply: "  Congrats, that is amazing news!  "}

	res, err := New(ranker, nil).WithReplier(replier, 0).Suggest(context.Background(), "I got the job", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if replier.got != "I got the job" {
		t.Errorf("replier got %q", replier.got)
	}
	if res.Reply != "Congrats, that is amazing news!" || res.Query != res.Reply {
		t.Errorf("unexpected reply/query %q / %q", res.Reply, res.Query)
	}
	if ranker.req.Query() != res.Query || ranker.req.TopK() != 3 {
		t.Errorf("unexpected rank request %q topK=%d", ranker.req.Query(), ranker.req.TopK())
	}
	if !slices.Equal(res.Terms, []string{res.Query}) {
		t.Errorf("expected query as sole term, got %v", res.Terms)
	}
	if len(res.Rank.Items) != 1 {
		t.Errorf("expected ranked items to pass through, got %+v", res.Rank)
	}
}

func TestSuggest_QueryTruncated(t *testing.T) {
	ranker := &mockRanker{}
	replier := &mockReplier{reply: strings.Repeat("ha", 40)}

	res, err := New(ranker, nil).WithReplier(replier, 0).Suggest(context.Background(), "tell me a joke", rank.DefaultTopK)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Query) != rank.MaxTermRunes {
		t.Errorf("expected %d char query, got %d", rank.MaxTermRunes, len(res.Query))
	}
	if res.Reply == res.Query {
		t.Error("reply must be returned untruncated")
	}
}

func TestSuggest_ReplyFailureUsesMessage(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	ranker := &mockRanker{}
	replier := &mockReplier{err: domain.ErrGeneratorError}

	res, err := New(ranker, zap.New(core)).WithReplier(replier, 0).Suggest(context.Background(), "see you soon", rank.DefaultTopK)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Reply != "" || res.Query != "see you soon" {
		t.Errorf("expected message as query, got reply=%q query=%q", res.Reply, res.Query)
	}
	if logs.FilterMessage("Reply generation failed, using message as query").Len() != 1 {
		t.Error("expected warning")
	}
}

func TestSuggest_NoReplier(t *testing.T) {
	ranker := &mockRanker{}
	res, err := New(ranker, nil).Suggest(context.Background(), "good morning", rank.DefaultTopK)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Query != "good morning" || ranker.req.TopK() != rank.DefaultTopK {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestSuggest_TermsAppended(t *testing.T) {
	ranker := &mockRanker{}
	terms := &mockTerms{terms: []string{"happy", "Good Morning", "greeting", " "}}

	res, err := New(ranker, nil).WithTerms(terms).Suggest(context.Background(), "good morning", rank.DefaultTopK)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"good morning", "happy", "greeting"}
	if !slices.Equal(res.Terms, want) || !slices.Equal(ranker.req.Terms(), want) {
		t.Errorf("expected %v, got %v", want, res.Terms)
	}
}

func TestSuggest_TermsFailureIgnored(t *testing.T) {
	ranker := &mockRanker{}
	terms := &mockTerms{err: errors.New("boom")}

	res, err := New(ranker, nil).WithTerms(terms).Suggest(context.Background(), "hello", rank.DefaultTopK)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(res.Terms, []string{"hello"}) {
		t.Errorf("unexpected terms %v", res.Terms)
	}
}

func TestSuggest_RankErrorPropagates(t *testing.T) {
	ranker := &mockRanker{err: context.Canceled}
	if _, err := New(ranker, nil).Suggest(context.Background(), "hello", rank.DefaultTopK); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSuggest_InvalidInput(t *testing.T) {
	replier := &mockReplier{reply: "hello"}
	svc := New(&mockRanker{}, nil).WithReplier(replier, 0)
	if _, err := svc.Suggest(context.Background(), "  ", rank.DefaultTopK); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	for _, k := range []int{0, -1} {
		if _, err := svc.Suggest(context.Background(), "hi", k); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("topK=%d: expected ErrInvalidInput, got %v", k, err)
		}
	}
	if replier.got != "" {
		t.Errorf("replier called for invalid input with %q", replier.got)
	}
}
