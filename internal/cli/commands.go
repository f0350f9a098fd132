package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/gifrank/internal/app"
	"github.com/kailas-cloud/gifrank/internal/domain/rank"
	healthuc "github.com/kailas-cloud/gifrank/internal/usecase/health"
)

const defaultTrendingLimit = 10

type rankOutput struct {
	Outcome    string     `json:"outcome"`
	Reason     string     `json:"reason,omitempty"`
	Items      []itemJSON `json:"items"`
	Candidates int        `json:"candidates"`
	Failed     int        `json:"failed"`
}

type itemJSON struct {
	URL   string  `json:"url"`
	Score float64 `json:"score"`
}

type suggestOutput struct {
	Reply string   `json:"reply,omitempty"`
	Query string   `json:"query"`
	Terms []string `json:"search_terms"`
	rankOutput
}

type healthOutput struct {
	Status string                          `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

func toRankOutput(r rank.Result) rankOutput {
	items := make([]itemJSON, len(r.Items))
	for i, it := range r.Items {
		items[i] = itemJSON{URL: it.URL, Score: it.Score}
	}
	return rankOutput{
		Outcome:    string(r.Outcome),
		Reason:     string(r.Reason),
		Items:      items,
		Candidates: r.Candidates,
		Failed:     r.Failed,
	}
}

func printRank(w io.Writer, r rank.Result) {
	fmt.Fprintf(w, "%s", r.Outcome)
	if r.Reason != rank.ReasonNone {
		fmt.Fprintf(w, " (%s)", r.Reason)
	}
	fmt.Fprintf(w, ": %d candidates, %d failed\n", r.Candidates, r.Failed)
	for i, it := range r.Items {
		if it.Score == rank.UnrankedScore {
			fmt.Fprintf(w, "%2d. %s\n", i+1, it.URL)
			continue
		}
		fmt.Fprintf(w, "%2d. %.4f  %s\n", i+1, it.Score, it.URL)
	}
}

func newRankCommand(opts *rootOptions) *cobra.Command {
	var (
		terms        []string
		perTermLimit int
		topK         int
	)
	cmd := &cobra.Command{
		Use:   "rank <query>",
		Short: "Retrieve GIFs for search terms and rank them against a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := rank.NewRequest(strings.Join(args, " "), terms, perTermLimit, topK)
			if err != nil {
				return err
			}
			return opts.withEngine(cmd, func(engine *app.App) error {
				res, err := engine.Ranking.Rank(cmd.Context(), &req)
				if err != nil {
					return fmt.Errorf("rank: %w", err)
				}
				if opts.asJSON {
					return writeJSON(cmd.OutOrStdout(), toRankOutput(res))
				}
				printRank(cmd.OutOrStdout(), res)
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&terms, "term", "t", nil, "search term (repeatable); defaults to the query")
	cmd.Flags().IntVar(&perTermLimit, "per-term", rank.DefaultPerTermLimit, "results requested per term")
	cmd.Flags().IntVarP(&topK, "top", "k", rank.DefaultTopK, "number of GIFs to return")
	return cmd
}

func newSuggestCommand(opts *rootOptions) *cobra.Command {
	var topK int
	cmd := &cobra.Command{
		Use:   "suggest <message>",
		Short: "Draft a reply to a chat message and rank GIFs for it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withEngine(cmd, func(engine *app.App) error {
				res, err := engine.Suggest.Suggest(cmd.Context(), strings.Join(args, " "), topK)
				if err != nil {
					return fmt.Errorf("suggest: %w", err)
				}
				if opts.asJSON {
					return writeJSON(cmd.OutOrStdout(), suggestOutput{
						Reply:      res.Reply,
						Query:      res.Query,
						Terms:      res.Terms,
						rankOutput: toRankOutput(res.Rank),
					})
				}
				w := cmd.OutOrStdout()
				if res.Reply != "" {
					fmt.Fprintf(w, "reply: %s\n", res.Reply)
				}
				fmt.Fprintf(w, "query: %s\nterms: %s\n", res.Query, strings.Join(res.Terms, ", "))
				printRank(w, res.Rank)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&topK, "top", "k", rank.DefaultTopK, "number of GIFs to return")
	return cmd
}

func newTermsCommand(opts *rootOptions) *cobra.Command {
	var explain bool
	cmd := &cobra.Command{
		Use:   "terms <message>",
		Short: "Generate GIF search terms for a chat message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.Join(args, " ")
			return opts.withEngine(cmd, func(engine *app.App) error {
				terms, err := engine.Terms.Generate(cmd.Context(), message)
				if err != nil {
					return fmt.Errorf("terms: %w", err)
				}
				w := cmd.OutOrStdout()
				if opts.asJSON {
					return writeJSON(w, map[string][]string{"search_terms": terms})
				}
				if explain {
					a := engine.Terms.Analyze(message)
					fmt.Fprintf(w, "emotion: %s\nintent: %s\ntypes: %s\nsentiment: %.2f\n",
						a.Emotion, a.Intent, strings.Join(a.Types, ", "), a.Sentiment)
				}
				for _, t := range terms {
					fmt.Fprintln(w, t)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&explain, "explain", false, "print the rule-based message analysis")
	return cmd
}

func newTrendingCommand(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "trending",
		Short: "List trending GIFs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withEngine(cmd, func(engine *app.App) error {
				urls := engine.Retrieval.Trending(cmd.Context(), limit)
				if opts.asJSON {
					return writeJSON(cmd.OutOrStdout(), map[string][]string{"items": urls})
				}
				for _, u := range urls {
					fmt.Fprintln(cmd.OutOrStdout(), u)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultTrendingLimit, "number of GIFs")
	return cmd
}

func newHealthCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the cache and embedding endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withEngine(cmd, func(engine *app.App) error {
				report := engine.Health.Check(cmd.Context())
				if opts.asJSON {
					return writeJSON(cmd.OutOrStdout(), healthOutput{Status: string(report.Status), Checks: report.Checks})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "status: %s\n", report.Status)
				for _, name := range slices.Sorted(maps.Keys(report.Checks)) {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s\n", name, report.Checks[name])
				}
				return nil
			})
		},
	}
}
