package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/gifrank/internal/domain"
)

const (
	termsSystemPrompt = `You pick GIF search queries. Given a chat message, answer with a JSON array ` +
		`of at most %d short search queries (1-3 words each) ordered from most to least relevant. ` +
		`Prefer emotions and reactions over literal nouns. Answer with the JSON array only.`
	replySystemPrompt = `You are User1 in a casual chat. Reply to User2 in one short sentence.`
)

// GeneratorConfig holds chat-completion settings.
type GeneratorConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTerms    int
	MaxTokens   int
	Temperature float32
	Logger      *zap.Logger
}

// Generator produces search terms and chat replies through a chat-completions API.
type Generator struct {
	client      *openai.Client
	model       string
	maxTerms    int
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

// NewGenerator creates a chat-completions backed generator.
func NewGenerator(cfg *GeneratorConfig) *Generator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxTerms := cfg.MaxTerms
	if maxTerms <= 0 {
		maxTerms = 5
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 64
	}
	return &Generator{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		maxTerms:    maxTerms,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		logger:      logger,
	}
}

// GenerateTerms asks the model for GIF search queries matching message.
func (g *Generator) GenerateTerms(ctx context.Context, message string) ([]string, error) {
	content, err := g.complete(ctx, fmt.Sprintf(termsSystemPrompt, g.maxTerms), message)
	if err != nil {
		return nil, err
	}
	terms, err := parseTerms(content)
	if err != nil {
		g.logger.Debug("Unparseable terms completion", zap.String("content", content))
		return nil, fmt.Errorf("parse terms: %w: %w", domain.ErrGeneratorError, err)
	}
	if len(terms) > g.maxTerms {
		terms = terms[:g.maxTerms]
	}
	return terms, nil
}

// GenerateReply produces a short conversational reply to message.
func (g *Generator) GenerateReply(ctx context.Context, message string) (string, error) {
	content, err := g.complete(ctx, replySystemPrompt, "User2: "+message+"\nUser1 reply:")
	if err != nil {
		return "", err
	}
	reply := strings.TrimSpace(content)
	reply = strings.TrimPrefix(reply, "User1 reply:")
	reply = strings.Trim(strings.TrimSpace(reply), `"`)
	if reply == "" {
		return "", fmt.Errorf("empty reply: %w", domain.ErrGeneratorError)
	}
	return reply, nil
}

func (g *Generator) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w: %w", domain.ErrGeneratorError, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices: %w", domain.ErrGeneratorError)
	}
	return resp.Choices[0].Message.Content, nil
}

// parseTerms accepts a JSON string array, optionally inside a Markdown code fence.
func parseTerms(content string) ([]string, error) {
	s := strings.TrimSpace(content)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	if i, j := strings.Index(s, "["), strings.LastIndex(s, "]"); i >= 0 && j > i {
		s = s[i : j+1]
	}

	var raw []string
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out, nil
}
