package terms

import (
	"bufio"
	"embed"
	"math"
	"slices"
	"strings"
)

//go:embed stopwords.txt
var stopWordsFS embed.FS

// sentimentAlpha normalizes the raw polarity sum into (-1, 1).
const sentimentAlpha = 15

// sentimentThreshold is the compound score beyond which sentiment terms are added.
const sentimentThreshold = 0.5

const maxKeyPhrases = 2

// Analysis is the rule-based reading of a chat message.
type Analysis struct {
	Emotion    string
	Intent     string
	Types      []string
	KeyPhrases []string
	Sentiment  float64
}

// Classifier derives GIF search terms from a message without any model calls.
type Classifier struct {
	stopWords map[string]bool
	maxTerms  int
}

// NewClassifier creates a classifier returning at most maxTerms terms (<= 0 means DefaultMaxTerms).
func NewClassifier(maxTerms int) *Classifier {
	if maxTerms <= 0 {
		maxTerms = DefaultMaxTerms
	}
	return &Classifier{stopWords: loadStopWords(), maxTerms: maxTerms}
}

func loadStopWords() map[string]bool {
	words := make(map[string]bool)
	f, err := stopWordsFS.Open("stopwords.txt")
	if err != nil {
		return words
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if w := strings.TrimSpace(scanner.Text()); w != "" {
			words[w] = true
		}
	}
	return words
}

// Analyze classifies emotion, intent, message types, key phrases and sentiment.
func (c *Classifier) Analyze(message string) Analysis {
	text := strings.ToLower(strings.TrimSpace(message))
	tokens := wordPattern.FindAllString(text, -1)

	a := Analysis{
		Emotion:   detectEmotion(tokens),
		Intent:    detectIntent(text),
		Sentiment: sentiment(tokens),
	}
	for _, p := range messagePatterns {
		if p.re.MatchString(text) {
			a.Types = append(a.Types, p.name)
		}
	}
	a.KeyPhrases = c.keyPhrases(tokens)
	return a
}

// Terms returns up to maxTerms search terms for message, most relevant first.
func (c *Classifier) Terms(message string) []string {
	return c.termsFor(c.Analyze(message))
}

// termsFor orders candidates emotion > intent > message type > key phrase > sentiment.
// Neutral emotion and plain statements add nothing: their modifiers match almost any GIF.
func (c *Classifier) termsFor(a Analysis) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(terms ...string) {
		for _, t := range terms {
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}

	if a.Emotion != EmotionNeutral {
		add(emotionModifiers[a.Emotion]...)
	}
	if a.Intent != IntentStatement {
		add(intentModifiers[a.Intent]...)
	}
	add(a.Types...)
	add(a.KeyPhrases...)
	switch {
	case a.Sentiment > sentimentThreshold:
		add("positive", "happy", "great")
	case a.Sentiment < -sentimentThreshold:
		add("negative", "sad", "bad")
	}

	if len(out) > c.maxTerms {
		out = out[:c.maxTerms]
	}
	return out
}

func detectEmotion(tokens []string) string {
	counts := make(map[string]int)
	for _, t := range tokens {
		if e, ok := emotionWords[t]; ok {
			counts[e]++
		}
	}
	best, bestCount := EmotionNeutral, 0
	for _, e := range emotionOrder {
		if counts[e] > bestCount {
			best, bestCount = e, counts[e]
		}
	}
	return best
}

func detectIntent(text string) string {
	switch {
	case requestPattern.MatchString(text):
		return IntentRequest
	case strings.HasSuffix(text, "?") || questionLead.MatchString(text):
		return IntentQuestion
	case opinionPattern.MatchString(text):
		return IntentOpinion
	case commandLead.MatchString(text):
		return IntentCommand
	default:
		return IntentStatement
	}
}

// sentiment returns a compound polarity score in (-1, 1). A negator up to
// three tokens back flips a word's polarity.
func sentiment(tokens []string) float64 {
	var sum float64
	for i, t := range tokens {
		v, ok := polarity[t]
		if !ok {
			continue
		}
		for j := max(0, i-3); j < i; j++ {
			if negators[tokens[j]] {
				v = -v
				break
			}
		}
		sum += v
	}
	if sum == 0 {
		return 0
	}
	return sum / math.Sqrt(sum*sum+sentimentAlpha)
}

func (c *Classifier) keyPhrases(tokens []string) []string {
	var out []string
	for _, t := range tokens {
		if len(out) == maxKeyPhrases {
			break
		}
		if len(t) < 3 || c.stopWords[t] || negators[t] || slices.Contains(out, t) {
			continue
		}
		if _, ok := emotionWords[t]; ok {
			continue
		}
		if _, ok := polarity[t]; ok {
			continue
		}
		out = append(out, t)
	}
	return out
}
