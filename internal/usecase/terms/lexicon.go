package terms

import "regexp"

// Emotion labels.
const (
	EmotionJoy      = "joy"
	EmotionSadness  = "sadness"
	EmotionAnger    = "anger"
	EmotionFear     = "fear"
	EmotionSurprise = "surprise"
	EmotionDisgust  = "disgust"
	EmotionNeutral  = "neutral"
)

// Intent labels.
const (
	IntentQuestion  = "question"
	IntentStatement = "statement"
	IntentCommand   = "command"
	IntentRequest   = "request"
	IntentOpinion   = "opinion"
)

var emotionModifiers = map[string][]string{
	EmotionJoy:      {"happy", "excited", "celebration"},
	EmotionSadness:  {"sad", "crying", "disappointed"},
	EmotionAnger:    {"angry", "mad", "frustrated"},
	EmotionFear:     {"scared", "nervous", "worried"},
	EmotionSurprise: {"shocked", "amazed", "wow"},
	EmotionDisgust:  {"disgusted", "gross", "ew"},
	EmotionNeutral:  {"okay", "neutral", "meh"},
}

var intentModifiers = map[string][]string{
	IntentQuestion:  {"thinking", "confused", "wondering"},
	IntentStatement: {"explaining", "talking", "saying"},
	IntentCommand:   {"pointing", "directing", "ordering"},
	IntentRequest:   {"asking", "pleading", "requesting"},
	IntentOpinion:   {"judging", "thinking", "considering"},
}

// emotionOrder breaks ties between equally scored emotions.
var emotionOrder = []string{
	EmotionJoy, EmotionSadness, EmotionAnger, EmotionFear, EmotionSurprise, EmotionDisgust,
}

var emotionWords = map[string]string{
	"happy": EmotionJoy, "glad": EmotionJoy, "yay": EmotionJoy, "love": EmotionJoy,
	"excited": EmotionJoy, "awesome": EmotionJoy, "amazing": EmotionJoy, "fun": EmotionJoy,
	"lol": EmotionJoy, "haha": EmotionJoy, "congrats": EmotionJoy, "wonderful": EmotionJoy,
	"delighted": EmotionJoy, "celebrate": EmotionJoy, "woohoo": EmotionJoy, "great": EmotionJoy,

	"sad": EmotionSadness, "cry": EmotionSadness, "crying": EmotionSadness, "miss": EmotionSadness,
	"lonely": EmotionSadness, "depressed": EmotionSadness, "unhappy": EmotionSadness,
	"heartbroken": EmotionSadness, "upset": EmotionSadness, "disappointed": EmotionSadness,

	"angry": EmotionAnger, "mad": EmotionAnger, "furious": EmotionAnger, "hate": EmotionAnger,
	"annoyed": EmotionAnger, "pissed": EmotionAnger, "rage": EmotionAnger, "frustrated": EmotionAnger,

	"scared": EmotionFear, "afraid": EmotionFear, "nervous": EmotionFear, "worried": EmotionFear,
	"anxious": EmotionFear, "terrified": EmotionFear, "panic": EmotionFear,

	"wow": EmotionSurprise, "omg": EmotionSurprise, "whoa": EmotionSurprise, "shocked": EmotionSurprise,
	"unbelievable": EmotionSurprise, "surprised": EmotionSurprise, "seriously": EmotionSurprise,

	"gross": EmotionDisgust, "ew": EmotionDisgust, "eww": EmotionDisgust, "yuck": EmotionDisgust,
	"disgusting": EmotionDisgust, "nasty": EmotionDisgust,
}

var polarity = map[string]float64{
	"happy": 2, "glad": 2, "love": 3, "great": 3, "awesome": 3, "amazing": 3, "good": 2,
	"nice": 2, "fun": 2, "wonderful": 3, "fantastic": 3, "excellent": 3, "thanks": 2,
	"congrats": 2, "yay": 2, "best": 3, "perfect": 3, "cool": 1, "beautiful": 3, "excited": 2,

	"sad": -2, "bad": -2, "terrible": -3, "awful": -3, "hate": -3, "angry": -3, "horrible": -3,
	"worst": -3, "sick": -2, "tired": -1, "upset": -2, "annoyed": -2, "disappointed": -2,
	"gross": -2, "cry": -2, "lonely": -2, "scared": -2,
}

var negators = map[string]bool{
	"not": true, "no": true, "never": true, "don't": true, "isn't": true, "wasn't": true,
	"can't": true, "didn't": true, "aren't": true, "won't": true,
}

type messagePattern struct {
	name string
	re   *regexp.Regexp
}

// messagePatterns are matched against the lowercased message in this order.
var messagePatterns = []messagePattern{
	{"question", regexp.MustCompile(`\?\s*$|\b(what|who|where|when|why|how)\b`)},
	{"exclamation", regexp.MustCompile(`!\s*$|\b(wow|omg|oh|ah|hey|whoa)\b`)},
	{"greeting", regexp.MustCompile(`\b(hi|hello|hey|good morning|good evening|good afternoon)\b`)},
	{"farewell", regexp.MustCompile(`\b(bye|goodbye|see you|later|good night)\b`)},
	{"agreement", regexp.MustCompile(`\b(yes|yeah|sure|okay|ok|alright|agree)\b`)},
	{"disagreement", regexp.MustCompile(`\b(no|nope|disagree|not really|nah)\b`)},
	{"gratitude", regexp.MustCompile(`\b(thanks|thank you|appreciate|grateful)\b`)},
	{"apology", regexp.MustCompile(`\b(sorry|apologize|my bad|oops)\b`)},
	{"sarcasm", regexp.MustCompile(`\b(sure|right)\.\.\.|\b(whatever|oh really)\b`)},
	{"celebration", regexp.MustCompile(`\b(congrats|congratulations|yay|hurray|awesome)\b`)},
	{"sympathy", regexp.MustCompile(`\b(sorry to hear|that's tough|hope you're okay)\b`)},
}

var (
	requestPattern = regexp.MustCompile(`\b(please|can you|could you|would you|will you)\b`)
	opinionPattern = regexp.MustCompile(`\b(i think|i believe|i feel|in my opinion|imo|i guess)\b`)
	questionLead   = regexp.MustCompile(`^(what|who|where|when|why|how|is|are|do|does|did|can|should)\b`)
	commandLead    = regexp.MustCompile(`^(go|stop|look|come|let's|do|don't|get|give|tell|check|try|wait|watch|listen)\b`)
	wordPattern    = regexp.MustCompile(`[a-z][a-z']*`)
)
