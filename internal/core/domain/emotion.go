package domain

import "strings"

// Emotion labels produced by the prediction models.
const (
	EmotionAnger     = "anger"
	EmotionSadness   = "sadness"
	EmotionHappiness = "happiness"
	EmotionSurprise  = "surprise"
	EmotionNeutral   = "neutral"
)

// DefaultQuery is used for any label outside the closed emotion set,
// including free-text manual input.
const DefaultQuery = "genre:pop track:mixed"

type emotionProfile struct {
	query string
	mood  string
}

// Each emotion maps to music that counters or sustains it.
var emotionProfiles = map[string]emotionProfile{
	EmotionAnger: {
		query: "genre:chill track:calm",
		mood:  "You seem angry. Here are some songs to calm you down.",
	},
	EmotionSadness: {
		query: "genre:pop track:upbeat",
		mood:  "You seem sad. Here are some songs to boost your mood.",
	},
	EmotionHappiness: {
		query: "genre:acoustic track:chill",
		mood:  "You seem happy! Here are some songs to keep the vibe going.",
	},
	EmotionSurprise: {
		query: "genre:indie track:exciting",
		mood:  "You seem surprised! Here are some exciting tracks for you.",
	},
	EmotionNeutral: {
		query: "genre:instrumental track:inspiring",
		mood:  "You seem neutral. Here are some inspiring songs to enjoy.",
	},
}

// NormalizeLabel lower-cases and trims a label for table lookups.
func NormalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// IsKnownEmotion reports whether label belongs to the closed emotion set.
func IsKnownEmotion(label string) bool {
	_, ok := emotionProfiles[NormalizeLabel(label)]
	return ok
}

// QueryFor returns the catalog search template for label.
// Matching is case-insensitive; unknown labels get DefaultQuery.
func QueryFor(label string) string {
	if p, ok := emotionProfiles[NormalizeLabel(label)]; ok {
		return p.query
	}
	return DefaultQuery
}

// MoodMessage returns the message shown above the recommendations,
// or "" for labels outside the emotion set.
func MoodMessage(label string) string {
	return emotionProfiles[NormalizeLabel(label)].mood
}
