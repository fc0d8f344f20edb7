package service

import (
	"math/rand"
	"strings"
	"unicode"

	"github.com/bindisa/agritech-api/internal/domain"
)

// Intent is a keyword-detected category of a user message
type Intent string

const (
	IntentGreeting           Intent = "greeting"
	IntentCropRecommendation Intent = "crop_recommendation"
	IntentSoilHealth         Intent = "soil_health"
	IntentPestControl        Intent = "pest_control"
	IntentGeneral            Intent = "general"
)

// AssistReply is a canned assistant response with its classification
type AssistReply struct {
	Text         string
	Intent       Intent
	Confidence   float64
	QuickReplies []domain.QuickReply
}

var intentKeywords = []struct {
	intent     Intent
	confidence float64
	keywords   []string
}{
	{IntentGreeting, 0.9, []string{"hello", "hi", "namaste"}},
	{IntentCropRecommendation, 0.8, []string{"crop", "plant", "grow"}},
	{IntentSoilHealth, 0.8, []string{"soil", "ph", "nutrient"}},
	{IntentPestControl, 0.8, []string{"pest", "insect", "disease"}},
}

var greetingReplies = []string{
	"Hello! I'm here to help you with your agricultural questions. How can I assist you today?",
	"Welcome to Bindisa Agritech! What agricultural challenge can I help you solve?",
}

var defaultReplies = []string{
	"I understand you're asking about agriculture. Could you be more specific so I can provide better assistance?",
	"That's an interesting question! Let me help you with that agricultural topic.",
}

var intentReplies = map[Intent][]string{
	IntentCropRecommendation: {
		"For crop recommendations, I'll need to know your soil type, climate zone, and farm size. Could you share these details?",
		"Based on your location and soil conditions, I can suggest the best crops for your farm. What's your area's soil type?",
	},
	IntentSoilHealth: {
		"Soil health is crucial for good yields! Have you done a recent soil test? I can help interpret the results.",
		"For soil health assessment, consider testing pH, organic matter, and nutrient levels. Would you like guidance on this?",
	},
	IntentPestControl: {
		"Pest control depends on the crop and pest type. What crop are you growing and what pest issues are you seeing?",
		"I can help you with integrated pest management strategies. Which pests are affecting your crops?",
	},
}

var greetingQuickReplies = []domain.QuickReply{
	{Title: "Soil Analysis", Payload: "soil_analysis"},
	{Title: "Crop Advice", Payload: "crop_advice"},
	{Title: "Pest Control", Payload: "pest_control"},
}

// DetectIntent classifies a message by keyword lookup. Keywords match at
// word starts only, so "hi" does not fire inside "which" while "insects"
// still matches "insect".
func DetectIntent(message string) (Intent, float64) {
	words := strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, entry := range intentKeywords {
		for _, kw := range entry.keywords {
			for _, w := range words {
				if strings.HasPrefix(w, kw) {
					return entry.intent, entry.confidence
				}
			}
		}
	}
	return IntentGeneral, 0.5
}

// AssistResponse builds a canned reply for a user message. Greetings get
// quick-reply shortcuts; other intents draw from their reply pool.
func AssistResponse(message string) AssistReply {
	intent, confidence := DetectIntent(message)

	reply := AssistReply{Intent: intent, Confidence: confidence}

	switch {
	case intent == IntentGreeting:
		reply.Text = pick(greetingReplies)
		reply.QuickReplies = greetingQuickReplies
	default:
		if pool, ok := intentReplies[intent]; ok {
			reply.Text = pick(pool)
		} else {
			reply.Text = pick(defaultReplies)
		}
	}

	return reply
}

func pick(pool []string) string {
	return pool[rand.Intn(len(pool))]
}
