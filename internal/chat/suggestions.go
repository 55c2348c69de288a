package chat

var suggestions = map[string][]string{
	"ask_services": {
		"Tell me more about automation",
		"What about web development?",
		"I'm interested in graphic design",
		"How about WhatsApp integration?",
	},
	"ask_automation": {
		"What are the benefits?",
		"How much does it cost?",
		"Can you show me examples?",
		"I want to book a consultation",
	},
	"ask_pricing": {
		"I need a quote",
		"What's included?",
		"Are there different packages?",
		"Can you explain the pricing?",
	},
	"book_consultation": {
		"What's your contact information?",
		"How long does the consultation take?",
		"What should I prepare?",
		"What are your available times?",
	},
}

// SuggestedResponses returns follow-up prompts for intent. Unknown intents get
// an empty list. confidence is accepted for API symmetry and not consulted.
func SuggestedResponses(intent string, confidence float64) []string {
	list := suggestions[intent]
	out := make([]string, len(list))
	copy(out, list)
	return out
}

func (c *Client) SuggestedResponses(intent string, confidence float64) []string {
	return SuggestedResponses(intent, confidence)
}
