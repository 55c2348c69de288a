// Package enrich prefixes outgoing chat text with topic hints taken from the
// recent conversation and with the caller's stated preferences.
package enrich

import (
	"strings"
)

// HistoryWindow is how many trailing turns are scanned for topics.
const HistoryWindow = 3

// Turn is one line of the caller's conversation log.
type Turn struct {
	Text     string         `json:"text"`
	Sender   string         `json:"sender"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Preferences are optional facts the user has told the UI about themselves.
type Preferences struct {
	Industry string `json:"industry,omitempty"`
	Budget   string `json:"budget,omitempty"`
	Timeline string `json:"timeline,omitempty"`
	Service  string `json:"service,omitempty"`
}

type topic struct {
	keyword  string
	triggers []string
}

var vocabulary = []topic{
	{"automation", []string{"automation"}},
	{"web_development", []string{"web"}},
	{"graphic_design", []string{"design"}},
	{"whatsapp_integration", []string{"whatsapp"}},
	{"pricing", []string{"price", "pricing", "cost"}},
	{"contact", []string{"contact"}},
	{"quote_request", []string{"quote"}},
}

// Keywords returns the topics mentioned in the last HistoryWindow turns,
// deduplicated in first-seen order.
func Keywords(history []Turn) []string {
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}
	var out []string
	seen := make(map[string]bool)
	for _, turn := range history {
		lowered := strings.ToLower(turn.Text)
		for _, t := range vocabulary {
			if seen[t.keyword] || !containsAny(lowered, t.triggers) {
				continue
			}
			seen[t.keyword] = true
			out = append(out, t.keyword)
		}
	}
	return out
}

// PreferenceTokens renders the non-empty preferences as key:value tokens.
func PreferenceTokens(p Preferences) []string {
	var out []string
	for _, kv := range [...][2]string{
		{"industry", p.Industry},
		{"budget", p.Budget},
		{"timeline", p.Timeline},
		{"service", p.Service},
	} {
		if strings.TrimSpace(kv[1]) == "" {
			continue
		}
		out = append(out, kv[0]+":"+kv[1])
	}
	return out
}

// Message builds the text sent upstream: preference tokens first, then topic
// keywords, then the original text. Missing parts are left out.
func Message(text string, history []Turn, prefs *Preferences) string {
	enhanced := text
	if keywords := Keywords(history); len(keywords) > 0 {
		enhanced = strings.Join(keywords, " ") + " " + enhanced
	}
	if prefs != nil {
		if tokens := PreferenceTokens(*prefs); len(tokens) > 0 {
			enhanced = strings.Join(tokens, " ") + " " + enhanced
		}
	}
	return enhanced
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
