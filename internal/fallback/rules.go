package fallback

import (
	"strings"

	"github.com/ent0n29/convo/internal/nlu"
)

const (
	IntentGreet            = "greet"
	IntentAskServices      = "ask_services"
	IntentAskPricing       = "ask_pricing"
	IntentAskContact       = "ask_contact"
	IntentBookConsultation = "book_consultation"
	IntentOutOfScope       = "out_of_scope"
)

// Rule maps trigger phrases to an intent and its canned reply.
type Rule struct {
	Intent     string
	Confidence float64
	Triggers   []string
	Reply      string
	Buttons    []nlu.Button
}

// Matches reports whether any trigger occurs in lowered, which must already be lower case.
func (r Rule) Matches(lowered string) bool {
	for _, t := range r.Triggers {
		if strings.Contains(lowered, t) {
			return true
		}
	}
	return false
}

// Rules is evaluated top to bottom; the first match wins.
var Rules = []Rule{
	{
		Intent:     IntentGreet,
		Confidence: 0.8,
		Triggers:   []string{"hello", "hi", "hey"},
		Reply:      "Hello! I'm AdBert, your AI assistant from Maninfini Automation. I can help you with information about our services, pricing, and more. How can I assist you today?",
		Buttons: []nlu.Button{
			{Title: "Our Services", Payload: "services"},
			{Title: "Get Pricing", Payload: "pricing"},
			{Title: "Chat on WhatsApp", Payload: "whatsapp_general"},
		},
	},
	{
		Intent:     IntentAskServices,
		Confidence: 0.9,
		Triggers:   []string{"service", "what do you do"},
		Reply: "At Maninfini Automation, we offer comprehensive digital solutions including:\n\n" +
			"🤖 Process Automation (RPA, AI-powered workflows)\n" +
			"🌐 Web Development (Custom websites, e-commerce)\n" +
			"🎨 Graphic Design (Brand identity, marketing materials)\n" +
			"📱 WhatsApp Integration (Business API, chatbots)\n" +
			"💼 Virtual Office Solutions\n\n" +
			"Which service interests you most?",
		Buttons: []nlu.Button{
			{Title: "Automation Details", Payload: "automation_details"},
			{Title: "Web Development", Payload: "web_services"},
			{Title: "Get Quote", Payload: "whatsapp_quote"},
		},
	},
	{
		Intent:     IntentAskPricing,
		Confidence: 0.9,
		Triggers:   []string{"price", "cost", "how much"},
		Reply:      "Our pricing is tailored to your specific needs and project requirements. We offer flexible pricing models including project-based, retainer, and hourly rates. To provide you with an accurate quote, I'd recommend scheduling a consultation to discuss your requirements. Would you like to book a consultation?",
		Buttons: []nlu.Button{
			{Title: "Get Quote on WhatsApp", Payload: "whatsapp_pricing"},
			{Title: "Schedule Consultation", Payload: "call_pricing"},
			{Title: "Email Quote Request", Payload: "email_pricing"},
		},
	},
	{
		Intent:     IntentAskContact,
		Confidence: 0.8,
		Triggers:   []string{"contact", "reach", "get in touch"},
		Reply: "You can reach us through multiple channels:\n\n" +
			"📧 Email: info@maninfini.com\n" +
			"📞 Phone: +91-XXXXXXXXXX\n" +
			"💬 WhatsApp: +91-XXXXXXXXXX\n" +
			"🌐 Website: www.maninfini.com\n\n" +
			"We typically respond within 2-4 hours during business days.",
	},
	{
		Intent:     IntentBookConsultation,
		Confidence: 0.9,
		Triggers:   []string{"consultation", "book", "meeting"},
		Reply:      "Great! I'd be happy to help you schedule a consultation. Our team will understand your business needs, analyze your current processes, and propose customized solutions. Please provide your preferred contact method and best time for a call.",
	},
}

// Default applies when no rule matches.
var Default = Rule{
	Intent:     IntentOutOfScope,
	Confidence: 0.3,
	Reply:      "I apologize, but I'm having trouble processing your request right now. However, I can help you with information about our services, pricing, or help you schedule a consultation. What would you like to know about Maninfini Automation?",
	Buttons: []nlu.Button{
		{Title: "Chat on WhatsApp", Payload: "whatsapp_general"},
		{Title: "Schedule Call", Payload: "call_general"},
		{Title: "Explore Services", Payload: "services"},
	},
}

// Match returns the first rule triggered by text, or Default.
func Match(text string) Rule {
	lowered := strings.ToLower(text)
	for _, r := range Rules {
		if r.Matches(lowered) {
			return r
		}
	}
	return Default
}
