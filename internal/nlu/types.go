package nlu

import "time"

// Button is a quick reply offered alongside a bot message.
type Button struct {
	Title   string `json:"title"`
	Payload string `json:"payload"`
}

// TemplateButton is a button nested inside a structured attachment element.
type TemplateButton struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Payload string `json:"payload"`
}

type TemplateElement struct {
	Title    string           `json:"title"`
	Subtitle string           `json:"subtitle"`
	ImageURL string           `json:"image_url,omitempty"`
	Buttons  []TemplateButton `json:"buttons,omitempty"`
}

type AttachmentPayload struct {
	TemplateType string            `json:"template_type"`
	Elements     []TemplateElement `json:"elements"`
}

// Attachment is a structured template (carousel, generic card, ...).
type Attachment struct {
	Type    string            `json:"type"`
	Payload AttachmentPayload `json:"payload"`
}

// Response is one bot message returned to the UI layer. Gateway replies and
// local fallback replies share this shape.
type Response struct {
	RecipientID string         `json:"recipient_id"`
	Text        string         `json:"text"`
	Buttons     []Button       `json:"buttons,omitempty"`
	Image       string         `json:"image,omitempty"`
	Attachment  *Attachment    `json:"attachment,omitempty"`
	Custom      map[string]any `json:"custom,omitempty"`
}

// Metadata rides along with every webhook message.
type Metadata struct {
	SessionID string `json:"session_id"`
	Timestamp string `json:"timestamp"`
}

// Message is the REST webhook payload.
type Message struct {
	Sender   string   `json:"sender"`
	Message  string   `json:"message"`
	Metadata Metadata `json:"metadata"`
}

// NewMessage stamps text with the session id and an ISO-8601 UTC timestamp.
func NewMessage(text, sender, sessionID string, now time.Time) Message {
	return Message{
		Sender:  sender,
		Message: text,
		Metadata: Metadata{
			SessionID: sessionID,
			Timestamp: now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		},
	}
}

// Intent is a coarse label for a user message with a confidence in [0,1].
type Intent struct {
	Name       string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// Entity is a span extracted by the parse endpoint.
type Entity struct {
	Entity     string  `json:"entity"`
	Value      any     `json:"value"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence_entity,omitempty"`
	Extractor  string  `json:"extractor,omitempty"`
}

type ParsedIntent struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// ParseResult is the body returned by /model/parse.
type ParseResult struct {
	Text     string        `json:"text"`
	Intent   *ParsedIntent `json:"intent"`
	Entities []Entity      `json:"entities"`
}

// TrainRequest names the files the backend should train from.
type TrainRequest struct {
	Domain        string   `json:"domain" yaml:"domain"`
	Config        string   `json:"config" yaml:"config"`
	TrainingFiles []string `json:"training_files" yaml:"training_files"`
}

func DefaultTrainRequest() TrainRequest {
	return TrainRequest{
		Domain:        "domain.yml",
		Config:        "config.yml",
		TrainingFiles: []string{"data/nlu.yml", "data/stories.yml"},
	}
}

type statusReport struct {
	ModelFile string `json:"model_file"`
}
