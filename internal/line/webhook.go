// Package line wraps the LINE Messaging API surface the intake pipeline
// touches: webhook payload parsing, signature verification, reply delivery
// and message content download.
package line

import "encoding/json"

// Inbound event types delivered by the platform webhook.
const (
	EventTypeMessage  = "message"
	EventTypePostback = "postback"
	EventTypeFollow   = "follow"
)

// Inbound message types within a message event.
const (
	MessageTypeText     = "text"
	MessageTypeImage    = "image"
	MessageTypeLocation = "location"
)

// WebhookRequest is the platform-defined event batch posted to the webhook.
type WebhookRequest struct {
	Destination string  `json:"destination"`
	Events      []Event `json:"events"`
}

// Event is a single inbound webhook event.
type Event struct {
	Type       string    `json:"type"`
	ReplyToken string    `json:"replyToken"`
	Timestamp  int64     `json:"timestamp"` // milliseconds since epoch
	Source     Source    `json:"source"`
	Message    *Message  `json:"message,omitempty"`
	Postback   *Postback `json:"postback,omitempty"`
}

// Source identifies the message sender.
type Source struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

// Message is the message body of a message event. Only the fields used by
// the pipeline are mapped; lat/lng are populated for location shares.
type Message struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	Text      string  `json:"text,omitempty"`
	Title     string  `json:"title,omitempty"`
	Address   string  `json:"address,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// Postback carries the opaque data string of a pressed button.
type Postback struct {
	Data string `json:"data"`
}

// ParseWebhookRequest decodes a raw webhook body. Parsing happens only
// after signature verification has accepted the same bytes.
func ParseWebhookRequest(body []byte) (*WebhookRequest, error) {
	var req WebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, err
	}
	return &req, nil
}
