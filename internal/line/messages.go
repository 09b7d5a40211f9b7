package line

// ReplyMessage is an outbound message accepted by the reply endpoint.
// Concrete message structs marshal to the platform wire shape directly.
type ReplyMessage interface {
	replyMessage()
}

// TextMessage is a plain text reply, optionally with quick-reply buttons.
type TextMessage struct {
	Type       string      `json:"type"`
	Text       string      `json:"text"`
	QuickReply *QuickReply `json:"quickReply,omitempty"`
}

func (TextMessage) replyMessage() {}

// QuickReply holds the button row attached to a message.
type QuickReply struct {
	Items []QuickReplyItem `json:"items"`
}

// QuickReplyItem is one button in a quick-reply row.
type QuickReplyItem struct {
	Type   string `json:"type"`
	Action Action `json:"action"`
}

// Action is the platform action triggered by a button press.
type Action struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	Data  string `json:"data,omitempty"` // postback actions
	Text  string `json:"text,omitempty"` // message actions
}

// NewText builds a plain text message.
func NewText(text string) TextMessage {
	return TextMessage{Type: "text", Text: text}
}

// NewTextWithPostbacks builds a text message with postback quick-reply
// buttons. Each button label maps to an already-encoded postback data token.
func NewTextWithPostbacks(text string, buttons map[string]string, order []string) TextMessage {
	items := make([]QuickReplyItem, 0, len(order))
	for _, label := range order {
		data, ok := buttons[label]
		if !ok {
			continue
		}
		items = append(items, QuickReplyItem{
			Type: "action",
			Action: Action{
				Type:  "postback",
				Label: label,
				Data:  data,
			},
		})
	}

	msg := NewText(text)
	if len(items) > 0 {
		msg.QuickReply = &QuickReply{Items: items}
	}
	return msg
}

// NewTextWithLocationRequest builds a text prompt with a location-share
// quick-reply button.
func NewTextWithLocationRequest(text, label string) TextMessage {
	msg := NewText(text)
	msg.QuickReply = &QuickReply{Items: []QuickReplyItem{{
		Type:   "action",
		Action: Action{Type: "location", Label: label},
	}}}
	return msg
}
