package messaging

import (
	"encoding/json"
	"fmt"
	"time"
)

// Content formats recorded alongside the encoded content so the variant
// survives a round trip.
const (
	FormatStructured = "structured"
	FormatPayload    = "payload"
)

type wireMessage struct {
	ID            string         `json:"id"`
	From          string         `json:"from"`
	To            string         `json:"to,omitempty"`
	Kind          Kind           `json:"kind"`
	Priority      Priority       `json:"priority"`
	Subject       string         `json:"subject,omitempty"`
	ThreadID      string         `json:"thread_id,omitempty"`
	ReplyTo       string         `json:"reply_to,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
	ContentFormat string         `json:"content_format"`
	Content       map[string]any `json:"content"`
}

// ContentFormat reports how c is encoded on the wire.
func ContentFormat(c Content) string {
	if _, ok := c.(Structured); ok {
		return FormatStructured
	}
	return FormatPayload
}

// RestoreContent is the inverse of ContentFormat and Fields.
func RestoreContent(kind Kind, format string, fields map[string]any) (Content, error) {
	switch format {
	case FormatStructured:
		return DecodeContent(kind, fields)
	case FormatPayload, "":
		return Payload(fields), nil
	default:
		return nil, fmt.Errorf("unknown content format: %q", format)
	}
}

func (msg *Message) MarshalJSON() ([]byte, error) {
	fields, err := EncodeFields(msg.Content)
	if err != nil {
		return nil, err
	}

	return json.Marshal(wireMessage{
		ID:            msg.ID,
		From:          msg.From,
		To:            msg.To,
		Kind:          msg.Kind,
		Priority:      msg.Priority,
		Subject:       msg.Subject,
		ThreadID:      msg.ThreadID,
		ReplyTo:       msg.ReplyTo,
		Timestamp:     msg.Timestamp,
		ContentFormat: ContentFormat(msg.Content),
		Content:       fields,
	})
}

func (msg *Message) UnmarshalJSON(data []byte) error {
	var wire wireMessage
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	content, err := RestoreContent(wire.Kind, wire.ContentFormat, wire.Content)
	if err != nil {
		return err
	}

	*msg = Message{
		ID:        wire.ID,
		From:      wire.From,
		To:        wire.To,
		Kind:      wire.Kind,
		Priority:  wire.Priority,
		Content:   content,
		Subject:   wire.Subject,
		ThreadID:  wire.ThreadID,
		ReplyTo:   wire.ReplyTo,
		Timestamp: wire.Timestamp,
	}
	return nil
}
