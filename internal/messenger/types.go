// Package messenger implements the platform wire formats: the webhook
// envelope and its messaging events, event classification, signature
// verification and the Send API client.
package messenger

import (
	"encoding/json"
	"time"
)

// Principal identifies one side of a conversation (a user or the page)
type Principal struct {
	ID string `json:"id"`
}

// Message is the message sub-payload of an event. It covers inbound user
// messages as well as echoes of the bot's own outbound messages.
type Message struct {
	MID         string       `json:"mid,omitempty"`
	Seq         uint64       `json:"seq,omitempty"`
	Text        string       `json:"text,omitempty"`
	IsEcho      bool         `json:"is_echo,omitempty"`
	AppID       int64        `json:"app_id,omitempty"`
	QuickReply  *QuickReply  `json:"quick_reply,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// QuickReply marks a tapped quick-reply option
type QuickReply struct {
	Payload string `json:"payload"`
}

// Attachment is one media or template attachment on a message
type Attachment struct {
	Type    string            `json:"type"`
	Payload AttachmentPayload `json:"payload"`
}

// AttachmentPayload carries the attachment body; URL for media types
type AttachmentPayload struct {
	URL string `json:"url,omitempty"`
}

// Postback is a structured button-tap event with a fixed payload string
type Postback struct {
	Payload string `json:"payload"`
}

// Delivery is a delivery receipt. Watermark means every outbound message up
// to that time has been delivered.
type Delivery struct {
	MIDs      []string `json:"mids,omitempty"`
	Watermark int64    `json:"watermark"`
	Seq       uint64   `json:"seq,omitempty"`
}

// Read is a read receipt with the same watermark semantics as Delivery
type Read struct {
	Watermark int64  `json:"watermark"`
	Seq       uint64 `json:"seq,omitempty"`
}

// Event is one messaging event from a webhook delivery. Exactly one of the
// sub-payload fields is populated for well-formed platform events.
type Event struct {
	Sender    Principal `json:"sender"`
	Recipient Principal `json:"recipient"`
	// Timestamp is epoch milliseconds as sent by the platform
	Timestamp int64 `json:"timestamp"`

	Message  *Message  `json:"message,omitempty"`
	Postback *Postback `json:"postback,omitempty"`
	Delivery *Delivery `json:"delivery,omitempty"`
	Read     *Read     `json:"read,omitempty"`

	raw rawSubPayloads
}

// rawSubPayloads keeps the undecoded sub-payload bytes so the audit log can
// preserve fields our structs do not model.
type rawSubPayloads struct {
	Message  json.RawMessage `json:"message,omitempty"`
	Postback json.RawMessage `json:"postback,omitempty"`
}

// UnmarshalJSON decodes the event and captures the raw message/postback
// bytes for the audit payload.
func (e *Event) UnmarshalJSON(data []byte) error {
	type plain Event
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*e = Event(p)
	// A structurally valid event always parses above; the raw capture can
	// only fail on the same input, so its error is ignored.
	_ = json.Unmarshal(data, &e.raw)
	return nil
}

// Time converts the platform millisecond timestamp to UTC
func (e *Event) Time() time.Time {
	return time.UnixMilli(e.Timestamp).UTC()
}

// WatermarkTime returns the receipt watermark as UTC time, or zero when the
// event carries no receipt.
func (e *Event) WatermarkTime() time.Time {
	switch {
	case e.Delivery != nil:
		return time.UnixMilli(e.Delivery.Watermark).UTC()
	case e.Read != nil:
		return time.UnixMilli(e.Read.Watermark).UTC()
	}
	return time.Time{}
}

// AuditPayload returns the original sub-payload wrapped in its field name,
// e.g. {"message":{...}}. Events built in code rather than decoded fall back
// to re-marshaling the typed structs.
func (e *Event) AuditPayload() string {
	switch {
	case e.raw.Message != nil:
		return `{"message":` + string(e.raw.Message) + `}`
	case e.raw.Postback != nil:
		return `{"postback":` + string(e.raw.Postback) + `}`
	case e.Message != nil:
		b, _ := json.Marshal(map[string]*Message{"message": e.Message})
		return string(b)
	case e.Postback != nil:
		b, _ := json.Marshal(map[string]*Postback{"postback": e.Postback})
		return string(b)
	}
	return ""
}
