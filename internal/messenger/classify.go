package messenger

// EventKind is the classified kind of a messaging event
type EventKind string

const (
	KindText         EventKind = "text"
	KindQuickReply   EventKind = "quick_reply"
	KindAttachment   EventKind = "attachment"
	KindEcho         EventKind = "echo"
	KindPostback     EventKind = "postback"
	KindDelivery     EventKind = "delivery"
	KindRead         EventKind = "read"
	KindUnclassified EventKind = "unclassified"
)

// Kind classifies the event into exactly one kind. The platform schema makes
// the sub-payloads mutually exclusive; for malformed events carrying several,
// the first match below wins.
func (e *Event) Kind() EventKind {
	switch {
	case e.Delivery != nil:
		return KindDelivery
	case e.Read != nil:
		return KindRead
	case e.Postback != nil:
		return KindPostback
	case e.Message != nil:
		m := e.Message
		switch {
		case m.IsEcho:
			return KindEcho
		case m.QuickReply != nil:
			return KindQuickReply
		case m.Text != "":
			return KindText
		case len(m.Attachments) > 0:
			return KindAttachment
		}
	}
	return KindUnclassified
}

// UserInitiated reports whether a chatting user directly produced events of
// this kind. Presence indicators only make sense for these; echoes and
// receipts originate from the bot or the platform.
func (k EventKind) UserInitiated() bool {
	switch k {
	case KindText, KindQuickReply, KindAttachment, KindPostback:
		return true
	}
	return false
}
