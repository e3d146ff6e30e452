package messenger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindPrecedence(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		want EventKind
	}{
		{
			name: "delivery",
			ev:   Event{Delivery: &Delivery{Watermark: 100}},
			want: KindDelivery,
		},
		{
			name: "read",
			ev:   Event{Read: &Read{Watermark: 100}},
			want: KindRead,
		},
		{
			name: "postback",
			ev:   Event{Postback: &Postback{Payload: "get_started"}},
			want: KindPostback,
		},
		{
			name: "echo",
			ev:   Event{Message: &Message{MID: "m1", Text: "hi", IsEcho: true}},
			want: KindEcho,
		},
		{
			name: "quick reply",
			ev:   Event{Message: &Message{MID: "m1", Text: "yes", QuickReply: &QuickReply{Payload: "qr"}}},
			want: KindQuickReply,
		},
		{
			name: "text",
			ev:   Event{Message: &Message{MID: "m1", Text: "hi"}},
			want: KindText,
		},
		{
			name: "attachments",
			ev:   Event{Message: &Message{MID: "m1", Attachments: []Attachment{{Type: "image"}}}},
			want: KindAttachment,
		},
		{
			name: "empty message",
			ev:   Event{Message: &Message{MID: "m1"}},
			want: KindUnclassified,
		},
		{
			name: "nothing",
			ev:   Event{},
			want: KindUnclassified,
		},
		{
			// Malformed per platform schema, still exactly one kind:
			// postback outranks message.
			name: "postback and message both present",
			ev: Event{
				Postback: &Postback{Payload: "p"},
				Message:  &Message{MID: "m1", Text: "hi"},
			},
			want: KindPostback,
		},
		{
			name: "delivery outranks postback",
			ev: Event{
				Delivery: &Delivery{Watermark: 1},
				Postback: &Postback{Payload: "p"},
			},
			want: KindDelivery,
		},
		{
			name: "echo outranks quick reply and text",
			ev: Event{
				Message: &Message{MID: "m1", Text: "hi", IsEcho: true, QuickReply: &QuickReply{Payload: "qr"}},
			},
			want: KindEcho,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ev.Kind())
		})
	}
}

func TestUserInitiated(t *testing.T) {
	assert.True(t, KindText.UserInitiated())
	assert.True(t, KindQuickReply.UserInitiated())
	assert.True(t, KindAttachment.UserInitiated())
	assert.True(t, KindPostback.UserInitiated())

	assert.False(t, KindEcho.UserInitiated())
	assert.False(t, KindDelivery.UserInitiated())
	assert.False(t, KindRead.UserInitiated())
	assert.False(t, KindUnclassified.UserInitiated())
}
