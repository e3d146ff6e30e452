package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messenger-bot-demo/backend/internal/messenger"
	"messenger-bot-demo/backend/internal/models"
)

func messageEvent(msg *messenger.Message) *messenger.Event {
	return &messenger.Event{
		Sender:    messenger.Principal{ID: "U1"},
		Recipient: messenger.Principal{ID: "PAGE"},
		Message:   msg,
	}
}

func TestHandleTextPersonalizesKnownUsers(t *testing.T) {
	ev := messageEvent(&messenger.Message{MID: "m1", Text: "hi there"})
	user := &models.BotUser{ID: "U1", FirstName: "Ada", LastName: "Lovelace"}

	replies, err := handleText(context.Background(), ev, user)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Ada")
	assert.Contains(t, replies[0].Text, "hi there")
}

func TestHandleTextFallsBackForBlankProfiles(t *testing.T) {
	ev := messageEvent(&messenger.Message{MID: "m1", Text: "hi there"})

	replies, err := handleText(context.Background(), ev, &models.BotUser{ID: "U1"})
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Thanks for the following message!")

	replies, err = handleText(context.Background(), ev, nil)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "hi there")
}

func TestHandlePostbackGreetsOnGetStarted(t *testing.T) {
	ev := &messenger.Event{
		Sender:   messenger.Principal{ID: "U1"},
		Postback: &messenger.Postback{Payload: GetStartedPayload},
	}

	replies, err := handlePostback(context.Background(), ev, nil)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, "Welcome to our bot!", replies[0].Text)
}

func TestHandlePostbackShrugsOnUnknownPayload(t *testing.T) {
	ev := &messenger.Event{
		Sender:   messenger.Principal{ID: "U1"},
		Postback: &messenger.Postback{Payload: "something_else"},
	}

	replies, err := handlePostback(context.Background(), ev, nil)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Couldn't handle postback")
}

func TestHandleAttachmentsAcknowledges(t *testing.T) {
	ev := messageEvent(&messenger.Message{
		MID: "m1",
		Attachments: []messenger.Attachment{
			{Type: "image", Payload: messenger.AttachmentPayload{URL: "https://example.com/pic.jpg"}},
		},
	})

	replies, err := handleAttachments(context.Background(), ev, nil)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "attachment")
}

func TestDefaultHandlersCoverReplyKinds(t *testing.T) {
	handlers := DefaultHandlers()

	for _, kind := range []messenger.EventKind{
		messenger.KindText,
		messenger.KindQuickReply,
		messenger.KindAttachment,
		messenger.KindPostback,
		messenger.KindUnclassified,
	} {
		assert.Contains(t, handlers, kind)
	}

	// Echoes and receipts are recorded, never replied to
	assert.NotContains(t, handlers, messenger.KindEcho)
	assert.NotContains(t, handlers, messenger.KindDelivery)
	assert.NotContains(t, handlers, messenger.KindRead)
}
