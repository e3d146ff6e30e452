// Package bot is the application layer on top of the dispatch engine: the
// concrete per-kind reply handlers and the per-delivery entry point.
package bot

import (
	"context"
	"fmt"
	"strings"

	"messenger-bot-demo/backend/internal/messenger"
	"messenger-bot-demo/backend/internal/models"
	"messenger-bot-demo/backend/internal/service"
	"messenger-bot-demo/backend/pkg/logger"
)

// GetStartedPayload is the postback payload of the platform "Get Started"
// button.
const GetStartedPayload = "get_started"

// Bot composes the dispatch engine with this application's handlers
type Bot struct {
	dispatcher *service.Dispatcher
	log        *logger.Logger
}

func New(directory *service.Directory, sender service.Sender, messageLog *service.MessageLog, log *logger.Logger) *Bot {
	dispatcher := service.NewDispatcher(directory, sender, messageLog, DefaultHandlers(), log)
	return &Bot{dispatcher: dispatcher, log: log}
}

// ProcessDelivery runs the pipeline over one webhook delivery's events, in
// order. Per-event failures are isolated inside the dispatcher; the webhook
// response never depends on them.
func (b *Bot) ProcessDelivery(ctx context.Context, events []messenger.Event) {
	b.dispatcher.DispatchBatch(ctx, events, service.Options{
		CreateUser: true,
		LogEvent:   true,
	})
}

// DefaultHandlers is this bot's dispatch table. Delivery, read and echo
// events are logged by the engine but produce no reply, so they carry no
// entry here. The Unclassified entry is the top-level fallback the engine
// itself never applies.
func DefaultHandlers() service.Handlers {
	return service.Handlers{
		messenger.KindText:         handleText,
		messenger.KindQuickReply:   handleQuickReply,
		messenger.KindAttachment:   handleAttachments,
		messenger.KindPostback:     handlePostback,
		messenger.KindUnclassified: handleUnclassified,
	}
}

func handleText(_ context.Context, ev *messenger.Event, user *models.BotUser) ([]messenger.OutgoingMessage, error) {
	text := strings.TrimSpace(ev.Message.Text)
	if user != nil && user.FullName() != "" {
		return []messenger.OutgoingMessage{
			messenger.TextMessage(fmt.Sprintf("Thanks for your message, %s!\n\n%s", user.FirstName, text)),
		}, nil
	}
	return []messenger.OutgoingMessage{
		messenger.TextMessage("Thanks for the following message!\n\n" + text),
	}, nil
}

func handleQuickReply(_ context.Context, ev *messenger.Event, _ *models.BotUser) ([]messenger.OutgoingMessage, error) {
	return []messenger.OutgoingMessage{
		messenger.TextMessage("Thanks for the quick reply!"),
	}, nil
}

func handleAttachments(_ context.Context, ev *messenger.Event, _ *models.BotUser) ([]messenger.OutgoingMessage, error) {
	for _, attachment := range ev.Message.Attachments {
		switch attachment.Type {
		case "image", "audio", "video", "file", "template", "fallback":
			// All attachment types get the same acknowledgement for now
		default:
			return nil, nil
		}
	}
	return []messenger.OutgoingMessage{
		messenger.TextMessage("Thanks for your attachment(s)!"),
	}, nil
}

func handlePostback(_ context.Context, ev *messenger.Event, _ *models.BotUser) ([]messenger.OutgoingMessage, error) {
	if strings.HasPrefix(ev.Postback.Payload, GetStartedPayload) {
		return []messenger.OutgoingMessage{
			messenger.TextMessage("Welcome to our bot!"),
		}, nil
	}
	return []messenger.OutgoingMessage{
		messenger.TextMessage("Couldn't handle postback. :("),
	}, nil
}

// handleUnclassified is the generic fallback for events the classifier could
// not place.
func handleUnclassified(_ context.Context, _ *messenger.Event, _ *models.BotUser) ([]messenger.OutgoingMessage, error) {
	return []messenger.OutgoingMessage{
		messenger.TextMessage("Sorry, I couldn't understand that."),
	}, nil
}
