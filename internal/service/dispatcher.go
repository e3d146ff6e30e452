package service

import (
	"context"
	"errors"

	"messenger-bot-demo/backend/internal/messenger"
	"messenger-bot-demo/backend/internal/models"
	"messenger-bot-demo/backend/pkg/logger"
	"messenger-bot-demo/backend/pkg/metrics"
)

// ErrNotSupported signals that a handler intentionally does not handle its
// event kind. The dispatcher treats it exactly like "no reply".
var ErrNotSupported = errors.New("event kind not supported")

// Sender issues outbound messages and presence actions to one recipient
type Sender interface {
	SendMessage(ctx context.Context, recipientID string, msg messenger.OutgoingMessage) error
	SendAction(ctx context.Context, recipientID string, action messenger.SenderAction) error
}

// Handler produces the replies for one event. The user is the sender's
// directory row when one was found or created, else nil. Returning an empty
// slice or nil means no reply.
type Handler func(ctx context.Context, ev *messenger.Event, user *models.BotUser) ([]messenger.OutgoingMessage, error)

// Handlers maps each event kind to its handler. Missing entries are no-ops,
// including Unclassified: a fallback reply for unrecognized events is the
// composing caller's choice, not the engine's.
type Handlers map[messenger.EventKind]Handler

// Options controls the side effects of one dispatch
type Options struct {
	// CreateUser creates a directory row for unseen senders of
	// user-initiated events
	CreateUser bool
	// LogEvent records the event in the message log
	LogEvent bool
}

// Dispatcher drives one event through the pipeline: classify, presence on,
// handle, presence off, send replies, log. Every failure past decoding is
// isolated to its event and step; nothing propagates to sibling events or to
// the webhook response.
type Dispatcher struct {
	directory  *Directory
	sender     Sender
	messageLog *MessageLog
	handlers   Handlers
	log        *logger.Logger
}

func NewDispatcher(directory *Directory, sender Sender, messageLog *MessageLog, handlers Handlers, log *logger.Logger) *Dispatcher {
	if handlers == nil {
		handlers = Handlers{}
	}
	return &Dispatcher{
		directory:  directory,
		sender:     sender,
		messageLog: messageLog,
		handlers:   handlers,
		log:        log,
	}
}

// DispatchBatch processes a delivery's events strictly in decoded order.
// Receipt watermarks assume the rows of earlier messages already exist.
func (d *Dispatcher) DispatchBatch(ctx context.Context, events []messenger.Event, opts Options) {
	for i := range events {
		d.Dispatch(ctx, &events[i], opts)
	}
}

// Dispatch runs the pipeline for one event
func (d *Dispatcher) Dispatch(ctx context.Context, ev *messenger.Event, opts Options) {
	kind := ev.Kind()
	metrics.EventsProcessed.WithLabelValues(string(kind)).Inc()

	log := d.log.WithSenderID(ev.Sender.ID)

	user := d.resolveUser(ctx, ev, kind, opts, log)

	// Presence fires only for events a chatting user produced; receipts and
	// echoes come from the platform or the bot itself.
	if kind.UserInitiated() {
		d.presence(ctx, ev.Sender.ID, messenger.ActionMarkSeen, log)
		d.presence(ctx, ev.Sender.ID, messenger.ActionTypingOn, log)
	}

	replies := d.handle(ctx, ev, kind, user, log)

	if kind.UserInitiated() {
		d.presence(ctx, ev.Sender.ID, messenger.ActionTypingOff, log)
	}

	d.sendReplies(ctx, ev.Sender.ID, replies, log)

	if opts.LogEvent {
		if err := d.messageLog.Log(ev); err != nil {
			// The event is already handled and replied to; logging is
			// best-effort telemetry.
			log.Warn("failed to log event", "kind", string(kind), "error", err.Error())
		}
	}
}

func (d *Dispatcher) resolveUser(ctx context.Context, ev *messenger.Event, kind messenger.EventKind, opts Options, log *logger.Logger) *models.BotUser {
	if !kind.UserInitiated() {
		return nil
	}

	var user *models.BotUser
	var err error
	if opts.CreateUser {
		user, err = d.directory.GetOrCreate(ctx, ev.Sender.ID)
	} else {
		user, err = d.directory.Get(ev.Sender.ID)
	}
	if err != nil {
		log.Warn("user directory lookup failed", "error", err.Error())
		return nil
	}
	return user
}

func (d *Dispatcher) handle(ctx context.Context, ev *messenger.Event, kind messenger.EventKind, user *models.BotUser, log *logger.Logger) []messenger.OutgoingMessage {
	handler, ok := d.handlers[kind]
	if !ok {
		return nil
	}

	replies, err := handler(ctx, ev, user)
	if err != nil {
		if errors.Is(err, ErrNotSupported) {
			log.Debug("handler not implemented for kind", "kind", string(kind))
			return nil
		}
		log.Warn("handler failed", "kind", string(kind), "error", err.Error())
		return nil
	}
	return replies
}

// sendReplies sends every reply in order. A failed send is logged and the
// remaining replies are still attempted; one bad message must not block the
// rest of a multi-message reply.
func (d *Dispatcher) sendReplies(ctx context.Context, recipientID string, replies []messenger.OutgoingMessage, log *logger.Logger) {
	for i, reply := range replies {
		if err := d.sender.SendMessage(ctx, recipientID, reply); err != nil {
			metrics.OutboundSends.WithLabelValues("error").Inc()
			log.Warn("failed to send reply",
				"reply_index", i,
				"reply_count", len(replies),
				"error", err.Error(),
			)
			continue
		}
		metrics.OutboundSends.WithLabelValues("ok").Inc()
	}
}

func (d *Dispatcher) presence(ctx context.Context, recipientID string, action messenger.SenderAction, log *logger.Logger) {
	if err := d.sender.SendAction(ctx, recipientID, action); err != nil {
		log.Warn("failed to send presence action",
			"action", string(action),
			"error", err.Error(),
		)
	}
}
