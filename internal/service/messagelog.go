package service

import (
	"fmt"

	"messenger-bot-demo/backend/internal/messenger"
	"messenger-bot-demo/backend/internal/models"
	"messenger-bot-demo/backend/internal/repository"
	"messenger-bot-demo/backend/pkg/logger"
)

// MessageLog records one durable entry per logical message exchange and
// applies delivery/read receipt watermarks to earlier entries. Logging is
// best-effort telemetry; callers never fail an already-handled event over it.
type MessageLog struct {
	messages repository.MessageRepository
	log      *logger.Logger
}

func NewMessageLog(messages repository.MessageRepository, log *logger.Logger) *MessageLog {
	return &MessageLog{messages: messages, log: log}
}

// Log routes the event to the right recording strategy by kind
func (l *MessageLog) Log(ev *messenger.Event) error {
	switch ev.Kind() {
	case messenger.KindText, messenger.KindQuickReply, messenger.KindAttachment, messenger.KindEcho:
		return l.logMessage(ev)
	case messenger.KindPostback:
		return l.logPostback(ev)
	case messenger.KindDelivery:
		return l.logDelivery(ev)
	case messenger.KindRead:
		return l.logRead(ev)
	}
	return nil
}

// logMessage upserts one row keyed by the platform message id. An echo is
// the bot's own message reflected back, so its direction is outbound.
func (l *MessageLog) logMessage(ev *messenger.Event) error {
	msg := &models.BotMessage{
		MID:         ev.Message.MID,
		Seq:         ev.Message.Seq,
		SenderID:    ev.Sender.ID,
		RecipientID: ev.Recipient.ID,
		Timestamp:   ev.Time(),
		Received:    !ev.Message.IsEcho,
		Payload:     ev.AuditPayload(),
	}
	return l.messages.Upsert(msg)
}

// logPostback upserts like logMessage. Postbacks carry no platform message
// id, so the key is derived from sender and timestamp; replaying the same
// webhook hits the same row.
func (l *MessageLog) logPostback(ev *messenger.Event) error {
	msg := &models.BotMessage{
		MID:         fmt.Sprintf("pb:%s:%d", ev.Sender.ID, ev.Timestamp),
		SenderID:    ev.Sender.ID,
		RecipientID: ev.Recipient.ID,
		Timestamp:   ev.Time(),
		Received:    true,
		Payload:     ev.AuditPayload(),
	}
	return l.messages.Upsert(msg)
}

// logDelivery marks the bot's messages to this sender as delivered up to the
// watermark. The receipt's sender is the user confirming receipt, so the
// qualifying rows are outbound ones addressed to that user.
func (l *MessageLog) logDelivery(ev *messenger.Event) error {
	watermark := ev.WatermarkTime()
	updated, err := l.messages.ApplyDeliveryWatermark(ev.Sender.ID, watermark)
	if err != nil {
		return err
	}
	l.log.Debug("applied delivery watermark",
		"sender_id", ev.Sender.ID,
		"watermark", watermark,
		"rows", updated,
	)
	return nil
}

// logRead marks delivered messages as read up to the watermark. Rows without
// a delivery time are skipped; a later receipt self-heals them.
func (l *MessageLog) logRead(ev *messenger.Event) error {
	watermark := ev.WatermarkTime()
	updated, err := l.messages.ApplyReadWatermark(ev.Sender.ID, watermark)
	if err != nil {
		return err
	}
	l.log.Debug("applied read watermark",
		"sender_id", ev.Sender.ID,
		"watermark", watermark,
		"rows", updated,
	)
	return nil
}
