package models

import (
	"time"
)

// BotMessage is one durable record per logical message exchange: an inbound
// message, an outbound echo or a postback tap. Delivery and read receipts
// never create rows; they update DeliveredAt/ReadAt on existing ones.
type BotMessage struct {
	// MID is the platform-assigned message id. Postbacks without one get a
	// synthetic deterministic key so the upsert stays idempotent.
	MID string `json:"mid" gorm:"column:mid;primaryKey;size:128"`
	// Seq is used only for tie-break ordering, never uniqueness
	Seq         uint64    `json:"seq" gorm:"index"`
	SenderID    string    `json:"sender_id" gorm:"size:64;index"`
	RecipientID string    `json:"recipient_id" gorm:"size:64;index"`
	Timestamp   time.Time `json:"timestamp" gorm:"index"`
	// Received is the direction flag: true for inbound, false for messages
	// the bot sent (echoes). Immutable after creation.
	// No column default here: gorm omits zero-valued fields that have one,
	// which would silently turn outbound rows into inbound ones.
	Received bool `json:"received" gorm:"not null;index"`
	// Payload preserves the original event sub-payload as a JSON blob for audit
	Payload     string     `json:"payload" gorm:"type:text"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty" gorm:"index"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Sent reports whether the bot sent this message
func (m *BotMessage) Sent() bool {
	return !m.Received
}

// Delivered reports whether a delivery receipt has named this message
func (m *BotMessage) Delivered() bool {
	return m.DeliveredAt != nil
}

// Read reports whether a read receipt has named this message
func (m *BotMessage) Read() bool {
	return m.ReadAt != nil
}
