package repository

import (
	"time"

	"messenger-bot-demo/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MessageRepository interface {
	GetByMID(mid string) (*models.BotMessage, error)
	Upsert(msg *models.BotMessage) error
	ApplyDeliveryWatermark(recipientID string, watermark time.Time) (int64, error)
	ApplyReadWatermark(recipientID string, watermark time.Time) (int64, error)
	RecentBySender(senderID string, limit int) ([]models.BotMessage, error)
	CountAll() (int64, error)
	PruneOlderThan(cutoff time.Time) (int64, error)
}

type GormMessageRepository struct {
	db *gorm.DB
}

func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

func (r *GormMessageRepository) GetByMID(mid string) (*models.BotMessage, error) {
	var msg models.BotMessage
	err := r.db.First(&msg, "mid = ?", mid).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// Upsert writes one row keyed by mid. Re-delivered webhooks update the
// mutable columns in place; the direction flag and the watermark columns are
// left untouched so a replay cannot flip direction or erase receipts.
func (r *GormMessageRepository) Upsert(msg *models.BotMessage) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "mid"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"seq", "timestamp", "payload", "updated_at",
		}),
	}).Create(msg).Error
}

// ApplyDeliveryWatermark stamps delivered_at on every outbound message to the
// given recipient with timestamp at or before the watermark and no delivery
// time yet. Returns the number of rows updated.
func (r *GormMessageRepository) ApplyDeliveryWatermark(recipientID string, watermark time.Time) (int64, error) {
	res := r.db.Model(&models.BotMessage{}).
		Where("recipient_id = ? AND received = ? AND delivered_at IS NULL AND timestamp <= ?",
			recipientID, false, watermark).
		Update("delivered_at", watermark)
	return res.RowsAffected, res.Error
}

// ApplyReadWatermark stamps read_at like ApplyDeliveryWatermark, restricted
// to rows already marked delivered. read_at set implies delivered_at set.
func (r *GormMessageRepository) ApplyReadWatermark(recipientID string, watermark time.Time) (int64, error) {
	res := r.db.Model(&models.BotMessage{}).
		Where("recipient_id = ? AND received = ? AND delivered_at IS NOT NULL AND read_at IS NULL AND timestamp <= ?",
			recipientID, false, watermark).
		Update("read_at", watermark)
	return res.RowsAffected, res.Error
}

// RecentBySender lists a sender's log entries, most recent sequence first
func (r *GormMessageRepository) RecentBySender(senderID string, limit int) ([]models.BotMessage, error) {
	var messages []models.BotMessage
	err := r.db.Where("sender_id = ?", senderID).
		Order("seq DESC").
		Order("timestamp DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

func (r *GormMessageRepository) CountAll() (int64, error) {
	var count int64
	err := r.db.Model(&models.BotMessage{}).Count(&count).Error
	return count, err
}

// PruneOlderThan deletes log entries older than the cutoff. Retention policy
// lives with the operator; nothing in the pipeline calls this.
func (r *GormMessageRepository) PruneOlderThan(cutoff time.Time) (int64, error) {
	res := r.db.Where("timestamp < ?", cutoff).Delete(&models.BotMessage{})
	return res.RowsAffected, res.Error
}
