package repository

import (
	"messenger-bot-demo/backend/internal/models"

	"gorm.io/gorm"
)

type UserRepository interface {
	Create(user *models.BotUser) error
	GetByID(id string) (*models.BotUser, error)
	Update(user *models.BotUser) error
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create inserts a new user row. The primary key constraint rejects a second
// insert for the same id; callers treat that as "created elsewhere" and
// re-fetch.
func (r *GormUserRepository) Create(user *models.BotUser) error {
	return r.db.Create(user).Error
}

func (r *GormUserRepository) GetByID(id string) (*models.BotUser, error) {
	var user models.BotUser
	err := r.db.First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) Update(user *models.BotUser) error {
	return r.db.Save(user).Error
}
