package models

import (
	"strings"
	"time"
)

// BotUser represents one distinct remote sender of the bot.
// The ID is the opaque platform-scoped id; profile fields are cached
// best-effort from the platform profile API and may all be blank.
type BotUser struct {
	ID         string    `json:"id" gorm:"primaryKey;size:64"`
	FirstName  string    `json:"first_name" gorm:"size:64"`
	LastName   string    `json:"last_name" gorm:"size:64"`
	ProfilePic string    `json:"profile_pic" gorm:"size:512"`
	Gender     string    `json:"gender" gorm:"size:16"`
	Locale     string    `json:"locale" gorm:"size:16"`
	Timezone   *float64  `json:"timezone,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// FullName joins the cached name parts
func (u *BotUser) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Serialize returns the user with only the profile fields that are set
func (u *BotUser) Serialize() map[string]any {
	data := map[string]any{"id": u.ID}

	if name := u.FullName(); name != "" {
		data["name"] = name
	}
	if u.ProfilePic != "" {
		data["profile_pic"] = u.ProfilePic
	}
	if u.Gender != "" {
		data["gender"] = u.Gender
	}
	if u.Locale != "" {
		data["locale"] = u.Locale
	}
	if u.Timezone != nil {
		data["timezone"] = *u.Timezone
	}

	return data
}
