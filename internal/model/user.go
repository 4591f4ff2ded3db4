package model

import (
	"time"
)

// swagger:model User
type User struct {
	BaseModel
	TelegramID   int64     `gorm:"uniqueIndex;not null" json:"telegramId"`
	Username     string    `gorm:"size:100" json:"username"`
	FirstName    string    `gorm:"size:100" json:"firstName"`
	LastName     string    `gorm:"size:100" json:"lastName"`
	LanguageCode string    `gorm:"size:10;default:'en'" json:"languageCode"`
	IsAdmin      bool      `gorm:"default:false" json:"isAdmin"`
	Disabled     bool      `gorm:"default:false" json:"disabled"`
	LastSeen     time.Time `gorm:"default:CURRENT_TIMESTAMP(3)" json:"lastSeen"`
}

func (User) TableName() string {
	return "users"
}
