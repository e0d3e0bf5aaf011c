package models

import "time"

type Conversation struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time `gorm:"index"`

	// Relationships
	Messages []Message `gorm:"foreignKey:ConversationID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
