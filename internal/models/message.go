package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	ID             uint   `gorm:"primaryKey"`
	ConversationID uint   `gorm:"not null;index"`
	UserID         string `gorm:"not null;index"`
	Role           string `gorm:"not null"`
	Content        string `gorm:"not null"`
	ToolCalls      datatypes.JSON
	CreatedAt      time.Time `gorm:"index"`

	// Relationships
	Conversation Conversation `gorm:"foreignKey:ConversationID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}
