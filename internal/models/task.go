package models

import "time"

type Task struct {
	ID          uint    `gorm:"primaryKey"`
	UserID      string  `gorm:"not null;index"`
	Title       string  `gorm:"not null"`
	Description *string `gorm:"size:1000"`
	Completed   bool    `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}
