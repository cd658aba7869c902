package models

import "time"

// Activity is an append-only log entry describing a mutation performed within
// a project. Rows are never updated; the purge worker is the only deleter.
type Activity struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	ProjectID uint      `gorm:"not null;index" json:"projectId"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	Action    string    `gorm:"not null" json:"action"`
	Target    string    `gorm:"not null" json:"target"`
	Timestamp time.Time `gorm:"index" json:"timestamp"`
	CreatedAt time.Time `json:"createdAt"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"-"`
}
