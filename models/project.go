package models

import (
	"time"

	"gorm.io/gorm"
)

// Project groups tasks and activities under a single owner. The owner is
// always present in the members join table; membership mutations must never
// remove it. Deletion is soft at request time, the purge worker hard-deletes
// the project and its dependents later.
type Project struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	Name        string         `gorm:"not null" json:"name"`
	Description string         `json:"description"`
	OwnerID     uint           `gorm:"not null;index" json:"ownerId"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Owner   User   `gorm:"foreignKey:OwnerID" json:"owner"`
	Members []User `gorm:"many2many:project_members;" json:"members,omitempty"`
}
