package models

import "time"

// Task statuses and priorities accepted by the API.
const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in-progress"
	TaskStatusDone       = "done"

	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
)

// Task belongs to exactly one project. The assignee, when set, must be a
// current member of that project.
type Task struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `json:"description"`
	Status      string     `gorm:"default:'todo';index" json:"status"`
	Priority    string     `gorm:"default:'medium';index" json:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	ProjectID   uint       `gorm:"not null;index" json:"projectId"`
	CreatedByID uint       `gorm:"not null;index" json:"createdById"`
	AssignedToID *uint     `gorm:"index" json:"assignedToId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	// Relations
	Project    Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	CreatedBy  User    `gorm:"foreignKey:CreatedByID" json:"createdBy,omitempty"`
	AssignedTo *User   `gorm:"foreignKey:AssignedToID" json:"assignedTo,omitempty"`
}
