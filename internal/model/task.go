package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Task struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	DealID      *uuid.UUID   `gorm:"type:uuid;index" json:"deal_id,omitempty"`
	Title       string       `gorm:"not null" json:"title"`
	Description string       `json:"description"`
	Priority    TaskPriority `gorm:"type:varchar(16);not null" json:"priority"`
	Assignee    string       `json:"assignee"`
	DueAt       *time.Time   `json:"due_at,omitempty"`
	IsCompleted bool         `gorm:"not null;default:false" json:"is_completed"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (t *Task) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Overdue reports whether an open task is past its due time.
func (t Task) Overdue(now time.Time) bool {
	return !t.IsCompleted && t.DueAt != nil && t.DueAt.Before(now)
}

type CalendarEvent struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	DealID    *uuid.UUID `gorm:"type:uuid;index" json:"deal_id,omitempty"`
	Title     string     `gorm:"not null" json:"title"`
	Type      EventType  `gorm:"type:varchar(16);not null" json:"type"`
	StartsAt  time.Time  `gorm:"not null;index" json:"starts_at"`
	EndsAt    *time.Time `json:"ends_at,omitempty"`
	Location  string     `json:"location"`
	Notes     string     `json:"notes"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (e *CalendarEvent) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
