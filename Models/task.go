package Models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Audit actions recorded on a task instance.
const (
	AuditActionCreated     = "created"
	AuditActionCompleted   = "completed"
	AuditActionUncompleted = "uncompleted"
	AuditActionCommented   = "commented"
)

// TaskInstance is one dated, site-scoped realization of a template.
// Title/description/service/order are copied from the template at
// generation time so historical days stay stable when the catalog
// changes later. The composite unique index guarantees at most one
// instance per (template, date, site).
type TaskInstance struct {
	gorm.Model
	TemplateID uint   `json:"template_id" gorm:"not null;uniqueIndex:idx_instance_identity"`
	SiteID     uint   `json:"site_id" gorm:"not null;uniqueIndex:idx_instance_identity;index:idx_instance_site_date"`
	Date       string `json:"date" gorm:"type:varchar(10);not null;uniqueIndex:idx_instance_identity;index:idx_instance_site_date"`

	// Snapshot fields
	Title        string `json:"title" gorm:"not null"`
	Description  string `json:"description" gorm:"type:text"`
	Service      string `json:"service" gorm:"not null;index"`
	DisplayOrder int    `json:"display_order"`
	ImagePath    string `json:"image_path"`

	// Completion state; the stamp fields are null unless Completed is true
	Completed       bool       `json:"completed" gorm:"default:false;index"`
	CompletedByID   *uint      `json:"completed_by_id"`
	CompletedByName *string    `json:"completed_by_name"`
	CompletedAt     *time.Time `json:"completed_at"`

	// Relationships
	Comments []TaskComment    `json:"comments,omitempty" gorm:"foreignKey:TaskInstanceID"`
	History  []TaskAuditEntry `json:"history,omitempty" gorm:"foreignKey:TaskInstanceID"`
}

// FieldChange is one structured entry in an audit record's change list.
type FieldChange struct {
	Field    string `json:"field"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// TaskAuditEntry is append-only: rows are inserted, never updated or
// deleted. IdempotencyKey lets retried deliveries of the same toggle
// or comment collapse into a single entry.
type TaskAuditEntry struct {
	gorm.Model
	TaskInstanceID uint           `json:"task_instance_id" gorm:"not null;index"`
	Action         string         `json:"action" gorm:"type:varchar(20);not null"`
	ActorID        uint           `json:"actor_id"`
	ActorName      string         `json:"actor_name"`
	Description    string         `json:"description" gorm:"type:text"`
	Changes        datatypes.JSON `json:"changes"`
	IdempotencyKey *string        `json:"-" gorm:"uniqueIndex"`
}

type TaskComment struct {
	gorm.Model
	TaskInstanceID uint   `json:"task_instance_id" gorm:"not null;index"`
	Content        string `json:"content" gorm:"type:text;not null"`
	AuthorID       uint   `json:"author_id"`
	AuthorName     string `json:"author_name"`
}

// DayCompletionRecord marks a (site, day) as closed out. One row per
// pair; cancellation flips Completed back to false instead of deleting
// so the unique row survives an administrative reversal.
type DayCompletionRecord struct {
	gorm.Model
	SiteID          uint       `json:"site_id" gorm:"not null;uniqueIndex:idx_day_completion"`
	Date            string     `json:"date" gorm:"type:varchar(10);not null;uniqueIndex:idx_day_completion"`
	Completed       bool       `json:"completed" gorm:"default:false"`
	CompletedByID   *uint      `json:"completed_by_id"`
	CompletedByName *string    `json:"completed_by_name"`
	CompletedAt     *time.Time `json:"completed_at"`
}
