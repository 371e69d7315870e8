package Models

import (
	"time"

	"gorm.io/gorm"
)

// TaskTemplate is a recurring task definition owned by the catalog.
// The lifecycle engine only ever reads these; instances snapshot the
// template fields at generation time.
type TaskTemplate struct {
	gorm.Model
	Title        string `json:"title" gorm:"not null"`
	Description  string `json:"description" gorm:"type:text"`
	Service      string `json:"service" gorm:"not null;index"`
	DisplayOrder int    `json:"display_order" gorm:"default:0"`
	Active       bool   `json:"active" gorm:"default:true;index"`
	ImagePath    string `json:"image_path"`

	// Relationships
	Sites []TemplateSite `json:"sites,omitempty" gorm:"foreignKey:TemplateID;constraint:OnDelete:CASCADE"`
}

// TemplateSite links a template to a site it is eligible for.
// Plain rows, no soft delete, so eligibility joins stay simple.
type TemplateSite struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	TemplateID uint      `json:"template_id" gorm:"not null;uniqueIndex:idx_template_site"`
	SiteID     uint      `json:"site_id" gorm:"not null;uniqueIndex:idx_template_site;index"`
	CreatedAt  time.Time `json:"created_at"`
}
