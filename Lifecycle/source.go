package Lifecycle

import (
	"fmt"

	"gorm.io/gorm"

	"Atrium/Models"
)

// TemplateSource supplies the active task templates eligible for a
// site. The catalog itself is managed elsewhere; the engine only
// reads through this interface.
type TemplateSource interface {
	ActiveTemplates(siteID uint) ([]Models.TaskTemplate, error)
}

// CatalogSource reads templates from the shared database through the
// template/site eligibility rows.
type CatalogSource struct {
	DB *gorm.DB
}

func NewCatalogSource(db *gorm.DB) *CatalogSource {
	return &CatalogSource{DB: db}
}

func (s *CatalogSource) ActiveTemplates(siteID uint) ([]Models.TaskTemplate, error) {
	var templates []Models.TaskTemplate
	err := s.DB.
		Joins("JOIN template_sites ON template_sites.template_id = task_templates.id").
		Where("template_sites.site_id = ? AND task_templates.active = ?", siteID, true).
		Order("task_templates.display_order ASC, task_templates.id ASC").
		Find(&templates).Error
	if err != nil {
		return nil, fmt.Errorf("%w: fetching templates for site %d: %v", ErrTemplateSourceUnavailable, siteID, err)
	}
	return templates, nil
}
