package Lifecycle

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"Atrium/Cache"
	"Atrium/Models"
)

// errDayAlreadyGenerated forces a rollback when a concurrent caller
// won the generation race; the outer call still reports success.
var errDayAlreadyGenerated = errors.New("day already generated")

// Generator turns the active template set into one pending instance
// per template for a (day, site). Re-invoking it for an already
// populated day is a no-op, so callers may retry freely.
type Generator struct {
	DB     *gorm.DB
	Source TemplateSource
	Cache  *Cache.Store
}

func NewGenerator(db *gorm.DB, source TemplateSource, cache *Cache.Store) *Generator {
	return &Generator{DB: db, Source: source, Cache: cache}
}

// Generate creates the day's instance set for siteID. date must be a
// YYYY-MM-DD day key. A day that already has any instance is left
// untouched; a site with no active templates yields a valid zero-task
// day. The whole instance set is written in one transaction, so a
// partial day is never observable.
func (g *Generator) Generate(date string, siteID uint) error {
	if _, err := ParseDay(date); err != nil {
		return err
	}

	err := g.DB.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&Models.TaskInstance{}).
			Where("site_id = ? AND date = ?", siteID, date).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("%w: counting instances for site %d day %s: %v", ErrTransientStore, siteID, date, err)
		}
		if existing > 0 {
			return errDayAlreadyGenerated
		}

		templates, err := g.Source.ActiveTemplates(siteID)
		if err != nil {
			return err
		}
		if len(templates) == 0 {
			return nil
		}

		instances := make([]Models.TaskInstance, 0, len(templates))
		for _, template := range templates {
			instances = append(instances, Models.TaskInstance{
				TemplateID:   template.ID,
				SiteID:       siteID,
				Date:         date,
				Title:        template.Title,
				Description:  template.Description,
				Service:      template.Service,
				DisplayOrder: template.DisplayOrder,
				ImagePath:    template.ImagePath,
			})
		}
		if err := tx.Create(&instances).Error; err != nil {
			// The (template_id, date, site_id) unique index caught a
			// concurrent generation of the same day
			if isDuplicateKeyError(err) {
				return errDayAlreadyGenerated
			}
			return fmt.Errorf("%w: writing %d instances for site %d day %s: %v", ErrTransientStore, len(instances), siteID, date, err)
		}
		return nil
	})
	if err != nil && !errors.Is(err, errDayAlreadyGenerated) {
		return err
	}

	g.Cache.DeletePrefix(dayPrefix(siteID, date))
	return nil
}
