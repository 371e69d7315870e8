package Lifecycle

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"Atrium/Cache"
	"Atrium/Models"
)

// ServiceGroup is the checklist slice for one service category.
type ServiceGroup struct {
	Service    string                `json:"service"`
	Total      int                   `json:"total"`
	Completed  int                   `json:"completed"`
	Percentage int                   `json:"percentage"`
	Instances  []Models.TaskInstance `json:"instances"`
}

// DayChecklist is the read projection the presentation layer renders:
// instances grouped by service with per-group and global progress.
type DayChecklist struct {
	Date         string         `json:"date"`
	SiteID       uint           `json:"site_id"`
	DayCompleted bool           `json:"day_completed"`
	Progress     DayProgress    `json:"progress"`
	Groups       []ServiceGroup `json:"groups"`
}

// Queries is the stateless read side over the lifecycle entities.
type Queries struct {
	DB    *gorm.DB
	Cache *Cache.Store
}

func NewQueries(db *gorm.DB, cache *Cache.Store) *Queries {
	return &Queries{DB: db, Cache: cache}
}

// Checklist builds the grouped view for a (site, day). Groups follow
// the order instances appear in (service, then display order); the
// projection is cached until the next mutation on the day.
func (q *Queries) Checklist(date string, siteID uint) (DayChecklist, error) {
	key := checklistKey(siteID, date)
	if cached, ok := q.Cache.Get(key); ok {
		if checklist, ok := cached.(DayChecklist); ok {
			return checklist, nil
		}
	}

	var instances []Models.TaskInstance
	if err := q.DB.
		Where("site_id = ? AND date = ?", siteID, date).
		Order("service ASC, display_order ASC, id ASC").
		Find(&instances).Error; err != nil {
		return DayChecklist{}, fmt.Errorf("%w: loading instances for site %d day %s: %v", ErrTransientStore, siteID, date, err)
	}

	checklist := DayChecklist{Date: date, SiteID: siteID}
	for _, instance := range instances {
		checklist.Progress.Total++
		if instance.Completed {
			checklist.Progress.Completed++
		}

		if n := len(checklist.Groups); n == 0 || checklist.Groups[n-1].Service != instance.Service {
			checklist.Groups = append(checklist.Groups, ServiceGroup{Service: instance.Service})
		}
		group := &checklist.Groups[len(checklist.Groups)-1]
		group.Total++
		if instance.Completed {
			group.Completed++
		}
		group.Instances = append(group.Instances, instance)
	}
	for i := range checklist.Groups {
		checklist.Groups[i].Percentage = percentage(checklist.Groups[i].Completed, checklist.Groups[i].Total)
	}
	checklist.Progress.Percentage = percentage(int(checklist.Progress.Completed), int(checklist.Progress.Total))

	closed, err := dayClosed(q.DB, date, siteID)
	if err != nil {
		return DayChecklist{}, err
	}
	checklist.DayCompleted = closed

	q.Cache.Set(key, checklist)
	return checklist, nil
}

// InstanceDetail loads one instance with its comments and audit
// history, both most-recent-first (they are stored insertion-order).
func (q *Queries) InstanceDetail(instanceID uint) (Models.TaskInstance, error) {
	var instance Models.TaskInstance
	err := q.DB.
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC, id DESC")
		}).
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC, id DESC")
		}).
		First(&instance, instanceID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return instance, fmt.Errorf("%w: task instance %d", ErrNotFound, instanceID)
		}
		return instance, fmt.Errorf("%w: loading task instance %d: %v", ErrTransientStore, instanceID, err)
	}
	return instance, nil
}

func percentage(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(float64(completed)/float64(total)*100 + 0.5)
}
