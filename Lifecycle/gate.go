package Lifecycle

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"Atrium/Cache"
	"Atrium/Models"
)

// DayProgress is the aggregate completion state for a (site, day).
type DayProgress struct {
	Total      int64 `json:"total"`
	Completed  int64 `json:"completed"`
	Percentage int   `json:"percentage"`
}

// Gate owns the day-completed transition: it checks the readiness
// predicate, writes the day completion record, and triggers next-day
// generation.
type Gate struct {
	DB        *gorm.DB
	Generator *Generator
	Cache     *Cache.Store
}

func NewGate(db *gorm.DB, generator *Generator, cache *Cache.Store) *Gate {
	return &Gate{DB: db, Generator: generator, Cache: cache}
}

// Progress reports total/completed/percentage for the day. A day with
// no instances is 0%. Served from the short-TTL cache when possible.
func (g *Gate) Progress(date string, siteID uint) (DayProgress, error) {
	key := progressKey(siteID, date)
	if cached, ok := g.Cache.Get(key); ok {
		if progress, ok := cached.(DayProgress); ok {
			return progress, nil
		}
	}
	progress, err := dayProgress(g.DB, date, siteID)
	if err != nil {
		return DayProgress{}, err
	}
	g.Cache.Set(key, progress)
	return progress, nil
}

// CanProceedToNextDay is true when the day has at least one instance,
// all of them are complete, and the day has not already been closed.
func (g *Gate) CanProceedToNextDay(date string, siteID uint) (bool, error) {
	progress, err := g.Progress(date, siteID)
	if err != nil {
		return false, err
	}
	if progress.Total == 0 || progress.Completed != progress.Total {
		return false, nil
	}
	closed, err := dayClosed(g.DB, date, siteID)
	if err != nil {
		return false, err
	}
	return !closed, nil
}

// CompleteDay re-validates the gate inside the write transaction (a
// client-side check may be stale), records the completion, then
// generates the next day's instances. Retrying after a partial
// failure is safe: an already-written record short-circuits to the
// idempotent generator, which no-ops over an already-populated day.
func (g *Gate) CompleteDay(date string, siteID uint, actorID uint) error {
	next, err := NextDay(date)
	if err != nil {
		return err
	}

	var actor Models.User
	if err := g.DB.First(&actor, actorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: user %d", ErrNotFound, actorID)
		}
		return fmt.Errorf("%w: loading user %d: %v", ErrTransientStore, actorID, err)
	}

	err = g.DB.Transaction(func(tx *gorm.DB) error {
		var record Models.DayCompletionRecord
		found := true
		if err := tx.Where("site_id = ? AND date = ?", siteID, date).First(&record).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: loading day record for site %d day %s: %v", ErrTransientStore, siteID, date, err)
			}
			found = false
		}
		if found && record.Completed {
			// Already closed; fall through to next-day generation
			return nil
		}

		progress, err := dayProgress(tx, date, siteID)
		if err != nil {
			return err
		}
		if progress.Total == 0 || progress.Completed != progress.Total {
			return fmt.Errorf("%w: %d of %d tasks complete for site %d day %s", ErrPreconditionFailed, progress.Completed, progress.Total, siteID, date)
		}

		now := time.Now()
		if found {
			// Conditional flip so two racing callers cannot both win
			result := tx.Model(&Models.DayCompletionRecord{}).
				Where("id = ? AND completed = ?", record.ID, false).
				Updates(map[string]interface{}{
					"completed":         true,
					"completed_by_id":   actor.Id,
					"completed_by_name": actor.Name,
					"completed_at":      now,
				})
			if result.Error != nil {
				return fmt.Errorf("%w: closing day for site %d day %s: %v", ErrTransientStore, siteID, date, result.Error)
			}
			return nil
		}

		record = Models.DayCompletionRecord{
			SiteID:          siteID,
			Date:            date,
			Completed:       true,
			CompletedByID:   &actor.Id,
			CompletedByName: &actor.Name,
			CompletedAt:     &now,
		}
		if err := tx.Create(&record).Error; err != nil {
			// Unique (site_id, date) index: a concurrent caller wrote
			// the record first
			if isDuplicateKeyError(err) {
				return nil
			}
			return fmt.Errorf("%w: closing day for site %d day %s: %v", ErrTransientStore, siteID, date, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	g.Cache.DeletePrefix(dayPrefix(siteID, date))
	return g.Generator.Generate(next, siteID)
}

// CancelDayCompletion is the administrative override: it reopens a
// closed day without retracting the next day's already-generated
// instances. Route-level permission checks gate who may call it.
func (g *Gate) CancelDayCompletion(date string, siteID uint) error {
	result := g.DB.Model(&Models.DayCompletionRecord{}).
		Where("site_id = ? AND date = ? AND completed = ?", siteID, date, true).
		Updates(map[string]interface{}{
			"completed":         false,
			"completed_by_id":   nil,
			"completed_by_name": nil,
			"completed_at":      nil,
		})
	if result.Error != nil {
		return fmt.Errorf("%w: reopening day for site %d day %s: %v", ErrTransientStore, siteID, date, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: no completed day record for site %d day %s", ErrNotFound, siteID, date)
	}
	g.Cache.DeletePrefix(dayPrefix(siteID, date))
	return nil
}

func dayProgress(db *gorm.DB, date string, siteID uint) (DayProgress, error) {
	var total, completed int64
	if err := db.Model(&Models.TaskInstance{}).
		Where("site_id = ? AND date = ?", siteID, date).
		Count(&total).Error; err != nil {
		return DayProgress{}, fmt.Errorf("%w: counting instances for site %d day %s: %v", ErrTransientStore, siteID, date, err)
	}
	if err := db.Model(&Models.TaskInstance{}).
		Where("site_id = ? AND date = ? AND completed = ?", siteID, date, true).
		Count(&completed).Error; err != nil {
		return DayProgress{}, fmt.Errorf("%w: counting completed instances for site %d day %s: %v", ErrTransientStore, siteID, date, err)
	}

	progress := DayProgress{Total: total, Completed: completed}
	if total > 0 {
		progress.Percentage = int(math.Round(float64(completed) / float64(total) * 100))
	}
	return progress, nil
}

func dayClosed(db *gorm.DB, date string, siteID uint) (bool, error) {
	var count int64
	if err := db.Model(&Models.DayCompletionRecord{}).
		Where("site_id = ? AND date = ? AND completed = ?", siteID, date, true).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("%w: loading day record for site %d day %s: %v", ErrTransientStore, siteID, date, err)
	}
	return count > 0, nil
}
