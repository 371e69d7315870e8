package Lifecycle

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"Atrium/Cache"
	"Atrium/Models"
)

// Tracker mutates completion state and appends the audit trail.
// Audit entries and comments are INSERTs into their own tables, never
// rewrites of the instance row, so concurrent appends cannot erase
// each other.
type Tracker struct {
	DB    *gorm.DB
	Cache *Cache.Store
}

func NewTracker(db *gorm.DB, cache *Cache.Store) *Tracker {
	return &Tracker{DB: db, Cache: cache}
}

// ToggleCompletion sets the completed flag and appends exactly one
// audit entry per call, even when the requested state matches the
// current one. The completed-by stamp is present iff completed is
// true. idemKey, when non-empty, collapses retried deliveries of the
// same toggle into a single entry.
func (t *Tracker) ToggleCompletion(instanceID uint, completed bool, actorID uint, idemKey string) error {
	actor, err := t.lookupActor(actorID)
	if err != nil {
		return err
	}

	var instance Models.TaskInstance
	err = t.DB.Transaction(func(tx *gorm.DB) error {
		if done, err := alreadyApplied(tx, idemKey); err != nil || done {
			return err
		}
		if err := tx.First(&instance, instanceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: task instance %d", ErrNotFound, instanceID)
			}
			return fmt.Errorf("%w: loading task instance %d: %v", ErrTransientStore, instanceID, err)
		}

		changes := []Models.FieldChange{{
			Field:    "completed",
			OldValue: strconv.FormatBool(instance.Completed),
			NewValue: strconv.FormatBool(completed),
		}}

		action := Models.AuditActionUncompleted
		updates := map[string]interface{}{
			"completed":         false,
			"completed_by_id":   nil,
			"completed_by_name": nil,
			"completed_at":      nil,
		}
		if completed {
			action = Models.AuditActionCompleted
			now := time.Now()
			updates = map[string]interface{}{
				"completed":         true,
				"completed_by_id":   actor.Id,
				"completed_by_name": actor.Name,
				"completed_at":      now,
			}
		}
		oldStamp := ""
		if instance.CompletedByName != nil {
			oldStamp = *instance.CompletedByName
		}
		newStamp := ""
		if completed {
			newStamp = actor.Name
		}
		if oldStamp != newStamp {
			changes = append(changes, Models.FieldChange{
				Field:    "completed_by",
				OldValue: oldStamp,
				NewValue: newStamp,
			})
		}

		if err := tx.Model(&instance).Updates(updates).Error; err != nil {
			return fmt.Errorf("%w: updating task instance %d: %v", ErrTransientStore, instanceID, err)
		}

		description := fmt.Sprintf("%s marked %q as not completed", actor.Name, instance.Title)
		if completed {
			description = fmt.Sprintf("%s marked %q as completed", actor.Name, instance.Title)
		}
		return appendAuditEntry(tx, &instance, action, actor, description, changes, idemKey)
	})
	if err != nil {
		return err
	}

	t.Cache.DeletePrefix(dayPrefix(instance.SiteID, instance.Date))
	return nil
}

// AddComment appends a comment plus its correlated audit entry.
// Completion state is never touched.
func (t *Tracker) AddComment(instanceID uint, content string, actorID uint, idemKey string) error {
	actor, err := t.lookupActor(actorID)
	if err != nil {
		return err
	}

	var instance Models.TaskInstance
	err = t.DB.Transaction(func(tx *gorm.DB) error {
		if done, err := alreadyApplied(tx, idemKey); err != nil || done {
			return err
		}
		if err := tx.First(&instance, instanceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: task instance %d", ErrNotFound, instanceID)
			}
			return fmt.Errorf("%w: loading task instance %d: %v", ErrTransientStore, instanceID, err)
		}

		comment := Models.TaskComment{
			TaskInstanceID: instance.ID,
			Content:        content,
			AuthorID:       actor.Id,
			AuthorName:     actor.Name,
		}
		if err := tx.Create(&comment).Error; err != nil {
			return fmt.Errorf("%w: writing comment on task instance %d: %v", ErrTransientStore, instanceID, err)
		}

		changes := []Models.FieldChange{{Field: "comments", NewValue: content}}
		description := fmt.Sprintf("%s commented on %q", actor.Name, instance.Title)
		return appendAuditEntry(tx, &instance, Models.AuditActionCommented, actor, description, changes, idemKey)
	})
	if err != nil {
		return err
	}

	t.Cache.DeletePrefix(dayPrefix(instance.SiteID, instance.Date))
	return nil
}

func (t *Tracker) lookupActor(actorID uint) (Models.User, error) {
	var actor Models.User
	if err := t.DB.First(&actor, actorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return actor, fmt.Errorf("%w: user %d", ErrNotFound, actorID)
		}
		return actor, fmt.Errorf("%w: loading user %d: %v", ErrTransientStore, actorID, err)
	}
	return actor, nil
}

// alreadyApplied reports whether an audit entry with this idempotency
// key was already written, i.e. this call is a duplicate delivery.
func alreadyApplied(tx *gorm.DB, idemKey string) (bool, error) {
	if idemKey == "" {
		return false, nil
	}
	var count int64
	if err := tx.Model(&Models.TaskAuditEntry{}).
		Where("idempotency_key = ?", idemKey).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("%w: checking idempotency key: %v", ErrTransientStore, err)
	}
	return count > 0, nil
}

func appendAuditEntry(tx *gorm.DB, instance *Models.TaskInstance, action string, actor Models.User, description string, changes []Models.FieldChange, idemKey string) error {
	payload, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("encoding change list: %w", err)
	}
	entry := Models.TaskAuditEntry{
		TaskInstanceID: instance.ID,
		Action:         action,
		ActorID:        actor.Id,
		ActorName:      actor.Name,
		Description:    description,
		Changes:        datatypes.JSON(payload),
	}
	if idemKey != "" {
		key := idemKey
		entry.IdempotencyKey = &key
	}
	if err := tx.Create(&entry).Error; err != nil {
		// A concurrent retry with the same key beat us; the entry exists
		if isDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("%w: writing audit entry for task instance %d: %v", ErrTransientStore, instance.ID, err)
	}
	return nil
}
