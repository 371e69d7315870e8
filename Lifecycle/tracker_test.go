package Lifecycle

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Atrium/Models"
)

func setupTrackedInstance(t *testing.T, e *engine) (Models.TaskInstance, Models.User) {
	t.Helper()
	site := seedSite(t, e.db, "Hotel Mirabeau")
	seedTemplate(t, e.db, site.ID, "Check pool chlorine", "Pool", 1)
	require.NoError(t, e.generator.Generate("2024-05-01", site.ID))
	instances := dayInstances(t, e.db, "2024-05-01", site.ID)
	require.Len(t, instances, 1)
	user := seedUser(t, e.db, "Ursula", 1)
	return instances[0], user
}

func instanceHistory(t *testing.T, e *engine, instanceID uint) []Models.TaskAuditEntry {
	t.Helper()
	var history []Models.TaskAuditEntry
	require.NoError(t, e.db.
		Where("task_instance_id = ?", instanceID).
		Order("id ASC").
		Find(&history).Error)
	return history
}

func TestToggleCompletionStampsActor(t *testing.T) {
	e := newTestEngine(t)
	instance, user := setupTrackedInstance(t, e)

	require.NoError(t, e.tracker.ToggleCompletion(instance.ID, true, user.Id, ""))

	var reloaded Models.TaskInstance
	require.NoError(t, e.db.First(&reloaded, instance.ID).Error)
	assert.True(t, reloaded.Completed)
	require.NotNil(t, reloaded.CompletedByID)
	assert.Equal(t, user.Id, *reloaded.CompletedByID)
	require.NotNil(t, reloaded.CompletedByName)
	assert.Equal(t, "Ursula", *reloaded.CompletedByName)
	assert.NotNil(t, reloaded.CompletedAt)
}

func TestUncompleteClearsStamp(t *testing.T) {
	e := newTestEngine(t)
	instance, user := setupTrackedInstance(t, e)

	require.NoError(t, e.tracker.ToggleCompletion(instance.ID, true, user.Id, ""))
	require.NoError(t, e.tracker.ToggleCompletion(instance.ID, false, user.Id, ""))

	var reloaded Models.TaskInstance
	require.NoError(t, e.db.First(&reloaded, instance.ID).Error)
	assert.False(t, reloaded.Completed)
	assert.Nil(t, reloaded.CompletedByID)
	assert.Nil(t, reloaded.CompletedByName)
	assert.Nil(t, reloaded.CompletedAt)
}

func TestEveryToggleAppendsOneAuditEntry(t *testing.T) {
	e := newTestEngine(t)
	instance, user := setupTrackedInstance(t, e)

	// Includes a redundant true->true toggle; history keeps every call
	requested := []bool{true, true, false, true}
	for _, completed := range requested {
		require.NoError(t, e.tracker.ToggleCompletion(instance.ID, completed, user.Id, ""))
	}

	history := instanceHistory(t, e, instance.ID)
	require.Len(t, history, len(requested))
	assert.Equal(t, Models.AuditActionCompleted, history[0].Action)
	assert.Equal(t, Models.AuditActionCompleted, history[1].Action)
	assert.Equal(t, Models.AuditActionUncompleted, history[2].Action)
	assert.Equal(t, Models.AuditActionCompleted, history[3].Action)

	var reloaded Models.TaskInstance
	require.NoError(t, e.db.First(&reloaded, instance.ID).Error)
	assert.Equal(t, requested[len(requested)-1], reloaded.Completed)
}

func TestAuditEntryCarriesStructuredChanges(t *testing.T) {
	e := newTestEngine(t)
	instance, user := setupTrackedInstance(t, e)

	require.NoError(t, e.tracker.ToggleCompletion(instance.ID, true, user.Id, ""))

	history := instanceHistory(t, e, instance.ID)
	require.Len(t, history, 1)
	assert.Equal(t, user.Id, history[0].ActorID)
	assert.Equal(t, "Ursula", history[0].ActorName)

	var changes []Models.FieldChange
	require.NoError(t, json.Unmarshal(history[0].Changes, &changes))
	require.NotEmpty(t, changes)
	assert.Equal(t, "completed", changes[0].Field)
	assert.Equal(t, "false", changes[0].OldValue)
	assert.Equal(t, "true", changes[0].NewValue)
}

func TestAddCommentLeavesCompletionAlone(t *testing.T) {
	e := newTestEngine(t)
	instance, user := setupTrackedInstance(t, e)
	author := seedUser(t, e.db, "Victor", 1)

	require.NoError(t, e.tracker.ToggleCompletion(instance.ID, true, user.Id, ""))
	require.NoError(t, e.tracker.AddComment(instance.ID, "needs parts", author.Id, ""))

	var reloaded Models.TaskInstance
	require.NoError(t, e.db.Preload("Comments").First(&reloaded, instance.ID).Error)
	require.Len(t, reloaded.Comments, 1)
	assert.Equal(t, "needs parts", reloaded.Comments[0].Content)
	assert.Equal(t, "Victor", reloaded.Comments[0].AuthorName)

	// completion stamp is untouched by the comment
	assert.True(t, reloaded.Completed)
	require.NotNil(t, reloaded.CompletedByName)
	assert.Equal(t, "Ursula", *reloaded.CompletedByName)

	history := instanceHistory(t, e, instance.ID)
	require.Len(t, history, 2)
	assert.Equal(t, Models.AuditActionCommented, history[1].Action)
}

func TestIdempotencyKeyCollapsesRetries(t *testing.T) {
	e := newTestEngine(t)
	instance, user := setupTrackedInstance(t, e)

	require.NoError(t, e.tracker.ToggleCompletion(instance.ID, true, user.Id, "req-42"))
	require.NoError(t, e.tracker.ToggleCompletion(instance.ID, true, user.Id, "req-42"))

	history := instanceHistory(t, e, instance.ID)
	assert.Len(t, history, 1)

	require.NoError(t, e.tracker.AddComment(instance.ID, "leaking valve", user.Id, "req-43"))
	require.NoError(t, e.tracker.AddComment(instance.ID, "leaking valve", user.Id, "req-43"))

	var comments int64
	require.NoError(t, e.db.Model(&Models.TaskComment{}).
		Where("task_instance_id = ?", instance.ID).Count(&comments).Error)
	assert.EqualValues(t, 1, comments)
}

func TestToggleUnknownInstance(t *testing.T) {
	e := newTestEngine(t)
	user := seedUser(t, e.db, "Ursula", 1)

	err := e.tracker.ToggleCompletion(9999, true, user.Id, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestToggleUnknownActor(t *testing.T) {
	e := newTestEngine(t)
	instance, _ := setupTrackedInstance(t, e)

	err := e.tracker.ToggleCompletion(instance.ID, true, 9999, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}
