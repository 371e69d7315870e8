package Lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecklistGroupsByService(t *testing.T) {
	e := newTestEngine(t)
	site := seedSite(t, e.db, "Hotel Mirabeau")
	seedTemplate(t, e.db, site.ID, "Restock minibar trolley", "Housekeeping", 2)
	seedTemplate(t, e.db, site.ID, "Turn down suites", "Housekeeping", 1)
	seedTemplate(t, e.db, site.ID, "Check pool chlorine", "Pool", 1)
	require.NoError(t, e.generator.Generate("2024-05-01", site.ID))

	user := seedUser(t, e.db, "Ursula", 1)
	instances := dayInstances(t, e.db, "2024-05-01", site.ID)
	for _, instance := range instances {
		if instance.Service == "Housekeeping" {
			require.NoError(t, e.tracker.ToggleCompletion(instance.ID, true, user.Id, ""))
			break
		}
	}

	checklist, err := e.queries.Checklist("2024-05-01", site.ID)
	require.NoError(t, err)

	assert.EqualValues(t, 3, checklist.Progress.Total)
	assert.EqualValues(t, 1, checklist.Progress.Completed)
	assert.Equal(t, 33, checklist.Progress.Percentage)
	assert.False(t, checklist.DayCompleted)

	require.Len(t, checklist.Groups, 2)
	housekeeping := checklist.Groups[0]
	assert.Equal(t, "Housekeeping", housekeeping.Service)
	assert.Equal(t, 2, housekeeping.Total)
	assert.Equal(t, 1, housekeeping.Completed)
	assert.Equal(t, 50, housekeeping.Percentage)
	// display order within the group
	assert.Equal(t, "Turn down suites", housekeeping.Instances[0].Title)
	assert.Equal(t, "Restock minibar trolley", housekeeping.Instances[1].Title)

	pool := checklist.Groups[1]
	assert.Equal(t, "Pool", pool.Service)
	assert.Equal(t, 1, pool.Total)
	assert.Equal(t, 0, pool.Completed)
}

func TestChecklistReflectsDayCompletion(t *testing.T) {
	e := newTestEngine(t)
	site := seedSite(t, e.db, "Hotel Mirabeau")
	seedTemplate(t, e.db, site.ID, "Check pool chlorine", "Pool", 1)
	require.NoError(t, e.generator.Generate("2024-05-01", site.ID))

	user := seedUser(t, e.db, "Ursula", 3)
	for _, instance := range dayInstances(t, e.db, "2024-05-01", site.ID) {
		require.NoError(t, e.tracker.ToggleCompletion(instance.ID, true, user.Id, ""))
	}
	require.NoError(t, e.gate.CompleteDay("2024-05-01", site.ID, user.Id))

	checklist, err := e.queries.Checklist("2024-05-01", site.ID)
	require.NoError(t, err)
	assert.True(t, checklist.DayCompleted)
	assert.Equal(t, 100, checklist.Progress.Percentage)
}

func TestInstanceDetailOrdersHistoryMostRecentFirst(t *testing.T) {
	e := newTestEngine(t)
	site := seedSite(t, e.db, "Hotel Mirabeau")
	seedTemplate(t, e.db, site.ID, "Check pool chlorine", "Pool", 1)
	require.NoError(t, e.generator.Generate("2024-05-01", site.ID))
	user := seedUser(t, e.db, "Ursula", 1)

	instance := dayInstances(t, e.db, "2024-05-01", site.ID)[0]
	require.NoError(t, e.tracker.ToggleCompletion(instance.ID, true, user.Id, ""))
	require.NoError(t, e.tracker.AddComment(instance.ID, "first note", user.Id, ""))
	require.NoError(t, e.tracker.AddComment(instance.ID, "second note", user.Id, ""))

	detail, err := e.queries.InstanceDetail(instance.ID)
	require.NoError(t, err)

	require.Len(t, detail.History, 3)
	assert.Equal(t, "commented", detail.History[0].Action)
	assert.Equal(t, "completed", detail.History[2].Action)
	for i := 1; i < len(detail.History); i++ {
		assert.True(t, !detail.History[i-1].CreatedAt.Before(detail.History[i].CreatedAt))
	}

	require.Len(t, detail.Comments, 2)
	assert.Equal(t, "second note", detail.Comments[0].Content)
	assert.Equal(t, "first note", detail.Comments[1].Content)
}

func TestDayKeyNormalizesToMidnight(t *testing.T) {
	late := time.Date(2024, 5, 1, 23, 59, 59, 0, time.Local)
	early := time.Date(2024, 5, 1, 0, 0, 1, 0, time.Local)
	assert.Equal(t, "2024-05-01", DayKey(late))
	assert.Equal(t, DayKey(early), DayKey(late))

	next, err := NextDay("2024-05-31")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", next)

	_, err = ParseDay("not-a-day")
	assert.Error(t, err)
}
