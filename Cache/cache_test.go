package Cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetGet(t *testing.T) {
	store := New(time.Minute)
	store.Set("day:1:2024-05-01:progress", 42)

	value, ok := store.Get("day:1:2024-05-01:progress")
	assert.True(t, ok)
	assert.Equal(t, 42, value)

	_, ok = store.Get("day:1:2024-05-02:progress")
	assert.False(t, ok)
}

func TestTTLExpiryWithInjectedClock(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := New(time.Second * 30)
	store.Now = func() time.Time { return now }

	store.Set("key", "value")
	_, ok := store.Get("key")
	assert.True(t, ok)

	now = now.Add(time.Second * 29)
	_, ok = store.Get("key")
	assert.True(t, ok)

	now = now.Add(time.Second * 2)
	_, ok = store.Get("key")
	assert.False(t, ok)
}

func TestDeletePrefix(t *testing.T) {
	store := New(time.Minute)
	store.Set("day:1:2024-05-01:progress", 1)
	store.Set("day:1:2024-05-01:checklist", 2)
	store.Set("day:1:2024-05-02:progress", 3)
	store.Set("day:2:2024-05-01:progress", 4)

	store.DeletePrefix("day:1:2024-05-01:")

	_, ok := store.Get("day:1:2024-05-01:progress")
	assert.False(t, ok)
	_, ok = store.Get("day:1:2024-05-01:checklist")
	assert.False(t, ok)
	_, ok = store.Get("day:1:2024-05-02:progress")
	assert.True(t, ok)
	_, ok = store.Get("day:2:2024-05-01:progress")
	assert.True(t, ok)
}

func TestPurgeRemovesOnlyExpired(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := New(time.Second * 30)
	store.Now = func() time.Time { return now }

	store.Set("old", 1)
	now = now.Add(time.Second * 20)
	store.Set("fresh", 2)

	now = now.Add(time.Second * 15) // "old" is 35s, "fresh" is 15s
	removed := store.Purge()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, store.Len())

	_, ok := store.Get("fresh")
	assert.True(t, ok)
}
