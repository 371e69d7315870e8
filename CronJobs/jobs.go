package CronJobs

import (
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"Atrium/Cache"
)

// CacheJanitor periodically purges expired read-cache entries so the
// projection cache stays bounded. It never touches task data; day
// rollover stays user-triggered.
type CacheJanitor struct {
	cronScheduler *cron.Cron
	store         *Cache.Store
	jobID         cron.EntryID
}

func NewCacheJanitor(store *Cache.Store) *CacheJanitor {
	return &CacheJanitor{
		cronScheduler: cron.New(cron.WithSeconds()),
		store:         store,
	}
}

// Start schedules the purge to run once a minute.
func (j *CacheJanitor) Start() error {
	var err error
	j.jobID, err = j.cronScheduler.AddFunc("0 * * * * *", func() {
		if removed := j.store.Purge(); removed > 0 {
			log.Printf("Cache janitor removed %d expired entries", removed)
		}
	})
	if err != nil {
		return fmt.Errorf("error scheduling cron job: %w", err)
	}

	j.cronScheduler.Start()
	return nil
}

// Stop terminates the janitor.
func (j *CacheJanitor) Stop() {
	j.cronScheduler.Stop()
}
