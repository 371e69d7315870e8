package Lifecycle

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"Atrium/Cache"
	"Atrium/Models"
)

type engine struct {
	db        *gorm.DB
	store     *Cache.Store
	generator *Generator
	tracker   *Tracker
	gate      *Gate
	queries   *Queries
}

func newTestEngine(t *testing.T) *engine {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Models.Migrate(db))

	store := Cache.New(time.Minute)
	generator := NewGenerator(db, NewCatalogSource(db), store)
	return &engine{
		db:        db,
		store:     store,
		generator: generator,
		tracker:   NewTracker(db, store),
		gate:      NewGate(db, generator, store),
		queries:   NewQueries(db, store),
	}
}

func seedSite(t *testing.T, db *gorm.DB, name string) Models.Site {
	t.Helper()
	site := Models.Site{Name: name, Timezone: "Europe/Paris"}
	require.NoError(t, db.Create(&site).Error)
	return site
}

func seedUser(t *testing.T, db *gorm.DB, name string, permission int) Models.User {
	t.Helper()
	user := Models.User{
		Name:       name,
		Email:      strings.ToLower(name) + "@example.com",
		Permission: permission,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedTemplate(t *testing.T, db *gorm.DB, siteID uint, title, service string, order int) Models.TaskTemplate {
	t.Helper()
	template := Models.TaskTemplate{
		Title:        title,
		Description:  "recurring duty: " + title,
		Service:      service,
		DisplayOrder: order,
		Active:       true,
		Sites:        []Models.TemplateSite{{SiteID: siteID}},
	}
	require.NoError(t, db.Create(&template).Error)
	return template
}

func dayInstances(t *testing.T, db *gorm.DB, date string, siteID uint) []Models.TaskInstance {
	t.Helper()
	var instances []Models.TaskInstance
	require.NoError(t, db.
		Where("site_id = ? AND date = ?", siteID, date).
		Order("id ASC").
		Find(&instances).Error)
	return instances
}
