package Models

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Connect() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, falling back to process environment")
	}

	var err error
	switch os.Getenv("DB_DRIVER") {
	case "mysql":
		dsn := os.Getenv("DB_DSN")
		DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{})
	default:
		path := os.Getenv("DB_PATH")
		if path == "" {
			path = "database.db"
		}
		DB, err = gorm.Open(sqlite.Open(path), &gorm.Config{})
	}
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}
}

// Migrate runs AutoMigrate in dependency order. Shared with the test
// suites, which migrate their own in-memory databases.
func Migrate(db *gorm.DB) error {
	// 1. Base entities with no dependencies
	if err := db.AutoMigrate(
		&User{},
		&Site{},
		&TaskTemplate{},
	); err != nil {
		return err
	}

	// 2. Link rows
	if err := db.AutoMigrate(&TemplateSite{}); err != nil {
		return err
	}

	// 3. Lifecycle entities; instances carry the composite uniqueness
	// index that backs idempotent generation
	return db.AutoMigrate(
		&TaskInstance{},
		&TaskComment{},
		&TaskAuditEntry{},
		&DayCompletionRecord{},
	)
}
