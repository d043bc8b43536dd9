package chat

import (
	"testing"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kidzonehq/kidzone-backend/internal/models"
	"github.com/kidzonehq/kidzone-backend/internal/store"
)

// newTestStore spins up an in-memory store with a redis-less hub, the
// same shape the server wires in main.
func newTestStore(t *testing.T) (*store.Store, *store.Hub, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// In-memory sqlite is per-connection; keep the pool at one so every
	// query sees the migrated schema.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.User{}, &models.Message{}, &models.Conversation{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	hub := store.NewHub(nil, zerolog.Nop())
	return store.New(db, hub, zerolog.Nop()), hub, db
}

// seedUser writes a directory row. These are normally written by the
// identity service; tests seed them directly.
func seedUser(t *testing.T, db *gorm.DB, id, name, username, email string) {
	t.Helper()
	u := models.User{ID: id, Name: name, Username: username, Email: email}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
}
