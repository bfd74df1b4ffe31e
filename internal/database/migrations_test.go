package database

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eventplaza/eventplaza/internal/models"
)

func TestAutoMigrateCreatesSchema(t *testing.T) {
	db, err := Open(Config{Driver: "sqlite"})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))

	for _, table := range []string{"users", "events", "tasks", "sessions", "event_organizers", "event_managers"} {
		require.True(t, db.Migrator().HasTable(table), "expected table %s", table)
	}
}

func TestUniqueEmailEnforced(t *testing.T) {
	db, err := Open(Config{Driver: "sqlite"})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))

	first := models.User{Email: "dup@example.com", Password: "x", FirstName: "A", LastName: "B"}
	require.NoError(t, db.Create(&first).Error)

	second := models.User{Email: "dup@example.com", Password: "y", FirstName: "C", LastName: "D"}
	require.Error(t, db.Create(&second).Error)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.Error(t, err)
}
