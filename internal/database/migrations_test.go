package database

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bcastudynepal/portal/internal/models"
)

func TestAutoMigrateCreatesDomainTables(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, AutoMigrate(db))

	migrator := db.Migrator()
	tables := []interface{}{
		&models.User{},
		&models.Session{},
		&models.College{},
		&models.Program{},
		&models.Subject{},
		&models.QuestionPaper{},
		&models.Note{},
		&models.Syllabus{},
		&models.Category{},
		&models.Tag{},
		&models.Resource{},
		&models.ResourceSubmission{},
		&models.Favorite{},
		&models.Todo{},
		&models.SubTask{},
		&models.TodoComment{},
	}

	for _, table := range tables {
		require.True(t, migrator.HasTable(table), "expected table for %T to exist", table)
	}
}

func TestAutoMigrateIsRepeatable(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, AutoMigrate(db))
	require.NoError(t, AutoMigrate(db))
}
