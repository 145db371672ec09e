package database

import (
	"gorm.io/gorm"

	"github.com/bcastudynepal/portal/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
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
	)
}

// SeedData populates default programmes and resource categories.
func SeedData(db *gorm.DB) error {
	programs := []models.Program{
		{
			Name:          "BCA",
			Slug:          "bca",
			Description:   "Bachelor of Computer Applications",
			DurationYears: 4,
			IsActive:      true,
		},
	}

	for _, program := range programs {
		if err := db.Where(models.Program{Slug: program.Slug}).Attrs(program).FirstOrCreate(&models.Program{}).Error; err != nil {
			return err
		}
	}

	categories := []models.Category{
		{Name: "Programming", Slug: "programming", Icon: "code", Order: 1},
		{Name: "Web Development", Slug: "web-development", Icon: "globe", Order: 2},
		{Name: "Databases", Slug: "databases", Icon: "database", Order: 3},
		{Name: "Career", Slug: "career", Icon: "briefcase", Order: 4},
	}

	for _, category := range categories {
		if err := db.Where(models.Category{Slug: category.Slug}).Attrs(category).FirstOrCreate(&models.Category{}).Error; err != nil {
			return err
		}
	}

	return nil
}
