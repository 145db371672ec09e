package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/bcastudynepal/portal/internal/models"
	"github.com/bcastudynepal/portal/pkg/crypto"
)

func seedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	hash, err := crypto.HashPassword("initial-password")
	require.NoError(t, err)

	user := &models.User{
		Username:   username,
		Email:      username + "@example.com",
		Password:   hash,
		IsActive:   true,
		IsVerified: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedProgram(t *testing.T, db *gorm.DB, name string) *models.Program {
	t.Helper()

	program := &models.Program{
		Name:          name,
		Slug:          slugify(name) + "-" + uuid.NewString()[:8],
		DurationYears: 4,
		IsActive:      true,
	}
	require.NoError(t, db.Create(program).Error)
	return program
}

func seedSubject(t *testing.T, db *gorm.DB, programID, code string, semester int) *models.Subject {
	t.Helper()

	subject := &models.Subject{
		Code:        code,
		Name:        "Subject " + code,
		ProgramID:   programID,
		Semester:    semester,
		CreditHours: 3,
		IsActive:    true,
	}
	require.NoError(t, db.Create(subject).Error)
	return subject
}

func seedCategory(t *testing.T, db *gorm.DB, name string, order int) *models.Category {
	t.Helper()

	category := &models.Category{
		Name:  name,
		Slug:  slugify(name),
		Order: order,
	}
	require.NoError(t, db.Create(category).Error)
	return category
}

func TestSlugify(t *testing.T) {
	require.Equal(t, "web-development", slugify("Web Development"))
	require.Equal(t, "c-programming", slugify("  C  Programming!! "))
	require.Equal(t, "bca-2024", slugify("BCA 2024"))
	require.Equal(t, "", slugify("***"))
}

func TestEnsuredContext(t *testing.T) {
	var missing context.Context
	require.NotNil(t, ensuredContext(missing))
	ctx := context.Background()
	require.Equal(t, ctx, ensuredContext(ctx))
}
