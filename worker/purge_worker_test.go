package worker

import (
	"fmt"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"taskhive/config"
	"taskhive/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, config.MigrateDB(db))
	return db
}

func TestPurgeOnce(t *testing.T) {
	db := openTestDB(t)

	owner := models.User{Name: "Owner", Email: "owner@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&owner).Error)

	doomed := models.Project{Name: "Doomed", OwnerID: owner.ID, Members: []models.User{owner}}
	alive := models.Project{Name: "Alive", OwnerID: owner.ID, Members: []models.User{owner}}
	require.NoError(t, db.Create(&doomed).Error)
	require.NoError(t, db.Create(&alive).Error)

	for _, projectID := range []uint{doomed.ID, alive.ID} {
		require.NoError(t, db.Create(&models.Task{
			Title:       "Work",
			ProjectID:   projectID,
			CreatedByID: owner.ID,
		}).Error)
		require.NoError(t, db.Create(&models.Activity{
			ProjectID: projectID,
			UserID:    owner.ID,
			Action:    "created",
			Target:    "task \"Work\"",
		}).Error)
	}

	// Soft-delete one project, as the delete handler does.
	require.NoError(t, db.Delete(&doomed).Error)

	pw := NewPurgeWorker(db, log.New(io.Discard, "", 0))
	require.NoError(t, pw.PurgeOnce())

	// The soft-deleted project and its dependents are gone for good.
	var count int64
	db.Unscoped().Model(&models.Project{}).Where("id = ?", doomed.ID).Count(&count)
	assert.Zero(t, count)
	db.Model(&models.Task{}).Where("project_id = ?", doomed.ID).Count(&count)
	assert.Zero(t, count)
	db.Model(&models.Activity{}).Where("project_id = ?", doomed.ID).Count(&count)
	assert.Zero(t, count)
	db.Table("project_members").Where("project_id = ?", doomed.ID).Count(&count)
	assert.Zero(t, count)

	// The live project is untouched.
	db.Model(&models.Project{}).Where("id = ?", alive.ID).Count(&count)
	assert.Equal(t, int64(1), count)
	db.Model(&models.Task{}).Where("project_id = ?", alive.ID).Count(&count)
	assert.Equal(t, int64(1), count)
	db.Table("project_members").Where("project_id = ?", alive.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestPurgeOnceNoSoftDeletedProjects(t *testing.T) {
	db := openTestDB(t)

	pw := NewPurgeWorker(db, log.New(io.Discard, "", 0))
	require.NoError(t, pw.PurgeOnce())
}
