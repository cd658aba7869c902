package worker

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"taskhive/config"
	"taskhive/models"
)

// PurgeWorker finishes project deletion. The request path only soft-deletes a
// project; this worker periodically hard-deletes soft-deleted projects along
// with their tasks, activities and membership rows, so a delete request stays
// cheap no matter how large the project is.
type PurgeWorker struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewPurgeWorker(db *gorm.DB, logger *log.Logger) *PurgeWorker {
	return &PurgeWorker{
		DB:     db,
		Logger: logger,
	}
}

func (pw *PurgeWorker) Start(ctx context.Context) {
	pw.Logger.Println("Purge worker started")

	ticker := time.NewTicker(config.AppConfig.PurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			pw.Logger.Println("Purge worker shutting down...")
			return
		case <-ticker.C:
			if err := pw.PurgeOnce(); err != nil {
				pw.Logger.Printf("Purge run failed: %v", err)
			}
		}
	}
}

// PurgeOnce hard-deletes every soft-deleted project and its dependents in one
// transaction per project, so a failure leaves the project intact for the
// next run.
func (pw *PurgeWorker) PurgeOnce() error {
	var projects []models.Project
	if err := pw.DB.Unscoped().Where("deleted_at IS NOT NULL").Find(&projects).Error; err != nil {
		return err
	}

	for _, project := range projects {
		if err := pw.purgeProject(project); err != nil {
			pw.Logger.Printf("Failed to purge project %d: %v", project.ID, err)
			continue
		}
		pw.Logger.Printf("Purged project %d (%s)", project.ID, project.Name)
	}

	return nil
}

func (pw *PurgeWorker) purgeProject(project models.Project) error {
	return pw.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.Activity{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM project_members WHERE project_id = ?", project.ID).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&project).Error
	})
}
