package utils

import (
	"fmt"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"taskhive/models"
)

// ActivityRecorder appends activity records as a side effect of mutations.
// Record returns its outcome, but callers are expected to log and move on:
// a failed activity write must never fail or roll back the mutation that
// triggered it.
type ActivityRecorder struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewActivityRecorder(db *gorm.DB, logger *log.Logger) *ActivityRecorder {
	return &ActivityRecorder{
		DB:     db,
		Logger: logger,
	}
}

// Record appends one activity record and returns the created row.
func (ar *ActivityRecorder) Record(projectID, userID uint, action, target string) (*models.Activity, error) {
	activity := models.Activity{
		ProjectID: projectID,
		UserID:    userID,
		Action:    action,
		Target:    target,
		Timestamp: time.Now(),
	}

	if err := ar.DB.Create(&activity).Error; err != nil {
		logrus.WithFields(logrus.Fields{
			"project_id": projectID,
			"user_id":    userID,
			"action":     action,
		}).WithError(err).Error("activity write failed")
		sentry.CaptureException(err)
		return nil, err
	}

	return &activity, nil
}

// RecordProject logs a project-level mutation, e.g. `created project "Launch"`.
func (ar *ActivityRecorder) RecordProject(projectID, userID uint, action, projectName string) {
	ar.record(projectID, userID, action, fmt.Sprintf("project %q", projectName))
}

// RecordTask logs a task-level mutation within the task's project.
func (ar *ActivityRecorder) RecordTask(projectID, userID uint, action, taskTitle string) {
	ar.record(projectID, userID, action, fmt.Sprintf("task %q", taskTitle))
}

// RecordMember logs a membership mutation.
func (ar *ActivityRecorder) RecordMember(projectID, userID uint, action, memberName string) {
	ar.record(projectID, userID, action, fmt.Sprintf("member %q", memberName))
}

func (ar *ActivityRecorder) record(projectID, userID uint, action, target string) {
	if _, err := ar.Record(projectID, userID, action, target); err != nil {
		ar.Logger.Printf("failed to record %q on project %d: %v", action, projectID, err)
	}
}
