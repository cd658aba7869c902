package utils

import (
	"gorm.io/gorm"

	"taskhive/models"
)

// AccessResolver answers every ownership/membership question the controllers
// have. Each call hits the database so no operation ever trusts a permission
// derived earlier in the request, or in a previous one.
type AccessResolver struct {
	DB *gorm.DB
}

func NewAccessResolver(db *gorm.DB) *AccessResolver {
	return &AccessResolver{DB: db}
}

// HasProjectAccess reports whether the user is the owner or a member of the
// project.
func (ar *AccessResolver) HasProjectAccess(projectID, userID uint) (bool, error) {
	var count int64
	err := ar.DB.Model(&models.Project{}).
		Joins("LEFT JOIN project_members ON project_members.project_id = projects.id").
		Where("projects.id = ?", projectID).
		Where("projects.owner_id = ? OR project_members.user_id = ?", userID, userID).
		Count(&count).Error
	return count > 0, err
}

// IsProjectOwner reports whether the user owns the project.
func (ar *AccessResolver) IsProjectOwner(projectID, userID uint) (bool, error) {
	var count int64
	err := ar.DB.Model(&models.Project{}).
		Where("id = ? AND owner_id = ?", projectID, userID).
		Count(&count).Error
	return count > 0, err
}

// IsProjectMember reports whether the user has a membership row on the
// project. The owner always has one, so this is the check used for task
// assignment validity.
func (ar *AccessResolver) IsProjectMember(projectID, userID uint) (bool, error) {
	var count int64
	err := ar.DB.Table("project_members").
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error
	return count > 0, err
}

// AccessibleProjectIDs returns the ids of every project the user owns or is
// a member of. Task and activity queries are scoped to this set.
func (ar *AccessResolver) AccessibleProjectIDs(userID uint) ([]uint, error) {
	var ids []uint
	err := ar.DB.Model(&models.Project{}).
		Joins("LEFT JOIN project_members ON project_members.project_id = projects.id").
		Where("projects.owner_id = ? OR project_members.user_id = ?", userID, userID).
		Distinct().
		Pluck("projects.id", &ids).Error
	return ids, err
}

// CanUpdateTask: task creator, current assignee, or project owner.
func (ar *AccessResolver) CanUpdateTask(task *models.Task, userID uint) (bool, error) {
	if task.CreatedByID == userID {
		return true, nil
	}
	if task.AssignedToID != nil && *task.AssignedToID == userID {
		return true, nil
	}
	return ar.IsProjectOwner(task.ProjectID, userID)
}

// CanManageTask: task creator or project owner. Covers delete and assign;
// being the assignee is not enough.
func (ar *AccessResolver) CanManageTask(task *models.Task, userID uint) (bool, error) {
	if task.CreatedByID == userID {
		return true, nil
	}
	return ar.IsProjectOwner(task.ProjectID, userID)
}
