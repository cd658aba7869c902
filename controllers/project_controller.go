package controller

import (
	"log"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"taskhive/models"
	"taskhive/utils"
)

type ProjectController struct {
	DB       *gorm.DB
	Access   *utils.AccessResolver
	Recorder *utils.ActivityRecorder
	Logger   *log.Logger
}

func NewProjectController(db *gorm.DB, access *utils.AccessResolver, recorder *utils.ActivityRecorder, logger *log.Logger) *ProjectController {
	return &ProjectController{
		DB:       db,
		Access:   access,
		Recorder: recorder,
		Logger:   logger,
	}
}

type CreateProjectRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"omitempty,max=500"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

type AddMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type RemoveMemberRequest struct {
	UserID uint `json:"userId" validate:"required"`
}

// CreateProject creates a project with the caller as owner and sole member.
func (pc *ProjectController) CreateProject(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	project := models.Project{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     user.ID,
		Members:     []models.User{*user}, // owner is always a member
	}

	if err := pc.DB.Create(&project).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create project")
	}

	pc.Recorder.RecordProject(project.ID, user.ID, "created", project.Name)

	created, err := pc.loadProject(project.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch project")
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, "Project created successfully", created)
}

// GetProjects lists the caller's projects (owned or member) with search,
// sorting and pagination.
func (pc *ProjectController) GetProjects(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	page, err := utils.ParsePage(c.Query("page"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}
	limit, err := utils.ParseLimit(c.Query("limit"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}
	order, err := utils.OrderClause(c.Query("sortBy"), c.Query("sortOrder"), utils.ProjectSortFields, "createdAt")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	ids, err := pc.Access.AccessibleProjectIDs(user.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch projects")
	}

	query := pc.DB.Model(&models.Project{}).
		Where("id IN ?", ids).
		Scopes(utils.SearchScope(c.Query("search"), "name", "description"))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch projects")
	}

	var projects []models.Project
	if err := query.
		Preload("Owner").
		Preload("Members").
		Order(order).
		Offset(utils.Offset(page, limit)).
		Limit(limit).
		Find(&projects).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch projects")
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Projects retrieved successfully", fiber.Map{
		"projects":   projects,
		"pagination": utils.NewPagination(total, page, limit),
	})
}

// GetProject returns a single project the caller can access. An unknown id
// and a forbidden one are indistinguishable to the caller.
func (pc *ProjectController) GetProject(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	projectID := utils.ParseUint(c.Params("id"))

	hasAccess, err := pc.Access.HasProjectAccess(projectID, user.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch project")
	}
	if !hasAccess {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Project not found or access denied")
	}

	project, err := pc.loadProject(projectID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Project not found or access denied")
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Project retrieved successfully", project)
}

// UpdateProject updates name/description. Owner only.
func (pc *ProjectController) UpdateProject(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	projectID := utils.ParseUint(c.Params("id"))

	var req UpdateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	isOwner, err := pc.Access.IsProjectOwner(projectID, user.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch project")
	}
	if !isOwner {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Project not found or you don't have permission to update it")
	}

	var project models.Project
	if err := pc.DB.First(&project, projectID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Project not found or you don't have permission to update it")
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}

	if err := pc.DB.Save(&project).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update project")
	}

	pc.Recorder.RecordProject(project.ID, user.ID, "updated", project.Name)

	updated, err := pc.loadProject(project.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch project")
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Project updated successfully", updated)
}

// DeleteProject soft-deletes the project. Owner only. Tasks and activities
// are cleaned up later by the purge worker.
func (pc *ProjectController) DeleteProject(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	projectID := utils.ParseUint(c.Params("id"))

	isOwner, err := pc.Access.IsProjectOwner(projectID, user.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch project")
	}
	if !isOwner {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Project not found or you don't have permission to delete it")
	}

	var project models.Project
	if err := pc.DB.First(&project, projectID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Project not found or you don't have permission to delete it")
	}

	if err := pc.DB.Delete(&project).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete project")
	}

	pc.Recorder.RecordProject(project.ID, user.ID, "deleted", project.Name)

	return utils.SuccessResponse(c, fiber.StatusOK, "Project deleted successfully", fiber.Map{})
}

// AddMember adds a user, looked up by email, to the project. Owner only.
func (pc *ProjectController) AddMember(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	projectID := utils.ParseUint(c.Params("id"))

	var req AddMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}
	if err := checkmail.ValidateFormat(req.Email); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid email address")
	}

	isOwner, err := pc.Access.IsProjectOwner(projectID, user.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch project")
	}
	if !isOwner {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Project not found or you don't have permission to add members")
	}

	var userToAdd models.User
	if err := pc.DB.Where("email = ?", req.Email).First(&userToAdd).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "User not found")
	}

	isMember, err := pc.Access.IsProjectMember(projectID, userToAdd.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to add member")
	}
	if isMember {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "User is already a member of this project")
	}

	var project models.Project
	if err := pc.DB.First(&project, projectID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Project not found or you don't have permission to add members")
	}

	if err := pc.DB.Model(&project).Association("Members").Append(&userToAdd); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to add member")
	}

	pc.Recorder.RecordMember(project.ID, user.ID, "added", userToAdd.Name)

	updated, err := pc.loadProject(project.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch project")
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Member added successfully", updated)
}

// RemoveMember removes a member from the project. Owner only, and the owner
// itself can never be removed, by anyone.
func (pc *ProjectController) RemoveMember(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	projectID := utils.ParseUint(c.Params("id"))

	var req RemoveMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	isOwner, err := pc.Access.IsProjectOwner(projectID, user.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch project")
	}
	if !isOwner {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Project not found or you don't have permission to remove members")
	}

	var project models.Project
	if err := pc.DB.First(&project, projectID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Project not found or you don't have permission to remove members")
	}

	if req.UserID == project.OwnerID {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Cannot remove the project owner")
	}

	var member models.User
	if err := pc.DB.First(&member, req.UserID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "User not found")
	}

	if err := pc.DB.Model(&project).Association("Members").Delete(&member); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to remove member")
	}

	pc.Recorder.RecordMember(project.ID, user.ID, "removed", member.Name)

	updated, err := pc.loadProject(project.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch project")
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Member removed successfully", updated)
}

func (pc *ProjectController) loadProject(projectID uint) (*models.Project, error) {
	var project models.Project
	err := pc.DB.
		Preload("Owner").
		Preload("Members").
		First(&project, projectID).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}
