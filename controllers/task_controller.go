package controller

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"taskhive/models"
	"taskhive/utils"
)

type TaskController struct {
	DB       *gorm.DB
	Access   *utils.AccessResolver
	Recorder *utils.ActivityRecorder
	Logger   *log.Logger
}

func NewTaskController(db *gorm.DB, access *utils.AccessResolver, recorder *utils.ActivityRecorder, logger *log.Logger) *TaskController {
	return &TaskController{
		DB:       db,
		Access:   access,
		Recorder: recorder,
		Logger:   logger,
	}
}

type CreateTaskRequest struct {
	ProjectID   uint   `json:"projectId" validate:"required"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"omitempty,max=1000"`
	Status      string `json:"status" validate:"omitempty,oneof=todo in-progress done"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     string `json:"dueDate" validate:"omitempty"`
	AssignedTo  *uint  `json:"assignedTo"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Status      *string `json:"status" validate:"omitempty,oneof=todo in-progress done"`
	Priority    *string `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *string `json:"dueDate" validate:"omitempty"`
	AssignedTo  *uint   `json:"assignedTo"`
}

type AssignTaskRequest struct {
	AssignedTo uint `json:"assignedTo" validate:"required"`
}

// CreateTask creates a task in a project the caller can access. An assignee,
// if given, must exist and be a member of that project, in that order.
func (tc *TaskController) CreateTask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	hasAccess, err := tc.Access.HasProjectAccess(req.ProjectID, user.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create task")
	}
	if !hasAccess {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Project not found or access denied")
	}

	if req.AssignedTo != nil && !tc.validateAssignee(c, req.ProjectID, *req.AssignedTo) {
		return nil
	}

	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	task := models.Task{
		Title:        req.Title,
		Description:  req.Description,
		Status:       req.Status,
		Priority:     req.Priority,
		DueDate:      dueDate,
		ProjectID:    req.ProjectID,
		CreatedByID:  user.ID,
		AssignedToID: req.AssignedTo,
	}
	if task.Status == "" {
		task.Status = models.TaskStatusTodo
	}
	if task.Priority == "" {
		task.Priority = models.TaskPriorityMedium
	}

	if err := tc.DB.Create(&task).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create task")
	}

	tc.Recorder.RecordTask(task.ProjectID, user.ID, "created", task.Title)

	created, err := tc.loadTask(task.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch task")
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, "Task created successfully", created)
}

// GetTasks lists tasks across every project the caller can access, with
// filtering, search, sorting and pagination.
func (tc *TaskController) GetTasks(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	page, err := utils.ParsePage(c.Query("page"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}
	limit, err := utils.ParseLimit(c.Query("limit"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}
	order, err := utils.OrderClause(c.Query("sortBy"), c.Query("sortOrder"), utils.TaskSortFields, "createdAt")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	status := c.Query("status")
	if status != "" && status != models.TaskStatusTodo && status != models.TaskStatusInProgress && status != models.TaskStatusDone {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "status must be one of: todo in-progress done")
	}
	priority := c.Query("priority")
	if priority != "" && priority != models.TaskPriorityLow && priority != models.TaskPriorityMedium && priority != models.TaskPriorityHigh {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "priority must be one of: low medium high")
	}

	projectIDs, err := tc.Access.AccessibleProjectIDs(user.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch tasks")
	}

	query := tc.DB.Model(&models.Task{}).
		Scopes(utils.SearchScope(c.Query("search"), "title", "description"))

	if projectID := c.Query("projectId"); projectID != "" {
		id := utils.ParseUint(projectID)
		if !containsID(projectIDs, id) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Access denied to this project")
		}
		query = query.Where("project_id = ?", id)
	} else {
		query = query.Where("project_id IN ?", projectIDs)
	}

	if status != "" {
		query = query.Where("status = ?", status)
	}
	if priority != "" {
		query = query.Where("priority = ?", priority)
	}
	if assignedTo := c.Query("assignedTo"); assignedTo != "" {
		query = query.Where("assigned_to_id = ?", utils.ParseUint(assignedTo))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch tasks")
	}

	var tasks []models.Task
	if err := query.
		Preload("Project").
		Preload("CreatedBy").
		Preload("AssignedTo").
		Order(order).
		Offset(utils.Offset(page, limit)).
		Limit(limit).
		Find(&tasks).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch tasks")
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Tasks retrieved successfully", fiber.Map{
		"tasks":      tasks,
		"pagination": utils.NewPagination(total, page, limit),
	})
}

// GetTask returns a single task from an accessible project.
func (tc *TaskController) GetTask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	task, ok := tc.findAccessibleTask(c, user, fiber.StatusNotFound)
	if !ok {
		return nil
	}

	loaded, err := tc.loadTask(task.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Task not found or access denied")
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Task retrieved successfully", loaded)
}

// UpdateTask updates task fields. Creator, assignee, or project owner.
func (tc *TaskController) UpdateTask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	task, ok := tc.findAccessibleTask(c, user, fiber.StatusBadRequest)
	if !ok {
		return nil
	}

	canUpdate, err := tc.Access.CanUpdateTask(task, user.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update task")
	}
	if !canUpdate {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "You don't have permission to update this task")
	}

	if req.AssignedTo != nil {
		if !tc.validateAssignee(c, task.ProjectID, *req.AssignedTo) {
			return nil
		}
		task.AssignedToID = req.AssignedTo
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != nil {
		task.Status = *req.Status
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.DueDate != nil {
		dueDate, err := parseDueDate(*req.DueDate)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
		}
		task.DueDate = dueDate
	}

	if err := tc.DB.Save(task).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update task")
	}

	tc.Recorder.RecordTask(task.ProjectID, user.ID, "updated", task.Title)

	updated, err := tc.loadTask(task.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch task")
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Task updated successfully", updated)
}

// DeleteTask removes a task. Creator or project owner; the assignee alone
// cannot delete.
func (tc *TaskController) DeleteTask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	task, ok := tc.findAccessibleTask(c, user, fiber.StatusBadRequest)
	if !ok {
		return nil
	}

	canDelete, err := tc.Access.CanManageTask(task, user.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete task")
	}
	if !canDelete {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "You don't have permission to delete this task")
	}

	if err := tc.DB.Delete(task).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete task")
	}

	tc.Recorder.RecordTask(task.ProjectID, user.ID, "deleted", task.Title)

	return utils.SuccessResponse(c, fiber.StatusOK, "Task deleted successfully", fiber.Map{})
}

// AssignTask sets the assignee. Creator or project owner.
func (tc *TaskController) AssignTask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req AssignTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	task, ok := tc.findAccessibleTask(c, user, fiber.StatusBadRequest)
	if !ok {
		return nil
	}

	canAssign, err := tc.Access.CanManageTask(task, user.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to assign task")
	}
	if !canAssign {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "You don't have permission to assign this task")
	}

	if !tc.validateAssignee(c, task.ProjectID, req.AssignedTo) {
		return nil
	}

	task.AssignedToID = &req.AssignedTo
	if err := tc.DB.Save(task).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to assign task")
	}

	tc.Recorder.RecordTask(task.ProjectID, user.ID, "assigned", task.Title)

	updated, err := tc.loadTask(task.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch task")
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Task assigned successfully", updated)
}

// findAccessibleTask loads the task from the path parameter and verifies the
// caller can see its project. Missing task and inaccessible task report the
// same error. On failure the response is already written and ok is false;
// the handler must return without touching the nil task.
func (tc *TaskController) findAccessibleTask(c *fiber.Ctx, user *models.User, failStatus int) (*models.Task, bool) {
	taskID := utils.ParseUint(c.Params("id"))

	var task models.Task
	if err := tc.DB.First(&task, taskID).Error; err != nil {
		utils.ErrorResponse(c, failStatus, "Task not found or access denied")
		return nil, false
	}

	hasAccess, err := tc.Access.HasProjectAccess(task.ProjectID, user.ID)
	if err != nil {
		utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch task")
		return nil, false
	}
	if !hasAccess {
		utils.ErrorResponse(c, failStatus, "Task not found or access denied")
		return nil, false
	}

	return &task, true
}

// validateAssignee checks user existence before membership so the two
// failure modes stay distinguishable. On failure the response is already
// written and false is returned.
func (tc *TaskController) validateAssignee(c *fiber.Ctx, projectID, assigneeID uint) bool {
	var assignee models.User
	if err := tc.DB.First(&assignee, assigneeID).Error; err != nil {
		utils.ErrorResponse(c, fiber.StatusBadRequest, "Assigned user not found")
		return false
	}

	isMember, err := tc.Access.IsProjectMember(projectID, assigneeID)
	if err != nil {
		utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to validate assignee")
		return false
	}
	if !isMember {
		utils.ErrorResponse(c, fiber.StatusBadRequest, "Assigned user is not a member of this project")
		return false
	}

	return true
}

func (tc *TaskController) loadTask(taskID uint) (*models.Task, error) {
	var task models.Task
	err := tc.DB.
		Preload("Project").
		Preload("CreatedBy").
		Preload("AssignedTo").
		First(&task, taskID).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func parseDueDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, &fiber.Error{Code: fiber.StatusBadRequest, Message: "dueDate must be an ISO-8601 datetime"}
	}
	return &t, nil
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
