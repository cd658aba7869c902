package controller

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"taskhive/models"
	"taskhive/utils"
)

type ActivityController struct {
	DB       *gorm.DB
	Access   *utils.AccessResolver
	Recorder *utils.ActivityRecorder
	Logger   *log.Logger
}

func NewActivityController(db *gorm.DB, access *utils.AccessResolver, recorder *utils.ActivityRecorder, logger *log.Logger) *ActivityController {
	return &ActivityController{
		DB:       db,
		Access:   access,
		Recorder: recorder,
		Logger:   logger,
	}
}

type CreateActivityRequest struct {
	ProjectID uint   `json:"projectId" validate:"required"`
	Action    string `json:"action" validate:"required,max=100"`
	Target    string `json:"target" validate:"required,max=200"`
}

// ActivityResponse flattens the actor into the feed entry.
type ActivityResponse struct {
	ActivityID uint      `json:"activityId"`
	ProjectID  uint      `json:"projectId"`
	Username   string    `json:"username"`
	Action     string    `json:"action"`
	Target     string    `json:"target"`
	Timestamp  time.Time `json:"timestamp"`
}

func toActivityResponse(a models.Activity) ActivityResponse {
	return ActivityResponse{
		ActivityID: a.ID,
		ProjectID:  a.ProjectID,
		Username:   a.User.Name,
		Action:     a.Action,
		Target:     a.Target,
		Timestamp:  a.Timestamp,
	}
}

func toActivityResponses(activities []models.Activity) []ActivityResponse {
	out := make([]ActivityResponse, len(activities))
	for i, a := range activities {
		out[i] = toActivityResponse(a)
	}
	return out
}

// GetProjectActivities returns the feed for one project the caller can access.
func (ac *ActivityController) GetProjectActivities(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	projectID := utils.ParseUint(c.Params("projectId"))

	hasAccess, err := ac.Access.HasProjectAccess(projectID, user.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch activities")
	}
	if !hasAccess {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Project not found or access denied")
	}

	return ac.listActivities(c, ac.DB.Model(&models.Activity{}).Where("project_id = ?", projectID))
}

// GetUserActivities returns the feed across every project the caller can
// access, covering all actors there, not just the caller. An explicit
// projectId narrows the feed after an access check of its own; the userId
// query filter narrows by actor.
func (ac *ActivityController) GetUserActivities(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	query := ac.DB.Model(&models.Activity{})

	if projectID := c.Query("projectId"); projectID != "" {
		id := utils.ParseUint(projectID)
		hasAccess, err := ac.Access.HasProjectAccess(id, user.ID)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch activities")
		}
		if !hasAccess {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Access denied to this project")
		}
		query = query.Where("project_id = ?", id)
	} else {
		projectIDs, err := ac.Access.AccessibleProjectIDs(user.ID)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch activities")
		}
		query = query.Where("project_id IN ?", projectIDs)
	}

	return ac.listActivities(c, query)
}

// GetActivity returns one feed entry, subject to project access.
func (ac *ActivityController) GetActivity(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	activityID := utils.ParseUint(c.Params("id"))

	var activity models.Activity
	if err := ac.DB.Preload("User").First(&activity, activityID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Activity not found or access denied")
	}

	hasAccess, err := ac.Access.HasProjectAccess(activity.ProjectID, user.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch activity")
	}
	if !hasAccess {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Activity not found or access denied")
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Activity retrieved successfully", toActivityResponse(activity))
}

// CreateActivity records a manual feed entry, attributed to the caller.
func (ac *ActivityController) CreateActivity(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req CreateActivityRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	hasAccess, err := ac.Access.HasProjectAccess(req.ProjectID, user.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create activity")
	}
	if !hasAccess {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Project not found or access denied")
	}

	activity, err := ac.Recorder.Record(req.ProjectID, user.ID, req.Action, req.Target)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create activity")
	}
	activity.User = *user

	return utils.SuccessResponse(c, fiber.StatusCreated, "Activity created successfully", toActivityResponse(*activity))
}

// listActivities applies the shared feed filters to a pre-scoped query and
// writes the paginated response.
func (ac *ActivityController) listActivities(c *fiber.Ctx, query *gorm.DB) error {
	page, err := utils.ParsePage(c.Query("page"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}
	limit, err := utils.ParseLimit(c.Query("limit"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}
	order, err := utils.OrderClause(c.Query("sortBy"), c.Query("sortOrder"), utils.ActivitySortFields, "timestamp")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}
	start, end, err := utils.ParseDateRange(c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	query = query.
		Scopes(
			utils.SearchScope(c.Query("search"), "action", "target"),
			utils.DateRangeScope("timestamp", start, end),
		)

	if action := c.Query("action"); action != "" {
		query = query.Where("action = ?", action)
	}
	if userID := c.Query("userId"); userID != "" {
		query = query.Where("user_id = ?", utils.ParseUint(userID))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch activities")
	}

	var activities []models.Activity
	if err := query.
		Preload("User").
		Order(order).
		Offset(utils.Offset(page, limit)).
		Limit(limit).
		Find(&activities).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch activities")
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Activities retrieved successfully", fiber.Map{
		"activities": toActivityResponses(activities),
		"pagination": utils.NewPagination(total, page, limit),
	})
}
