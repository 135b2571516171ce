package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/careportal/internal/app/models"
	"github.com/yigit/careportal/internal/app/models/dto"
	"github.com/yigit/careportal/internal/app/services"
	"github.com/yigit/careportal/internal/middleware"
	"github.com/yigit/careportal/internal/pkg/helpers"
)

// ApplicationController handles admission intake, the test-day lifecycle
// and activation.
type ApplicationController struct {
	applicationService *services.ApplicationService
	activationService  *services.ActivationService
	logger             zerolog.Logger
}

// NewApplicationController creates a new ApplicationController
func NewApplicationController(
	applicationService *services.ApplicationService,
	activationService *services.ActivationService,
	logger zerolog.Logger,
) *ApplicationController {
	return &ApplicationController{
		applicationService: applicationService,
		activationService:  activationService,
		logger:             logger,
	}
}

// Submit registers a new applicant
// @Summary Submit an admission application
// @Description Public intake form. Returns the generated portal username and password once.
// @Tags applications
// @Accept json
// @Produce json
// @Param request body dto.SubmitApplicationRequest true "Application form"
// @Success 201 {object} dto.APIResponse{data=dto.ApplicationCreatedResponse} "Application submitted"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 409 {object} dto.ErrorResponse "Username collision"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /applications [post]
func (c *ApplicationController) Submit(ctx *gin.Context) {
	var req dto.SubmitApplicationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid application payload")
		middleware.HandleBindingError(ctx, err)
		return
	}

	submission, err := c.applicationService.Submit(ctx, services.ApplicationInput{
		Identity:          req.Identity(),
		CoursePreferences: req.Preferences(),
		TestDate:          req.TestDate,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.ApplicationCreatedResponse{
		Application: dto.NewApplicationResponse(submission.Application),
		Username:    submission.Username,
		Password:    submission.Password,
	}, "Application submitted", submission.Warnings...))
}

// GetMine returns the applicant's own application
// @Summary Get my application
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationResponse} "Application"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Application not found"
// @Router /applications/me [get]
func (c *ApplicationController) GetMine(ctx *gin.Context) {
	actor, ok := mustActor(ctx)
	if !ok {
		return
	}
	c.get(ctx, actor, actor.SubjectID)
}

// Get returns one application
// @Summary Get an application
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationResponse} "Application"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Application not found"
// @Router /applications/{id} [get]
func (c *ApplicationController) Get(ctx *gin.Context) {
	actor, ok := mustActor(ctx)
	if !ok {
		return
	}
	c.get(ctx, actor, ctx.Param("id"))
}

func (c *ApplicationController) get(ctx *gin.Context, actor models.Actor, id string) {
	app, err := c.applicationService.Get(ctx, actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewApplicationResponse(app), ""))
}

// List returns a page of applications
// @Summary List applications
// @Description CARE staff console listing, newest first.
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status code or label" Enums(APPLIED, ONGOING, TEST_TAKEN, PASSED, FAILED)
// @Param page query int false "Page number (1-based)"
// @Param size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]dto.ApplicationResponse}} "Applications"
// @Failure 400 {object} dto.ErrorResponse "Invalid status"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /applications [get]
func (c *ApplicationController) List(ctx *gin.Context) {
	actor, ok := mustActor(ctx)
	if !ok {
		return
	}

	page, size := helpers.ParsePaginationParams(ctx)
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	filter := models.ApplicationFilter{Offset: offset, Limit: limit}
	if raw := ctx.Query("status"); raw != "" {
		status, ok := models.ParseApplicationStatus(raw)
		if !ok {
			badQuery(ctx, "unknown application status "+raw)
			return
		}
		filter.Status = status
	}

	apps, total, err := c.applicationService.List(ctx, actor, filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(paginated(dto.NewApplicationResponses(apps), total, page, limit), ""))
}

// TimeIn marks the applicant as arrived on test day
// @Summary Time in
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationResponse} "Timed in"
// @Failure 409 {object} dto.ErrorResponse "Status changed concurrently"
// @Failure 422 {object} dto.ErrorResponse "Invalid state transition"
// @Router /applications/me/time-in [post]
func (c *ApplicationController) TimeIn(ctx *gin.Context) {
	actor, ok := mustActor(ctx)
	if !ok {
		return
	}
	result, err := c.applicationService.TimeIn(ctx, actor)
	c.respondStatus(ctx, result, err, "Timed in")
}

// TimeOut marks the applicant as finished with the test
// @Summary Time out
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationResponse} "Timed out"
// @Failure 409 {object} dto.ErrorResponse "Status changed concurrently"
// @Failure 422 {object} dto.ErrorResponse "Invalid state transition"
// @Router /applications/me/time-out [post]
func (c *ApplicationController) TimeOut(ctx *gin.Context) {
	actor, ok := mustActor(ctx)
	if !ok {
		return
	}
	result, err := c.applicationService.TimeOut(ctx, actor)
	c.respondStatus(ctx, result, err, "Timed out")
}

// UpdateStatus records a staff status change
// @Summary Update application status
// @Description CARE staff record the test result or correct a status.
// @Tags applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param request body dto.UpdateApplicationStatusRequest true "New status"
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationResponse} "Status updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid status"
// @Failure 409 {object} dto.ErrorResponse "Status changed concurrently"
// @Failure 422 {object} dto.ErrorResponse "Invalid state transition"
// @Router /applications/{id}/status [patch]
func (c *ApplicationController) UpdateStatus(ctx *gin.Context) {
	actor, ok := mustActor(ctx)
	if !ok {
		return
	}

	var req dto.UpdateApplicationStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}
	status, valid := models.ParseApplicationStatus(req.Status)
	if !valid {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid status").WithDetails(req.Status)
		ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	result, err := c.applicationService.UpdateStatus(ctx, actor, ctx.Param("id"), status)
	c.respondStatus(ctx, result, err, "Status updated")
}

func (c *ApplicationController) respondStatus(ctx *gin.Context, result *services.ApplicationResult, err error, message string) {
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewApplicationResponse(result.Application), message))
}

// Activate promotes a passed application into a student profile
// @Summary Activate a student account
// @Description Claims the enrollment key for the student ID, creates or updates the Student profile and removes the Application. Applicants may only activate their own application.
// @Tags applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param request body dto.ActivateRequest true "Student ID and course"
// @Success 200 {object} dto.APIResponse{data=dto.ActivationResponse} "Activated"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Application or enrollment key not found"
// @Failure 409 {object} dto.ErrorResponse "Student ID owned by another applicant"
// @Failure 422 {object} dto.ErrorResponse "Course mismatch or application not passed"
// @Router /applications/{id}/activate [post]
func (c *ApplicationController) Activate(ctx *gin.Context) {
	actor, ok := mustActor(ctx)
	if !ok {
		return
	}

	var req dto.ActivateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}

	result, err := c.activationService.Activate(ctx, actor, services.ActivationRequest{
		ApplicationID: ctx.Param("id"),
		StudentID:     req.StudentID,
		Course:        req.Course,
	})
	if err != nil {
		c.logger.Info().Err(err).Str("applicationID", ctx.Param("id")).Msg("Activation refused")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ActivationResponse{
		Student: dto.NewStudentResponse(result.Student),
		Outcome: string(result.Outcome),
		Created: result.Created,
	}, "Account activated", result.Warnings...))
}
