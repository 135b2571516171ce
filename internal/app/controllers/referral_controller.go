package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/careportal/internal/app/models"
	"github.com/yigit/careportal/internal/app/models/dto"
	"github.com/yigit/careportal/internal/app/services"
	"github.com/yigit/careportal/internal/middleware"
	"github.com/yigit/careportal/internal/pkg/helpers"
)

// ReferralController handles counseling and support requests
type ReferralController struct {
	referralService *services.ReferralService
	logger          zerolog.Logger
}

// NewReferralController creates a new ReferralController
func NewReferralController(referralService *services.ReferralService, logger zerolog.Logger) *ReferralController {
	return &ReferralController{
		referralService: referralService,
		logger:          logger,
	}
}

// Submit creates a new request for the acting student
// @Summary Submit a request
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SubmitReferralRequest true "Request details"
// @Success 201 {object} dto.APIResponse{data=dto.ReferralResponse} "Request submitted"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 403 {object} dto.ErrorResponse "Only students may submit"
// @Router /requests [post]
func (c *ReferralController) Submit(ctx *gin.Context) {
	actor, ok := mustActor(ctx)
	if !ok {
		return
	}

	var req dto.SubmitReferralRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}
	kind, _ := models.ParseRequestKind(req.Kind)

	result, err := c.referralService.Submit(ctx, actor, services.SubmitInput{
		Kind:        kind,
		Category:    req.Category,
		Reason:      req.Reason,
		Description: req.Description,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewReferralResponse(result.Request), "Request submitted", result.Warnings...))
}

// Forward refers a request to the CARE Center
// @Summary Forward a request
// @Description Department referrers move a submitted or pending request to Referred. Repeating the call is a no-op.
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param request body dto.ForwardReferralRequest false "Referral notes"
// @Success 200 {object} dto.APIResponse{data=dto.ReferralResponse} "Request referred"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 409 {object} dto.ErrorResponse "Request changed concurrently"
// @Failure 422 {object} dto.ErrorResponse "Invalid state transition"
// @Router /requests/{id}/forward [post]
func (c *ReferralController) Forward(ctx *gin.Context) {
	actor, ok := mustActor(ctx)
	if !ok {
		return
	}

	var req dto.ForwardReferralRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			middleware.HandleBindingError(ctx, err)
			return
		}
	}

	result, err := c.referralService.Forward(ctx, actor, ctx.Param("id"), services.ForwardInput{
		Notes:      req.Notes,
		Department: req.Department,
	})
	c.respond(ctx, result, err, "Request referred")
}

// Schedule sets the session date
// @Summary Schedule a session
// @Description CARE staff produce Scheduled; department referrers produce Staff Scheduled.
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param request body dto.ScheduleReferralRequest true "Session date"
// @Success 200 {object} dto.APIResponse{data=dto.ReferralResponse} "Session scheduled"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 409 {object} dto.ErrorResponse "Request changed concurrently"
// @Failure 422 {object} dto.ErrorResponse "Invalid state transition"
// @Router /requests/{id}/schedule [post]
func (c *ReferralController) Schedule(ctx *gin.Context) {
	actor, ok := mustActor(ctx)
	if !ok {
		return
	}

	var req dto.ScheduleReferralRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}

	result, err := c.referralService.Schedule(ctx, actor, ctx.Param("id"), req.ScheduledDate)
	c.respond(ctx, result, err, "Session scheduled")
}

// Complete closes a scheduled request
// @Summary Complete a request
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param request body dto.ResolveReferralRequest false "Resolution notes"
// @Success 200 {object} dto.APIResponse{data=dto.ReferralResponse} "Request completed"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 409 {object} dto.ErrorResponse "Request changed concurrently"
// @Failure 422 {object} dto.ErrorResponse "Invalid state transition"
// @Router /requests/{id}/complete [post]
func (c *ReferralController) Complete(ctx *gin.Context) {
	actor, ok := mustActor(ctx)
	if !ok {
		return
	}
	req, ok := c.bindResolution(ctx)
	if !ok {
		return
	}
	result, err := c.referralService.Complete(ctx, actor, ctx.Param("id"), req.Notes)
	c.respond(ctx, result, err, "Request completed")
}

// Reject closes a submitted or referred request
// @Summary Reject a request
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param request body dto.ResolveReferralRequest false "Rejection notes"
// @Success 200 {object} dto.APIResponse{data=dto.ReferralResponse} "Request rejected"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 409 {object} dto.ErrorResponse "Request changed concurrently"
// @Failure 422 {object} dto.ErrorResponse "Invalid state transition"
// @Router /requests/{id}/reject [post]
func (c *ReferralController) Reject(ctx *gin.Context) {
	actor, ok := mustActor(ctx)
	if !ok {
		return
	}
	req, ok := c.bindResolution(ctx)
	if !ok {
		return
	}
	result, err := c.referralService.Reject(ctx, actor, ctx.Param("id"), req.Notes)
	c.respond(ctx, result, err, "Request rejected")
}

func (c *ReferralController) bindResolution(ctx *gin.Context) (dto.ResolveReferralRequest, bool) {
	var req dto.ResolveReferralRequest
	if ctx.Request.ContentLength == 0 {
		return req, true
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return req, false
	}
	return req, true
}

// Rate records the student's rating of a completed request
// @Summary Rate a request
// @Description Allowed once per completed request.
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param request body dto.RateReferralRequest true "Rating"
// @Success 200 {object} dto.APIResponse{data=dto.ReferralResponse} "Rating saved"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 409 {object} dto.ErrorResponse "Already rated"
// @Failure 422 {object} dto.ErrorResponse "Request not completed"
// @Router /requests/{id}/rate [post]
func (c *ReferralController) Rate(ctx *gin.Context) {
	actor, ok := mustActor(ctx)
	if !ok {
		return
	}

	var req dto.RateReferralRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}

	result, err := c.referralService.Rate(ctx, actor, ctx.Param("id"), req.Rating, req.Feedback)
	c.respond(ctx, result, err, "Rating saved")
}

func (c *ReferralController) respond(ctx *gin.Context, result *services.TransitionResult, err error, message string) {
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if result.Unchanged {
		message = "No change"
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewReferralResponse(result.Request), message, result.Warnings...))
}

// Get returns one request
// @Summary Get a request
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} dto.APIResponse{data=dto.ReferralResponse} "Request"
// @Failure 404 {object} dto.ErrorResponse "Request not found"
// @Router /requests/{id} [get]
func (c *ReferralController) Get(ctx *gin.Context) {
	actor, ok := mustActor(ctx)
	if !ok {
		return
	}
	req, err := c.referralService.Get(ctx, actor, ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewReferralResponse(req), ""))
}

// ListMine returns the acting student's requests
// @Summary List my requests
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param kind query string false "Request kind" Enums(COUNSELING, SUPPORT)
// @Param status query string false "Status code or label"
// @Param page query int false "Page number (1-based)"
// @Param size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]dto.ReferralResponse}} "Requests"
// @Router /requests/mine [get]
func (c *ReferralController) ListMine(ctx *gin.Context) {
	c.list(ctx, c.referralService.ListForStudent)
}

// List returns the console listing
// @Summary List requests
// @Description Staff console listing, newest first.
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param kind query string false "Request kind" Enums(COUNSELING, SUPPORT)
// @Param status query string false "Status code or label"
// @Param studentId query string false "Student ID"
// @Param page query int false "Page number (1-based)"
// @Param size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]dto.ReferralResponse}} "Requests"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /requests [get]
func (c *ReferralController) List(ctx *gin.Context) {
	c.list(ctx, c.referralService.List)
}

type referralLister func(ctx context.Context, actor models.Actor, filter models.ReferralFilter) ([]*models.ReferralRequest, int64, error)

func (c *ReferralController) list(ctx *gin.Context, lister referralLister) {
	actor, ok := mustActor(ctx)
	if !ok {
		return
	}

	page, size := helpers.ParsePaginationParams(ctx)
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	filter := models.ReferralFilter{
		StudentID: ctx.Query("studentId"),
		Offset:    offset,
		Limit:     limit,
	}
	if raw := ctx.Query("kind"); raw != "" {
		kind, ok := models.ParseRequestKind(raw)
		if !ok {
			badQuery(ctx, "unknown request kind "+raw)
			return
		}
		filter.Kind = kind
	}
	if raw := ctx.Query("status"); raw != "" {
		status, ok := models.ParseRequestStatus(raw)
		if !ok {
			badQuery(ctx, "unknown request status "+raw)
			return
		}
		filter.Status = status
	}

	items, total, err := lister(ctx, actor, filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(paginated(dto.NewReferralResponses(items), total, page, limit), ""))
}
