package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/careportal/internal/app/catalog"
	"github.com/yigit/careportal/internal/app/feed"
	"github.com/yigit/careportal/internal/app/models/dto"
	"github.com/yigit/careportal/internal/pkg/websocket"
)

// FeedController serves the materialized view of the change feed and the
// department catalog.
type FeedController struct {
	view *feed.View
}

// NewFeedController creates a new FeedController
func NewFeedController(view *feed.View) *FeedController {
	return &FeedController{view: view}
}

// Snapshot returns the latest state of every record in a table
// @Summary Feed snapshot
// @Description Latest known version of each record, for clients that connect after changes were broadcast. Students and applicants only see their own records.
// @Tags feed
// @Produce json
// @Security BearerAuth
// @Param table path string true "Table" Enums(referral_requests, students, applications)
// @Param owner query string false "Owner filter (staff only)"
// @Success 200 {object} dto.APIResponse{data=[]feed.Entry} "Snapshot"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /feed/{table} [get]
func (c *FeedController) Snapshot(ctx *gin.Context) {
	actor, ok := mustActor(ctx)
	if !ok {
		return
	}

	table, owner, allowed := websocket.Subscription(actor, ctx.Param("table"), ctx.Query("owner"))
	if !allowed {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeForbidden, "Access denied").
			WithDetails("feed " + ctx.Param("table") + " is not available to this role")
		ctx.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(errorDetail))
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(c.view.Snapshot(table, owner), ""))
}

// Departments lists the department catalog
// @Summary List departments
// @Tags departments
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]dto.DepartmentResponse} "Departments"
// @Router /departments [get]
func (c *FeedController) Departments(ctx *gin.Context) {
	names := catalog.Departments()
	out := make([]dto.DepartmentResponse, 0, len(names))
	for _, name := range names {
		out = append(out, dto.DepartmentResponse{Name: name})
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(out, ""))
}
