package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/careportal/internal/app/models"
	"github.com/yigit/careportal/internal/app/models/dto"
	"github.com/yigit/careportal/internal/middleware"
	"github.com/yigit/careportal/internal/pkg/helpers"
)

// mustActor returns the authenticated actor or answers 401.
func mustActor(ctx *gin.Context) (models.Actor, bool) {
	actor, ok := middleware.ActorFromContext(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return models.Actor{}, false
	}
	return actor, true
}

// paginated wraps a page of items with its pagination info.
func paginated(items interface{}, total int64, page, size int) dto.PaginatedResponse {
	return dto.PaginatedResponse{
		Items:      items,
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}
}

func badQuery(ctx *gin.Context, message string) {
	errorDetail := dto.NewErrorDetail(dto.ErrorCodeBadRequest, "Invalid query parameter").WithDetails(message)
	ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
}
