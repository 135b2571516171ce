package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/yigit/careportal/internal/app/models/dto"
	"github.com/yigit/careportal/internal/pkg/apperrors"
)

type errorMapping struct {
	target  error
	status  int
	code    dto.ErrorCode
	message string
}

// errorMappings is checked in order; the first sentinel in the chain wins.
var errorMappings = []errorMapping{
	{apperrors.ErrKeyNotFound, http.StatusNotFound, dto.ErrorCodeKeyNotFound, "Enrollment key not found"},
	{apperrors.ErrCourseMismatch, http.StatusUnprocessableEntity, dto.ErrorCodeCourseMismatch, "Course mismatch"},
	{apperrors.ErrConflictOwnedByOther, http.StatusConflict, dto.ErrorCodeOwnedByOther, "Student ID already claimed"},
	{apperrors.ErrNotEligible, http.StatusUnprocessableEntity, dto.ErrorCodeNotEligible, "Application not eligible"},
	{apperrors.ErrInvalidStateTransition, http.StatusUnprocessableEntity, dto.ErrorCodeInvalidTransition, "Invalid state transition"},
	{apperrors.ErrWriteConflict, http.StatusConflict, dto.ErrorCodeWriteConflict, "Record changed concurrently"},
	{apperrors.ErrAlreadyRated, http.StatusConflict, dto.ErrorCodeAlreadyRated, "Request already rated"},
	{apperrors.ErrResourceNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found"},
	{apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied"},
	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid credentials"},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired"},
	{apperrors.ErrTokenInvalid, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token"},
	{apperrors.ErrValidationFailed, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed"},
	{apperrors.ErrBadRequest, http.StatusBadRequest, dto.ErrorCodeBadRequest, "Bad request"},
	{apperrors.ErrResourceAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Resource already exists"},
	{apperrors.ErrConflict, http.StatusConflict, dto.ErrorCodeConflict, "Conflict"},
}

// HandleAPIError maps err onto the error taxonomy and writes the response
func HandleAPIError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		detail := dto.NewErrorDetail(m.code, m.message).WithDetails(err.Error())
		if reason := apperrors.CodeOf(err); reason != "" {
			detail = detail.WithDetails(map[string]string{"reason": reason, "message": err.Error()})
		}
		c.AbortWithStatusJSON(m.status, dto.NewErrorResponse(detail))
		return
	}

	log.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled error")
	c.AbortWithStatusJSON(http.StatusInternalServerError,
		dto.NewErrorResponse(dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")))
}

// HandleBindingError answers a request whose body or query failed to bind
func HandleBindingError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
}
