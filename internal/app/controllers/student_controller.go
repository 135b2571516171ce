package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/careportal/internal/app/models"
	"github.com/yigit/careportal/internal/app/models/dto"
	"github.com/yigit/careportal/internal/app/services"
	"github.com/yigit/careportal/internal/middleware"
)

// StudentController handles student profile operations
type StudentController struct {
	studentService *services.StudentService
	logger         zerolog.Logger
}

// NewStudentController creates a new StudentController
func NewStudentController(studentService *services.StudentService, logger zerolog.Logger) *StudentController {
	return &StudentController{
		studentService: studentService,
		logger:         logger,
	}
}

// GetProfile returns a student profile
// @Summary Get a student profile
// @Description Students may read their own profile; staff may read any.
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student ID"
// @Success 200 {object} dto.APIResponse{data=dto.StudentResponse} "Profile"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/{studentId} [get]
func (c *StudentController) GetProfile(ctx *gin.Context) {
	actor, ok := mustActor(ctx)
	if !ok {
		return
	}

	student, err := c.studentService.GetProfile(ctx, actor, c.studentID(ctx, actor))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewStudentResponse(student), ""))
}

// UpdateProfile edits a student profile
// @Summary Update a student profile
// @Description Students may edit contact fields; staff may also change course, year level, section and status. The write is conditional on version.
// @Tags students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student ID"
// @Param request body dto.UpdateProfileRequest true "Profile changes"
// @Success 200 {object} dto.APIResponse{data=dto.StudentResponse} "Profile updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 409 {object} dto.ErrorResponse "Profile changed concurrently"
// @Router /students/{studentId} [patch]
func (c *StudentController) UpdateProfile(ctx *gin.Context) {
	actor, ok := mustActor(ctx)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}

	update := services.ProfileUpdate{
		ExpectedVersion: req.Version,
		ContactNumber:   req.ContactNumber,
		Address:         req.Address,
		Course:          req.Course,
		YearLevel:       req.YearLevel,
		Section:         req.Section,
	}
	if req.Status != nil {
		status := models.StudentStatus(*req.Status)
		update.Status = &status
	}

	student, err := c.studentService.UpdateProfile(ctx, actor, c.studentID(ctx, actor), update)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewStudentResponse(student), "Profile updated"))
}

// studentID resolves the "me" alias to the acting student.
func (c *StudentController) studentID(ctx *gin.Context, actor models.Actor) string {
	id := ctx.Param("studentId")
	if id == "me" {
		return actor.SubjectID
	}
	return id
}
