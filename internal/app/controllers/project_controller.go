package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cedarwell/wellspring/internal/app/models/dto"
	"github.com/cedarwell/wellspring/internal/app/services"
	"github.com/cedarwell/wellspring/internal/middleware"
)

// ProjectController handles project management and survey-record transfer
type ProjectController struct {
	projectService *services.ProjectService
	recordService  *services.SurveyRecordService
}

// NewProjectController creates a new ProjectController
func NewProjectController(projectService *services.ProjectService, recordService *services.SurveyRecordService) *ProjectController {
	return &ProjectController{
		projectService: projectService,
		recordService:  recordService,
	}
}

// CreateProject creates a project in a community
func (c *ProjectController) CreateProject(ctx *gin.Context) {
	var req dto.CreateProjectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err, "project data")
		return
	}

	project, err := c.projectService.Create(ctx.Request.Context(), middleware.CurrentUser(ctx), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(toProjectResponse(project), "Project created"))
}

// GetProject retrieves one project
func (c *ProjectController) GetProject(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	project, err := c.projectService.Get(ctx.Request.Context(), middleware.CurrentUser(ctx), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(toProjectResponse(project), ""))
}

// UpdateProject patches a project
func (c *ProjectController) UpdateProject(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateProjectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err, "project data")
		return
	}

	project, err := c.projectService.Update(ctx.Request.Context(), middleware.CurrentUser(ctx), id, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(toProjectResponse(project), "Project updated"))
}

// DeleteProject removes a project
func (c *ProjectController) DeleteProject(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.projectService.Delete(ctx.Request.Context(), middleware.CurrentUser(ctx), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Project deleted"))
}

// ExportRecords pulls the project's survey records from REDCap in canonical
// form
func (c *ProjectController) ExportRecords(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	records, err := c.recordService.Export(ctx.Request.Context(), middleware.CurrentUser(ctx), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SurveyRecordsResponse{Records: records}, ""))
}

// ImportRecords pushes canonical survey records into the project's REDCap
// project
func (c *ProjectController) ImportRecords(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.ImportRecordsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err, "records")
		return
	}

	count, err := c.recordService.Import(ctx.Request.Context(), middleware.CurrentUser(ctx), id, req.Records)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ImportRecordsResponse{Count: count}, "Records imported"))
}
