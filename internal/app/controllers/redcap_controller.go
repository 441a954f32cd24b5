package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cedarwell/wellspring/internal/app/models"
	"github.com/cedarwell/wellspring/internal/app/models/dto"
	"github.com/cedarwell/wellspring/internal/app/services"
	"github.com/cedarwell/wellspring/internal/middleware"
)

// RedcapController handles REDCap server and template administration
type RedcapController struct {
	redcapService *services.RedcapService
}

// NewRedcapController creates a new RedcapController
func NewRedcapController(redcapService *services.RedcapService) *RedcapController {
	return &RedcapController{redcapService: redcapService}
}

func toRedcapTemplateResponse(t *models.RedcapTemplate) dto.RedcapTemplateResponse {
	return dto.RedcapTemplateResponse{
		ID:             t.ID,
		Name:           t.Name,
		RedcapServerID: t.RedcapServerID,
		CreatedAt:      t.CreatedAt,
	}
}

// CheckConnection probes a REDCap server (supertoken) or project (token) connection
func (c *RedcapController) CheckConnection(ctx *gin.Context) {
	var req dto.ConnectionCheckRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err, "connection data")
		return
	}

	actor := middleware.CurrentUser(ctx)

	var (
		ok  bool
		err error
	)
	if req.Supertoken != "" {
		ok, err = c.redcapService.CheckServerConnection(ctx.Request.Context(), actor, req.ServerURL, req.Supertoken)
	} else {
		ok, err = c.redcapService.CheckProjectConnection(ctx.Request.Context(), actor, req.ServerURL, req.Token)
	}
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ConnectionCheckResponse{Result: ok}, ""))
}

// CreateServer registers a REDCap server
func (c *RedcapController) CreateServer(ctx *gin.Context) {
	var req dto.CreateRedcapServerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err, "server data")
		return
	}

	server, err := c.redcapService.CreateServer(ctx.Request.Context(), middleware.CurrentUser(ctx), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(toRedcapServerResponse(server), "REDCap server registered"))
}

// ListServers returns all registered REDCap servers
func (c *RedcapController) ListServers(ctx *gin.Context) {
	servers, err := c.redcapService.ListServers(ctx.Request.Context(), middleware.CurrentUser(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := make([]dto.RedcapServerResponse, 0, len(servers))
	for _, server := range servers {
		resp = append(resp, toRedcapServerResponse(server))
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}

// UpdateServer patches a REDCap server registration
func (c *RedcapController) UpdateServer(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateRedcapServerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err, "server data")
		return
	}

	server, err := c.redcapService.UpdateServer(ctx.Request.Context(), middleware.CurrentUser(ctx), id, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(toRedcapServerResponse(server), "REDCap server updated"))
}

// DeleteServer removes a REDCap server registration
func (c *RedcapController) DeleteServer(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.redcapService.DeleteServer(ctx.Request.Context(), middleware.CurrentUser(ctx), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "REDCap server removed"))
}

// ListTemplates returns the template projects registered on a server
func (c *RedcapController) ListTemplates(ctx *gin.Context) {
	serverID, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	templates, err := c.redcapService.ListTemplates(ctx.Request.Context(), middleware.CurrentUser(ctx), serverID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := make([]dto.RedcapTemplateResponse, 0, len(templates))
	for _, t := range templates {
		resp = append(resp, toRedcapTemplateResponse(t))
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}

// CreateTemplate registers a template project on a server
func (c *RedcapController) CreateTemplate(ctx *gin.Context) {
	serverID, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.CreateRedcapTemplateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err, "template data")
		return
	}

	template, err := c.redcapService.CreateTemplate(ctx.Request.Context(), middleware.CurrentUser(ctx), serverID, req.Name, req.Token)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(toRedcapTemplateResponse(template), "Template registered"))
}

// DeleteTemplate removes a template registration
func (c *RedcapController) DeleteTemplate(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.redcapService.DeleteTemplate(ctx.Request.Context(), middleware.CurrentUser(ctx), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Template removed"))
}
