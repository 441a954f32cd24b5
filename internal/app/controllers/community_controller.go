package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cedarwell/wellspring/internal/app/models/dto"
	"github.com/cedarwell/wellspring/internal/app/services"
	"github.com/cedarwell/wellspring/internal/middleware"
	"github.com/cedarwell/wellspring/internal/pkg/helpers"
)

// CommunityController handles community management
type CommunityController struct {
	communityService *services.CommunityService
	projectService   *services.ProjectService
}

// NewCommunityController creates a new CommunityController
func NewCommunityController(communityService *services.CommunityService, projectService *services.ProjectService) *CommunityController {
	return &CommunityController{
		communityService: communityService,
		projectService:   projectService,
	}
}

// CreateCommunity creates a community
func (c *CommunityController) CreateCommunity(ctx *gin.Context) {
	var req dto.CreateCommunityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err, "community data")
		return
	}

	community, err := c.communityService.Create(ctx.Request.Context(), middleware.CurrentUser(ctx), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(toCommunityResponse(community, 0), "Community created"))
}

// GetCommunity retrieves one community
func (c *CommunityController) GetCommunity(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	community, err := c.communityService.Get(ctx.Request.Context(), middleware.CurrentUser(ctx), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	count, err := c.communityService.ProjectCount(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(toCommunityResponse(community, count), ""))
}

// ListCommunities returns a page of communities
func (c *CommunityController) ListCommunities(ctx *gin.Context) {
	page, pageSize := helpers.ParsePaginationParams(ctx)

	communities, total, err := c.communityService.List(ctx.Request.Context(), middleware.CurrentUser(ctx), page, pageSize)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := dto.CommunityListResponse{
		Communities:    make([]dto.CommunityResponse, 0, len(communities)),
		PaginationInfo: helpers.NewPaginationInfo(total, page, pageSize),
	}
	for _, community := range communities {
		count, err := c.communityService.ProjectCount(ctx.Request.Context(), community.ID)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		resp.Communities = append(resp.Communities, toCommunityResponse(community, count))
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}

// UpdateCommunity patches a community
func (c *CommunityController) UpdateCommunity(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateCommunityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err, "community data")
		return
	}

	community, err := c.communityService.Update(ctx.Request.Context(), middleware.CurrentUser(ctx), id, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	count, err := c.communityService.ProjectCount(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(toCommunityResponse(community, count), "Community updated"))
}

// DeleteCommunity removes a community
func (c *CommunityController) DeleteCommunity(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.communityService.Delete(ctx.Request.Context(), middleware.CurrentUser(ctx), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Community deleted"))
}

// ListCommunityProjects returns a community's projects
func (c *CommunityController) ListCommunityProjects(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	projects, err := c.projectService.ListByCommunity(ctx.Request.Context(), middleware.CurrentUser(ctx), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := make([]dto.ProjectResponse, 0, len(projects))
	for _, p := range projects {
		resp = append(resp, toProjectResponse(p))
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}
