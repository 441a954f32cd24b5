package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cedarwell/wellspring/internal/app/models/dto"
	"github.com/cedarwell/wellspring/internal/app/services"
	"github.com/cedarwell/wellspring/internal/middleware"
)

// CommunityAdminController handles the community admin registry
type CommunityAdminController struct {
	adminService *services.CommunityAdminService
}

// NewCommunityAdminController creates a new CommunityAdminController
func NewCommunityAdminController(adminService *services.CommunityAdminService) *CommunityAdminController {
	return &CommunityAdminController{adminService: adminService}
}

// CreateCommunityAdmin promotes a user to community admin (superadmin only)
func (c *CommunityAdminController) CreateCommunityAdmin(ctx *gin.Context) {
	var req dto.CreateCommunityAdminRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err, "community admin data")
		return
	}

	admin, err := c.adminService.Create(ctx.Request.Context(), middleware.CurrentUser(ctx), req.UserID, req.CommunityID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(toCommunityAdminResponse(admin), "Community admin added"))
}

// UpdateCommunityAdmin clears or sets the first-login flag on the caller's own record
func (c *CommunityAdminController) UpdateCommunityAdmin(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateCommunityAdminRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err, "community admin data")
		return
	}

	admin, err := c.adminService.SetFirstLogin(ctx.Request.Context(), middleware.CurrentUser(ctx), id, *req.IsFirstLogin)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(toCommunityAdminResponse(admin), "Community admin updated"))
}

// DeleteCommunityAdmin revokes a user's community admin status (superadmin only)
func (c *CommunityAdminController) DeleteCommunityAdmin(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.adminService.Remove(ctx.Request.Context(), middleware.CurrentUser(ctx), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Community admin removed"))
}

// ListOwnCommunityAdmins returns the communities the caller administers
func (c *CommunityAdminController) ListOwnCommunityAdmins(ctx *gin.Context) {
	admins, err := c.adminService.ListOwn(ctx.Request.Context(), middleware.CurrentUser(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := make([]dto.CommunityAdminResponse, 0, len(admins))
	for _, admin := range admins {
		resp = append(resp, toCommunityAdminResponse(admin))
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}

// ListCommunityAdmins returns the admins of a community (superadmin only)
func (c *CommunityAdminController) ListCommunityAdmins(ctx *gin.Context) {
	communityID, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	admins, err := c.adminService.ListByCommunity(ctx.Request.Context(), middleware.CurrentUser(ctx), communityID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := make([]dto.CommunityAdminResponse, 0, len(admins))
	for _, admin := range admins {
		resp = append(resp, toCommunityAdminResponse(admin))
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}
