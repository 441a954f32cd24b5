package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cedarwell/wellspring/internal/app/models/dto"
	"github.com/cedarwell/wellspring/internal/app/services"
	"github.com/cedarwell/wellspring/internal/middleware"
)

// MembershipController handles project membership management
type MembershipController struct {
	membershipService *services.MembershipService
}

// NewMembershipController creates a new MembershipController
func NewMembershipController(membershipService *services.MembershipService) *MembershipController {
	return &MembershipController{membershipService: membershipService}
}

// CreateMembership adds a user to a project
func (c *MembershipController) CreateMembership(ctx *gin.Context) {
	var req dto.CreateMembershipRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err, "membership data")
		return
	}

	m, err := c.membershipService.Create(ctx.Request.Context(), middleware.CurrentUser(ctx), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(toMembershipResponse(m), "Collaborator added"))
}

// UpdateMembership patches a membership's role or pin
func (c *MembershipController) UpdateMembership(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateMembershipRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err, "membership data")
		return
	}

	m, err := c.membershipService.Patch(ctx.Request.Context(), middleware.CurrentUser(ctx), id, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(toMembershipResponse(m), "Membership updated"))
}

// DeleteMembership removes a user from a project
func (c *MembershipController) DeleteMembership(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.membershipService.Remove(ctx.Request.Context(), middleware.CurrentUser(ctx), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Collaborator removed"))
}

// ListProjectMemberships returns the members of a project
func (c *MembershipController) ListProjectMemberships(ctx *gin.Context) {
	projectID, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	memberships, err := c.membershipService.ListByProject(ctx.Request.Context(), middleware.CurrentUser(ctx), projectID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := dto.MembershipListResponse{Memberships: make([]dto.MembershipResponse, 0, len(memberships))}
	for _, m := range memberships {
		resp.Memberships = append(resp.Memberships, toMembershipResponse(m))
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}

// ListOwnMemberships returns the caller's memberships
func (c *MembershipController) ListOwnMemberships(ctx *gin.Context) {
	memberships, err := c.membershipService.ListOwn(ctx.Request.Context(), middleware.CurrentUser(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := dto.MembershipListResponse{Memberships: make([]dto.MembershipResponse, 0, len(memberships))}
	for _, m := range memberships {
		resp.Memberships = append(resp.Memberships, toMembershipResponse(m))
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}
