package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cedarwell/wellspring/internal/app/models/dto"
	"github.com/cedarwell/wellspring/internal/app/services"
	"github.com/cedarwell/wellspring/internal/middleware"
)

// InvitationController handles the invitation ledger
type InvitationController struct {
	invitationService *services.InvitationService
}

// NewInvitationController creates a new InvitationController
func NewInvitationController(invitationService *services.InvitationService) *InvitationController {
	return &InvitationController{invitationService: invitationService}
}

// CreateInvitation issues an invitation to a project
func (c *InvitationController) CreateInvitation(ctx *gin.Context) {
	var req dto.CreateInvitationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err, "invitation data")
		return
	}

	invite, err := c.invitationService.Create(ctx.Request.Context(), middleware.CurrentUser(ctx), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(toInvitationResponse(invite), "Invitation sent"))
}

// UpdateInvitation patches an invitation: either an acceptance by the invitee
// or a role change by a project coordinator
func (c *InvitationController) UpdateInvitation(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateInvitationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err, "invitation data")
		return
	}

	actor := middleware.CurrentUser(ctx)

	if req.Accept {
		invite, err := c.invitationService.Accept(ctx.Request.Context(), actor, id)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, dto.NewSuccessResponse(toInvitationResponse(invite), "Invitation accepted"))
		return
	}

	if req.Role == nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Nothing to patch").
			WithDetails("provide projectRole or accept")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	invite, err := c.invitationService.PatchRole(ctx.Request.Context(), actor, id, *req.Role)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(toInvitationResponse(invite), "Invitation updated"))
}

// DeleteInvitation withdraws a pending invitation
func (c *InvitationController) DeleteInvitation(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.invitationService.Remove(ctx.Request.Context(), middleware.CurrentUser(ctx), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Invitation withdrawn"))
}

// ListProjectInvitations returns the open invitations visible from a project
func (c *InvitationController) ListProjectInvitations(ctx *gin.Context) {
	projectID, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	invitations, err := c.invitationService.ListForProject(ctx.Request.Context(), middleware.CurrentUser(ctx), projectID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := dto.InvitationListResponse{Invitations: make([]dto.InvitationResponse, 0, len(invitations))}
	for _, invite := range invitations {
		resp.Invitations = append(resp.Invitations, toInvitationResponse(invite))
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}
