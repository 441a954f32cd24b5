package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cedarwell/wellspring/internal/app/models"
	"github.com/cedarwell/wellspring/internal/app/models/dto"
)

// parseUUIDParam reads a UUID path parameter, writing a 400 response itself on
// failure
func parseUUIDParam(ctx *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param(name))
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid "+name).
			WithDetails(name + " must be a valid UUID")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return uuid.Nil, false
	}
	return id, true
}

func bindError(ctx *gin.Context, err error, what string) {
	errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid "+what).
		WithDetails(err.Error())
	ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
}

func toUserResponse(u *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSuperadmin: u.IsSuperadmin,
		IsVerified:   u.IsVerified,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
	}
}

func toUserBasicResponse(u *models.User) *dto.UserBasicResponse {
	if u == nil {
		return nil
	}
	return &dto.UserBasicResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func toMembershipResponse(m *models.ProjectMembership) dto.MembershipResponse {
	return dto.MembershipResponse{
		ID:        m.ID,
		UserID:    m.UserID,
		ProjectID: m.ProjectID,
		Role:      m.Role,
		RoleName:  m.Role.String(),
		Pin:       m.Pin,
		User:      toUserBasicResponse(m.User),
		CreatedAt: m.CreatedAt,
	}
}

func toInvitationResponse(i *models.Invitation) dto.InvitationResponse {
	return dto.InvitationResponse{
		ID:            i.ID,
		Email:         i.Email,
		Role:          i.Role,
		RoleName:      i.Role.String(),
		InvitedUserID: i.InvitedUserID,
		InvitedBy:     i.InvitedBy,
		ProjectID:     i.ProjectID,
		CommunityID:   i.CommunityID,
		AcceptedAt:    i.AcceptedAt,
		CreatedAt:     i.CreatedAt,
	}
}

func toCommunityResponse(c *models.Community, projectCount int) dto.CommunityResponse {
	return dto.CommunityResponse{
		ID:             c.ID,
		Name:           c.Name,
		Area:           c.Area,
		Type:           c.Type,
		Status:         c.Status,
		ShareName:      c.ShareName,
		LicenseExpiry:  c.LicenseExpiry,
		ContactID:      c.ContactID,
		RedcapServerID: c.RedcapServerID,
		ProjectCount:   projectCount,
		CreatedAt:      c.CreatedAt,
	}
}

func toProjectResponse(p *models.Project) dto.ProjectResponse {
	return dto.ProjectResponse{
		ID:                   p.ID,
		CommunityID:          p.CommunityID,
		Name:                 p.Name,
		Description:          p.Description,
		Purpose:              p.Purpose,
		NumberOfParticipants: p.NumberOfParticipants,
		Status:               p.Status,
		RedcapTemplateID:     p.RedcapTemplateID,
		CreatedAt:            p.CreatedAt,
	}
}

func toCommunityAdminResponse(a *models.CommunityAdmin) dto.CommunityAdminResponse {
	return dto.CommunityAdminResponse{
		ID:           a.ID,
		UserID:       a.UserID,
		CommunityID:  a.CommunityID,
		IsFirstLogin: a.IsFirstLogin,
	}
}

func toRedcapServerResponse(s *models.RedcapServer) dto.RedcapServerResponse {
	return dto.RedcapServerResponse{
		ID:        s.ID,
		Name:      s.Name,
		ServerURL: s.ServerURL,
		CreatedAt: s.CreatedAt,
	}
}
