package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/cedarwell/wellspring/internal/app/controllers"
	"github.com/cedarwell/wellspring/internal/app/models/dto"
	"github.com/cedarwell/wellspring/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	communityController *controllers.CommunityController,
	projectController *controllers.ProjectController,
	membershipController *controllers.MembershipController,
	invitationController *controllers.InvitationController,
	adminController *controllers.CommunityAdminController,
	redcapController *controllers.RedcapController,
	authMiddleware *middleware.AuthMiddleware,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/refresh", authController.RefreshToken)
		auth.GET("/verify-email", authController.VerifyEmail)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	// Profile stays reachable for unverified users; invitation acceptance too,
	// since accepting an invitation is itself what verifies an invited account.
	authenticated.GET("/auth/profile", authController.Profile)
	authenticated.PATCH("/invitations/:id", invitationController.UpdateInvitation)

	verified := authenticated.Group("")
	verified.Use(authMiddleware.VerifiedRequired())
	{
		// Community routes
		communities := verified.Group("/communities")
		{
			// Non-superadmins get the communities they administer
			communities.GET("", communityController.ListCommunities)
			communities.GET("/:id", communityController.GetCommunity)
			communities.GET("/:id/projects", communityController.ListCommunityProjects)

			// Superadmin-only community administration
			communitiesSuperadmin := communities.Group("")
			communitiesSuperadmin.Use(authMiddleware.SuperadminRequired())
			{
				communitiesSuperadmin.POST("", communityController.CreateCommunity)
				communitiesSuperadmin.PATCH("/:id", communityController.UpdateCommunity)
				communitiesSuperadmin.DELETE("/:id", communityController.DeleteCommunity)
				communitiesSuperadmin.GET("/:id/admins", adminController.ListCommunityAdmins)
			}
		}

		// Project routes
		projects := verified.Group("/projects")
		{
			projects.POST("", projectController.CreateProject)
			projects.GET("/:id", projectController.GetProject)
			projects.PATCH("/:id", projectController.UpdateProject)
			projects.DELETE("/:id", projectController.DeleteProject)

			// Membership and invitation views scoped to a project
			projects.GET("/:id/memberships", membershipController.ListProjectMemberships)
			projects.GET("/:id/invitations", invitationController.ListProjectInvitations)

			// Survey record exchange with the linked REDCap project
			projects.GET("/:id/records", projectController.ExportRecords)
			projects.POST("/:id/records", projectController.ImportRecords)
		}

		// Membership routes
		memberships := verified.Group("/memberships")
		{
			memberships.GET("", membershipController.ListOwnMemberships)
			memberships.POST("", membershipController.CreateMembership)
			memberships.PATCH("/:id", membershipController.UpdateMembership)
			memberships.DELETE("/:id", membershipController.DeleteMembership)
		}

		// Invitation routes (acceptance is registered above, pre-verification)
		invitations := verified.Group("/invitations")
		{
			invitations.POST("", invitationController.CreateInvitation)
			invitations.DELETE("/:id", invitationController.DeleteInvitation)
		}

		// Community admin registry
		admins := verified.Group("/community-admins")
		{
			admins.GET("", adminController.ListOwnCommunityAdmins)
			admins.PATCH("/:id", adminController.UpdateCommunityAdmin)

			adminsSuperadmin := admins.Group("")
			adminsSuperadmin.Use(authMiddleware.SuperadminRequired())
			{
				adminsSuperadmin.POST("", adminController.CreateCommunityAdmin)
				adminsSuperadmin.DELETE("/:id", adminController.DeleteCommunityAdmin)
			}
		}

		// REDCap administration (superadmin only, enforced again in the service layer)
		redcap := verified.Group("/redcap")
		redcap.Use(authMiddleware.SuperadminRequired())
		{
			redcap.POST("/check-connection", redcapController.CheckConnection)
			redcap.GET("/servers", redcapController.ListServers)
			redcap.POST("/servers", redcapController.CreateServer)
			redcap.PATCH("/servers/:id", redcapController.UpdateServer)
			redcap.DELETE("/servers/:id", redcapController.DeleteServer)
			redcap.GET("/servers/:id/templates", redcapController.ListTemplates)
			redcap.POST("/servers/:id/templates", redcapController.CreateTemplate)
			redcap.DELETE("/templates/:id", redcapController.DeleteTemplate)
		}
	}

	// Health check endpoint (public)
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(200, dto.APIResponse{
			Data: gin.H{"status": "ok"},
		})
	})
}
