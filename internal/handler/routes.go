package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/eventmgr/checkin-api/internal/middleware"
	"github.com/eventmgr/checkin-api/internal/models"
	"github.com/eventmgr/checkin-api/internal/service"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Auth         *AuthHandler
	Scans        *ScanHandler
	Imports      *ImportHandler
	Participants *ParticipantHandler
	AccessPoints *AccessPointHandler
	TicketAccess *TicketAccessHandler
	Metrics      *MetricsHandler
}

// Register wires all routes under the API prefix. Signed-URL downloads stay
// outside the JWT guard: their token is the credential.
func Register(router *gin.Engine, prefix string, h Handlers, auth *service.AuthService) {
	api := router.Group(prefix)

	api.POST("/auth/login", h.Auth.Login)
	api.GET("/scans/badges", h.Scans.Badge)
	api.GET("/events/:eventID/participants/import/errors", h.Imports.ErrorReport)

	staff := api.Group("")
	staff.Use(middleware.JWT(auth))

	scanners := staff.Group("")
	scanners.Use(middleware.RequireRoles(models.RoleScanner, models.RoleOrganizer, models.RoleAdmin))
	{
		scanners.POST("/events/:eventID/scans", h.Scans.Evaluate)
		scanners.GET("/events/:eventID/access-points/:accessPointID/scans", h.Scans.Recent)
		scanners.GET("/events/:eventID/access-points/:accessPointID/scan-statistics", h.Scans.Statistics)
		scanners.GET("/events/:eventID/access-points/:accessPointID/scan-statistics/export", h.Scans.ExportStatistics)
	}

	organizers := staff.Group("")
	organizers.Use(middleware.RequireRoles(models.RoleOrganizer, models.RoleAdmin))
	{
		organizers.GET("/events/:eventID/participants", h.Participants.List)
		organizers.POST("/events/:eventID/participants", h.Participants.Create)
		organizers.GET("/participants/:id", h.Participants.Get)
		organizers.PUT("/participants/:id", h.Participants.Update)
		organizers.DELETE("/participants/:id", h.Participants.Delete)
		organizers.GET("/participants/:id/credential", h.Participants.Credential)
		organizers.POST("/participants/:id/credential/send", h.Participants.SendCredential)

		organizers.POST("/events/:eventID/participants/import", h.Imports.Upload)
		organizers.GET("/events/:eventID/participants/import/staged-errors", h.Imports.Errors)
		organizers.POST("/events/:eventID/participants/import/commit", h.Imports.Commit)
		organizers.DELETE("/events/:eventID/participants/import", h.Imports.Discard)

		organizers.GET("/events/:eventID/access-points", h.AccessPoints.List)
		organizers.POST("/events/:eventID/access-points", h.AccessPoints.Create)
		organizers.GET("/access-points/:id", h.AccessPoints.Get)
		organizers.PUT("/access-points/:id", h.AccessPoints.Update)
		organizers.DELETE("/access-points/:id", h.AccessPoints.Deactivate)

		organizers.GET("/events/:eventID/ticket-types", h.TicketAccess.ListTicketTypes)
		organizers.GET("/events/:eventID/ticket-types/:ticketTypeID/access-points", h.TicketAccess.Assignments)
		organizers.PUT("/events/:eventID/ticket-types/:ticketTypeID/access-points", h.TicketAccess.SaveAssignments)
	}
}
