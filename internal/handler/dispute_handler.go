package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/localpro-market/service-booking/internal/application"
	"github.com/localpro-market/service-booking/internal/platform/auth"
	"github.com/localpro-market/service-booking/internal/platform/middleware"
	"github.com/localpro-market/service-booking/internal/platform/response"
)

// DisputeHandler handles HTTP requests for disputes.
type DisputeHandler struct {
	service *application.DisputeService
}

// NewDisputeHandler creates a new DisputeHandler.
func NewDisputeHandler(service *application.DisputeService) *DisputeHandler {
	return &DisputeHandler{service: service}
}

// RegisterRoutes registers dispute routes.
func (h *DisputeHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager, limit gin.HandlerFunc) {
	authMW := middleware.AuthMiddleware(jwtManager)
	limit = orPassThrough(limit)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("/:id/dispute", middleware.RequireRole(auth.RoleClient, auth.RoleProvider), limit, h.OpenDispute)
	}

	disputes := r.Group("/api/v1/disputes")
	disputes.Use(authMW)
	{
		disputes.GET("/:id", h.GetDispute)
		disputes.POST("/:id/resolve", middleware.RequireRole(auth.RoleAdmin), h.ResolveDispute)
	}
}

// OpenDispute handles POST /api/v1/bookings/:id/dispute.
func (h *DisputeHandler) OpenDispute(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	bookingID, ok := pathID(c, "booking")
	if !ok {
		return
	}

	var req application.OpenDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.OpenDispute(c.Request.Context(), actor, bookingID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// GetDispute handles GET /api/v1/disputes/:id.
func (h *DisputeHandler) GetDispute(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	disputeID, ok := pathID(c, "dispute")
	if !ok {
		return
	}

	result, err := h.service.GetDispute(c.Request.Context(), actor, disputeID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ResolveDispute handles POST /api/v1/disputes/:id/resolve.
func (h *DisputeHandler) ResolveDispute(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	disputeID, ok := pathID(c, "dispute")
	if !ok {
		return
	}

	var req application.ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.ResolveDispute(c.Request.Context(), actor, disputeID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
