package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/localpro-market/service-booking/internal/application"
	"github.com/localpro-market/service-booking/internal/platform/auth"
	"github.com/localpro-market/service-booking/internal/platform/middleware"
	"github.com/localpro-market/service-booking/internal/platform/response"
)

// RequestHandler handles HTTP requests for service requests.
type RequestHandler struct {
	service *application.RequestService
}

// NewRequestHandler creates a new RequestHandler.
func NewRequestHandler(service *application.RequestService) *RequestHandler {
	return &RequestHandler{service: service}
}

// RegisterRoutes registers request routes.
func (h *RequestHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager, limit gin.HandlerFunc) {
	limit = orPassThrough(limit)

	requests := r.Group("/api/v1/requests")
	requests.Use(middleware.AuthMiddleware(jwtManager))
	{
		requests.POST("", middleware.RequireRole(auth.RoleClient), limit, h.CreateRequest)
		requests.GET("", h.ListRequests)
		requests.GET("/:id", h.GetRequest)
		requests.POST("/:id/cancel", middleware.RequireRole(auth.RoleClient), limit, h.CancelRequest)
	}
}

// CreateRequest handles POST /api/v1/requests.
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req application.CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateRequest(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListRequests handles GET /api/v1/requests. Clients get their own postings; providers and
// admins get the open market.
func (h *RequestHandler) ListRequests(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	page, limit := parsePagination(c)

	if actor.Role == auth.RoleClient {
		result, err := h.service.ListClientRequests(c.Request.Context(), actor.UserID, page, limit)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
		return
	}

	result, err := h.service.ListOpenRequests(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetRequest handles GET /api/v1/requests/:id.
func (h *RequestHandler) GetRequest(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	requestID, ok := pathID(c, "request")
	if !ok {
		return
	}

	result, err := h.service.GetRequest(c.Request.Context(), actor, requestID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CancelRequest handles POST /api/v1/requests/:id/cancel.
func (h *RequestHandler) CancelRequest(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	requestID, ok := pathID(c, "request")
	if !ok {
		return
	}

	result, err := h.service.CancelRequest(c.Request.Context(), actor, requestID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
