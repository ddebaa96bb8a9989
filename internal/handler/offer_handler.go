package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/localpro-market/service-booking/internal/application"
	"github.com/localpro-market/service-booking/internal/platform/auth"
	"github.com/localpro-market/service-booking/internal/platform/middleware"
	"github.com/localpro-market/service-booking/internal/platform/response"
)

// OfferHandler handles HTTP requests for offers.
type OfferHandler struct {
	service *application.OfferService
}

// NewOfferHandler creates a new OfferHandler.
func NewOfferHandler(service *application.OfferService) *OfferHandler {
	return &OfferHandler{service: service}
}

// RegisterRoutes registers offer routes, including those nested under a request.
func (h *OfferHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager, limit gin.HandlerFunc) {
	authMW := middleware.AuthMiddleware(jwtManager)
	limit = orPassThrough(limit)

	requests := r.Group("/api/v1/requests")
	requests.Use(authMW)
	{
		requests.GET("/:id/offers", h.ListRequestOffers)
		requests.POST("/:id/offers", middleware.RequireRole(auth.RoleProvider), limit, h.SubmitOffer)
	}

	offers := r.Group("/api/v1/offers")
	offers.Use(authMW)
	{
		offers.GET("", middleware.RequireRole(auth.RoleProvider), h.ListProviderOffers)
		offers.POST("/:id/accept", middleware.RequireRole(auth.RoleClient), limit, h.AcceptOffer)
		offers.POST("/:id/reject", middleware.RequireRole(auth.RoleClient), limit, h.RejectOffer)
		offers.POST("/:id/withdraw", middleware.RequireRole(auth.RoleProvider), limit, h.WithdrawOffer)
	}
}

// SubmitOffer handles POST /api/v1/requests/:id/offers.
func (h *OfferHandler) SubmitOffer(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	requestID, ok := pathID(c, "request")
	if !ok {
		return
	}

	var req application.SubmitOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.SubmitOffer(c.Request.Context(), actor, requestID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListRequestOffers handles GET /api/v1/requests/:id/offers.
func (h *OfferHandler) ListRequestOffers(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	requestID, ok := pathID(c, "request")
	if !ok {
		return
	}

	result, err := h.service.ListRequestOffers(c.Request.Context(), actor, requestID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListProviderOffers handles GET /api/v1/offers.
func (h *OfferHandler) ListProviderOffers(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	page, limit := parsePagination(c)
	result, err := h.service.ListProviderOffers(c.Request.Context(), actor.UserID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// AcceptOffer handles POST /api/v1/offers/:id/accept.
func (h *OfferHandler) AcceptOffer(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	offerID, ok := pathID(c, "offer")
	if !ok {
		return
	}

	result, err := h.service.AcceptOffer(c.Request.Context(), actor, offerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RejectOffer handles POST /api/v1/offers/:id/reject.
func (h *OfferHandler) RejectOffer(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	offerID, ok := pathID(c, "offer")
	if !ok {
		return
	}

	result, err := h.service.RejectOffer(c.Request.Context(), actor, offerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// WithdrawOffer handles POST /api/v1/offers/:id/withdraw.
func (h *OfferHandler) WithdrawOffer(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	offerID, ok := pathID(c, "offer")
	if !ok {
		return
	}

	result, err := h.service.WithdrawOffer(c.Request.Context(), actor, offerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
