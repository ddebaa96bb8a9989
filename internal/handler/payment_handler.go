package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/localpro-market/service-booking/internal/application"
	"github.com/localpro-market/service-booking/internal/platform/auth"
	"github.com/localpro-market/service-booking/internal/platform/middleware"
	"github.com/localpro-market/service-booking/internal/platform/response"
)

// PaymentHandler handles HTTP requests for booking payments.
type PaymentHandler struct {
	payments *application.PaymentService
	fees     *application.FeeService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(payments *application.PaymentService, fees *application.FeeService) *PaymentHandler {
	return &PaymentHandler{payments: payments, fees: fees}
}

// RegisterRoutes registers payment routes under a booking.
func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager, limit gin.HandlerFunc) {
	limit = orPassThrough(limit)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(middleware.AuthMiddleware(jwtManager))
	{
		bookings.GET("/:id/payment", h.GetPayment)
		bookings.POST("/:id/payment", middleware.RequireRole(auth.RoleClient), limit, h.ChoosePaymentMethod)
		bookings.POST("/:id/payment/confirm-online", middleware.RequireRole(auth.RoleClient), limit, h.ConfirmOnlinePayment)
		bookings.POST("/:id/payment/confirm-cash", middleware.RequireRole(auth.RoleProvider), limit, h.ConfirmCashPayment)
	}
}

// ChoosePaymentMethod handles POST /api/v1/bookings/:id/payment.
func (h *PaymentHandler) ChoosePaymentMethod(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	bookingID, ok := pathID(c, "booking")
	if !ok {
		return
	}

	var req application.ChoosePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	snap, err := h.fees.ActiveSnapshot(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	result, created, err := h.payments.ChoosePaymentMethod(c.Request.Context(), actor, bookingID, req, snap)
	if err != nil {
		response.Error(c, err)
		return
	}

	if !created {
		response.Success(c, result)
		return
	}
	response.Created(c, result)
}

// ConfirmOnlinePayment handles POST /api/v1/bookings/:id/payment/confirm-online.
func (h *PaymentHandler) ConfirmOnlinePayment(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	bookingID, ok := pathID(c, "booking")
	if !ok {
		return
	}

	var req application.ConfirmOnlinePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.payments.ConfirmOnlinePayment(c.Request.Context(), actor, bookingID, req.OTP)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ConfirmCashPayment handles POST /api/v1/bookings/:id/payment/confirm-cash.
func (h *PaymentHandler) ConfirmCashPayment(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	bookingID, ok := pathID(c, "booking")
	if !ok {
		return
	}

	result, err := h.payments.ConfirmCashPayment(c.Request.Context(), actor, bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetPayment handles GET /api/v1/bookings/:id/payment.
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	bookingID, ok := pathID(c, "booking")
	if !ok {
		return
	}

	result, err := h.payments.GetPayment(c.Request.Context(), actor, bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
