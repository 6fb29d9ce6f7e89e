package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"novelreader-backend/internal/common/errors"
	"novelreader-backend/internal/common/middleware"
	"novelreader-backend/internal/features/payment/models"
	"novelreader-backend/internal/features/payment/service"
)

type PaymentHandler struct {
	service service.PaymentService
}

func NewPaymentHandler(service service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		service: service,
	}
}

func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup) {
	payments := router.Group("/payments")
	{
		payments.GET("/packages", h.listPackages)
	}

	authed := router.Group("/payments")
	authed.Use(middleware.RequireAuth())
	{
		authed.POST("/orders", h.createOrder)
		authed.POST("/orders/:orderId/capture", h.captureOrder)
	}
}

// @Summary List coin packages
// @Description List purchasable coin packages.
// @Tags payments
// @Produce json
// @Success 200 {array} models.CoinPackage
// @Failure 500 {object} middleware.ErrorResponse
// @Router /payments/packages [get]
func (h *PaymentHandler) listPackages(c *gin.Context) {
	packages, err := h.service.ListPackages(c.Request.Context())
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, packages)
}

// @Summary Create a payment order
// @Description Start a PayPal checkout for a coin package. Returns the approval URL the buyer must be redirected to.
// @Tags payments
// @Accept json
// @Produce json
// @Param request body models.CreateOrderRequest true "Checkout request"
// @Security BearerAuth
// @Success 200 {object} models.CreateOrderResponse
// @Failure 400 {object} middleware.ErrorResponse "Invalid request"
// @Failure 503 {object} middleware.ErrorResponse "Payment processor not configured"
// @Router /payments/orders [post]
func (h *PaymentHandler) createOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, errors.NewValidationError("body", err.Error()))
		return
	}

	principal, _ := middleware.GetPrincipal(c)

	resp, err := h.service.CreateOrder(c.Request.Context(), principal.UserID, req)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Capture a payment order
// @Description Capture an approved PayPal order and credit the purchased coins. Coins are credited at most once per order.
// @Tags payments
// @Produce json
// @Param orderId path string true "PayPal order ID"
// @Security BearerAuth
// @Success 200 {object} models.CaptureResponse
// @Failure 404 {object} middleware.ErrorResponse "Unknown order"
// @Failure 409 {object} middleware.ErrorResponse "Order already processed"
// @Failure 422 {object} middleware.ErrorResponse "Capture not completed"
// @Router /payments/orders/{orderId}/capture [post]
func (h *PaymentHandler) captureOrder(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)

	resp, err := h.service.CaptureOrder(c.Request.Context(), principal.UserID, c.Param("orderId"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
