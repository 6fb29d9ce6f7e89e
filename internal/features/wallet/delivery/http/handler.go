package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"novelreader-backend/internal/common/middleware"
	"novelreader-backend/internal/features/wallet/service"
)

type WalletHandler struct {
	service service.WalletService
}

func NewWalletHandler(service service.WalletService) *WalletHandler {
	return &WalletHandler{
		service: service,
	}
}

func (h *WalletHandler) RegisterRoutes(router *gin.RouterGroup) {
	wallet := router.Group("/wallet")
	wallet.Use(middleware.RequireAuth())
	{
		wallet.GET("", h.getBalance)
		wallet.GET("/history", h.getHistory)
	}
}

// @Summary Get coin balance
// @Description Get the authenticated user's coin balance.
// @Tags wallet
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Balance
// @Failure 401 {object} middleware.ErrorResponse
// @Router /wallet [get]
func (h *WalletHandler) getBalance(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)

	balance, err := h.service.GetBalance(c.Request.Context(), principal.UserID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, balance)
}

// @Summary Get ledger history
// @Description Get the authenticated user's recent coin ledger entries.
// @Tags wallet
// @Produce json
// @Param limit query int false "Maximum entries to return" default(50)
// @Security BearerAuth
// @Success 200 {array} models.LedgerEntry
// @Failure 401 {object} middleware.ErrorResponse
// @Router /wallet/history [get]
func (h *WalletHandler) getHistory(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	entries, err := h.service.History(c.Request.Context(), principal.UserID, limit)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}
