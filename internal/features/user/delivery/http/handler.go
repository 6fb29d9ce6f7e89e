package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"novelreader-backend/internal/common/middleware"
	"novelreader-backend/internal/features/user/service"
)

type UserHandler struct {
	service service.UserService
}

func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	users.Use(middleware.RequireAuth())
	{
		users.GET("/me", h.getMe)
	}
}

// @Summary Get current user
// @Description Get the authenticated user's profile, including coin balance.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /users/me [get]
func (h *UserHandler) getMe(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)

	user, err := h.service.GetUser(c.Request.Context(), principal.UserID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
