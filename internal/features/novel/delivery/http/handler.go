package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"novelreader-backend/internal/common/middleware"
	"novelreader-backend/internal/features/novel/models"
	"novelreader-backend/internal/features/novel/service"
)

type NovelHandler struct {
	service service.NovelService
}

func NewNovelHandler(service service.NovelService) *NovelHandler {
	return &NovelHandler{
		service: service,
	}
}

func (h *NovelHandler) RegisterRoutes(router *gin.RouterGroup) {
	novels := router.Group("/novels")
	{
		novels.GET("", h.listNovels)
		novels.GET("/:id", h.getNovel)
	}
}

// @Summary List novels
// @Description List the catalog, newest first. Optionally filtered by genre.
// @Tags novels
// @Produce json
// @Param genre query string false "Genre filter"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {array} models.Novel
// @Failure 500 {object} middleware.ErrorResponse
// @Router /novels [get]
func (h *NovelHandler) listNovels(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	novels, err := h.service.ListNovels(c.Request.Context(), models.ListFilter{
		Genre:  c.Query("genre"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, novels)
}

// @Summary Get a novel
// @Description Get one novel by ID.
// @Tags novels
// @Produce json
// @Param id path string true "Novel ID"
// @Success 200 {object} models.Novel
// @Failure 404 {object} middleware.ErrorResponse
// @Router /novels/{id} [get]
func (h *NovelHandler) getNovel(c *gin.Context) {
	novel, err := h.service.GetNovel(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, novel)
}
