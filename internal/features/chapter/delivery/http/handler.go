package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"novelreader-backend/internal/common/errors"
	"novelreader-backend/internal/common/middleware"
	"novelreader-backend/internal/features/chapter/service"
)

type ChapterHandler struct {
	service service.ChapterService
}

func NewChapterHandler(service service.ChapterService) *ChapterHandler {
	return &ChapterHandler{
		service: service,
	}
}

func (h *ChapterHandler) RegisterRoutes(router *gin.RouterGroup, adminIDs []string) {
	novels := router.Group("/novels")
	{
		novels.GET("/:id/chapters", h.listChapters)
		novels.GET("/:id/chapters/:num", h.getChapter)
	}

	authed := router.Group("/novels")
	authed.Use(middleware.RequireAuth())
	{
		authed.POST("/:id/chapters/:num/unlock", h.unlockChapter)
		authed.DELETE("/:id/cache", h.clearCache)
	}

	admin := router.Group("/admin")
	admin.Use(middleware.RequireAdmin(adminIDs))
	{
		admin.DELETE("/cache/chapters", h.purgeCache)
	}
}

// @Summary List chapters
// @Description List non-hidden chapters of a novel, ordered by number. Content bodies are not included.
// @Tags chapters
// @Produce json
// @Param id path string true "Novel ID"
// @Success 200 {array} models.ChapterSummary
// @Failure 500 {object} middleware.ErrorResponse
// @Router /novels/{id}/chapters [get]
func (h *ChapterHandler) listChapters(c *gin.Context) {
	chapters, err := h.service.ListChapters(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, chapters)
}

// @Summary Read a chapter
// @Description Get a chapter by novel ID and chapter number. Locked chapters omit content unless the authenticated user has unlocked them. Adjacent chapters are prefetched in the background.
// @Tags chapters
// @Produce json
// @Param id path string true "Novel ID"
// @Param num path int true "Chapter number"
// @Security BearerAuth
// @Success 200 {object} models.ChapterResponse
// @Failure 400 {object} middleware.ErrorResponse "Invalid chapter number"
// @Failure 404 {object} middleware.ErrorResponse "Chapter not found"
// @Router /novels/{id}/chapters/{num} [get]
func (h *ChapterHandler) getChapter(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("num"))
	if err != nil {
		middleware.HandleError(c, errors.NewValidationError("num", "must be an integer"))
		return
	}

	userID := ""
	if principal, ok := middleware.GetPrincipal(c); ok {
		userID = principal.UserID
	}

	chapter, err := h.service.GetChapter(c.Request.Context(), userID, c.Param("id"), number)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, chapter)
}

// @Summary Unlock a chapter
// @Description Spend coins to permanently unlock a locked chapter. Idempotent: unlocking an already-unlocked chapter does not debit again.
// @Tags chapters
// @Produce json
// @Param id path string true "Novel ID"
// @Param num path int true "Chapter number"
// @Security BearerAuth
// @Success 200 {object} models.UnlockResponse
// @Failure 402 {object} middleware.ErrorResponse "Insufficient coins"
// @Failure 404 {object} middleware.ErrorResponse "Chapter not found"
// @Router /novels/{id}/chapters/{num}/unlock [post]
func (h *ChapterHandler) unlockChapter(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("num"))
	if err != nil {
		middleware.HandleError(c, errors.NewValidationError("num", "must be an integer"))
		return
	}

	principal, _ := middleware.GetPrincipal(c)

	result, err := h.service.UnlockChapter(c.Request.Context(), principal.UserID, c.Param("id"), number)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Summary Clear cached chapters
// @Description Drop the cached chapters of a novel. Called when the reader leaves the novel's reading context.
// @Tags chapters
// @Produce json
// @Param id path string true "Novel ID"
// @Security BearerAuth
// @Success 204 "Cache cleared"
// @Router /novels/{id}/cache [delete]
func (h *ChapterHandler) clearCache(c *gin.Context) {
	if err := h.service.LeaveNovel(c.Request.Context(), c.Param("id")); err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Purge chapter cache
// @Description Drop every cached chapter from both tiers. Used after bulk content edits.
// @Tags chapters
// @Security BearerAuth
// @Success 204 "Cache purged"
// @Failure 403 {object} middleware.ErrorResponse
// @Router /admin/cache/chapters [delete]
func (h *ChapterHandler) purgeCache(c *gin.Context) {
	if err := h.service.PurgeCache(c.Request.Context()); err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
