package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hoaxify/hoaxify/config"
	"github.com/hoaxify/hoaxify/middleware"
	"github.com/hoaxify/hoaxify/models"
	"github.com/hoaxify/hoaxify/services"
	"github.com/hoaxify/hoaxify/utils"
)

// HoaxController exposes hoax creation, deletion and the feed queries.
type HoaxController struct {
	db     *gorm.DB
	hoaxes *services.HoaxService
	feed   *services.FeedService
}

// NewHoaxController creates a new HoaxController instance.
func NewHoaxController(db *gorm.DB, hoaxes *services.HoaxService, feed *services.FeedService) *HoaxController {
	return &HoaxController{db: db, hoaxes: hoaxes, feed: feed}
}

// CreateHoax persists a new hoax for the authenticated user, linking the
// referenced attachment when one is given.
func (h *HoaxController) CreateHoax(ctx *gin.Context) {
	var req struct {
		Content    string `json:"content"`
		Attachment *struct {
			ID uint `json:"id"`
		} `json:"attachment"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	user, ok := currentUser(ctx, h.db)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	content := utils.Sanitize(strings.TrimSpace(req.Content))
	var attachmentID *uint
	if req.Attachment != nil {
		attachmentID = &req.Attachment.ID
	}

	hoax, err := h.hoaxes.Save(user, content, attachmentID)
	switch {
	case errors.Is(err, services.ErrContentLength):
		utils.ValidationError(ctx, map[string]string{"content": err.Error()})
		return
	case errors.Is(err, services.ErrAttachmentNotFound):
		utils.Error(ctx, http.StatusNotFound, 40430, "attachment not found")
		return
	case errors.Is(err, services.ErrAttachmentInUse):
		utils.Error(ctx, http.StatusConflict, 40910, "attachment already belongs to a hoax")
		return
	case err != nil:
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create hoax")
		return
	}

	utils.Success(ctx, gin.H{"hoax": hoax})
}

// GetHoaxes returns one page of the global feed, newest first.
func (h *HoaxController) GetHoaxes(ctx *gin.Context) {
	page, size := parsePagination(ctx.Query("page"), ctx.Query("size"))
	result, err := h.feed.GetHoaxes(page, size, nil)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to list hoaxes")
		return
	}
	utils.Success(ctx, result)
}

// GetHoaxesOfUser returns one page of a single author's feed.
func (h *HoaxController) GetHoaxesOfUser(ctx *gin.Context) {
	username := ctx.Param("username")
	page, size := parsePagination(ctx.Query("page"), ctx.Query("size"))
	result, err := h.feed.GetHoaxes(page, size, &username)
	if err != nil {
		respondFeedError(ctx, err)
		return
	}
	utils.Success(ctx, result)
}

// GetHoaxesRelative answers the pivot-relative queries on the global feed:
// direction=before pages through older hoaxes, direction=after (the
// default) lists everything newer, and count=true returns only how many.
func (h *HoaxController) GetHoaxesRelative(ctx *gin.Context) {
	h.relative(ctx, nil)
}

// GetHoaxesRelativeOfUser is GetHoaxesRelative scoped to one author.
func (h *HoaxController) GetHoaxesRelativeOfUser(ctx *gin.Context) {
	username := ctx.Param("username")
	h.relative(ctx, &username)
}

func (h *HoaxController) relative(ctx *gin.Context, username *string) {
	pivot, err := parseID(ctx.Param("id"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40023, "invalid hoax id")
		return
	}

	if !strings.EqualFold(ctx.DefaultQuery("direction", "after"), "after") {
		page, size := parsePagination(ctx.Query("page"), ctx.Query("size"))
		result, err := h.feed.GetOldHoaxes(pivot, page, size, username)
		if err != nil {
			respondFeedError(ctx, err)
			return
		}
		utils.Success(ctx, result)
		return
	}

	if ctx.Query("count") == "true" {
		count, err := h.feed.GetNewHoaxesCount(pivot, username)
		if err != nil {
			respondFeedError(ctx, err)
			return
		}
		utils.Success(ctx, gin.H{"count": count})
		return
	}

	ascending := strings.EqualFold(ctx.Query("sort"), "asc")
	hoaxes, err := h.feed.GetNewHoaxes(pivot, ascending, username)
	if err != nil {
		respondFeedError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"hoaxes": hoaxes})
}

// DeleteHoax removes a hoax owned by the caller (admins may remove any),
// cascading its attachment.
func (h *HoaxController) DeleteHoax(ctx *gin.Context) {
	id, err := parseID(ctx.Param("id"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40023, "invalid hoax id")
		return
	}

	user, ok := currentUser(ctx, h.db)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	err = h.hoaxes.Delete(id, user, isAdmin(ctx))
	switch {
	case errors.Is(err, services.ErrHoaxNotFound):
		utils.Error(ctx, http.StatusNotFound, 40420, "hoax not found")
		return
	case errors.Is(err, services.ErrNotOwner):
		utils.Error(ctx, http.StatusForbidden, 40320, "you can only delete your own hoaxes")
		return
	case err != nil:
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to delete hoax")
		return
	}

	utils.Success(ctx, gin.H{"message": "hoax deleted"})
}

func respondFeedError(ctx *gin.Context, err error) {
	if errors.Is(err, services.ErrUserNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
		return
	}
	utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to list hoaxes")
}

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 0
	size := services.DefaultPageSize
	if p, err := strconv.Atoi(pageStr); err == nil && p >= 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= services.MaxPageSize {
		size = s
	}
	return page, size
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok
}

func currentUser(ctx *gin.Context, db *gorm.DB) (models.User, bool) {
	id, ok := getUserID(ctx)
	if !ok {
		return models.User{}, false
	}
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		return models.User{}, false
	}
	return user, true
}

func isAdmin(ctx *gin.Context) bool {
	unameVal, exists := ctx.Get(middleware.ContextUsernameKey)
	if !exists {
		return false
	}
	uname, _ := unameVal.(string)
	if uname == "" {
		return false
	}
	for _, u := range config.Get().AdminUsernames {
		if strings.EqualFold(strings.TrimSpace(u), uname) {
			return true
		}
	}
	return false
}
