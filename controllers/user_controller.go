package controllers

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hoaxify/hoaxify/services"
	"github.com/hoaxify/hoaxify/utils"
)

// UserController exposes the user listing and profile updates.
type UserController struct {
	db    *gorm.DB
	users *services.UserService
}

// NewUserController creates a new UserController instance.
func NewUserController(db *gorm.DB, users *services.UserService) *UserController {
	return &UserController{db: db, users: users}
}

// ListUsers returns one page of users, ordered by id. The route is public,
// but an authenticated caller is excluded from their own listing.
func (u *UserController) ListUsers(ctx *gin.Context) {
	page, size := parsePagination(ctx.Query("page"), ctx.Query("size"))
	result, err := u.users.ListUsers(page, size, optionalUsername(ctx))
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50015, "failed to list users")
		return
	}
	utils.Success(ctx, result)
}

// UpdateUser changes the caller's display name and, optionally, their
// profile image. The image arrives base64 encoded in the JSON body; only
// PNG and JPEG bytes are accepted and the replaced image is removed from
// disk.
func (u *UserController) UpdateUser(ctx *gin.Context) {
	id, err := parseID(ctx.Param("id"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40012, "invalid user id")
		return
	}

	user, ok := currentUser(ctx, u.db)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	if user.ID != id {
		utils.Error(ctx, http.StatusForbidden, 40310, "you can only update your own account")
		return
	}

	var req struct {
		DisplayName string `json:"display_name"`
		Image       string `json:"image"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40013, "invalid request payload")
		return
	}

	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if n := utf8.RuneCountInString(req.DisplayName); n < 4 || n > 255 {
		utils.ValidationError(ctx, map[string]string{"display_name": "display name must be between 4 and 255 characters"})
		return
	}

	var image []byte
	if req.Image != "" {
		image, err = base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			utils.ValidationError(ctx, map[string]string{"image": "image must be base64 encoded"})
			return
		}
	}

	updated, err := u.users.UpdateProfile(id, req.DisplayName, image)
	switch {
	case errors.Is(err, services.ErrImageType):
		utils.ValidationError(ctx, map[string]string{"image": err.Error()})
		return
	case errors.Is(err, services.ErrUserNotFound):
		utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
		return
	case err != nil:
		utils.Error(ctx, http.StatusInternalServerError, 50016, "failed to update user")
		return
	}

	utils.Success(ctx, gin.H{"user": updated})
}

// optionalUsername extracts the username from a bearer token when one is
// presented and valid; public routes use it to personalize without
// requiring authentication.
func optionalUsername(ctx *gin.Context) string {
	parts := strings.SplitN(ctx.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	claims, err := utils.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return ""
	}
	return claims.Username
}
