package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"blogd/middleware"
	"blogd/models"
	"blogd/policy"
	"blogd/utils"
)

// AdminController exposes the user-management surface. All routes sit behind
// the admin middleware.
type AdminController struct {
	db *gorm.DB
}

// NewAdminController creates an AdminController.
func NewAdminController(db *gorm.DB) *AdminController {
	return &AdminController{db: db}
}

// ListUsers returns paginated accounts, newest first.
func (a *AdminController) ListUsers(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	var users []models.User
	var total int64

	if err := a.db.Model(&models.User{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to count users")
		return
	}
	if err := a.db.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&users).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to list users")
		return
	}

	utils.Success(ctx, gin.H{
		"items": users,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	})
}

// DeleteUser removes an account and everything referencing it. Admins cannot
// delete their own account through this path.
func (a *AdminController) DeleteUser(ctx *gin.Context) {
	targetID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	caller, _ := middleware.CurrentUser(ctx)
	if err := policy.CheckUserDeletion(caller, targetID); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, err.Error())
		return
	}

	var user models.User
	if err := a.db.First(&user, targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40411, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to load user")
		return
	}

	if err := a.db.Delete(&user).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to delete user")
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	utils.InvalidateByPrefix("cache:post:detail:")

	utils.Success(ctx, gin.H{"user": user})
}
