package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"blogd/middleware"
	"blogd/models"
	"blogd/policy"
	"blogd/social"
	"blogd/utils"
)

// PostController manages posts and their comments.
type PostController struct {
	db    *gorm.DB
	graph *social.Graph
}

// NewPostController creates a PostController.
func NewPostController(db *gorm.DB, graph *social.Graph) *PostController {
	return &PostController{db: db, graph: graph}
}

// postView is a post enriched with the caller-facing derived flags. The like
// count is the cardinality of the like set, computed at read time.
type postView struct {
	models.Post
	LikeCount int64 `json:"like_count"`
	IsLiked   bool  `json:"is_liked"`
	IsSaved   bool  `json:"is_saved"`
}

// CreatePost allows authenticated users to create posts.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req struct {
		Title   string `json:"title" binding:"required,min=1"`
		Content string `json:"content" binding:"required"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	title := utils.Sanitize(strings.TrimSpace(req.Title))
	content := utils.Sanitize(req.Content)
	if title == "" || content == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "title and content cannot be empty")
		return
	}

	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	post := models.Post{
		AuthorID: user.ID,
		Title:    title,
		Content:  content,
	}

	if err := p.db.Create(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create post")
		return
	}
	post.Author = *user

	utils.InvalidateByPrefix("cache:posts:list:")

	utils.Success(ctx, gin.H{"post": post})
}

// ListPosts returns the feed: all posts, most recent first, enriched with
// like counts and, for an authenticated caller, membership flags. Only the
// anonymous rendering is cached since the flags are per caller.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	caller, authed := middleware.CurrentUser(ctx)

	cacheKey := fmt.Sprintf("cache:posts:list:page=%d:size=%d", page, pageSize)
	if !authed {
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(http.StatusOK, "application/json", b)
			return
		}
	}

	var posts []models.Post
	var total int64

	query := p.db.Model(&models.Post{}).Preload("Author").Order("created_at DESC")
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to count posts")
		return
	}
	if err := query.Offset((page - 1) * pageSize).Limit(pageSize).Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to list posts")
		return
	}

	views := make([]postView, 0, len(posts))
	for _, post := range posts {
		view, err := p.enrich(post, caller)
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post relations")
			return
		}
		views = append(views, view)
	}

	payload := gin.H{
		"items": views,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	}
	if !authed {
		utils.CacheSetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Hour)
	}
	utils.Success(ctx, payload)
}

// GetPost returns a single post with its comments.
func (p *PostController) GetPost(ctx *gin.Context) {
	postID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	caller, authed := middleware.CurrentUser(ctx)

	cacheKey := "cache:post:detail:" + strconv.FormatUint(uint64(postID), 10)
	if !authed {
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(http.StatusOK, "application/json", b)
			return
		}
	}

	var post models.Post
	err := p.db.Preload("Author").Preload("Comments.User").First(&post, postID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load post")
		return
	}

	view, err := p.enrich(post, caller)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post relations")
		return
	}

	payload := gin.H{"post": view}
	if !authed {
		utils.CacheSetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Hour)
	}
	utils.Success(ctx, payload)
}

// DeletePost allows the author or any admin to delete a post. Comments and
// relation rows cascade with it.
func (p *PostController) DeletePost(ctx *gin.Context) {
	postID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load post")
		return
	}

	caller, _ := middleware.CurrentUser(ctx)
	if !policy.CanDeletePost(caller, &post) {
		utils.Error(ctx, http.StatusForbidden, 40302, "you can only delete your own posts")
		return
	}

	if err := p.db.Delete(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to delete post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	utils.InvalidateByPrefix("cache:post:detail:" + strconv.FormatUint(uint64(postID), 10))

	utils.Success(ctx, gin.H{"message": "post deleted"})
}

// CreateComment attaches a comment to an existing post.
func (p *PostController) CreateComment(ctx *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid request payload")
		return
	}

	content := utils.Sanitize(req.Content)
	if content == "" {
		utils.Error(ctx, http.StatusBadRequest, 40023, "content cannot be empty")
		return
	}

	postID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load post")
		return
	}

	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	comment := models.Comment{
		PostID:  post.ID,
		UserID:  user.ID,
		Content: content,
	}

	if err := p.db.Create(&comment).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to create comment")
		return
	}
	comment.User = *user

	utils.InvalidateByPrefix("cache:post:detail:" + strconv.FormatUint(uint64(post.ID), 10))

	utils.Success(ctx, gin.H{"comment": comment})
}

// DeleteComment allows the comment owner or any admin to delete a comment.
func (p *PostController) DeleteComment(ctx *gin.Context) {
	commentID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var comment models.Comment
	if err := p.db.First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40402, "comment not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to load comment")
		return
	}

	caller, _ := middleware.CurrentUser(ctx)
	if !policy.CanDeleteComment(caller, &comment) {
		utils.Error(ctx, http.StatusForbidden, 40320, "you can only delete your own comments")
		return
	}

	if err := p.db.Delete(&comment).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to delete comment")
		return
	}

	utils.InvalidateByPrefix("cache:post:detail:" + strconv.FormatUint(uint64(comment.PostID), 10))

	utils.Success(ctx, gin.H{"message": "comment deleted"})
}

func (p *PostController) enrich(post models.Post, caller *models.User) (postView, error) {
	view := postView{Post: post}

	count, err := p.graph.LikeCount(post.ID)
	if err != nil {
		return view, err
	}
	view.LikeCount = count

	if caller != nil {
		if view.IsLiked, err = p.graph.IsLiked(post.ID, caller.ID); err != nil {
			return view, err
		}
		if view.IsSaved, err = p.graph.IsSaved(post.ID, caller.ID); err != nil {
			return view, err
		}
	}
	return view, nil
}

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := 20
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}

// parseIDParam parses a numeric path parameter, writing a 400 on failure.
func parseIDParam(ctx *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(ctx.Param(name))
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid "+name+" parameter")
		return 0, false
	}
	return uint(id), true
}
