package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"blogd/middleware"
	"blogd/models"
	"blogd/policy"
	"blogd/social"
	"blogd/utils"
)

// SocialController exposes the like, save and follow toggles plus the
// derived follower listings. Repeating a toggle is a success with
// changed=false; a missing target is 404, never a blanket bad request.
type SocialController struct {
	db    *gorm.DB
	graph *social.Graph
}

// NewSocialController creates a SocialController.
func NewSocialController(db *gorm.DB, graph *social.Graph) *SocialController {
	return &SocialController{db: db, graph: graph}
}

// LikePost adds the caller to the post's like set.
func (s *SocialController) LikePost(ctx *gin.Context) {
	s.togglePost(ctx, s.graph.Like)
}

// UnlikePost removes the caller from the post's like set.
func (s *SocialController) UnlikePost(ctx *gin.Context) {
	s.togglePost(ctx, s.graph.Unlike)
}

// SavePost bookmarks the post for the caller.
func (s *SocialController) SavePost(ctx *gin.Context) {
	s.togglePost(ctx, s.graph.Save)
}

// UnsavePost removes the bookmark.
func (s *SocialController) UnsavePost(ctx *gin.Context) {
	s.togglePost(ctx, s.graph.Unsave)
}

func (s *SocialController) togglePost(ctx *gin.Context, toggle func(postID, userID uint) (social.ToggleResult, error)) {
	postID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	caller, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	result, err := toggle(postID, caller.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to update relation")
		return
	}
	if result == social.ToggleTargetMissing {
		utils.Error(ctx, http.StatusNotFound, 40403, "post not found")
		return
	}

	if result == social.ToggleApplied {
		utils.InvalidateByPrefix("cache:posts:list:")
		utils.InvalidateByPrefix("cache:post:detail:" + strconv.FormatUint(uint64(postID), 10))
	}

	utils.Success(ctx, gin.H{"changed": result == social.ToggleApplied})
}

// FollowUser adds a follow edge from the caller to the target. Self-follow
// is a malformed request and is rejected before the mutator runs.
func (s *SocialController) FollowUser(ctx *gin.Context) {
	targetID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	caller, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	if err := policy.CheckFollowTarget(caller.ID, targetID); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, err.Error())
		return
	}

	result, err := s.graph.Follow(caller.ID, targetID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to update relation")
		return
	}
	if result == social.ToggleTargetMissing {
		utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
		return
	}

	utils.Success(ctx, gin.H{"changed": result == social.ToggleApplied})
}

// UnfollowUser removes the follow edge; an absent edge is a no-op.
func (s *SocialController) UnfollowUser(ctx *gin.Context) {
	targetID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	caller, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	result, err := s.graph.Unfollow(caller.ID, targetID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to update relation")
		return
	}
	if result == social.ToggleTargetMissing {
		utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
		return
	}

	utils.Success(ctx, gin.H{"changed": result == social.ToggleApplied})
}

// ListFollowers returns the users following the target.
func (s *SocialController) ListFollowers(ctx *gin.Context) {
	s.listRelated(ctx, s.graph.Followers)
}

// ListFollowing returns the users the target follows.
func (s *SocialController) ListFollowing(ctx *gin.Context) {
	s.listRelated(ctx, s.graph.Following)
}

func (s *SocialController) listRelated(ctx *gin.Context, load func(userID uint) ([]models.User, error)) {
	userID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to load user")
		return
	}

	users, err := load(userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to list users")
		return
	}
	utils.Success(ctx, gin.H{"items": users})
}

// ListSaved returns the caller's bookmarked posts.
func (s *SocialController) ListSaved(ctx *gin.Context) {
	caller, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	posts, err := s.graph.SavedPosts(caller.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50034, "failed to list saved posts")
		return
	}
	utils.Success(ctx, gin.H{"items": posts})
}
