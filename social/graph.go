package social

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"blogd/models"
)

// ToggleResult reports what an idempotent relation toggle did. Applied and
// Unchanged are both success outcomes; TargetMissing means the post or user
// the toggle refers to does not exist.
type ToggleResult int

const (
	ToggleApplied ToggleResult = iota
	ToggleUnchanged
	ToggleTargetMissing
)

// Graph performs idempotent mutations over the like, follow and saved-post
// relations. Inserts go through ON CONFLICT DO NOTHING so the join table's
// composite primary key, not application state, dedupes concurrent toggles.
type Graph struct {
	db *gorm.DB
}

// NewGraph creates a Graph over the given store handle.
func NewGraph(db *gorm.DB) *Graph {
	return &Graph{db: db}
}

// Like adds the (user, post) pair to the like set.
func (g *Graph) Like(postID, userID uint) (ToggleResult, error) {
	if missing, err := g.targetsMissing(postID, userID); missing || err != nil {
		return ToggleTargetMissing, err
	}
	return g.insert(&models.Like{UserID: userID, PostID: postID})
}

// Unlike removes the (user, post) pair; absent pairs are a no-op.
func (g *Graph) Unlike(postID, userID uint) (ToggleResult, error) {
	if missing, err := g.targetsMissing(postID, userID); missing || err != nil {
		return ToggleTargetMissing, err
	}
	return g.remove(g.db.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Like{}))
}

// Save bookmarks the post for the user.
func (g *Graph) Save(postID, userID uint) (ToggleResult, error) {
	if missing, err := g.targetsMissing(postID, userID); missing || err != nil {
		return ToggleTargetMissing, err
	}
	return g.insert(&models.SavedPost{UserID: userID, PostID: postID})
}

// Unsave removes the bookmark; absent pairs are a no-op.
func (g *Graph) Unsave(postID, userID uint) (ToggleResult, error) {
	if missing, err := g.targetsMissing(postID, userID); missing || err != nil {
		return ToggleTargetMissing, err
	}
	return g.remove(g.db.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.SavedPost{}))
}

// Follow adds a directional follower -> followed edge. Self-follow is
// rejected by the authorization policy before this is reached; the mutator
// itself has no self-reference special case.
func (g *Graph) Follow(followerID, followedID uint) (ToggleResult, error) {
	if missing, err := g.usersMissing(followerID, followedID); missing || err != nil {
		return ToggleTargetMissing, err
	}
	return g.insert(&models.Follow{FollowerID: followerID, FollowedID: followedID})
}

// Unfollow removes the edge; absent edges are a no-op.
func (g *Graph) Unfollow(followerID, followedID uint) (ToggleResult, error) {
	if missing, err := g.usersMissing(followerID, followedID); missing || err != nil {
		return ToggleTargetMissing, err
	}
	return g.remove(g.db.Where("follower_id = ? AND followed_id = ?", followerID, followedID).Delete(&models.Follow{}))
}

// LikeCount is the cardinality of the like set for a post.
func (g *Graph) LikeCount(postID uint) (int64, error) {
	var n int64
	err := g.db.Model(&models.Like{}).Where("post_id = ?", postID).Count(&n).Error
	return n, err
}

// IsLiked reports like-set membership for the pair.
func (g *Graph) IsLiked(postID, userID uint) (bool, error) {
	return g.exists(g.db.Model(&models.Like{}).Where("user_id = ? AND post_id = ?", userID, postID))
}

// IsSaved reports bookmark membership for the pair.
func (g *Graph) IsSaved(postID, userID uint) (bool, error) {
	return g.exists(g.db.Model(&models.SavedPost{}).Where("user_id = ? AND post_id = ?", userID, postID))
}

// IsFollowing reports whether follower follows followed.
func (g *Graph) IsFollowing(followerID, followedID uint) (bool, error) {
	return g.exists(g.db.Model(&models.Follow{}).Where("follower_id = ? AND followed_id = ?", followerID, followedID))
}

// Followers returns the users following userID.
func (g *Graph) Followers(userID uint) ([]models.User, error) {
	var users []models.User
	err := g.db.
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.followed_id = ?", userID).
		Order("follows.created_at DESC").
		Find(&users).Error
	return users, err
}

// Following returns the users that userID follows.
func (g *Graph) Following(userID uint) ([]models.User, error) {
	var users []models.User
	err := g.db.
		Joins("JOIN follows ON follows.followed_id = users.id").
		Where("follows.follower_id = ?", userID).
		Order("follows.created_at DESC").
		Find(&users).Error
	return users, err
}

// SavedPosts returns the posts bookmarked by userID, most recently saved first.
func (g *Graph) SavedPosts(userID uint) ([]models.Post, error) {
	var posts []models.Post
	err := g.db.Preload("Author").
		Joins("JOIN saved_posts ON saved_posts.post_id = posts.id").
		Where("saved_posts.user_id = ?", userID).
		Order("saved_posts.created_at DESC").
		Find(&posts).Error
	return posts, err
}

func (g *Graph) insert(row interface{}) (ToggleResult, error) {
	res := g.db.Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil {
		return ToggleUnchanged, res.Error
	}
	if res.RowsAffected == 0 {
		return ToggleUnchanged, nil
	}
	return ToggleApplied, nil
}

func (g *Graph) remove(res *gorm.DB) (ToggleResult, error) {
	if res.Error != nil {
		return ToggleUnchanged, res.Error
	}
	if res.RowsAffected == 0 {
		return ToggleUnchanged, nil
	}
	return ToggleApplied, nil
}

func (g *Graph) exists(q *gorm.DB) (bool, error) {
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// targetsMissing checks the post and user rows the pair refers to.
func (g *Graph) targetsMissing(postID, userID uint) (bool, error) {
	var n int64
	if err := g.db.Model(&models.Post{}).Where("id = ?", postID).Count(&n).Error; err != nil {
		return false, err
	}
	if n == 0 {
		return true, nil
	}
	if err := g.db.Model(&models.User{}).Where("id = ?", userID).Count(&n).Error; err != nil {
		return false, err
	}
	return n == 0, nil
}

func (g *Graph) usersMissing(ids ...uint) (bool, error) {
	for _, id := range ids {
		var n int64
		if err := g.db.Model(&models.User{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return false, err
		}
		if n == 0 {
			return true, nil
		}
	}
	return false, nil
}
