package models

import "time"

// Like is a pure join row between a user and a post. The composite primary
// key is the authoritative deduplication mechanism: two concurrent inserts
// of the same pair cannot produce duplicate rows.
type Like struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	PostID    uint      `gorm:"primaryKey;autoIncrement:false" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Follow is a directional relation row: follower follows followed.
// Follower lists and following lists are derived queries over this table;
// there is no back-reference on the user model. Self-pairs are rejected
// before the row is ever written.
type Follow struct {
	FollowerID uint      `gorm:"primaryKey;autoIncrement:false" json:"follower_id"`
	FollowedID uint      `gorm:"primaryKey;autoIncrement:false" json:"followed_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// SavedPost is a bookmark join row between a user and a post.
type SavedPost struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	PostID    uint      `gorm:"primaryKey;autoIncrement:false" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}
