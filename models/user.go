package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an account. Passwords are stored as bcrypt hashes only;
// the email is the unique login handle.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:64;not null" json:"name"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Phone        string    `gorm:"size:32" json:"phone"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	IsAdmin      bool      `gorm:"default:false" json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	Posts        []Post    `gorm:"foreignKey:AuthorID" json:"-"`
	Comments     []Comment `json:"-"`
}

// BeforeCreate hook ensures the timestamp is set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	return nil
}

// BeforeDelete removes everything referencing the account: its posts (which
// cascade their own relations), comments, and relation rows on both sides of
// the follow edge.
func (u *User) BeforeDelete(tx *gorm.DB) error {
	var postIDs []uint
	if err := tx.Model(&Post{}).Where("author_id = ?", u.ID).Pluck("id", &postIDs).Error; err != nil {
		return err
	}
	if len(postIDs) > 0 {
		if err := tx.Where("post_id IN ?", postIDs).Delete(&Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id IN ?", postIDs).Delete(&Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id IN ?", postIDs).Delete(&SavedPost{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", u.ID).Delete(&Post{}).Error; err != nil {
			return err
		}
	}
	if err := tx.Where("user_id = ?", u.ID).Delete(&Comment{}).Error; err != nil {
		return err
	}
	if err := tx.Where("user_id = ?", u.ID).Delete(&Like{}).Error; err != nil {
		return err
	}
	if err := tx.Where("user_id = ?", u.ID).Delete(&SavedPost{}).Error; err != nil {
		return err
	}
	return tx.Where("follower_id = ? OR followed_id = ?", u.ID, u.ID).Delete(&Follow{}).Error
}
