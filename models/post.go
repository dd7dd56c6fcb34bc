package models

import (
	"time"

	"gorm.io/gorm"
)

// Post represents content owned by exactly one user.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AuthorID  uint      `gorm:"index;not null" json:"author_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Author    User      `gorm:"foreignKey:AuthorID" json:"author"`
	Comments  []Comment `json:"comments,omitempty"`
}

// BeforeDelete cascades the deletion to comments and relation rows.
func (p *Post) BeforeDelete(tx *gorm.DB) error {
	if err := tx.Where("post_id = ?", p.ID).Delete(&Comment{}).Error; err != nil {
		return err
	}
	if err := tx.Where("post_id = ?", p.ID).Delete(&Like{}).Error; err != nil {
		return err
	}
	return tx.Where("post_id = ?", p.ID).Delete(&SavedPost{}).Error
}
