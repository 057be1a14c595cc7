package models

import "time"

type User struct {
	ID           int    `gorm:"primary_key;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null;index" json:"username"`
	Email        string `gorm:"not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"` // json:"-" prevents password from being exposed in API
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
}

type Category struct {
	ID          int    `gorm:"primary_key;autoIncrement" json:"id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Slug        string `gorm:"unique;not null;index" json:"slug"`
	IsPublished bool   `gorm:"default:true;index" json:"is_published"`
}

type Location struct {
	ID          int    `gorm:"primary_key;autoIncrement" json:"id"`
	Name        string `gorm:"not null" json:"name"`
	IsPublished bool   `gorm:"default:true" json:"is_published"`
}

type Post struct {
	ID          uint      `gorm:"primary_key"`
	Title       string    `gorm:"not null" json:"title"`
	Text        string    `gorm:"type:text" json:"text"`
	PubDate     time.Time `gorm:"index" json:"pub_date"`
	IsPublished bool      `gorm:"default:true;index" json:"is_published"`
	AuthorID    int       `gorm:"not null;index" json:"author_id"`
	Author      User      `json:"author"`
	CategoryID  *int      `gorm:"index" json:"category_id,omitempty"` // nullable - uncategorized posts never reach public feeds
	Category    *Category `json:"category,omitempty"`
	LocationID  *int      `json:"location_id,omitempty"`
	Location    *Location `json:"location,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	// filled per listing query, not stored
	CommentCount int64 `gorm:"-" json:"comment_count"`
}

type Comment struct {
	ID        uint      `gorm:"primary_key"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	PostID    int       `gorm:"not null;index" json:"post_id"`
	AuthorID  int       `gorm:"not null;index" json:"author_id"`
	Author    User      `json:"author"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
