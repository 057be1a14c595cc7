package blog

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"blogicum/models"
)

const postsPerPage = 10

type Pagination struct {
	Page       int
	TotalPages int
	HasPrev    bool
	HasNext    bool
	PrevPage   int
	NextPage   int
}

func newPagination(page int, total int64) Pagination {
	pages := int((total + postsPerPage - 1) / postsPerPage)
	if pages < 1 {
		pages = 1
	}
	return Pagination{
		Page:       page,
		TotalPages: pages,
		HasPrev:    page > 1,
		HasNext:    page < pages,
		PrevPage:   page - 1,
		NextPage:   page + 1,
	}
}

func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// LiveScope narrows a posts query to publicly visible rows: published, past
// publication date, in a published category. The inner join drops posts
// without a category, same as the canView default.
func LiveScope(now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Joins("INNER JOIN categories ON categories.id = posts.category_id").
			Where("posts.is_published = ? AND posts.pub_date <= ? AND categories.is_published = ?",
				true, now, true)
	}
}

func authorScope(authorID int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.author_id = ?", authorID)
	}
}

func categoryScope(now time.Time, categoryID int) func(*gorm.DB) *gorm.DB {
	live := LiveScope(now)
	return func(db *gorm.DB) *gorm.DB {
		return live(db).Where("posts.category_id = ?", categoryID)
	}
}

// fetchPostPage runs one listing recipe: filter by scope, newest first, one
// page of ten, related rows eager-loaded and comment counts annotated.
func (b *BlogModule) fetchPostPage(scope func(*gorm.DB) *gorm.DB, page int) ([]models.Post, Pagination, error) {
	var total int64
	if err := scope(b.db.Model(&models.Post{})).Count(&total).Error; err != nil {
		return nil, Pagination{}, err
	}

	var posts []models.Post
	err := scope(b.db.Model(&models.Post{})).
		Preload("Author").
		Preload("Category").
		Preload("Location").
		Order("posts.pub_date DESC").
		Limit(postsPerPage).
		Offset((page - 1) * postsPerPage).
		Find(&posts).Error
	if err != nil {
		return nil, Pagination{}, err
	}

	if err := b.annotateCommentCounts(posts); err != nil {
		return nil, Pagination{}, err
	}

	return posts, newPagination(page, total), nil
}

// annotateCommentCounts fills CommentCount with a single grouped aggregate
// over the page's posts instead of one count query per row.
func (b *BlogModule) annotateCommentCounts(posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]uint, len(posts))
	for i, post := range posts {
		ids[i] = post.ID
	}

	var rows []struct {
		PostID int
		Total  int64
	}
	err := b.db.Model(&models.Comment{}).
		Select("post_id, COUNT(*) AS total").
		Where("post_id IN ?", ids).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return err
	}

	counts := make(map[int]int64, len(rows))
	for _, row := range rows {
		counts[row.PostID] = row.Total
	}

	for i := range posts {
		posts[i].CommentCount = counts[int(posts[i].ID)]
	}
	return nil
}

// postComments is the comment-thread recipe: every comment of one post,
// oldest first, unpaginated.
func (b *BlogModule) postComments(postID int) ([]models.Comment, error) {
	var comments []models.Comment
	err := b.db.Where("post_id = ?", postID).
		Preload("Author").
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}
