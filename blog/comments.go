package blog

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"blogicum/auth"
	"blogicum/cache"
	"blogicum/models"
)

func (b *BlogModule) forbidden(c *gin.Context, message string) {
	c.HTML(http.StatusForbidden, "blog_error.html", gin.H{
		"error": message,
	})
}

func commentIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("commentID"))
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

func (b *BlogModule) getComment(commentID int) (*models.Comment, error) {
	var comment models.Comment
	err := b.db.Preload("Author").First(&comment, "id = ?", commentID).Error
	return &comment, err
}

// createComment checks only that the target post exists. Deliberately no
// visibility check: a commenter who knows the id of a post they cannot view
// may still comment on it.
func (b *BlogModule) createComment(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		b.notFound(c)
		return
	}

	var post models.Post
	if err := b.db.First(&post, "id = ?", postID).Error; err != nil {
		b.notFound(c)
		return
	}

	text := c.PostForm("text")
	if text == "" {
		c.Redirect(http.StatusFound, "/posts/"+strconv.Itoa(postID))
		return
	}

	comment := models.Comment{
		Text:      text,
		PostID:    postID,
		AuthorID:  auth.CurrentUserID(c),
		CreatedAt: time.Now(),
	}

	if err := b.db.Create(&comment).Error; err != nil {
		b.serverError(c, "Error creating comment")
		return
	}

	cache.ClearPost(postID)

	c.Redirect(http.StatusFound, "/posts/"+strconv.Itoa(postID))
}

func (b *BlogModule) editCommentForm(c *gin.Context) {
	commentID, ok := commentIDParam(c)
	if !ok {
		b.notFound(c)
		return
	}

	comment, err := b.getComment(commentID)
	if err != nil {
		b.notFound(c)
		return
	}

	if !canEditOrDelete(comment.AuthorID, auth.CurrentUserID(c)) {
		b.forbidden(c, "You are not allowed to edit this comment")
		return
	}

	c.HTML(http.StatusOK, "blog_comment_edit.html", gin.H{
		"comment": comment,
		"postID":  comment.PostID,
	})
}

func (b *BlogModule) updateComment(c *gin.Context) {
	commentID, ok := commentIDParam(c)
	if !ok {
		b.notFound(c)
		return
	}

	comment, err := b.getComment(commentID)
	if err != nil {
		b.notFound(c)
		return
	}

	if !canEditOrDelete(comment.AuthorID, auth.CurrentUserID(c)) {
		b.forbidden(c, "You are not allowed to edit this comment")
		return
	}

	text := c.PostForm("text")
	if text == "" {
		c.HTML(http.StatusBadRequest, "blog_comment_edit.html", gin.H{
			"error":   "Comment text is required",
			"comment": comment,
			"postID":  comment.PostID,
		})
		return
	}

	comment.Text = text
	if err := b.db.Save(comment).Error; err != nil {
		b.serverError(c, "Error updating comment")
		return
	}

	cache.ClearPost(comment.PostID)

	c.Redirect(http.StatusFound, "/posts/"+strconv.Itoa(comment.PostID))
}

func (b *BlogModule) deleteComment(c *gin.Context) {
	commentID, ok := commentIDParam(c)
	if !ok {
		b.notFound(c)
		return
	}

	comment, err := b.getComment(commentID)
	if err != nil {
		b.notFound(c)
		return
	}

	// unlike post deletion this is an explicit ownership check, so a foreign
	// comment answers 403 where a foreign post answers 404
	if !canEditOrDelete(comment.AuthorID, auth.CurrentUserID(c)) {
		b.forbidden(c, "You are not allowed to delete this comment")
		return
	}

	if err := b.db.Delete(comment).Error; err != nil {
		b.serverError(c, "Error deleting comment")
		return
	}

	cache.ClearPost(comment.PostID)

	c.Redirect(http.StatusFound, "/posts/"+strconv.Itoa(comment.PostID))
}
