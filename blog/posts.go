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

// postForm carries the submitted post fields plus the select-box choices
// shown when the form is re-rendered with an error.
type postForm struct {
	Title       string
	Text        string
	PubDate     time.Time
	IsPublished bool
	CategoryID  *int
	LocationID  *int
}

func (b *BlogModule) formChoices() ([]models.Category, []models.Location) {
	var categories []models.Category
	b.db.Where("is_published = ?", true).Order("title").Find(&categories)

	var locations []models.Location
	b.db.Where("is_published = ?", true).Order("name").Find(&locations)

	return categories, locations
}

func (b *BlogModule) bindPostForm(c *gin.Context) (postForm, string) {
	form := postForm{
		Title:       c.PostForm("title"),
		Text:        c.PostForm("text"),
		IsPublished: c.PostForm("is_published") != "",
	}

	if form.Title == "" {
		return form, "Title is required"
	}

	pubDate, ok := parsePubDate(c.PostForm("pub_date"))
	if !ok {
		return form, "Invalid publication date"
	}
	form.PubDate = pubDate

	if raw := c.PostForm("category_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return form, "Invalid category"
		}
		var category models.Category
		if err := b.db.First(&category, id).Error; err != nil {
			return form, "Invalid category"
		}
		form.CategoryID = &category.ID
	}

	if raw := c.PostForm("location_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return form, "Invalid location"
		}
		var location models.Location
		if err := b.db.First(&location, id).Error; err != nil {
			return form, "Invalid location"
		}
		form.LocationID = &location.ID
	}

	return form, ""
}

// parsePubDate accepts the datetime-local input format, a bare date, or
// nothing (publish now). Scheduling a future date keeps the post hidden from
// non-authors until the date passes. A value that matches no layout is a
// validation error, not an implicit "now".
func parsePubDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Now(), true
	}
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (b *BlogModule) createPostForm(c *gin.Context) {
	categories, locations := b.formChoices()

	c.HTML(http.StatusOK, "blog_create.html", gin.H{
		"categories": categories,
		"locations":  locations,
	})
}

func (b *BlogModule) createPost(c *gin.Context) {
	user, err := auth.CurrentUser(c, b.db)
	if err != nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	form, formErr := b.bindPostForm(c)
	if formErr != "" {
		categories, locations := b.formChoices()
		c.HTML(http.StatusBadRequest, "blog_create.html", gin.H{
			"error":      formErr,
			"form":       form,
			"categories": categories,
			"locations":  locations,
		})
		return
	}

	post := models.Post{
		Title:       form.Title,
		Text:        form.Text,
		PubDate:     form.PubDate,
		IsPublished: form.IsPublished,
		AuthorID:    user.ID,
		CategoryID:  form.CategoryID,
		LocationID:  form.LocationID,
		CreatedAt:   time.Now(),
	}

	if err := b.db.Create(&post).Error; err != nil {
		b.serverError(c, "Error creating post")
		return
	}

	c.Redirect(http.StatusFound, "/profile/"+user.Username)
}

func (b *BlogModule) editPostForm(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		b.notFound(c)
		return
	}

	post, err := b.getPost(postID)
	if err != nil {
		b.notFound(c)
		return
	}

	// soft denial: non-authors bounce to the detail page, no error raised
	if !canEditOrDelete(post.AuthorID, auth.CurrentUserID(c)) {
		c.Redirect(http.StatusFound, "/posts/"+strconv.Itoa(postID))
		return
	}

	visitCount := b.analytics.PostVisitCount(postID)

	categories, locations := b.formChoices()
	c.HTML(http.StatusOK, "blog_create.html", gin.H{
		"post":       post,
		"categories": categories,
		"locations":  locations,
		"visitCount": visitCount,
	})
}

func (b *BlogModule) updatePost(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		b.notFound(c)
		return
	}

	post, err := b.getPost(postID)
	if err != nil {
		b.notFound(c)
		return
	}

	if !canEditOrDelete(post.AuthorID, auth.CurrentUserID(c)) {
		c.Redirect(http.StatusFound, "/posts/"+strconv.Itoa(postID))
		return
	}

	form, formErr := b.bindPostForm(c)
	if formErr != "" {
		categories, locations := b.formChoices()
		c.HTML(http.StatusBadRequest, "blog_create.html", gin.H{
			"error":      formErr,
			"post":       post,
			"categories": categories,
			"locations":  locations,
		})
		return
	}

	// explicit column update: Save on the preloaded struct would let the
	// stale Category/Location associations write the old FKs back
	updates := map[string]interface{}{
		"title":        form.Title,
		"text":         form.Text,
		"pub_date":     form.PubDate,
		"is_published": form.IsPublished,
		"category_id":  form.CategoryID,
		"location_id":  form.LocationID,
	}
	if err := b.db.Model(&models.Post{}).Where("id = ?", post.ID).Updates(updates).Error; err != nil {
		b.serverError(c, "Error updating post")
		return
	}

	cache.ClearPost(postID)

	c.Redirect(http.StatusFound, "/posts/"+strconv.Itoa(postID))
}

func (b *BlogModule) deletePostForm(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		b.notFound(c)
		return
	}

	// ownership folded into the lookup: a foreign post id is simply absent
	var post models.Post
	err := b.db.Where("id = ? AND author_id = ?", postID, auth.CurrentUserID(c)).First(&post).Error
	if err != nil {
		b.notFound(c)
		return
	}

	c.HTML(http.StatusOK, "blog_delete.html", gin.H{
		"post": post,
	})
}

func (b *BlogModule) deletePost(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		b.notFound(c)
		return
	}

	result := b.db.Where("id = ? AND author_id = ?", postID, auth.CurrentUserID(c)).Delete(&models.Post{})
	if result.Error != nil {
		b.serverError(c, "Error deleting post")
		return
	}

	if result.RowsAffected == 0 {
		b.notFound(c)
		return
	}

	// sqlite runs without FK enforcement here, so cascade by hand
	if err := b.db.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
		b.serverError(c, "Error deleting comments")
		return
	}

	cache.ClearPost(postID)

	c.Redirect(http.StatusFound, "/")
}

func (b *BlogModule) editProfileForm(c *gin.Context) {
	user, err := auth.CurrentUser(c, b.db)
	if err != nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	c.HTML(http.StatusOK, "blog_profile_edit.html", gin.H{
		"user": user,
	})
}

func (b *BlogModule) updateProfile(c *gin.Context) {
	user, err := auth.CurrentUser(c, b.db)
	if err != nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	username := c.PostForm("username")
	if username == "" {
		c.HTML(http.StatusBadRequest, "blog_profile_edit.html", gin.H{
			"error": "Username is required",
			"user":  user,
		})
		return
	}

	if username != user.Username {
		var existing models.User
		if err := b.db.Where("username = ?", username).First(&existing).Error; err == nil {
			c.HTML(http.StatusBadRequest, "blog_profile_edit.html", gin.H{
				"error": "This username is already taken",
				"user":  user,
			})
			return
		}
		user.Username = username
	}

	user.Email = c.PostForm("email")
	user.FirstName = c.PostForm("first_name")
	user.LastName = c.PostForm("last_name")

	if err := b.db.Save(user).Error; err != nil {
		b.serverError(c, "Error updating profile")
		return
	}

	c.Redirect(http.StatusFound, "/profile/"+user.Username)
}
