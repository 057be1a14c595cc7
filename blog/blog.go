package blog

import (
	"bytes"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
	"gorm.io/gorm"

	"blogicum/analytics"
	"blogicum/auth"
	"blogicum/models"
)

type BlogModule struct {
	db        *gorm.DB
	analytics *analytics.AnalyticsModule
}

// markdown renderer configured with Goldmark and useful extensions
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,     // tables, strikethrough, task lists, autolinks (GFM set)
		extension.Linkify, // linkify raw URLs
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithUnsafe(), // allow raw HTML passthrough in Markdown
	),
)

func NewBlogModule(db *gorm.DB, analyticsModule *analytics.AnalyticsModule) *BlogModule {
	return &BlogModule{db: db, analytics: analyticsModule}
}

func (b *BlogModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/", b.index)
	router.GET("/category/:categorySlug", b.categoryPosts)

	// /profile/edit must be registered alongside /profile/:username;
	// gin resolves the static segment first
	router.GET("/profile/edit", auth.RequireAuth, b.editProfileForm)
	router.POST("/profile/edit", auth.RequireAuth, b.updateProfile)
	router.GET("/profile/:username", b.profile)

	posts := router.Group("/posts")
	{
		posts.GET("/create", auth.RequireAuth, b.createPostForm)
		posts.POST("/create", auth.RequireAuth, b.createPost)
		posts.GET("/:postID", b.postDetail)

		// no auth gate here: a non-author (anonymous included) is silently
		// redirected to the detail page instead of the login screen
		posts.GET("/:postID/edit", b.editPostForm)
		posts.POST("/:postID/edit", b.updatePost)

		posts.GET("/:postID/delete", auth.RequireAuth, b.deletePostForm)
		posts.POST("/:postID/delete", auth.RequireAuth, b.deletePost)

		posts.POST("/:postID/comment", auth.RequireAuth, b.createComment)
		posts.GET("/:postID/comment/:commentID/edit", auth.RequireAuth, b.editCommentForm)
		posts.POST("/:postID/comment/:commentID/edit", auth.RequireAuth, b.updateComment)
		posts.POST("/:postID/comment/:commentID/delete", auth.RequireAuth, b.deleteComment)
	}
}

func (b *BlogModule) notFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "blog_error.html", gin.H{
		"error": "Page not found",
	})
}

func (b *BlogModule) serverError(c *gin.Context, message string) {
	c.HTML(http.StatusInternalServerError, "blog_error.html", gin.H{
		"error": message,
	})
}

// getPost loads a post with its related rows, by existence only. Visibility
// is the caller's concern.
func (b *BlogModule) getPost(postID int) (*models.Post, error) {
	var post models.Post
	err := b.db.
		Preload("Author").
		Preload("Category").
		Preload("Location").
		First(&post, "posts.id = ?", postID).Error
	return &post, err
}

func postIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("postID"))
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

func (b *BlogModule) index(c *gin.Context) {
	page := pageParam(c)

	posts, pagination, err := b.fetchPostPage(LiveScope(time.Now()), page)
	if err != nil {
		b.serverError(c, "Error loading posts")
		return
	}

	c.HTML(http.StatusOK, "blog_index.html", gin.H{
		"posts":      posts,
		"pagination": pagination,
	})
}

func (b *BlogModule) categoryPosts(c *gin.Context) {
	slug := c.Param("categorySlug")

	// an unpublished category 404s the whole listing
	var category models.Category
	if err := b.db.Where("slug = ? AND is_published = ?", slug, true).First(&category).Error; err != nil {
		b.notFound(c)
		return
	}

	page := pageParam(c)
	posts, pagination, err := b.fetchPostPage(categoryScope(time.Now(), category.ID), page)
	if err != nil {
		b.serverError(c, "Error loading posts")
		return
	}

	c.HTML(http.StatusOK, "blog_category.html", gin.H{
		"category":   category,
		"posts":      posts,
		"pagination": pagination,
	})
}

func (b *BlogModule) profile(c *gin.Context) {
	username := c.Param("username")

	var profile models.User
	if err := b.db.Where("username = ?", username).First(&profile).Error; err != nil {
		b.notFound(c)
		return
	}

	// no publication filter: the profile shows everything its owner wrote
	page := pageParam(c)
	posts, pagination, err := b.fetchPostPage(authorScope(profile.ID), page)
	if err != nil {
		b.serverError(c, "Error loading posts")
		return
	}

	c.HTML(http.StatusOK, "blog_profile.html", gin.H{
		"profile":    profile,
		"posts":      posts,
		"pagination": pagination,
		"isOwner":    auth.CurrentUserID(c) == profile.ID,
	})
}

func (b *BlogModule) postDetail(c *gin.Context) {
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

	userID := auth.CurrentUserID(c)
	if !canView(post, userID, time.Now()) {
		// invisible posts are masked as absent, never as forbidden
		b.notFound(c)
		return
	}

	comments, err := b.postComments(postID)
	if err != nil {
		b.serverError(c, "Error loading comments")
		return
	}

	b.analytics.TrackVisit(c, postID)

	c.HTML(http.StatusOK, "blog_detail.html", gin.H{
		"post":     post,
		"textHTML": template.HTML(renderMarkdown(post.Text)),
		"comments": comments,
		"userID":   userID,
		"isAuthor": canEditOrDelete(post.AuthorID, userID),
	})
}

func renderMarkdown(content string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		// on conversion errors fall back to the raw text
		return content
	}
	return buf.String()
}
