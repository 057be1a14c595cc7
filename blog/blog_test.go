package blog

import (
	"html/template"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"blogicum/auth"
	"blogicum/models"
)

func setupTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}

	db.AutoMigrate(&models.User{}, &models.Category{}, &models.Location{}, &models.Post{}, &models.Comment{})
	return db
}

func setupTestRouter(blogModule *BlogModule) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	store := cookie.NewStore([]byte("secret"))
	router.Use(sessions.Sessions("test-session", store))
	router.SetHTMLTemplate(testTemplates())
	blogModule.RegisterRoutes(router)

	// test-only login endpoint: stores the given user id in the session
	router.GET("/session/:id", func(c *gin.Context) {
		id, _ := strconv.Atoi(c.Param("id"))
		session := sessions.Default(c)
		session.Set(auth.SessionUserKey, id)
		session.Save()
		c.String(http.StatusOK, "ok")
	})

	return router
}

func testTemplates() *template.Template {
	t := template.New("root")
	names := []string{
		"blog_index.html", "blog_detail.html", "blog_category.html",
		"blog_profile.html", "blog_profile_edit.html", "blog_create.html",
		"blog_delete.html", "blog_comment_edit.html", "blog_error.html",
	}
	for _, name := range names {
		template.Must(t.New(name).Parse(name))
	}
	return t
}

func loginAs(router *gin.Engine, userID int) []*http.Cookie {
	req, _ := http.NewRequest("GET", "/session/"+strconv.Itoa(userID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Result().Cookies()
}

func doRequest(router *gin.Engine, method, target string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, _ := http.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createTestUser(db *gorm.DB, username string) *models.User {
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hashedpassword",
	}
	db.Create(user)
	return user
}

func createTestCategory(db *gorm.DB, slug string, published bool) *models.Category {
	category := &models.Category{
		Title:       "Category " + slug,
		Slug:        slug,
		IsPublished: published,
	}
	db.Create(category)
	return category
}

func createTestPost(db *gorm.DB, author *models.User, category *models.Category, published bool, pubDate time.Time) *models.Post {
	post := &models.Post{
		Title:       "Test Post",
		Text:        "Some **markdown** text.",
		PubDate:     pubDate,
		IsPublished: published,
		AuthorID:    author.ID,
		CreatedAt:   time.Now(),
	}
	if category != nil {
		post.CategoryID = &category.ID
	}
	db.Create(post)
	return post
}

func createTestComment(db *gorm.DB, post *models.Post, author *models.User, text string) *models.Comment {
	comment := &models.Comment{
		Text:      text,
		PostID:    int(post.ID),
		AuthorID:  author.ID,
		CreatedAt: time.Now(),
	}
	db.Create(comment)
	return comment
}

func TestIndexPage(t *testing.T) {
	db := setupTestDB()
	blogModule := NewBlogModule(db, nil)
	router := setupTestRouter(blogModule)

	author := createTestUser(db, "alice")
	category := createTestCategory(db, "tech", true)
	createTestPost(db, author, category, true, time.Now().Add(-time.Hour))

	w := doRequest(router, "GET", "/", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPostDetail_LivePostVisibleToAnonymous(t *testing.T) {
	db := setupTestDB()
	blogModule := NewBlogModule(db, nil)
	router := setupTestRouter(blogModule)

	author := createTestUser(db, "alice")
	category := createTestCategory(db, "tech", true)
	post := createTestPost(db, author, category, true, time.Now().Add(-time.Hour))

	w := doRequest(router, "GET", "/posts/"+strconv.Itoa(int(post.ID)), nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPostDetail_DraftHiddenFromAnonymous(t *testing.T) {
	db := setupTestDB()
	blogModule := NewBlogModule(db, nil)
	router := setupTestRouter(blogModule)

	author := createTestUser(db, "alice")
	category := createTestCategory(db, "tech", true)
	post := createTestPost(db, author, category, false, time.Now().Add(-time.Hour))

	w := doRequest(router, "GET", "/posts/"+strconv.Itoa(int(post.ID)), nil, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostDetail_DraftVisibleToAuthor(t *testing.T) {
	db := setupTestDB()
	blogModule := NewBlogModule(db, nil)
	router := setupTestRouter(blogModule)

	author := createTestUser(db, "alice")
	category := createTestCategory(db, "tech", true)
	post := createTestPost(db, author, category, false, time.Now().Add(-time.Hour))

	cookies := loginAs(router, author.ID)
	w := doRequest(router, "GET", "/posts/"+strconv.Itoa(int(post.ID)), nil, cookies)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPostDetail_FuturePostMaskedUntilPubDate(t *testing.T) {
	db := setupTestDB()
	blogModule := NewBlogModule(db, nil)
	router := setupTestRouter(blogModule)

	author := createTestUser(db, "alice")
	reader := createTestUser(db, "bob")
	category := createTestCategory(db, "tech", true)
	post := createTestPost(db, author, category, true, time.Now().Add(24*time.Hour))

	w := doRequest(router, "GET", "/posts/"+strconv.Itoa(int(post.ID)), nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	cookies := loginAs(router, reader.ID)
	w = doRequest(router, "GET", "/posts/"+strconv.Itoa(int(post.ID)), nil, cookies)
	assert.Equal(t, http.StatusNotFound, w.Code)

	cookies = loginAs(router, author.ID)
	w = doRequest(router, "GET", "/posts/"+strconv.Itoa(int(post.ID)), nil, cookies)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPostDetail_UncategorizedPostHiddenFromNonAuthors(t *testing.T) {
	db := setupTestDB()
	blogModule := NewBlogModule(db, nil)
	router := setupTestRouter(blogModule)

	author := createTestUser(db, "alice")
	post := createTestPost(db, author, nil, true, time.Now().Add(-time.Hour))

	w := doRequest(router, "GET", "/posts/"+strconv.Itoa(int(post.ID)), nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	cookies := loginAs(router, author.ID)
	w = doRequest(router, "GET", "/posts/"+strconv.Itoa(int(post.ID)), nil, cookies)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPostDetail_UnknownID(t *testing.T) {
	db := setupTestDB()
	blogModule := NewBlogModule(db, nil)
	router := setupTestRouter(blogModule)

	w := doRequest(router, "GET", "/posts/9999", nil, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCategoryPage_UnpublishedCategoryIsMasked(t *testing.T) {
	db := setupTestDB()
	blogModule := NewBlogModule(db, nil)
	router := setupTestRouter(blogModule)

	author := createTestUser(db, "alice")
	category := createTestCategory(db, "hidden", false)
	createTestPost(db, author, category, true, time.Now().Add(-time.Hour))

	w := doRequest(router, "GET", "/category/hidden", nil, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCategoryPage_PublishedCategory(t *testing.T) {
	db := setupTestDB()
	blogModule := NewBlogModule(db, nil)
	router := setupTestRouter(blogModule)

	createTestCategory(db, "tech", true)

	w := doRequest(router, "GET", "/category/tech", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProfilePage_UnknownUser(t *testing.T) {
	db := setupTestDB()
	blogModule := NewBlogModule(db, nil)
	router := setupTestRouter(blogModule)

	w := doRequest(router, "GET", "/profile/ghost", nil, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRenderMarkdown(t *testing.T) {
	result := renderMarkdown("# Title\n\nSome **bold** text.")

	assert.Contains(t, result, "<h1>Title</h1>")
	assert.Contains(t, result, "<strong>bold</strong>")
}
