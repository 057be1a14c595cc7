package staff

import (
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"blogicum/cache"
	"blogicum/models"
)

// StaffModule administers categories and locations. The core blog surface
// never mutates these: they are curated by a small allowlisted crew.
type StaffModule struct {
	db *gorm.DB
}

func NewStaffModule(db *gorm.DB) *StaffModule {
	return &StaffModule{db: db}
}

func (s *StaffModule) RegisterRoutes(router *gin.Engine) {
	staffGroup := router.Group("/staff")
	staffGroup.Use(s.requireStaff)
	{
		staffGroup.GET("/", s.index)
		staffGroup.POST("/categories", s.createCategory)
		staffGroup.POST("/categories/:id/toggle", s.toggleCategory)
		staffGroup.POST("/locations", s.createLocation)
		staffGroup.POST("/clear-cache/:postID", s.clearPostCache)
	}
}

// requireStaff needs a logged-in user whose username is on the allowlist.
func (s *StaffModule) requireStaff(c *gin.Context) {
	session := sessions.Default(c)
	userID := session.Get("user_id")

	if userID == nil {
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
		return
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
		return
	}

	if !isStaffUsername(user.Username) {
		c.HTML(http.StatusForbidden, "staff_error.html", gin.H{
			"error": "Access denied",
		})
		c.Abort()
		return
	}

	c.Set("staff_user", user)
	c.Next()
}

// isStaffUsername checks the comma-separated STAFF_USERNAMES allowlist.
func isStaffUsername(username string) bool {
	allowlist := os.Getenv("STAFF_USERNAMES")
	if allowlist == "" {
		return false
	}

	for _, entry := range strings.Split(allowlist, ",") {
		if strings.TrimSpace(entry) == username {
			return true
		}
	}
	return false
}

func (s *StaffModule) index(c *gin.Context) {
	var categories []models.Category
	if err := s.db.Order("title").Find(&categories).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "staff_error.html", gin.H{
			"error": "Error loading categories",
		})
		return
	}

	var locations []models.Location
	if err := s.db.Order("name").Find(&locations).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "staff_error.html", gin.H{
			"error": "Error loading locations",
		})
		return
	}

	c.HTML(http.StatusOK, "staff_index.html", gin.H{
		"categories": categories,
		"locations":  locations,
	})
}

func (s *StaffModule) createCategory(c *gin.Context) {
	title := c.PostForm("title")
	description := c.PostForm("description")
	slug := c.PostForm("slug")

	if title == "" {
		c.HTML(http.StatusBadRequest, "staff_error.html", gin.H{
			"error": "Title is required",
		})
		return
	}

	if slug == "" {
		slug = Slugify(title)
	}

	var existing models.Category
	if err := s.db.Where("slug = ?", slug).First(&existing).Error; err == nil {
		c.HTML(http.StatusBadRequest, "staff_error.html", gin.H{
			"error": "This slug is already in use",
		})
		return
	}

	category := models.Category{
		Title:       title,
		Description: description,
		Slug:        slug,
		IsPublished: c.PostForm("is_published") != "",
	}

	if err := s.db.Create(&category).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "staff_error.html", gin.H{
			"error": "Error creating category",
		})
		return
	}

	c.Redirect(http.StatusFound, "/staff/")
}

// toggleCategory flips a category's publication flag. Unpublishing a category
// hides all of its posts from public feeds at once.
func (s *StaffModule) toggleCategory(c *gin.Context) {
	categoryID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.HTML(http.StatusNotFound, "staff_error.html", gin.H{
			"error": "Category not found",
		})
		return
	}

	var category models.Category
	if err := s.db.First(&category, categoryID).Error; err != nil {
		c.HTML(http.StatusNotFound, "staff_error.html", gin.H{
			"error": "Category not found",
		})
		return
	}

	category.IsPublished = !category.IsPublished
	if err := s.db.Save(&category).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "staff_error.html", gin.H{
			"error": "Error updating category",
		})
		return
	}

	// cached anonymous detail pages of this category's posts are stale the
	// moment visibility flips
	var postIDs []int
	s.db.Model(&models.Post{}).Where("category_id = ?", category.ID).Pluck("id", &postIDs)
	for _, postID := range postIDs {
		cache.ClearPost(postID)
	}

	c.Redirect(http.StatusFound, "/staff/")
}

func (s *StaffModule) createLocation(c *gin.Context) {
	name := c.PostForm("name")
	if name == "" {
		c.HTML(http.StatusBadRequest, "staff_error.html", gin.H{
			"error": "Name is required",
		})
		return
	}

	location := models.Location{
		Name:        name,
		IsPublished: c.PostForm("is_published") != "",
	}

	if err := s.db.Create(&location).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "staff_error.html", gin.H{
			"error": "Error creating location",
		})
		return
	}

	c.Redirect(http.StatusFound, "/staff/")
}

func (s *StaffModule) clearPostCache(c *gin.Context) {
	postID, err := strconv.Atoi(c.Param("postID"))
	if err != nil {
		c.HTML(http.StatusNotFound, "staff_error.html", gin.H{
			"error": "Post not found",
		})
		return
	}

	if err := cache.ClearPost(postID); err != nil {
		c.HTML(http.StatusInternalServerError, "staff_error.html", gin.H{
			"error": "Error clearing cache",
		})
		return
	}

	c.Redirect(http.StatusFound, "/staff/")
}
