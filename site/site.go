package site

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"blogicum/blog"
	"blogicum/models"
)

type SiteModule struct {
	db *gorm.DB
}

func NewSiteModule(db *gorm.DB) *SiteModule {
	return &SiteModule{db: db}
}

func (s *SiteModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/sitemap.xml", s.sitemap)
}

// sitemap lists the feed, published categories, profiles and live posts.
// Drafts, scheduled posts and unpublished categories stay out: the sitemap
// must never leak a URL the visibility rules would 404.
func (s *SiteModule) sitemap(c *gin.Context) {
	domain := os.Getenv("DOMAIN")
	if domain == "" {
		domain = "http://localhost:8080"
	}
	domain = strings.TrimSuffix(domain, "/")

	var sitemap strings.Builder
	sitemap.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	sitemap.WriteString("\n")
	sitemap.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	sitemap.WriteString("\n")

	writeURL := func(loc, changefreq, priority, lastmod string) {
		sitemap.WriteString("  <url>\n")
		sitemap.WriteString("    <loc>" + loc + "</loc>\n")
		if lastmod != "" {
			sitemap.WriteString("    <lastmod>" + lastmod + "</lastmod>\n")
		}
		sitemap.WriteString("    <changefreq>" + changefreq + "</changefreq>\n")
		sitemap.WriteString("    <priority>" + priority + "</priority>\n")
		sitemap.WriteString("  </url>\n")
	}

	writeURL(domain+"/", "daily", "1.0", "")

	var categories []models.Category
	s.db.Where("is_published = ?", true).Find(&categories)
	for _, category := range categories {
		writeURL(domain+"/category/"+category.Slug, "daily", "0.8", "")
	}

	var posts []models.Post
	s.db.Model(&models.Post{}).
		Scopes(blog.LiveScope(time.Now())).
		Order("posts.pub_date DESC").
		Find(&posts)
	for _, post := range posts {
		writeURL(
			domain+"/posts/"+strconv.Itoa(int(post.ID)),
			"monthly", "0.6",
			post.PubDate.Format(time.RFC3339),
		)
	}

	var users []models.User
	s.db.Find(&users)
	for _, user := range users {
		writeURL(domain+"/profile/"+user.Username, "weekly", "0.4", "")
	}

	sitemap.WriteString("</urlset>\n")

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.String(http.StatusOK, sitemap.String())
}
