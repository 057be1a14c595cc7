package analytics

import (
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostEvent is one recorded visit to a post's detail page. Events live in a
// separate database so visit traffic never contends with content writes.
type PostEvent struct {
	ID        uint      `gorm:"primary_key;autoIncrement"`
	PostID    int       `gorm:"not null;index"`
	CookieID  string    `gorm:"not null;index"`
	IP        string    `gorm:"not null"`
	Browser   *string   // nullable
	Language  *string   // nullable
	CreatedAt time.Time `gorm:"index"`
}

type AnalyticsModule struct {
	db *gorm.DB
}

func NewAnalyticsModule(db *gorm.DB) *AnalyticsModule {
	if db == nil {
		log.Println("Analytics DB is nil, analytics will be disabled")
		return nil
	}

	if err := db.AutoMigrate(&PostEvent{}); err != nil {
		log.Printf("Error migrating post_events table: %v", err)
		return nil
	}

	log.Println("Analytics module initialized successfully")
	return &AnalyticsModule{db: db}
}

// TrackVisit records a detail-page visit. A repeat visit by the same visitor
// to the same post within 30 minutes is dropped so refreshes don't inflate
// counts. Safe to call on a nil module.
func (a *AnalyticsModule) TrackVisit(c *gin.Context, postID int) {
	if a == nil || a.db == nil {
		return
	}

	cookieID := a.getOrCreateCookieID(c)

	thirtyMinutesAgo := time.Now().Add(-30 * time.Minute)
	var recent PostEvent
	err := a.db.Where("cookie_id = ? AND post_id = ? AND created_at > ?",
		cookieID, postID, thirtyMinutesAgo).First(&recent).Error
	if err == nil {
		return
	}

	browser := extractBrowser(c.Request.UserAgent())
	language := extractLanguage(c)

	event := PostEvent{
		PostID:    postID,
		CookieID:  cookieID,
		IP:        c.ClientIP(),
		Browser:   browser,
		Language:  language,
		CreatedAt: time.Now(),
	}

	// write asynchronously, a lost event is cheaper than a slow page
	go func() {
		if err := a.db.Create(&event).Error; err != nil {
			log.Printf("Error saving analytics event: %v", err)
		}
	}()
}

// PostVisitCount returns the recorded visits of one post, 0 when analytics
// is disabled.
func (a *AnalyticsModule) PostVisitCount(postID int) int64 {
	if a == nil || a.db == nil {
		return 0
	}

	var count int64
	if err := a.db.Model(&PostEvent{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
		return 0
	}
	return count
}

// VisitsByDay returns per-day visit counts for a post over the last N days.
type DayCount struct {
	Date  string
	Count int64
}

func (a *AnalyticsModule) VisitsByDay(postID int, days int) []DayCount {
	if a == nil || a.db == nil {
		return nil
	}

	since := time.Now().AddDate(0, 0, -days)

	var rows []DayCount
	a.db.Model(&PostEvent{}).
		Select("DATE(created_at) AS date, COUNT(*) AS count").
		Where("post_id = ? AND created_at > ?", postID, since).
		Group("DATE(created_at)").
		Order("date").
		Scan(&rows)
	return rows
}

func (a *AnalyticsModule) getOrCreateCookieID(c *gin.Context) string {
	const cookieName = "blogicum_visitor_id"

	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}

	cookieID := uuid.NewString()
	c.SetCookie(cookieName, cookieID, 86400*365, "/", "", false, true)
	return cookieID
}

func extractBrowser(userAgent string) *string {
	if userAgent == "" {
		return nil
	}

	var browser string
	switch {
	case strings.Contains(userAgent, "Firefox"):
		browser = "Firefox"
	case strings.Contains(userAgent, "Edg"):
		browser = "Edge"
	case strings.Contains(userAgent, "Chrome"):
		browser = "Chrome"
	case strings.Contains(userAgent, "Safari"):
		browser = "Safari"
	default:
		browser = "Other"
	}
	return &browser
}

func extractLanguage(c *gin.Context) *string {
	acceptLanguage := c.GetHeader("Accept-Language")
	if acceptLanguage == "" {
		return nil
	}

	// first language tag, stripped of quality weights
	lang := strings.SplitN(acceptLanguage, ",", 2)[0]
	lang = strings.SplitN(lang, ";", 2)[0]
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return nil
	}
	return &lang
}
