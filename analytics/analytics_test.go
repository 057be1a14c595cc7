package analytics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestModule() *AnalyticsModule {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(err)
	}
	return NewAnalyticsModule(db)
}

func testContext(headers map[string]string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/posts/1", nil)
	for k, v := range headers {
		c.Request.Header.Set(k, v)
	}
	return c
}

func TestNilModuleIsSafe(t *testing.T) {
	var module *AnalyticsModule

	module.TrackVisit(testContext(nil), 1)
	assert.Equal(t, int64(0), module.PostVisitCount(1))
	assert.Nil(t, module.VisitsByDay(1, 7))
}

func TestNewAnalyticsModule_NilDBDisabled(t *testing.T) {
	assert.Nil(t, NewAnalyticsModule(nil))
}

func TestPostVisitCount(t *testing.T) {
	module := setupTestModule()

	module.db.Create(&PostEvent{PostID: 1, CookieID: "a", IP: "127.0.0.1"})
	module.db.Create(&PostEvent{PostID: 1, CookieID: "b", IP: "127.0.0.1"})
	module.db.Create(&PostEvent{PostID: 2, CookieID: "a", IP: "127.0.0.1"})

	assert.Equal(t, int64(2), module.PostVisitCount(1))
	assert.Equal(t, int64(1), module.PostVisitCount(2))
	assert.Equal(t, int64(0), module.PostVisitCount(3))
}

func TestExtractBrowser(t *testing.T) {
	tests := []struct {
		userAgent string
		want      string
	}{
		{"Mozilla/5.0 (X11; Linux) Gecko/20100101 Firefox/128.0", "Firefox"},
		{"Mozilla/5.0 Chrome/126.0 Safari/537.36 Edg/126.0", "Edge"},
		{"Mozilla/5.0 Chrome/126.0 Safari/537.36", "Chrome"},
		{"Mozilla/5.0 (Macintosh) Version/17.5 Safari/605.1.15", "Safari"},
		{"curl/8.6.0", "Other"},
	}

	for _, tt := range tests {
		got := extractBrowser(tt.userAgent)
		if assert.NotNil(t, got, tt.userAgent) {
			assert.Equal(t, tt.want, *got, tt.userAgent)
		}
	}

	assert.Nil(t, extractBrowser(""))
}

func TestExtractLanguage(t *testing.T) {
	c := testContext(map[string]string{"Accept-Language": "pt-BR,pt;q=0.9,en;q=0.8"})
	lang := extractLanguage(c)
	if assert.NotNil(t, lang) {
		assert.Equal(t, "pt-BR", *lang)
	}

	c = testContext(map[string]string{"Accept-Language": "en-US;q=0.7"})
	lang = extractLanguage(c)
	if assert.NotNil(t, lang) {
		assert.Equal(t, "en-US", *lang)
	}

	c = testContext(nil)
	assert.Nil(t, extractLanguage(c))
}

func TestGetOrCreateCookieID(t *testing.T) {
	module := setupTestModule()

	c := testContext(nil)
	first := module.getOrCreateCookieID(c)
	assert.NotEmpty(t, first)

	c = testContext(nil)
	c.Request.AddCookie(&http.Cookie{Name: "blogicum_visitor_id", Value: "existing-id"})
	assert.Equal(t, "existing-id", module.getOrCreateCookieID(c))
}
