package cache

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Middleware caches post-detail pages served to anonymous visitors. Requests
// carrying a session identity skip the cache on both read and write: what a
// logged-in user sees depends on who they are.
func Middleware(maxAge time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != "GET" {
			c.Next()
			return
		}

		postID, ok := postIDFromPath(c.Request.URL.Path)
		if !ok {
			c.Next()
			return
		}

		if sessions.Default(c).Get("user_id") != nil {
			c.Next()
			return
		}

		if cached, found := ReadPost(postID, maxAge); found {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(cached))
			c.Abort()
			return
		}

		c.Header("X-Cache", "MISS")

		writer := &responseWriter{
			ResponseWriter: c.Writer,
			body:           bytes.NewBuffer(nil),
		}
		c.Writer = writer

		c.Next()

		// only successful HTML responses are worth keeping; 404s for
		// invisible posts must stay uncached so publication takes effect
		if c.Writer.Status() == http.StatusOK &&
			strings.HasPrefix(c.Writer.Header().Get("Content-Type"), "text/html") {
			WritePost(postID, writer.body.String())
		}
	}
}

// postIDFromPath matches exactly /posts/<id>, the only cacheable page.
func postIDFromPath(path string) (int, bool) {
	path = strings.TrimSuffix(path, "/")
	rest, found := strings.CutPrefix(path, "/posts/")
	if !found || rest == "" || strings.Contains(rest, "/") {
		return 0, false
	}

	id, err := strconv.Atoi(rest)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
