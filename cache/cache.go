package cache

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// File-backed cache for rendered post-detail pages. Only pages served to
// anonymous visitors land here; logged-in views bypass the cache entirely
// because authors see drafts and scheduled posts.

const cacheRoot = "cache"

// PostCachePath returns the cache file path for a post's detail page.
func PostCachePath(postID int) string {
	hash := generateHash("post:" + strconv.Itoa(postID))
	return filepath.Join(cacheRoot, "posts", fmt.Sprintf("%d_%s.html", postID, hash[:16]))
}

// generateHash generates an xxHash hash for the given string
func generateHash(s string) string {
	hash := xxhash.Sum64String(s)
	return fmt.Sprintf("%016x", hash)
}

func ensureCacheDir() error {
	return os.MkdirAll(filepath.Join(cacheRoot, "posts"), 0755)
}

// WritePost stores the rendered HTML of a post's detail page.
func WritePost(postID int, html string) error {
	if err := ensureCacheDir(); err != nil {
		return err
	}
	return ioutil.WriteFile(PostCachePath(postID), []byte(html), 0644)
}

// ReadPost returns the cached page if it exists and has not expired.
func ReadPost(postID int, maxAge time.Duration) (string, bool) {
	cachePath := PostCachePath(postID)

	info, err := os.Stat(cachePath)
	if err != nil {
		return "", false
	}

	if time.Since(info.ModTime()) > maxAge {
		return "", false
	}

	content, err := ioutil.ReadFile(cachePath)
	if err != nil {
		return "", false
	}

	return string(content), true
}

// ClearPost drops a post's cached page. Mutation handlers call this whenever
// the post or its comment thread changes.
func ClearPost(postID int) error {
	err := os.Remove(PostCachePath(postID))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ClearAll wipes every cached page.
func ClearAll() error {
	return os.RemoveAll(cacheRoot)
}

// ClearOld removes cache files older than maxAge.
func ClearOld(maxAge time.Duration) error {
	return filepath.Walk(cacheRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}

		if info.IsDir() || filepath.Ext(path) != ".html" {
			return nil
		}

		if time.Since(info.ModTime()) > maxAge {
			os.Remove(path)
		}

		return nil
	})
}
