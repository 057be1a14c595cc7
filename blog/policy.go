package blog

import (
	"time"

	"blogicum/models"
)

// isLive reports whether a post passes the public-visibility predicate:
// published, publication date not in the future, and attached to a published
// category. A post without a category is never live.
func isLive(post *models.Post, now time.Time) bool {
	return post.IsPublished &&
		!post.PubDate.After(now) &&
		post.Category != nil &&
		post.Category.IsPublished
}

// canView decides whether the requesting identity may see a post. Authors
// always see their own posts, drafts and scheduled ones included; everyone
// else only sees live posts. userID 0 means anonymous.
func canView(post *models.Post, userID int, now time.Time) bool {
	if userID != 0 && userID == post.AuthorID {
		return true
	}
	return isLive(post, now)
}

// canEditOrDelete is true only for the authenticated author. Ownership is
// never transferable.
func canEditOrDelete(authorID, userID int) bool {
	return userID != 0 && userID == authorID
}
