// Package rules applies compliance fixups to composed articles: expiry
// banners for lapsed deals and a trailing disclaimer.
package rules

import (
	"embed"
	"strings"
	"time"

	"autopress/internal/planner"
	"autopress/internal/store"
)

//go:embed templates/*.html
var templatesFS embed.FS

var (
	disclaimer    = mustTemplate("templates/disclaimer.html")
	expiredBanner = mustTemplate("templates/expired_banner.html")
)

const expiredTitleSuffix = "（已结束）"

func mustTemplate(name string) string {
	data, err := templatesFS.ReadFile(name)
	if err != nil {
		panic("rules: missing template " + name)
	}
	return strings.TrimSpace(string(data))
}

// Apply mutates the article in place and returns it. Applying twice is a
// no-op: the banner, suffix, and disclaimer are each added at most once.
func Apply(article *store.Article, plan *planner.ContentPlan) *store.Article {
	if plan.DealDeadline != nil && plan.DealDeadline.Before(time.Now().UTC()) {
		if !strings.HasSuffix(article.Title, expiredTitleSuffix) {
			article.Title += expiredTitleSuffix
		}
		if !strings.Contains(article.HTML, expiredBanner) {
			article.HTML = expiredBanner + article.HTML
		}
		article.Status = store.ArticleExpired
	}

	if !strings.Contains(article.HTML, disclaimer) {
		article.HTML += disclaimer
	}
	return article
}
