package writer_test

import (
	"strings"
	"testing"

	"autopress/internal/planner"
	"autopress/internal/research"
	"autopress/internal/store"
	"autopress/internal/writer"
)

func composeFixture(t *testing.T) (*store.Lead, *store.Article) {
	t.Helper()
	lead := &store.Lead{
		ID:      7,
		URL:     "https://example.com/promo",
		Title:   "航司双倍里程促销",
		Source:  "deals-feed",
		Summary: "航司宣布双倍里程活动。报名需在官网完成。活动截止到月底。",
	}
	pack := research.Gather(lead)
	plan := planner.Build(lead, pack)
	return lead, writer.Compose(lead, plan, pack)
}

func TestComposeStructure(t *testing.T) {
	lead, article := composeFixture(t)

	if article.LeadID != lead.ID {
		t.Fatalf("expected article bound to lead %d, got %d", lead.ID, article.LeadID)
	}
	if article.Title != lead.Title {
		t.Fatalf("expected primary title from lead, got %q", article.Title)
	}
	if article.Slug != "" {
		t.Fatalf("expected slug left to the seo stage, got %q", article.Slug)
	}
	if article.Status != store.ArticleDraft {
		t.Fatalf("expected draft status, got %s", article.Status)
	}

	for _, heading := range []string{"速览要点", "玩法解析", "值不值得", "实用FAQ", "总结与提醒", "信息框引用"} {
		if !strings.Contains(article.HTML, "<h2>"+heading+"</h2>") {
			t.Fatalf("expected section %q in body", heading)
		}
	}
	if !strings.Contains(article.HTML, "[F1]") {
		t.Fatal("expected fact citations in body")
	}
	if !strings.Contains(article.HTML, `id="ref-F1"`) {
		t.Fatal("expected citation footer anchors")
	}
}

func TestComposeMeta(t *testing.T) {
	_, article := composeFixture(t)

	if len(article.Meta.TitleOptions) != 5 {
		t.Fatalf("expected five title options, got %d", len(article.Meta.TitleOptions))
	}
	if len(article.Meta.MetaDescriptions) != 3 {
		t.Fatalf("expected three meta descriptions, got %d", len(article.Meta.MetaDescriptions))
	}
	if len(article.Meta.FAQ) != 4 {
		t.Fatalf("expected three evidence FAQs plus the site FAQ, got %d", len(article.Meta.FAQ))
	}
	if len(article.Meta.InternalLinks) != 5 {
		t.Fatalf("expected internal links from plan keywords, got %d", len(article.Meta.InternalLinks))
	}
	if article.Excerpt == "" {
		t.Fatal("expected non-empty excerpt")
	}
}

func TestComposeBodyLengthBounds(t *testing.T) {
	_, article := composeFixture(t)

	length := len([]rune(article.HTML))
	if length < 1500 {
		t.Fatalf("expected filler to reach minimum length, got %d", length)
	}
}
