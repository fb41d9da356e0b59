package seo_test

import (
	"encoding/json"
	"strings"
	"testing"

	"autopress/internal/seo"
	"autopress/internal/store"
	"autopress/internal/testsupport"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"Café Déjà Vu", "cafe-deja-vu"},
		{"Air Canada -- 50% Off!", "air-canada-50-off"},
		{"  spaced   out  ", "spaced-out"},
		{"航司双倍里程促销", "航司双倍里程促销"},
		{"Aeroplan 促销：50% bonus", "aeroplan-促销-50-bonus"},
	}
	for _, tc := range cases {
		if got := seo.Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSlugifyCapsLength(t *testing.T) {
	long := strings.Repeat("a", 200)
	slug := seo.Slugify(long)
	if len([]rune(slug)) != 80 {
		t.Fatalf("expected slug capped at 80 runes, got %d", len([]rune(slug)))
	}
}

func TestSelectCategory(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"新信用卡开卡奖励", "Card"},
		{"Hyatt 酒店促销", "Hotel"},
		{"航司里程大促", "Airline"},
		{"周末出行指南", "Travel"},
	}
	for _, tc := range cases {
		got := seo.SelectCategory(&store.Lead{Title: tc.title})
		if got != tc.want {
			t.Errorf("SelectCategory(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}

func TestCollectTags(t *testing.T) {
	tags := seo.CollectTags(&store.Lead{Title: "Aeroplan 促销：bonus miles"})

	want := map[string]bool{"里程": false, "积分": false, "旅行攻略": false, "Aeroplan": false}
	for _, tag := range tags {
		if _, ok := want[tag]; ok {
			want[tag] = true
		}
	}
	for tag, seen := range want {
		if !seen {
			t.Errorf("expected tag %q in %v", tag, tags)
		}
	}
	if !sortedStrings(tags) {
		t.Fatalf("expected sorted tags, got %v", tags)
	}
}

func sortedStrings(values []string) bool {
	for i := 1; i < len(values); i++ {
		if values[i-1] > values[i] {
			return false
		}
	}
	return true
}

func TestBuildFinalizesArticle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	packager := seo.New(cfg)

	lead := &store.Lead{URL: "https://example.com/deal", Title: "Aeroplan Mileage Promotion"}
	article := &store.Article{
		Title:   "Aeroplan Mileage Promotion",
		Excerpt: "Excerpt text.",
		Meta: store.ArticleMeta{
			TitleOptions:     []string{"Aeroplan Mileage Promotion", "Alternative"},
			MetaDescriptions: []string{strings.Repeat("描述", 100)},
			FAQ:              []store.FAQItem{{Question: "Q1", Answer: "A1"}},
			InternalLinks:    []string{"航司里程"},
		},
	}
	cover := &store.ImageAsset{Path: "cover-abc.png", AltText: "封面", Width: 1200, Height: 630}

	pkg, err := packager.Build(article, cover, lead)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if article.Slug != "aeroplan-mileage-promotion" {
		t.Fatalf("unexpected slug %q", article.Slug)
	}
	if pkg.Slug != article.Slug {
		t.Fatal("expected package slug to match article slug")
	}
	if len([]rune(pkg.MetaDescription)) != 155 {
		t.Fatalf("expected meta description clamped to 155 runes, got %d", len([]rune(pkg.MetaDescription)))
	}
	if pkg.CoverAlt != "封面" {
		t.Fatalf("unexpected cover alt %q", pkg.CoverAlt)
	}

	var jsonLD map[string]any
	if err := json.Unmarshal([]byte(article.JSONLD), &jsonLD); err != nil {
		t.Fatalf("invalid json-ld: %v", err)
	}
	if jsonLD["@type"] != "Article" {
		t.Fatalf("unexpected json-ld type %v", jsonLD["@type"])
	}
	if jsonLD["mainEntityOfPage"] != lead.URL {
		t.Fatalf("expected lead url as main entity, got %v", jsonLD["mainEntityOfPage"])
	}
	mainEntity, ok := jsonLD["mainEntity"].(map[string]any)
	if !ok || mainEntity["@type"] != "FAQPage" {
		t.Fatalf("expected FAQPage entity, got %v", jsonLD["mainEntity"])
	}
}

func TestBuildRejectsEmptySlug(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	packager := seo.New(cfg)

	lead := &store.Lead{URL: "https://example.com/x", Title: "!!!"}
	article := &store.Article{Title: "!!!"}

	if _, err := packager.Build(article, nil, lead); err == nil {
		t.Fatal("expected error for unsluggable title")
	}
}
