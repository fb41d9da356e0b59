// Package seo finalizes an article for publication: slug, category and tag
// selection, JSON-LD structured data, and the metadata bundle the publisher
// ships alongside the body.
package seo

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"autopress/internal/config"
	"autopress/internal/store"
)

// Package is the finalized SEO bundle for one article.
type Package struct {
	Title           string   `json:"title"`
	Slug            string   `json:"slug"`
	MetaDescription string   `json:"meta_description"`
	JSONLD          string   `json:"json_ld"`
	Category        string   `json:"category"`
	Tags            []string `json:"tags"`
	InternalLinks   []string `json:"internal_links"`
	CoverAlt        string   `json:"cover_alt"`
}

const (
	maxTitleLength = 60
	maxMetaLength  = 155
)

var defaultTags = []string{"里程", "积分", "旅行攻略"}

// Packager derives SEO output using the configured site identity.
type Packager struct {
	cfg *config.Config
}

// New constructs a Packager.
func New(cfg *config.Config) *Packager {
	return &Packager{cfg: cfg}
}

// Build finalizes the article in place (title, slug, JSON-LD) and returns the
// SEO package. The chosen title is the first title option clamped to 60
// runes; the meta description prefers the first prepared description.
func (p *Packager) Build(article *store.Article, cover *store.ImageAsset, lead *store.Lead) (*Package, error) {
	titleOptions := article.Meta.TitleOptions
	if len(titleOptions) == 0 {
		titleOptions = []string{article.Title}
	}
	chosenTitle := clampRunes(titleOptions[0], maxTitleLength)

	metaDescription := article.Excerpt
	if len(article.Meta.MetaDescriptions) > 0 {
		metaDescription = article.Meta.MetaDescriptions[0]
	}
	metaDescription = clampRunes(metaDescription, maxMetaLength)

	slug := Slugify(article.Title)
	if slug == "" {
		return nil, fmt.Errorf("empty slug for title %q", article.Title)
	}

	jsonLD, err := p.buildJSONLD(article, cover, lead, chosenTitle)
	if err != nil {
		return nil, err
	}

	article.Title = chosenTitle
	article.Slug = slug
	article.JSONLD = jsonLD

	return &Package{
		Title:           chosenTitle,
		Slug:            slug,
		MetaDescription: metaDescription,
		JSONLD:          jsonLD,
		Category:        SelectCategory(lead),
		Tags:            CollectTags(lead),
		InternalLinks:   article.Meta.InternalLinks,
		CoverAlt:        coverAlt(cover),
	}, nil
}

// SelectCategory picks the site category from title keywords, most specific
// match first.
func SelectCategory(lead *store.Lead) string {
	title := strings.ToLower(lead.Title)
	switch {
	case containsAny(title, "card", "信用卡", "visa", "mastercard"):
		return "Card"
	case containsAny(title, "hotel", "酒店"):
		return "Hotel"
	case containsAny(title, "航", "air", "里程"):
		return "Airline"
	default:
		return "Travel"
	}
}

// CollectTags merges the default tag set with title words of two or more
// runes, sorted for stable output.
func CollectTags(lead *store.Lead) []string {
	set := make(map[string]struct{}, len(defaultTags))
	for _, tag := range defaultTags {
		set[tag] = struct{}{}
	}

	cleaned := strings.NewReplacer("—", " ", "：", " ").Replace(lead.Title)
	for _, word := range strings.Fields(cleaned) {
		word = strings.Trim(word, "，。、()（）")
		if len([]rune(word)) >= 2 {
			set[word] = struct{}{}
		}
	}

	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

func (p *Packager) buildJSONLD(article *store.Article, cover *store.ImageAsset, lead *store.Lead, headline string) (string, error) {
	site := p.cfg.Publishing.SiteName
	data := map[string]any{
		"@context":      "https://schema.org",
		"@type":         "Article",
		"headline":      clampRunes(headline, 110),
		"datePublished": time.Now().UTC().Format(time.RFC3339),
		"inLanguage":    p.cfg.Publishing.Language,
		"author":        map[string]any{"@type": "Organization", "name": site},
		"publisher": map[string]any{
			"@type": "Organization",
			"name":  site,
			"logo": map[string]any{
				"@type": "ImageObject",
				"url":   p.cfg.Publishing.SiteLogo,
			},
		},
		"mainEntityOfPage": lead.URL,
	}
	if cover != nil {
		data["image"] = map[string]any{
			"@type":  "ImageObject",
			"url":    cover.Path,
			"width":  cover.Width,
			"height": cover.Height,
		}
	}

	if len(article.Meta.FAQ) > 0 {
		questions := make([]map[string]any, 0, len(article.Meta.FAQ))
		for _, faq := range article.Meta.FAQ {
			questions = append(questions, map[string]any{
				"@type": "Question",
				"name":  faq.Question,
				"acceptedAnswer": map[string]any{
					"@type": "Answer",
					"text":  faq.Answer,
				},
			})
		}
		data["mainEntity"] = map[string]any{
			"@context":   "https://schema.org",
			"@type":      "FAQPage",
			"mainEntity": questions,
		}
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encode json-ld: %w", err)
	}
	return string(encoded), nil
}

func coverAlt(cover *store.ImageAsset) string {
	if cover == nil {
		return ""
	}
	return cover.AltText
}

func containsAny(text string, keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

func clampRunes(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}
