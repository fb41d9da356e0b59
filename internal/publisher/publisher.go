// Package publisher pushes finished articles to WordPress, falling back to a
// local draft pair when the remote is unconfigured or unavailable. Every
// publish attempt yields a result; the pipeline never loses an article to a
// failed upload.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"autopress/internal/config"
	"autopress/internal/logging"
	"autopress/internal/seo"
	"autopress/internal/services/wordpress"
	"autopress/internal/store"
	"autopress/internal/taxonomy"
)

// Result describes where an article landed.
type Result struct {
	Platform string
	Status   string
	URL      string
	RemoteID string
	Meta     map[string]any
}

// Publisher owns the two-branch publish decision.
type Publisher struct {
	cfg      *config.Config
	taxonomy *taxonomy.Resolver
	remote   *wordpress.Client
	logger   *slog.Logger
}

// New constructs a Publisher. The remote client is built even without
// credentials; RemoteConfigured gates its use.
func New(cfg *config.Config, resolver *taxonomy.Resolver, remote *wordpress.Client, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Publisher{
		cfg:      cfg,
		taxonomy: resolver,
		remote:   remote,
		logger:   logger.With(logging.String(logging.FieldComponent, "publisher")),
	}
}

// Publish attempts the remote branch when credentials are configured and
// falls back to a local draft on any remote failure. The returned result is
// always complete: platform, status, and a url or file path.
func (p *Publisher) Publish(ctx context.Context, article *store.Article, cover *store.ImageAsset, pkg *seo.Package, lead *store.Lead) (*Result, error) {
	if p.cfg.RemoteConfigured() {
		result, err := p.publishRemote(ctx, article, cover, pkg)
		if err == nil {
			return result, nil
		}
		p.logger.Warn("remote publish failed, saving local draft",
			logging.String("slug", pkg.Slug),
			logging.Error(err))
	}
	return p.publishLocal(article, cover, pkg, lead)
}

func (p *Publisher) publishRemote(ctx context.Context, article *store.Article, cover *store.ImageAsset, pkg *seo.Package) (*Result, error) {
	terms, err := p.taxonomy.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve taxonomy: %w", err)
	}

	var featuredID int
	if cover != nil {
		coverPath := filepath.Join(p.cfg.Paths.AssetsDir, cover.Path)
		featuredID, err = p.remote.UploadMedia(ctx, coverPath, "image/png")
		if err != nil {
			return nil, fmt.Errorf("upload cover: %w", err)
		}
	}

	var categories []int
	if id := terms.Categories[pkg.Category]; id != 0 {
		categories = []int{id}
	}
	var tagIDs []int
	for _, tag := range pkg.Tags {
		if id := terms.Tags[tag]; id != 0 {
			tagIDs = append(tagIDs, id)
		}
	}

	internalLinks, err := json.Marshal(pkg.InternalLinks)
	if err != nil {
		return nil, fmt.Errorf("encode internal links: %w", err)
	}

	post, err := p.remote.CreatePost(ctx, wordpress.PostPayload{
		Title:         pkg.Title,
		Slug:          pkg.Slug,
		Status:        "publish",
		Content:       withStructuredData(article.HTML, pkg.JSONLD),
		Excerpt:       article.Excerpt,
		FeaturedMedia: featuredID,
		Categories:    categories,
		Tags:          tagIDs,
		Meta:          map[string]string{"_autopress_internal_links": string(internalLinks)},
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("article published",
		logging.String("slug", pkg.Slug),
		logging.String("url", post.Link))
	return &Result{
		Platform: store.PlatformWordPress,
		Status:   store.PublishStatusPublished,
		URL:      post.Link,
		RemoteID: fmt.Sprintf("%d", post.ID),
		Meta:     map[string]any{"featured_media": featuredID},
	}, nil
}

// publishLocal writes the draft pair: rendered HTML with embedded structured
// data and a JSON sidecar carrying everything an editor needs to publish by
// hand, plus a copy of the cover.
func (p *Publisher) publishLocal(article *store.Article, cover *store.ImageAsset, pkg *seo.Package, lead *store.Lead) (*Result, error) {
	outputDir := p.cfg.Paths.OutputDir
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	htmlPath := filepath.Join(outputDir, pkg.Slug+".html")
	if err := os.WriteFile(htmlPath, []byte(withStructuredData(article.HTML, pkg.JSONLD)), 0o644); err != nil {
		return nil, fmt.Errorf("write draft html: %w", err)
	}

	var coverCopy string
	if cover != nil {
		coverCopy = filepath.Join(outputDir, filepath.Base(cover.Path))
		if err := copyFile(filepath.Join(p.cfg.Paths.AssetsDir, cover.Path), coverCopy); err != nil {
			return nil, fmt.Errorf("copy cover: %w", err)
		}
	}

	sidecar := map[string]any{
		"title":            pkg.Title,
		"slug":             pkg.Slug,
		"excerpt":          article.Excerpt,
		"meta_description": pkg.MetaDescription,
		"category":         pkg.Category,
		"tags":             pkg.Tags,
		"internal_links":   pkg.InternalLinks,
		"cover_image":      coverCopy,
		"cover_alt":        pkg.CoverAlt,
		"source_url":       lead.URL,
	}
	sidecarJSON, err := json.MarshalIndent(sidecar, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode draft sidecar: %w", err)
	}
	jsonPath := filepath.Join(outputDir, pkg.Slug+".json")
	if err := os.WriteFile(jsonPath, sidecarJSON, 0o644); err != nil {
		return nil, fmt.Errorf("write draft sidecar: %w", err)
	}

	p.logger.Info("local draft saved", logging.String("path", htmlPath))
	return &Result{
		Platform: store.PlatformLocal,
		Status:   store.PublishStatusDraft,
		URL:      htmlPath,
		Meta:     sidecar,
	}, nil
}

func withStructuredData(html, jsonLD string) string {
	return html + fmt.Sprintf(`<script type="application/ld+json">%s</script>`, jsonLD)
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
