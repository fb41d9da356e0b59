// Package wordpress is a minimal REST client for the WordPress endpoints the
// publisher needs: media upload, post creation, and taxonomy listings.
package wordpress

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"

	"autopress/internal/config"
)

// Client talks to one WordPress site over the REST API with application
// password auth.
type Client struct {
	client *resty.Client
}

// PostPayload is the post creation request body.
type PostPayload struct {
	Title         string            `json:"title"`
	Slug          string            `json:"slug"`
	Status        string            `json:"status"`
	Content       string            `json:"content"`
	Excerpt       string            `json:"excerpt"`
	FeaturedMedia int               `json:"featured_media,omitempty"`
	Categories    []int             `json:"categories,omitempty"`
	Tags          []int             `json:"tags,omitempty"`
	Meta          map[string]string `json:"meta,omitempty"`
}

// PostResponse is the subset of the post creation response the pipeline uses.
type PostResponse struct {
	ID   int    `json:"id"`
	Link string `json:"link"`
}

type mediaResponse struct {
	ID int `json:"id"`
}

// Term is one category or tag as listed by the REST API.
type Term struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// NewClient constructs a Client from the WordPress configuration.
func NewClient(cfg *config.Config) *Client {
	timeout := time.Duration(cfg.WordPress.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		client: resty.New().
			SetBaseURL(cfg.WordPress.BaseURL).
			SetTimeout(timeout).
			SetBasicAuth(cfg.WordPress.Username, cfg.WordPress.AppPassword),
	}
}

// UploadMedia uploads a file as a media attachment and returns its id.
func (c *Client) UploadMedia(ctx context.Context, path, contentType string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read media file: %w", err)
	}

	var media mediaResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetHeader("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filepath.Base(path))).
		SetBody(data).
		SetResult(&media).
		Post("/wp-json/wp/v2/media")
	if err != nil {
		return 0, fmt.Errorf("upload media: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return 0, fmt.Errorf("media upload returned status %d", resp.StatusCode())
	}
	if media.ID == 0 {
		return 0, fmt.Errorf("media upload returned no id")
	}
	return media.ID, nil
}

// CreatePost creates a post and returns its id and public link.
func (c *Client) CreatePost(ctx context.Context, payload PostPayload) (*PostResponse, error) {
	var post PostResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&post).
		Post("/wp-json/wp/v2/posts")
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("post creation returned status %d", resp.StatusCode())
	}
	return &post, nil
}

// Categories lists up to 100 categories.
func (c *Client) Categories(ctx context.Context) ([]Term, error) {
	return c.listTerms(ctx, "/wp-json/wp/v2/categories")
}

// Tags lists up to 100 tags.
func (c *Client) Tags(ctx context.Context) ([]Term, error) {
	return c.listTerms(ctx, "/wp-json/wp/v2/tags")
}

func (c *Client) listTerms(ctx context.Context, path string) ([]Term, error) {
	var terms []Term
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("per_page", "100").
		SetResult(&terms).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", path, resp.StatusCode())
	}
	return terms, nil
}
