package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// dbtx abstracts *sql.DB and *sql.Tx so lookups work inside and outside a
// unit of work.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

const articleColumns = "id, lead_id, slug, title, html, excerpt, status, json_ld, meta_json, created_at, updated_at"

func scanArticle(scanner interface{ Scan(dest ...any) error }) (*Article, error) {
	var (
		id         int64
		leadID     int64
		slug       string
		title      string
		html       string
		excerpt    sql.NullString
		status     string
		jsonLD     sql.NullString
		metaJSON   sql.NullString
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&leadID,
		&slug,
		&title,
		&html,
		&excerpt,
		&status,
		&jsonLD,
		&metaJSON,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	article := &Article{
		ID:      id,
		LeadID:  leadID,
		Slug:    slug,
		Title:   title,
		HTML:    html,
		Excerpt: excerpt.String,
		Status:  status,
		JSONLD:  jsonLD.String,
	}
	if metaJSON.Valid && metaJSON.String != "" {
		if err := json.Unmarshal([]byte(metaJSON.String), &article.Meta); err != nil {
			return nil, fmt.Errorf("decode article meta: %w", err)
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		article.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		article.UpdatedAt = updated
	}
	return article, nil
}

func findArticleBySlug(ctx context.Context, q dbtx, slug string) (*Article, error) {
	row := q.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE slug = ?`, slug)
	article, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find article by slug: %w", err)
	}
	return article, nil
}

// FindArticleBySlug returns the article matching a slug, or nil when absent.
func (s *Store) FindArticleBySlug(ctx context.Context, slug string) (*Article, error) {
	return findArticleBySlug(ctx, s.db, slug)
}

// ArticleCountByLead counts articles referencing a lead. The slug upsert
// keeps this at one across repeated runs.
func (s *Store) ArticleCountByLead(ctx context.Context, leadID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM articles WHERE lead_id = ?`, leadID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return count, nil
}

// EvidenceForLead returns the stored evidence items for a lead in citation order.
func (s *Store) EvidenceForLead(ctx context.Context, leadID int64) ([]EvidenceItem, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, lead_id, fact_id, text, source_url, extracted_at FROM evidence WHERE lead_id = ? ORDER BY id`,
		leadID,
	)
	if err != nil {
		return nil, fmt.Errorf("query evidence: %w", err)
	}
	defer rows.Close()

	var items []EvidenceItem
	for rows.Next() {
		var (
			item         EvidenceItem
			extractedRaw sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.LeadID, &item.FactID, &item.Text, &item.SourceURL, &extractedRaw); err != nil {
			return nil, err
		}
		if extracted, err := parseTimeString(extractedRaw.String); err == nil {
			item.ExtractedAt = extracted
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// LatestPublish returns the most recent publish record for an article, or nil
// when the article has never been through the publisher.
func (s *Store) LatestPublish(ctx context.Context, articleID int64) (*Publish, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, article_id, platform, remote_id, url, status, meta_json, created_at
         FROM publishes WHERE article_id = ? ORDER BY id DESC LIMIT 1`,
		articleID,
	)
	publish, err := scanPublish(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest publish: %w", err)
	}
	return publish, nil
}

// PublishesForArticle returns the full attempt history, oldest first.
func (s *Store) PublishesForArticle(ctx context.Context, articleID int64) ([]*Publish, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, article_id, platform, remote_id, url, status, meta_json, created_at
         FROM publishes WHERE article_id = ? ORDER BY id`,
		articleID,
	)
	if err != nil {
		return nil, fmt.Errorf("query publishes: %w", err)
	}
	defer rows.Close()

	var publishes []*Publish
	for rows.Next() {
		publish, err := scanPublish(rows)
		if err != nil {
			return nil, err
		}
		publishes = append(publishes, publish)
	}
	return publishes, rows.Err()
}

func scanPublish(scanner interface{ Scan(dest ...any) error }) (*Publish, error) {
	var (
		id         int64
		articleID  int64
		platform   string
		remoteID   sql.NullString
		url        sql.NullString
		status     string
		metaJSON   sql.NullString
		createdRaw sql.NullString
	)

	if err := scanner.Scan(&id, &articleID, &platform, &remoteID, &url, &status, &metaJSON, &createdRaw); err != nil {
		return nil, err
	}

	publish := &Publish{
		ID:        id,
		ArticleID: articleID,
		Platform:  platform,
		RemoteID:  remoteID.String,
		URL:       url.String,
		Status:    status,
	}
	if metaJSON.Valid && metaJSON.String != "" {
		if err := json.Unmarshal([]byte(metaJSON.String), &publish.Meta); err != nil {
			return nil, fmt.Errorf("decode publish meta: %w", err)
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		publish.CreatedAt = created
	}
	return publish, nil
}
