package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SaveOutcome commits every row produced by one lead's run as a single
// transaction: lead ensure, evidence replacement, article upsert by slug,
// cover insert, publish insert, and the final lead status. Either all of it
// lands or none of it does, so an article can never exist without its
// publish record for the run.
//
// Article.Status is derived here from the publish outcome (published for a
// remote publish, draft otherwise); it is not independently settable.
func (s *Store) SaveOutcome(ctx context.Context, outcome *Outcome) error {
	if outcome == nil {
		return errors.New("outcome is nil")
	}
	if outcome.Lead == nil || outcome.Article == nil || outcome.Publish == nil {
		return errors.New("outcome requires lead, article, and publish")
	}

	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin outcome tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if err := s.saveOutcomeTx(ctx, tx, outcome); err != nil {
			return err
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit outcome: %w", err)
		}
		return nil
	})
}

func (s *Store) saveOutcomeTx(ctx context.Context, tx *sql.Tx, outcome *Outcome) error {
	now := time.Now().UTC()
	timestamp := formatTime(now)

	leadID, err := ensureLeadTx(ctx, tx, outcome.Lead, timestamp)
	if err != nil {
		return err
	}
	outcome.Lead.ID = leadID

	if err := replaceEvidenceTx(ctx, tx, leadID, outcome.Evidence, timestamp); err != nil {
		return err
	}

	outcome.Article.LeadID = leadID
	outcome.Article.Status = articleStatusFor(outcome.Article, outcome.Publish)
	if err := upsertArticleTx(ctx, tx, outcome.Article, timestamp); err != nil {
		return err
	}

	if outcome.Cover != nil {
		outcome.Cover.LeadID = leadID
		if err := insertCoverTx(ctx, tx, outcome.Cover, timestamp); err != nil {
			return err
		}
	}

	outcome.Publish.ArticleID = outcome.Article.ID
	if err := insertPublishTx(ctx, tx, outcome.Publish, timestamp); err != nil {
		return err
	}

	if _, err := tx.ExecContext(
		ctx,
		`UPDATE leads SET status = ?, error_message = NULL, updated_at = ? WHERE id = ?`,
		StatusPersisted,
		timestamp,
		leadID,
	); err != nil {
		return fmt.Errorf("finalize lead status: %w", err)
	}
	return nil
}

// ensureLeadTx resolves the durable lead identifier inside the transaction.
// A lead created here is flushed immediately so dependent rows can reference
// its id before the transaction commits.
func ensureLeadTx(ctx context.Context, tx *sql.Tx, lead *Lead, timestamp string) (int64, error) {
	if lead.ID != 0 {
		return lead.ID, nil
	}

	row := tx.QueryRowContext(ctx, `SELECT id FROM leads WHERE url = ?`, lead.URL)
	var existingID int64
	err := row.Scan(&existingID)
	if err == nil {
		return existingID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("resolve lead id: %w", err)
	}

	status := lead.Status
	if status == "" || status == StatusDiscovered {
		status = StatusIdentified
	}
	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO leads (url, title, source, summary, published_at, score, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.URL,
		lead.Title,
		lead.Source,
		nullableString(lead.Summary),
		nullableTime(lead.PublishedAt),
		lead.Score,
		status,
		timestamp,
		timestamp,
	)
	if err != nil {
		return 0, fmt.Errorf("insert lead in outcome: %w", err)
	}
	return res.LastInsertId()
}

func replaceEvidenceTx(ctx context.Context, tx *sql.Tx, leadID int64, items []EvidenceItem, timestamp string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM evidence WHERE lead_id = ?`, leadID); err != nil {
		return fmt.Errorf("clear prior evidence: %w", err)
	}
	for i := range items {
		item := &items[i]
		item.LeadID = leadID
		res, err := tx.ExecContext(
			ctx,
			`INSERT INTO evidence (lead_id, fact_id, text, source_url, extracted_at) VALUES (?, ?, ?, ?, ?)`,
			leadID,
			item.FactID,
			item.Text,
			item.SourceURL,
			timestamp,
		)
		if err != nil {
			return fmt.Errorf("insert evidence %s: %w", item.FactID, err)
		}
		if id, err := res.LastInsertId(); err == nil {
			item.ID = id
		}
	}
	return nil
}

// upsertArticleTx looks the article up by its slug first. A match gets a
// field-wise update that preserves the existing identifier; only a genuinely
// new slug inserts a row.
func upsertArticleTx(ctx context.Context, tx *sql.Tx, article *Article, timestamp string) error {
	metaJSON, err := json.Marshal(article.Meta)
	if err != nil {
		return fmt.Errorf("encode article meta: %w", err)
	}

	existing, err := findArticleBySlug(ctx, tx, article.Slug)
	if err != nil {
		return err
	}

	if existing != nil {
		_, err = tx.ExecContext(
			ctx,
			`UPDATE articles
             SET lead_id = ?, title = ?, html = ?, excerpt = ?, status = ?, json_ld = ?, meta_json = ?, updated_at = ?
             WHERE id = ?`,
			article.LeadID,
			article.Title,
			article.HTML,
			article.Excerpt,
			article.Status,
			nullableString(article.JSONLD),
			string(metaJSON),
			timestamp,
			existing.ID,
		)
		if err != nil {
			return fmt.Errorf("update article: %w", err)
		}
		article.ID = existing.ID
		article.CreatedAt = existing.CreatedAt
		return nil
	}

	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO articles (lead_id, slug, title, html, excerpt, status, json_ld, meta_json, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		article.LeadID,
		article.Slug,
		article.Title,
		article.HTML,
		article.Excerpt,
		article.Status,
		nullableString(article.JSONLD),
		string(metaJSON),
		timestamp,
		timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert article: %w", err)
	}
	article.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("article insert id: %w", err)
	}
	return nil
}

func insertCoverTx(ctx context.Context, tx *sql.Tx, cover *ImageAsset, timestamp string) error {
	kind := cover.Kind
	if kind == "" {
		kind = "cover"
	}
	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO image_assets (lead_id, kind, path, alt_text, width, height, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		cover.LeadID,
		kind,
		cover.Path,
		cover.AltText,
		cover.Width,
		cover.Height,
		timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert image asset: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		cover.ID = id
	}
	return nil
}

func insertPublishTx(ctx context.Context, tx *sql.Tx, publish *Publish, timestamp string) error {
	var metaValue any
	if len(publish.Meta) > 0 {
		encoded, err := json.Marshal(publish.Meta)
		if err != nil {
			return fmt.Errorf("encode publish meta: %w", err)
		}
		metaValue = string(encoded)
	}

	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO publishes (article_id, platform, remote_id, url, status, meta_json, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		publish.ArticleID,
		publish.Platform,
		nullableString(publish.RemoteID),
		nullableString(publish.URL),
		publish.Status,
		metaValue,
		timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert publish: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		publish.ID = id
	}
	return nil
}

// articleStatusFor derives the stored article status from the publish
// outcome. An expired article stays expired regardless of where it landed.
func articleStatusFor(article *Article, publish *Publish) string {
	if article.Status == ArticleExpired {
		return ArticleExpired
	}
	if publish != nil && publish.Status == PublishStatusPublished {
		return ArticlePublished
	}
	return ArticleDraft
}
