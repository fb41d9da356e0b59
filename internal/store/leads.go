package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const leadColumns = "id, url, title, source, summary, published_at, score, status, error_message, created_at, updated_at"

func scanLead(scanner interface{ Scan(dest ...any) error }) (*Lead, error) {
	var (
		id           int64
		url          string
		title        string
		source       sql.NullString
		summary      sql.NullString
		publishedRaw sql.NullString
		score        sql.NullFloat64
		statusStr    string
		errorMessage sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&url,
		&title,
		&source,
		&summary,
		&publishedRaw,
		&score,
		&statusStr,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	lead := &Lead{
		ID:           id,
		URL:          url,
		Title:        title,
		Source:       source.String,
		Summary:      summary.String,
		Score:        score.Float64,
		Status:       LeadStatus(statusStr),
		ErrorMessage: errorMessage.String,
	}
	if publishedRaw.Valid {
		if published, err := parseTimeString(publishedRaw.String); err == nil {
			lead.PublishedAt = &published
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		lead.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		lead.UpdatedAt = updated
	}
	return lead, nil
}

// ExistingURLs returns the set of every lead URL already persisted. Used by
// the deduplicator for a single bulk membership check per batch.
func (s *Store) ExistingURLs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT url FROM leads`)
	if err != nil {
		return nil, fmt.Errorf("query lead urls: %w", err)
	}
	defer rows.Close()

	urls := make(map[string]struct{})
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, err
		}
		urls[url] = struct{}{}
	}
	return urls, rows.Err()
}

// FindLeadByURL returns the lead matching a URL, or nil when absent.
func (s *Store) FindLeadByURL(ctx context.Context, url string) (*Lead, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE url = ?`, url)
	lead, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find lead by url: %w", err)
	}
	return lead, nil
}

// GetLead fetches a lead by identifier.
func (s *Store) GetLead(ctx context.Context, id int64) (*Lead, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = ?`, id)
	lead, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get lead: %w", err)
	}
	return lead, nil
}

// EnsureLead resolves-or-creates the row for a candidate lead. When a lead
// with the same URL already exists the existing row is bound and returned,
// keeping the URL natural-key invariant under repeated or racing runs.
func (s *Store) EnsureLead(ctx context.Context, candidate *Lead) (*Lead, error) {
	if candidate == nil {
		return nil, errors.New("candidate lead is nil")
	}
	if candidate.URL == "" {
		return nil, errors.New("lead url is required")
	}

	existing, err := s.FindLeadByURL(ctx, candidate.URL)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now().UTC()
	timestamp := formatTime(now)
	status := candidate.Status
	if status == "" || status == StatusDiscovered {
		status = StatusIdentified
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO leads (url, title, source, summary, published_at, score, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		candidate.URL,
		candidate.Title,
		candidate.Source,
		nullableString(candidate.Summary),
		nullableTime(candidate.PublishedAt),
		candidate.Score,
		status,
		timestamp,
		timestamp,
	)
	if err != nil {
		// Lost a race with another writer; bind the winner's row.
		if raced, findErr := s.FindLeadByURL(ctx, candidate.URL); findErr == nil && raced != nil {
			return raced, nil
		}
		return nil, fmt.Errorf("insert lead: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetLead(ctx, id)
}

// UpdateLeadStatus advances a lead to the next pipeline state.
func (s *Store) UpdateLeadStatus(ctx context.Context, id int64, status LeadStatus) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE leads SET status = ?, error_message = NULL, updated_at = ? WHERE id = ?`,
		status,
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("update lead status: %w", err)
	}
	return nil
}

// MarkLeadFailed records a terminal failure for one lead without touching the
// rest of the batch.
func (s *Store) MarkLeadFailed(ctx context.Context, id int64, message string) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE leads SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		StatusFailed,
		nullableString(message),
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("mark lead failed: %w", err)
	}
	return nil
}

// ListLeads returns leads filtered by status set (or all leads when no status
// is provided), ordered by creation time.
func (s *Store) ListLeads(ctx context.Context, statuses ...LeadStatus) ([]*Lead, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + leadColumns + ` FROM leads`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var leads []*Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// ListResumable returns leads left in a non-terminal state by an interrupted
// run. They are safe to push through the full chain again: generators are
// pure and persistence upserts by natural key.
func (s *Store) ListResumable(ctx context.Context) ([]*Lead, error) {
	statuses := make([]LeadStatus, 0, len(allStatuses))
	for _, status := range allStatuses {
		if status == StatusDiscovered || status.IsTerminal() {
			continue
		}
		statuses = append(statuses, status)
	}
	return s.ListLeads(ctx, statuses...)
}
