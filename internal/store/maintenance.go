package store

import (
	"context"
	"fmt"
	"time"
)

// Stats returns aggregate queue counts for operator summaries.
func (s *Store) Stats(ctx context.Context) (*StatsSummary, error) {
	summary := &StatsSummary{ByStatus: make(map[LeadStatus]int)}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM leads GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("query lead stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		summary.ByStatus[LeadStatus(status)] = count
		summary.TotalLeads += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM articles`).Scan(&summary.TotalArticles); err != nil {
		return nil, fmt.Errorf("count articles: %w", err)
	}
	if err := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM publishes WHERE status = ?`, PublishStatusPublished,
	).Scan(&summary.TotalPublished); err != nil {
		return nil, fmt.Errorf("count publishes: %w", err)
	}
	return summary, nil
}

// ClearFailed deletes failed leads together with any evidence rows attached
// to them. Returns the number of leads removed.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	var removed int64
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.ExecContext(
			ctx,
			`DELETE FROM evidence WHERE lead_id IN (SELECT id FROM leads WHERE status = ?)`,
			StatusFailed,
		); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM leads WHERE status = ?`, StatusFailed)
		if err != nil {
			return err
		}
		if removed, err = res.RowsAffected(); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return 0, fmt.Errorf("clear failed leads: %w", err)
	}
	return removed, nil
}

// Clear empties the whole queue: every lead together with its evidence,
// articles, covers, and publish history. Cleared URLs become eligible for
// rediscovery, so repeated sources will be processed again.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	var removed int64
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		for _, stmt := range []string{
			`DELETE FROM publishes`,
			`DELETE FROM image_assets`,
			`DELETE FROM evidence`,
			`DELETE FROM articles`,
		} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM leads`)
		if err != nil {
			return err
		}
		if removed, err = res.RowsAffected(); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return removed, nil
}

// RetryFailed resets failed leads to identified so the next run picks them up
// from the start of the chain. Returns the number of leads reset.
func (s *Store) RetryFailed(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE leads SET status = ?, error_message = NULL, updated_at = ? WHERE status = ?`,
		StatusIdentified,
		formatTime(time.Now()),
		StatusFailed,
	)
	if err != nil {
		return 0, fmt.Errorf("retry failed leads: %w", err)
	}
	return res.RowsAffected()
}
