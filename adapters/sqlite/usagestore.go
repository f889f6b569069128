package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tokenmeter/tokenmeter/domain/usage"
	"github.com/tokenmeter/tokenmeter/ports"
)

// UsageStore implements ports.UsageStore using SQLite.
type UsageStore struct {
	db *DB
}

// NewUsageStore creates a new SQLite usage store.
func NewUsageStore(db *DB) *UsageStore {
	return &UsageStore{db: db}
}

// Record appends a usage event and folds it into the matching daily
// aggregate inside a single transaction. The aggregate upsert is
// additive (x = x + excluded.x), so concurrent commits for the same
// date both land; a crash between the two statements rolls both back.
func (s *UsageStore) Record(ctx context.Context, e usage.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Store timestamps in UTC for consistent date bucketing
	_, err = tx.ExecContext(ctx, `
		INSERT INTO usage_log (
			id, timestamp, session_id, model, input_tokens, output_tokens,
			cache_read_tokens, cache_write_tokens, cost_usd, task_description, source
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID, e.Timestamp.UTC().Format(time.RFC3339Nano), e.SessionID, e.Model,
		e.InputTokens, e.OutputTokens, e.CacheReadTokens, e.CacheWriteTokens,
		e.CostUSD, e.TaskDescription, string(e.Source),
	)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO daily_summary (date, total_input_tokens, total_output_tokens,
			total_cache_read_tokens, total_cache_write_tokens, total_cost_usd, request_count)
		VALUES (?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(date) DO UPDATE SET
			total_input_tokens = total_input_tokens + excluded.total_input_tokens,
			total_output_tokens = total_output_tokens + excluded.total_output_tokens,
			total_cache_read_tokens = total_cache_read_tokens + excluded.total_cache_read_tokens,
			total_cache_write_tokens = total_cache_write_tokens + excluded.total_cache_write_tokens,
			total_cost_usd = total_cost_usd + excluded.total_cost_usd,
			request_count = request_count + 1
	`,
		e.Date(), e.InputTokens, e.OutputTokens, e.CacheReadTokens,
		e.CacheWriteTokens, e.CostUSD,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Aggregate returns the daily aggregate for a date, zero-valued when the
// date has no events.
func (s *UsageStore) Aggregate(ctx context.Context, date string) (usage.DailyAggregate, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT date, total_input_tokens, total_output_tokens,
		       total_cache_read_tokens, total_cache_write_tokens,
		       total_cost_usd, request_count
		FROM daily_summary
		WHERE date = ?
	`, date)

	agg, err := scanAggregate(row)
	if errors.Is(err, sql.ErrNoRows) {
		// "No usage yet" is a valid state.
		return usage.DailyAggregate{Date: date}, nil
	}
	if err != nil {
		return usage.DailyAggregate{}, err
	}
	return agg, nil
}

// History returns aggregates with date >= since, most recent first.
func (s *UsageStore) History(ctx context.Context, since string) ([]usage.DailyAggregate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, total_input_tokens, total_output_tokens,
		       total_cache_read_tokens, total_cache_write_tokens,
		       total_cost_usd, request_count
		FROM daily_summary
		WHERE date >= ?
		ORDER BY date DESC
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	aggregates := []usage.DailyAggregate{}
	for rows.Next() {
		agg, err := scanAggregate(rows)
		if err != nil {
			return nil, err
		}
		aggregates = append(aggregates, agg)
	}
	return aggregates, rows.Err()
}

// CostSince sums aggregate cost over dates >= since.
func (s *UsageStore) CostSince(ctx context.Context, since string) (float64, error) {
	var total float64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total_cost_usd), 0)
		FROM daily_summary
		WHERE date >= ?
	`, since).Scan(&total)
	return total, err
}

// RecentEvents returns the newest raw events, most recent first.
func (s *UsageStore) RecentEvents(ctx context.Context, limit int) ([]usage.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, session_id, model, input_tokens, output_tokens,
		       cache_read_tokens, cache_write_tokens, cost_usd, task_description, source
		FROM usage_log
		ORDER BY timestamp DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// SessionEvents returns all events logged under a session, oldest first.
func (s *UsageStore) SessionEvents(ctx context.Context, sessionID string) ([]usage.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, session_id, model, input_tokens, output_tokens,
		       cache_read_tokens, cache_write_tokens, cost_usd, task_description, source
		FROM usage_log
		WHERE session_id = ?
		ORDER BY timestamp ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAggregate(row rowScanner) (usage.DailyAggregate, error) {
	var agg usage.DailyAggregate
	err := row.Scan(
		&agg.Date,
		&agg.InputTokens,
		&agg.OutputTokens,
		&agg.CacheReadTokens,
		&agg.CacheWriteTokens,
		&agg.CostUSD,
		&agg.RequestCount,
	)
	if err != nil {
		return usage.DailyAggregate{}, err
	}
	return agg, nil
}

func scanEvents(rows *sql.Rows) ([]usage.Event, error) {
	var events []usage.Event
	for rows.Next() {
		var e usage.Event
		var ts, source string
		err := rows.Scan(
			&e.ID, &ts, &e.SessionID, &e.Model, &e.InputTokens, &e.OutputTokens,
			&e.CacheReadTokens, &e.CacheWriteTokens, &e.CostUSD, &e.TaskDescription, &source,
		)
		if err != nil {
			return nil, err
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		e.Source = usage.Source(source)
		events = append(events, e)
	}
	return events, rows.Err()
}

// Ensure interface compliance.
var _ ports.UsageStore = (*UsageStore)(nil)
