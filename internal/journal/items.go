package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const itemColumns = "id, run_id, archive, entry, hash, outcome, output_path, detail, created_at"

// Record appends an item outcome to a run.
func (s *Store) Record(ctx context.Context, item Item) (int64, error) {
	if item.RunID == "" {
		return 0, errors.New("item run id is required")
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	res, err := s.exec(ctx,
		`INSERT INTO items (run_id, archive, entry, hash, outcome, output_path, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.RunID, item.Archive, item.Entry,
		nullable(item.Hash), string(item.Outcome), nullable(item.Output), nullable(item.Detail),
		formatTime(item.CreatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("record item %s: %w", item.Entry, err)
	}
	return res.LastInsertId()
}

// Items returns a run's items in the order they were recorded. A non-empty
// outcome restricts the result to that outcome.
func (s *Store) Items(ctx context.Context, runID string, outcome Outcome) ([]*Item, error) {
	query := "SELECT " + itemColumns + " FROM items WHERE run_id = ?"
	args := []any{runID}
	if outcome != "" {
		query += " AND outcome = ?"
		args = append(args, string(outcome))
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Summarize counts a run's items by outcome.
func (s *Store) Summarize(ctx context.Context, runID string) (Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT outcome, COUNT(1) FROM items WHERE run_id = ? GROUP BY outcome", runID)
	if err != nil {
		return nil, fmt.Errorf("summarize run: %w", err)
	}
	defer rows.Close()

	summary := make(Summary)
	for rows.Next() {
		var (
			outcome string
			count   int
		)
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summary[Outcome(outcome)] = count
	}
	return summary, rows.Err()
}

// FindByHash returns the most recent written item for hash, or nil.
func (s *Store) FindByHash(ctx context.Context, hash string) (*Item, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM items WHERE hash = ? AND outcome = ? ORDER BY id DESC LIMIT 1",
		hash, string(OutcomeWritten))
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find item by hash: %w", err)
	}
	return item, nil
}

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		item       Item
		outcome    string
		hash       sql.NullString
		output     sql.NullString
		detail     sql.NullString
		createdRaw string
	)
	if err := scanner.Scan(&item.ID, &item.RunID, &item.Archive, &item.Entry, &hash, &outcome, &output, &detail, &createdRaw); err != nil {
		return nil, err
	}
	item.Outcome = Outcome(outcome)
	item.Hash = hash.String
	item.Output = output.String
	item.Detail = detail.String
	created, err := parseTime(createdRaw)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	item.CreatedAt = created
	return &item, nil
}

func nullable(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
