package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const runColumns = "id, status, archives_json, output_dir, dry_run, error_message, started_at, finished_at"

// StartRun records a new run in the running state.
func (s *Store) StartRun(ctx context.Context, id string, archives []string, outputDir string, dryRun bool) (*Run, error) {
	if id == "" {
		return nil, errors.New("run id is required")
	}
	encoded, err := json.Marshal(archives)
	if err != nil {
		return nil, fmt.Errorf("encode archives: %w", err)
	}
	now := time.Now().UTC()
	if _, err := s.exec(ctx,
		`INSERT INTO runs (id, status, archives_json, output_dir, dry_run, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, string(RunRunning), string(encoded), outputDir, dryRun, formatTime(now),
	); err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return &Run{
		ID:        id,
		Status:    RunRunning,
		Archives:  append([]string(nil), archives...),
		OutputDir: outputDir,
		DryRun:    dryRun,
		StartedAt: now,
	}, nil
}

// FinishRun marks a run as ended with status. runErr, when non-nil, is
// stored as the run's error message.
func (s *Store) FinishRun(ctx context.Context, id string, status RunStatus, runErr error) error {
	var message sql.NullString
	if runErr != nil {
		message = sql.NullString{String: runErr.Error(), Valid: true}
	}
	res, err := s.exec(ctx,
		`UPDATE runs SET status = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		string(status), message, formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run %s: %w", id, ErrRunNotFound)
	}
	return nil
}

// GetRun returns the run with id, or ErrRunNotFound.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns up to limit runs, newest first. A limit of zero or less
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC, id DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// FindRuns returns the runs whose id starts with prefix, newest first.
func (s *Store) FindRuns(ctx context.Context, prefix string) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE substr(id, 1, ?) = ? ORDER BY started_at DESC",
		len(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("find runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run         Run
		status      string
		archives    string
		dryRun      int64
		errMessage  sql.NullString
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(&run.ID, &status, &archives, &run.OutputDir, &dryRun, &errMessage, &startedRaw, &finishedRaw); err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	run.DryRun = dryRun != 0
	run.Error = errMessage.String
	if err := json.Unmarshal([]byte(archives), &run.Archives); err != nil {
		return nil, fmt.Errorf("decode archives for run %s: %w", run.ID, err)
	}
	var err error
	if run.StartedAt, err = parseTime(startedRaw); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if run.FinishedAt, err = parseTime(finishedRaw.String); err != nil {
		return nil, fmt.Errorf("parse finished_at: %w", err)
	}
	return &run, nil
}
