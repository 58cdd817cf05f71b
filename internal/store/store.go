// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/drumrate/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for imported scores and user preferences.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Timestamps are stored in UTC with a fixed fraction width so they sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id INTEGER PRIMARY KEY,
			imported_at TEXT NOT NULL,
			source TEXT NOT NULL,
			raw TEXT NOT NULL,
			records INTEGER NOT NULL,
			rated INTEGER NOT NULL,
			overall REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS snapshot_dimensions (
			snapshot_id INTEGER NOT NULL,
			dimension TEXT NOT NULL,
			value REAL NOT NULL,
			PRIMARY KEY (snapshot_id, dimension)
		);`,
		`CREATE TABLE IF NOT EXISTS blacklist (
			chart_id INTEGER NOT NULL,
			level INTEGER NOT NULL,
			added_at TEXT NOT NULL,
			PRIMARY KEY (chart_id, level)
		);`,
		`CREATE TABLE IF NOT EXISTS locked_scores (
			chart_id INTEGER NOT NULL,
			level INTEGER NOT NULL,
			score INTEGER NOT NULL,
			score_rank INTEGER NOT NULL,
			great INTEGER NOT NULL,
			good INTEGER NOT NULL,
			bad INTEGER NOT NULL,
			drumroll INTEGER NOT NULL,
			combo INTEGER NOT NULL,
			play_count INTEGER NOT NULL,
			clear_count INTEGER NOT NULL,
			fullcombo_count INTEGER NOT NULL,
			perfect_count INTEGER NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (chart_id, level)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_imported_at ON snapshots(imported_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSnapshot stores an import together with its per-dimension scores.
func (s *Store) InsertSnapshot(ctx context.Context, snap model.Snapshot) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (imported_at, source, raw, records, rated, overall)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		formatTime(snap.ImportedAt),
		snap.Source,
		snap.Raw,
		snap.Records,
		snap.Rated,
		snap.Overall,
	)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(snap.Dimensions) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO snapshot_dimensions (snapshot_id, dimension, value) VALUES (?, ?, ?)`)
		if err != nil {
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, d := range model.AllDimensions {
			v, ok := snap.Dimensions[d]
			if !ok {
				continue
			}
			if _, err := stmt.ExecContext(ctx, id, string(d), v); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// LatestSnapshots returns up to n snapshots, newest first, including raw data.
func (s *Store) LatestSnapshots(ctx context.Context, n int) ([]model.Snapshot, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, imported_at, source, raw, records, rated, overall
		 FROM snapshots
		 ORDER BY imported_at DESC, id DESC
		 LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	snaps, err := scanSnapshots(rows, true)
	if err != nil {
		return nil, err
	}
	if err := s.attachDimensions(ctx, snaps); err != nil {
		return nil, err
	}
	return snaps, nil
}

// ListSnapshots returns the snapshot history, oldest first, without raw data.
func (s *Store) ListSnapshots(ctx context.Context, cfg model.HistoryConfig) ([]model.Snapshot, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Since != nil {
		clauses = append(clauses, "imported_at >= ?")
		args = append(args, formatTime(*cfg.Since))
	}
	query := fmt.Sprintf(`SELECT id, imported_at, source, '', records, rated, overall
		FROM snapshots
		WHERE %s
		ORDER BY imported_at ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	snaps, err := scanSnapshots(rows, false)
	if err != nil {
		return nil, err
	}
	if cfg.Last > 0 && len(snaps) > cfg.Last {
		snaps = snaps[len(snaps)-cfg.Last:]
	}
	if err := s.attachDimensions(ctx, snaps); err != nil {
		return nil, err
	}
	return snaps, nil
}

// DeleteSnapshot removes a snapshot and its dimensions.
func (s *Store) DeleteSnapshot(ctx context.Context, id int64) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_dimensions WHERE snapshot_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("snapshot %d not found", id)
	}
	return tx.Commit()
}

func scanSnapshots(rows *sql.Rows, withRaw bool) ([]model.Snapshot, error) {
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	var snaps []model.Snapshot
	for rows.Next() {
		var snap model.Snapshot
		var importedAt, raw string
		if err := rows.Scan(&snap.ID, &importedAt, &snap.Source, &raw, &snap.Records, &snap.Rated, &snap.Overall); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, importedAt)
		if err != nil {
			return nil, err
		}
		snap.ImportedAt = parsed
		if withRaw {
			snap.Raw = raw
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return snaps, nil
}

func (s *Store) attachDimensions(ctx context.Context, snaps []model.Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	placeholders := make([]string, len(snaps))
	args := make([]any, len(snaps))
	byID := make(map[int64]int, len(snaps))
	for i, snap := range snaps {
		placeholders[i] = "?"
		args[i] = snap.ID
		byID[snap.ID] = i
	}
	query := fmt.Sprintf(`SELECT snapshot_id, dimension, value
		FROM snapshot_dimensions
		WHERE snapshot_id IN (%s)`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	for rows.Next() {
		var id int64
		var dim string
		var value float64
		if err := rows.Scan(&id, &dim, &value); err != nil {
			return err
		}
		i := byID[id]
		if snaps[i].Dimensions == nil {
			snaps[i].Dimensions = map[model.Dimension]float64{}
		}
		snaps[i].Dimensions[model.Dimension(dim)] = value
	}
	return rows.Err()
}

// ToggleBlacklist adds the chart to the blacklist or removes it when present.
// It reports whether the chart is blacklisted afterwards.
func (s *Store) ToggleBlacklist(ctx context.Context, key model.ChartKey, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM blacklist WHERE chart_id = ? AND level = ?`, key.ID, int(key.Tier))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO blacklist (chart_id, level, added_at) VALUES (?, ?, ?)`,
		key.ID, int(key.Tier), formatTime(now)); err != nil {
		return false, err
	}
	return true, nil
}

// ListBlacklist returns blacklisted charts ordered by id and level.
func (s *Store) ListBlacklist(ctx context.Context) ([]model.BlacklistEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chart_id, level, added_at FROM blacklist ORDER BY chart_id, level`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	var out []model.BlacklistEntry
	for rows.Next() {
		var e model.BlacklistEntry
		var level int
		var addedAt string
		if err := rows.Scan(&e.Key.ID, &level, &addedAt); err != nil {
			return nil, err
		}
		e.Key.Tier = model.Tier(level)
		parsed, err := time.Parse(time.RFC3339Nano, addedAt)
		if err != nil {
			return nil, err
		}
		e.AddedAt = parsed
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ErrNotLocked is returned when updating a chart that has no locked score.
var ErrNotLocked = errors.New("score is not locked")

// LockScore pins a score for its chart, replacing any existing lock.
func (s *Store) LockScore(ctx context.Context, score model.UserScore, now time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO locked_scores (chart_id, level, score, score_rank, great, good, bad, drumroll, combo,
			play_count, clear_count, fullcombo_count, perfect_count, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		score.ID, int(score.Level), score.Score, score.ScoreRank, score.Great, score.Good, score.Bad,
		score.Drumroll, score.Combo, score.PlayCount, score.ClearCount, score.FullComboCount,
		score.PerfectCount, formatTime(now),
	)
	return err
}

// UpdateLockedScore changes the judgments of an existing lock.
func (s *Store) UpdateLockedScore(ctx context.Context, key model.ChartKey, great, good, bad int, now time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE locked_scores SET great = ?, good = ?, bad = ?, updated_at = ?
		 WHERE chart_id = ? AND level = ?`,
		great, good, bad, formatTime(now), key.ID, int(key.Tier))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", key, ErrNotLocked)
	}
	return nil
}

// UnlockScore removes a lock. It reports whether a lock existed.
func (s *Store) UnlockScore(ctx context.Context, key model.ChartKey) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM locked_scores WHERE chart_id = ? AND level = ?`, key.ID, int(key.Tier))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListLockedScores returns all locks ordered by id and level.
func (s *Store) ListLockedScores(ctx context.Context) ([]model.LockedScore, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chart_id, level, score, score_rank, great, good, bad, drumroll, combo,
			play_count, clear_count, fullcombo_count, perfect_count, updated_at
		 FROM locked_scores
		 ORDER BY chart_id, level`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	var out []model.LockedScore
	for rows.Next() {
		var l model.LockedScore
		var level int
		var updatedAt string
		sc := &l.Score
		if err := rows.Scan(&sc.ID, &level, &sc.Score, &sc.ScoreRank, &sc.Great, &sc.Good, &sc.Bad,
			&sc.Drumroll, &sc.Combo, &sc.PlayCount, &sc.ClearCount, &sc.FullComboCount,
			&sc.PerfectCount, &updatedAt); err != nil {
			return nil, err
		}
		sc.Level = model.Tier(level)
		parsed, err := time.Parse(time.RFC3339Nano, updatedAt)
		if err != nil {
			return nil, err
		}
		l.UpdatedAt = parsed
		sc.UpdatedAt = updatedAt
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
