// Package ledger persists decision runs in SQLite.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/okian/pitchrecord/internal/adapters/ledger/migrations"
	"github.com/okian/pitchrecord/internal/domain/model"
	"github.com/okian/pitchrecord/internal/domain/reconstruct"
	"github.com/okian/pitchrecord/internal/domain/review"
	"github.com/okian/pitchrecord/pkg/metrics"
)

// Sentinel kinds for ledger errors.
var (
	ErrNotFound   = errors.New("not found in ledger")
	ErrUnknownRun = errors.New("unknown run")
	ErrNoPath     = errors.New("ledger path is required")
)

// Run is one batch of processed games.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Games      int       `json:"games"`
	Flagged    int       `json:"flagged"`
}

// GameRecord is what RecordGame stores for one game.
type GameRecord struct {
	Key      model.GameKey
	Decision model.Decision
	Game     *reconstruct.Game // nil when Err is set
	Err      error
}

// StoredDecision is a decision row read back from the ledger.
type StoredDecision struct {
	RunID     string         `json:"run_id"`
	Key       model.GameKey  `json:"game"`
	Decision  model.Decision `json:"decision"`
	Home      string         `json:"home,omitempty"`
	Away      string         `json:"away,omitempty"`
	HomeScore int            `json:"home_score"`
	AwayScore int            `json:"away_score"`
	OutDrift  int            `json:"out_drift"`
	Error     string         `json:"error,omitempty"`
}

// Ledger is a SQLite-backed decision ledger.
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

func toMillis(t time.Time) int64   { return t.UTC().UnixMilli() }
func fromMillis(v int64) time.Time { return time.UnixMilli(v).UTC() }

// Open opens the ledger database at path and applies migrations.
func Open(path string) (*Ledger, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrNoPath
	}
	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// SQLite serializes writers; one connection avoids busy errors between workers.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Ledger{db: db, now: time.Now}, nil
}

// Close closes the database handle.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

func applyMigrations(db *sql.DB, fsys fs.FS) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (name TEXT PRIMARY KEY, applied_at INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		var n int
		if err := db.QueryRow(`SELECT COUNT(1) FROM schema_migrations WHERE name = ?`, name).Scan(&n); err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if n > 0 {
			continue
		}
		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)`, name, toMillis(time.Now())); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// mapErr turns foreign key violations into ErrUnknownRun.
func mapErr(err error) error {
	var se *msqlite.Error
	if errors.As(err, &se) && se.Code() == sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY {
		return fmt.Errorf("%w: %w", ErrUnknownRun, err)
	}
	return err
}

// BeginRun starts a new run with a time-ordered id.
func (l *Ledger) BeginRun(ctx context.Context) (Run, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Run{}, fmt.Errorf("run id: %w", err)
	}
	r := Run{ID: id.String(), StartedAt: l.now().UTC().Truncate(time.Millisecond)}
	if _, err := l.db.ExecContext(ctx, `INSERT INTO runs (id, started_at) VALUES (?, ?)`, r.ID, toMillis(r.StartedAt)); err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	metrics.RecordLedgerWrite("runs", 1)
	return r, nil
}

// RecordGame stores one game's decision and coverage gaps.
func (l *Ledger) RecordGame(ctx context.Context, runID string, rec GameRecord) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	d := rec.Decision
	var (
		home, away, errText  string
		homeScore, awayScore int
		drift                int
	)
	if rec.Err != nil {
		errText = rec.Err.Error()
	}
	if g := rec.Game; g != nil {
		home, away, homeScore, awayScore, drift = g.Home, g.Away, g.HomeScore, g.AwayScore, g.OutDrift
	}
	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO game_decisions (
		   run_id, season, game_id, status, win, loss, save, holds,
		   home, away, home_score, away_score, out_drift, error
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, rec.Key.Season, rec.Key.GameID, d.Status.String(), d.Win, d.Loss, d.Save, strings.Join(d.Holds, ","),
		home, away, homeScore, awayScore, drift, errText,
	)
	if err != nil {
		return fmt.Errorf("insert decision %s: %w", rec.Key, mapErr(err))
	}

	gaps := 0
	if g := rec.Game; g != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM coverage_gaps WHERE run_id = ? AND season = ? AND game_id = ?`,
			runID, rec.Key.Season, rec.Key.GameID); err != nil {
			return err
		}
		for _, gap := range g.Gaps {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO coverage_gaps (run_id, season, game_id, seq, inning, code, legacy, era) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				runID, rec.Key.Season, rec.Key.GameID, gap.Seq, gap.Inning.String(), gap.Code, gap.Legacy, gap.Era,
			); err != nil {
				return fmt.Errorf("insert gap %s: %w", rec.Key, mapErr(err))
			}
		}
		gaps = len(g.Gaps)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	metrics.RecordLedgerWrite("game_decisions", 1)
	if gaps > 0 {
		metrics.RecordLedgerWrite("coverage_gaps", gaps)
	}
	return nil
}

// RecordFlag stores a review flag.
func (l *Ledger) RecordFlag(ctx context.Context, runID string, f review.Flag) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO review_flags (run_id, season, game_id, reason, detail) VALUES (?, ?, ?, ?, ?)`,
		runID, f.Key.Season, f.Key.GameID, string(f.Reason), f.Detail,
	)
	if err != nil {
		return fmt.Errorf("insert flag %s: %w", f.Key, mapErr(err))
	}
	metrics.RecordLedgerWrite("review_flags", 1)
	return nil
}

// FinishRun closes a run with its totals.
func (l *Ledger) FinishRun(ctx context.Context, runID string, games, flagged int) error {
	res, err := l.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, games = ?, flagged = ? WHERE id = ?`,
		toMillis(l.now()), games, flagged, runID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	return nil
}

// LatestRun returns the most recently started run.
func (l *Ledger) LatestRun(ctx context.Context) (Run, error) {
	var (
		r        Run
		started  int64
		finished sql.NullInt64
	)
	err := l.db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, games, flagged FROM runs ORDER BY started_at DESC, id DESC LIMIT 1`,
	).Scan(&r.ID, &started, &finished, &r.Games, &r.Flagged)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	if err != nil {
		return Run{}, err
	}
	r.StartedAt = fromMillis(started)
	if finished.Valid {
		r.FinishedAt = fromMillis(finished.Int64)
	}
	return r, nil
}

// GameDecision returns the most recent stored decision for a game.
func (l *Ledger) GameDecision(ctx context.Context, key model.GameKey) (StoredDecision, error) {
	var (
		sd     StoredDecision
		status string
		holds  string
	)
	err := l.db.QueryRowContext(ctx,
		`SELECT g.run_id, g.status, g.win, g.loss, g.save, g.holds, g.home, g.away,
		        g.home_score, g.away_score, g.out_drift, g.error
		   FROM game_decisions g JOIN runs r ON r.id = g.run_id
		  WHERE g.season = ? AND g.game_id = ?
		  ORDER BY r.started_at DESC, r.id DESC
		  LIMIT 1`,
		key.Season, key.GameID,
	).Scan(&sd.RunID, &status, &sd.Decision.Win, &sd.Decision.Loss, &sd.Decision.Save, &holds,
		&sd.Home, &sd.Away, &sd.HomeScore, &sd.AwayScore, &sd.OutDrift, &sd.Error)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredDecision{}, fmt.Errorf("%w: game %s", ErrNotFound, key)
	}
	if err != nil {
		return StoredDecision{}, err
	}
	sd.Key = key
	sd.Decision.Status = parseStatus(status)
	if holds != "" {
		sd.Decision.Holds = strings.Split(holds, ",")
	}
	return sd, nil
}

// Flags returns a run's review flags ordered by game.
func (l *Ledger) Flags(ctx context.Context, runID string) ([]review.Flag, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT season, game_id, reason, detail FROM review_flags WHERE run_id = ?`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []review.Flag
	for rows.Next() {
		var f review.Flag
		var reason string
		if err := rows.Scan(&f.Key.Season, &f.Key.GameID, &reason, &f.Detail); err != nil {
			return nil, err
		}
		f.Reason = review.Reason(reason)
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Key != out[j].Key {
			return review.Less(out[i].Key, out[j].Key)
		}
		return out[i].Reason < out[j].Reason
	})
	return out, nil
}

// Gaps returns the coverage gaps recorded for a game in a run.
func (l *Ledger) Gaps(ctx context.Context, runID string, key model.GameKey) ([]reconstruct.Gap, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT seq, inning, code, legacy, era FROM coverage_gaps WHERE run_id = ? AND season = ? AND game_id = ? ORDER BY seq`,
		runID, key.Season, key.GameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []reconstruct.Gap
	for rows.Next() {
		var (
			g      reconstruct.Gap
			inning string
		)
		if err := rows.Scan(&g.Seq, &inning, &g.Code, &g.Legacy, &g.Era); err != nil {
			return nil, err
		}
		g.Inning, _ = reconstruct.ParseInning(inning)
		out = append(out, g)
	}
	return out, rows.Err()
}

func parseStatus(s string) model.DecisionStatus {
	for _, st := range []model.DecisionStatus{model.Decided, model.Tied, model.Invalid} {
		if st.String() == s {
			return st
		}
	}
	return model.Invalid
}
