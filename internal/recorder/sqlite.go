package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	_ "modernc.org/sqlite"

	"FraudSentinel/internal/model"
)

// SQLiteRecorder persists monitoring history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while the agent writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cycles (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at     INTEGER NOT NULL,
			accounts       INTEGER,
			fetch_failures INTEGER,
			degraded       INTEGER,
			assessments    INTEGER,
			alerts         INTEGER,
			skipped        INTEGER,
			error          TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_ts ON cycles(started_at)`,

		`CREATE TABLE IF NOT EXISTS assessments (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			assessed_at  INTEGER NOT NULL,
			account_id   TEXT NOT NULL,
			category     TEXT,
			score        REAL,
			rationale    TEXT,
			indicators   TEXT,
			actions      TEXT,
			model        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_assessments_ts ON assessments(assessed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_assessments_account ON assessments(account_id)`,

		`CREATE TABLE IF NOT EXISTS alerts (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			seq        INTEGER NOT NULL,
			emitted_at INTEGER NOT NULL,
			account_id TEXT NOT NULL,
			category   TEXT,
			score      REAL,
			rationale  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_ts ON alerts(emitted_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordCycle(stats *CycleStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	skipped := 0
	if stats.Skipped {
		skipped = 1
	}
	_, err := r.db.Exec(`INSERT INTO cycles
		(started_at, accounts, fetch_failures, degraded, assessments, alerts, skipped, error)
		VALUES (?,?,?,?,?,?,?,?)`,
		stats.StartedAt.Unix(), stats.Accounts, stats.FetchFailures,
		stats.Degraded, stats.Assessments, stats.Alerts, skipped, stats.Err,
	)
	return err
}

func (r *SQLiteRecorder) RecordAssessment(a *model.RiskAssessment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	indicators, _ := json.Marshal(a.Indicators)
	actions, _ := json.Marshal(a.Actions)

	_, err := r.db.Exec(`INSERT INTO assessments
		(assessed_at, account_id, category, score, rationale, indicators, actions, model)
		VALUES (?,?,?,?,?,?,?,?)`,
		a.AssessedAt.Unix(), a.AccountID, string(a.Category), a.Score,
		a.Rationale, string(indicators), string(actions), a.Model,
	)
	return err
}

func (r *SQLiteRecorder) RecordAlert(alert *model.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a := alert.Assessment
	_, err := r.db.Exec(`INSERT INTO alerts
		(seq, emitted_at, account_id, category, score, rationale)
		VALUES (?,?,?,?,?,?)`,
		alert.Seq, alert.EmittedAt.Unix(), a.AccountID,
		string(a.Category), a.Score, a.Rationale,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}

var _ Recorder = (*SQLiteRecorder)(nil)
