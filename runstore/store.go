// Package runstore archives completed runs in SQLite so they can be listed,
// reloaded, exported, and compared later.
package runstore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/mkollner/cfss/telemetry"
)

// ErrNotFound is returned when a run reference matches nothing.
var ErrNotFound = errors.New("runstore: run not found")

// RunMeta describes one archived run. CreatedAt is unix seconds.
type RunMeta struct {
	ID        string  `db:"id"`
	Name      string  `db:"name"`
	AgentName string  `db:"agent_name"`
	Seed      int64   `db:"seed"`
	Steps     int     `db:"steps"`
	DT        float64 `db:"dt"`
	Distress  float64 `db:"distress"`
	CreatedAt int64   `db:"created_at"`
}

// Created returns the creation time.
func (m RunMeta) Created() time.Time {
	return time.Unix(m.CreatedAt, 0)
}

// snapshotRow is a StepSnapshot keyed to its run.
type snapshotRow struct {
	RunID string `db:"run_id"`
	telemetry.StepSnapshot
}

// Store wraps a SQLite connection holding archived runs.
type Store struct {
	db *sqlx.DB
}

// Open opens or creates a run archive at the given path. The pragmas are
// passed in the _pragma form the modernc driver understands, so every pooled
// connection gets WAL and a busy timeout; without them concurrent batch
// writers trip over SQLITE_BUSY.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		agent_name TEXT NOT NULL,
		seed INTEGER NOT NULL,
		steps INTEGER NOT NULL,
		dt REAL NOT NULL,
		distress REAL NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		run_id TEXT NOT NULL,
		step INTEGER NOT NULL,
		pain REAL NOT NULL,
		instability REAL NOT NULL,
		need_for_control REAL NOT NULL,
		cognitive_load REAL NOT NULL,
		neurochem_balance REAL NOT NULL,
		fatigue REAL NOT NULL,
		env_stress REAL NOT NULL,
		reg_relief REAL NOT NULL,
		nut_support REAL NOT NULL,
		temperature REAL NOT NULL,
		confinement REAL NOT NULL,
		social_contact REAL NOT NULL,
		noise_level REAL NOT NULL,
		light_level REAL NOT NULL,
		breathing REAL NOT NULL,
		cognitive_override REAL NOT NULL,
		pharmacology REAL NOT NULL,
		meditation REAL NOT NULL,
		exercise REAL NOT NULL,
		glucose_level REAL NOT NULL,
		tryptophan REAL NOT NULL,
		tyrosine REAL NOT NULL,
		hydration REAL NOT NULL,
		vitamin_b12 REAL NOT NULL,
		motivation REAL NOT NULL,
		ability REAL NOT NULL,
		dispersion REAL NOT NULL,
		PRIMARY KEY (run_id, step)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

const insertSnapshotSQL = `INSERT INTO snapshots
	(run_id, step, pain, instability, need_for_control, cognitive_load,
	 neurochem_balance, fatigue, env_stress, reg_relief, nut_support,
	 temperature, confinement, social_contact, noise_level, light_level,
	 breathing, cognitive_override, pharmacology, meditation, exercise,
	 glucose_level, tryptophan, tyrosine, hydration, vitamin_b12,
	 motivation, ability, dispersion)
	VALUES
	(:run_id, :step, :pain, :instability, :need_for_control, :cognitive_load,
	 :neurochem_balance, :fatigue, :env_stress, :reg_relief, :nut_support,
	 :temperature, :confinement, :social_contact, :noise_level, :light_level,
	 :breathing, :cognitive_override, :pharmacology, :meditation, :exercise,
	 :glucose_level, :tryptophan, :tyrosine, :hydration, :vitamin_b12,
	 :motivation, :ability, :dispersion)`

// SaveRun archives a run and its full history, returning the run ID. An
// empty meta.ID gets a fresh UUID, a zero meta.CreatedAt the current time.
// Steps and Distress are always derived from the history.
func (s *Store) SaveRun(meta RunMeta, history []telemetry.StepSnapshot) (string, error) {
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	if meta.CreatedAt == 0 {
		meta.CreatedAt = time.Now().Unix()
	}
	meta.Steps = len(history)
	meta.Distress = telemetry.Distress(history)

	tx, err := s.db.Beginx()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.NamedExec(`INSERT INTO runs
		(id, name, agent_name, seed, steps, dt, distress, created_at)
		VALUES (:id, :name, :agent_name, :seed, :steps, :dt, :distress, :created_at)`, meta); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareNamed(insertSnapshotSQL)
	if err != nil {
		return "", fmt.Errorf("prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for i := range history {
		row := snapshotRow{RunID: meta.ID, StepSnapshot: history[i]}
		if _, err := stmt.Exec(row); err != nil {
			return "", fmt.Errorf("insert snapshot %d: %w", history[i].Step, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// ListRuns returns all archived runs, newest first.
func (s *Store) ListRuns() ([]RunMeta, error) {
	var runs []RunMeta
	err := s.db.Select(&runs, `SELECT * FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// GetRun resolves a run by ID or, failing that, by name; the newest run
// wins when several share a name.
func (s *Store) GetRun(ref string) (RunMeta, error) {
	var meta RunMeta
	err := s.db.Get(&meta, `SELECT * FROM runs WHERE id = ? OR name = ?
		ORDER BY created_at DESC LIMIT 1`, ref, ref)
	if errors.Is(err, sql.ErrNoRows) {
		return RunMeta{}, ErrNotFound
	}
	if err != nil {
		return RunMeta{}, fmt.Errorf("get run: %w", err)
	}
	return meta, nil
}

// LoadHistory returns a run's snapshots in step order.
func (s *Store) LoadHistory(runID string) ([]telemetry.StepSnapshot, error) {
	var rows []snapshotRow
	err := s.db.Select(&rows, `SELECT * FROM snapshots WHERE run_id = ? ORDER BY step`, runID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	history := make([]telemetry.StepSnapshot, len(rows))
	for i, r := range rows {
		history[i] = r.StepSnapshot
	}
	return history, nil
}

// DeleteRun removes a run and its history.
func (s *Store) DeleteRun(ref string) error {
	meta, err := s.GetRun(ref)
	if err != nil {
		return err
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM snapshots WHERE run_id = ?`, meta.ID); err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM runs WHERE id = ?`, meta.ID); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return tx.Commit()
}
