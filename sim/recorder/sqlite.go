// Package recorder persists the samples emitted by a simulation run.
package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
	"github.com/tebeka/atexit"
	"gopkg.in/yaml.v3"

	"github.com/mac-sim/mac-sim/sim"
)

const defaultBatchSize = 100000

type sampleRow struct {
	time  int64
	name  string
	value float64
}

// SQLiteRecorder is a sim.StatsSink that buffers samples and writes them to a
// SQLite database in batches, stamped with the run ID and virtual time.
type SQLiteRecorder struct {
	*sql.DB
	statement *sql.Stmt

	path      string
	runID     string
	clock     sim.TimeTeller
	buffer    []sampleRow
	batchSize int
	written   int64
	err       error
	closed    bool
}

var _ sim.StatsSink = (*SQLiteRecorder)(nil)

// NewSQLiteRecorder creates a recorder writing to path. An empty path picks
// mac_sim_<run id>.sqlite3 in the working directory. Buffered samples are
// flushed at process exit.
func NewSQLiteRecorder(path string, clock sim.TimeTeller) *SQLiteRecorder {
	r := &SQLiteRecorder{
		path:      path,
		runID:     xid.New().String(),
		clock:     clock,
		batchSize: defaultBatchSize,
	}
	atexit.Register(func() {
		if err := r.Close(); err != nil {
			logrus.Errorf("closing sample database %s: %v", r.path, err)
		}
	})
	return r
}

// WithBatchSize overrides how many samples are buffered between writes.
func (r *SQLiteRecorder) WithBatchSize(n int) *SQLiteRecorder {
	if n <= 0 {
		panic(fmt.Sprintf("WithBatchSize: batch size must be positive, got %d", n))
	}
	r.batchSize = n
	return r
}

// RunID returns the identifier stamped on every row of this run.
func (r *SQLiteRecorder) RunID() string { return r.runID }

// Path returns the database file path.
func (r *SQLiteRecorder) Path() string { return r.path }

// Written returns the number of samples committed so far.
func (r *SQLiteRecorder) Written() int64 { return r.written }

// Init creates the database file, its tables and the insert statement.
// The file must not exist yet.
func (r *SQLiteRecorder) Init() error {
	if r.path == "" {
		r.path = "mac_sim_" + r.runID + ".sqlite3"
	}
	if _, err := os.Stat(r.path); err == nil {
		return fmt.Errorf("recorder: file %s already exists", r.path)
	}

	db, err := sql.Open("sqlite3", r.path)
	if err != nil {
		return fmt.Errorf("recorder: opening %s: %w", r.path, err)
	}
	r.DB = db

	if err := r.createTables(); err != nil {
		return err
	}
	r.statement, err = r.Prepare(`INSERT INTO samples (run_id, time, name, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("recorder: preparing insert: %w", err)
	}
	logrus.Infof("Samples are collected in database %s (run %s)", r.path, r.runID)
	return nil
}

func (r *SQLiteRecorder) createTables() error {
	stmts := []string{
		`CREATE TABLE runs (
			run_id TEXT PRIMARY KEY,
			seed   INTEGER NOT NULL,
			config TEXT    NOT NULL
		)`,
		`CREATE TABLE samples (
			run_id TEXT    NOT NULL,
			time   INTEGER NOT NULL,
			name   TEXT    NOT NULL,
			value  REAL    NOT NULL
		)`,
		`CREATE INDEX samples_name_index ON samples (name)`,
		`CREATE INDEX samples_time_index ON samples (time)`,
	}
	for _, stmt := range stmts {
		if _, err := r.Exec(stmt); err != nil {
			return fmt.Errorf("recorder: creating schema: %w", err)
		}
	}
	return nil
}

// RecordRun stores the run's configuration as YAML under the run ID.
func (r *SQLiteRecorder) RecordRun(cfg sim.Config) error {
	if r.DB == nil {
		return errors.New("recorder: RecordRun before Init")
	}
	doc, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("recorder: encoding config: %w", err)
	}
	if _, err := r.Exec(`INSERT INTO runs (run_id, seed, config) VALUES (?, ?, ?)`, r.runID, cfg.Seed, string(doc)); err != nil {
		return fmt.Errorf("recorder: inserting run: %w", err)
	}
	return nil
}

// Emit buffers one sample at the current virtual time. A write failure is
// kept and reported by Flush or Close; later samples are dropped.
func (r *SQLiteRecorder) Emit(name string, value float64) {
	if r.err != nil || r.closed {
		return
	}
	r.buffer = append(r.buffer, sampleRow{time: r.clock.Now(), name: name, value: value})
	if len(r.buffer) >= r.batchSize {
		r.err = r.flush()
	}
}

// Flush writes all the buffered samples to the database.
func (r *SQLiteRecorder) Flush() error {
	if r.err != nil {
		return r.err
	}
	r.err = r.flush()
	return r.err
}

func (r *SQLiteRecorder) flush() error {
	if len(r.buffer) == 0 {
		return nil
	}
	if r.DB == nil {
		return errors.New("recorder: Flush before Init")
	}

	tx, err := r.Begin()
	if err != nil {
		return fmt.Errorf("recorder: begin: %w", err)
	}
	stmt := tx.Stmt(r.statement)
	for _, row := range r.buffer {
		if _, err := stmt.Exec(r.runID, row.time, row.name, row.value); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recorder: inserting sample %q at %d: %w", row.name, row.time, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("recorder: commit: %w", err)
	}
	r.written += int64(len(r.buffer))
	r.buffer = r.buffer[:0]
	return nil
}

// Close flushes and closes the database. Safe to call more than once.
func (r *SQLiteRecorder) Close() error {
	if r.closed {
		return r.err
	}
	err := r.Flush()
	r.closed = true
	if r.DB == nil {
		return err
	}
	if r.statement != nil {
		err = errors.Join(err, r.statement.Close())
	}
	return errors.Join(err, r.DB.Close())
}
