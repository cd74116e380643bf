package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Config mirrors the Postgres half of pkg/database/manager.go's
// DatabaseConfig, trimmed to the fields schedcheck needs.
type Config struct {
	Host            string        `yaml:"host" json:"host"`
	Port            int           `yaml:"port" json:"port"`
	Name            string        `yaml:"name" json:"name"`
	User            string        `yaml:"user" json:"user"`
	Password        string        `yaml:"password" json:"password"`
	SSLMode         string        `yaml:"sslMode" json:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns" json:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns" json:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime" json:"connMaxLifetime"`
}

// Store persists RunRecords and ResponseTimeRows to Postgres.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// New connects to Postgres, applies pool settings, and ensures the schema
// exists.
func New(cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 25
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "prefer"
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connect postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("store: ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// SaveRun writes rec and its response-time rows in one transaction.
func (s *Store) SaveRun(ctx context.Context, rec RunRecord, rows []ResponseTimeRow) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback()

	const insertRun = `
INSERT INTO runs (run_id, submitted_at, completed_at, workload, schedulable, timed_out, num_states, cpu_seconds, ram_mib, num_groups)
VALUES (:run_id, :submitted_at, :completed_at, :workload, :schedulable, :timed_out, :num_states, :cpu_seconds, :ram_mib, :num_groups)
ON CONFLICT (run_id) DO UPDATE SET
	completed_at = EXCLUDED.completed_at,
	schedulable  = EXCLUDED.schedulable,
	timed_out    = EXCLUDED.timed_out,
	num_states   = EXCLUDED.num_states,
	cpu_seconds  = EXCLUDED.cpu_seconds,
	ram_mib      = EXCLUDED.ram_mib,
	num_groups   = EXCLUDED.num_groups
`
	if _, err := tx.NamedExecContext(ctx, insertRun, rec); err != nil {
		return fmt.Errorf("store: insert run: %w", err)
	}

	const insertRow = `
INSERT INTO response_times (run_id, task_id, job_index, best_case_completion, worst_case_completion, best_case_response, worst_case_response)
VALUES (:run_id, :task_id, :job_index, :best_case_completion, :worst_case_completion, :best_case_response, :worst_case_response)
ON CONFLICT (run_id, task_id, job_index) DO NOTHING
`
	for _, row := range rows {
		if _, err := tx.NamedExecContext(ctx, insertRow, row); err != nil {
			return fmt.Errorf("store: insert response row: %w", err)
		}
	}

	return tx.Commit()
}

// GetRun returns rec's RunRecord and its response-time rows.
func (s *Store) GetRun(ctx context.Context, runID string) (*RunRecord, []ResponseTimeRow, error) {
	var rec RunRecord
	if err := s.db.GetContext(ctx, &rec, `SELECT * FROM runs WHERE run_id = $1`, runID); err != nil {
		return nil, nil, fmt.Errorf("store: get run %q: %w", runID, err)
	}
	var rows []ResponseTimeRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM response_times WHERE run_id = $1`, runID); err != nil {
		return nil, nil, fmt.Errorf("store: get response rows for %q: %w", runID, err)
	}
	return &rec, rows, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
