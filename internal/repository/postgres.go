package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/contracts-parser/constants"
	"github.com/joseph-ayodele/contracts-parser/internal/common"
	"github.com/joseph-ayodele/contracts-parser/internal/entity"
)

type Config struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// Open creates a pgx pool and verifies it can connect.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	logger.Info("connecting to database")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database dsn", "error", err)
		return nil, err
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "contracts-parser"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprintf("%d", cfg.StatementTimeout.Milliseconds())
	}

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}
	// the pool dials lazily
	if err := HealthCheck(ctx, pool, 0, logger); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("successfully connected to database")
	return pool, nil
}

// Close closes the database connections gracefully
func Close(pool *pgxpool.Pool, logger *slog.Logger) {
	logger.Info("closing database connections")
	if pool != nil {
		pool.Close()
	}
	logger.Info("database connections closed")
}

// HealthCheck pings the pool to catch DSN issues early.
func HealthCheck(ctx context.Context, pool *pgxpool.Pool, timeout time.Duration, logger *slog.Logger) error {
	logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Error("database ping failed", "error", err)
		return err
	}
	logger.Debug("database ping successful")
	return nil
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS contracts (
  seq BIGSERIAL,
  id TEXT PRIMARY KEY,
  status TEXT NOT NULL,
  progress INTEGER NOT NULL DEFAULT 0,
  data_json JSONB,
  error_message TEXT,
  filename TEXT NOT NULL DEFAULT '',
  file_key TEXT NOT NULL DEFAULT '',
  size_bytes BIGINT NOT NULL DEFAULT 0,
  content_hash TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS contracts_status_idx ON contracts(status);
`

// PostgresStore keeps contracts in a postgres table ordered by a sequence column.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresStore(pool *pgxpool.Pool, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{pool: pool, logger: logger}
}

// Migrate creates the contracts table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return common.WrapError(common.ErrDatabase, "migrate contracts: "+err.Error())
	}
	return nil
}

const pingTimeout = 2 * time.Second

func (s *PostgresStore) Ping(ctx context.Context) error {
	return HealthCheck(ctx, s.pool, pingTimeout, s.logger)
}

func (s *PostgresStore) Create(ctx context.Context, c *entity.Contract) error {
	data, err := encodeData(c.Data)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO contracts (`+contractColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		c.ID, string(c.Status), c.Progress, data, c.Error,
		c.Filename, c.FileKey, c.SizeBytes, c.ContentHash, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return common.WrapError(common.ErrInvalidInput, fmt.Sprintf("contract %s already exists", c.ID))
		}
		s.logger.Error("repository.postgres.create_failed", "contract_id", c.ID, "error", err)
		return common.WrapError(common.ErrDatabase, err.Error())
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*entity.Contract, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id = $1`, id)
	c, err := scanPostgres(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(id)
	}
	return c, err
}

func (s *PostgresStore) List(ctx context.Context, status *constants.ContractStatus) ([]*entity.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts`
	var args []any
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, string(*status))
	}
	query += ` ORDER BY seq ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, common.WrapError(common.ErrDatabase, err.Error())
	}
	defer rows.Close()

	out := make([]*entity.Contract, 0)
	for rows.Next() {
		c, err := scanPostgres(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, id string, fn func(*entity.Contract) error) (*entity.Contract, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, common.WrapError(common.ErrDatabase, err.Error())
	}
	defer func() { _ = tx.Rollback(ctx) }()

	c, err := scanPostgres(tx.QueryRow(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	c.UpdatedAt = time.Now().UTC()
	data, err := encodeData(c.Data)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE contracts SET status = $1, progress = $2, data_json = $3, error_message = $4, updated_at = $5 WHERE id = $6`,
		string(c.Status), c.Progress, data, c.Error, c.UpdatedAt, id,
	); err != nil {
		return nil, common.WrapError(common.ErrDatabase, err.Error())
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, common.WrapError(common.ErrDatabase, err.Error())
	}
	return c, nil
}

func scanPostgres(r pgx.Row) (*entity.Contract, error) {
	var (
		c      entity.Contract
		status string
		data   *string
	)
	if err := r.Scan(&c.ID, &status, &c.Progress, &data, &c.Error,
		&c.Filename, &c.FileKey, &c.SizeBytes, &c.ContentHash, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, common.WrapError(common.ErrDatabase, err.Error())
	}
	c.Status = constants.ContractStatus(status)
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	doc, err := decodeData(data)
	if err != nil {
		return nil, err
	}
	c.Data = doc
	return &c, nil
}
