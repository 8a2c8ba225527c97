package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/contracts-parser/constants"
	"github.com/joseph-ayodele/contracts-parser/internal/common"
	"github.com/joseph-ayodele/contracts-parser/internal/entity"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS contracts (
  id TEXT PRIMARY KEY,
  status TEXT NOT NULL,
  progress INTEGER NOT NULL DEFAULT 0,
  data_json TEXT,
  error_message TEXT,
  filename TEXT NOT NULL DEFAULT '',
  file_key TEXT NOT NULL DEFAULT '',
  size_bytes INTEGER NOT NULL DEFAULT 0,
  content_hash TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS contracts_status_idx ON contracts(status);
`

const contractColumns = `id, status, progress, data_json, error_message, filename, file_key, size_bytes, content_hash, created_at, updated_at`

// SQLiteStore persists contracts in a single sqlite file. Rowid order is insertion order.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func OpenSQLite(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer at a time; transactions serialize on the connection
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	logger.Info("repository.sqlite.opened", "path", path)
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLiteStore) Create(ctx context.Context, c *entity.Contract) error {
	data, err := encodeData(c.Data)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO contracts (`+contractColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, string(c.Status), c.Progress, data, c.Error,
		c.Filename, c.FileKey, c.SizeBytes, c.ContentHash,
		c.CreatedAt.UnixMilli(), c.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return common.WrapError(common.ErrInvalidInput, fmt.Sprintf("contract %s already exists", c.ID))
		}
		s.logger.Error("repository.sqlite.create_failed", "contract_id", c.ID, "error", err)
		return common.WrapError(common.ErrDatabase, err.Error())
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*entity.Contract, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id = ?`, id)
	c, err := scanSQLite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	return c, err
}

func (s *SQLiteStore) List(ctx context.Context, status *constants.ContractStatus) ([]*entity.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts`
	var args []any
	if status != nil {
		query += ` WHERE status = ?`
		args = append(args, string(*status))
	}
	query += ` ORDER BY rowid ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, common.WrapError(common.ErrDatabase, err.Error())
	}
	defer rows.Close()

	out := make([]*entity.Contract, 0)
	for rows.Next() {
		c, err := scanSQLite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Update(ctx context.Context, id string, fn func(*entity.Contract) error) (*entity.Contract, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.WrapError(common.ErrDatabase, err.Error())
	}
	defer func() { _ = tx.Rollback() }()

	c, err := scanSQLite(tx.QueryRowContext(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
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
	if _, err := tx.ExecContext(ctx,
		`UPDATE contracts SET status = ?, progress = ?, data_json = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		string(c.Status), c.Progress, data, c.Error, c.UpdatedAt.UnixMilli(), id,
	); err != nil {
		return nil, common.WrapError(common.ErrDatabase, err.Error())
	}
	if err := tx.Commit(); err != nil {
		return nil, common.WrapError(common.ErrDatabase, err.Error())
	}
	return c, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLite(r rowScanner) (*entity.Contract, error) {
	var (
		c                    entity.Contract
		status               string
		data, errMsg         sql.NullString
		createdMs, updatedMs int64
	)
	if err := r.Scan(&c.ID, &status, &c.Progress, &data, &errMsg,
		&c.Filename, &c.FileKey, &c.SizeBytes, &c.ContentHash, &createdMs, &updatedMs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, common.WrapError(common.ErrDatabase, err.Error())
	}
	c.Status = constants.ContractStatus(status)
	c.CreatedAt = time.UnixMilli(createdMs).UTC()
	c.UpdatedAt = time.UnixMilli(updatedMs).UTC()
	if errMsg.Valid {
		msg := errMsg.String
		c.Error = &msg
	}
	if data.Valid {
		doc, err := decodeData(&data.String)
		if err != nil {
			return nil, err
		}
		c.Data = doc
	}
	return &c, nil
}
