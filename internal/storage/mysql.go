package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"mantra-sdk/internal/errors"
)

// MySQLConfig describes the database connection.
type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// MySQLTokenStore persists tokens in a custom_tokens table. The schema
// is created on open if missing.
type MySQLTokenStore struct {
	db *sql.DB
}

const createTokensTable = `CREATE TABLE IF NOT EXISTS custom_tokens (
    chain_id BIGINT UNSIGNED NOT NULL,
    address VARCHAR(64) NOT NULL,
    symbol VARCHAR(32) NOT NULL,
    name VARCHAR(128) NOT NULL DEFAULT '',
    decimals TINYINT UNSIGNED NOT NULL DEFAULT 18,
    source VARCHAR(16) NOT NULL DEFAULT 'custom',
    created_at BIGINT NOT NULL,
    PRIMARY KEY (chain_id, address)
)`

// NewMySQLTokenStore opens the database, applies pool settings, and
// ensures the schema exists.
func NewMySQLTokenStore(ctx context.Context, cfg MySQLConfig) (*MySQLTokenStore, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, errors.New(errors.CodeConfig, "mysql dsn is required")
	}

	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, errors.Wrap(errors.CodeConfig, err, "open mysql")
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	} else {
		db.SetMaxOpenConns(20)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	} else {
		db.SetMaxIdleConns(10)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	} else {
		db.SetConnMaxLifetime(30 * time.Minute)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.CodeConfig, err, "connect to mysql")
	}
	if _, err := db.ExecContext(ctx, createTokensTable); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.CodeConfig, err, "create custom_tokens table")
	}
	return &MySQLTokenStore{db: db}, nil
}

// Put implements TokenStore via upsert.
func (s *MySQLTokenStore) Put(ctx context.Context, token Token) error {
	if err := normalizeToken(&token); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO custom_tokens
        (chain_id, address, symbol, name, decimals, source, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON DUPLICATE KEY UPDATE symbol = VALUES(symbol), name = VALUES(name),
            decimals = VALUES(decimals), source = VALUES(source)`,
		token.ChainID, token.Address, token.Symbol, token.Name,
		token.Decimals, token.Source, token.CreatedAt.Unix())
	if err != nil {
		return errors.Wrap(errors.CodeUnknown, err, "store token")
	}
	return nil
}

// Get implements TokenStore.
func (s *MySQLTokenStore) Get(ctx context.Context, chainID uint64, address string) (*Token, error) {
	address = strings.ToLower(strings.TrimSpace(address))
	row := s.db.QueryRowContext(ctx, `SELECT chain_id, address, symbol, name, decimals, source, created_at
        FROM custom_tokens WHERE chain_id = ? AND address = ?`, chainID, address)

	token, err := scanToken(row)
	if err == sql.ErrNoRows {
		return nil, errors.Newf(errors.CodeNotFound, "token %s not registered on chain %d", address, chainID)
	}
	if err != nil {
		return nil, errors.Wrap(errors.CodeUnknown, err, "load token")
	}
	return token, nil
}

// List implements TokenStore.
func (s *MySQLTokenStore) List(ctx context.Context, chainID uint64) ([]Token, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT chain_id, address, symbol, name, decimals, source, created_at
        FROM custom_tokens WHERE chain_id = ? ORDER BY symbol`, chainID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeUnknown, err, "list tokens")
	}
	defer rows.Close()

	var out []Token
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, errors.Wrap(errors.CodeUnknown, err, "scan token")
		}
		out = append(out, *token)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.CodeUnknown, err, "iterate tokens")
	}
	return out, nil
}

// Delete implements TokenStore.
func (s *MySQLTokenStore) Delete(ctx context.Context, chainID uint64, address string) error {
	address = strings.ToLower(strings.TrimSpace(address))
	if _, err := s.db.ExecContext(ctx, `DELETE FROM custom_tokens WHERE chain_id = ? AND address = ?`,
		chainID, address); err != nil {
		return errors.Wrap(errors.CodeUnknown, err, "delete token")
	}
	return nil
}

// Close implements TokenStore.
func (s *MySQLTokenStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanToken(row rowScanner) (*Token, error) {
	var token Token
	var createdAt int64
	if err := row.Scan(&token.ChainID, &token.Address, &token.Symbol, &token.Name,
		&token.Decimals, &token.Source, &createdAt); err != nil {
		return nil, err
	}
	token.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &token, nil
}
