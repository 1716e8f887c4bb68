// Package postgres is a PostgreSQL implementation of auth.RepositoryManager.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/go-kit/kit/log"
	"github.com/lib/pq"

	auth "github.com/fmitra/walletauth"
)

// uniqueViolation is the Postgres error code for a unique constraint failure.
const uniqueViolation = "23505"

// Client represents a client for PostgreSQL.
type Client struct {
	db      *sql.DB
	tx      *sql.Tx
	entropy io.Reader
	logger  log.Logger

	accountRepository *AccountRepository
	accountQ          map[string]string

	deviceRepository *TrustedDeviceRepository
	deviceQ          map[string]string

	challengeRepository *ChallengeRepository
	challengeQ          map[string]string

	loginHistoryRepository *LoginHistoryRepository
	loginHistoryQ          map[string]string
}

func (c *Client) createQueries() {
	c.accountQ = map[string]string{
		"byID": `
			SELECT id, email, phone, password, is_tfa_enabled, tfa_channel,
				created_at, updated_at
			FROM account
			WHERE id = $1;
		`,
		"byEmail": `
			SELECT id, email, phone, password, is_tfa_enabled, tfa_channel,
				created_at, updated_at
			FROM account
			WHERE email = $1;
		`,
		"forUpdate": `
			SELECT id, email, phone, password, is_tfa_enabled, tfa_channel,
				created_at, updated_at
			FROM account
			WHERE id = $1
			FOR UPDATE;
		`,
		"insert": `
			INSERT INTO account (
				id, email, phone, password, is_tfa_enabled, tfa_channel
			)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at, updated_at;
		`,
		"update": `
			UPDATE account
			SET email=$2, phone=$3, password=$4, is_tfa_enabled=$5, tfa_channel=$6,
				updated_at=$7
			WHERE id = $1;
		`,
	}

	c.deviceQ = map[string]string{
		"byDevice": `
			SELECT account_id, device_hash, created_at, expires_at
			FROM trusted_device
			WHERE account_id = $1
			AND device_hash = $2;
		`,
		"byAccountID": `
			SELECT account_id, device_hash, created_at, expires_at
			FROM trusted_device
			WHERE account_id = $1
			ORDER BY created_at
			DESC;
		`,
		"upsert": `
			INSERT INTO trusted_device (
				account_id, device_hash, created_at, expires_at
			)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (account_id, device_hash) DO UPDATE
			SET created_at = EXCLUDED.created_at, expires_at = EXCLUDED.expires_at
			WHERE trusted_device.expires_at <= EXCLUDED.created_at;
		`,
		"expire": `
			UPDATE trusted_device
			SET expires_at = $3
			WHERE account_id = $1
			AND device_hash = $2
			AND expires_at > $3;
		`,
	}

	c.challengeQ = map[string]string{
		"insert": `
			INSERT INTO challenge (
				id, email, purpose, code_hash, expires_at, created_at
			)
			VALUES ($1, $2, $3, $4, $5, $6);
		`,
		"recent": `
			SELECT id, email, purpose, code_hash, is_consumed, expires_at,
				consumed_at, created_at
			FROM challenge
			WHERE email = $1
			AND purpose = $2
			AND code_hash = $3
			AND is_consumed = false
			ORDER BY created_at
			DESC
			LIMIT 1;
		`,
		"consume": `
			UPDATE challenge
			SET is_consumed = true, consumed_at = $2
			WHERE id = $1
			AND is_consumed = false
			AND expires_at > $2;
		`,
	}

	c.loginHistoryQ = map[string]string{
		"byTokenID": `
			SELECT account_id, token_id, is_revoked, ip_address, expires_at,
				created_at, updated_at
			FROM login_history
			WHERE token_id = $1;
		`,
		"byAccountID": `
			SELECT account_id, token_id, is_revoked, ip_address, expires_at,
				created_at, updated_at
			FROM login_history
			WHERE account_id = $1
			ORDER BY created_at
			DESC
			LIMIT $2
			OFFSET $3;
		`,
		"forUpdate": `
			SELECT account_id, token_id, is_revoked, ip_address, expires_at,
				created_at, updated_at
			FROM login_history
			WHERE token_id = $1
			FOR UPDATE;
		`,
		"update": `
			UPDATE login_history
			SET is_revoked=$2, updated_at=$3
			WHERE token_id = $1;
		`,
		"insert": `
			INSERT INTO login_history (
				account_id, token_id, is_revoked, ip_address, expires_at
			)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at, updated_at;
		`,
	}
}

func (c *Client) attachRepositories() {
	c.accountRepository = &AccountRepository{client: c}
	c.deviceRepository = &TrustedDeviceRepository{client: c}
	c.challengeRepository = &ChallengeRepository{client: c}
	c.loginHistoryRepository = &LoginHistoryRepository{client: c}
}

// NewWithTransaction returns a new client with a transaction. All
// repository operations using the new client will default to the transaction.
func (c *Client) NewWithTransaction(ctx context.Context) (auth.RepositoryManager, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	newClient := *c
	newClient.tx = tx
	newClient.attachRepositories()
	return &newClient, nil
}

// WithAtomic performs an operation within a transaction. If the operation
// is successful it commits it, otherwise the operation will be rolledback.
func (c *Client) WithAtomic(operation func() (interface{}, error)) (interface{}, error) {
	if c.tx == nil {
		return nil, fmt.Errorf("cannot complete operation outside of transaction")
	}

	defer func() {
		c.tx = nil
	}()

	entity, err := operation()

	if err != nil {
		if dbErr := c.tx.Rollback(); dbErr != nil {
			err = fmt.Errorf("%v: %w", dbErr, err)
		}
		return nil, err
	}

	err = c.tx.Commit()
	if err != nil {
		return entity, fmt.Errorf("commit failed: %w", err)
	}

	return entity, nil
}

// Account returns an AccountRepository.
func (c *Client) Account() auth.AccountRepository {
	return c.accountRepository
}

// TrustedDevice returns a TrustedDeviceRepository.
func (c *Client) TrustedDevice() auth.TrustedDeviceRepository {
	return c.deviceRepository
}

// Challenge returns a ChallengeRepository.
func (c *Client) Challenge() auth.ChallengeRepository {
	return c.challengeRepository
}

// LoginHistory returns a LoginHistoryRepository.
func (c *Client) LoginHistory() auth.LoginHistoryRepository {
	return c.loginHistoryRepository
}

func (c *Client) queryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	if c.tx != nil {
		return c.tx.QueryRowContext(ctx, query, args...)
	}

	return c.db.QueryRowContext(ctx, query, args...)
}

func (c *Client) queryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	if c.tx != nil {
		return c.tx.QueryContext(ctx, query, args...)
	}

	return c.db.QueryContext(ctx, query, args...)
}

func (c *Client) execContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	if c.tx != nil {
		return c.tx.ExecContext(ctx, query, args...)
	}

	return c.db.ExecContext(ctx, query, args...)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func rowsAffected(res sql.Result, entity string) error {
	updatedRows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if updatedRows != 1 {
		return fmt.Errorf("wrong number of %s updated: %d", entity, updatedRows)
	}
	return nil
}
