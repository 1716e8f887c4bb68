package postgres

import (
	"context"
	"fmt"
	"time"

	auth "github.com/fmitra/walletauth"
)

// LoginHistoryRepository is an implementation of auth.LoginHistoryRepository.
type LoginHistoryRepository struct {
	client *Client
}

func scanLoginHistory(row scanner) (*auth.LoginHistory, error) {
	var login auth.LoginHistory
	err := row.Scan(
		&login.AccountID, &login.TokenID, &login.IsRevoked, &login.IPAddress,
		&login.ExpiresAt, &login.CreatedAt, &login.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &login, nil
}

// ByAccountID retrieves recent LoginHistory associated with an Account.
func (r *LoginHistoryRepository) ByAccountID(ctx context.Context, accountID string, limit, offset int) ([]*auth.LoginHistory, error) {
	rows, err := r.client.queryContext(ctx, r.client.loginHistoryQ["byAccountID"], accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logins := make([]*auth.LoginHistory, 0)
	for rows.Next() {
		login, err := scanLoginHistory(rows)
		if err != nil {
			return nil, err
		}
		logins = append(logins, login)
	}

	return logins, rows.Err()
}

// ByTokenID retrieves a LoginHistory record with matching JWT token ID.
func (r *LoginHistoryRepository) ByTokenID(ctx context.Context, tokenID string) (*auth.LoginHistory, error) {
	return scanLoginHistory(r.client.queryRowContext(ctx, r.client.loginHistoryQ["byTokenID"], tokenID))
}

// Create persists a new LoginHistory record.
func (r *LoginHistoryRepository) Create(ctx context.Context, login *auth.LoginHistory) error {
	row := r.client.queryRowContext(
		ctx,
		r.client.loginHistoryQ["insert"],
		login.AccountID,
		login.TokenID,
		login.IsRevoked,
		login.IPAddress,
		login.ExpiresAt,
	)
	return row.Scan(&login.CreatedAt, &login.UpdatedAt)
}

// GetForUpdate retrieves a LoginHistory record to be updated.
func (r *LoginHistoryRepository) GetForUpdate(ctx context.Context, tokenID string) (*auth.LoginHistory, error) {
	login, err := scanLoginHistory(r.client.queryRowContext(ctx, r.client.loginHistoryQ["forUpdate"], tokenID))
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve record for update: %w", err)
	}

	return login, nil
}

// Update updates a LoginHistory record.
func (r *LoginHistoryRepository) Update(ctx context.Context, login *auth.LoginHistory) error {
	login.UpdatedAt = time.Now().UTC()
	res, err := r.client.execContext(
		ctx,
		r.client.loginHistoryQ["update"],
		login.TokenID,
		login.IsRevoked,
		login.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to execute update: %w", err)
	}

	return rowsAffected(res, "login records")
}
