package memstore

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	auth "github.com/fmitra/walletauth"
)

// LoginHistoryRepository is an implementation of auth.LoginHistoryRepository.
type LoginHistoryRepository struct {
	client *Client
}

// ByAccountID retrieves a page of LoginHistory records, newest first.
func (r *LoginHistoryRepository) ByAccountID(ctx context.Context, accountID string, limit, offset int) ([]*auth.LoginHistory, error) {
	defer r.client.lock()()

	logins := make([]*auth.LoginHistory, 0)
	for _, l := range r.client.data.logins {
		if l.AccountID != accountID {
			continue
		}
		login := l
		logins = append(logins, &login)
	}

	sort.Slice(logins, func(i, j int) bool {
		return logins[i].CreatedAt.After(logins[j].CreatedAt)
	})

	if offset >= len(logins) {
		return []*auth.LoginHistory{}, nil
	}
	logins = logins[offset:]
	if limit < len(logins) {
		logins = logins[:limit]
	}

	return logins, nil
}

// ByTokenID retrieves a LoginHistory record with matching JWT token ID.
func (r *LoginHistoryRepository) ByTokenID(ctx context.Context, tokenID string) (*auth.LoginHistory, error) {
	defer r.client.lock()()

	login, ok := r.client.data.logins[tokenID]
	if !ok {
		return nil, sql.ErrNoRows
	}

	return &login, nil
}

// Create persists a new LoginHistory record.
func (r *LoginHistoryRepository) Create(ctx context.Context, login *auth.LoginHistory) error {
	defer r.client.lock()()

	if _, ok := r.client.data.logins[login.TokenID]; ok {
		return auth.ErrInvalidField("token ID is already recorded")
	}

	now := time.Now().UTC()
	login.CreatedAt = now
	login.UpdatedAt = now
	r.client.journal(r.client.data.revertLogin(login.TokenID))
	r.client.data.logins[login.TokenID] = *login

	return nil
}

// GetForUpdate retrieves a LoginHistory record to be updated.
func (r *LoginHistoryRepository) GetForUpdate(ctx context.Context, tokenID string) (*auth.LoginHistory, error) {
	login, err := r.ByTokenID(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve record for update: %w", err)
	}

	return login, nil
}

// Update updates a LoginHistory record.
func (r *LoginHistoryRepository) Update(ctx context.Context, login *auth.LoginHistory) error {
	defer r.client.lock()()

	if _, ok := r.client.data.logins[login.TokenID]; !ok {
		return fmt.Errorf("wrong number of login records updated: %d", 0)
	}

	login.UpdatedAt = time.Now().UTC()
	r.client.journal(r.client.data.revertLogin(login.TokenID))
	r.client.data.logins[login.TokenID] = *login

	return nil
}
