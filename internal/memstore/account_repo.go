package memstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	auth "github.com/fmitra/walletauth"
	"github.com/fmitra/walletauth/internal/contactchecker"
	"github.com/fmitra/walletauth/internal/entropy"
)

// AccountRepository is an implementation of auth.AccountRepository.
type AccountRepository struct {
	client *Client
}

// ByIdentity retrieves an Account by its email or ID.
func (r *AccountRepository) ByIdentity(ctx context.Context, attribute, value string) (*auth.Account, error) {
	defer r.client.lock()()

	var id string
	switch attribute {
	case "ID":
		id = value
	case "Email":
		id = r.client.data.emails[contactchecker.NormalizeEmail(value)]
	default:
		return nil, fmt.Errorf("%s is not a valid query parameter", attribute)
	}

	account, ok := r.client.data.accounts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}

	return &account, nil
}

// GetForUpdate retrieves an Account to be updated.
func (r *AccountRepository) GetForUpdate(ctx context.Context, accountID string) (*auth.Account, error) {
	account, err := r.ByIdentity(ctx, "ID", accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve record for update: %w", err)
	}

	return account, nil
}

// Create persists a new Account.
func (r *AccountRepository) Create(ctx context.Context, account *auth.Account) error {
	if err := contactchecker.CheckAccount(account); err != nil {
		return err
	}

	id, err := entropy.ID(r.client.entropy)
	if err != nil {
		return err
	}

	defer r.client.lock()()

	if _, ok := r.client.data.emails[account.Email]; ok {
		return auth.ErrInvalidField("email address is already registered")
	}

	now := time.Now().UTC()
	account.ID = id
	account.CreatedAt = now
	account.UpdatedAt = now

	r.client.journal(r.client.data.revertAccount(account.ID))
	r.client.data.accounts[account.ID] = *account
	r.client.data.emails[account.Email] = account.ID

	return nil
}

// Update updates an Account.
func (r *AccountRepository) Update(ctx context.Context, account *auth.Account) error {
	if err := contactchecker.CheckAccount(account); err != nil {
		return err
	}

	defer r.client.lock()()

	stored, ok := r.client.data.accounts[account.ID]
	if !ok {
		return fmt.Errorf("wrong number of accounts updated: %d", 0)
	}

	if ownerID, ok := r.client.data.emails[account.Email]; ok && ownerID != account.ID {
		return auth.ErrInvalidField("email address is already registered")
	}

	r.client.journal(r.client.data.revertAccount(account.ID))
	delete(r.client.data.emails, stored.Email)
	account.UpdatedAt = time.Now().UTC()
	r.client.data.accounts[account.ID] = *account
	r.client.data.emails[account.Email] = account.ID

	return nil
}
