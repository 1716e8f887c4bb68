package postgres

import (
	"context"
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

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row scanner) (*auth.Account, error) {
	var account auth.Account
	err := row.Scan(
		&account.ID, &account.Email, &account.Phone, &account.Password,
		&account.IsTFAEnabled, &account.TFAChannel, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &account, nil
}

// ByIdentity retrieves an Account by its email or unique ID.
func (r *AccountRepository) ByIdentity(ctx context.Context, attribute, value string) (*auth.Account, error) {
	var q string

	switch attribute {
	case "Email":
		q = "byEmail"
		value = contactchecker.NormalizeEmail(value)
	case "ID":
		q = "byID"
	default:
		return nil, fmt.Errorf("%s is not a valid query parameter", attribute)
	}

	return scanAccount(r.client.queryRowContext(ctx, r.client.accountQ[q], value))
}

// GetForUpdate retrieves an Account to be updated.
func (r *AccountRepository) GetForUpdate(ctx context.Context, accountID string) (*auth.Account, error) {
	account, err := scanAccount(r.client.queryRowContext(ctx, r.client.accountQ["forUpdate"], accountID))
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve record for update: %w", err)
	}

	return account, nil
}

// Create persists a new Account. The password must already be hashed.
func (r *AccountRepository) Create(ctx context.Context, account *auth.Account) error {
	if err := contactchecker.CheckAccount(account); err != nil {
		return err
	}

	accountID, err := entropy.ID(r.client.entropy)
	if err != nil {
		return err
	}

	account.ID = accountID
	row := r.client.queryRowContext(
		ctx,
		r.client.accountQ["insert"],
		account.ID,
		account.Email,
		account.Phone,
		account.Password,
		account.IsTFAEnabled,
		account.TFAChannel,
	)
	err = row.Scan(
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return auth.ErrInvalidField("email address is already registered")
	}

	return err
}

// Update updates an Account in storage.
func (r *AccountRepository) Update(ctx context.Context, account *auth.Account) error {
	if err := contactchecker.CheckAccount(account); err != nil {
		return err
	}

	account.UpdatedAt = time.Now().UTC()
	res, err := r.client.execContext(
		ctx,
		r.client.accountQ["update"],
		account.ID,
		account.Email,
		account.Phone,
		account.Password,
		account.IsTFAEnabled,
		account.TFAChannel,
		account.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return auth.ErrInvalidField("email address is already registered")
	}
	if err != nil {
		return fmt.Errorf("failed to execute update: %w", err)
	}

	return rowsAffected(res, "accounts")
}
