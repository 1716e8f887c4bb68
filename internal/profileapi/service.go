// Package profileapi provides an HTTP API for the authenticated Account.
package profileapi

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"

	auth "github.com/fmitra/walletauth"
	"github.com/fmitra/walletauth/internal/contactchecker"
	"github.com/fmitra/walletauth/internal/httpapi"
)

type service struct {
	logger   log.Logger
	repoMngr auth.RepositoryManager
}

type sessionsResponse struct {
	Sessions []*auth.LoginHistory `json:"sessions"`
}

// Get returns the Account associated with a session token.
func (s *service) Get(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()

	account, err := s.account(ctx, httpapi.GetAccountID(r))
	if err != nil {
		return nil, err
	}

	return account.Summary(), nil
}

// UpdateTFA enables or disables two factor authentication and selects
// the channel challenge codes are delivered through. Switching to SMS
// requires a valid phone number, either supplied or already on file.
func (s *service) UpdateTFA(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()
	accountID := httpapi.GetAccountID(r)

	req, err := decodeTFARequest(r)
	if err != nil {
		return nil, err
	}

	txClient, err := s.repoMngr.NewWithTransaction(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot start transaction: %w", err)
	}

	entity, err := txClient.WithAtomic(func() (interface{}, error) {
		account, err := txClient.Account().GetForUpdate(ctx, accountID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%v: %w", err, auth.ErrInvalidToken("token is invalid"))
		}
		if err != nil {
			return nil, err
		}

		account.IsTFAEnabled = req.Enabled
		account.TFAChannel = req.Channel
		if req.Phone != "" {
			account.Phone = sql.NullString{String: req.Phone, Valid: true}
		}

		if err = contactchecker.CheckAccount(account); err != nil {
			return nil, err
		}

		if err = txClient.Account().Update(ctx, account); err != nil {
			return nil, err
		}

		return account, nil
	})
	if err != nil {
		return nil, err
	}

	account := entity.(*auth.Account)
	s.logger.Log(
		"message", "two factor settings updated",
		"account_id", account.ID,
		"tfa_enabled", account.IsTFAEnabled,
		"tfa_channel", account.TFAChannel,
		"source", "ProfileAPI.UpdateTFA",
	)

	return account.Summary(), nil
}

// Sessions returns a paginated list of session tokens issued to the
// Account, most recent first.
func (s *service) Sessions(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()
	accountID := httpapi.GetAccountID(r)

	pr, err := decodePaginatedRequest(r)
	if err != nil {
		return nil, err
	}

	history, err := s.repoMngr.LoginHistory().ByAccountID(ctx, accountID, pr.Limit, pr.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup login history: %w", err)
	}

	if history == nil {
		history = []*auth.LoginHistory{}
	}

	return &sessionsResponse{Sessions: history}, nil
}

func (s *service) account(ctx context.Context, accountID string) (*auth.Account, error) {
	account, err := s.repoMngr.Account().ByIdentity(ctx, "ID", accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%v: %w", err, auth.ErrInvalidToken("token is invalid"))
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}
