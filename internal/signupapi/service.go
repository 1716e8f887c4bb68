// Package signupapi provides an HTTP API for Account registration.
package signupapi

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"

	auth "github.com/fmitra/walletauth"
	"github.com/fmitra/walletauth/internal/contactchecker"
	"github.com/fmitra/walletauth/internal/httpapi"
	"github.com/fmitra/walletauth/internal/messaging"
	"github.com/fmitra/walletauth/internal/token"
)

var challengeSent = []byte(`{"status": "challenge_sent"}`)

type service struct {
	logger    log.Logger
	token     auth.TokenService
	repoMngr  auth.RepositoryManager
	password  auth.PasswordService
	challenge auth.ChallengeService
	message   auth.MessagingService
}

// SignUp sends a registration challenge to an email address
// which does not yet belong to an Account. Registered emails receive
// the same response and no challenge.
func (s *service) SignUp(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()

	req, err := decodeSignupRequest(r)
	if err != nil {
		return nil, err
	}

	// A registered email gets the same response with no code sent, so
	// sign up cannot be used to discover Accounts.
	_, err = s.repoMngr.Account().ByIdentity(ctx, "Email", req.Email)
	if err == nil {
		s.logger.Log(
			"source", "SignUpAPI.SignUp",
			"message", "sign up requested for a registered email",
		)
		return challengeSent, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	code, _, err := s.challenge.Issue(ctx, req.Email, auth.ChallengeRegistration)
	if err != nil {
		return nil, err
	}

	// Enable in config.json: api.debug
	level.Debug(s.logger).Log(
		"source", "SignUpAPI.SignUp",
		"message", "registration code generated",
		"code", code,
	)

	content := messaging.ChallengeContent(code, auth.ChallengeRegistration)
	if err = s.message.Send(ctx, content, req.Email, auth.Email); err != nil {
		return nil, errors.Wrap(auth.ErrDeliveryFailed("challenge code could not be delivered"), err.Error())
	}

	return challengeSent, nil
}

// Verify creates an Account once the registration challenge sent
// to its email is verified, and logs the new Account in.
func (s *service) Verify(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()

	req, err := decodeSignupVerifyRequest(r)
	if err != nil {
		return nil, err
	}

	// Reject unusable details before the code is spent.
	account := req.ToAccount()
	if err = contactchecker.CheckAccount(account); err != nil {
		return nil, err
	}
	if err = s.password.OKForAccount(req.Password); err != nil {
		return nil, err
	}

	if err = s.challenge.Verify(ctx, account.Email, req.Code, auth.ChallengeRegistration); err != nil {
		return nil, err
	}

	hash, err := s.password.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	account.Password = string(hash)

	client, err := s.repoMngr.NewWithTransaction(ctx)
	if err != nil {
		return nil, err
	}

	entity, err := client.WithAtomic(func() (interface{}, error) {
		if err := client.Account().Create(ctx, account); err != nil {
			return nil, err
		}
		return s.session(ctx, client, r, account)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Log(
		"message", "account registered",
		"account_id", account.ID,
		"source", "SignUpAPI.Verify",
	)

	return entity, nil
}

// session issues a session token and records it in the Account's
// login history.
func (s *service) session(ctx context.Context, repoMngr auth.RepositoryManager, r *http.Request, account *auth.Account) (*token.Response, error) {
	jwtToken, err := s.token.IssueSession(ctx, account)
	if err != nil {
		return nil, err
	}

	loginHistory := &auth.LoginHistory{
		TokenID:   jwtToken.Id,
		AccountID: account.ID,
		IPAddress: sql.NullString{String: httpapi.GetIP(r), Valid: true},
		ExpiresAt: time.Unix(jwtToken.ExpiresAt, 0),
	}
	if err = repoMngr.LoginHistory().Create(ctx, loginHistory); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}

	signed, err := s.token.Sign(ctx, jwtToken)
	if err != nil {
		return nil, err
	}

	return &token.Response{
		Token:   signed,
		Account: account.Summary(),
	}, nil
}
