// Package loginapi provides an HTTP API for Account authentication.
package loginapi

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
	"github.com/fmitra/walletauth/internal/httpapi"
	"github.com/fmitra/walletauth/internal/messaging"
	"github.com/fmitra/walletauth/internal/token"
)

type service struct {
	logger    log.Logger
	token     auth.TokenService
	repoMngr  auth.RepositoryManager
	password  auth.PasswordService
	challenge auth.ChallengeService
	trust     auth.TrustService
	message   auth.MessagingService
}

// Login checks an Account's password. Accounts without two factor
// authentication, or logging in from a trusted device, receive a
// session token. Everyone else is sent a challenge code and receives
// a pre-authorized token to submit it with.
func (s *service) Login(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()

	req, err := decodeLoginRequest(r)
	if err != nil {
		return nil, err
	}

	account, err := s.repoMngr.Account().ByIdentity(ctx, "Email", req.Email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		account = nil
	}

	// A missing Account costs as much as a wrong password.
	if err = s.password.Validate(account, req.Password); err != nil {
		return nil, err
	}

	if !account.IsTFAEnabled {
		return s.session(ctx, r, account)
	}

	if req.DeviceID != "" {
		trusted, err := s.trust.IsTrusted(ctx, account.ID, req.DeviceID)
		if err != nil {
			return nil, err
		}
		if trusted {
			s.logger.Log(
				"message", "challenge bypassed by trusted device",
				"account_id", account.ID,
				"source", "LoginAPI.Login",
			)
			return s.session(ctx, r, account)
		}
	}

	return s.requireChallenge(ctx, account)
}

// VerifyCode completes a login by verifying the challenge code sent
// to an Account. The client may ask to trust its device, allowing
// future logins from it to skip the challenge.
func (s *service) VerifyCode(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()

	req, err := decodeVerifyCodeRequest(r)
	if err != nil {
		return nil, err
	}

	account, err := s.account(ctx, httpapi.GetAccountID(r))
	if err != nil {
		return nil, err
	}

	if err = s.challenge.Verify(ctx, account.Email, req.Code, auth.ChallengeLogin); err != nil {
		return nil, err
	}

	if req.RememberDevice && req.DeviceID != "" {
		if err = s.trust.Register(ctx, account.ID, req.DeviceID); err != nil {
			// The code is already spent, so the login still succeeds.
			level.Warn(s.logger).Log(
				"message", "failed to register trusted device",
				"account_id", account.ID,
				"error", err,
				"source", "LoginAPI.VerifyCode",
			)
		}
	}

	return s.session(ctx, r, account)
}

// ResendCode issues and delivers a new challenge code. Codes
// sent earlier remain valid until they expire or are used.
func (s *service) ResendCode(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()

	account, err := s.account(ctx, httpapi.GetAccountID(r))
	if err != nil {
		return nil, err
	}

	return s.requireChallenge(ctx, account)
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

// requireChallenge delivers a login challenge and returns a pre-authorized
// token. No token is returned if the code cannot be delivered.
func (s *service) requireChallenge(ctx context.Context, account *auth.Account) (*token.Response, error) {
	code, _, err := s.challenge.Issue(ctx, account.Email, auth.ChallengeLogin)
	if err != nil {
		return nil, err
	}

	// Enable in config.json: api.debug
	level.Debug(s.logger).Log(
		"source", "LoginAPI.requireChallenge",
		"message", "login code generated",
		"code", code,
		"account_id", account.ID,
	)

	content := messaging.ChallengeContent(code, auth.ChallengeLogin)
	if err = s.message.Send(ctx, content, account.TFAAddress(), account.TFAChannel); err != nil {
		return nil, fmt.Errorf("%v: %w", err, auth.ErrDeliveryFailed("challenge code could not be delivered"))
	}

	preAuth, err := s.token.IssuePreAuth(ctx, account)
	if err != nil {
		return nil, err
	}

	signed, err := s.token.Sign(ctx, preAuth)
	if err != nil {
		return nil, err
	}

	return &token.Response{
		PreAuthToken: signed,
		RequiresOTP:  true,
	}, nil
}

// session issues a session token and records it in the Account's
// login history.
func (s *service) session(ctx context.Context, r *http.Request, account *auth.Account) (*token.Response, error) {
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
	if err = s.repoMngr.LoginHistory().Create(ctx, loginHistory); err != nil {
		return nil, err
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
