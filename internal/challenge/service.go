// Package challenge issues and verifies single use numeric codes.
package challenge

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-kit/kit/log"

	auth "github.com/fmitra/walletauth"
	"github.com/fmitra/walletauth/internal/contactchecker"
	"github.com/fmitra/walletauth/internal/crypto"
)

type service struct {
	logger     log.Logger
	repoMngr   auth.RepositoryManager
	codeLength int
	expiry     time.Duration
	now        func() time.Time
}

// Issue creates a Challenge for an email and returns the plain code
// to be delivered. Only a hash of the code is stored.
func (s *service) Issue(ctx context.Context, email string, purpose auth.ChallengePurpose) (string, *auth.Challenge, error) {
	if !isPurposeValid(purpose) {
		return "", nil, auth.ErrBadRequest("invalid challenge purpose")
	}

	code, err := crypto.Digits(s.codeLength)
	if err != nil {
		return "", nil, err
	}

	hash, err := crypto.Hash(code)
	if err != nil {
		return "", nil, err
	}

	now := s.now().UTC()
	c := &auth.Challenge{
		Email:     contactchecker.NormalizeEmail(email),
		Purpose:   purpose,
		CodeHash:  hash,
		ExpiresAt: now.Add(s.expiry),
		CreatedAt: now,
	}
	if err = s.repoMngr.Challenge().Create(ctx, c); err != nil {
		return "", nil, err
	}

	return code, c, nil
}

// Verify consumes the most recent outstanding Challenge matching the
// exact code presented. A code may be verified only once.
func (s *service) Verify(ctx context.Context, email, code string, purpose auth.ChallengePurpose) error {
	if code == "" {
		return auth.ErrInvalidCode("invalid code")
	}

	hash, err := crypto.Hash(code)
	if err != nil {
		return err
	}

	email = contactchecker.NormalizeEmail(email)
	c, err := s.repoMngr.Challenge().Recent(ctx, email, purpose, hash)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.ErrInvalidCode("invalid code")
	}
	if err != nil {
		return err
	}

	now := s.now().UTC()
	if !now.Before(c.ExpiresAt) {
		s.logger.Log(
			"message", "expired challenge presented",
			"challenge_id", c.ID,
			"source", "challenge.Verify",
		)
		return auth.ErrExpiredCode("code has expired")
	}

	return s.repoMngr.Challenge().Consume(ctx, c.ID, now)
}

func isPurposeValid(purpose auth.ChallengePurpose) bool {
	return purpose == auth.ChallengeLogin || purpose == auth.ChallengeRegistration
}
