package postgres

import (
	"context"
	"fmt"
	"time"

	auth "github.com/fmitra/walletauth"
	"github.com/fmitra/walletauth/internal/entropy"
)

// ChallengeRepository is an implementation of auth.ChallengeRepository.
type ChallengeRepository struct {
	client *Client
}

// Create persists a new Challenge.
func (r *ChallengeRepository) Create(ctx context.Context, challenge *auth.Challenge) error {
	challengeID, err := entropy.ID(r.client.entropy)
	if err != nil {
		return err
	}

	if challenge.CreatedAt.IsZero() {
		challenge.CreatedAt = time.Now().UTC()
	}

	challenge.ID = challengeID
	_, err = r.client.execContext(
		ctx,
		r.client.challengeQ["insert"],
		challenge.ID,
		challenge.Email,
		challenge.Purpose,
		challenge.CodeHash,
		challenge.ExpiresAt,
		challenge.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert challenge: %w", err)
	}

	return nil
}

// Recent retrieves the most recent unconsumed Challenge matching an
// exact email, purpose and code hash.
func (r *ChallengeRepository) Recent(ctx context.Context, email string, purpose auth.ChallengePurpose, codeHash string) (*auth.Challenge, error) {
	var c auth.Challenge
	row := r.client.queryRowContext(ctx, r.client.challengeQ["recent"], email, purpose, codeHash)
	err := row.Scan(
		&c.ID, &c.Email, &c.Purpose, &c.CodeHash, &c.IsConsumed, &c.ExpiresAt,
		&c.ConsumedAt, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

// Consume marks a Challenge consumed in a single conditional update.
// Only one of any concurrent callers will affect a row.
func (r *ChallengeRepository) Consume(ctx context.Context, challengeID string, at time.Time) error {
	res, err := r.client.execContext(ctx, r.client.challengeQ["consume"], challengeID, at)
	if err != nil {
		return fmt.Errorf("failed to consume challenge: %w", err)
	}

	updatedRows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if updatedRows != 1 {
		return auth.ErrInvalidCode("invalid code")
	}

	return nil
}
