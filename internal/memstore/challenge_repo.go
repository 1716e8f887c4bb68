package memstore

import (
	"context"
	"database/sql"
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
	id, err := entropy.ID(r.client.entropy)
	if err != nil {
		return err
	}

	defer r.client.lock()()

	challenge.ID = id
	if challenge.CreatedAt.IsZero() {
		challenge.CreatedAt = time.Now().UTC()
	}

	r.client.journal(r.client.data.revertChallenge(id, nil))
	r.client.data.challenges = append(r.client.data.challenges, *challenge)
	return nil
}

// Recent retrieves the most recent unconsumed Challenge matching an
// exact email, purpose and code hash.
func (r *ChallengeRepository) Recent(ctx context.Context, email string, purpose auth.ChallengePurpose, codeHash string) (*auth.Challenge, error) {
	defer r.client.lock()()

	var found *auth.Challenge
	for i := range r.client.data.challenges {
		c := r.client.data.challenges[i]
		matches := !c.IsConsumed &&
			c.Email == email &&
			c.Purpose == purpose &&
			c.CodeHash == codeHash
		if !matches {
			continue
		}
		if found == nil || !c.CreatedAt.Before(found.CreatedAt) {
			found = &c
		}
	}

	if found == nil {
		return nil, sql.ErrNoRows
	}

	return found, nil
}

// Consume marks a Challenge consumed if it is still outstanding at the
// given time.
func (r *ChallengeRepository) Consume(ctx context.Context, challengeID string, at time.Time) error {
	defer r.client.lock()()

	for i := range r.client.data.challenges {
		c := &r.client.data.challenges[i]
		if c.ID != challengeID {
			continue
		}
		if c.IsConsumed || !at.Before(c.ExpiresAt) {
			break
		}
		prev := *c
		r.client.journal(r.client.data.revertChallenge(challengeID, &prev))
		c.IsConsumed = true
		c.ConsumedAt = sql.NullTime{Time: at, Valid: true}
		return nil
	}

	return auth.ErrInvalidCode("invalid code")
}
