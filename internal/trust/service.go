// Package trust decides whether a client device may skip the login
// challenge.
package trust

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-kit/kit/log"

	auth "github.com/fmitra/walletauth"
	"github.com/fmitra/walletauth/internal/crypto"
)

type service struct {
	logger    log.Logger
	repoMngr  auth.RepositoryManager
	deviceTTL time.Duration
	now       func() time.Time
}

// Register trusts a device for the configured TTL. Registering a device
// that is already trusted does not extend its expiry.
func (s *service) Register(ctx context.Context, accountID, deviceID string) error {
	if deviceID == "" {
		return auth.ErrBadRequest("device ID is required")
	}

	hash, err := crypto.Hash(deviceID)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	return s.repoMngr.TrustedDevice().Upsert(ctx, &auth.TrustedDevice{
		AccountID:  accountID,
		DeviceHash: hash,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.deviceTTL),
	})
}

// IsTrusted reports whether a device holds an unexpired trust record.
func (s *service) IsTrusted(ctx context.Context, accountID, deviceID string) (bool, error) {
	if deviceID == "" {
		return false, nil
	}

	hash, err := crypto.Hash(deviceID)
	if err != nil {
		return false, err
	}

	device, err := s.repoMngr.TrustedDevice().ByDevice(ctx, accountID, hash)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return device.IsActive(s.now()), nil
}

// List returns an Account's currently trusted devices.
func (s *service) List(ctx context.Context, accountID string) ([]*auth.TrustedDevice, error) {
	devices, err := s.repoMngr.TrustedDevice().ByAccountID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	active := make([]*auth.TrustedDevice, 0, len(devices))
	for _, d := range devices {
		if d.IsActive(now) {
			active = append(active, d)
		}
	}

	return active, nil
}

// Revoke ends trust for a device identified by its hash.
func (s *service) Revoke(ctx context.Context, accountID, deviceHash string) error {
	err := s.repoMngr.TrustedDevice().Expire(ctx, accountID, deviceHash, s.now().UTC())
	if err != nil {
		return err
	}

	s.logger.Log(
		"message", "trusted device revoked",
		"account_id", accountID,
		"source", "trust.Revoke",
	)
	return nil
}
