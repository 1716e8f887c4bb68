package postgres

import (
	"context"
	"fmt"
	"time"

	auth "github.com/fmitra/walletauth"
)

// TrustedDeviceRepository is an implementation of auth.TrustedDeviceRepository.
type TrustedDeviceRepository struct {
	client *Client
}

// ByDevice retrieves a TrustedDevice by its owner and hashed identifier.
func (r *TrustedDeviceRepository) ByDevice(ctx context.Context, accountID, deviceHash string) (*auth.TrustedDevice, error) {
	var device auth.TrustedDevice
	row := r.client.queryRowContext(ctx, r.client.deviceQ["byDevice"], accountID, deviceHash)
	err := row.Scan(
		&device.AccountID, &device.DeviceHash, &device.CreatedAt, &device.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	return &device, nil
}

// ByAccountID retrieves every TrustedDevice owned by an Account.
func (r *TrustedDeviceRepository) ByAccountID(ctx context.Context, accountID string) ([]*auth.TrustedDevice, error) {
	rows, err := r.client.queryContext(ctx, r.client.deviceQ["byAccountID"], accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	devices := make([]*auth.TrustedDevice, 0)
	for rows.Next() {
		device := auth.TrustedDevice{}
		err = rows.Scan(
			&device.AccountID, &device.DeviceHash, &device.CreatedAt, &device.ExpiresAt,
		)
		if err != nil {
			return nil, err
		}
		devices = append(devices, &device)
	}

	return devices, rows.Err()
}

// Upsert stores a TrustedDevice. An existing record is only replaced
// once it has expired.
func (r *TrustedDeviceRepository) Upsert(ctx context.Context, device *auth.TrustedDevice) error {
	_, err := r.client.execContext(
		ctx,
		r.client.deviceQ["upsert"],
		device.AccountID,
		device.DeviceHash,
		device.CreatedAt,
		device.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert trusted device: %w", err)
	}

	return nil
}

// Expire ends trust for a device at the given time.
func (r *TrustedDeviceRepository) Expire(ctx context.Context, accountID, deviceHash string, at time.Time) error {
	res, err := r.client.execContext(ctx, r.client.deviceQ["expire"], accountID, deviceHash, at)
	if err != nil {
		return fmt.Errorf("failed to expire trusted device: %w", err)
	}

	updatedRows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if updatedRows == 0 {
		return auth.ErrNotFound("device not found")
	}

	return nil
}
