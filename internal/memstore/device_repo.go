package memstore

import (
	"context"
	"database/sql"
	"sort"
	"time"

	auth "github.com/fmitra/walletauth"
)

// TrustedDeviceRepository is an implementation of auth.TrustedDeviceRepository.
type TrustedDeviceRepository struct {
	client *Client
}

func deviceKey(accountID, deviceHash string) string {
	return accountID + "/" + deviceHash
}

// ByDevice retrieves a TrustedDevice by its owner and hashed identifier.
func (r *TrustedDeviceRepository) ByDevice(ctx context.Context, accountID, deviceHash string) (*auth.TrustedDevice, error) {
	defer r.client.lock()()

	device, ok := r.client.data.devices[deviceKey(accountID, deviceHash)]
	if !ok {
		return nil, sql.ErrNoRows
	}

	return &device, nil
}

// ByAccountID retrieves every TrustedDevice owned by an Account,
// most recently trusted first.
func (r *TrustedDeviceRepository) ByAccountID(ctx context.Context, accountID string) ([]*auth.TrustedDevice, error) {
	defer r.client.lock()()

	devices := make([]*auth.TrustedDevice, 0)
	for _, d := range r.client.data.devices {
		if d.AccountID != accountID {
			continue
		}
		device := d
		devices = append(devices, &device)
	}

	sort.Slice(devices, func(i, j int) bool {
		return devices[i].CreatedAt.After(devices[j].CreatedAt)
	})

	return devices, nil
}

// Upsert stores a TrustedDevice unless an unexpired record already exists.
func (r *TrustedDeviceRepository) Upsert(ctx context.Context, device *auth.TrustedDevice) error {
	defer r.client.lock()()

	key := deviceKey(device.AccountID, device.DeviceHash)
	stored, ok := r.client.data.devices[key]
	if ok && stored.ExpiresAt.After(device.CreatedAt) {
		return nil
	}

	r.client.journal(r.client.data.revertDevice(key))
	r.client.data.devices[key] = *device
	return nil
}

// Expire ends trust for a device at the given time.
func (r *TrustedDeviceRepository) Expire(ctx context.Context, accountID, deviceHash string, at time.Time) error {
	defer r.client.lock()()

	key := deviceKey(accountID, deviceHash)
	stored, ok := r.client.data.devices[key]
	if !ok || !stored.ExpiresAt.After(at) {
		return auth.ErrNotFound("device not found")
	}

	r.client.journal(r.client.data.revertDevice(key))
	stored.ExpiresAt = at
	r.client.data.devices[key] = stored
	return nil
}
