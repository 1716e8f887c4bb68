package deviceapi

import (
	"time"

	auth "github.com/fmitra/walletauth"
)

// deviceResponse is the response format for auth.TrustedDevice. The
// ID is the device hash, never the identifier held by the client.
type deviceResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// listResponse is a success response for DeviceAPI.List
type listResponse struct {
	Devices []deviceResponse `json:"devices"`
}

// Create populates a listResponse with a list of TrustedDevices.
func (r *listResponse) Create(devices []*auth.TrustedDevice) {
	rd := []deviceResponse{}
	for _, d := range devices {
		rd = append(rd, deviceResponse{
			ID:        d.DeviceHash,
			CreatedAt: d.CreatedAt,
			ExpiresAt: d.ExpiresAt,
		})
	}
	r.Devices = rd
}
