// Package deviceapi provides an HTTP API for trusted device management.
package deviceapi

import (
	"net/http"

	"github.com/go-kit/kit/log"

	auth "github.com/fmitra/walletauth"
	"github.com/fmitra/walletauth/internal/httpapi"
)

type service struct {
	logger log.Logger
	trust  auth.TrustService
}

// List returns the devices currently allowed to skip the login challenge.
func (s *service) List(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()
	accountID := httpapi.GetAccountID(r)

	devices, err := s.trust.List(ctx, accountID)
	if err != nil {
		return nil, err
	}

	response := &listResponse{}
	response.Create(devices)

	return response, nil
}

// Remove ends trust for a device. The next login from it requires
// a challenge code.
func (s *service) Remove(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()
	accountID := httpapi.GetAccountID(r)

	req, err := decodeRemoveRequest(r)
	if err != nil {
		return nil, err
	}

	if err = s.trust.Revoke(ctx, accountID, req.DeviceHash); err != nil {
		return nil, err
	}

	return []byte(`{"status": "ok"}`), nil
}
