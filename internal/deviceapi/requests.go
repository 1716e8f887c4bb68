package deviceapi

import (
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	auth "github.com/fmitra/walletauth"
)

// Device hashes are hex encoded sha512 digests.
const deviceHashLength = 128

type removeRequest struct {
	DeviceHash string
}

func decodeRemoveRequest(r *http.Request) (*removeRequest, error) {
	if r == nil {
		return nil, auth.ErrBadRequest("invalid request")
	}

	hash := strings.ToLower(strings.TrimSpace(mux.Vars(r)["deviceID"]))
	if len(hash) != deviceHashLength {
		return nil, auth.ErrInvalidField("device ID is invalid")
	}
	if _, err := hex.DecodeString(hash); err != nil {
		return nil, auth.ErrInvalidField("device ID is invalid")
	}

	return &removeRequest{DeviceHash: hash}, nil
}
