package loginapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	auth "github.com/fmitra/walletauth"
	"github.com/fmitra/walletauth/internal/contactchecker"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	DeviceID string `json:"deviceID"`
}

type verifyCodeRequest struct {
	Code           string `json:"code"`
	DeviceID       string `json:"deviceID"`
	RememberDevice bool   `json:"rememberDevice"`
}

func decodeLoginRequest(r *http.Request) (*loginRequest, error) {
	var (
		req loginRequest
		err error
	)

	err = json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, auth.ErrBadRequest("invalid JSON request"))
	}

	req.Email = contactchecker.NormalizeEmail(req.Email)
	req.DeviceID = strings.TrimSpace(req.DeviceID)

	if req.Email == "" || req.Password == "" {
		return nil, auth.ErrBadRequest("email and password are required")
	}

	return &req, nil
}

func decodeVerifyCodeRequest(r *http.Request) (*verifyCodeRequest, error) {
	var (
		req verifyCodeRequest
		err error
	)

	err = json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, auth.ErrBadRequest("invalid JSON request"))
	}

	req.Code = strings.TrimSpace(req.Code)
	req.DeviceID = strings.TrimSpace(req.DeviceID)

	if req.Code == "" {
		return nil, auth.ErrBadRequest("code is required")
	}

	return &req, nil
}
