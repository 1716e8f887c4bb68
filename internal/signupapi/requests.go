package signupapi

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	auth "github.com/fmitra/walletauth"
	"github.com/fmitra/walletauth/internal/contactchecker"
)

type signupRequest struct {
	Email string `json:"email"`
}

type signupVerifyRequest struct {
	Email      string              `json:"email"`
	Code       string              `json:"code"`
	Password   string              `json:"password"`
	EnableTFA  bool                `json:"enableTFA"`
	TFAChannel auth.DeliveryMethod `json:"tfaChannel"`
	Phone      string              `json:"phone"`
}

// ToAccount returns the Account described by the request. The
// password is left for the caller to hash.
func (r *signupVerifyRequest) ToAccount() *auth.Account {
	return &auth.Account{
		Email:        r.Email,
		Phone:        sql.NullString{String: r.Phone, Valid: r.Phone != ""},
		IsTFAEnabled: r.EnableTFA,
		TFAChannel:   r.TFAChannel,
	}
}

func decodeSignupRequest(r *http.Request) (*signupRequest, error) {
	var (
		req signupRequest
		err error
	)

	err = json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		return nil, errors.Wrap(auth.ErrBadRequest("invalid JSON request"), err.Error())
	}

	req.Email = contactchecker.NormalizeEmail(req.Email)
	if !contactchecker.IsEmailValid(req.Email) {
		return nil, auth.ErrInvalidField("email address is invalid")
	}

	return &req, nil
}

func decodeSignupVerifyRequest(r *http.Request) (*signupVerifyRequest, error) {
	var (
		req signupVerifyRequest
		err error
	)

	err = json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		return nil, errors.Wrap(auth.ErrBadRequest("invalid JSON request"), err.Error())
	}

	req.Email = contactchecker.NormalizeEmail(req.Email)
	req.Code = strings.TrimSpace(req.Code)
	req.Phone = strings.TrimSpace(req.Phone)

	if req.Code == "" {
		return nil, auth.ErrBadRequest("code is required")
	}

	return &req, nil
}
