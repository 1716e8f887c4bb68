// Package tokenapi provides an HTTP API for managing JWT tokens.
package tokenapi

import (
	"net/http"

	"github.com/go-kit/kit/log"

	auth "github.com/fmitra/walletauth"
	"github.com/fmitra/walletauth/internal/httpapi"
)

type service struct {
	logger log.Logger
	token  auth.TokenService
}

// Revoke ends the session a token belongs to. Revoked tokens are rejected
// by every authenticated endpoint until they expire.
func (s *service) Revoke(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()
	token := httpapi.GetToken(r)
	if err := s.token.Revoke(ctx, token); err != nil {
		return nil, err
	}

	s.logger.Log(
		"message", "session revoked",
		"account_id", token.AccountID,
		"token_id", token.Id,
		"source", "TokenAPI.Revoke",
	)

	return []byte(`{"status": "ok"}`), nil
}

// Verify checks if the session token in the request header is valid.
func (s *service) Verify(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	return []byte(`{"status": "ok"}`), nil
}
