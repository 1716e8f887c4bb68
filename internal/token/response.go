package token

import (
	auth "github.com/fmitra/walletauth"
)

// Response ensures consistent formatting for JSON APIs. A pending
// login carries only a PreAuthToken, a completed one only a Token.
type Response struct {
	Token        string               `json:"token,omitempty"`
	PreAuthToken string               `json:"preAuthToken,omitempty"`
	RequiresOTP  bool                 `json:"requiresOTP"`
	Account      *auth.AccountSummary `json:"account,omitempty"`
}
