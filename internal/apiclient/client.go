// Package apiclient drives the login, sign up and session flows from
// the client side, keeping credentials in a credcache.Cache.
package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	auth "github.com/fmitra/walletauth"
	"github.com/fmitra/walletauth/internal/credcache"
	"github.com/fmitra/walletauth/internal/crypto"
	"github.com/fmitra/walletauth/internal/token"
)

// ErrNoPendingLogin is returned when a code is submitted without a
// login awaiting one.
const ErrNoPendingLogin = auth.ErrBadRequest("no login is awaiting a code")

// ErrRejectedCode is returned without contacting the server when a code
// already rejected for the pending login is entered again.
const ErrRejectedCode = auth.ErrInvalidCode("code was already rejected, enter a new code")

// ErrNotAuthenticated is returned by authenticated calls made without
// a session token.
const ErrNotAuthenticated = auth.ErrInvalidToken("not logged in")

const deviceIDLength = 32

// Client is an API client for a single user.
type Client struct {
	baseURL    string
	cache      *credcache.Cache
	httpClient *http.Client
	logger     log.Logger

	// rejected holds codes the server refused for the pending login.
	mu       sync.Mutex
	rejected map[string]bool
}

// LoginResult describes the outcome of a password login.
type LoginResult struct {
	// RequiresOTP is set when a challenge code was sent and must be
	// submitted with VerifyCode.
	RequiresOTP bool
	// Account is set when a session was issued.
	Account *auth.AccountSummary
}

// SignUpRequest completes an Account registration.
type SignUpRequest struct {
	Email      string              `json:"email"`
	Code       string              `json:"code"`
	Password   string              `json:"password"`
	EnableTFA  bool                `json:"enableTFA"`
	TFAChannel auth.DeliveryMethod `json:"tfaChannel,omitempty"`
	Phone      string              `json:"phone,omitempty"`
}

// Device is a remembered device as reported by the server.
type Device struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// DeviceID returns this client's device identifier, generating and
// caching one on first use.
func (c *Client) DeviceID(ctx context.Context) (string, error) {
	if id, ok := c.cache.Get(ctx, credcache.DeviceID); ok && id != "" {
		return id, nil
	}

	id, err := crypto.StringB64(deviceIDLength)
	if err != nil {
		return "", err
	}

	if err = c.cache.Set(ctx, credcache.DeviceID, id); err != nil {
		return "", err
	}

	return id, nil
}

// Login starts a login. Any login already awaiting a code is abandoned.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if err := c.AbandonLogin(ctx); err != nil {
		return nil, err
	}

	deviceID, err := c.DeviceID(ctx)
	if err != nil {
		return nil, err
	}

	req := map[string]string{
		"email":    email,
		"password": password,
		"deviceID": deviceID,
	}

	var resp token.Response
	if err = c.do(ctx, http.MethodPost, "/api/v1/login", "", req, &resp); err != nil {
		return nil, err
	}

	if resp.RequiresOTP {
		if err = c.cache.Set(ctx, credcache.PreAuthToken, resp.PreAuthToken); err != nil {
			return nil, err
		}
		if err = c.cache.Set(ctx, credcache.AccountEmail, email); err != nil {
			return nil, err
		}
		return &LoginResult{RequiresOTP: true}, nil
	}

	if err = c.storeSession(ctx, &resp); err != nil {
		return nil, err
	}

	return &LoginResult{Account: resp.Account}, nil
}

// IsLoginPending reports whether a login is awaiting a code.
func (c *Client) IsLoginPending(ctx context.Context) bool {
	return c.cache.Has(ctx, credcache.PreAuthToken)
}

// VerifyCode submits the challenge code of a pending login. A rejected
// code leaves the login pending so another code may be entered, and is
// refused locally with ErrRejectedCode if entered again. An expired or
// rejected pre-authorized token abandons the login.
func (c *Client) VerifyCode(ctx context.Context, code string, rememberDevice bool) (*auth.AccountSummary, error) {
	preAuth, ok := c.cache.Get(ctx, credcache.PreAuthToken)
	if !ok {
		return nil, ErrNoPendingLogin
	}

	if c.isRejected(code) {
		return nil, ErrRejectedCode
	}

	deviceID, err := c.DeviceID(ctx)
	if err != nil {
		return nil, err
	}

	req := map[string]interface{}{
		"code":           code,
		"deviceID":       deviceID,
		"rememberDevice": rememberDevice,
	}

	var resp token.Response
	err = c.do(ctx, http.MethodPost, "/api/v1/login/verify-code", preAuth, req, &resp)
	if auth.ErrorCode(err) == auth.EInvalidToken {
		if rmErr := c.AbandonLogin(ctx); rmErr != nil {
			c.logCacheFailure("VerifyCode", rmErr)
		}
		return nil, err
	}
	if errCode := auth.ErrorCode(err); errCode == auth.EInvalidCode || errCode == auth.EExpiredCode {
		c.reject(code)
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	if err = c.storeSession(ctx, &resp); err != nil {
		return nil, err
	}

	return resp.Account, nil
}

// ResendCode asks for a new challenge code for a pending login.
func (c *Client) ResendCode(ctx context.Context) error {
	preAuth, ok := c.cache.Get(ctx, credcache.PreAuthToken)
	if !ok {
		return ErrNoPendingLogin
	}

	var resp token.Response
	err := c.do(ctx, http.MethodPost, "/api/v1/login/resend-code", preAuth, nil, &resp)
	if auth.ErrorCode(err) == auth.EInvalidToken {
		if rmErr := c.AbandonLogin(ctx); rmErr != nil {
			c.logCacheFailure("ResendCode", rmErr)
		}
		return err
	}
	if err != nil {
		return err
	}

	return c.cache.Set(ctx, credcache.PreAuthToken, resp.PreAuthToken)
}

// AbandonLogin discards a pending login.
func (c *Client) AbandonLogin(ctx context.Context) error {
	c.mu.Lock()
	c.rejected = nil
	c.mu.Unlock()

	return c.cache.Remove(ctx, credcache.PreAuthToken)
}

func (c *Client) isRejected(code string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.rejected[code]
}

func (c *Client) reject(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rejected == nil {
		c.rejected = map[string]bool{}
	}
	c.rejected[code] = true
}

// SignUp requests a registration code for email.
func (c *Client) SignUp(ctx context.Context, email string) error {
	req := map[string]string{"email": email}
	return c.do(ctx, http.MethodPost, "/api/v1/signup", "", req, nil)
}

// VerifySignUp creates an Account and starts a session for it.
func (c *Client) VerifySignUp(ctx context.Context, req *SignUpRequest) (*auth.AccountSummary, error) {
	var resp token.Response
	if err := c.do(ctx, http.MethodPost, "/api/v1/signup/verify", "", req, &resp); err != nil {
		return nil, err
	}

	if err := c.storeSession(ctx, &resp); err != nil {
		return nil, err
	}

	return resp.Account, nil
}

// IsAuthenticated reports whether a session token is cached.
func (c *Client) IsAuthenticated(ctx context.Context) bool {
	return c.cache.Has(ctx, credcache.SessionToken)
}

// Profile returns the logged in Account.
func (c *Client) Profile(ctx context.Context) (*auth.AccountSummary, error) {
	var summary auth.AccountSummary
	if err := c.authorized(ctx, http.MethodGet, "/api/v1/profile", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// UpdateTFA changes the logged in Account's two factor settings.
func (c *Client) UpdateTFA(ctx context.Context, enabled bool, channel auth.DeliveryMethod, phone string) (*auth.AccountSummary, error) {
	req := map[string]interface{}{
		"enabled": enabled,
		"channel": channel,
		"phone":   phone,
	}

	var summary auth.AccountSummary
	if err := c.authorized(ctx, http.MethodPut, "/api/v1/profile/tfa", req, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Sessions lists the logged in Account's sessions, newest first.
func (c *Client) Sessions(ctx context.Context, limit, offset int) ([]*auth.LoginHistory, error) {
	path := fmt.Sprintf("/api/v1/profile/sessions?limit=%d&offset=%d", limit, offset)

	var resp struct {
		Sessions []*auth.LoginHistory `json:"sessions"`
	}
	if err := c.authorized(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

// Devices lists the logged in Account's remembered devices.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	var resp struct {
		Devices []Device `json:"devices"`
	}
	if err := c.authorized(ctx, http.MethodGet, "/api/v1/devices", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Devices, nil
}

// RemoveDevice forgets a remembered device. id is the value reported
// by Devices.
func (c *Client) RemoveDevice(ctx context.Context, id string) error {
	path := "/api/v1/devices/" + url.PathEscape(id)
	return c.authorized(ctx, http.MethodDelete, path, nil, nil)
}

// Logout revokes the session and removes it from the cache. The
// device identifier is kept so trusted device status survives.
func (c *Client) Logout(ctx context.Context) error {
	err := c.authorized(ctx, http.MethodPost, "/api/v1/logout", nil, nil)
	if err != nil && auth.ErrorCode(err) != auth.EInvalidToken {
		level.Warn(c.logger).Log(
			"message", "session was not revoked by server",
			"error", err,
			"source", "apiclient.Logout",
		)
	}

	for _, key := range []string{credcache.SessionToken, credcache.AccountEmail, credcache.PreAuthToken} {
		if rmErr := c.cache.Remove(ctx, key); rmErr != nil {
			return rmErr
		}
	}

	return nil
}

// authorized sends a request with the cached session token. A rejected
// token clears the cache, forcing a new login.
func (c *Client) authorized(ctx context.Context, method, path string, in, out interface{}) error {
	sessionToken, ok := c.cache.Get(ctx, credcache.SessionToken)
	if !ok {
		return ErrNotAuthenticated
	}

	err := c.do(ctx, method, path, sessionToken, in, out)
	if auth.ErrorCode(err) == auth.EInvalidToken {
		if clearErr := c.cache.Clear(ctx); clearErr != nil {
			c.logCacheFailure("authorized", clearErr)
		}
	}

	return err
}

func (c *Client) storeSession(ctx context.Context, resp *token.Response) error {
	if err := c.cache.Set(ctx, credcache.SessionToken, resp.Token); err != nil {
		return err
	}
	if resp.Account != nil {
		if err := c.cache.Set(ctx, credcache.AccountEmail, resp.Account.Email); err != nil {
			return err
		}
	}
	return c.AbandonLogin(ctx)
}

func (c *Client) logCacheFailure(source string, err error) {
	level.Warn(c.logger).Log(
		"message", "failed to update credential cache",
		"error", err,
		"source", "apiclient."+source,
	)
}
