package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	auth "github.com/fmitra/walletauth"
)

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// do sends a JSON request and decodes a JSON response into out. Error
// responses are returned as domain errors.
func (c *Client) do(ctx context.Context, method, path, bearer string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("cannot encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("cannot create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("cannot read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return responseError(resp.StatusCode, b)
	}

	if out == nil {
		return nil
	}
	if err = json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("cannot decode response: %w", err)
	}

	return nil
}

// responseError converts an error response into the domain error
// the server reported.
func responseError(statusCode int, b []byte) error {
	var body errorBody
	if err := json.Unmarshal(b, &body); err != nil || body.Error.Code == "" {
		if statusCode == http.StatusUnauthorized {
			return auth.ErrInvalidToken("token is invalid")
		}
		return fmt.Errorf("unexpected response status %d", statusCode)
	}

	msg := body.Error.Message
	switch auth.ErrCode(body.Error.Code) {
	case auth.EBadRequest:
		return auth.ErrBadRequest(msg)
	case auth.EInvalidToken:
		return auth.ErrInvalidToken(msg)
	case auth.EInvalidField:
		return auth.ErrInvalidField(msg)
	case auth.ENotFound:
		return auth.ErrNotFound(msg)
	case auth.EInvalidCode:
		return auth.ErrInvalidCode(msg)
	case auth.EExpiredCode:
		return auth.ErrExpiredCode(msg)
	case auth.EDeliveryFailed:
		return auth.ErrDeliveryFailed(msg)
	case auth.EThrottle:
		return auth.ErrThrottle(msg)
	default:
		return fmt.Errorf("server error %d: %s", statusCode, msg)
	}
}
