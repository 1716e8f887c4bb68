package profileapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	auth "github.com/fmitra/walletauth"
)

const (
	defaultLimit = 10
	maxLimit     = 50
)

type paginatedRequest struct {
	Limit  int
	Offset int
}

type tfaRequest struct {
	Enabled bool                `json:"enabled"`
	Channel auth.DeliveryMethod `json:"channel"`
	Phone   string              `json:"phone"`
}

func decodePaginatedRequest(r *http.Request) (*paginatedRequest, error) {
	var pr paginatedRequest

	if r == nil {
		return nil, auth.ErrBadRequest("invalid request")
	}

	params := r.URL.Query()

	limit, err := toIntOrDefault(params.Get("limit"), defaultLimit)
	if err != nil {
		return nil, err
	}

	offset, err := toIntOrDefault(params.Get("offset"), 0)
	if err != nil {
		return nil, err
	}

	if limit < 1 || offset < 0 {
		return nil, auth.ErrBadRequest("pagination params must be positive")
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	pr.Limit = limit
	pr.Offset = offset

	return &pr, nil
}

func toIntOrDefault(s string, i int) (int, error) {
	if s == "" {
		return i, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, auth.ErrBadRequest("pagination param should be a number")
	}

	return n, nil
}

func decodeTFARequest(r *http.Request) (*tfaRequest, error) {
	var req tfaRequest

	if r == nil || r.Body == nil {
		return nil, auth.ErrBadRequest("no request body received")
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, auth.ErrBadRequest("invalid JSON request"))
	}

	req.Channel = auth.DeliveryMethod(strings.ToLower(strings.TrimSpace(string(req.Channel))))
	req.Phone = strings.TrimSpace(req.Phone)

	if req.Channel == "" {
		req.Channel = auth.Email
	}
	if req.Channel != auth.Email && req.Channel != auth.SMS {
		return nil, auth.ErrInvalidField("channel must be `email` or `sms`")
	}

	return &req, nil
}
