package httpapi

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/go-kit/kit/log"

	auth "github.com/fmitra/walletauth"
)

type contextKey string

const authorizationHeader = "AUTHORIZATION"

const (
	accountIDContextKey contextKey = "accountID"
	tokenContextKey     contextKey = "token"
)

// AuthMiddleware requires a valid bearer token of the given state.
// Every failure is reported as the same invalid token error.
func AuthMiddleware(jsonHandler JSONAPIHandler, tokenSvc auth.TokenService, state auth.TokenState) JSONAPIHandler {
	return func(w http.ResponseWriter, r *http.Request) (interface{}, error) {
		ctx := r.Context()
		jwtToken := r.Header.Get(authorizationHeader)
		if jwtToken == "" {
			return nil, auth.ErrInvalidToken("token is invalid")
		}

		token, err := tokenSvc.Validate(ctx, jwtToken)
		if err != nil {
			return nil, err
		}

		if token.State != state {
			return nil, fmt.Errorf(
				"token state %s not accepted: %w", token.State, auth.ErrInvalidToken("token is invalid"),
			)
		}

		ctx = context.WithValue(ctx, accountIDContextKey, token.AccountID)
		ctx = context.WithValue(ctx, tokenContextKey, token)
		r = r.WithContext(ctx)

		return jsonHandler(w, r)
	}
}

// ErrorLoggingMiddleware logs any errors that are returned before
// being parsed to an HTTP response.
func ErrorLoggingMiddleware(jsonHandler JSONAPIHandler, source string, logger log.Logger) JSONAPIHandler {
	return func(w http.ResponseWriter, r *http.Request) (interface{}, error) {
		response, err := jsonHandler(w, r)
		if err != nil {
			logger.Log(
				"account_id", GetAccountID(r),
				"source", source,
				"error", err.Error(),
				"code", auth.ErrorCode(err),
			)
		}
		return response, err
	}
}

// RateLimitMiddleware rejects requests exceeding a Limiter's rate.
func RateLimitMiddleware(jsonHandler JSONAPIHandler, limiter Limiter) JSONAPIHandler {
	return func(w http.ResponseWriter, r *http.Request) (interface{}, error) {
		if err := limiter.RateLimit(r); err != nil {
			return nil, err
		}
		return jsonHandler(w, r)
	}
}

// GetAccountID retrieves an Account ID from context. It is only
// available behind AuthMiddleware.
func GetAccountID(r *http.Request) string {
	accountID, ok := r.Context().Value(accountIDContextKey).(string)
	if !ok {
		return ""
	}
	return accountID
}

// GetToken retrieves the validated Token from context.
func GetToken(r *http.Request) *auth.Token {
	token, ok := r.Context().Value(tokenContextKey).(*auth.Token)
	if !ok {
		return nil
	}
	return token
}

// GetIP returns the client IP of a request.
func GetIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
