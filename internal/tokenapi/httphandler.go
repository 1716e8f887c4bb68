package tokenapi

import (
	"net/http"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"

	auth "github.com/fmitra/walletauth"
	"github.com/fmitra/walletauth/internal/httpapi"
)

// SetupHTTPHandler converts a service's public methods
// to http handlers.
func SetupHTTPHandler(svc auth.TokenAPI, router *mux.Router, tokenSvc auth.TokenService, logger log.Logger, lmt httpapi.LimiterFactory) {
	var handler httpapi.JSONAPIHandler
	{
		handler = httpapi.RateLimitMiddleware(svc.Verify, lmt.NewLimiter(
			"Token.Verify", httpapi.PerSecond, int64(5),
		))
		handler = httpapi.AuthMiddleware(handler, tokenSvc, auth.JWTAuthorized)
		handler = httpapi.ErrorLoggingMiddleware(handler, "TokenAPI.Verify", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/token/verify", httpHandler).Methods("Post")
	}
	{
		handler = httpapi.RateLimitMiddleware(svc.Revoke, lmt.NewLimiter(
			"Token.Revoke", httpapi.PerMinute, int64(20),
		))
		handler = httpapi.AuthMiddleware(handler, tokenSvc, auth.JWTAuthorized)
		handler = httpapi.ErrorLoggingMiddleware(handler, "TokenAPI.Revoke", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/logout", httpHandler).Methods("Post")
	}
}
