package loginapi

import (
	"net/http"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"

	auth "github.com/fmitra/walletauth"
	"github.com/fmitra/walletauth/internal/httpapi"
)

// SetupHTTPHandler converts a service's public methods
// to http handlers.
func SetupHTTPHandler(svc auth.LoginAPI, router *mux.Router, tokenSvc auth.TokenService, logger log.Logger, lmt httpapi.LimiterFactory) {
	var handler httpapi.JSONAPIHandler
	{
		handler = httpapi.RateLimitMiddleware(svc.Login, lmt.NewLimiter(
			"Login.Login", httpapi.PerMinute, int64(10),
		))
		handler = httpapi.ErrorLoggingMiddleware(handler, "LoginAPI.Login", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/login", httpHandler).Methods("Post")
	}
	{
		handler = httpapi.RateLimitMiddleware(svc.VerifyCode, lmt.NewLimiter(
			"Login.VerifyCode", httpapi.PerMinute, int64(10),
		))
		handler = httpapi.AuthMiddleware(handler, tokenSvc, auth.JWTPreAuthorized)
		handler = httpapi.ErrorLoggingMiddleware(handler, "LoginAPI.VerifyCode", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/login/verify-code", httpHandler).Methods("Post")
	}
	{
		handler = httpapi.RateLimitMiddleware(svc.ResendCode, lmt.NewLimiter(
			"Login.ResendCode", httpapi.PerMinute, int64(3),
		))
		handler = httpapi.AuthMiddleware(handler, tokenSvc, auth.JWTPreAuthorized)
		handler = httpapi.ErrorLoggingMiddleware(handler, "LoginAPI.ResendCode", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/login/resend-code", httpHandler).Methods("Post")
	}
}
