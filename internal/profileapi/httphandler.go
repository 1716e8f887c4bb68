package profileapi

import (
	"net/http"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"

	auth "github.com/fmitra/walletauth"
	"github.com/fmitra/walletauth/internal/httpapi"
)

// SetupHTTPHandler converts a service's public methods
// to http handlers.
func SetupHTTPHandler(svc auth.ProfileAPI, router *mux.Router, tokenSvc auth.TokenService, logger log.Logger, lmt httpapi.LimiterFactory) {
	var handler httpapi.JSONAPIHandler
	{
		handler = httpapi.AuthMiddleware(svc.Get, tokenSvc, auth.JWTAuthorized)
		handler = httpapi.ErrorLoggingMiddleware(handler, "ProfileAPI.Get", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/profile", httpHandler).Methods("Get")
	}
	{
		handler = httpapi.RateLimitMiddleware(svc.UpdateTFA, lmt.NewLimiter(
			"Profile.UpdateTFA", httpapi.PerMinute, int64(10),
		))
		handler = httpapi.AuthMiddleware(handler, tokenSvc, auth.JWTAuthorized)
		handler = httpapi.ErrorLoggingMiddleware(handler, "ProfileAPI.UpdateTFA", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/profile/tfa", httpHandler).Methods("Put")
	}
	{
		handler = httpapi.AuthMiddleware(svc.Sessions, tokenSvc, auth.JWTAuthorized)
		handler = httpapi.ErrorLoggingMiddleware(handler, "ProfileAPI.Sessions", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/profile/sessions", httpHandler).Methods("Get")
	}
}
