package signupapi

import (
	"net/http"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"

	auth "github.com/fmitra/walletauth"
	"github.com/fmitra/walletauth/internal/httpapi"
)

// SetupHTTPHandler converts a service's public methods
// to http handlers.
func SetupHTTPHandler(svc auth.SignUpAPI, router *mux.Router, tokenSvc auth.TokenService, logger log.Logger, lmt httpapi.LimiterFactory) {
	var handler httpapi.JSONAPIHandler
	{
		handler = httpapi.RateLimitMiddleware(svc.SignUp, lmt.NewLimiter(
			"SignUp.SignUp", httpapi.PerMinute, int64(5),
		))
		handler = httpapi.ErrorLoggingMiddleware(handler, "SignUpAPI.SignUp", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusAccepted)
		router.HandleFunc("/api/v1/signup", httpHandler).Methods("Post")
	}
	{
		handler = httpapi.RateLimitMiddleware(svc.Verify, lmt.NewLimiter(
			"SignUp.Verify", httpapi.PerMinute, int64(10),
		))
		handler = httpapi.ErrorLoggingMiddleware(handler, "SignUpAPI.Verify", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusCreated)
		router.HandleFunc("/api/v1/signup/verify", httpHandler).Methods("Post")
	}
}
