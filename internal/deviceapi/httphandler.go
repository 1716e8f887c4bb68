package deviceapi

import (
	"net/http"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"

	auth "github.com/fmitra/walletauth"
	"github.com/fmitra/walletauth/internal/httpapi"
)

// SetupHTTPHandler converts a service's public methods
// to http handlers.
func SetupHTTPHandler(svc auth.DeviceAPI, router *mux.Router, tokenSvc auth.TokenService, logger log.Logger, lmt httpapi.LimiterFactory) {
	var handler httpapi.JSONAPIHandler
	{
		handler = httpapi.AuthMiddleware(svc.List, tokenSvc, auth.JWTAuthorized)
		handler = httpapi.ErrorLoggingMiddleware(handler, "DeviceAPI.List", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/devices", httpHandler).Methods("Get")
	}
	{
		handler = httpapi.RateLimitMiddleware(svc.Remove, lmt.NewLimiter(
			"Device.Remove", httpapi.PerMinute, int64(20),
		))
		handler = httpapi.AuthMiddleware(handler, tokenSvc, auth.JWTAuthorized)
		handler = httpapi.ErrorLoggingMiddleware(handler, "DeviceAPI.Remove", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/devices/{deviceID}", httpHandler).Methods("Delete")
	}
}
