package deviceapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	auth "github.com/fmitra/walletauth"
	"github.com/fmitra/walletauth/internal/crypto"
	"github.com/fmitra/walletauth/internal/httpapi"
	"github.com/fmitra/walletauth/internal/memstore"
	"github.com/fmitra/walletauth/internal/test"
	"github.com/fmitra/walletauth/internal/trust"
)

func newTokenSvc(state auth.TokenState) *test.TokenService {
	return &test.TokenService{
		ValidateFn: func() (*auth.Token, error) {
			return &auth.Token{AccountID: "account-id", State: state}, nil
		},
	}
}

func TestDeviceAPI_List(t *testing.T) {
	tt := []struct {
		name         string
		statusCode   int
		errMessage   string
		tokenState   auth.TokenState
		listFn       func() ([]*auth.TrustedDevice, error)
		totalDevices int
	}{
		{
			name:       "Rejects pre-authorized token",
			statusCode: http.StatusUnauthorized,
			errMessage: "Token is invalid",
			tokenState: auth.JWTPreAuthorized,
		},
		{
			name:       "Trust service failure",
			statusCode: http.StatusInternalServerError,
			errMessage: "An internal error occurred",
			tokenState: auth.JWTAuthorized,
			listFn: func() ([]*auth.TrustedDevice, error) {
				return nil, errors.New("db connection failed")
			},
		},
		{
			name:       "Returns empty list",
			statusCode: http.StatusOK,
			tokenState: auth.JWTAuthorized,
		},
		{
			name:       "Returns devices",
			statusCode: http.StatusOK,
			tokenState: auth.JWTAuthorized,
			listFn: func() ([]*auth.TrustedDevice, error) {
				return []*auth.TrustedDevice{
					{AccountID: "account-id", DeviceHash: "hash-a"},
					{AccountID: "account-id", DeviceHash: "hash-b"},
				}, nil
			},
			totalDevices: 2,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			router := mux.NewRouter()
			tokenSvc := newTokenSvc(tc.tokenState)
			trustSvc := &test.TrustService{ListFn: tc.listFn}
			svc := NewService(WithTrust(trustSvc))

			req, err := http.NewRequest("GET", "/api/v1/devices", nil)
			if err != nil {
				t.Fatal("failed to create request:", err)
			}
			test.SetAuthHeaders(req)

			logger := log.NewJSONLogger(log.NewSyncWriter(os.Stderr))
			SetupHTTPHandler(svc, router, tokenSvc, logger, &httpapi.MockLimiterFactory{})

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tc.statusCode {
				t.Fatalf("incorrect status code, want %v got %v: %s", tc.statusCode, rr.Code, rr.Body.String())
			}
			if rr.Code != http.StatusOK {
				if err = test.ValidateErrMessage(tc.errMessage, rr.Body); err != nil {
					t.Error(err)
				}
				return
			}

			var resp listResponse
			if err = json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatal("failed to decode response:", err)
			}
			if resp.Devices == nil {
				t.Error("expected devices to be a JSON list")
			}
			if len(resp.Devices) != tc.totalDevices {
				t.Errorf("incorrect device count, want %v got %v", tc.totalDevices, len(resp.Devices))
			}
		})
	}
}

func TestDeviceAPI_Remove(t *testing.T) {
	validHash := strings.Repeat("ab", 64)

	tt := []struct {
		name        string
		statusCode  int
		errMessage  string
		deviceID    string
		revokeFn    func() error
		revokeCalls int
	}{
		{
			name:       "Rejects malformed device ID",
			statusCode: http.StatusBadRequest,
			errMessage: "Device ID is invalid",
			deviceID:   "device-a",
		},
		{
			name:       "Rejects non hex device ID",
			statusCode: http.StatusBadRequest,
			errMessage: "Device ID is invalid",
			deviceID:   strings.Repeat("zz", 64),
		},
		{
			name:        "Unknown device",
			statusCode:  http.StatusBadRequest,
			errMessage:  "Device not found",
			deviceID:    validHash,
			revokeCalls: 1,
			revokeFn: func() error {
				return auth.ErrNotFound("device not found")
			},
		},
		{
			name:        "Removes device",
			statusCode:  http.StatusOK,
			deviceID:    strings.ToUpper(validHash),
			revokeCalls: 1,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			router := mux.NewRouter()
			tokenSvc := newTokenSvc(auth.JWTAuthorized)
			trustSvc := &test.TrustService{RevokeFn: tc.revokeFn}
			svc := NewService(WithTrust(trustSvc))

			req, err := http.NewRequest("DELETE", "/api/v1/devices/"+tc.deviceID, nil)
			if err != nil {
				t.Fatal("failed to create request:", err)
			}
			test.SetAuthHeaders(req)

			SetupHTTPHandler(svc, router, tokenSvc, log.NewNopLogger(), &httpapi.MockLimiterFactory{})

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tc.statusCode {
				t.Fatalf("incorrect status code, want %v got %v: %s", tc.statusCode, rr.Code, rr.Body.String())
			}
			if trustSvc.Calls.Revoke != tc.revokeCalls {
				t.Errorf("incorrect TrustService.Revoke() call count, want %v got %v",
					tc.revokeCalls, trustSvc.Calls.Revoke)
			}
			if rr.Code != http.StatusOK {
				if err = test.ValidateErrMessage(tc.errMessage, rr.Body); err != nil {
					t.Error(err)
				}
			}
		})
	}
}

func TestDeviceAPI_RemovedDeviceLosesTrust(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	repoMngr := memstore.NewClient()
	trustSvc := trust.NewService(
		trust.WithRepoManager(repoMngr),
		trust.WithClock(func() time.Time { return now }),
	)

	if err := trustSvc.Register(ctx, "account-id", "device-a"); err != nil {
		t.Fatal("failed to register device:", err)
	}

	router := mux.NewRouter()
	tokenSvc := newTokenSvc(auth.JWTAuthorized)
	SetupHTTPHandler(NewService(WithTrust(trustSvc)), router, tokenSvc, log.NewNopLogger(), &httpapi.MockLimiterFactory{})

	req, err := http.NewRequest("GET", "/api/v1/devices", nil)
	if err != nil {
		t.Fatal("failed to create request:", err)
	}
	test.SetAuthHeaders(req)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	var resp listResponse
	if err = json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal("failed to decode response:", err)
	}
	if len(resp.Devices) != 1 {
		t.Fatalf("incorrect device count, want 1 got %v", len(resp.Devices))
	}

	hash, err := crypto.Hash("device-a")
	if err != nil {
		t.Fatal("failed to hash device:", err)
	}
	if !cmp.Equal(resp.Devices[0].ID, hash) {
		t.Error("device ID does not match", cmp.Diff(resp.Devices[0].ID, hash))
	}

	req, err = http.NewRequest("DELETE", "/api/v1/devices/"+resp.Devices[0].ID, nil)
	if err != nil {
		t.Fatal("failed to create request:", err)
	}
	test.SetAuthHeaders(req)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("incorrect status code, want %v got %v: %s", http.StatusOK, rr.Code, rr.Body.String())
	}

	isTrusted, err := trustSvc.IsTrusted(ctx, "account-id", "device-a")
	if err != nil {
		t.Fatal("failed to check device:", err)
	}
	if isTrusted {
		t.Error("removed device is still trusted")
	}
}
