package tokenapi

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/mux"

	auth "github.com/fmitra/walletauth"
	"github.com/fmitra/walletauth/internal/httpapi"
	"github.com/fmitra/walletauth/internal/memstore"
	"github.com/fmitra/walletauth/internal/test"
	"github.com/fmitra/walletauth/internal/token"
)

func TestTokenAPI_Verify(t *testing.T) {
	tt := []struct {
		name       string
		statusCode int
		tokenState auth.TokenState
	}{
		{
			name:       "Verifies authorized tokens",
			tokenState: auth.JWTAuthorized,
			statusCode: http.StatusOK,
		},
		{
			name:       "Rejects pre-authorized tokens",
			tokenState: auth.JWTPreAuthorized,
			statusCode: http.StatusUnauthorized,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			router := mux.NewRouter()
			tokenSvc := &test.TokenService{
				ValidateFn: func() (*auth.Token, error) {
					return &auth.Token{AccountID: "account-id", State: tc.tokenState}, nil
				},
			}
			svc := NewService(WithTokenService(tokenSvc))

			req, err := http.NewRequest("POST", "/api/v1/token/verify", nil)
			if err != nil {
				t.Fatal("failed to create request:", err)
			}

			test.SetAuthHeaders(req)

			logger := log.NewJSONLogger(log.NewSyncWriter(os.Stderr))
			SetupHTTPHandler(svc, router, tokenSvc, logger, &httpapi.MockLimiterFactory{})

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tc.statusCode {
				t.Error("status code does not match", cmp.Diff(rr.Code, tc.statusCode))
			}
		})
	}
}

func TestTokenAPI_Revoke(t *testing.T) {
	router := mux.NewRouter()
	tokenSvc := &test.TokenService{
		ValidateFn: func() (*auth.Token, error) {
			return &auth.Token{AccountID: "account-id", State: auth.JWTAuthorized}, nil
		},
		RevokeFn: func() error {
			return nil
		},
	}
	svc := NewService(WithTokenService(tokenSvc))

	expectedCalls := 1
	expectedStatus := http.StatusOK

	req, err := http.NewRequest("POST", "/api/v1/logout", nil)
	if err != nil {
		t.Fatal("failed to create request:", err)
	}

	test.SetAuthHeaders(req)

	logger := log.NewJSONLogger(log.NewSyncWriter(os.Stderr))
	SetupHTTPHandler(svc, router, tokenSvc, logger, &httpapi.MockLimiterFactory{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if expectedCalls != tokenSvc.Calls.Revoke {
		t.Error("TokenService.Revoke call count mismatch", cmp.Diff(
			expectedCalls, tokenSvc.Calls.Revoke,
		))
	}

	if rr.Code != expectedStatus {
		t.Error("status code does not match", cmp.Diff(rr.Code, expectedStatus))
	}
}

func TestTokenAPI_RevokedSessionRejected(t *testing.T) {
	ctx := context.Background()
	repoMngr := memstore.NewClient()
	tokenSvc := token.NewService(
		token.WithRepoManager(repoMngr),
		token.WithSecret("secret"),
		token.WithIssuer("walletauth"),
	)

	account := &auth.Account{ID: "account-id", Email: "jane@example.com"}
	session, err := tokenSvc.IssueSession(ctx, account)
	if err != nil {
		t.Fatal("failed to issue session:", err)
	}
	err = repoMngr.LoginHistory().Create(ctx, &auth.LoginHistory{
		TokenID:   session.Id,
		AccountID: account.ID,
		IPAddress: sql.NullString{String: "127.0.0.1", Valid: true},
		ExpiresAt: time.Unix(session.ExpiresAt, 0),
	})
	if err != nil {
		t.Fatal("failed to create login history:", err)
	}
	signed, err := tokenSvc.Sign(ctx, session)
	if err != nil {
		t.Fatal("failed to sign token:", err)
	}

	router := mux.NewRouter()
	SetupHTTPHandler(NewService(WithTokenService(tokenSvc)), router, tokenSvc, log.NewNopLogger(), &httpapi.MockLimiterFactory{})

	tt := []struct {
		path       string
		statusCode int
	}{
		{path: "/api/v1/token/verify", statusCode: http.StatusOK},
		{path: "/api/v1/logout", statusCode: http.StatusOK},
		{path: "/api/v1/token/verify", statusCode: http.StatusUnauthorized},
		{path: "/api/v1/logout", statusCode: http.StatusUnauthorized},
	}

	for _, tc := range tt {
		req, err := http.NewRequest("POST", tc.path, nil)
		if err != nil {
			t.Fatal("failed to create request:", err)
		}
		req.Header.Set("AUTHORIZATION", "Bearer "+signed)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != tc.statusCode {
			t.Errorf("incorrect status code for %s, want %v got %v", tc.path, tc.statusCode, rr.Code)
		}
	}
}
