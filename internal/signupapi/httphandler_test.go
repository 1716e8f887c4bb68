package signupapi

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	auth "github.com/fmitra/walletauth"
	"github.com/fmitra/walletauth/internal/challenge"
	"github.com/fmitra/walletauth/internal/httpapi"
	"github.com/fmitra/walletauth/internal/memstore"
	"github.com/fmitra/walletauth/internal/password"
	"github.com/fmitra/walletauth/internal/test"
)

func newTokenSvc() *test.TokenService {
	return &test.TokenService{
		IssueSessionFn: func() (*auth.Token, error) {
			t := &auth.Token{State: auth.JWTAuthorized}
			t.Id = fmt.Sprintf("token-%d", time.Now().UnixNano())
			t.ExpiresAt = time.Now().Add(time.Hour).Unix()
			return t, nil
		},
		SignFn: func() (string, error) {
			return "jwt-token", nil
		},
	}
}

func TestSignUpAPI_SignUp(t *testing.T) {
	tt := []struct {
		name           string
		statusCode     int
		reqBody        []byte
		errMessage     string
		messagingCalls int
		issueCalls     int
		accountFn      func() (*auth.Account, error)
		sendFn         func() error
	}{
		{
			name:       "Invalid email failure",
			statusCode: http.StatusBadRequest,
			reqBody:    []byte(`{"email": "jane"}`),
			errMessage: "Email address is invalid",
		},
		{
			name:       "Invalid JSON failure",
			statusCode: http.StatusBadRequest,
			reqBody:    []byte(`{"email": }`),
			errMessage: "Invalid JSON request",
		},
		{
			name:       "Registered email gets the same response without a code",
			statusCode: http.StatusAccepted,
			reqBody:    []byte(`{"email": "jane@example.com"}`),
			accountFn: func() (*auth.Account, error) {
				return &auth.Account{ID: "account-id"}, nil
			},
		},
		{
			name:       "Account query failure",
			statusCode: http.StatusInternalServerError,
			reqBody:    []byte(`{"email": "jane@example.com"}`),
			errMessage: "An internal error occurred",
			accountFn: func() (*auth.Account, error) {
				return nil, errors.New("db connection failed")
			},
		},
		{
			name:           "Delivery failure",
			statusCode:     http.StatusServiceUnavailable,
			reqBody:        []byte(`{"email": "jane@example.com"}`),
			errMessage:     "Challenge code could not be delivered",
			messagingCalls: 1,
			issueCalls:     1,
			accountFn: func() (*auth.Account, error) {
				return nil, sql.ErrNoRows
			},
			sendFn: func() error {
				return errors.New("whoops")
			},
		},
		{
			name:           "Sends challenge",
			statusCode:     http.StatusAccepted,
			reqBody:        []byte(`{"email": "Jane@Example.com"}`),
			messagingCalls: 1,
			issueCalls:     1,
			accountFn: func() (*auth.Account, error) {
				return nil, sql.ErrNoRows
			},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			router := mux.NewRouter()
			repoMngr := &test.RepositoryManager{
				AccountFn: func() auth.AccountRepository {
					return &test.AccountRepository{ByIdentityFn: tc.accountFn}
				},
			}
			tokenSvc := newTokenSvc()
			messagingSvc := &test.MessagingService{SendFn: tc.sendFn}
			challengeSvc := &test.ChallengeService{}
			svc := NewService(
				WithTokenService(tokenSvc),
				WithRepoManager(repoMngr),
				WithChallenge(challengeSvc),
				WithMessaging(messagingSvc),
				WithPassword(password.NewPassword(password.WithCost(4))),
			)

			req, err := http.NewRequest("POST", "/api/v1/signup", bytes.NewBuffer(tc.reqBody))
			if err != nil {
				t.Fatal("failed to create request:", err)
			}

			SetupHTTPHandler(svc, router, tokenSvc, log.NewNopLogger(), &httpapi.MockLimiterFactory{})

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tc.statusCode {
				t.Errorf("incorrect status code, want %v got %v", tc.statusCode, rr.Code)
				t.Error(rr.Body.String())
			}
			if messagingSvc.Calls.Send != tc.messagingCalls {
				t.Errorf("incorrect MessagingService.Send() call count, want %v got %v",
					tc.messagingCalls, messagingSvc.Calls.Send)
			}
			if challengeSvc.Calls.Issue != tc.issueCalls {
				t.Errorf("incorrect ChallengeService.Issue() call count, want %v got %v",
					tc.issueCalls, challengeSvc.Calls.Issue)
			}
			if tc.messagingCalls > 0 {
				if msg := messagingSvc.LastMessage(); msg != nil && msg.Address != "jane@example.com" {
					t.Errorf("incorrect delivery address %s", msg.Address)
				}
			}
			if err = test.ValidateErrMessage(tc.errMessage, rr.Body); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestSignUpAPI_Verify(t *testing.T) {
	ctx := context.Background()
	repoMngr := memstore.NewClient()
	challengeSvc := challenge.NewService(challenge.WithRepoManager(repoMngr))
	tokenSvc := newTokenSvc()
	svc := NewService(
		WithTokenService(tokenSvc),
		WithRepoManager(repoMngr),
		WithChallenge(challengeSvc),
		WithMessaging(&test.MessagingService{}),
		WithPassword(password.NewPassword(password.WithCost(4))),
	)
	router := mux.NewRouter()
	SetupHTTPHandler(svc, router, tokenSvc, log.NewNopLogger(), &httpapi.MockLimiterFactory{})

	code, _, err := challengeSvc.Issue(ctx, "jane@example.com", auth.ChallengeRegistration)
	if err != nil {
		t.Fatal("failed to issue challenge:", err)
	}
	loginCode, _, err := challengeSvc.Issue(ctx, "jane@example.com", auth.ChallengeLogin)
	if err != nil {
		t.Fatal("failed to issue challenge:", err)
	}

	tt := []struct {
		name       string
		statusCode int
		reqBody    string
		errMessage string
	}{
		{
			name:       "Login code is rejected",
			statusCode: http.StatusBadRequest,
			reqBody:    fmt.Sprintf(`{"email": "jane@example.com", "code": "%s", "password": "swordfish"}`, loginCode),
			errMessage: "Invalid code",
		},
		{
			name:       "Short password is rejected before the code is used",
			statusCode: http.StatusBadRequest,
			reqBody:    fmt.Sprintf(`{"email": "jane@example.com", "code": "%s", "password": "fish"}`, code),
			errMessage: "Password must be at least 8 characters long",
		},
		{
			name:       "SMS without phone is rejected",
			statusCode: http.StatusBadRequest,
			reqBody: fmt.Sprintf(
				`{"email": "jane@example.com", "code": "%s", "password": "swordfish", "enableTFA": true, "tfaChannel": "sms"}`,
				code,
			),
			errMessage: "A phone number is required for SMS codes",
		},
		{
			name:       "Creates account",
			statusCode: http.StatusCreated,
			reqBody: fmt.Sprintf(
				`{"email": "Jane@Example.com", "code": "%s", "password": "swordfish", "enableTFA": true, "tfaChannel": "sms", "phone": "+6594867353"}`,
				code,
			),
		},
		{
			name:       "Code is single use",
			statusCode: http.StatusBadRequest,
			reqBody:    fmt.Sprintf(`{"email": "jane@example.com", "code": "%s", "password": "swordfish"}`, code),
			errMessage: "Invalid code",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest("POST", "/api/v1/signup/verify", bytes.NewBufferString(tc.reqBody))
			if err != nil {
				t.Fatal("failed to create request:", err)
			}

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tc.statusCode {
				t.Errorf("incorrect status code, want %v got %v", tc.statusCode, rr.Code)
				t.Error(rr.Body.String())
			}
			if err = test.ValidateErrMessage(tc.errMessage, rr.Body); err != nil {
				t.Error(err)
			}
		})
	}

	account, err := repoMngr.Account().ByIdentity(ctx, "Email", "jane@example.com")
	if err != nil {
		t.Fatal("failed to retrieve account:", err)
	}
	if !account.IsTFAEnabled || account.TFAChannel != auth.SMS || account.Phone.String != "+6594867353" {
		t.Errorf("incorrect account preferences %+v", account)
	}
	if account.Password == "swordfish" {
		t.Error("password stored in plain text")
	}

	logins, err := repoMngr.LoginHistory().ByAccountID(ctx, account.ID, 10, 0)
	if err != nil {
		t.Fatal("failed to retrieve login history:", err)
	}
	if len(logins) != 1 {
		t.Errorf("incorrect login history count, want 1 got %v", len(logins))
	}
}

func TestSignUpAPI_VerifyRegisteredEmail(t *testing.T) {
	ctx := context.Background()
	repoMngr := memstore.NewClient()
	challengeSvc := challenge.NewService(challenge.WithRepoManager(repoMngr))
	tokenSvc := newTokenSvc()
	svc := NewService(
		WithTokenService(tokenSvc),
		WithRepoManager(repoMngr),
		WithChallenge(challengeSvc),
		WithMessaging(&test.MessagingService{}),
		WithPassword(password.NewPassword(password.WithCost(4))),
	)
	router := mux.NewRouter()
	SetupHTTPHandler(svc, router, tokenSvc, log.NewNopLogger(), &httpapi.MockLimiterFactory{})

	err := repoMngr.Account().Create(ctx, &auth.Account{Email: "jane@example.com", Password: "hash"})
	if err != nil {
		t.Fatal("failed to create account:", err)
	}

	code, _, err := challengeSvc.Issue(ctx, "jane@example.com", auth.ChallengeRegistration)
	if err != nil {
		t.Fatal("failed to issue challenge:", err)
	}

	reqBody := fmt.Sprintf(`{"email": "jane@example.com", "code": "%s", "password": "swordfish"}`, code)
	req, err := http.NewRequest("POST", "/api/v1/signup/verify", bytes.NewBufferString(reqBody))
	if err != nil {
		t.Fatal("failed to create request:", err)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("incorrect status code, want %v got %v", http.StatusBadRequest, rr.Code)
	}
	if err = test.ValidateErrMessage("Email address is already registered", rr.Body); err != nil {
		t.Error(err)
	}
}
