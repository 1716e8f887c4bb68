package signupapi

import (
	"bytes"
	"net/http"
	"testing"

	auth "github.com/fmitra/walletauth"
)

func TestSignUpAPI_SignUpRequest(t *testing.T) {
	tt := []struct {
		name     string
		email    string
		request  []byte
		hasError bool
	}{
		{
			name:     "Normalizes email",
			email:    "jane@example.com",
			request:  []byte(`{"email": " JANE@example.com "}`),
			hasError: false,
		},
		{
			name:     "Invalid email",
			request:  []byte(`{"email": "jane@"}`),
			hasError: true,
		},
		{
			name:     "Named address",
			request:  []byte(`{"email": "Jane <jane@example.com>"}`),
			hasError: true,
		},
		{
			name:     "Invalid JSON",
			request:  []byte(`{"email": "jane@example.com"`),
			hasError: true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			r, err := http.NewRequest("POST", "/api/v1/signup", bytes.NewBuffer(tc.request))
			if err != nil {
				t.Fatal("failed to create request:", err)
			}

			req, err := decodeSignupRequest(r)
			if (err != nil) != tc.hasError {
				t.Fatalf("incorrect error result, want error %v got %v", tc.hasError, err)
			}
			if err == nil && req.Email != tc.email {
				t.Errorf("incorrect email, want %s got %s", tc.email, req.Email)
			}
		})
	}
}

func TestSignUpAPI_VerifyRequestToAccount(t *testing.T) {
	request := []byte(`{
		"email": "Jane@Example.com",
		"code": " 123456 ",
		"password": "swordfish",
		"enableTFA": true,
		"tfaChannel": "sms",
		"phone": " +6594867353 "
	}`)
	r, err := http.NewRequest("POST", "/api/v1/signup/verify", bytes.NewBuffer(request))
	if err != nil {
		t.Fatal("failed to create request:", err)
	}

	req, err := decodeSignupVerifyRequest(r)
	if err != nil {
		t.Fatal("failed to decode request:", err)
	}
	if req.Code != "123456" {
		t.Errorf("code not trimmed: %q", req.Code)
	}

	account := req.ToAccount()
	if account.Email != "jane@example.com" || !account.Phone.Valid || account.Phone.String != "+6594867353" {
		t.Errorf("incorrect account contact details %+v", account)
	}
	if !account.IsTFAEnabled || account.TFAChannel != auth.SMS {
		t.Errorf("incorrect two factor preferences %+v", account)
	}
	if account.Password != "" {
		t.Error("password copied to account before hashing")
	}
}
