package twilio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fmitra/walletauth/internal/test"
)

func TestTwilio_SMS(t *testing.T) {
	tt := []struct {
		name         string
		responseCode int
		hasError     bool
	}{
		{
			name:         "Success 201",
			responseCode: http.StatusCreated,
			hasError:     false,
		},
		{
			name:         "Invalid 200",
			responseCode: http.StatusOK,
			hasError:     true,
		},
		{
			name:         "Invalid 400",
			responseCode: http.StatusBadRequest,
			hasError:     true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			srv := test.Server(test.ServerResp{
				Path:       "/Accounts/accountSID/Messages.json",
				StatusCode: tc.responseCode,
			})
			defer srv.Close()

			ctx := context.Background()
			c := NewClient(WithConfig(Config{
				baseURL:    srv.URL,
				accountSID: "accountSID",
				authToken:  "authToken",
				smsSender:  "+15555555555",
			}))

			err := c.SMS(ctx, "+17777777777", "hello world")
			if err != nil && !tc.hasError {
				t.Error("expected nil error", err)
			}
			if err == nil && tc.hasError {
				t.Error("expected error, received nil")
			}
		})
	}
}

func TestTwilio_SMSRequest(t *testing.T) {
	var (
		form     map[string]string
		username string
		password string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, _ = r.BasicAuth()
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		form = map[string]string{
			"To":   r.PostForm.Get("To"),
			"From": r.PostForm.Get("From"),
			"Body": r.PostForm.Get("Body"),
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(WithConfig(Config{
		baseURL:    srv.URL + "/",
		accountSID: "accountSID",
		authToken:  "authToken",
		smsSender:  "+15555555555",
	}))

	if err := c.SMS(context.Background(), "+17777777777", "Your code is 123456"); err != nil {
		t.Fatal("failed to send SMS:", err)
	}

	if username != "accountSID" || password != "authToken" {
		t.Errorf("incorrect credentials %s:%s", username, password)
	}
	if form["To"] != "+17777777777" || form["From"] != "+15555555555" || form["Body"] != "Your code is 123456" {
		t.Errorf("incorrect form %v", form)
	}
}
