package sendgrid

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type senderMock struct {
	resp  *rest.Response
	err   error
	sent  *mail.SGMailV3
	calls int
}

func (m *senderMock) SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	m.calls++
	m.sent = email
	return m.resp, m.err
}

func TestSendgrid_Email(t *testing.T) {
	tt := []struct {
		name     string
		resp     *rest.Response
		err      error
		hasError bool
	}{
		{
			name:     "Accepted",
			resp:     &rest.Response{StatusCode: http.StatusAccepted},
			hasError: false,
		},
		{
			name:     "Rejected",
			resp:     &rest.Response{StatusCode: http.StatusUnauthorized, Body: "bad key"},
			hasError: true,
		},
		{
			name:     "Client failure",
			err:      errors.New("connection reset"),
			hasError: true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			client := &senderMock{resp: tc.resp, err: tc.err}
			svc := &service{
				client:   client,
				fromAddr: "noreply@walletauth.test",
				fromName: "Wallet",
			}

			err := svc.Email(context.Background(), "jane@example.com", "Your verification code", "Your code is 123456")
			if (err != nil) != tc.hasError {
				t.Errorf("incorrect error result, want error %v got %v", tc.hasError, err)
			}
			if client.calls != 1 {
				t.Fatalf("incorrect call count, want 1 got %v", client.calls)
			}
			if client.sent.Subject != "Your verification code" {
				t.Errorf("incorrect subject %s", client.sent.Subject)
			}
			if client.sent.From.Address != "noreply@walletauth.test" {
				t.Errorf("incorrect sender %s", client.sent.From.Address)
			}
		})
	}
}
