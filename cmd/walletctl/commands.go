package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"

	auth "github.com/fmitra/walletauth"
	"github.com/fmitra/walletauth/internal/apiclient"
	"github.com/fmitra/walletauth/internal/monitor"
)

const shellHelp = `Commands:
  profile                 show the logged in account
  sessions [limit]        list recent sessions
  devices                 list remembered devices
  forget <device-id>      stop remembering a device
  tfa off                 disable two factor authentication
  tfa email               send login codes by email
  tfa sms <phone>         send login codes by SMS
  logout                  end the session and exit
  help                    show this message
  exit                    leave the shell, keeping the session
`

type cli struct {
	client  *apiclient.Client
	prompt  *prompter
	monitor *monitor.Monitor
	out     io.Writer
	logger  log.Logger
}

// userMessage returns a printable description of err.
func userMessage(err error) string {
	if domainErr := auth.DomainError(err); domainErr != nil {
		return domainErr.Message()
	}
	return err.Error()
}

func (c *cli) printSummary(a *auth.AccountSummary) {
	tfa := "disabled"
	if a.IsTFAEnabled {
		tfa = "enabled (" + string(a.TFAChannel) + ")"
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Email:\t%s\n", a.Email)
	fmt.Fprintf(w, "Account:\t%s\n", a.ID)
	fmt.Fprintf(w, "Two factor:\t%s\n", tfa)
	fmt.Fprintf(w, "Member since:\t%s\n", a.CreatedAt.Local().Format(time.RFC1123))
	w.Flush()
}

func (c *cli) login(ctx context.Context) error {
	email, err := c.prompt.Ask("Email: ")
	if err != nil {
		return err
	}
	password, err := c.prompt.Secret("Password: ")
	if err != nil {
		return err
	}

	result, err := c.client.Login(ctx, email, password)
	if err != nil {
		return err
	}

	if result.RequiresOTP {
		fmt.Fprintln(c.out, "A login code was sent to you.")
		if result.Account, err = c.verifyCode(ctx); err != nil {
			return err
		}
	}

	fmt.Fprintf(c.out, "Logged in as %s\n", result.Account.Email)
	return nil
}

// verifyCode prompts until a code is accepted, the pending login
// expires or the user gives up.
func (c *cli) verifyCode(ctx context.Context) (*auth.AccountSummary, error) {
	remember, err := c.prompt.Confirm("Remember this device?")
	if err != nil {
		return nil, err
	}

	for {
		code, err := c.prompt.Ask("Code (or \"resend\"): ")
		if err != nil {
			_ = c.client.AbandonLogin(ctx)
			return nil, err
		}

		if code == "resend" {
			if err = c.client.ResendCode(ctx); err != nil {
				if auth.ErrorCode(err) == auth.EInvalidToken {
					return nil, errors.Wrap(err, "login expired")
				}
				fmt.Fprintln(c.out, userMessage(err))
				continue
			}
			fmt.Fprintln(c.out, "A new code was sent.")
			continue
		}

		account, err := c.client.VerifyCode(ctx, code, remember)
		switch auth.ErrorCode(err) {
		case "":
			return account, nil
		case auth.EInvalidCode, auth.EExpiredCode, auth.EInvalidField, auth.EThrottle:
			fmt.Fprintln(c.out, userMessage(err))
		default:
			return nil, err
		}
	}
}

func (c *cli) signUp(ctx context.Context) error {
	email, err := c.prompt.Ask("Email: ")
	if err != nil {
		return err
	}
	if err = c.client.SignUp(ctx, email); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "A registration code was sent to you.")

	req := &apiclient.SignUpRequest{Email: email}
	if req.Code, err = c.prompt.Ask("Code: "); err != nil {
		return err
	}
	if req.Password, err = c.choosePassword(); err != nil {
		return err
	}
	if req.EnableTFA, err = c.prompt.Confirm("Require a login code on new devices?"); err != nil {
		return err
	}
	if req.EnableTFA {
		if req.TFAChannel, req.Phone, err = c.chooseChannel(); err != nil {
			return err
		}
	}

	account, err := c.client.VerifySignUp(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Welcome, %s\n", account.Email)
	return nil
}

func (c *cli) choosePassword() (string, error) {
	for {
		password, err := c.prompt.Secret("Password: ")
		if err != nil {
			return "", err
		}
		confirm, err := c.prompt.Secret("Confirm password: ")
		if err != nil {
			return "", err
		}
		if password == confirm {
			return password, nil
		}
		fmt.Fprintln(c.out, "Passwords do not match.")
	}
}

func (c *cli) chooseChannel() (auth.DeliveryMethod, string, error) {
	channel, err := c.prompt.Ask("Deliver codes by email or sms? [email] ")
	if err != nil {
		return "", "", err
	}
	if !strings.EqualFold(channel, string(auth.SMS)) {
		return auth.Email, "", nil
	}

	phone, err := c.prompt.Ask("Phone (+15555550100): ")
	if err != nil {
		return "", "", err
	}
	return auth.SMS, phone, nil
}

func (c *cli) profile(ctx context.Context) error {
	account, err := c.client.Profile(ctx)
	if err != nil {
		return err
	}
	c.printSummary(account)
	return nil
}

func (c *cli) sessions(ctx context.Context, limit int) error {
	sessions, err := c.client.Sessions(ctx, limit, 0)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tEXPIRES\tSTATUS")
	for _, s := range sessions {
		status := "active"
		switch {
		case s.IsRevoked:
			status = "revoked"
		case s.ExpiresAt.Before(time.Now()):
			status = "expired"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n",
			s.CreatedAt.Local().Format(time.RFC822),
			s.ExpiresAt.Local().Format(time.RFC822),
			status,
		)
	}
	return w.Flush()
}

func (c *cli) devices(ctx context.Context) error {
	devices, err := c.client.Devices(ctx)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Fprintln(c.out, "No remembered devices.")
		return nil
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tREMEMBERED\tUNTIL")
	for _, d := range devices {
		fmt.Fprintf(w, "%s\t%s\t%s\n",
			d.ID,
			d.CreatedAt.Local().Format(time.RFC822),
			d.ExpiresAt.Local().Format(time.RFC822),
		)
	}
	return w.Flush()
}

func (c *cli) updateTFA(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return auth.ErrBadRequest("usage: tfa off|email|sms <phone>")
	}

	var (
		enabled = true
		channel auth.DeliveryMethod
		phone   string
	)
	switch strings.ToLower(args[0]) {
	case "off":
		enabled = false
	case string(auth.Email):
		channel = auth.Email
	case string(auth.SMS):
		if len(args) < 2 {
			return auth.ErrBadRequest("a phone number is required for sms")
		}
		channel, phone = auth.SMS, args[1]
	default:
		return auth.ErrBadRequest("usage: tfa off|email|sms <phone>")
	}

	account, err := c.client.UpdateTFA(ctx, enabled, channel, phone)
	if err != nil {
		return err
	}
	c.printSummary(account)
	return nil
}

func (c *cli) logout(ctx context.Context) error {
	if err := c.client.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Logged out.")
	return nil
}

// ensureLogin runs the login flow until a session exists.
func (c *cli) ensureLogin(ctx context.Context) error {
	for !c.client.IsAuthenticated(ctx) {
		err := c.login(ctx)
		if err == errAborted {
			return err
		}
		if err != nil {
			fmt.Fprintln(c.out, userMessage(err))
		}
	}
	return nil
}

// shell runs an interactive session. Entered lines count as activity;
// once the session expires the next line returns to the login prompt.
func (c *cli) shell(ctx context.Context) error {
	if err := c.ensureLogin(ctx); err != nil {
		return err
	}

	expired := make(chan struct{}, 1)
	onExpire := func() {
		select {
		case expired <- struct{}{}:
		default:
		}
	}
	c.monitor.Start(onExpire)
	defer c.monitor.Stop()

	fmt.Fprint(c.out, shellHelp)
	for {
		input, err := c.prompt.Command("wallet> ")
		if err == errAborted {
			return nil
		}
		if err != nil {
			return err
		}

		if !c.monitor.Activity(monitor.LineInput) {
			select {
			case <-expired:
			default:
			}
			level.Debug(c.logger).Log("message", "input after session expiry", "source", "walletctl.shell")
			fmt.Fprintln(c.out, "Session expired after inactivity. Please log in again.")
			if err = c.ensureLogin(ctx); err != nil {
				return err
			}
			c.monitor.Start(onExpire)
			continue
		}

		fields := strings.Fields(input)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "help":
			fmt.Fprint(c.out, shellHelp)
		case "exit", "quit":
			return nil
		case "profile":
			err = c.profile(ctx)
		case "sessions":
			limit := 10
			if len(fields) > 1 {
				if limit, err = strconv.Atoi(fields[1]); err != nil {
					err = auth.ErrBadRequest("limit should be a number")
				}
			}
			if err == nil {
				err = c.sessions(ctx, limit)
			}
		case "devices":
			err = c.devices(ctx)
		case "forget":
			if len(fields) < 2 {
				err = auth.ErrBadRequest("usage: forget <device-id>")
			} else {
				err = c.client.RemoveDevice(ctx, fields[1])
			}
			if err == nil {
				fmt.Fprintln(c.out, "Device forgotten.")
			}
		case "tfa":
			err = c.updateTFA(ctx, fields[1:])
		case "logout":
			return c.logout(ctx)
		default:
			err = auth.ErrBadRequest(fmt.Sprintf("unknown command %q", fields[0]))
		}

		if err == nil {
			continue
		}
		fmt.Fprintln(c.out, userMessage(err))
		if auth.ErrorCode(err) == auth.EInvalidToken {
			c.monitor.Stop()
			if err = c.ensureLogin(ctx); err != nil {
				return err
			}
			c.monitor.Start(onExpire)
		}
	}
}
