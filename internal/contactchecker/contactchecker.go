// Package contactchecker offers utility functions for validating
// addresses.
package contactchecker

import (
	"net/mail"
	"strings"

	"github.com/nyaruka/phonenumbers"

	auth "github.com/fmitra/walletauth"
)

// IsPhoneValid checks if a phone string is a valid format.
func IsPhoneValid(phone string) bool {
	// We expect phone numbers to be supplied with valid country
	// codes. Due to this, we leave country ISO values blank.
	countryISO := ""
	meta, err := phonenumbers.Parse(phone, countryISO)
	if err != nil {
		return false
	}

	return phonenumbers.IsValidNumber(meta)
}

// IsEmailValid checks if an email string is a bare address.
func IsEmailValid(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Address == email
}

// Validator returns an email or phone validator.
func Validator(method auth.DeliveryMethod) func(s string) bool {
	switch method {
	case auth.Email:
		return IsEmailValid
	case auth.SMS:
		return IsPhoneValid
	default:
		return func(s string) bool {
			return false
		}
	}
}

// NormalizeEmail returns an email in the form it is stored and compared.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CheckAccount normalizes an Account's contact fields and ensures
// challenge codes can be delivered over its two factor channel.
func CheckAccount(account *auth.Account) error {
	account.Email = NormalizeEmail(account.Email)
	account.Phone.String = strings.TrimSpace(account.Phone.String)
	account.Phone.Valid = account.Phone.String != ""

	if account.TFAChannel == "" {
		account.TFAChannel = auth.Email
	}

	if !IsEmailValid(account.Email) {
		return auth.ErrInvalidField("email address is invalid")
	}

	if account.Phone.Valid && !IsPhoneValid(account.Phone.String) {
		return auth.ErrInvalidField("phone number is invalid")
	}

	switch account.TFAChannel {
	case auth.Email:
	case auth.SMS:
		if !account.Phone.Valid {
			return auth.ErrInvalidField("a phone number is required for SMS codes")
		}
	default:
		return auth.ErrInvalidField("two factor channel must be email or sms")
	}

	return nil
}
