// Package password hashes and validates Account passwords with bcrypt.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	auth "github.com/fmitra/walletauth"
)

const placeholderPassword = "walletauth-placeholder"

// Password is a credential validator for password authentication.
type Password struct {
	// cost is the bcrypt hash repetition. Higher cost results
	// in slower computations.
	cost int
	// minLength is the minimum length of a password.
	minLength int
	// maxLength bounds the work a single login attempt can cause.
	maxLength int
	// placeholder is compared against when no Account exists.
	placeholder []byte
}

// Hash hashes a password for storage.
func (p *Password) Hash(password string) ([]byte, error) {
	// bcrypt will manage its own salt
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return []byte(""), err
	}

	return hash, nil
}

// Validate validates if a submitted password is valid for an
// Account's stored password hash. A nil Account is compared
// against a placeholder hash and always fails.
func (p *Password) Validate(account *auth.Account, password string) error {
	if account == nil {
		_ = bcrypt.CompareHashAndPassword(p.placeholder, []byte(password))
		return auth.ErrBadRequest("invalid email or password")
	}

	err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(password))
	if err != nil {
		return fmt.Errorf("%v: %w", err, auth.ErrBadRequest("invalid email or password"))
	}

	return nil
}

// OKForAccount tells us if a password meets minimum requirements to
// be set for an Account.
func (p *Password) OKForAccount(password string) error {
	if len(password) < p.minLength {
		return auth.ErrInvalidField(
			fmt.Sprintf("password must be at least %d characters long", p.minLength),
		)
	}

	if len(password) > p.maxLength {
		return auth.ErrInvalidField(
			fmt.Sprintf("password cannot be longer than %d characters", p.maxLength),
		)
	}

	return nil
}
