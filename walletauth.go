// Package walletauth holds the domain entities and service contracts for
// wallet account authentication: password login, one-time challenges,
// trusted devices and bearer tokens.
package walletauth

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// DeliveryMethod is the channel used to deliver a challenge code.
type DeliveryMethod string

const (
	// Email delivers codes to an Account's email address.
	Email DeliveryMethod = "email"
	// SMS delivers codes to an Account's phone number.
	SMS DeliveryMethod = "sms"
)

// TokenState represents the scope of a JWT token.
type TokenState string

const (
	// JWTPreAuthorized identifies a pending login. It is only accepted
	// by the challenge verification endpoints.
	JWTPreAuthorized TokenState = "pre_authorized"
	// JWTAuthorized is a session token accepted by resource endpoints.
	JWTAuthorized TokenState = "authorized"
)

// ChallengePurpose is the flow a Challenge was issued for.
type ChallengePurpose string

const (
	// ChallengeRegistration proves ownership of an email before an
	// Account is created.
	ChallengeRegistration ChallengePurpose = "registration"
	// ChallengeLogin is the second factor of a login attempt.
	ChallengeLogin ChallengePurpose = "login"
)

// Account is a registered wallet user.
type Account struct {
	ID    string
	Email string
	// Phone is only required when TFAChannel is SMS.
	Phone        sql.NullString
	Password     string
	IsTFAEnabled bool
	TFAChannel   DeliveryMethod
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TFAAddress returns the address challenge codes are delivered to.
func (a *Account) TFAAddress() string {
	if a.TFAChannel == SMS {
		return a.Phone.String
	}
	return a.Email
}

// Summary returns the client facing view of an Account.
func (a *Account) Summary() *AccountSummary {
	channel := a.TFAChannel
	if channel == "" {
		channel = Email
	}

	return &AccountSummary{
		ID:           a.ID,
		Email:        a.Email,
		IsTFAEnabled: a.IsTFAEnabled,
		TFAChannel:   channel,
		CreatedAt:    a.CreatedAt,
	}
}

// AccountSummary is the only representation of an Account returned to clients.
type AccountSummary struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	IsTFAEnabled bool           `json:"isTFAEnabled"`
	TFAChannel   DeliveryMethod `json:"tfaChannel"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// TrustedDevice is a client device allowed to skip the login challenge
// until ExpiresAt. The raw device identifier is never stored.
type TrustedDevice struct {
	AccountID  string
	DeviceHash string
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// IsActive reports whether the device still grants a challenge bypass.
func (d *TrustedDevice) IsActive(now time.Time) bool {
	return now.Before(d.ExpiresAt)
}

// Challenge is a single use numeric code issued for login or registration.
type Challenge struct {
	ID         string
	Email      string
	Purpose    ChallengePurpose
	CodeHash   string
	IsConsumed bool
	ExpiresAt  time.Time
	ConsumedAt sql.NullTime
	CreatedAt  time.Time
}

// Token is a JWT token issued to an Account.
type Token struct {
	jwt.StandardClaims
	AccountID string     `json:"account_id"`
	Email     string     `json:"email"`
	State     TokenState `json:"state"`
}

// LoginHistory records a session token issued to an Account.
type LoginHistory struct {
	TokenID   string         `json:"tokenID"`
	AccountID string         `json:"accountID"`
	IsRevoked bool           `json:"isRevoked"`
	IPAddress sql.NullString `json:"-"`
	ExpiresAt time.Time      `json:"expiresAt"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Message is an outgoing challenge code.
type Message struct {
	Delivery         DeliveryMethod `json:"delivery"`
	Address          string         `json:"address"`
	Subject          string         `json:"subject"`
	Content          string         `json:"content"`
	ExpiresAt        time.Time      `json:"expiresAt"`
	DeliveryAttempts int            `json:"deliveryAttempts"`
}

// AccountRepository manages Account persistence.
type AccountRepository interface {
	// ByIdentity retrieves an Account by "ID" or "Email".
	ByIdentity(ctx context.Context, attribute, value string) (*Account, error)
	// GetForUpdate retrieves an Account and locks it for the
	// duration of a transaction.
	GetForUpdate(ctx context.Context, accountID string) (*Account, error)
	Create(ctx context.Context, account *Account) error
	Update(ctx context.Context, account *Account) error
}

// TrustedDeviceRepository manages TrustedDevice persistence.
type TrustedDeviceRepository interface {
	ByDevice(ctx context.Context, accountID, deviceHash string) (*TrustedDevice, error)
	ByAccountID(ctx context.Context, accountID string) ([]*TrustedDevice, error)
	// Upsert creates a TrustedDevice, or refreshes it only if the
	// stored record has already expired.
	Upsert(ctx context.Context, device *TrustedDevice) error
	// Expire ends a device's trust at the given time.
	Expire(ctx context.Context, accountID, deviceHash string, at time.Time) error
}

// ChallengeRepository manages Challenge persistence.
type ChallengeRepository interface {
	Create(ctx context.Context, challenge *Challenge) error
	// Recent returns the most recent unconsumed Challenge matching
	// an exact email, purpose and code hash.
	Recent(ctx context.Context, email string, purpose ChallengePurpose, codeHash string) (*Challenge, error)
	// Consume flips a Challenge to consumed if it is unconsumed and
	// unexpired at the given time. Only one caller may succeed.
	Consume(ctx context.Context, challengeID string, at time.Time) error
}

// LoginHistoryRepository manages LoginHistory persistence.
type LoginHistoryRepository interface {
	ByAccountID(ctx context.Context, accountID string, limit, offset int) ([]*LoginHistory, error)
	ByTokenID(ctx context.Context, tokenID string) (*LoginHistory, error)
	Create(ctx context.Context, login *LoginHistory) error
	GetForUpdate(ctx context.Context, tokenID string) (*LoginHistory, error)
	Update(ctx context.Context, login *LoginHistory) error
}

// RepositoryManager manages repositories sharing a connection and,
// optionally, a transaction.
type RepositoryManager interface {
	NewWithTransaction(ctx context.Context) (RepositoryManager, error)
	WithAtomic(operation func() (interface{}, error)) (interface{}, error)
	Account() AccountRepository
	TrustedDevice() TrustedDeviceRepository
	Challenge() ChallengeRepository
	LoginHistory() LoginHistoryRepository
}

// PasswordService manages password hashing and validation.
type PasswordService interface {
	Hash(password string) ([]byte, error)
	// Validate checks a password against an Account's stored hash. A nil
	// Account always fails, after the same amount of hashing work.
	Validate(account *Account, password string) error
	OKForAccount(password string) error
}

// ChallengeService issues and verifies single use challenge codes.
type ChallengeService interface {
	Issue(ctx context.Context, email string, purpose ChallengePurpose) (string, *Challenge, error)
	Verify(ctx context.Context, email, code string, purpose ChallengePurpose) error
}

// TrustService manages devices allowed to bypass login challenges.
type TrustService interface {
	Register(ctx context.Context, accountID, deviceID string) error
	IsTrusted(ctx context.Context, accountID, deviceID string) (bool, error)
	List(ctx context.Context, accountID string) ([]*TrustedDevice, error)
	Revoke(ctx context.Context, accountID, deviceHash string) error
}

// TokenService manages JWT tokens.
type TokenService interface {
	IssuePreAuth(ctx context.Context, account *Account) (*Token, error)
	IssueSession(ctx context.Context, account *Account) (*Token, error)
	Sign(ctx context.Context, token *Token) (string, error)
	// Validate returns ErrInvalidToken for any token that is
	// tampered, expired or revoked.
	Validate(ctx context.Context, signedToken string) (*Token, error)
	Revoke(ctx context.Context, token *Token) error
}

// MessagingService delivers challenge codes.
type MessagingService interface {
	Send(ctx context.Context, content, address string, method DeliveryMethod) error
}

// MessageRepository is a queue of outgoing Messages.
type MessageRepository interface {
	Publish(ctx context.Context, msg *Message) error
	Recent(ctx context.Context) (<-chan *Message, <-chan error)
}

// SMSer sends SMS messages.
type SMSer interface {
	SMS(ctx context.Context, phoneNumber, message string) error
}

// Emailer sends email messages.
type Emailer interface {
	Email(ctx context.Context, email, subject, message string) error
}

// LoginAPI provides HTTP handlers for the login flow.
type LoginAPI interface {
	Login(w http.ResponseWriter, r *http.Request) (interface{}, error)
	VerifyCode(w http.ResponseWriter, r *http.Request) (interface{}, error)
	ResendCode(w http.ResponseWriter, r *http.Request) (interface{}, error)
}

// SignUpAPI provides HTTP handlers for Account registration.
type SignUpAPI interface {
	SignUp(w http.ResponseWriter, r *http.Request) (interface{}, error)
	Verify(w http.ResponseWriter, r *http.Request) (interface{}, error)
}

// ProfileAPI provides HTTP handlers for the authenticated Account.
type ProfileAPI interface {
	Get(w http.ResponseWriter, r *http.Request) (interface{}, error)
	UpdateTFA(w http.ResponseWriter, r *http.Request) (interface{}, error)
	Sessions(w http.ResponseWriter, r *http.Request) (interface{}, error)
}

// DeviceAPI provides HTTP handlers for trusted device management.
type DeviceAPI interface {
	List(w http.ResponseWriter, r *http.Request) (interface{}, error)
	Remove(w http.ResponseWriter, r *http.Request) (interface{}, error)
}

// TokenAPI provides HTTP handlers for session tokens.
type TokenAPI interface {
	Verify(w http.ResponseWriter, r *http.Request) (interface{}, error)
	Revoke(w http.ResponseWriter, r *http.Request) (interface{}, error)
}
