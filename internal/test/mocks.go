package test

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	auth "github.com/fmitra/walletauth"
)

// TokenService mocks auth.TokenService interface.
type TokenService struct {
	IssuePreAuthFn func() (*auth.Token, error)
	IssueSessionFn func() (*auth.Token, error)
	SignFn         func() (string, error)
	ValidateFn     func() (*auth.Token, error)
	RevokeFn       func() error
	Calls          struct {
		IssuePreAuth int
		IssueSession int
		Sign         int
		Validate     int
		Revoke       int
	}
}

// ChallengeService mocks auth.ChallengeService interface.
type ChallengeService struct {
	IssueFn  func() (string, *auth.Challenge, error)
	VerifyFn func(code string) error
	Calls    struct {
		Issue  int
		Verify int
	}
}

// TrustService mocks auth.TrustService interface.
type TrustService struct {
	RegisterFn  func() error
	IsTrustedFn func() (bool, error)
	ListFn      func() ([]*auth.TrustedDevice, error)
	RevokeFn    func() error
	Calls       struct {
		Register  int
		IsTrusted int
		List      int
		Revoke    int
	}
}

// MessagingService mocks auth.MessagingService interface.
type MessagingService struct {
	SendFn func() error
	Calls  struct {
		Send int
	}
	mu       sync.Mutex
	messages []*auth.Message
}

// MessageRepository mocks auth.MessageRepository interface.
type MessageRepository struct {
	PublishFn func(ctx context.Context, msg *auth.Message) error
	RecentFn  func(ctx context.Context) (<-chan *auth.Message, <-chan error)
	Calls     struct {
		Publish int
		Recent  int
	}
	mu sync.Mutex
}

// SMSer mocks auth.SMSer interface.
type SMSer struct {
	SMSFn func(phoneNumber, message string) error
	Calls struct {
		SMS int
	}
	mu sync.Mutex
}

// Emailer mocks auth.Emailer interface.
type Emailer struct {
	EmailFn func(email, subject, message string) error
	Calls   struct {
		Email int
	}
	mu sync.Mutex
}

// RepositoryManager mocks auth.RepositoryManager interface.
type RepositoryManager struct {
	NewWithTransactionFn func() (auth.RepositoryManager, error)
	WithAtomicFn         func() (interface{}, error)
	AccountFn            func() auth.AccountRepository
	TrustedDeviceFn      func() auth.TrustedDeviceRepository
	ChallengeFn          func() auth.ChallengeRepository
	LoginHistoryFn       func() auth.LoginHistoryRepository
	Calls                struct {
		NewWithTransaction int
		WithAtomic         int
		Account            int
		TrustedDevice      int
		Challenge          int
		LoginHistory       int
	}
}

// AccountRepository mocks auth.AccountRepository.
type AccountRepository struct {
	ByIdentityFn   func() (*auth.Account, error)
	GetForUpdateFn func() (*auth.Account, error)
	CreateFn       func() error
	UpdateFn       func() error
	Calls          struct {
		ByIdentity   int
		GetForUpdate int
		Create       int
		Update       int
	}
}

// LoginHistoryRepository mocks auth.LoginHistoryRepository.
type LoginHistoryRepository struct {
	ByAccountIDFn  func() ([]*auth.LoginHistory, error)
	ByTokenIDFn    func() (*auth.LoginHistory, error)
	CreateFn       func() error
	GetForUpdateFn func() (*auth.LoginHistory, error)
	UpdateFn       func() error
	Calls          struct {
		ByAccountID  int
		ByTokenID    int
		Create       int
		GetForUpdate int
		Update       int
	}
}

// IssuePreAuth mock.
func (m *TokenService) IssuePreAuth(ctx context.Context, account *auth.Account) (*auth.Token, error) {
	m.Calls.IssuePreAuth++
	if m.IssuePreAuthFn != nil {
		return m.IssuePreAuthFn()
	}
	return nil, errors.New("failed to create token")
}

// IssueSession mock.
func (m *TokenService) IssueSession(ctx context.Context, account *auth.Account) (*auth.Token, error) {
	m.Calls.IssueSession++
	if m.IssueSessionFn != nil {
		return m.IssueSessionFn()
	}
	return nil, errors.New("failed to create token")
}

// Sign mock.
func (m *TokenService) Sign(ctx context.Context, token *auth.Token) (string, error) {
	m.Calls.Sign++
	if m.SignFn != nil {
		return m.SignFn()
	}
	return "", errors.New("failed to sign token")
}

// Validate mock.
func (m *TokenService) Validate(ctx context.Context, signedToken string) (*auth.Token, error) {
	m.Calls.Validate++
	if m.ValidateFn != nil {
		return m.ValidateFn()
	}
	return nil, auth.ErrInvalidToken("token is invalid")
}

// Revoke mock.
func (m *TokenService) Revoke(ctx context.Context, token *auth.Token) error {
	m.Calls.Revoke++
	if m.RevokeFn != nil {
		return m.RevokeFn()
	}
	return errors.New("token revocation failed")
}

// Issue mock.
func (m *ChallengeService) Issue(ctx context.Context, email string, purpose auth.ChallengePurpose) (string, *auth.Challenge, error) {
	m.Calls.Issue++
	if m.IssueFn != nil {
		return m.IssueFn()
	}
	return "123456", &auth.Challenge{
		Email:     email,
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(time.Minute * 10),
	}, nil
}

// Verify mock.
func (m *ChallengeService) Verify(ctx context.Context, email, code string, purpose auth.ChallengePurpose) error {
	m.Calls.Verify++
	if m.VerifyFn != nil {
		return m.VerifyFn(code)
	}
	return nil
}

// Register mock.
func (m *TrustService) Register(ctx context.Context, accountID, deviceID string) error {
	m.Calls.Register++
	if m.RegisterFn != nil {
		return m.RegisterFn()
	}
	return nil
}

// IsTrusted mock.
func (m *TrustService) IsTrusted(ctx context.Context, accountID, deviceID string) (bool, error) {
	m.Calls.IsTrusted++
	if m.IsTrustedFn != nil {
		return m.IsTrustedFn()
	}
	return false, nil
}

// List mock.
func (m *TrustService) List(ctx context.Context, accountID string) ([]*auth.TrustedDevice, error) {
	m.Calls.List++
	if m.ListFn != nil {
		return m.ListFn()
	}
	return []*auth.TrustedDevice{}, nil
}

// Revoke mock.
func (m *TrustService) Revoke(ctx context.Context, accountID, deviceHash string) error {
	m.Calls.Revoke++
	if m.RevokeFn != nil {
		return m.RevokeFn()
	}
	return nil
}

// Send mock. Successfully sent messages are recorded.
func (m *MessagingService) Send(ctx context.Context, content, address string, method auth.DeliveryMethod) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls.Send++
	if m.SendFn != nil {
		if err := m.SendFn(); err != nil {
			return err
		}
	}

	m.messages = append(m.messages, &auth.Message{
		Delivery: method,
		Address:  address,
		Content:  content,
	})
	return nil
}

// LastMessage returns the most recently sent message.
func (m *MessagingService) LastMessage() *auth.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.messages) == 0 {
		return nil
	}
	return m.messages[len(m.messages)-1]
}

// Publish mock.
func (m *MessageRepository) Publish(ctx context.Context, msg *auth.Message) error {
	m.mu.Lock()
	m.Calls.Publish++
	m.mu.Unlock()
	if m.PublishFn != nil {
		return m.PublishFn(ctx, msg)
	}
	return nil
}

// PublishCalls returns the number of Publish calls.
func (m *MessageRepository) PublishCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls.Publish
}

// Recent mock.
func (m *MessageRepository) Recent(ctx context.Context) (<-chan *auth.Message, <-chan error) {
	m.Calls.Recent++
	if m.RecentFn != nil {
		return m.RecentFn(ctx)
	}
	return make(chan *auth.Message), make(chan error)
}

// SMS mock.
func (m *SMSer) SMS(ctx context.Context, phoneNumber, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls.SMS++
	if m.SMSFn != nil {
		return m.SMSFn(phoneNumber, message)
	}
	return nil
}

// SMSCalls returns the number of SMS calls.
func (m *SMSer) SMSCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls.SMS
}

// Email mock.
func (m *Emailer) Email(ctx context.Context, email, subject, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls.Email++
	if m.EmailFn != nil {
		return m.EmailFn(email, subject, message)
	}
	return nil
}

// EmailCalls returns the number of Email calls.
func (m *Emailer) EmailCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls.Email
}

// NewWithTransaction mock.
func (m *RepositoryManager) NewWithTransaction(ctx context.Context) (auth.RepositoryManager, error) {
	m.Calls.NewWithTransaction++
	if m.NewWithTransactionFn != nil {
		return m.NewWithTransactionFn()
	}

	return m, nil
}

// WithAtomic mock. Without WithAtomicFn the operation is run directly.
func (m *RepositoryManager) WithAtomic(operation func() (interface{}, error)) (interface{}, error) {
	m.Calls.WithAtomic++
	if m.WithAtomicFn != nil {
		return m.WithAtomicFn()
	}
	return operation()
}

// Account mock.
func (m *RepositoryManager) Account() auth.AccountRepository {
	m.Calls.Account++
	if m.AccountFn != nil {
		return m.AccountFn()
	}
	return &AccountRepository{}
}

// TrustedDevice mock.
func (m *RepositoryManager) TrustedDevice() auth.TrustedDeviceRepository {
	m.Calls.TrustedDevice++
	if m.TrustedDeviceFn != nil {
		return m.TrustedDeviceFn()
	}
	return nil
}

// Challenge mock.
func (m *RepositoryManager) Challenge() auth.ChallengeRepository {
	m.Calls.Challenge++
	if m.ChallengeFn != nil {
		return m.ChallengeFn()
	}
	return nil
}

// LoginHistory mock.
func (m *RepositoryManager) LoginHistory() auth.LoginHistoryRepository {
	m.Calls.LoginHistory++
	if m.LoginHistoryFn != nil {
		return m.LoginHistoryFn()
	}
	return &LoginHistoryRepository{}
}

// ByIdentity mock.
func (m *AccountRepository) ByIdentity(ctx context.Context, attribute, value string) (*auth.Account, error) {
	m.Calls.ByIdentity++
	if m.ByIdentityFn != nil {
		return m.ByIdentityFn()
	}
	return &auth.Account{}, nil
}

// GetForUpdate mock.
func (m *AccountRepository) GetForUpdate(ctx context.Context, accountID string) (*auth.Account, error) {
	m.Calls.GetForUpdate++
	if m.GetForUpdateFn != nil {
		return m.GetForUpdateFn()
	}
	return &auth.Account{}, nil
}

// Create mock.
func (m *AccountRepository) Create(ctx context.Context, account *auth.Account) error {
	m.Calls.Create++
	if m.CreateFn != nil {
		return m.CreateFn()
	}
	return nil
}

// Update mock.
func (m *AccountRepository) Update(ctx context.Context, account *auth.Account) error {
	m.Calls.Update++
	if m.UpdateFn != nil {
		return m.UpdateFn()
	}
	return nil
}

// ByAccountID mock.
func (m *LoginHistoryRepository) ByAccountID(ctx context.Context, accountID string, limit, offset int) ([]*auth.LoginHistory, error) {
	m.Calls.ByAccountID++
	if m.ByAccountIDFn != nil {
		return m.ByAccountIDFn()
	}
	return []*auth.LoginHistory{}, nil
}

// ByTokenID mock.
func (m *LoginHistoryRepository) ByTokenID(ctx context.Context, tokenID string) (*auth.LoginHistory, error) {
	m.Calls.ByTokenID++
	if m.ByTokenIDFn != nil {
		return m.ByTokenIDFn()
	}
	return &auth.LoginHistory{}, nil
}

// Create mock.
func (m *LoginHistoryRepository) Create(ctx context.Context, login *auth.LoginHistory) error {
	m.Calls.Create++
	if m.CreateFn != nil {
		return m.CreateFn()
	}
	return nil
}

// GetForUpdate mock.
func (m *LoginHistoryRepository) GetForUpdate(ctx context.Context, tokenID string) (*auth.LoginHistory, error) {
	m.Calls.GetForUpdate++
	if m.GetForUpdateFn != nil {
		return m.GetForUpdateFn()
	}
	return &auth.LoginHistory{}, nil
}

// Update mock.
func (m *LoginHistoryRepository) Update(ctx context.Context, login *auth.LoginHistory) error {
	m.Calls.Update++
	if m.UpdateFn != nil {
		return m.UpdateFn()
	}
	return nil
}
