// Package memstore is an in-memory implementation of auth.RepositoryManager.
// It backs development mode and flow tests. Transactions serialize
// with each other, and writes made by a failed WithAtomic operation
// are undone.
package memstore

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/go-kit/kit/log"

	auth "github.com/fmitra/walletauth"
	"github.com/fmitra/walletauth/internal/entropy"
)

// data is shared between a Client and its transactional copies.
type data struct {
	mu   sync.Mutex
	txMu sync.Mutex

	accounts   map[string]auth.Account
	emails     map[string]string
	devices    map[string]auth.TrustedDevice
	challenges []auth.Challenge
	logins     map[string]auth.LoginHistory
}

// Client manages in-memory repositories.
type Client struct {
	data    *data
	inTx    bool
	undo    *[]func()
	entropy io.Reader
	logger  log.Logger

	accountRepository      *AccountRepository
	deviceRepository       *TrustedDeviceRepository
	challengeRepository    *ChallengeRepository
	loginHistoryRepository *LoginHistoryRepository
}

// NewClient returns a new, empty in-memory Client.
func NewClient(options ...ConfigOption) *Client {
	c := Client{
		data: &data{
			accounts: map[string]auth.Account{},
			emails:   map[string]string{},
			devices:  map[string]auth.TrustedDevice{},
			logins:   map[string]auth.LoginHistory{},
		},
		entropy: entropy.New(),
		logger:  log.NewNopLogger(),
	}

	for _, opt := range options {
		opt(&c)
	}

	c.attachRepositories()

	return &c
}

// ConfigOption configures the Client.
type ConfigOption func(*Client)

// WithLogger configures the client with a Logger.
func WithLogger(l log.Logger) ConfigOption {
	return func(c *Client) {
		c.logger = l
	}
}

// WithEntropy configures the client with entropy for generating ULIDs.
func WithEntropy(e io.Reader) ConfigOption {
	return func(c *Client) {
		c.entropy = e
	}
}

func (c *Client) attachRepositories() {
	c.accountRepository = &AccountRepository{client: c}
	c.deviceRepository = &TrustedDeviceRepository{client: c}
	c.challengeRepository = &ChallengeRepository{client: c}
	c.loginHistoryRepository = &LoginHistoryRepository{client: c}
}

// NewWithTransaction returns a Client whose WithAtomic calls are
// serialized against every other transaction.
func (c *Client) NewWithTransaction(ctx context.Context) (auth.RepositoryManager, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	newClient := *c
	newClient.inTx = true
	newClient.attachRepositories()
	return &newClient, nil
}

// WithAtomic performs an operation while holding the transaction lock.
func (c *Client) WithAtomic(operation func() (interface{}, error)) (interface{}, error) {
	if !c.inTx {
		return nil, fmt.Errorf("cannot complete operation outside of transaction")
	}

	c.data.txMu.Lock()
	defer c.data.txMu.Unlock()

	undo := []func(){}
	c.undo = &undo
	defer func() { c.undo = nil }()

	entity, err := operation()
	if err != nil {
		c.rollback(undo)
		return nil, err
	}

	return entity, nil
}

// rollback reverts journaled writes, newest first.
func (c *Client) rollback(undo []func()) {
	defer c.lock()()

	for i := len(undo) - 1; i >= 0; i-- {
		undo[i]()
	}
}

// journal records how to revert a write when called inside WithAtomic.
// It must be called with data.mu held, before the write.
func (c *Client) journal(f func()) {
	if c.undo != nil {
		*c.undo = append(*c.undo, f)
	}
}

func (d *data) revertAccount(id string) func() {
	prev, existed := d.accounts[id]
	return func() {
		if cur, ok := d.accounts[id]; ok {
			delete(d.emails, cur.Email)
		}
		if !existed {
			delete(d.accounts, id)
			return
		}
		d.accounts[id] = prev
		d.emails[prev.Email] = id
	}
}

func (d *data) revertDevice(key string) func() {
	prev, existed := d.devices[key]
	return func() {
		if !existed {
			delete(d.devices, key)
			return
		}
		d.devices[key] = prev
	}
}

func (d *data) revertLogin(tokenID string) func() {
	prev, existed := d.logins[tokenID]
	return func() {
		if !existed {
			delete(d.logins, tokenID)
			return
		}
		d.logins[tokenID] = prev
	}
}

// revertChallenge restores a Challenge by ID, or removes it if prev is
// nil. Challenges created concurrently outside the transaction are kept.
func (d *data) revertChallenge(id string, prev *auth.Challenge) func() {
	return func() {
		for i := range d.challenges {
			if d.challenges[i].ID != id {
				continue
			}
			if prev == nil {
				d.challenges = append(d.challenges[:i], d.challenges[i+1:]...)
				return
			}
			d.challenges[i] = *prev
			return
		}
	}
}

// Account returns an AccountRepository.
func (c *Client) Account() auth.AccountRepository {
	return c.accountRepository
}

// TrustedDevice returns a TrustedDeviceRepository.
func (c *Client) TrustedDevice() auth.TrustedDeviceRepository {
	return c.deviceRepository
}

// Challenge returns a ChallengeRepository.
func (c *Client) Challenge() auth.ChallengeRepository {
	return c.challengeRepository
}

// LoginHistory returns a LoginHistoryRepository.
func (c *Client) LoginHistory() auth.LoginHistoryRepository {
	return c.loginHistoryRepository
}

func (c *Client) lock() func() {
	c.data.mu.Lock()
	return c.data.mu.Unlock
}
