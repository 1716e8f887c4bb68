// Package token issues and validates JWT tokens.
package token

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-kit/kit/log"
	redislib "github.com/go-redis/redis/v8"

	auth "github.com/fmitra/walletauth"
	"github.com/fmitra/walletauth/internal/entropy"
)

// Rediser is an interface to go-redis.
type Rediser interface {
	Get(ctx context.Context, key string) *redislib.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redislib.StatusCmd
}

// service is an implementation of auth.TokenService.
type service struct {
	logger        log.Logger
	preAuthExpiry time.Duration
	sessionExpiry time.Duration
	entropy       io.Reader
	secret        []byte
	issuer        string
	db            Rediser
	repoMngr      auth.RepositoryManager
	now           func() time.Time
}

// IssuePreAuth creates a token identifying a pending login. It is only
// accepted by the challenge verification endpoints.
func (s *service) IssuePreAuth(ctx context.Context, account *auth.Account) (*auth.Token, error) {
	return s.create(account, auth.JWTPreAuthorized, s.preAuthExpiry)
}

// IssueSession creates a session token granting API access.
func (s *service) IssueSession(ctx context.Context, account *auth.Account) (*auth.Token, error) {
	return s.create(account, auth.JWTAuthorized, s.sessionExpiry)
}

func (s *service) create(account *auth.Account, state auth.TokenState, expiry time.Duration) (*auth.Token, error) {
	if account == nil || account.ID == "" {
		return nil, auth.ErrBadRequest("token requires an account")
	}

	tokenID, err := entropy.ID(s.entropy)
	if err != nil {
		return nil, err
	}

	now := s.now()
	token := auth.Token{
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(expiry).Unix(),
			IssuedAt:  now.Unix(),
			Id:        tokenID,
			Issuer:    s.issuer,
		},
		AccountID: account.ID,
		Email:     account.Email,
		State:     state,
	}

	return &token, nil
}

// Sign creates a signed JWT token string from a token struct.
func (s *service) Sign(ctx context.Context, token *auth.Token) (string, error) {
	jwtUnsigned := jwt.NewWithClaims(jwt.SigningMethodHS512, token)
	jwtSigned, err := jwtUnsigned.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT token: %w", err)
	}

	return jwtSigned, nil
}

// Validate checks that a bearer token is signed by us, unexpired and
// unrevoked. Every rejection is reported as the same ErrInvalidToken.
func (s *service) Validate(ctx context.Context, signedToken string) (*auth.Token, error) {
	token, err := s.parse(signedToken)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, auth.ErrInvalidToken("token is invalid"))
	}

	isRevoked, err := s.isRevoked(ctx, token)
	if err != nil {
		return nil, err
	}
	if isRevoked {
		return nil, fmt.Errorf("token revoked: %w", auth.ErrInvalidToken("token is invalid"))
	}

	return token, nil
}

func (s *service) parse(signedToken string) (*auth.Token, error) {
	if !strings.HasPrefix(signedToken, "Bearer ") {
		return nil, errors.New("bearer token expected")
	}

	tokenParser := func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}

		return s.secret, nil
	}

	signedToken = strings.TrimPrefix(signedToken, "Bearer ")
	unpackedToken, err := jwt.Parse(signedToken, tokenParser)
	if err != nil {
		return nil, err
	}

	claims, ok := unpackedToken.Claims.(jwt.MapClaims)
	if !ok || !unpackedToken.Valid {
		return nil, errors.New("token claims unavailable")
	}

	var token auth.Token
	{
		b, err := json.Marshal(claims)
		if err != nil {
			return nil, fmt.Errorf("cannot marshal token to JSON: %w", err)
		}

		err = json.Unmarshal(b, &token)
		if err != nil {
			return nil, fmt.Errorf("cannot unmarshal token to struct: %w", err)
		}
	}

	if token.AccountID == "" {
		return nil, errors.New("token is not associated with an account")
	}
	if token.Issuer != s.issuer {
		return nil, fmt.Errorf("token issued by %q", token.Issuer)
	}

	return &token, nil
}

// Revoke invalidates a token for the remainder of its lifetime. A
// login history record, if present, is marked as revoked.
func (s *service) Revoke(ctx context.Context, token *auth.Token) error {
	if s.repoMngr != nil {
		if err := s.revokeLoginHistory(ctx, token.Id); err != nil {
			return err
		}
	}

	if s.db == nil {
		return nil
	}

	remaining := time.Unix(token.ExpiresAt, 0).Sub(s.now())
	if remaining <= 0 {
		return nil
	}

	return s.db.Set(ctx, revocationKey(token.Id), true, remaining).Err()
}

func (s *service) revokeLoginHistory(ctx context.Context, tokenID string) error {
	_, err := s.repoMngr.LoginHistory().ByTokenID(ctx, tokenID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}

	tx, err := s.repoMngr.NewWithTransaction(ctx)
	if err != nil {
		return fmt.Errorf("cannot start transaction: %w", err)
	}

	_, err = tx.WithAtomic(func() (interface{}, error) {
		lh, err := tx.LoginHistory().GetForUpdate(ctx, tokenID)
		if err != nil {
			return nil, err
		}

		lh.IsRevoked = true
		if err = tx.LoginHistory().Update(ctx, lh); err != nil {
			return nil, err
		}

		return lh, nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate login history record: %w", err)
	}

	return nil
}

func (s *service) isRevoked(ctx context.Context, token *auth.Token) (bool, error) {
	if s.db != nil {
		err := s.db.Get(ctx, revocationKey(token.Id)).Err()
		if err == nil {
			return true, nil
		}
		if errors.Is(err, redislib.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("cannot lookup token revocation history: %w", err)
	}

	if s.repoMngr == nil || token.State != auth.JWTAuthorized {
		return false, nil
	}

	lh, err := s.repoMngr.LoginHistory().ByTokenID(ctx, token.Id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cannot lookup login history: %w", err)
	}

	return lh.IsRevoked, nil
}

func revocationKey(tokenID string) string {
	return fmt.Sprintf("%s_is_revoked", tokenID)
}
