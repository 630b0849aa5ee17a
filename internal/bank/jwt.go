package bank

import (
	"context"
	"crypto/rsa"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTTokenSource self-mints RS256 bearer tokens from a mounted private key,
// carrying the user/acct claims the bank services verify.
type JWTTokenSource struct {
	key       *rsa.PrivateKey
	username  string
	accountID string
	ttl       time.Duration
	now       func() time.Time
}

// NewJWTTokenSource loads the RS256 private key from keyPath.
func NewJWTTokenSource(keyPath, username, accountID string, ttl time.Duration) (*JWTTokenSource, error) {
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("read jwt key: %w", err)
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("parse jwt key: %w", err)
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &JWTTokenSource{
		key:       key,
		username:  username,
		accountID: accountID,
		ttl:       ttl,
		now:       time.Now,
	}, nil
}

func (s *JWTTokenSource) Name() string { return "jwt" }

func (s *JWTTokenSource) Mint(_ context.Context) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user": s.username,
		"acct": s.accountID,
		"iat":  now.Unix(),
		"exp":  now.Add(s.ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return token, nil
}
