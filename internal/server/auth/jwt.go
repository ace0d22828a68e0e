// Package auth mints and verifies the access tokens that carry the caller's
// account. Tokens are issued by the wallet login service (cmd/devtoken in
// development); the server only verifies them.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophmatch/internal/common"
	"github.com/dmitrijs2005/gophmatch/internal/fhe"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the standard claims plus the caller's account.
type Claims struct {
	jwt.RegisteredClaims
	Account fhe.Address `json:"account"`
}

func GenerateToken(account fhe.Address, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		Account: account,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetAccountFromToken verifies tokenString and returns its account.
func GetAccountFromToken(tokenString string, secretKey []byte) (fhe.Address, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	account, err := fhe.ParseAddress(claims.Account.String())
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	return account, nil
}
