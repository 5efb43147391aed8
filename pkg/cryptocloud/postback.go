package cryptocloud

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// VerifyPostbackToken checks the HS256 token CryptoCloud signs postbacks with.
// The secret is the project's secret key from the merchant dashboard.
func VerifyPostbackToken(secret, token string) error {
	if token == "" {
		return ErrBadToken
	}
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return errors.Join(ErrBadToken, err)
	}
	if !parsed.Valid {
		return ErrBadToken
	}
	return nil
}
