package auth

import (
	"fmt"
	"time"

	"github.com/Daskott/sos/models"
	"github.com/Daskott/sos/server/auth/key"
	"github.com/golang-jwt/jwt"
	pkgErrors "github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	ISSUER = "sos"

	// Settings namespace and key holding the API passphrase hash.
	NAMESPACE           = "auth"
	PASSPHRASE_HASH_KEY = "passphrase_hash"
)

type TokenClaims struct {
	jwt.StandardClaims
}

func NewTokenClaims(ttl time.Duration, now time.Time) TokenClaims {
	return TokenClaims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    ISSUER,
			Subject:   "owner",
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	}
}

func HashPassphrase(passphrase string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(passphrase), 14)
	return string(bytes), err
}

func CheckPassphraseHash(passphrase, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(passphrase))
	return err == nil
}

func EncodeJWT(claims TokenClaims, keyPair *key.KeyPair) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod("RS256"), claims)
	token.Header["kid"] = keyPair.Kid

	tokenString, err := token.SignedString(keyPair.PrivateKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func DecodeJWT(tokenString string, keyPair *key.KeyPair) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return keyPair.PublicKey, nil
	})

	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid jwt: %v", err)
	}

	tokenClaims, ok := token.Claims.(*TokenClaims)
	if !ok {
		return nil, fmt.Errorf("unable to assert token.Claims to TokenClaims")
	}

	if tokenClaims.Issuer != ISSUER {
		return nil, fmt.Errorf("invalid jwt: unexpected issuer %q", tokenClaims.Issuer)
	}

	return tokenClaims, nil
}

// SavePassphrase stores the bcrypt hash of the API passphrase.
func SavePassphrase(db *gorm.DB, passphrase string) error {
	hash, err := HashPassphrase(passphrase)
	if err != nil {
		return fmt.Errorf("SavePassphrase: %v", err)
	}

	return pkgErrors.Wrap(models.SaveSetting(db, NAMESPACE, PASSPHRASE_HASH_KEY, hash), "auth.SavePassphrase")
}

// FindPassphraseHash returns the stored hash, or "" if no passphrase was set.
func FindPassphraseHash(db *gorm.DB) (string, error) {
	hash, _, err := models.FindSetting(db, NAMESPACE, PASSPHRASE_HASH_KEY)
	return hash, pkgErrors.Wrap(err, "auth.FindPassphraseHash")
}
