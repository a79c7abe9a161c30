package utils

import (
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/xenn00/chat-service/internal/entity"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims carries the embedded principal under "user" next to the registered claims.
type Claims struct {
	User *entity.Principal `json:"user,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier validates bearer tokens issued by the user service.
type TokenVerifier struct {
	method    jwt.SigningMethod
	verifyKey any
	signKey   any
}

// NewHMACVerifier accepts the shared secret either base64 encoded or raw.
func NewHMACVerifier(secret string) (*TokenVerifier, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is empty")
	}
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		key = []byte(secret)
	}
	return &TokenVerifier{
		method:    jwt.SigningMethodHS256,
		verifyKey: key,
		signKey:   key,
	}, nil
}

// NewRSAVerifier verifies RS256 tokens; privateKey may be nil when this
// service never issues tokens itself.
func NewRSAVerifier(publicKey *rsa.PublicKey, privateKey *rsa.PrivateKey) (*TokenVerifier, error) {
	if publicKey == nil {
		return nil, fmt.Errorf("jwt public key is nil")
	}
	v := &TokenVerifier{
		method:    jwt.SigningMethodRS256,
		verifyKey: publicKey,
	}
	if privateKey != nil {
		v.signKey = privateKey
	}
	return v, nil
}

func (v *TokenVerifier) Verify(token string) (*entity.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenInvalid
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != v.method.Alg() {
			return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
		}
		return v.verifyKey, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !parsed.Valid {
		return nil, ErrTokenInvalid
	}

	user := claims.User
	if user == nil || user.ID <= 0 {
		return nil, fmt.Errorf("%w: missing user claim", ErrTokenInvalid)
	}
	if claims.Subject == "" || claims.Subject != user.IdentityKey() {
		return nil, fmt.Errorf("%w: subject does not match user", ErrTokenInvalid)
	}

	principal := *user
	return &principal, nil
}

// Issue signs a token for principal; used by tooling and tests.
func (v *TokenVerifier) Issue(principal entity.Principal, ttl time.Duration) (string, error) {
	if v.signKey == nil {
		return "", fmt.Errorf("verifier has no signing key")
	}
	now := time.Now()
	claims := &Claims{
		User: &principal,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.IdentityKey(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(v.method, claims).SignedString(v.signKey)
}
