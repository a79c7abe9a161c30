package state

import (
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-service/internal/utils"
)

// InitVerifier builds the token verifier: RS256 when a public key path is set,
// otherwise HS256 with the shared secret.
func InitVerifier(secret, publicKeyPath string) (*utils.TokenVerifier, error) {
	if publicKeyPath != "" {
		pubKeyBytes, err := os.ReadFile(publicKeyPath)
		if err != nil {
			return nil, fmt.Errorf("read public key: %w", err)
		}

		pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubKeyBytes)
		if err != nil {
			return nil, fmt.Errorf("invalid public key: %w", err)
		}

		log.Info().Str("alg", "RS256").Msg("JWT verifier initialized successfully")
		return utils.NewRSAVerifier(pubKey, nil)
	}

	if secret == "" {
		return nil, fmt.Errorf("jwt secret is empty")
	}

	verifier, err := utils.NewHMACVerifier(secret)
	if err != nil {
		return nil, err
	}
	log.Info().Str("alg", "HS256").Msg("JWT verifier initialized successfully")
	return verifier, nil
}
