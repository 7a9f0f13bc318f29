package auth

import (
	"crypto/rsa"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pushrelay/push-relay/internal/domain"
)

// ScopeFirebaseMessaging is the messaging capability requested for issued tokens.
const ScopeFirebaseMessaging = "https://www.googleapis.com/auth/firebase.messaging"

// ServiceCredential is the service-account identity used for the signed-JWT
// token exchange. Built once at process start and immutable afterwards; the
// private key never leaves this package.
type ServiceCredential struct {
	ClientEmail string
	Scopes      []string

	privateKey *rsa.PrivateKey
}

// NewServiceCredential parses a PEM-encoded RSA private key. Escaped newline
// sequences are normalized first since env-injected keys commonly carry them.
func NewServiceCredential(clientEmail, privateKeyPEM string, scopes []string) (*ServiceCredential, error) {
	trimmedEmail := strings.TrimSpace(clientEmail)
	if trimmedEmail == "" {
		return nil, fmt.Errorf("%w: client email is required", domain.ErrCredential)
	}

	normalizedKey := strings.ReplaceAll(privateKeyPEM, `\n`, "\n")
	if strings.TrimSpace(normalizedKey) == "" {
		return nil, fmt.Errorf("%w: private key is required", domain.ErrCredential)
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(normalizedKey))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse private key PEM: %v", domain.ErrCredential, err)
	}

	if len(scopes) == 0 {
		scopes = []string{ScopeFirebaseMessaging}
	}

	return &ServiceCredential{
		ClientEmail: trimmedEmail,
		Scopes:      scopes,
		privateKey:  key,
	}, nil
}
