package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pushrelay/push-relay/internal/domain"
)

const (
	// DefaultTokenURL is Google's OAuth2 token endpoint.
	DefaultTokenURL = "https://oauth2.googleapis.com/token"

	jwtBearerGrantType      = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	assertionLifetime       = time.Hour
	defaultExchangeTimeout  = 5 * time.Second
	defaultTokenLifetimeSec = 3600
)

// TokenSource supplies a bearer token valid for immediate use against the
// push delivery API.
type TokenSource interface {
	Token(ctx context.Context) (domain.AccessToken, error)
}

// JWTTokenIssuer exchanges a signed service-account assertion for a
// short-lived access token at the identity provider's token endpoint.
type JWTTokenIssuer struct {
	credential *ServiceCredential
	client     *resty.Client
	tokenURL   string
	now        func() time.Time
}

func NewJWTTokenIssuer(credential *ServiceCredential, tokenURL string) (*JWTTokenIssuer, error) {
	client := resty.New()
	client.SetTimeout(defaultExchangeTimeout)
	client.SetRetryCount(0)

	return NewJWTTokenIssuerWithClient(credential, tokenURL, client)
}

func NewJWTTokenIssuerWithClient(credential *ServiceCredential, tokenURL string, client *resty.Client) (*JWTTokenIssuer, error) {
	if credential == nil || credential.privateKey == nil {
		return nil, fmt.Errorf("%w: service credential is required", domain.ErrCredential)
	}

	trimmedURL := strings.TrimSpace(tokenURL)
	if trimmedURL == "" {
		trimmedURL = DefaultTokenURL
	}
	if _, err := url.ParseRequestURI(trimmedURL); err != nil {
		return nil, fmt.Errorf("invalid token endpoint: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultExchangeTimeout)
	}
	client.SetRetryCount(0)

	return &JWTTokenIssuer{
		credential: credential,
		client:     client,
		tokenURL:   trimmedURL,
		now:        time.Now,
	}, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Token builds and submits the signed assertion. Neither the private key nor
// the raw assertion is ever logged or included in returned errors.
func (i *JWTTokenIssuer) Token(ctx context.Context) (domain.AccessToken, error) {
	if i == nil || i.client == nil {
		return domain.AccessToken{}, fmt.Errorf("token issuer is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	assertion, err := i.signAssertion()
	if err != nil {
		return domain.AccessToken{}, err
	}

	response, err := i.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type": jwtBearerGrantType,
			"assertion":  assertion,
		}).
		Post(i.tokenURL)
	if err != nil {
		return domain.AccessToken{}, fmt.Errorf("%w: token endpoint request failed: %v", domain.ErrAuthExchange, err)
	}
	if response == nil {
		return domain.AccessToken{}, fmt.Errorf("%w: token endpoint returned empty response", domain.ErrAuthExchange)
	}

	if response.StatusCode() != http.StatusOK {
		detail := strings.TrimSpace(response.String())
		if detail == "" {
			detail = "no response body"
		}
		return domain.AccessToken{}, fmt.Errorf("%w: token endpoint returned status %d: %s",
			domain.ErrAuthExchange, response.StatusCode(), detail)
	}

	var payload tokenResponse
	if err := json.Unmarshal(response.Body(), &payload); err != nil {
		return domain.AccessToken{}, fmt.Errorf("%w: failed to decode token response: %v", domain.ErrAuthExchange, err)
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		return domain.AccessToken{}, fmt.Errorf("%w: token response contains no access token", domain.ErrAuthExchange)
	}

	lifetime := payload.ExpiresIn
	if lifetime <= 0 {
		lifetime = defaultTokenLifetimeSec
	}

	return domain.AccessToken{
		Value:     payload.AccessToken,
		ExpiresAt: i.now().Add(time.Duration(lifetime) * time.Second),
	}, nil
}

func (i *JWTTokenIssuer) signAssertion() (string, error) {
	now := i.now().UTC()

	claims := jwt.MapClaims{
		"iss":   i.credential.ClientEmail,
		"scope": strings.Join(i.credential.Scopes, " "),
		"aud":   i.tokenURL,
		"iat":   now.Unix(),
		"exp":   now.Add(assertionLifetime).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(i.credential.privateKey)
	if err != nil {
		return "", fmt.Errorf("%w: failed to sign assertion: %v", domain.ErrCredential, err)
	}

	return signed, nil
}
