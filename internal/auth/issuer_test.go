package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pushrelay/push-relay/internal/domain"
)

func testCredential(t *testing.T) *ServiceCredential {
	t.Helper()

	cred, err := NewServiceCredential("relay@test-project.iam.gserviceaccount.com", testPrivateKeyPEM(t), nil)
	if err != nil {
		t.Fatalf("failed to build test credential: %v", err)
	}
	return cred
}

func TestJWTTokenIssuer_Token_Success(t *testing.T) {
	t.Parallel()

	cred := testCredential(t)

	var gotGrantType, gotAssertion string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		gotGrantType = r.PostFormValue("grant_type")
		gotAssertion = r.PostFormValue("assertion")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"access_token":"ya29.test-token","token_type":"Bearer","expires_in":3599}`)) //nolint:errcheck
	}))
	defer server.Close()

	issuer, err := NewJWTTokenIssuerWithClient(cred, server.URL, resty.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	issuedAt := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return issuedAt }

	token, err := issuer.Token(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if token.Value != "ya29.test-token" {
		t.Errorf("token value = %s, want ya29.test-token", token.Value)
	}
	if want := issuedAt.Add(3599 * time.Second); !token.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", token.ExpiresAt, want)
	}
	if gotGrantType != jwtBearerGrantType {
		t.Errorf("grant_type = %s, want %s", gotGrantType, jwtBearerGrantType)
	}

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(gotAssertion, claims, func(tok *jwt.Token) (any, error) {
		if tok.Method.Alg() != jwt.SigningMethodRS256.Alg() {
			t.Errorf("alg = %s, want RS256", tok.Method.Alg())
		}
		return &cred.privateKey.PublicKey, nil
	}, jwt.WithTimeFunc(func() time.Time { return issuedAt }))
	if err != nil {
		t.Fatalf("assertion does not verify against the credential key: %v", err)
	}
	if claims["iss"] != cred.ClientEmail {
		t.Errorf("iss = %v, want %s", claims["iss"], cred.ClientEmail)
	}
	if claims["scope"] != ScopeFirebaseMessaging {
		t.Errorf("scope = %v, want %s", claims["scope"], ScopeFirebaseMessaging)
	}
	if claims["aud"] != server.URL {
		t.Errorf("aud = %v, want %s", claims["aud"], server.URL)
	}
}

func TestJWTTokenIssuer_Token_MissingExpiryDefaults(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"access_token":"ya29.test-token"}`)) //nolint:errcheck
	}))
	defer server.Close()

	issuer, err := NewJWTTokenIssuerWithClient(testCredential(t), server.URL, resty.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	issuedAt := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return issuedAt }

	token, err := issuer.Token(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := issuedAt.Add(time.Hour); !token.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want default one hour lifetime", token.ExpiresAt)
	}
}

func TestJWTTokenIssuer_Token_ExchangeFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "provider error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"invalid_grant"}`)) //nolint:errcheck
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(`{not json`)) //nolint:errcheck
			},
		},
		{
			name: "empty access token",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(`{"access_token":"","expires_in":3600}`)) //nolint:errcheck
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(tt.handler)
			defer server.Close()

			issuer, err := NewJWTTokenIssuerWithClient(testCredential(t), server.URL, resty.New())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			_, err = issuer.Token(context.Background())
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, domain.ErrAuthExchange) {
				t.Errorf("error = %v, want ErrAuthExchange", err)
			}
		})
	}
}

func TestJWTTokenIssuer_Token_EndpointUnreachable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	issuer, err := NewJWTTokenIssuerWithClient(testCredential(t), server.URL, resty.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = issuer.Token(context.Background())
	if !errors.Is(err, domain.ErrAuthExchange) {
		t.Errorf("error = %v, want ErrAuthExchange", err)
	}
}

func TestNewJWTTokenIssuer_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := NewJWTTokenIssuer(nil, DefaultTokenURL); !errors.Is(err, domain.ErrCredential) {
		t.Errorf("nil credential error = %v, want ErrCredential", err)
	}

	if _, err := NewJWTTokenIssuer(testCredential(t), "://bad-url"); err == nil {
		t.Error("expected error for invalid token endpoint, got nil")
	}
}

func TestNewJWTTokenIssuer_DefaultsTokenURL(t *testing.T) {
	t.Parallel()

	issuer, err := NewJWTTokenIssuer(testCredential(t), "  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if issuer.tokenURL != DefaultTokenURL {
		t.Errorf("tokenURL = %s, want %s", issuer.tokenURL, DefaultTokenURL)
	}
}
