// Package auth issues and verifies the signed OAuth state parameter that
// protects the Shopify install and Klaviyo authorize flows.
package auth

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"

	"github.com/velvet/backend/internal/domain/shared"
	"github.com/velvet/backend/internal/infrastructure/config"
)

// Provider names the OAuth flow a state belongs to
type Provider string

const (
	ProviderShopify Provider = "shopify"
	ProviderKlaviyo Provider = "klaviyo"
)

const (
	stateKeyInfo  = "velvet/oauth-state/v1"
	stateKeyBytes = 32
	stateIssuer   = "velvet-studio"
)

// Common errors
var (
	ErrInvalidState  = errors.New("invalid oauth state")
	ErrExpiredState  = errors.New("oauth state has expired")
	ErrStateMismatch = errors.New("oauth state does not match the callback")
	ErrStateReplayed = errors.New("oauth state was already used")
)

// StateClaims are the claims carried by a state token
type StateClaims struct {
	jwt.RegisteredClaims
	Nonce    string   `json:"nonce"`
	Provider Provider `json:"provider"`
	Shop     string   `json:"shop,omitempty"`
}

// StateService signs OAuth state tokens and redeems each one at most once
type StateService struct {
	key    []byte
	ttl    time.Duration
	nonces shared.NonceStore
}

// NewStateService derives the signing key from the configured secret with
// HKDF-SHA256 and creates the service
func NewStateService(cfg config.OAuthConfig, nonces shared.NonceStore) (*StateService, error) {
	if cfg.StateSecret == "" {
		return nil, errors.New("oauth state secret is empty")
	}
	key := make([]byte, stateKeyBytes)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(cfg.StateSecret), nil, []byte(stateKeyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive state key: %w", err)
	}

	ttl := cfg.StateTTL
	if ttl <= 0 {
		ttl = shared.DefaultNonceConfig().TTL
	}
	return &StateService{key: key, ttl: ttl, nonces: nonces}, nil
}

// TTL returns how long an issued state stays redeemable
func (s *StateService) TTL() time.Duration {
	return s.ttl
}

// Issue creates a state token for provider. shop is bound into the token for
// the Shopify flow and left empty otherwise.
func (s *StateService) Issue(ctx context.Context, provider Provider, shop string) (string, error) {
	now := time.Now()
	nonce := uuid.NewString()

	claims := &StateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        nonce,
			Issuer:    stateIssuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Nonce:    nonce,
		Provider: provider,
		Shop:     shop,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign state: %w", err)
	}
	if err := s.nonces.Remember(ctx, nonce, s.ttl); err != nil {
		return "", fmt.Errorf("remember state nonce: %w", err)
	}
	return token, nil
}

// Verify checks the signature and expiry of token, that it was issued for
// provider (and shop, when set), and consumes its nonce.
func (s *StateService) Verify(ctx context.Context, token string, provider Provider, shop string) (*StateClaims, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	if claims.Provider != provider {
		return nil, ErrStateMismatch
	}
	if shop != "" && claims.Shop != shop {
		return nil, ErrStateMismatch
	}

	ok, err := s.nonces.Consume(ctx, claims.Nonce)
	if err != nil {
		return nil, fmt.Errorf("consume state nonce: %w", err)
	}
	if !ok {
		return nil, ErrStateReplayed
	}
	return claims, nil
}

func (s *StateService) parse(token string) (*StateClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &StateClaims{}, func(*jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(stateIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredState
		}
		return nil, ErrInvalidState
	}

	claims, ok := parsed.Claims.(*StateClaims)
	if !ok || !parsed.Valid || claims.Nonce == "" {
		return nil, ErrInvalidState
	}
	return claims, nil
}
