package service

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mr-tron/base58"

	"github.com/cloudmesh/ledger/internal/domain"
)

// AuthConfig holds authentication settings.
type AuthConfig struct {
	JWTSecret       string
	ChallengeTTL    time.Duration
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// AuthService authenticates keypair holders. Login is a challenge flow: the
// client requests a nonce for its public key, signs it with the matching
// ed25519 private key, and exchanges the signature for a JWT pair. The rest
// of the API only ever sees the caller as an opaque public key.
type AuthService struct {
	jwtSecret       []byte
	challengeTTL    time.Duration
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration

	mu         sync.Mutex
	challenges map[domain.PublicKey]challenge

	now func() time.Time
}

type challenge struct {
	nonce     string
	expiresAt time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg AuthConfig) *AuthService {
	if cfg.ChallengeTTL == 0 {
		cfg.ChallengeTTL = 5 * time.Minute
	}
	if cfg.AccessTokenTTL == 0 {
		cfg.AccessTokenTTL = 15 * time.Minute
	}
	if cfg.RefreshTokenTTL == 0 {
		cfg.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	return &AuthService{
		jwtSecret:       []byte(cfg.JWTSecret),
		challengeTTL:    cfg.ChallengeTTL,
		accessTokenTTL:  cfg.AccessTokenTTL,
		refreshTokenTTL: cfg.RefreshTokenTTL,
		challenges:      make(map[domain.PublicKey]challenge),
		now:             time.Now,
	}
}

// Challenge holds a login nonce issued for a public key.
type Challenge struct {
	PublicKey domain.PublicKey `json:"public_key"`
	Nonce     string           `json:"nonce"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// NewChallenge issues a fresh login nonce for key, replacing any outstanding
// one.
func (s *AuthService) NewChallenge(key domain.PublicKey) (*Challenge, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	nonce := base58.Encode(raw)
	now := s.now()
	expiresAt := now.Add(s.challengeTTL)

	s.mu.Lock()
	// Abandoned nonces are never consumed by Login, so sweep them here to
	// keep the map bounded by active logins.
	for k, c := range s.challenges {
		if now.After(c.expiresAt) {
			delete(s.challenges, k)
		}
	}
	s.challenges[key] = challenge{nonce: nonce, expiresAt: expiresAt}
	s.mu.Unlock()

	return &Challenge{PublicKey: key, Nonce: nonce, ExpiresAt: expiresAt}, nil
}

// TokenPair holds an access token and refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Login verifies signature over the outstanding nonce for key and returns a
// JWT pair. The nonce is consumed whether or not verification succeeds.
func (s *AuthService) Login(key domain.PublicKey, nonce string, signature []byte) (*TokenPair, error) {
	s.mu.Lock()
	c, ok := s.challenges[key]
	delete(s.challenges, key)
	s.mu.Unlock()

	if !ok || c.nonce != nonce || s.now().After(c.expiresAt) {
		return nil, domain.ErrUnauthenticated
	}

	pub := key.Bytes()
	if len(pub) != ed25519.PublicKeySize ||
		!ed25519.Verify(ed25519.PublicKey(pub), []byte(nonce), signature) {
		return nil, domain.ErrUnauthenticated
	}

	return s.generateTokenPair(key)
}

// ValidateToken parses an access token and returns the caller identity.
func (s *AuthService) ValidateToken(tokenStr string) (domain.PublicKey, error) {
	claims, err := s.parseToken(tokenStr, "access")
	if err != nil {
		return "", err
	}

	sub, _ := claims["sub"].(string)
	key, err := domain.ParsePublicKey(sub)
	if err != nil {
		return "", domain.ErrUnauthenticated
	}
	return key, nil
}

// RefreshTokenPair validates a refresh token and returns a new token pair.
func (s *AuthService) RefreshTokenPair(refreshToken string) (*TokenPair, error) {
	claims, err := s.parseToken(refreshToken, "refresh")
	if err != nil {
		return nil, err
	}

	sub, _ := claims["sub"].(string)
	key, err := domain.ParsePublicKey(sub)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}
	return s.generateTokenPair(key)
}

func (s *AuthService) parseToken(tokenStr, wantType string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, domain.ErrUnauthenticated
	}

	tokenType, _ := claims["type"].(string)
	if tokenType != wantType {
		return nil, domain.ErrUnauthenticated
	}
	return claims, nil
}

func (s *AuthService) generateTokenPair(key domain.PublicKey) (*TokenPair, error) {
	now := s.now()

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  string(key),
		"type": "access",
		"iat":  now.Unix(),
		"exp":  now.Add(s.accessTokenTTL).Unix(),
	})
	accessStr, err := accessToken.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  string(key),
		"type": "refresh",
		"iat":  now.Unix(),
		"exp":  now.Add(s.refreshTokenTTL).Unix(),
	})
	refreshStr, err := refreshToken.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessStr,
		RefreshToken: refreshStr,
	}, nil
}
