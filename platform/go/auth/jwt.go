package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of an admin token when none is configured.
const DefaultTokenTTL = 7 * 24 * time.Hour

// ErrInvalidToken is returned for tokens that fail signature, expiry, or claim checks.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the payload of an admin token.
type Claims struct {
	UserID  string `json:"userId"`
	Email   string `json:"email"`
	OrgID   string `json:"orgId"`
	OrgName string `json:"orgName"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// TokenConfig holds the shared secret and lifetime used to sign and verify tokens.
type TokenConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// TokenIssuer signs HS256 admin tokens.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer validates cfg and returns an issuer. A zero TTL falls back to DefaultTokenTTL.
func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: []byte(cfg.Secret), issuer: cfg.Issuer, ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for the given identity. The subject mirrors the userId claim.
func (i *TokenIssuer) Issue(identity Claims) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.ttl)

	claims := identity
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    i.issuer,
		Subject:   identity.UserID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// TokenVerifier checks HS256 admin tokens statelessly.
type TokenVerifier struct {
	secret []byte
	issuer string
}

// NewTokenVerifier returns a verifier sharing the issuer's secret.
func NewTokenVerifier(cfg TokenConfig) (*TokenVerifier, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &TokenVerifier{secret: []byte(cfg.Secret), issuer: cfg.Issuer}, nil
}

// Verify parses the token, enforcing HS256, a present expiry, and a userId claim.
func (v *TokenVerifier) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ExtractJWTToken returns the bearer token from the Authorization header.
// The scheme match is case-insensitive; a header without the scheme or without a token reports false.
func ExtractJWTToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	const prefix = "Bearer "
	if len(authHeader) < len(prefix) || !strings.EqualFold(authHeader[:len(prefix)], prefix) {
		return "", false
	}

	token := strings.TrimSpace(authHeader[len(prefix):])
	return token, token != ""
}
