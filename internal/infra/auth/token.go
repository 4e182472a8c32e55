package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/juju/clock"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/xavierca1/mrk-crm/internal/entity"
)

type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"

	roleClaim = "role"
	typeClaim = "type"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the subset of a parsed token the service cares about.
type Claims struct {
	Subject   string
	Role      entity.UserRole
	Kind      TokenKind
	ExpiresAt time.Time
}

// JWTIssuer signs and verifies HS256 tokens with a shared secret.
type JWTIssuer struct {
	secret     []byte
	alg        jwa.SignatureAlgorithm
	accessTTL  time.Duration
	refreshTTL time.Duration
	clock      clock.Clock
}

func NewJWTIssuer(secret string, accessTTL, refreshTTL time.Duration, clk clock.Clock) *JWTIssuer {
	if clk == nil {
		clk = clock.WallClock
	}
	return &JWTIssuer{
		secret:     []byte(secret),
		alg:        jwa.HS256,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		clock:      clk,
	}
}

func (i *JWTIssuer) TTL(kind TokenKind) time.Duration {
	if kind == TokenRefresh {
		return i.refreshTTL
	}
	return i.accessTTL
}

func (i *JWTIssuer) Issue(user entity.User, kind TokenKind) (string, error) {
	now := i.clock.Now()
	tok, err := jwt.NewBuilder().
		Subject(user.ID).
		IssuedAt(now).
		Expiration(now.Add(i.TTL(kind))).
		Claim(roleClaim, string(user.Role)).
		Claim(typeClaim, string(kind)).
		Build()
	if err != nil {
		return "", fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(i.alg, i.secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return string(signed), nil
}

func (i *JWTIssuer) Parse(raw string) (Claims, error) {
	tok, err := jwt.Parse([]byte(raw), jwt.WithKey(i.alg, i.secret), jwt.WithClock(i.clock))
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if tok.Subject() == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	claims := Claims{Subject: tok.Subject(), ExpiresAt: tok.Expiration()}
	if v, ok := tok.Get(roleClaim); ok {
		s, _ := v.(string)
		claims.Role = entity.UserRole(s)
	}
	if v, ok := tok.Get(typeClaim); ok {
		s, _ := v.(string)
		claims.Kind = TokenKind(s)
	}
	return claims, nil
}
