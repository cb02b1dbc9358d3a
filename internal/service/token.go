package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/contentdesk/admin-api/internal/clock"
	"github.com/contentdesk/admin-api/internal/model"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var ErrInvalidOrExpiredToken = errors.New("invalid or expired token")

// AccessClaims are carried by short-lived access tokens.
type AccessClaims struct {
	Role         model.Role `json:"role"`
	TokenVersion int        `json:"tokenVersion"`
	Type         string     `json:"typ"`
	jwt.RegisteredClaims
}

// RefreshClaims are carried by refresh tokens. They never carry a role.
type RefreshClaims struct {
	TokenVersion int    `json:"tokenVersion"`
	Type         string `json:"typ"`
	jwt.RegisteredClaims
}

type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// TokenService signs and verifies HS256 tokens. Access and refresh tokens use
// separate keys, so one kind never verifies as the other.
type TokenService struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	clock      clock.Clock
}

func NewTokenService(cfg TokenConfig, clk clock.Clock) *TokenService {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &TokenService{
		accessKey:  []byte(cfg.AccessSecret),
		refreshKey: []byte(cfg.RefreshSecret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		issuer:     cfg.Issuer,
		clock:      clk,
	}
}

func (s *TokenService) IssueAccess(subject string, role model.Role, tokenVersion int) (string, error) {
	now := s.clock.Now()
	claims := AccessClaims{
		Role:             role,
		TokenVersion:     tokenVersion,
		Type:             tokenTypeAccess,
		RegisteredClaims: s.registered(subject, now, s.accessTTL),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessKey)
}

func (s *TokenService) IssueRefresh(subject string, tokenVersion int) (string, error) {
	now := s.clock.Now()
	claims := RefreshClaims{
		TokenVersion:     tokenVersion,
		Type:             tokenTypeRefresh,
		RegisteredClaims: s.registered(subject, now, s.refreshTTL),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.refreshKey)
}

func (s *TokenService) VerifyAccess(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := s.parse(tokenStr, claims, s.accessKey); err != nil {
		return nil, err
	}
	if claims.Type != tokenTypeAccess || claims.Subject == "" {
		return nil, ErrInvalidOrExpiredToken
	}
	return claims, nil
}

func (s *TokenService) VerifyRefresh(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := s.parse(tokenStr, claims, s.refreshKey); err != nil {
		return nil, err
	}
	if claims.Type != tokenTypeRefresh || claims.Subject == "" {
		return nil, ErrInvalidOrExpiredToken
	}
	return claims, nil
}

func (s *TokenService) AccessTTL() time.Duration {
	return s.accessTTL
}

func (s *TokenService) registered(subject string, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (s *TokenService) parse(tokenStr string, claims jwt.Claims, key []byte) error {
	if tokenStr == "" {
		return ErrInvalidOrExpiredToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)

	token, err := parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidOrExpiredToken
	}
	return nil
}
