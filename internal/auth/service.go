package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sessionTokenTTL = 12 * time.Hour

var ErrTokenInvalid = errors.New("token invalid")

// Service signs and verifies the tokens that bind a browser to its session.
type Service struct {
	secret []byte
	ttl    time.Duration
}

type Claims struct {
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

func NewService(secret string) *Service {
	return &Service{
		secret: []byte(secret),
		ttl:    sessionTokenTTL,
	}
}

func (s *Service) IssueSessionToken(sessionID string) (string, error) {
	if sessionID == "" {
		return "", errors.New("session id required")
	}
	return s.signToken(sessionID, s.ttl)
}

// ValidateSessionToken returns the session id carried by token.
func (s *Service) ValidateSessionToken(token string) (string, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return "", err
	}
	return claims.SessionID, nil
}

func (s *Service) signToken(sessionID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Service) parseToken(token string) (*Claims, error) {
	parsed, err := parseClaimsFn(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.SessionID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

var parseClaimsFn = jwt.ParseWithClaims
