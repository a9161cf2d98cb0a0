package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndValidateSessionToken(t *testing.T) {
	svc := NewService("secret")
	token, err := svc.IssueSessionToken("session-1")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	sessionID, err := svc.ValidateSessionToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if sessionID != "session-1" {
		t.Fatalf("unexpected session id: %s", sessionID)
	}
}

func TestIssueSessionTokenRequiresID(t *testing.T) {
	if _, err := NewService("secret").IssueSessionToken(""); err == nil {
		t.Fatalf("expected error for empty session id")
	}
}

func TestValidateSessionTokenWrongSecret(t *testing.T) {
	token, _ := NewService("secret").IssueSessionToken("session-1")
	if _, err := NewService("other").ValidateSessionToken(token); err == nil {
		t.Fatalf("expected signature error")
	}
}

func TestValidateSessionTokenExpired(t *testing.T) {
	svc := NewService("secret")
	token, err := svc.signToken("session-1", -time.Minute)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := svc.ValidateSessionToken(token); err == nil {
		t.Fatalf("expected expired token error")
	}
}

func TestValidateSessionTokenRejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{SessionID: "session-1"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewService("secret").ValidateSessionToken(token); err == nil {
		t.Fatalf("expected algorithm to be rejected")
	}
}

func TestValidateSessionTokenMissingSessionID(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	_, err = NewService("secret").ValidateSessionToken(token)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestParseTokenInvalidClaimsType(t *testing.T) {
	old := parseClaimsFn
	defer func() { parseClaimsFn = old }()
	parseClaimsFn = func(_ string, _ jwt.Claims, _ jwt.Keyfunc, _ ...jwt.ParserOption) (*jwt.Token, error) {
		return &jwt.Token{Claims: jwt.MapClaims{}, Valid: true}, nil
	}

	if _, err := NewService("secret").ValidateSessionToken("anything"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}
