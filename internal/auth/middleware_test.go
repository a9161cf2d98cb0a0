package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func newProtectedApp(svc *Service) *fiber.App {
	app := fiber.New()
	app.Get("/sessions/:id", SessionMiddleware(svc, "id"), func(c *fiber.Ctx) error {
		if c.Locals("session_id") == nil {
			return fiber.NewError(fiber.StatusUnauthorized)
		}
		return c.SendStatus(http.StatusOK)
	})
	return app
}

func TestSessionMiddleware(t *testing.T) {
	svc := NewService("secret")
	app := newProtectedApp(svc)

	// missing token
	req := httptest.NewRequest(http.MethodGet, "/sessions/session-1", nil)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized")
	}

	// valid bearer token
	token, _ := svc.IssueSessionToken("session-1")
	req = httptest.NewRequest(http.MethodGet, "/sessions/session-1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected ok")
	}

	// valid query token
	req = httptest.NewRequest(http.MethodGet, "/sessions/session-1?token="+token, nil)
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected ok for query token")
	}

	// token for another session
	req = httptest.NewRequest(http.MethodGet, "/sessions/session-2", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected forbidden")
	}

	// garbage token
	req = httptest.NewRequest(http.MethodGet, "/sessions/session-1", nil)
	req.Header.Set("Authorization", "Bearer nope")
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized for invalid token")
	}
}

func TestBearerFromHeader(t *testing.T) {
	if bearerFromHeader("Bearer abc") != "abc" {
		t.Fatalf("expected token")
	}
	if bearerFromHeader("bearer abc") != "abc" {
		t.Fatalf("expected case-insensitive scheme")
	}
	if bearerFromHeader("Basic abc") != "" || bearerFromHeader("") != "" {
		t.Fatalf("expected empty token")
	}
}
