package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-intake/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-intake/pkg/util/errorutil"
)

func newMiddlewareApp(v *Verifier) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			domainErr := apperrors.ToDomainError(err)
			return c.Status(domainErr.HTTPStatus).SendString(domainErr.Message)
		},
	})
	whoami := func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return c.SendStatus(http.StatusInternalServerError)
		}
		return c.SendString(identity.ID + ":" + string(identity.Role))
	}
	app.Get("/me", NewSessionMiddleware(v).Handle, whoami)
	app.Post("/intake", RequireIntakeSecret(v), whoami)
	return app
}

func TestSessionMiddleware(t *testing.T) {
	profiles := &stubProfiles{profiles: map[string]*domain.Profile{
		"op-1": {ID: "op-1", Role: domain.RoleOperator},
	}}
	tokens := NewTokenManager("test-secret", 5)
	app := newMiddlewareApp(NewVerifier("relay-secret", tokens, profiles, time.Second, nil))
	token, _, _ := tokens.GenerateToken("op-1")

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestIntakeSecretMiddlewareSameResponseForMissingAndWrong(t *testing.T) {
	app := newMiddlewareApp(NewVerifier("relay-secret", nil, nil, time.Second, nil))

	var bodies []string
	for _, secret := range []string{"", "wrong"} {
		req := httptest.NewRequest(http.MethodPost, "/intake", nil)
		if secret != "" {
			req.Header.Set(IntakeSecretHeader, secret)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", resp.StatusCode)
		}
		buf := make([]byte, 128)
		n, _ := resp.Body.Read(buf)
		bodies = append(bodies, string(buf[:n]))
	}
	if bodies[0] != bodies[1] {
		t.Fatalf("responses differ: %q vs %q", bodies[0], bodies[1])
	}

	req := httptest.NewRequest(http.MethodPost, "/intake", nil)
	req.Header.Set(IntakeSecretHeader, "relay-secret")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}
