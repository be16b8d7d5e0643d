package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

func newAPIKeyApp(hash string) *fiber.App {
	app := fiber.New()
	app.Get("/ping", APIKey(hash), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestAPIKeyNoOpWithoutHash(t *testing.T) {
	app := newAPIKeyApp("")

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestAPIKeyChecksBearerToken(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("sekret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	app := newAPIKeyApp(string(hash))

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer sekret", fiber.StatusOK},
		{"wrong token", "Bearer nope", fiber.StatusUnauthorized},
		{"missing header", "", fiber.StatusUnauthorized},
		{"not bearer", "Basic sekret", fiber.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/ping", nil)
			if tc.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tc.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			if resp.StatusCode != tc.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.status)
			}
		})
	}
}

func TestConnectRateLimitWithoutCacheIsPassthrough(t *testing.T) {
	app := fiber.New()
	app.Post("/connect", ConnectRateLimit(nil, 2), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	for i := 0; i < 5; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/connect", nil))
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("request %d: status %d", i, resp.StatusCode)
		}
	}
}

func TestConnectRateLimitBlocksBursts(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	app := fiber.New()
	app.Post("/connect", ConnectRateLimit(client, 3), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	statuses := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/connect", nil))
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		statuses = append(statuses, resp.StatusCode)
	}

	for i, status := range statuses[:3] {
		if status != fiber.StatusOK {
			t.Fatalf("request %d: status %d, want 200", i, status)
		}
	}
	for i, status := range statuses[3:] {
		if status != fiber.StatusTooManyRequests {
			t.Fatalf("request %d: status %d, want 429", i+3, status)
		}
	}

	// The window resets once the key expires.
	mr.FastForward(2 * time.Minute)
	resp, err := app.Test(httptest.NewRequest("POST", "/connect", nil))
	if err != nil {
		t.Fatalf("post-expiry request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("post-expiry status = %d, want 200", resp.StatusCode)
	}
}
