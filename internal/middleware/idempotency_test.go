package middleware

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/tezgate/tezgate/internal/logging"
)

func newIdempotencyApp(t *testing.T) (*fiber.App, *int) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	calls := 0
	app := fiber.New()
	app.Post("/deposit", Idempotency(client, time.Minute, logging.Discard()), func(c *fiber.Ctx) error {
		calls++
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "opHash": "oo1"})
	})
	return app, &calls
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	app, calls := newIdempotencyApp(t)

	req := httptest.NewRequest("POST", "/deposit", nil)
	req.Header.Set("Idempotency-Key", "key-1")

	first, err := app.Test(req)
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	firstBody, _ := io.ReadAll(first.Body)

	req2 := httptest.NewRequest("POST", "/deposit", nil)
	req2.Header.Set("Idempotency-Key", "key-1")
	second, err := app.Test(req2)
	if err != nil {
		t.Fatalf("second request: %v", err)
	}
	secondBody, _ := io.ReadAll(second.Body)

	if *calls != 1 {
		t.Fatalf("handler ran %d times, want 1", *calls)
	}
	if first.StatusCode != second.StatusCode || string(firstBody) != string(secondBody) {
		t.Fatalf("replayed response differs: %d %q vs %d %q",
			first.StatusCode, firstBody, second.StatusCode, secondBody)
	}
}

func TestIdempotencyWithoutKeyIsPassthrough(t *testing.T) {
	app, calls := newIdempotencyApp(t)

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/deposit", nil))
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("request %d: status %d", i, resp.StatusCode)
		}
	}
	if *calls != 2 {
		t.Fatalf("handler ran %d times, want 2", *calls)
	}
}

func TestIdempotencyDistinctKeys(t *testing.T) {
	app, calls := newIdempotencyApp(t)

	for _, key := range []string{"key-a", "key-b"} {
		req := httptest.NewRequest("POST", "/deposit", nil)
		req.Header.Set("Idempotency-Key", key)
		if _, err := app.Test(req); err != nil {
			t.Fatalf("request %s: %v", key, err)
		}
	}
	if *calls != 2 {
		t.Fatalf("handler ran %d times, want 2", *calls)
	}
}
