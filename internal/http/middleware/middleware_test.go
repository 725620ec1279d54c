package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func TestRedactQuery_MasksSecretKey(t *testing.T) {
	got := redactQuery("obfuscation=ab12cd34&slug=our-rent&secretkey=super-secret")
	if strings.Contains(got, "super-secret") {
		t.Fatalf("secretkey value leaked into %q", got)
	}
	if !strings.Contains(got, "secretkey=REDACTED") {
		t.Fatalf("expected secretkey to be masked, got %q", got)
	}
	if !strings.Contains(got, "obfuscation=ab12cd34") || !strings.Contains(got, "slug=our-rent") {
		t.Fatalf("expected other params untouched, got %q", got)
	}
}

func TestRedactQuery_PassesThroughWithoutSecret(t *testing.T) {
	got := redactQuery("obfuscation=ab12cd34&slug=our-rent")
	if !strings.Contains(got, "obfuscation=ab12cd34") {
		t.Fatalf("expected query preserved, got %q", got)
	}
	if redactQuery("") != "" {
		t.Fatal("expected empty query to stay empty")
	}
}

func TestRequestID_GeneratesWhenAbsentOrMalformed(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	rid := resp.Header.Get(RequestIDHeader)
	if rid == "not-a-uuid" {
		t.Fatal("malformed inbound request id must be replaced")
	}
	if _, err := uuid.Parse(rid); err != nil {
		t.Fatalf("expected a uuid request id, got %q", rid)
	}
}

func TestRequestID_EchoesValidInboundID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	inbound := uuid.New().String()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, inbound)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get(RequestIDHeader); got != inbound {
		t.Fatalf("expected inbound id %q echoed, got %q", inbound, got)
	}
}
