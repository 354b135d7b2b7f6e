package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestReadyReportsEachDependency(t *testing.T) {
	ok := pingerFunc(func(context.Context) error { return nil })
	down := pingerFunc(func(context.Context) error { return errors.New("connection refused") })

	cases := []struct {
		name       string
		deps       map[string]Pinger
		wantStatus int
	}{
		{name: "all up", deps: map[string]Pinger{"store": ok, "redis": ok}, wantStatus: http.StatusOK},
		{name: "redis down", deps: map[string]Pinger{"store": ok, "redis": down}, wantStatus: http.StatusServiceUnavailable},
		{name: "no dependencies", deps: nil, wantStatus: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			h := NewHealthHandler("helpdesk-intake", "test", tc.deps)
			app.Get("/ready", h.Ready)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ready", nil), -1)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.wantStatus)
			}
			var body map[string]any
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if tc.wantStatus == http.StatusServiceUnavailable {
				details := body["error"].(map[string]any)["details"].(map[string]any)
				redis := details["redis"].(map[string]any)
				if redis["status"] != "unavailable" || redis["error"] != "connection refused" {
					t.Fatalf("unexpected redis status: %v", redis)
				}
			}
		})
	}
}
