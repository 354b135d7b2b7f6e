package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

const readinessTimeout = 2 * time.Second

// Pinger is a dependency that can report its own reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName  string
	version      string
	dependencies map[string]Pinger
}

// NewHealthHandler returns a new handler instance. Every dependency must answer for the
// service to report ready.
func NewHealthHandler(serviceName, version string, dependencies map[string]Pinger) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, dependencies: dependencies}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready pings every dependency concurrently and reports each one's status and latency.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	type result struct {
		name    string
		err     error
		latency time.Duration
	}
	results := make(chan result, len(h.dependencies))
	for name, dep := range h.dependencies {
		go func(name string, dep Pinger) {
			started := time.Now()
			err := dep.Ping(ctx)
			results <- result{name: name, err: err, latency: time.Since(started)}
		}(name, dep)
	}

	depStatus := fiber.Map{}
	ready := true
	for range h.dependencies {
		res := <-results
		status := fiber.Map{"status": "ok", "latency_ms": res.latency.Milliseconds()}
		if res.err != nil {
			status["status"] = "unavailable"
			status["error"] = res.err.Error()
			ready = false
		}
		depStatus[res.name] = status
	}

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": depStatus,
		},
	})
}
