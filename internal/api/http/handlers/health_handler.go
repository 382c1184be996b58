package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/user-console/internal/observability"
)

// HealthHandler responds to liveness probes and exposes operational counters.
type HealthHandler struct {
	serviceName string
	version     string
	metrics     *observability.Metrics
}

// NewHealthHandler returns a new handler instance.
func NewHealthHandler(serviceName, version string, metrics *observability.Metrics) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, metrics: metrics}
}

// Live reports service liveness. The console holds no durable dependencies;
// the remote API being down surfaces per-request, not here.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Metrics reports renewal counters, the early signal that the remote API is
// rejecting refresh sessions.
func (h *HealthHandler) Metrics(c *fiber.Ctx) error {
	attempted, failed := h.metrics.RenewalCounts()
	return c.JSON(fiber.Map{
		"service": h.serviceName,
		"renewals": fiber.Map{
			"attempted": attempted,
			"failed":    failed,
		},
	})
}
