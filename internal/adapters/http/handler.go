package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ersin/stackd/internal/adapters/builder"
	"github.com/ersin/stackd/internal/core/domain"
	"github.com/ersin/stackd/internal/core/ports"
)

type StackHandler struct {
	service ports.StackService
}

func NewStackHandler(service ports.StackService) *StackHandler {
	return &StackHandler{service: service}
}

func (h *StackHandler) ListStacks(c *fiber.Ctx) error {
	stacks, err := h.service.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(stacks)
}

// DeployStack builds the application image from the requested source and
// brings the whole stack up. This is a blocking operation and might take
// time.
func (h *StackHandler) DeployStack(c *fiber.Ctx) error {
	var req domain.DeployRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Stack name is required",
		})
	}
	if req.RepoURL == "" && req.SourceDir == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Repo URL or source dir is required",
		})
	}

	info, err := h.service.Deploy(c.Context(), req)
	if err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, builder.ErrLintGate) {
			status = fiber.StatusUnprocessableEntity
		}
		return c.Status(status).JSON(fiber.Map{
			"error": "Deploy failed: " + err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(info)
}

func (h *StackHandler) TeardownStack(c *fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Stack name is required",
		})
	}

	if err := h.service.Teardown(c.Context(), name); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *StackHandler) StackManifest(c *fiber.Ctx) error {
	name := c.Params("name")
	manifest, err := h.service.Manifest(c.Context(), name)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	c.Set("Content-Type", "application/yaml")
	return c.Send(manifest)
}

func (h *StackHandler) ServiceLogs(c *fiber.Ctx) error {
	name := c.Params("name")
	service := c.Params("service")
	if name == "" || service == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Stack and service names are required",
		})
	}

	logs, err := h.service.Logs(c.Context(), name, service)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	c.Set("Content-Type", "text/plain")
	return c.SendStream(logs)
}
