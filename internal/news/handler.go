package news

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/aggregator-demo/aggregator/internal/apperr"
	"github.com/aggregator-demo/aggregator/internal/identity"
	"github.com/aggregator-demo/aggregator/internal/validation"
)

// Handler exposes the public feed and the admin news manager.
type Handler struct {
	service *Service
}

// NewHandler constructs a news handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List returns the newest posts.
func (h *Handler) List(c *fiber.Ctx) error {
	posts, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]View, 0, len(posts))
	for _, p := range posts {
		items = append(items, p.View())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"items": items})
}

type createRequest struct {
	Title    string `json:"title" validate:"required"`
	Summary  string `json:"summary" validate:"required"`
	Category string `json:"category"`
}

// Create publishes a post authored by the calling admin.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := validation.Bind(c, &req); err != nil {
		return err
	}
	session, _ := identity.SessionFrom(c.UserContext())
	post, err := h.service.Create(c.UserContext(), Draft{
		Title:       req.Title,
		Summary:     req.Summary,
		Category:    req.Category,
		AuthorEmail: session.Email,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"success": true, "item": post.View()})
}

// Delete removes the post named by the :id route parameter.
func (h *Handler) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid news id", apperr.ErrInvalidRequest)
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"success": true})
}
