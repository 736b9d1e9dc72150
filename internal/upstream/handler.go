package upstream

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/aggregator-demo/aggregator/internal/validation"
)

// Handler exposes the upstream proxy endpoints.
type Handler struct {
	client *Client
}

// NewHandler constructs a proxy handler.
func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

// Search proxies GET /search?query=.
func (h *Handler) Search(c *fiber.Ctx) error {
	query := c.Query("query")
	if query == "" {
		return fiber.NewError(http.StatusBadRequest, "Query parameter is required")
	}
	resp, err := h.client.Search(c.UserContext(), query)
	return relay(c, resp, err)
}

// Shield proxies GET /shield?mints=.
func (h *Handler) Shield(c *fiber.Ctx) error {
	mints := c.Query("mints")
	if mints == "" {
		return fiber.NewError(http.StatusBadRequest, "Mints parameter is required")
	}
	resp, err := h.client.Shield(c.UserContext(), mints)
	return relay(c, resp, err)
}

// Order proxies GET /order.
func (h *Handler) Order(c *fiber.Ctx) error {
	p := OrderParams{
		InputMint:  c.Query("inputMint"),
		OutputMint: c.Query("outputMint"),
		Amount:     c.Query("amount"),
		Taker:      c.Query("taker"),
	}
	if p.InputMint == "" || p.OutputMint == "" || p.Amount == "" {
		return fiber.NewError(http.StatusBadRequest, "inputMint, outputMint, and amount are required")
	}
	resp, err := h.client.Order(c.UserContext(), p)
	return relay(c, resp, err)
}

// Execute proxies POST /execute.
func (h *Handler) Execute(c *fiber.Ctx) error {
	var req ExecuteRequest
	if err := validation.Bind(c, &req); err != nil {
		return err
	}
	resp, err := h.client.Execute(c.UserContext(), req)
	return relay(c, resp, err)
}

// Holdings proxies GET /holdings/:address.
func (h *Handler) Holdings(c *fiber.Ctx) error {
	address := c.Params("address")
	if address == "" {
		return fiber.NewError(http.StatusBadRequest, "Address is required")
	}
	resp, err := h.client.Holdings(c.UserContext(), address)
	return relay(c, resp, err)
}

// PriceHistory serves GET /price/:token?days=.
func (h *Handler) PriceHistory(c *fiber.Ctx) error {
	history, err := h.client.PriceHistory(c.UserContext(), c.Params("token"), c.Query("days", DefaultPriceDays))
	if err != nil {
		return gatewayError(err)
	}
	return c.Status(http.StatusOK).JSON(history)
}

func relay(c *fiber.Ctx, resp Response, err error) error {
	if err != nil {
		return gatewayError(err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(resp.Status).Send(resp.Body)
}

func gatewayError(err error) error {
	if errors.Is(err, ErrUnavailable) || errors.Is(err, ErrMalformed) {
		return fiber.NewError(http.StatusBadGateway, err.Error())
	}
	return fiber.NewError(http.StatusBadGateway, ErrUnavailable.Error())
}
