package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/aggregator-demo/aggregator/internal/identity"
	"github.com/aggregator-demo/aggregator/internal/validation"
	"github.com/aggregator-demo/aggregator/internal/wallet"
)

// Handler exposes register/login/me endpoints.
type Handler struct {
	ids     *identity.Service
	svc     *Service
	wallets *wallet.Service
	logger  *slog.Logger
}

// NewHandler wires the auth endpoints. wallets provisions starter balances on registration.
func NewHandler(ids *identity.Service, svc *Service, wallets *wallet.Service, logger *slog.Logger) *Handler {
	return &Handler{ids: ids, svc: svc, wallets: wallets, logger: logger}
}

type credentialsRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

type authResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token"`
	User    userResponse `json:"user"`
}

// Register creates an account, provisions its starter balances and returns a token.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := validation.Bind(c, &req); err != nil {
		return err
	}
	user, err := h.ids.Register(c.UserContext(), identity.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		return err
	}
	admin := h.ids.IsAdmin(user.Email)
	if h.wallets != nil {
		if err := h.wallets.ProvisionStarter(c.UserContext(), user.ID, admin); err != nil {
			return err
		}
	}
	if h.logger != nil {
		h.logger.Info("auth.register completed",
			slog.String("user_id", user.ID),
			slog.String("email", user.Email),
			slog.Bool("admin", admin),
		)
	}
	return h.respond(c, user, admin)
}

// Login validates credentials and returns a token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := validation.Bind(c, &req); err != nil {
		return err
	}
	user, err := h.ids.Authenticate(c.UserContext(), identity.Credentials{Email: req.Email, Password: req.Password})
	if errors.Is(err, identity.ErrInvalidCredentials) {
		return fiber.NewError(http.StatusUnauthorized, "Invalid email or password")
	}
	if err != nil {
		return err
	}
	return h.respond(c, user, h.ids.IsAdmin(user.Email))
}

// Me returns the profile of the authenticated user.
func (h *Handler) Me(c *fiber.Ctx) error {
	session, ok := identity.SessionFrom(c.UserContext())
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	user, err := h.ids.Get(c.UserContext(), session.UserID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"id":        user.ID,
		"email":     user.Email,
		"isAdmin":   h.ids.IsAdmin(user.Email),
		"createdAt": user.CreatedAt,
	})
}

func (h *Handler) respond(c *fiber.Ctx, user identity.User, admin bool) error {
	token, err := h.svc.Issue(user)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(authResponse{
		Success: true,
		Token:   token,
		User:    userResponse{ID: user.ID, Email: user.Email, IsAdmin: admin},
	})
}
