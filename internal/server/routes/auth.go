package routes

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/inkhub/inkhub/internal/article"
	"github.com/inkhub/inkhub/internal/auth"
	"github.com/inkhub/inkhub/internal/server"
)

// Credentials 是登录与改密接口依赖的能力，*auth.Authenticator 实现该接口。
type Credentials interface {
	auth.Gate
	Login(password string) (string, error)
	ChangePassword(current, next string) error
	TTL() time.Duration
}

var _ Credentials = (*auth.Authenticator)(nil)

type loginBody struct {
	Password string `json:"password"`
}

type passwordBody struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type tokenPayload struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// RegisterAuthRoutes 注册 /api/login 与 /api/password。
func RegisterAuthRoutes(app fiber.Router, creds Credentials) {
	if app == nil || creds == nil {
		return
	}
	api := app.Group("/api")

	api.Post("/login", func(c fiber.Ctx) error {
		var body loginBody
		if err := bindJSON(c, &body); err != nil {
			return err
		}
		token, err := creds.Login(body.Password)
		if err != nil {
			return err
		}
		return server.Success(c, tokenPayload{
			AccessToken: token,
			TokenType:   "bearer",
			ExpiresIn:   int64(creds.TTL() / time.Second),
		})
	})

	api.Post("/password", server.RequireAuth(creds), func(c fiber.Ctx) error {
		var body passwordBody
		if err := bindJSON(c, &body); err != nil {
			return err
		}
		if strings.TrimSpace(body.NewPassword) == "" {
			return fmt.Errorf("%w: new_password: must not be empty", article.ErrInvalidArgument)
		}
		if err := creds.ChangePassword(body.CurrentPassword, body.NewPassword); err != nil {
			return err
		}
		return server.Success(c, nil, server.WithMessage("password changed"))
	})
}
