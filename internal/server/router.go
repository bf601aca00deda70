package server

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/inkhub/inkhub/internal/auth"
	"github.com/inkhub/inkhub/internal/logging"
)

// AppOptions controls how the Fiber application should behave.
type AppOptions struct {
	Logger *logrus.Logger
	// AppName 出现在 Server 头中，留空时使用 fiber 默认值。
	AppName string
}

const contextKeyRequestID = "_inkhub_request_id"

// NewApp builds a Fiber application with the request ID and access log
// middleware and envelope-shaped error handling. Routes are registered by the
// routes package.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}

	errHandler := newErrorHandler(opts.Logger)
	app := fiber.New(fiber.Config{
		AppName:       opts.AppName,
		CaseSensitive: true,
		ErrorHandler:  errHandler,
	})

	app.Use(requestContextMiddleware())
	app.Use(accessLogMiddleware(opts.Logger, errHandler))
	// recover 位于访问日志之内，panic 转成的错误同样被记录并渲染为 500。
	app.Use(recover.New())

	return app, nil
}

// requestContextMiddleware 负责生成请求 ID，同时回写 X-Request-ID 头。
func requestContextMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := strings.TrimSpace(c.Get("X-Request-ID"))
		if reqID == "" || len(reqID) > 64 {
			reqID = uuid.NewString()
		}
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	}
}

// accessLogMiddleware 在请求结束后输出一条访问日志。处理链返回的错误在这里
// 交给错误处理器渲染，从而记录到真实的状态码。
func accessLogMiddleware(logger *logrus.Logger, errHandler fiber.ErrorHandler) fiber.Handler {
	return func(c fiber.Ctx) error {
		started := time.Now()
		chainErr := c.Next()
		if chainErr != nil {
			if err := errHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		entry := logger.WithFields(logging.RequestFields(c.Method(), c.Path(), RequestID(c), status, started))
		switch {
		case isDiagnosticsPath(c.Path()):
			entry.Debug("http_request")
		case status >= fiber.StatusInternalServerError:
			entry.WithError(chainErr).Error("http_request")
		case status >= fiber.StatusBadRequest:
			entry.Warn("http_request")
		default:
			entry.Info("http_request")
		}
		return nil
	}
}

func newErrorHandler(logger *logrus.Logger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		status, msg := StatusFor(err)
		if status >= fiber.StatusInternalServerError {
			logger.WithError(err).
				WithFields(logrus.Fields{"action": "http", "path": c.Path(), "request_id": RequestID(c)}).
				Error("request_failed")
		}
		return Fail(c, status, msg)
	}
}

// RequireAuth 拒绝没有有效 Bearer token 的请求。
func RequireAuth(gate auth.Gate) fiber.Handler {
	return func(c fiber.Ctx) error {
		if gate == nil || !gate.Authorized(c.Get(fiber.HeaderAuthorization)) {
			c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
			return ErrUnauthorized
		}
		return c.Next()
	}
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}

func isDiagnosticsPath(path string) bool {
	return strings.HasPrefix(path, "/-/")
}
