package server

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"github.com/inkhub/inkhub/internal/article"
	"github.com/inkhub/inkhub/internal/auth"
	"github.com/inkhub/inkhub/internal/markdown"
	"github.com/inkhub/inkhub/internal/remote"
)

// ErrUnauthorized 表示请求缺少有效 token。
var ErrUnauthorized = errors.New("unauthorized")

// ConflictMessage 是冲突错误返回给客户端的固定提示。
const ConflictMessage = "upstream conflict: refresh and retry"

// Envelope 是所有接口统一的响应结构。
type Envelope struct {
	Code  int    `json:"code"`
	Msg   string `json:"msg"`
	Data  any    `json:"data"`
	SHA   string `json:"sha,omitempty"`
	Total *int   `json:"total,omitempty"`
}

// ResponseOption 调整成功响应的可选字段。
type ResponseOption func(*Envelope)

// WithSHA 在响应中附带 SHA，客户端下一次写入需要它。
func WithSHA(sha string) ResponseOption {
	return func(e *Envelope) { e.SHA = sha }
}

// WithTotal 在响应中附带条目数量。
func WithTotal(total int) ResponseOption {
	return func(e *Envelope) { e.Total = &total }
}

// WithMessage 覆盖默认的 "success"。
func WithMessage(msg string) ResponseOption {
	return func(e *Envelope) { e.Msg = msg }
}

// Success 写出 200 成功响应。
func Success(c fiber.Ctx, data any, opts ...ResponseOption) error {
	env := Envelope{Code: fiber.StatusOK, Msg: "success", Data: data}
	for _, opt := range opts {
		opt(&env)
	}
	return c.Status(fiber.StatusOK).JSON(env)
}

// Fail 写出失败响应，HTTP 状态码与 code 字段一致。
func Fail(c fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(Envelope{Code: status, Msg: msg})
}

// StatusFor 将领域错误映射为 HTTP 状态码与面向客户端的提示。
func StatusFor(err error) (int, string) {
	var (
		fiberErr  *fiber.Error
		renameErr *article.RenameError
	)
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code, fiberErr.Message
	case errors.Is(err, ErrUnauthorized):
		return fiber.StatusUnauthorized, "unauthorized"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, "invalid credentials"
	case errors.As(err, &renameErr) && renameErr.Partial():
		return fiber.StatusInternalServerError, err.Error()
	case errors.Is(err, article.ErrInvalidArgument):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, remote.ErrNotFound):
		return fiber.StatusNotFound, err.Error()
	case errors.Is(err, remote.ErrConflict):
		return fiber.StatusBadGateway, ConflictMessage
	case renameErr != nil:
		return fiber.StatusInternalServerError, err.Error()
	case errors.Is(err, markdown.ErrMalformedDocument):
		return fiber.StatusInternalServerError, err.Error()
	case errors.Is(err, remote.ErrUnavailable):
		return fiber.StatusInternalServerError, err.Error()
	default:
		return fiber.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	}
}
