package routes

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/inkhub/inkhub/internal/server"
	"github.com/inkhub/inkhub/internal/version"
)

// DiagnosticsInfo 描述 /-/healthz 中展示的静态运行信息。
type DiagnosticsInfo struct {
	Repository   string
	Branch       string
	CacheBackend string
	AuthMode     string
	StartedAt    time.Time
}

type healthPayload struct {
	Status        string       `json:"status"`
	Build         version.Info `json:"build"`
	Repository    string       `json:"repository"`
	Branch        string       `json:"branch"`
	CacheBackend  string       `json:"cache_backend"`
	AuthMode      string       `json:"auth_mode"`
	UptimeSeconds int64        `json:"uptime_seconds"`
}

// RegisterDiagnosticsRoutes 暴露 /-/healthz，供部署探活与排查配置。不访问远端仓库。
func RegisterDiagnosticsRoutes(app fiber.Router, info DiagnosticsInfo) {
	if app == nil {
		return
	}
	if info.StartedAt.IsZero() {
		info.StartedAt = time.Now()
	}

	app.Get("/-/healthz", func(c fiber.Ctx) error {
		return server.Success(c, healthPayload{
			Status:        "ok",
			Build:         version.Current(),
			Repository:    info.Repository,
			Branch:        info.Branch,
			CacheBackend:  info.CacheBackend,
			AuthMode:      info.AuthMode,
			UptimeSeconds: int64(time.Since(info.StartedAt) / time.Second),
		})
	})
}
