package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfgPath := testConfigPath(t, "valid.toml")

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if cfg.Global.ListenPort != 8000 {
		t.Fatalf("ListenPort 应当被解析，得到 %d", cfg.Global.ListenPort)
	}
	if cfg.Remote.Timeout.DurationValue() != 20*time.Second {
		t.Fatalf("Remote.Timeout 应为 20s，得到 %s", cfg.Remote.Timeout.DurationValue())
	}
	if cfg.Cache.ListTTL.DurationValue() != 5*time.Minute {
		t.Fatalf("ListTTL 300 秒应解析为 5m")
	}
	if cfg.Cache.DetailTTL.DurationValue() == 0 || cfg.Cache.VersionTTL.DurationValue() == 0 {
		t.Fatalf("未配置的 TTL 应自动填充默认值")
	}
	if cfg.Content.Extension != ".md" {
		t.Fatalf("Extension 默认应为 .md，得到 %s", cfg.Content.Extension)
	}
	if !cfg.Auth.ProtectDelete || cfg.Auth.ProtectList {
		t.Fatalf("默认策略应保护删除、放开列表")
	}
	owner, name := cfg.Remote.OwnerAndName()
	if owner != "inkhub" || name != "content" {
		t.Fatalf("Repository 拆分错误: %s/%s", owner, name)
	}
}

func TestValidateRejectsMissingRepository(t *testing.T) {
	cfgPath := testConfigPath(t, "missing.toml")

	if _, err := Load(cfgPath); err == nil {
		t.Fatalf("不合法的配置应返回错误")
	}
}

func TestValidateEnforcesListenPortRange(t *testing.T) {
	cfg := validConfig()
	cfg.Global.ListenPort = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatalf("ListenPort 超出范围应当报错")
	}
}

func TestCacheBackendValidation(t *testing.T) {
	testCases := []struct {
		name      string
		backend   string
		redisURL  string
		storage   string
		shouldErr bool
	}{
		{"none ok", "none", "", "", false},
		{"redis ok", "redis", "redis://localhost:6379/0", "", false},
		{"redis missing url", "redis", "", "", true},
		{"disk ok", "disk", "", "./cache", false},
		{"disk missing path", "disk", "", "", true},
		{"unsupported backend", "memcached", "", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Cache.Backend = tc.backend
			cfg.Cache.RedisURL = tc.redisURL
			cfg.Cache.StoragePath = tc.storage
			err := cfg.Validate()
			if tc.shouldErr && err == nil {
				t.Fatalf("expected error for backend %q", tc.backend)
			}
			if !tc.shouldErr && err != nil {
				t.Fatalf("unexpected error for backend %q: %v", tc.backend, err)
			}
		})
	}
}

func TestValidateRejectsNestedRoots(t *testing.T) {
	cfg := validConfig()
	cfg.Content.DraftsRoot = "posts/drafts"
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("嵌套的内容根目录应报错")
	}
	var fieldErr FieldError
	if !errors.As(err, &fieldErr) || fieldErr.Field != "Content.DraftsRoot" {
		t.Fatalf("期望 Content.DraftsRoot 的 FieldError，得到 %v", err)
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("FieldError 应可通过 errors.Is 识别为 ErrInvalidConfig")
	}
}

func TestValidateLogFormat(t *testing.T) {
	cfg := validConfig()
	cfg.Global.LogFormat = "text"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("text 格式应合法: %v", err)
	}
	cfg.Global.LogFormat = "xml"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("未知日志格式应报错")
	}
}

func TestValidateRequiresRepositoryShape(t *testing.T) {
	cfg := validConfig()
	cfg.Remote.Repository = "no-slash"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Repository 缺少 owner/name 应报错")
	}
}

func validConfig() *Config {
	return &Config{
		Global: GlobalConfig{
			ListenPort: 8000,
			LogLevel:   "info",
		},
		Remote: RemoteConfig{
			Repository: "inkhub/content",
			Branch:     "main",
			Token:      "t",
			Timeout:    Duration(30 * time.Second),
		},
		Content: ContentConfig{
			PostsRoot:     "posts",
			DraftsRoot:    "drafts",
			Extension:     ".md",
			DefaultFormat: "yaml",
		},
		Cache: CacheConfig{
			Backend:    "none",
			Timeout:    Duration(time.Second),
			ListTTL:    Duration(time.Minute),
			DetailTTL:  Duration(time.Hour),
			VersionTTL: Duration(time.Minute),
		},
		Auth: AuthConfig{
			SecretKey:       "s",
			CredentialsPath: "auth_data.json",
			TokenTTL:        Duration(time.Hour),
		},
	}
}
