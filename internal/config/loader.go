package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// envBindings 将历史部署使用的环境变量映射到配置键，环境变量优先于文件。
var envBindings = map[string]string{
	"Remote.Token":         "GITHUB_TOKEN",
	"Remote.Repository":    "REPO_NAME",
	"Remote.Branch":        "REPO_BRANCH",
	"Cache.RedisURL":       "REDIS_URL",
	"Auth.SecretKey":       "SECRET_KEY",
	"Auth.AdminPassword":   "ADMIN_PASSWORD",
	"Auth.ForceReset":      "FORCE_RESET_PASSWORD",
	"Auth.CredentialsPath": "AUTH_FILE",
}

// Load 读取并解析 TOML 配置文件，同时注入默认值、环境变量与校验逻辑。
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.toml"
	}

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Cache.StoragePath != "" {
		absStorage, err := filepath.Abs(cfg.Cache.StoragePath)
		if err != nil {
			return nil, fmt.Errorf("无法解析缓存目录: %w", err)
		}
		cfg.Cache.StoragePath = absStorage
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ListenPort", 8000)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFormat", "json")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)

	v.SetDefault("Remote.Branch", "main")
	v.SetDefault("Remote.Timeout", "30s")

	v.SetDefault("Content.PostsRoot", "posts")
	v.SetDefault("Content.DraftsRoot", "drafts")
	v.SetDefault("Content.Extension", ".md")
	v.SetDefault("Content.DefaultFormat", "yaml")

	v.SetDefault("Cache.Backend", "none")
	v.SetDefault("Cache.KeyPrefix", "inkhub:")
	v.SetDefault("Cache.Timeout", "2s")
	v.SetDefault("Cache.ListTTL", "5m")
	v.SetDefault("Cache.DetailTTL", "1h")
	v.SetDefault("Cache.VersionTTL", "1m")

	v.SetDefault("Auth.CredentialsPath", "auth_data.json")
	v.SetDefault("Auth.TokenTTL", "12h")
	v.SetDefault("Auth.ProtectList", false)
	v.SetDefault("Auth.ProtectDelete", true)
}

func bindEnv(v *viper.Viper) error {
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("绑定环境变量 %s 失败: %w", env, err)
		}
	}
	return nil
}

func applyDefaults(cfg *Config) {
	g := &cfg.Global
	if g.ListenPort == 0 {
		g.ListenPort = 8000
	}
	if g.LogLevel == "" {
		g.LogLevel = "info"
	}
	g.LogFormat = strings.ToLower(strings.TrimSpace(g.LogFormat))
	if g.LogFormat == "" {
		g.LogFormat = "json"
	}

	r := &cfg.Remote
	r.Repository = strings.TrimSpace(r.Repository)
	if r.Branch == "" {
		r.Branch = "main"
	}
	if r.Timeout.DurationValue() == 0 {
		r.Timeout = Duration(30 * time.Second)
	}

	c := &cfg.Content
	c.PostsRoot = strings.Trim(strings.TrimSpace(c.PostsRoot), "/")
	c.DraftsRoot = strings.Trim(strings.TrimSpace(c.DraftsRoot), "/")
	if c.Extension != "" && !strings.HasPrefix(c.Extension, ".") {
		c.Extension = "." + c.Extension
	}
	c.DefaultFormat = strings.ToLower(strings.TrimSpace(c.DefaultFormat))
	if c.DefaultFormat == "" {
		c.DefaultFormat = "yaml"
	}

	k := &cfg.Cache
	k.Backend = strings.ToLower(strings.TrimSpace(k.Backend))
	if k.Backend == "" {
		k.Backend = "none"
	}
	if k.Timeout.DurationValue() == 0 {
		k.Timeout = Duration(2 * time.Second)
	}
	if k.ListTTL.DurationValue() == 0 {
		k.ListTTL = Duration(5 * time.Minute)
	}
	if k.DetailTTL.DurationValue() == 0 {
		k.DetailTTL = Duration(time.Hour)
	}
	if k.VersionTTL.DurationValue() == 0 {
		k.VersionTTL = Duration(time.Minute)
	}

	a := &cfg.Auth
	if a.TokenTTL.DurationValue() == 0 {
		a.TokenTTL = Duration(12 * time.Hour)
	}
	if a.CredentialsPath == "" {
		a.CredentialsPath = "auth_data.json"
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}
