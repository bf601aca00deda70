package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if intVal, err := parseInt(raw); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// parseInt 支持十进制或 0x 前缀的十六进制字符串解析。
func parseInt(value string) (int64, error) {
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		return strconv.ParseInt(value, 0, 64)
	}
	return strconv.ParseInt(value, 10, 64)
}

// GlobalConfig 描述进程级参数：监听端口与日志输出。
type GlobalConfig struct {
	ListenPort    int    `mapstructure:"ListenPort"`
	LogLevel      string `mapstructure:"LogLevel"`
	LogFormat     string `mapstructure:"LogFormat"`
	LogFilePath   string `mapstructure:"LogFilePath"`
	LogMaxSize    int    `mapstructure:"LogMaxSize"`
	LogMaxBackups int    `mapstructure:"LogMaxBackups"`
	LogCompress   bool   `mapstructure:"LogCompress"`
}

// RemoteConfig 描述作为唯一数据源的 GitHub 仓库。
type RemoteConfig struct {
	Repository     string   `mapstructure:"Repository"`
	Branch         string   `mapstructure:"Branch"`
	Token          string   `mapstructure:"Token"`
	BaseURL        string   `mapstructure:"BaseURL"`
	Timeout        Duration `mapstructure:"Timeout"`
	CommitterName  string   `mapstructure:"CommitterName"`
	CommitterEmail string   `mapstructure:"CommitterEmail"`
}

// ContentConfig 决定仓库中哪些路径被视为文章。
type ContentConfig struct {
	PostsRoot     string `mapstructure:"PostsRoot"`
	DraftsRoot    string `mapstructure:"DraftsRoot"`
	Extension     string `mapstructure:"Extension"`
	DefaultFormat string `mapstructure:"DefaultFormat"`
}

// CacheConfig 控制缓存后端与各类条目的 TTL。缓存只是加速层，不可用时服务仍需正确运行。
type CacheConfig struct {
	Backend     string   `mapstructure:"Backend"`
	RedisURL    string   `mapstructure:"RedisURL"`
	KeyPrefix   string   `mapstructure:"KeyPrefix"`
	StoragePath string   `mapstructure:"StoragePath"`
	Timeout     Duration `mapstructure:"Timeout"`
	ListTTL     Duration `mapstructure:"ListTTL"`
	DetailTTL   Duration `mapstructure:"DetailTTL"`
	VersionTTL  Duration `mapstructure:"VersionTTL"`
}

// AuthConfig 描述单管理员鉴权：密码哈希文件、JWT 密钥与访问策略开关。
type AuthConfig struct {
	SecretKey       string   `mapstructure:"SecretKey"`
	AdminPassword   string   `mapstructure:"AdminPassword"`
	CredentialsPath string   `mapstructure:"CredentialsPath"`
	TokenTTL        Duration `mapstructure:"TokenTTL"`
	ForceReset      bool     `mapstructure:"ForceReset"`
	ProtectList     bool     `mapstructure:"ProtectList"`
	ProtectDelete   bool     `mapstructure:"ProtectDelete"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global  GlobalConfig  `mapstructure:",squash"`
	Remote  RemoteConfig  `mapstructure:"Remote"`
	Content ContentConfig `mapstructure:"Content"`
	Cache   CacheConfig   `mapstructure:"Cache"`
	Auth    AuthConfig    `mapstructure:"Auth"`
}

// OwnerAndName 将 "owner/name" 拆分为两段，格式不合法时返回空串。
func (r RemoteConfig) OwnerAndName() (string, string) {
	parts := strings.Split(strings.TrimSpace(r.Repository), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", ""
	}
	return parts[0], parts[1]
}

// HasCredentials 表示是否配置了访问远端仓库的 token。
func (r RemoteConfig) HasCredentials() bool {
	return r.Token != ""
}

// AuthMode 输出 `token` 或 `anonymous`，供日志字段使用。
func (r RemoteConfig) AuthMode() string {
	if r.HasCredentials() {
		return "token"
	}
	return "anonymous"
}
