package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var supportedCacheBackends = map[string]struct{}{
	"redis": {},
	"disk":  {},
	"none":  {},
}

const supportedCacheBackendList = "redis|disk|none"

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	switch g.LogFormat {
	case "", "json", "text":
	default:
		return newFieldError("Global.LogFormat", "仅支持 json/text")
	}

	if err := c.Remote.validate(); err != nil {
		return err
	}
	if err := c.Content.validate(); err != nil {
		return err
	}
	if err := c.Cache.validate(); err != nil {
		return err
	}
	return c.Auth.validate()
}

func (r RemoteConfig) validate() error {
	if r.Repository == "" {
		return newFieldError(sectionField("Remote", "Repository"), "不能为空")
	}
	if owner, name := r.OwnerAndName(); owner == "" || name == "" {
		return newFieldError(sectionField("Remote", "Repository"), "格式必须为 owner/name")
	}
	if strings.TrimSpace(r.Branch) == "" {
		return newFieldError(sectionField("Remote", "Branch"), "不能为空")
	}
	if !r.HasCredentials() {
		return newFieldError(sectionField("Remote", "Token"), "不能为空（可通过 GITHUB_TOKEN 提供）")
	}
	if r.Timeout.DurationValue() <= 0 {
		return newFieldError(sectionField("Remote", "Timeout"), "必须大于 0")
	}
	if r.BaseURL != "" {
		if err := validateBaseURL(r.BaseURL); err != nil {
			return fmt.Errorf("%s: %w", sectionField("Remote", "BaseURL"), err)
		}
	}
	return nil
}

func (c ContentConfig) validate() error {
	if c.PostsRoot == "" {
		return newFieldError(sectionField("Content", "PostsRoot"), "不能为空")
	}
	if c.DraftsRoot == "" {
		return newFieldError(sectionField("Content", "DraftsRoot"), "不能为空")
	}
	if c.PostsRoot == c.DraftsRoot {
		return newFieldError(sectionField("Content", "DraftsRoot"), "不能与 PostsRoot 相同")
	}
	if strings.HasPrefix(c.DraftsRoot+"/", c.PostsRoot+"/") || strings.HasPrefix(c.PostsRoot+"/", c.DraftsRoot+"/") {
		return newFieldError(sectionField("Content", "DraftsRoot"), "不能与 PostsRoot 互相嵌套")
	}
	if c.Extension == "" {
		return newFieldError(sectionField("Content", "Extension"), "不能为空")
	}
	switch c.DefaultFormat {
	case "yaml", "toml":
	default:
		return newFieldError(sectionField("Content", "DefaultFormat"), "仅支持 yaml/toml")
	}
	return nil
}

func (c CacheConfig) validate() error {
	if _, ok := supportedCacheBackends[c.Backend]; !ok {
		return newFieldError(sectionField("Cache", "Backend"), "仅支持 "+supportedCacheBackendList)
	}
	switch c.Backend {
	case "redis":
		if c.RedisURL == "" {
			return newFieldError(sectionField("Cache", "RedisURL"), "redis 后端必须提供（可通过 REDIS_URL 提供）")
		}
	case "disk":
		if c.StoragePath == "" {
			return newFieldError(sectionField("Cache", "StoragePath"), "disk 后端必须提供")
		}
	}
	if c.Timeout.DurationValue() <= 0 {
		return newFieldError(sectionField("Cache", "Timeout"), "必须大于 0")
	}
	if c.ListTTL.DurationValue() <= 0 {
		return newFieldError(sectionField("Cache", "ListTTL"), "必须大于 0")
	}
	if c.DetailTTL.DurationValue() <= 0 {
		return newFieldError(sectionField("Cache", "DetailTTL"), "必须大于 0")
	}
	if c.VersionTTL.DurationValue() <= 0 {
		return newFieldError(sectionField("Cache", "VersionTTL"), "必须大于 0")
	}
	return nil
}

func (a AuthConfig) validate() error {
	if a.SecretKey == "" {
		return newFieldError(sectionField("Auth", "SecretKey"), "不能为空（可通过 SECRET_KEY 提供）")
	}
	if a.CredentialsPath == "" {
		return newFieldError(sectionField("Auth", "CredentialsPath"), "不能为空")
	}
	if a.TokenTTL.DurationValue() <= 0 {
		return newFieldError(sectionField("Auth", "TokenTTL"), "必须大于 0")
	}
	return nil
}

func validateBaseURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("仅支持 http/https: %s", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("缺少 Host: %s", raw)
	}
	return nil
}
