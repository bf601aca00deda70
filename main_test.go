package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/inkhub/inkhub/internal/config"
	"github.com/inkhub/inkhub/internal/logging"
	"github.com/inkhub/inkhub/internal/remote/remotetest"
)

func TestParseCLIFlagsPriority(t *testing.T) {
	t.Setenv("INKHUB_CONFIG", "/tmp/env.toml")

	opts, err := parseCLIFlags([]string{})
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if opts.configPath != "/tmp/env.toml" {
		t.Fatalf("应优先使用环境变量，得到 %s", opts.configPath)
	}
	if opts.envFile != ".env" {
		t.Fatalf("默认应加载 .env，得到 %s", opts.envFile)
	}

	opts, err = parseCLIFlags([]string{"--config", "/tmp/flag.toml", "--env-file", ""})
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if opts.configPath != "/tmp/flag.toml" {
		t.Fatalf("flag 应高于环境变量，得到 %s", opts.configPath)
	}
	if opts.envFile != "" {
		t.Fatalf("--env-file 应可置空")
	}
}

func TestParseCLIFlagsRejectsUnknownFlag(t *testing.T) {
	if _, err := parseCLIFlags([]string{"--nope"}); err == nil {
		t.Fatalf("未知参数应返回错误")
	}
}

func TestRunCheckConfigSuccess(t *testing.T) {
	useBufferWriters(t)
	code := run(cliOptions{configPath: configFixture(t, "valid.toml"), checkOnly: true})
	if code != 0 {
		t.Fatalf("期望退出码 0，得到 %d，stderr=%s", code, stdErrBuffer().String())
	}
}

func TestRunCheckConfigFailure(t *testing.T) {
	useBufferWriters(t)
	code := run(cliOptions{configPath: configFixture(t, "missing.toml"), checkOnly: true})
	if code == 0 {
		t.Fatalf("无效配置应返回非零退出码")
	}
	if !strings.Contains(stdErrBuffer().String(), "加载配置失败") {
		t.Fatalf("stderr 应说明失败原因，得到 %s", stdErrBuffer().String())
	}
}

func TestRunVersionOutput(t *testing.T) {
	useBufferWriters(t)
	code := run(cliOptions{showVersion: true})
	if code != 0 {
		t.Fatalf("version 模式应成功退出，得到 %d", code)
	}
	if !strings.Contains(stdOut.(*bytes.Buffer).String(), "inkhub") {
		t.Fatalf("version 输出应包含 inkhub 标识")
	}
}

func TestRunLoadsSecretsFromEnvFile(t *testing.T) {
	for _, key := range []string{"GITHUB_TOKEN", "SECRET_KEY"} {
		if _, ok := os.LookupEnv(key); ok {
			t.Skipf("%s 已在环境中设置", key)
		}
		key := key
		t.Cleanup(func() { _ = os.Unsetenv(key) })
	}

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("GITHUB_TOKEN=ghp_from_env\nSECRET_KEY=from-env\n"), 0o600); err != nil {
		t.Fatalf("写入 .env 失败: %v", err)
	}
	configPath := writeConfigFile(t, `
[Remote]
Repository = "inkhub/content"
`)

	useBufferWriters(t)
	code := run(cliOptions{configPath: configPath, envFile: filepath.Join(dir, "missing.env"), checkOnly: true})
	if code == 0 {
		t.Fatalf("缺少 token 时应校验失败")
	}

	code = run(cliOptions{configPath: configPath, envFile: envFile, checkOnly: true})
	if code != 0 {
		t.Fatalf(".env 中的密钥应被读取，得到 %d，stderr=%s", code, stdErrBuffer().String())
	}
}

func TestBuildAppServesAgainstGitHub(t *testing.T) {
	mem := remotetest.NewMemory()
	mem.Seed("posts/hello.md", "---\ntitle: Hello\n---\nhi")
	mem.Seed("drafts/todo.md", "todo")
	mem.Seed("notes.txt", "ignored")
	srv := remotetest.NewGitHubServer(mem, "inkhub", "content", "main")
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Global: config.GlobalConfig{ListenPort: 8000, LogLevel: "info"},
		Remote: config.RemoteConfig{
			Repository: "inkhub/content",
			Branch:     "main",
			Token:      "ghp_test_token",
			BaseURL:    srv.BaseURL(),
			Timeout:    config.Duration(5 * time.Second),
		},
		Content: config.ContentConfig{PostsRoot: "posts", DraftsRoot: "drafts", Extension: ".md", DefaultFormat: "yaml"},
		Cache: config.CacheConfig{
			Backend:     "disk",
			StoragePath: t.TempDir(),
			Timeout:     config.Duration(time.Second),
			ListTTL:     config.Duration(time.Minute),
			DetailTTL:   config.Duration(time.Minute),
			VersionTTL:  config.Duration(time.Minute),
		},
		Auth: config.AuthConfig{
			SecretKey:       "test-secret",
			AdminPassword:   "admin",
			CredentialsPath: filepath.Join(t.TempDir(), "auth_data.json"),
			TokenTTL:        config.Duration(time.Hour),
			ProtectDelete:   true,
		},
	}

	app, cleanup, err := buildApp(context.Background(), cfg, logging.Discard())
	if err != nil {
		t.Fatalf("装配失败: %v", err)
	}
	t.Cleanup(cleanup)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/articles", nil))
	if err != nil {
		t.Fatalf("请求失败: %v", err)
	}
	var body struct {
		Code int `json:"code"`
		Data []struct {
			Path    string `json:"path"`
			IsDraft bool   `json:"is_draft"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if body.Code != 200 || len(body.Data) != 2 {
		t.Fatalf("列表响应异常: %+v", body)
	}
	if body.Data[0].Path != "posts/hello.md" || !body.Data[1].IsDraft {
		t.Fatalf("列表顺序或草稿标记异常: %+v", body.Data)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/-/healthz", nil))
	if err != nil {
		t.Fatalf("请求失败: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("healthz 应返回 200，得到 %d", resp.StatusCode)
	}

	for _, got := range srv.Authorizations() {
		if got != "Bearer ghp_test_token" {
			t.Fatalf("访问 GitHub 应携带 token，得到 %q", got)
		}
	}
}
