package main

import (
	"bytes"
	"path/filepath"
	"testing"
)

// useBufferWriters 在测试期间把 stdOut/stdErr 换成内存缓冲，结束后恢复。
func useBufferWriters(t *testing.T) {
	t.Helper()
	prevOut, prevErr := stdOut, stdErr
	stdOut, stdErr = &bytes.Buffer{}, &bytes.Buffer{}
	t.Cleanup(func() {
		stdOut, stdErr = prevOut, prevErr
	})
}

func stdErrBuffer() *bytes.Buffer {
	buf, _ := stdErr.(*bytes.Buffer)
	return buf
}

// configFixture 返回 internal/config/testdata 下的配置样例，并清空会覆盖
// 配置文件的环境变量。go test 的工作目录即模块根目录。
func configFixture(t *testing.T, name string) string {
	t.Helper()
	for _, env := range []string{"GITHUB_TOKEN", "REPO_NAME", "REPO_BRANCH", "REDIS_URL", "SECRET_KEY", "ADMIN_PASSWORD", "FORCE_RESET_PASSWORD", "AUTH_FILE"} {
		t.Setenv(env, "")
	}
	return filepath.Join("internal", "config", "testdata", name)
}
