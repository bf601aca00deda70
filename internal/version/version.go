// Package version 保存构建时通过 -ldflags 注入的版本信息。
package version

import (
	"fmt"
	"runtime"
)

// Name 是二进制与 User-Agent 中使用的产品名。
const Name = "inkhub"

var (
	Version = "0.1.0"
	Commit  = "dev"
)

// Info 是版本信息的快照，供 CLI 与诊断接口输出。
type Info struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	GoVersion string `json:"go_version"`
}

// Current 返回当前进程的版本信息。
func Current() Info {
	return Info{Name: Name, Version: Version, Commit: Commit, GoVersion: runtime.Version()}
}

// Full 返回单行版本字符串，例如 "inkhub 0.1.0 (dev)"。
func Full() string {
	return fmt.Sprintf("%s %s (%s)", Name, Version, Commit)
}
