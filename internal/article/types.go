// Package article 组合远端仓库、缓存与内容编解码，提供文章的列表、读取、
// 保存、删除与重命名。远端仓库是唯一事实来源，缓存只用于加速读取。
package article

import (
	"path"
	"strings"
	"time"

	"github.com/inkhub/inkhub/internal/config"
	"github.com/inkhub/inkhub/internal/markdown"
)

// NodeType 区分文件与目录节点。
type NodeType string

const (
	NodeFile   NodeType = "file"
	NodeFolder NodeType = "folder"
)

// Node 是目录树中的一个文件或目录，Path 在一次列表快照内唯一。
type Node struct {
	Name     string   `json:"name"`
	Path     string   `json:"path"`
	Type     NodeType `json:"type"`
	Children []*Node  `json:"children,omitempty"`
	SHA      string   `json:"sha,omitempty"`
	IsDraft  bool     `json:"is_draft"`
}

// Listing 是扁平文章列表及其是否来自缓存。
type Listing struct {
	Articles []Node
	CacheHit bool
}

// Document 是单篇文章的完整内容。
type Document struct {
	Path     string          `json:"path"`
	Title    string          `json:"title"`
	Content  string          `json:"content"`
	Metadata map[string]any  `json:"metadata"`
	SHA      string          `json:"sha"`
	Format   markdown.Format `json:"format,omitempty"`
}

// Layout 描述仓库中哪些路径是文章：发布目录、草稿目录与扩展名。
type Layout struct {
	PostsRoot     string
	DraftsRoot    string
	Extension     string
	DefaultFormat markdown.Format
}

// LayoutFromConfig 从 [Content] 配置段构造 Layout。
func LayoutFromConfig(cfg config.ContentConfig) Layout {
	format, ok := markdown.ParseFormat(cfg.DefaultFormat)
	if !ok {
		format = markdown.FormatYAML
	}
	return Layout{
		PostsRoot:     cfg.PostsRoot,
		DraftsRoot:    cfg.DraftsRoot,
		Extension:     cfg.Extension,
		DefaultFormat: format,
	}
}

func (l Layout) withDefaults() Layout {
	if l.PostsRoot == "" {
		l.PostsRoot = "posts"
	}
	if l.DraftsRoot == "" {
		l.DraftsRoot = "drafts"
	}
	if l.Extension == "" {
		l.Extension = ".md"
	}
	if l.DefaultFormat == markdown.FormatNone {
		l.DefaultFormat = markdown.FormatYAML
	}
	return l
}

// Classify 判断路径是否为文章文件，并返回其是否位于草稿目录下。
func (l Layout) Classify(p string) (isDraft bool, ok bool) {
	if !strings.HasSuffix(p, l.Extension) {
		return false, false
	}
	switch {
	case strings.HasPrefix(p, l.PostsRoot+"/"):
		return false, true
	case strings.HasPrefix(p, l.DraftsRoot+"/"):
		return true, true
	}
	return false, false
}

// rootOf 返回目录所属的根目录及其是否为草稿根，不在任何根下时 ok 为 false。
func (l Layout) rootOf(dir string) (root string, isDraft bool, ok bool) {
	switch {
	case dir == l.PostsRoot || strings.HasPrefix(dir, l.PostsRoot+"/"):
		return l.PostsRoot, false, true
	case dir == l.DraftsRoot || strings.HasPrefix(dir, l.DraftsRoot+"/"):
		return l.DraftsRoot, true, true
	}
	return "", false, false
}

// TTLs 控制各类缓存条目的有效期。
type TTLs struct {
	List    time.Duration
	Detail  time.Duration
	Version time.Duration
}

// TTLsFromConfig 从 [Cache] 配置段读取 TTL。
func TTLsFromConfig(cfg config.CacheConfig) TTLs {
	return TTLs{
		List:    cfg.ListTTL.DurationValue(),
		Detail:  cfg.DetailTTL.DurationValue(),
		Version: cfg.VersionTTL.DurationValue(),
	}
}

// SaveRequest 描述一次保存。SHA 为空或 "new" 表示新建；Metadata 非空时
// Content 视为正文并与元数据组合，否则 Content 即完整文件内容。
type SaveRequest struct {
	Path     string         `json:"path"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
	SHA      string         `json:"sha"`
	Message  string         `json:"message,omitempty"`
	Format   string         `json:"format,omitempty"`
}

// RenameRequest 描述一次重命名。Content 为空时沿用旧文件内容。
type RenameRequest struct {
	OldPath string  `json:"old_path"`
	NewPath string  `json:"new_path"`
	SHA     string  `json:"sha"`
	Content *string `json:"content,omitempty"`
	Message string  `json:"message,omitempty"`
}

// NewRevision 是客户端表示“新建”的 SHA 占位值。
const NewRevision = "new"

func isCreate(sha string) bool {
	return sha == "" || sha == NewRevision
}

// titleOf 优先取 metadata.title，否则使用去掉扩展名的文件名。
func titleOf(meta map[string]any, p string) string {
	if title, ok := meta["title"].(string); ok && strings.TrimSpace(title) != "" {
		return title
	}
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}
