package remote

import "context"

// Store 抽象远端仓库的文件树、读写与删除能力，是文章存在性与 SHA 的唯一权威。
type Store interface {
	// ListTree 返回分支上完整的递归文件列表，顺序与远端返回一致。
	ListTree(ctx context.Context) ([]TreeEntry, error)

	// ReadFile 读取单个文件的解码后内容及其 SHA。不存在时返回 ErrNotFound。
	ReadFile(ctx context.Context, path string) (*File, error)

	// WriteFile 在 SHA 为空时创建文件，否则执行条件更新，返回新的 SHA。
	WriteFile(ctx context.Context, req WriteRequest) (string, error)

	// DeleteFile 以给定 SHA 为前提条件删除文件。
	DeleteFile(ctx context.Context, req DeleteRequest) error

	// LatestCommitID 返回分支头部提交 ID，仅用作缓存失效提示。
	LatestCommitID(ctx context.Context) (string, error)
}

// EntryType 区分树条目是文件还是目录。
type EntryType string

const (
	EntryBlob EntryType = "blob"
	EntryTree EntryType = "tree"
)

// TreeEntry 是 ListTree 的单条结果，Path 为仓库相对路径。
type TreeEntry struct {
	Path string
	SHA  string
	Type EntryType
}

// File 是 ReadFile 的结果，Content 已完成 base64 解码。
type File struct {
	Path    string
	Content []byte
	SHA     string
}

// WriteRequest 描述一次创建或条件更新。
type WriteRequest struct {
	Path    string
	Content []byte
	SHA     string
	Message string
}

// Creating 表示该请求是否为创建语义。
func (r WriteRequest) Creating() bool {
	return r.SHA == ""
}

// DeleteRequest 描述一次条件删除。
type DeleteRequest struct {
	Path    string
	SHA     string
	Message string
}
