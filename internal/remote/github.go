package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v74/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// GitHubOptions 描述 GitHubStore 的连接参数。
type GitHubOptions struct {
	Owner          string
	Repo           string
	Branch         string
	Token          string
	BaseURL        string
	Timeout        time.Duration
	CommitterName  string
	CommitterEmail string
	// HTTPClient 为底层传输，token 注入在其之上完成；为空时使用 http.DefaultClient。
	HTTPClient *http.Client
	Logger     *logrus.Logger
}

// GitHubStore 基于 GitHub Contents/Git Data API 实现 Store。
type GitHubStore struct {
	client    *github.Client
	owner     string
	repo      string
	branch    string
	timeout   time.Duration
	committer *github.CommitAuthor
	logger    *logrus.Logger
}

// NewGitHubStore 构造带 token 鉴权的 GitHub 客户端，BaseURL 可指向 GHE 或测试桩。
func NewGitHubStore(opts GitHubOptions) (*GitHubStore, error) {
	if opts.Owner == "" || opts.Repo == "" {
		return nil, errors.New("remote: owner and repo are required")
	}
	if opts.Branch == "" {
		opts.Branch = "main"
	}

	base := opts.HTTPClient
	if base == nil {
		base = http.DefaultClient
	}
	httpClient := base
	if opts.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}))
		httpClient.Timeout = base.Timeout
	}

	client := github.NewClient(httpClient)
	if opts.BaseURL != "" {
		raw := opts.BaseURL
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		parsed, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("remote: invalid base url: %w", err)
		}
		client.BaseURL = parsed
	}

	store := &GitHubStore{
		client:  client,
		owner:   opts.Owner,
		repo:    opts.Repo,
		branch:  opts.Branch,
		timeout: opts.Timeout,
		logger:  opts.Logger,
	}
	if store.logger == nil {
		store.logger = logrus.StandardLogger()
	}
	if opts.CommitterName != "" && opts.CommitterEmail != "" {
		store.committer = &github.CommitAuthor{
			Name:  github.Ptr(opts.CommitterName),
			Email: github.Ptr(opts.CommitterEmail),
		}
	}
	return store, nil
}

// Branch 返回当前绑定的分支名。
func (s *GitHubStore) Branch() string {
	return s.branch
}

func (s *GitHubStore) ListTree(ctx context.Context) ([]TreeEntry, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tree, _, err := s.client.Git.GetTree(ctx, s.owner, s.repo, s.branch, true)
	if err != nil {
		return nil, classify("list_tree", s.branch, err, false)
	}
	// TODO: 截断时改为逐目录拉取子树。
	if tree.GetTruncated() {
		s.logger.WithFields(logrus.Fields{
			"action":  "list_tree",
			"repo":    s.owner + "/" + s.repo,
			"branch":  s.branch,
			"entries": len(tree.Entries),
		}).Warn("tree_truncated")
	}

	entries := make([]TreeEntry, 0, len(tree.Entries))
	for _, entry := range tree.Entries {
		var kind EntryType
		switch entry.GetType() {
		case string(EntryBlob):
			kind = EntryBlob
		case string(EntryTree):
			kind = EntryTree
		default:
			continue
		}
		entries = append(entries, TreeEntry{
			Path: entry.GetPath(),
			SHA:  entry.GetSHA(),
			Type: kind,
		})
	}
	return entries, nil
}

func (s *GitHubStore) ReadFile(ctx context.Context, path string) (*File, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	fc, _, _, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, path, &github.RepositoryContentGetOptions{Ref: s.branch})
	if err != nil {
		return nil, classify("read_file", path, err, false)
	}
	if fc == nil {
		// 路径指向目录
		return nil, notFound("read_file", path)
	}
	content, err := fc.GetContent()
	if err != nil {
		return nil, unavailable("read_file", path, err)
	}
	return &File{
		Path:    path,
		Content: []byte(content),
		SHA:     fc.GetSHA(),
	}, nil
}

func (s *GitHubStore) WriteFile(ctx context.Context, req WriteRequest) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	opts := &github.RepositoryContentFileOptions{
		Message:   github.Ptr(commitMessage(req.Message, req.Creating(), req.Path)),
		Content:   req.Content,
		Branch:    github.Ptr(s.branch),
		Committer: s.committer,
	}

	var (
		resp *github.RepositoryContentResponse
		err  error
	)
	if req.Creating() {
		resp, _, err = s.client.Repositories.CreateFile(ctx, s.owner, s.repo, req.Path, opts)
	} else {
		opts.SHA = github.Ptr(req.SHA)
		resp, _, err = s.client.Repositories.UpdateFile(ctx, s.owner, s.repo, req.Path, opts)
	}
	if err != nil {
		if isConflictStatus(err, req.Creating()) {
			return "", &ConflictError{Path: req.Path, ExpectedSHA: req.SHA, AlreadyExists: req.Creating(), Err: err}
		}
		return "", classify("write_file", req.Path, err, req.Creating())
	}
	sha := resp.GetContent().GetSHA()
	if sha == "" {
		return "", unavailable("write_file", req.Path, errors.New("response carries no content sha"))
	}
	return sha, nil
}

func (s *GitHubStore) DeleteFile(ctx context.Context, req DeleteRequest) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	opts := &github.RepositoryContentFileOptions{
		Message:   github.Ptr(deleteMessage(req.Message, req.Path)),
		SHA:       github.Ptr(req.SHA),
		Branch:    github.Ptr(s.branch),
		Committer: s.committer,
	}
	if _, _, err := s.client.Repositories.DeleteFile(ctx, s.owner, s.repo, req.Path, opts); err != nil {
		if isConflictStatus(err, false) {
			return &ConflictError{Path: req.Path, ExpectedSHA: req.SHA, Err: err}
		}
		return classify("delete_file", req.Path, err, false)
	}
	return nil
}

func (s *GitHubStore) LatestCommitID(ctx context.Context) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	branch, _, err := s.client.Repositories.GetBranch(ctx, s.owner, s.repo, s.branch, 1)
	if err != nil {
		return "", classify("latest_commit", s.branch, err, false)
	}
	sha := branch.GetCommit().GetSHA()
	if sha == "" {
		return "", unavailable("latest_commit", s.branch, errors.New("branch carries no commit"))
	}
	return sha, nil
}

func (s *GitHubStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// isConflictStatus 判断写操作的失败是否来自版本不一致：
// 409 表示 SHA 过期；创建时的 422 表示路径已存在（未提供 sha）。
func isConflictStatus(err error, creating bool) bool {
	switch statusOf(err) {
	case http.StatusConflict:
		return true
	case http.StatusUnprocessableEntity:
		return creating
	}
	return false
}

func classify(op, path string, err error, creating bool) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	switch statusOf(err) {
	case http.StatusNotFound:
		return notFound(op, path)
	case http.StatusConflict:
		return &ConflictError{Path: path, AlreadyExists: creating, Err: err}
	}
	return unavailable(op, path, err)
}

func statusOf(err error) int {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode
	}
	return 0
}

func commitMessage(message string, creating bool, path string) string {
	if message != "" {
		return message
	}
	if creating {
		return "Create " + path
	}
	return "Update " + path
}

func deleteMessage(message, path string) string {
	if message != "" {
		return message
	}
	return "Delete " + path
}
