package article

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/inkhub/inkhub/internal/cache"
	"github.com/inkhub/inkhub/internal/logging"
	"github.com/inkhub/inkhub/internal/markdown"
	"github.com/inkhub/inkhub/internal/remote"
)

// Options 汇总 Service 的依赖，全部显式注入，不依赖包级单例。
type Options struct {
	Store  remote.Store
	Cache  *cache.Layer
	Logger *logrus.Logger
	Layout Layout
	TTLs   TTLs
}

// Service 是文章存储代理：读走缓存优先，写直达远端并在成功后失效缓存。
// 并发写入的正确性完全由远端的条件写保证，进程内不加锁。
type Service struct {
	store  remote.Store
	cache  *cache.Layer
	logger *logrus.Logger
	layout Layout
	ttls   TTLs
	index  *Index
}

// NewService 构造 Service。Store 必填。
func NewService(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, errors.New("article: remote store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	layer := opts.Cache
	if layer == nil {
		layer = cache.NewLayer(cache.Noop{}, 0, logger)
	}
	layout := opts.Layout.withDefaults()
	return &Service{
		store:  opts.Store,
		cache:  layer,
		logger: logger,
		layout: layout,
		ttls:   opts.TTLs,
		index:  NewIndex(opts.Store, layer, layout, opts.TTLs.List, logger),
	}, nil
}

// Index 返回共享的目录索引。
func (s *Service) Index() *Index {
	return s.index
}

// List 见 Index.List。
func (s *Service) List(ctx context.Context, force bool) (Listing, error) {
	listing, err := s.index.List(ctx, force)
	if err == nil {
		s.logger.WithFields(logging.OperationFields("list_articles", "", listing.CacheHit)).
			WithField("total", len(listing.Articles)).
			Debug("articles_listed")
	}
	return listing, err
}

// Tree 见 Index.Tree。
func (s *Service) Tree(ctx context.Context, force bool) ([]*Node, bool, error) {
	return s.index.Tree(ctx, force)
}

// GetDetail 读取单篇文章，返回值中的 bool 表示是否命中缓存。
func (s *Service) GetDetail(ctx context.Context, p string, force bool) (*Document, bool, error) {
	if err := validatePath(p); err != nil {
		return nil, false, err
	}
	key := cache.ArticleKey(p)

	if !force {
		if raw, ok := s.cache.Get(ctx, key); ok {
			var doc Document
			if err := json.Unmarshal([]byte(raw), &doc); err == nil && doc.Path == p {
				return &doc, true, nil
			}
			s.logger.WithFields(logrus.Fields{"action": "article_detail", "cache_key": key}).
				Warn("cache_decode_failed")
		}
	}

	file, err := s.store.ReadFile(ctx, p)
	if err != nil {
		return nil, false, err
	}
	parsed, err := markdown.Parse(string(file.Content))
	if err != nil {
		return nil, false, err
	}

	doc := &Document{
		Path:     p,
		Title:    titleOf(parsed.Metadata, p),
		Content:  parsed.Body,
		Metadata: parsed.Metadata,
		SHA:      file.SHA,
		Format:   parsed.Format,
	}
	if payload, err := json.Marshal(doc); err == nil {
		s.cache.Set(ctx, key, string(payload), s.ttls.Detail)
	}

	s.logger.WithFields(logging.OperationFields("article_detail", p, false)).Debug("article_loaded")
	return doc, false, nil
}

// Save 新建或条件更新文章，返回新的 SHA。调用方必须保存该 SHA 用于下一次写入。
func (s *Service) Save(ctx context.Context, req SaveRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", invalidArgument(err)
	}

	raw := req.Content
	if req.Metadata != nil {
		format := s.layout.DefaultFormat
		if req.Format != "" {
			parsed, ok := markdown.ParseFormat(req.Format)
			if !ok {
				return "", invalidArgument(errors.New("format: must be yaml or toml"))
			}
			format = parsed
		}
		composed, err := markdown.Compose(req.Metadata, req.Content, format)
		if err != nil {
			return "", invalidArgument(err)
		}
		raw = composed
	}

	expected := req.SHA
	if isCreate(expected) {
		expected = ""
	}
	write := remote.WriteRequest{
		Path:    req.Path,
		Content: []byte(raw),
		SHA:     expected,
		Message: req.Message,
	}

	sha, err := s.store.WriteFile(ctx, write)
	if err != nil && write.Creating() && errors.Is(err, remote.ErrAlreadyExists) {
		sha, err = s.repairCreateRace(ctx, write, err)
	}
	if err != nil {
		return "", err
	}

	s.invalidate(ctx, req.Path)
	s.logger.WithFields(logging.OperationFields("article_save", req.Path, false)).
		WithFields(logrus.Fields{"created": write.Creating(), "sha": sha}).
		Info("article_saved")
	return sha, nil
}

// repairCreateRace 处理“新建时路径已被他人创建”的竞态：读取当前 SHA 后
// 以更新语义重试一次，重试失败时返回最初的冲突错误。
func (s *Service) repairCreateRace(ctx context.Context, write remote.WriteRequest, original error) (string, error) {
	fields := logging.OperationFields("article_save", write.Path, false)

	current, err := s.store.ReadFile(ctx, write.Path)
	if err != nil {
		s.logger.WithFields(fields).WithError(err).Warn("save_create_race_unrepaired")
		return "", original
	}
	write.SHA = current.SHA
	sha, err := s.store.WriteFile(ctx, write)
	if err != nil {
		s.logger.WithFields(fields).WithError(err).Warn("save_create_race_unrepaired")
		return "", original
	}
	s.logger.WithFields(fields).Warn("save_create_race_repaired")
	return sha, nil
}

// Delete 以给定 SHA 条件删除文章。
func (s *Service) Delete(ctx context.Context, p, sha string) error {
	if err := (deleteRequest{Path: p, SHA: sha}).Validate(); err != nil {
		return invalidArgument(err)
	}
	if err := s.store.DeleteFile(ctx, remote.DeleteRequest{Path: p, SHA: sha}); err != nil {
		return err
	}
	s.invalidate(ctx, p)
	s.logger.WithFields(logging.OperationFields("article_delete", p, false)).Info("article_deleted")
	return nil
}

// Rename 以“新建目标 + 删除源”两步完成重命名，两步之间没有原子性：
// 删除失败时目标已存在，返回 Step 为 delete_source 的 RenameError。
func (s *Service) Rename(ctx context.Context, req RenameRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", invalidArgument(err)
	}

	var content []byte
	if req.Content != nil {
		content = []byte(*req.Content)
	} else {
		file, err := s.store.ReadFile(ctx, req.OldPath)
		if err != nil {
			return "", &RenameError{Step: StepReadSource, Path: req.OldPath, Err: err}
		}
		content = file.Content
	}

	newSHA, err := s.store.WriteFile(ctx, remote.WriteRequest{
		Path:    req.NewPath,
		Content: content,
		Message: renameMessage(req),
	})
	if err != nil {
		return "", &RenameError{Step: StepCreateTarget, Path: req.NewPath, Err: err}
	}
	s.invalidate(ctx, req.OldPath, req.NewPath)

	fields := logging.OperationFields("article_rename", req.OldPath, false)
	fields["new_path"] = req.NewPath
	err = s.store.DeleteFile(ctx, remote.DeleteRequest{
		Path:    req.OldPath,
		SHA:     req.SHA,
		Message: renameMessage(req),
	})
	if err != nil {
		s.logger.WithFields(fields).WithError(err).Error("rename_partial_failure")
		return "", &RenameError{Step: StepDeleteSource, Path: req.OldPath, NewPath: req.NewPath, Err: err}
	}

	s.logger.WithFields(fields).Info("article_renamed")
	return newSHA, nil
}

// Version 返回分支头部提交 ID，供客户端判断远端是否有变化。
func (s *Service) Version(ctx context.Context, force bool) (string, bool, error) {
	if !force {
		if version, ok := s.cache.Get(ctx, cache.KeyVersion); ok && version != "" {
			return version, true, nil
		}
	}
	version, err := s.store.LatestCommitID(ctx)
	if err != nil {
		return "", false, err
	}
	s.cache.Set(ctx, cache.KeyVersion, version, s.ttls.Version)
	return version, false, nil
}

// invalidate 删除列表、版本以及涉及路径的详情缓存。
func (s *Service) invalidate(ctx context.Context, paths ...string) {
	keys := make([]string, 0, len(paths)+2)
	keys = append(keys, cache.KeyArticles, cache.KeyVersion)
	for _, p := range paths {
		keys = append(keys, cache.ArticleKey(p))
	}
	s.cache.Invalidate(ctx, keys...)
}

func renameMessage(req RenameRequest) string {
	if req.Message != "" {
		return req.Message
	}
	return "Rename " + req.OldPath + " to " + req.NewPath
}
