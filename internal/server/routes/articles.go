package routes

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/inkhub/inkhub/internal/article"
	"github.com/inkhub/inkhub/internal/auth"
	"github.com/inkhub/inkhub/internal/markdown"
	"github.com/inkhub/inkhub/internal/server"
)

// ArticleService 是路由层依赖的文章操作集合，*article.Service 实现该接口。
type ArticleService interface {
	List(ctx context.Context, force bool) (article.Listing, error)
	Tree(ctx context.Context, force bool) ([]*article.Node, bool, error)
	GetDetail(ctx context.Context, path string, force bool) (*article.Document, bool, error)
	Save(ctx context.Context, req article.SaveRequest) (string, error)
	Delete(ctx context.Context, path, sha string) error
	Rename(ctx context.Context, req article.RenameRequest) (string, error)
	Version(ctx context.Context, force bool) (string, bool, error)
}

var _ ArticleService = (*article.Service)(nil)

// ArticleDeps 汇总文章路由需要的依赖。
type ArticleDeps struct {
	Service ArticleService
	Gate    auth.Gate
	Policy  auth.Policy
}

// headerCache 标记读请求是否由缓存提供。
const headerCache = "X-Cache"

type detailPayload struct {
	*article.Document
	HTML string `json:"html,omitempty"`
}

type writePayload struct {
	Path string `json:"path"`
	SHA  string `json:"sha"`
}

type deleteBody struct {
	Path string `json:"path"`
	SHA  string `json:"sha"`
}

// RegisterArticleRoutes 在 /api 下注册文章相关接口。详情、保存与重命名始终需要登录，
// 列表与删除按 Policy 决定。
func RegisterArticleRoutes(app fiber.Router, deps ArticleDeps) {
	if app == nil || deps.Service == nil {
		return
	}
	h := &articleHandlers{svc: deps.Service}
	api := app.Group("/api")
	guard := server.RequireAuth(deps.Gate)

	if deps.Policy.ProtectList {
		api.Get("/articles", guard, h.list)
	} else {
		api.Get("/articles", h.list)
	}
	api.Get("/article/detail", guard, h.detail)
	api.Post("/article/save", guard, h.save)
	if deps.Policy.ProtectDelete {
		api.Post("/article/delete", guard, h.delete)
	} else {
		api.Post("/article/delete", h.delete)
	}
	api.Post("/article/rename", guard, h.rename)
	api.Get("/version", h.version)
}

type articleHandlers struct {
	svc ArticleService
}

func (h *articleHandlers) list(c fiber.Ctx) error {
	force := queryBool(c, "force_refresh")
	if strings.EqualFold(c.Query("view"), "tree") {
		nodes, hit, err := h.svc.Tree(c.Context(), force)
		if err != nil {
			return err
		}
		setCacheHeader(c, hit)
		if nodes == nil {
			nodes = []*article.Node{}
		}
		return server.Success(c, nodes, server.WithTotal(countFiles(nodes)))
	}

	listing, err := h.svc.List(c.Context(), force)
	if err != nil {
		return err
	}
	setCacheHeader(c, listing.CacheHit)
	articles := listing.Articles
	if articles == nil {
		articles = []article.Node{}
	}
	return server.Success(c, articles, server.WithTotal(len(articles)))
}

func (h *articleHandlers) detail(c fiber.Ctx) error {
	doc, hit, err := h.svc.GetDetail(c.Context(), c.Query("path"), queryBool(c, "force_refresh"))
	if err != nil {
		return err
	}
	setCacheHeader(c, hit)

	payload := detailPayload{Document: doc}
	if queryBool(c, "render") {
		html, err := markdown.RenderHTML(doc.Content)
		if err != nil {
			return fmt.Errorf("render %s: %w", doc.Path, err)
		}
		payload.HTML = html
	}
	return server.Success(c, payload, server.WithSHA(doc.SHA))
}

func (h *articleHandlers) save(c fiber.Ctx) error {
	var req article.SaveRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	sha, err := h.svc.Save(c.Context(), req)
	if err != nil {
		return err
	}
	return server.Success(c, writePayload{Path: req.Path, SHA: sha}, server.WithSHA(sha), server.WithMessage("saved"))
}

func (h *articleHandlers) delete(c fiber.Ctx) error {
	var req deleteBody
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if err := h.svc.Delete(c.Context(), req.Path, req.SHA); err != nil {
		return err
	}
	return server.Success(c, nil, server.WithMessage("deleted"))
}

func (h *articleHandlers) rename(c fiber.Ctx) error {
	var req article.RenameRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	sha, err := h.svc.Rename(c.Context(), req)
	if err != nil {
		return err
	}
	return server.Success(c, writePayload{Path: req.NewPath, SHA: sha}, server.WithSHA(sha), server.WithMessage("renamed"))
}

func (h *articleHandlers) version(c fiber.Ctx) error {
	version, hit, err := h.svc.Version(c.Context(), queryBool(c, "force_refresh"))
	if err != nil {
		return err
	}
	setCacheHeader(c, hit)
	return server.Success(c, fiber.Map{"version": version})
}

// bindJSON 解析请求体，失败时归类为参数错误。
func bindJSON(c fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return fmt.Errorf("%w: request body is required", article.ErrInvalidArgument)
	}
	if err := c.Bind().JSON(out); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", article.ErrInvalidArgument, err)
	}
	return nil
}

func queryBool(c fiber.Ctx, key string) bool {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return false
	}
	v, err := strconv.ParseBool(raw)
	return err == nil && v
}

func setCacheHeader(c fiber.Ctx, hit bool) {
	if hit {
		c.Set(headerCache, "HIT")
		return
	}
	c.Set(headerCache, "MISS")
}

func countFiles(nodes []*article.Node) int {
	total := 0
	for _, n := range nodes {
		if n.Type == article.NodeFile {
			total++
		}
		total += countFiles(n.Children)
	}
	return total
}
