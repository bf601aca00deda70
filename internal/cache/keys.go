package cache

const (
	// KeyArticles 缓存扁平文章列表。
	KeyArticles = "articles"
	// KeyVersion 缓存分支头部提交 ID。
	KeyVersion = "version"
	// ArticleKeyPrefix 是文章详情 key 的公共前缀。
	ArticleKeyPrefix = "article:"
)

// ArticleKey 返回某篇文章详情的缓存 key。
func ArticleKey(path string) string {
	return ArticleKeyPrefix + path
}
