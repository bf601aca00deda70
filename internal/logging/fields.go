package logging

import (
	"time"

	"github.com/sirupsen/logrus"
)

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// RequestFields 提供 HTTP 访问日志的通用字段。
func RequestFields(method, path, requestID string, status int, started time.Time) logrus.Fields {
	fields := logrus.Fields{
		"action":     "http",
		"method":     method,
		"path":       path,
		"status":     status,
		"elapsed_ms": time.Since(started).Milliseconds(),
	}
	if requestID != "" {
		fields["request_id"] = requestID
	}
	return fields
}

// OperationFields 描述一次文章存储操作，cache_hit 用于观察缓存命中率。
func OperationFields(operation, path string, cacheHit bool) logrus.Fields {
	fields := logrus.Fields{
		"action":    operation,
		"cache_hit": cacheHit,
	}
	if path != "" {
		fields["article_path"] = path
	}
	return fields
}
