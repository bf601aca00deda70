package markdown

import (
	"fmt"
	"math"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// normalizeMap 把解码结果整理成 JSON 友好的形态：
// 非字符串键转为字符串，TOML 的日期时间转为字符串，int64 收敛为 int。
func normalizeMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = normalizeValue(value)
	}
	return out
}

func normalizeValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return normalizeMap(v)
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[fmt.Sprint(key)] = normalizeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeValue(item)
		}
		return out
	case int64:
		if v >= math.MinInt && v <= math.MaxInt {
			return int(v)
		}
		return v
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case toml.LocalDate:
		return v.String()
	case toml.LocalDateTime:
		return v.String()
	case toml.LocalTime:
		return v.String()
	default:
		return value
	}
}

// dropNil 移除 TOML 无法表示的空值。
func dropNil(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		switch v := value.(type) {
		case nil:
			continue
		case map[string]any:
			out[key] = dropNil(v)
		default:
			out[key] = value
		}
	}
	return out
}
