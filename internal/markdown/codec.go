// Package markdown 负责文章文件与 (metadata, body) 之间的双向转换，
// 支持 YAML（---）与 TOML（+++）两种头部格式，并提供 HTML 渲染。
package markdown

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrMalformedDocument 表示文件带有头部分隔符但头部内容无法解析。
var ErrMalformedDocument = errors.New("markdown: malformed front matter")

// Format 标识头部的编码方式。
type Format string

const (
	// FormatNone 表示文件没有头部。
	FormatNone Format = ""
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

const (
	yamlDelimiter = "---"
	tomlDelimiter = "+++"
)

// ParseFormat 将配置或请求中的格式名转换为 Format，未知值返回 false。
func ParseFormat(name string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "yaml", "yml":
		return FormatYAML, true
	case "toml":
		return FormatTOML, true
	}
	return FormatNone, false
}

func (f Format) delimiter() string {
	if f == FormatTOML {
		return tomlDelimiter
	}
	return yamlDelimiter
}

// Document 是解析后的文章：头部元数据与正文。
type Document struct {
	Metadata map[string]any
	Body     string
	Format   Format
}

// Parse 拆分头部与正文。没有头部时 Metadata 为空 map、Body 为原文。
func Parse(raw string) (*Document, error) {
	var (
		meta     map[string]any
		detected = FormatNone
	)
	formats := []*frontmatter.Format{
		frontmatter.NewFormat(yamlDelimiter, yamlDelimiter, func(data []byte, v any) error {
			detected = FormatYAML
			return yaml.Unmarshal(data, v)
		}),
		frontmatter.NewFormat(tomlDelimiter, tomlDelimiter, func(data []byte, v any) error {
			detected = FormatTOML
			return toml.Unmarshal(data, v)
		}),
	}

	body, err := frontmatter.Parse(strings.NewReader(raw), &meta, formats...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	return &Document{
		Metadata: normalizeMap(meta),
		Body:     string(body),
		Format:   detected,
	}, nil
}

// Compose 是 Parse 的逆操作：输出 "<delim>\n<meta><delim>\n<body>"，正文原样保留。
// 元数据为空且正文不会被误认为头部时，只输出正文。
func Compose(meta map[string]any, body string, format Format) (string, error) {
	if format == FormatNone {
		format = FormatYAML
	}
	if len(meta) == 0 && !looksLikeHeader(body) {
		return body, nil
	}

	encoded, err := encodeMeta(meta, format)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	delim := format.delimiter()
	buf.Grow(len(encoded) + len(body) + 2*len(delim) + 2)
	buf.WriteString(delim)
	buf.WriteByte('\n')
	buf.Write(encoded)
	if len(encoded) > 0 && encoded[len(encoded)-1] != '\n' {
		buf.WriteByte('\n')
	}
	buf.WriteString(delim)
	buf.WriteByte('\n')
	buf.WriteString(body)
	return buf.String(), nil
}

func encodeMeta(meta map[string]any, format Format) ([]byte, error) {
	switch format {
	case FormatTOML:
		if len(meta) == 0 {
			return nil, nil
		}
		data, err := toml.Marshal(dropNil(meta))
		if err != nil {
			return nil, fmt.Errorf("encode toml front matter: %w", err)
		}
		return data, nil
	case FormatYAML:
		if meta == nil {
			meta = map[string]any{}
		}
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(yamlValue(meta)); err != nil {
			return nil, fmt.Errorf("encode yaml front matter: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml front matter: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported front matter format: %q", format)
	}
}

// yamlValue 把整数值的 float64 换成带 !!float 标签的节点，否则 yaml.v3 会写成
// "1"，再次解析时变为 int。
func yamlValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = yamlValue(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = yamlValue(item)
		}
		return out
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) || v != math.Trunc(v) {
			return v
		}
		text := strconv.FormatFloat(v, 'g', -1, 64)
		if !strings.ContainsAny(text, ".e") {
			text += ".0"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: text}
	case float32:
		return yamlValue(float64(v))
	default:
		return value
	}
}

// looksLikeHeader 判断正文首个非空行是否为分隔符，与头部识别规则保持一致。
func looksLikeHeader(body string) bool {
	scanner := bufio.NewScanner(strings.NewReader(body))
	scanner.Buffer(make([]byte, 0, 1024), len(body)+1)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		return line == yamlDelimiter || line == tomlDelimiter
	}
	return false
}
