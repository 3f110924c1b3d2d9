// Package binding expands ${path.to.value} placeholders in output path
// templates such as "out/${mode}_${timestamp}.png".
package binding

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]*)\}`)

// Expand 将 template 中的 ${path.to.value} 替换为 data 中的值。
// 路径不存在时返回错误；替换值中的路径分隔符会被替换为 "_"，
// 使模板只能在自身写明的目录下生成文件。
func Expand(template string, data any) (string, error) {
	var firstErr error
	out := exprPattern.ReplaceAllStringFunc(template, func(match string) string {
		if firstErr != nil {
			return match
		}
		path := strings.TrimSpace(exprPattern.FindStringSubmatch(match)[1])
		if path == "" {
			firstErr = fmt.Errorf("模板 %q 含有空占位符", template)
			return match
		}
		val, ok := resolvePath(data, path)
		if !ok {
			firstErr = fmt.Errorf("模板变量 %s 不存在", path)
			return match
		}
		return sanitize(format(val))
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// Vars converts v into the generic map form Expand walks, using the JSON
// field names of v.
func Vars(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("序列化模板变量失败: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("模板变量必须是对象: %w", err)
	}
	return out, nil
}

func format(val any) string {
	switch v := val.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func sanitize(s string) string {
	s = strings.NewReplacer("/", "_", `\`, "_", ":", "-").Replace(s)
	if s == "." || s == ".." {
		return "_"
	}
	return s
}

func resolvePath(data any, path string) (any, bool) {
	current := data
	segments := strings.Split(path, ".")
	for _, segment := range segments {
		name, indexes := parseSegment(segment)
		if name != "" {
			var ok bool
			current, ok = descendMap(current, name)
			if !ok {
				return nil, false
			}
		}
		for _, idxStr := range indexes {
			idx, err := strconv.Atoi(idxStr)
			if err != nil {
				return nil, false
			}
			var ok bool
			current, ok = descendArray(current, idx)
			if !ok {
				return nil, false
			}
		}
	}
	return current, true
}

func parseSegment(segment string) (string, []string) {
	name := segment
	indexes := []string{}
	if i := strings.Index(segment, "["); i != -1 {
		name = segment[:i]
		rest := segment[i:]
		for len(rest) > 0 {
			if rest[0] != '[' {
				break
			}
			end := strings.IndexByte(rest, ']')
			if end == -1 {
				break
			}
			indexes = append(indexes, rest[1:end])
			rest = rest[end+1:]
		}
	}
	return name, indexes
}

func descendMap(current any, key string) (any, bool) {
	switch c := current.(type) {
	case map[string]any:
		val, ok := c[key]
		return val, ok
	case map[string]string:
		val, ok := c[key]
		return val, ok
	default:
		return nil, false
	}
}

func descendArray(current any, idx int) (any, bool) {
	switch c := current.(type) {
	case []any:
		if idx < 0 || idx >= len(c) {
			return nil, false
		}
		return c[idx], true
	default:
		return nil, false
	}
}
