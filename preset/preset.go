// Package preset provides named parameter sets for conversions. The
// built-in effects are shipped with the binary; users may add or override
// presets with files in the same syntax (see package dsl).
package preset

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/ByLCY/asciicam/convert"
	"github.com/ByLCY/asciicam/dsl"
)

//go:embed builtin.preset
var builtinSource string

// ErrUnknown is returned by Lookup for names not in the set.
var ErrUnknown = errors.New("preset: unknown preset")

// Preset is a named request template.
type Preset struct {
	Name        string
	Description string
	Extends     string
	Request     convert.Request
}

// Set is an immutable collection of presets in declaration order.
type Set struct {
	byName map[string]*Preset
	order  []string
}

var builtin = sync.OnceValue(func() *Set {
	s, err := Parse("builtin.preset", strings.NewReader(builtinSource))
	if err != nil {
		panic(fmt.Sprintf("内置预设无效: %v", err))
	}
	return s
})

// Builtin returns the presets shipped with the binary.
func Builtin() *Set { return builtin() }

// Load parses the preset file at path.
func Load(path string) (*Set, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开预设文件 %s: %w", path, err)
	}
	defer file.Close()
	return Parse(path, file)
}

// Parse reads a preset file. name is used in error messages.
func Parse(name string, r io.Reader) (*Set, error) {
	doc, err := dsl.Parse(name, r)
	if err != nil {
		return nil, fmt.Errorf("解析预设失败: %w", err)
	}
	s := &Set{byName: make(map[string]*Preset, len(doc.Presets))}
	for _, node := range doc.Presets {
		p, err := fromNode(node)
		if err != nil {
			return nil, err
		}
		if _, dup := s.byName[p.Name]; dup {
			return nil, fmt.Errorf("%s: 预设 %q 重复定义", node.Pos, p.Name)
		}
		s.byName[p.Name] = p
		s.order = append(s.order, p.Name)
	}
	return s, nil
}

// fromNode maps the entries of one preset onto the request JSON schema,
// so preset keys are exactly the request field names.
func fromNode(node *dsl.Preset) (*Preset, error) {
	p := &Preset{Name: string(node.Name)}
	if p.Name == "" {
		return nil, fmt.Errorf("%s: 预设名称不能为空", node.Pos)
	}
	if node.Extends != nil {
		p.Extends = string(*node.Extends)
	}
	fields := make(map[string]any, len(node.Entries))
	for _, e := range node.Entries {
		if e.Key == "description" {
			desc, ok := e.Value.Any().(string)
			if !ok {
				return nil, fmt.Errorf("%s: 预设 %q 的 description 必须是字符串", e.Pos, p.Name)
			}
			p.Description = desc
			continue
		}
		if _, dup := fields[e.Key]; dup {
			return nil, fmt.Errorf("%s: 预设 %q 重复设置 %s", e.Pos, p.Name, e.Key)
		}
		fields[e.Key] = e.Value.Any()
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("%s: 预设 %q: %w", node.Pos, p.Name, err)
	}
	req, err := convert.DecodeRequest(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: 预设 %q: %w", node.Pos, p.Name, err)
	}
	p.Request = req
	return p, nil
}

// With returns a new set holding s and other; presets in other replace
// those of s with the same name.
func (s *Set) With(other *Set) *Set {
	out := &Set{byName: make(map[string]*Preset, len(s.byName)+len(other.byName))}
	for _, src := range []*Set{s, other} {
		for _, name := range src.order {
			if _, ok := out.byName[name]; !ok {
				out.order = append(out.order, name)
			}
			out.byName[name] = src.byName[name]
		}
	}
	return out
}

// Names lists the preset names in declaration order.
func (s *Set) Names() []string {
	return append([]string(nil), s.order...)
}

// Lookup returns the named preset with its extends chain applied: fields
// of a preset override those it extends.
func (s *Set) Lookup(name string) (Preset, error) {
	var chain []*Preset
	seen := map[string]bool{}
	for cur := name; cur != ""; {
		if seen[cur] {
			return Preset{}, fmt.Errorf("预设 %q 的继承链存在循环", name)
		}
		seen[cur] = true
		p, ok := s.byName[cur]
		if !ok {
			if cur == name {
				return Preset{}, fmt.Errorf("%w: %q", ErrUnknown, name)
			}
			return Preset{}, fmt.Errorf("%w: %q 继承的 %q 不存在", ErrUnknown, name, cur)
		}
		chain = append(chain, p)
		cur = p.Extends
	}

	out := *chain[0]
	out.Request = convert.Request{}
	for i := len(chain) - 1; i >= 0; i-- {
		out.Request = out.Request.Overlay(chain[i].Request)
	}
	return out, nil
}
