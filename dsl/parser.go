// Package dsl parses preset files: named groups of conversion parameters.
//
//	// 注释
//	preset bold-print {
//	  mode: halftone
//	  dot_size: 12
//	  dot_resolution: 8
//	}
//
//	preset "bold-invert" extends bold-print { invert: true }
package dsl

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	dslLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Number", Pattern: `-?(?:\d+\.\d+|\d+|\.\d+)`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[:;]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	fileParser = participle.MustBuild[File](
		participle.Lexer(dslLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
	)
)

// File is the root AST node of a preset file.
type File struct {
	Presets []*Preset `parser:"Newline* ( @@ Newline* )*"`
}

// Preset is one named block of parameter entries.
type Preset struct {
	Pos     lexer.Position `parser:"" json:"-"`
	Name    Name           `parser:"'preset' @(Ident | String)"`
	Extends *Name          `parser:"( 'extends' @(Ident | String) )?"`
	Entries []*Entry       `parser:"Newline* '{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Entry uses colon syntax (key: value).
type Entry struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Key   string         `parser:"@Ident"`
	Value *Value         `parser:"':' @@"`
}

// Value is a scalar property value. Bare identifiers are kept as text.
type Value struct {
	String *StringLiteral `parser:"  @String"`
	Number *float64       `parser:"| @Number"`
	Bool   *Boolean       `parser:"| @('true' | 'false')"`
	Ident  *string        `parser:"| @Ident"`
}

// Any returns the Go value held by v: string, float64 or bool.
func (v *Value) Any() any {
	switch {
	case v == nil:
		return nil
	case v.String != nil:
		return string(*v.String)
	case v.Number != nil:
		return *v.Number
	case v.Bool != nil:
		return bool(*v.Bool)
	case v.Ident != nil:
		return *v.Ident
	default:
		return nil
	}
}

// Name is a preset name written bare or quoted.
type Name string

// Capture implements participle.Capture.
func (n *Name) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("preset name capture requires value")
	}
	raw := values[0]
	if strings.HasPrefix(raw, `"`) {
		val, err := strconv.Unquote(raw)
		if err != nil {
			return err
		}
		raw = val
	}
	*n = Name(raw)
	return nil
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Boolean captures the keywords true and false.
type Boolean bool

// Capture implements participle.Capture.
func (b *Boolean) Capture(values []string) error {
	*b = len(values) > 0 && values[0] == "true"
	return nil
}

// Parse parses preset content from an io.Reader. name is used in error
// positions only.
func Parse(name string, r io.Reader) (*File, error) {
	return fileParser.Parse(name, r)
}

// ParseString parses preset content from a string.
func ParseString(name, input string) (*File, error) {
	return fileParser.ParseString(name, input)
}
