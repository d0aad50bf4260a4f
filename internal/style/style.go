package style

import (
	"fmt"
	"strings"

	"github.com/aymerick/douceur/parser"
)

// Declaration is a single CSS property assignment.
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

// Declarations is an ordered inline style.
type Declarations []Declaration

// Parse reads inline style text such as "padding: 20px; margin: 24px 0".
func Parse(text string) (Declarations, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	// The declaration parser drops a final declaration that is not terminated.
	if !strings.HasSuffix(text, ";") {
		text += ";"
	}
	decls, err := parser.ParseDeclarations(text)
	if err != nil {
		return nil, fmt.Errorf("parse style: %w", err)
	}
	out := make(Declarations, 0, len(decls))
	for _, d := range decls {
		if d == nil {
			continue
		}
		prop := strings.ToLower(strings.TrimSpace(d.Property))
		val := strings.TrimSpace(d.Value)
		if prop == "" || val == "" {
			continue
		}
		out = append(out, Declaration{Property: prop, Value: val, Important: d.Important})
	}
	return out, nil
}

// MustParse is Parse for package-level defaults.
func MustParse(text string) Declarations {
	d, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return d
}

// Get returns the value of prop, if set.
func (d Declarations) Get(prop string) (string, bool) {
	prop = strings.ToLower(prop)
	for i := len(d) - 1; i >= 0; i-- {
		if d[i].Property == prop {
			return d[i].Value, true
		}
	}
	return "", false
}

// String renders the declarations as an inline style attribute value.
func (d Declarations) String() string {
	parts := make([]string, 0, len(d))
	for _, decl := range d {
		s := decl.Property + ": " + decl.Value
		if decl.Important {
			s += " !important"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "; ")
}

// Merge returns base with every property of override applied on top.
// Properties keep their position in base; new ones are appended.
func Merge(base, override Declarations) Declarations {
	out := make(Declarations, len(base), len(base)+len(override))
	copy(out, base)
	for _, o := range override {
		replaced := false
		for i := range out {
			if out[i].Property == o.Property {
				out[i] = o
				replaced = true
			}
		}
		if !replaced {
			out = append(out, o)
		}
	}
	return out
}
