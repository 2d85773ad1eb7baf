// Package template renders changelog templates with text/template.
//
// Templates get the sprig function set plus upper_first. Referencing a
// missing map key is an error, as is any parse or execution failure; both
// are reported as *RenderError and no partial output is returned.
package template

import (
	"bytes"
	"fmt"
	"text/template"
	"unicode"
	"unicode/utf8"

	"github.com/Masterminds/sprig/v3"
)

// Phases of a RenderError.
const (
	PhaseParse   = "parse"
	PhaseExecute = "execute"
)

// RenderError reports a template that failed to parse or execute.
type RenderError struct {
	Name  string
	Phase string
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%s template %q: %v", e.Phase, e.Name, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Template is a parsed changelog template.
type Template struct {
	name string
	tmpl *template.Template
}

// Parse parses text under name. An empty text renders to an empty string.
func Parse(name, text string) (*Template, error) {
	tmpl, err := template.New(name).
		Funcs(Funcs()).
		Option("missingkey=error").
		Parse(text)
	if err != nil {
		return nil, &RenderError{Name: name, Phase: PhaseParse, Err: err}
	}
	return &Template{name: name, tmpl: tmpl}, nil
}

// Name returns the template name.
func (t *Template) Name() string {
	return t.name
}

// Render executes the template against data.
func (t *Template) Render(data any) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, data); err != nil {
		return "", &RenderError{Name: t.name, Phase: PhaseExecute, Err: err}
	}
	return buf.String(), nil
}

// Funcs returns the functions available to templates.
func Funcs() template.FuncMap {
	funcs := sprig.TxtFuncMap()
	funcs["upper_first"] = UpperFirst
	return funcs
}

// UpperFirst upper-cases the first letter of s.
func UpperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
