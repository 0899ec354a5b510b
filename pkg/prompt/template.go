// Package prompt renders device-agent instructions from text/template sources
// held in an fs.FS, normally an embedded template directory.
package prompt

import (
	"bytes"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"text/template"
)

// Funcs are available to every template.
var Funcs = template.FuncMap{
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"join":  strings.Join,
	"default": func(def, v string) string {
		if strings.TrimSpace(v) == "" {
			return def
		}
		return v
	},
}

// Template wraps a parsed text/template together with the source it came from.
type Template struct {
	name string
	tmpl *template.Template
	hash string
}

// FromFS parses the template named name inside fsys.
func FromFS(fsys fs.FS, name string, funcs template.FuncMap) (*Template, error) {
	if fsys == nil || name == "" {
		return nil, fmt.Errorf("prompt template source is empty")
	}
	return newTemplate(name, func() ([]byte, error) { return fs.ReadFile(fsys, name) }, funcs)
}

// Must panics when err is non-nil. Used for package-level embedded templates.
func Must(t *Template, err error) *Template {
	if err != nil {
		panic(err)
	}
	return t
}

func newTemplate(name string, load func() ([]byte, error), funcs template.FuncMap) (*Template, error) {
	data, err := load()
	if err != nil {
		return nil, fmt.Errorf("read prompt template %q: %w", name, err)
	}
	tmpl := template.New(path.Base(name)).Option("missingkey=error").Funcs(Funcs)
	if len(funcs) > 0 {
		tmpl = tmpl.Funcs(funcs)
	}
	if _, err := tmpl.Parse(string(data)); err != nil {
		return nil, fmt.Errorf("parse prompt template %q: %w", name, err)
	}
	return &Template{name: name, tmpl: tmpl, hash: computeDigest(data)}, nil
}

// Name returns the source name of the template.
func (t *Template) Name() string { return t.name }

// Render executes the template with the provided data.
func (t *Template) Render(data any) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute prompt template %q: %w", t.name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Digest returns the sha256 hash of the template content.
func (t *Template) Digest() string { return t.hash }
