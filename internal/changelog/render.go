package changelog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chachako/pretty-changelog/internal/commit"
	"github.com/chachako/pretty-changelog/internal/release"
	"github.com/chachako/pretty-changelog/internal/template"
)

// Strip values remove rendered parts.
const (
	StripHeader = "header"
	StripFooter = "footer"
	StripAll    = "all"
)

// RendererOptions holds the templates and rendering switches.
type RendererOptions struct {
	Header string
	Body   string
	Footer string
	// Trim strips surrounding whitespace from every rendered part and
	// joins the parts with one blank line.
	Trim bool
	// Strip is "", "header", "footer" or "all".
	Strip string
	Links []commit.LinkParser
}

// Renderer renders releases through the changelog templates.
type Renderer struct {
	header *template.Template
	body   *template.Template
	footer *template.Template
	trim   bool
	links  []commit.LinkParser
}

// NewRenderer parses the templates. A parse failure is a
// *template.RenderError.
func NewRenderer(opts RendererOptions) (*Renderer, error) {
	r := &Renderer{trim: opts.Trim, links: opts.Links}

	var err error
	if opts.Strip != StripHeader && opts.Strip != StripAll && opts.Header != "" {
		if r.header, err = template.Parse("header", opts.Header); err != nil {
			return nil, err
		}
	}
	if r.body, err = template.Parse("body", opts.Body); err != nil {
		return nil, err
	}
	if opts.Strip != StripFooter && opts.Strip != StripAll && opts.Footer != "" {
		if r.footer, err = template.Parse("footer", opts.Footer); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Context builds the template context for releases.
func (r *Renderer) Context(releases []*release.Release, md Metadata) *Context {
	return NewContext(releases, md, r.links)
}

// Render returns the complete changelog.
func (r *Renderer) Render(releases []*release.Release, md Metadata) ([]byte, error) {
	parts, err := r.parts(r.Context(releases, md), true)
	if err != nil {
		return nil, err
	}
	return r.join(parts), nil
}

// Prepend renders releases above existing. The footer is not rendered and
// the rendered header is not repeated when existing already starts with it.
func (r *Renderer) Prepend(releases []*release.Release, md Metadata, existing []byte) ([]byte, error) {
	ctx := r.Context(releases, md)
	parts, err := r.parts(ctx, false)
	if err != nil {
		return nil, err
	}

	rest := string(existing)
	if r.header != nil && len(parts) > 0 {
		header := parts[0]
		if r.trim {
			header = strings.TrimSpace(header)
			rest = strings.TrimLeft(rest, " \t\r\n")
		}
		if header != "" {
			rest = strings.TrimPrefix(rest, header)
		}
	}
	if r.trim {
		rest = strings.TrimSpace(rest)
	}
	return r.join(append(parts, rest)), nil
}

// parts renders header, one body per release, and optionally the footer.
func (r *Renderer) parts(ctx *Context, withFooter bool) ([]string, error) {
	var parts []string
	if r.header != nil {
		out, err := r.header.Render(ctx)
		if err != nil {
			return nil, err
		}
		parts = append(parts, out)
	}
	for _, rv := range ctx.Releases {
		out, err := r.body.Render(ReleaseData{
			ReleaseView: rv,
			Repository:  ctx.Repository,
			Now:         ctx.Timestamp,
		})
		if err != nil {
			return nil, fmt.Errorf("release %s: %w", rv.Version, err)
		}
		parts = append(parts, out)
	}
	if withFooter && r.footer != nil {
		out, err := r.footer.Render(ctx)
		if err != nil {
			return nil, err
		}
		parts = append(parts, out)
	}
	return parts, nil
}

func (r *Renderer) join(parts []string) []byte {
	var buf bytes.Buffer
	if !r.trim {
		for _, p := range parts {
			buf.WriteString(p)
		}
		return buf.Bytes()
	}

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(p)
	}
	if buf.Len() > 0 {
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// MarshalContext encodes the template context as indented JSON.
func MarshalContext(ctx *Context) ([]byte, error) {
	out, err := json.MarshalIndent(ctx, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding context: %w", err)
	}
	return append(out, '\n'), nil
}
