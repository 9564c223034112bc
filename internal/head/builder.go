// internal/head/builder.go
//
// The Builder collects everything that should appear inside a page's
// <head> element.  It is scoped to a single render call.  Handlers push
// tags into the builder, then the page layout emits each slice in place.
//
// Features
// --------
//   - SetTitle       – single <title> tag (last call wins).
//   - Meta           – <meta name content>, deduplicated by name.
//   - Stylesheet     – <link rel="stylesheet">, deduplicated by href.
//   - Script         – deferred external <script src>, deduplicated by src.
//
// Every attribute value is HTML-escaped on the way in, so the render
// helpers can return template.HTML without further escaping.
package head

import (
	"html/template"
	"strings"
)

// Builder is not safe for concurrent use.  One per render.
type Builder struct {
	title string

	metas   []string
	links   []string
	scripts []string

	seen map[string]struct{}
}

func New() *Builder {
	return &Builder{seen: make(map[string]struct{})}
}

// SetTitle overrides the page <title>.  The last caller wins.
func (b *Builder) SetTitle(t string) { b.title = t }

// Title returns a fully formed <title> tag or an empty string.
func (b *Builder) Title() template.HTML {
	if b.title == "" {
		return ""
	}
	return template.HTML("<title>" + esc(b.title) + "</title>")
}

// Meta adds <meta name content>.  A repeated name is ignored.
func (b *Builder) Meta(name, content string) {
	b.add("meta:"+name, &b.metas,
		`<meta name="`+esc(name)+`" content="`+esc(content)+`">`)
}

// Stylesheet adds a stylesheet link.
func (b *Builder) Stylesheet(href string) {
	b.add("link:"+href, &b.links, `<link rel="stylesheet" href="`+esc(href)+`">`)
}

// Script adds a deferred external script.
func (b *Builder) Script(src string) {
	b.add("script:"+src, &b.scripts, `<script src="`+esc(src)+`" defer></script>`)
}

func (b *Builder) add(key string, tgt *[]string, tag string) {
	if _, dup := b.seen[key]; dup {
		return
	}
	b.seen[key] = struct{}{}
	*tgt = append(*tgt, tag)
}

// ------------------------------------------------------------------
// Rendering helpers called from page templates
// ------------------------------------------------------------------

func (b *Builder) Metas() template.HTML   { return concat(b.metas) }
func (b *Builder) Links() template.HTML   { return concat(b.links) }
func (b *Builder) Scripts() template.HTML { return concat(b.scripts) }

// concat joins pre-escaped tags without a separator.
func concat(sl []string) template.HTML {
	return template.HTML(strings.Join(sl, ""))
}

func esc(s string) string { return template.HTMLEscapeString(s) }
