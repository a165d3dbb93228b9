package render

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/alnah/go-lark2html/internal/blocks"
)

// Highlighter turns source code into the inner HTML of a <code> element.
// It returns false when it cannot handle the language.
type Highlighter interface {
	Highlight(code, language string) (string, bool)
}

// Renderer converts block maps to HTML. A Renderer holds no per-call state
// and may be used concurrently.
type Renderer struct {
	highlighter Highlighter
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithHighlighter enables syntax highlighting of code blocks.
func WithHighlighter(h Highlighter) Option {
	return func(r *Renderer) {
		r.highlighter = h
	}
}

// New creates a Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Result is the output of one render call.
type Result struct {
	HTML string
	*Context
}

// Render compiles the subtrees rooted at rootIDs. Ids missing from the map
// render as nothing, and a block is never entered while it is already on
// the current path, so cyclic child references terminate.
func (r *Renderer) Render(rootIDs []string, m *blocks.Map) Result {
	w := &walker{
		r:           r,
		m:           m,
		ctx:         NewContext(),
		visiting:    make(map[string]bool),
		headingBase: m.MinHeadingLevel(rootIDs),
	}
	html := strings.TrimSpace(w.children(rootIDs))
	return Result{HTML: html, Context: w.ctx}
}

// walker is the state of one render call.
type walker struct {
	r           *Renderer
	m           *blocks.Map
	ctx         *Context
	visiting    map[string]bool
	headingBase int
}

var listTags = map[blocks.Type]string{
	blocks.TypeBullet:  "ul",
	blocks.TypeOrdered: "ol",
}

var calloutEmoji = map[string]string{
	"dart":       "🎯",
	"bulb":       "💡",
	"info":       "ℹ️",
	"warning":    "⚠️",
	"check_mark": "✅",
	"question":   "❓",
	"star":       "⭐",
}

// children renders a sibling stream, grouping list runs and binding
// captions to images.
func (w *walker) children(ids []string) string {
	var chunks []string
	for i := 0; i < len(ids); {
		id := strings.TrimSpace(ids[i])
		if id == "" {
			i++
			continue
		}
		child, _ := w.m.Get(id)
		var typ blocks.Type
		if child != nil {
			typ = child.Type
		}

		if tag, ok := listTags[typ]; ok {
			var items []string
			for i < len(ids) {
				next, ok := w.m.Get(ids[i])
				if !ok || next.Type != typ {
					break
				}
				if html := w.block(ids[i]); html != "" {
					items = append(items, html)
				}
				i++
			}
			if len(items) > 0 {
				chunks = append(chunks, "<"+tag+">"+strings.Join(items, "\n")+"</"+tag+">")
			}
			continue
		}

		if typ == blocks.TypeImage {
			cursor := i + 1
			var captions []*blocks.Node
			if imageToken(child) != "" {
				for cursor < len(ids) && len(captions) < maxCaptionLines {
					next, ok := w.m.Get(ids[cursor])
					if !ok {
						break
					}
					var after *blocks.Node
					if cursor+1 < len(ids) {
						after, _ = w.m.Get(ids[cursor+1])
					}
					allowLoose := len(captions) == 0 && isLooseCaptionLead(next, after)
					if !isLikelyCaption(next, allowLoose) {
						break
					}
					captions = append(captions, next)
					cursor++
				}
			}
			if html := w.renderImage(child, captions); html != "" {
				chunks = append(chunks, html)
			}
			i = cursor
			continue
		}

		if html := w.block(id); html != "" {
			chunks = append(chunks, html)
		}
		i++
	}
	return strings.Join(chunks, "\n")
}

// block dispatches one node to its renderer.
func (w *walker) block(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || w.visiting[id] {
		return ""
	}
	n, ok := w.m.Get(id)
	if !ok {
		return ""
	}
	w.visiting[id] = true
	defer delete(w.visiting, id)

	if n.Type == blocks.TypeImage {
		return w.renderImage(n, nil)
	}
	switch p := n.Payload.(type) {
	case *blocks.Divider:
		w.ctx.ParagraphCount++
		return `<hr class="feishu-divider" />`
	case *blocks.Code:
		return w.renderCode(p)
	case *blocks.Todo:
		return w.renderTodo(p)
	case *blocks.File:
		return w.renderFile(p)
	case *blocks.Embed:
		return w.renderEmbed(p)
	}

	switch n.Type {
	case blocks.TypeGrid:
		return w.renderGrid(n)
	case blocks.TypeTable:
		return w.renderTable(n)
	case blocks.TypeTableCell:
		return w.children(n.Children)
	case blocks.TypeCallout:
		return w.renderCallout(n)
	case blocks.TypeQuoteContainer:
		inner := w.children(n.Children)
		if inner == "" {
			return ""
		}
		return `<blockquote class="feishu-quote">` + inner + `</blockquote>`
	case blocks.TypeIframe:
		return w.renderIframe(n)
	case blocks.TypeBullet, blocks.TypeOrdered:
		return w.renderListItem(n)
	}

	if textTag(n.Type) != "" || len(n.RichText()) > 0 {
		return w.renderText(n)
	}
	if n.Type == blocks.TypePage || len(n.Children) > 0 {
		return w.children(n.Children)
	}
	return w.renderUnknown(n)
}

func textTag(t blocks.Type) string {
	if t == blocks.TypeText {
		return "p"
	}
	if level := t.HeadingLevel(); level > 0 {
		return "h" + strconv.Itoa(level)
	}
	return ""
}

func (w *walker) renderText(n *blocks.Node) string {
	elems := n.RichText()
	plain := plainText(elems)
	html := strings.TrimSpace(renderRichText(elems))
	if html == "" {
		return ""
	}
	html, plain = w.ctx.applyHeadingRule(n.Type, w.headingBase, plain, html)
	w.ctx.collect(plain)
	w.ctx.ParagraphCount++

	tag := textTag(n.Type)
	if tag == "" {
		tag = "p"
	}
	return "<" + tag + alignAttr(n.Align()) + ">" + html + "</" + tag + ">"
}

func (w *walker) renderListItem(n *blocks.Node) string {
	elems := n.RichText()
	w.ctx.collect(plainText(elems))

	item := strings.TrimSpace(renderRichText(elems))
	var nested string
	if len(n.Children) > 0 {
		nested = w.children(n.Children)
	}
	if item == "" && nested == "" {
		return ""
	}
	w.ctx.ParagraphCount++
	return "<li" + alignAttr(n.Align()) + ">" + joinNonEmpty("\n", item, nested) + "</li>"
}

func imageToken(n *blocks.Node) string {
	if n == nil {
		return ""
	}
	img, ok := n.Payload.(*blocks.Image)
	if !ok {
		return ""
	}
	return normalizeText(img.Token)
}

func (w *walker) renderImage(n *blocks.Node, captions []*blocks.Node) string {
	token := imageToken(n)
	if token == "" {
		return ""
	}
	img := n.Payload.(*blocks.Image)
	entry := Image{
		Index:   len(w.ctx.Images),
		Token:   token,
		BlockID: normalizeText(n.ID),
		Width:   img.Width,
		Height:  img.Height,
	}

	caption, captionHTML, first := w.ctx.renderCaption(captions)
	entry.Caption = caption
	entry.Alt = first

	w.ctx.Images = append(w.ctx.Images, entry)
	w.ctx.ParagraphCount++

	return `<figure class="feishu-image"` + alignAttr(img.Align) + `><img data-feishu-token="` + escapeHTML(token) +
		`" data-feishu-block-id="` + escapeHTML(entry.BlockID) + `" alt="` + escapeHTML(entry.Alt) + `" />` +
		captionHTML + `</figure>`
}

func (w *walker) renderCode(p *blocks.Code) string {
	code := strings.TrimSpace(plainText(p.Elements))
	if code == "" {
		code = strings.TrimSpace(p.Text)
	}
	if code == "" {
		return ""
	}
	w.ctx.collect(code)
	w.ctx.ParagraphCount++

	lang := strings.ToLower(normalizeText(p.Language))
	inner := escapeHTML(code)
	if w.r.highlighter != nil && lang != "" {
		if highlighted, ok := w.r.highlighter.Highlight(code, lang); ok {
			inner = highlighted
		}
	}
	var langAttr string
	if lang != "" {
		langAttr = ` data-language="` + escapeHTML(lang) + `"`
	}
	return `<pre class="feishu-code-block"` + langAttr + `><code>` + inner + `</code></pre>`
}

func (w *walker) renderTodo(p *blocks.Todo) string {
	text := normalizeText(plainText(p.Elements))
	html := strings.TrimSpace(renderRichText(p.Elements))
	if html == "" {
		html = escapeHTML(text)
	}
	if html == "" {
		html = "<br />"
	}
	w.ctx.collect(text)
	w.ctx.ParagraphCount++

	checked := ""
	if p.Checked {
		checked = " checked"
	}
	return `<label class="feishu-todo"` + alignAttr(p.Align) + `><input type="checkbox" disabled` + checked +
		` /><span>` + html + `</span></label>`
}

func (w *walker) renderFile(p *blocks.File) string {
	label := normalizeText(p.Name)
	if label == "" {
		label = "Attachment"
	}
	w.ctx.collect(label)
	w.ctx.ParagraphCount++

	href := decodeURL(p.URL)
	if token := normalizeText(p.Token); href == "" && token != "" {
		href = "feishu://file/" + url.PathEscape(token)
	}
	icon := `<span class="feishu-file-icon"></span>`
	if href == "" {
		return `<p class="feishu-file">` + icon + `<span>` + escapeHTML(label) + `</span></p>`
	}
	return `<p class="feishu-file">` + icon + anchor(href, escapeHTML(label)) + `</p>`
}

func (w *walker) renderEmbed(p *blocks.Embed) string {
	link := decodeURL(p.URL)
	title := normalizeText(p.Title)
	if title == "" {
		title = link
	}
	if title == "" {
		title = "Embedded card"
	}
	w.ctx.collect(title)
	w.ctx.ParagraphCount++

	if link == "" {
		return `<p class="feishu-embed-link-wrap">` + escapeHTML(title) + `</p>`
	}
	return `<p class="feishu-embed-link-wrap"><a class="feishu-embed-link" href="` + escapeHTML(link) +
		`" target="_blank" rel="noopener noreferrer">` + escapeHTML(title) + `</a></p>`
}

func (w *walker) renderIframe(n *blocks.Node) string {
	var link string
	if p, ok := n.Payload.(*blocks.Iframe); ok {
		link = decodeURL(p.URL)
	}
	if link == "" {
		return ""
	}
	w.ctx.collect(link)
	w.ctx.ParagraphCount++
	return `<p><a class="feishu-embed-link" href="` + escapeHTML(link) +
		`" target="_blank" rel="noopener noreferrer">` + escapeHTML(link) + `</a></p>`
}

func (w *walker) renderCallout(n *blocks.Node) string {
	inner := w.children(n.Children)
	if inner == "" {
		return ""
	}
	var emojiAttr string
	if p, ok := n.Payload.(*blocks.Callout); ok {
		if id := normalizeText(p.EmojiID); id != "" {
			emoji, known := calloutEmoji[id]
			if !known {
				emoji = ":" + id + ":"
			}
			emojiAttr = ` data-emoji="` + escapeHTML(emoji) + `"`
		}
	}
	return `<aside class="feishu-callout"` + emojiAttr + `>` + inner + `</aside>`
}

func (w *walker) renderGrid(n *blocks.Node) string {
	if len(n.Children) == 0 {
		return ""
	}
	columnSize := len(n.Children)
	if g, ok := n.Payload.(*blocks.Grid); ok && g.ColumnSize > 0 {
		columnSize = g.ColumnSize
	}
	columnSize = max(1, columnSize)

	var cols []string
	for _, id := range n.Children {
		if html := w.gridColumn(id); html != "" {
			cols = append(cols, html)
		}
	}
	if len(cols) == 0 {
		return ""
	}

	ratios := make([]float64, len(n.Children))
	hasRatio := false
	for i, id := range n.Children {
		ratios[i] = columnRatio(w.m, id)
		hasRatio = hasRatio || ratios[i] > 0
	}
	template := "repeat(" + strconv.Itoa(columnSize) + ",minmax(0,1fr))"
	if hasRatio && len(ratios) == len(cols) {
		parts := make([]string, len(ratios))
		for i, r := range ratios {
			parts[i] = formatNumber(max(1, r)) + "fr"
		}
		template = strings.Join(parts, " ")
	}

	w.ctx.ParagraphCount++
	return `<div class="feishu-grid" style="grid-template-columns:` + template + `;">` + strings.Join(cols, "\n") + `</div>`
}

func (w *walker) gridColumn(id string) string {
	id = strings.TrimSpace(id)
	col, ok := w.m.Get(id)
	if !ok {
		return ""
	}

	var inner string
	if col.Type == blocks.TypeGridColumn {
		if w.visiting[id] {
			return ""
		}
		w.visiting[id] = true
		inner = w.children(col.Children)
		delete(w.visiting, id)
	} else {
		inner = w.block(id)
	}
	if inner == "" {
		return ""
	}

	var style string
	if r := columnRatio(w.m, id); r > 0 {
		style = ` style="--ratio:` + formatNumber(r) + `"`
	}
	return `<div class="feishu-grid-col"` + style + `>` + inner + `</div>`
}

func columnRatio(m *blocks.Map, id string) float64 {
	n, ok := m.Get(id)
	if !ok {
		return 0
	}
	gc, ok := n.Payload.(*blocks.GridColumn)
	if !ok || gc.WidthRatio <= 0 || math.IsInf(gc.WidthRatio, 0) || math.IsNaN(gc.WidthRatio) {
		return 0
	}
	return gc.WidthRatio
}

// renderUnknown salvages text or a link from the first usable payload
// field, and otherwise emits a placeholder and records the block type.
func (w *walker) renderUnknown(n *blocks.Node) string {
	if un, ok := n.Payload.(*blocks.Unstructured); ok {
		for _, f := range un.Fields {
			if !f.IsObject() {
				continue
			}
			open := `<p class="feishu-unknown" data-feishu-key="` + escapeHTML(f.Key) + `">`
			if elems := f.Elements(); len(elems) > 0 {
				w.ctx.collect(plainText(elems))
				if html := strings.TrimSpace(renderRichText(elems)); html != "" {
					w.ctx.ParagraphCount++
					return open + html + `</p>`
				}
			}
			if link := decodeURL(f.URL()); link != "" {
				w.ctx.collect(link)
				w.ctx.ParagraphCount++
				return open + anchor(link, escapeHTML(link)) + `</p>`
			}
		}
	}

	typeAttr := "unknown"
	if n.Type > 0 {
		w.ctx.Unsupported[int(n.Type)] = struct{}{}
		typeAttr = strconv.Itoa(int(n.Type))
	}
	return `<div class="feishu-unsupported" data-feishu-block-type="` + typeAttr + `"></div>`
}
