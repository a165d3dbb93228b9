package render

import (
	"strconv"
	"strings"

	"github.com/alnah/go-lark2html/internal/blocks"
)

// textColors maps the API's palette indices to CSS colours.
var textColors = map[int]string{
	1: "#cf2f2f",
	2: "#d9730d",
	3: "#a97b00",
	4: "#2f8a36",
	5: "#0b7d86",
	6: "#2a63c7",
	7: "#7a4cc2",
	8: "#5e6673",
}

// applyInlineStyles escapes text and wraps it in style tags. The wrapping
// order is fixed: code, strong, em, u, s, mark, colour span, anchor.
func applyInlineStyles(text string, st blocks.TextStyle) string {
	out := strings.ReplaceAll(escapeHTML(text), "\n", "<br />")

	if st.InlineCode {
		out = "<code>" + out + "</code>"
	}
	if st.Bold {
		out = "<strong>" + out + "</strong>"
	}
	if st.Italic {
		out = "<em>" + out + "</em>"
	}
	if st.Underline {
		out = "<u>" + out + "</u>"
	}
	if st.Strikethrough {
		out = "<s>" + out + "</s>"
	}
	if st.BackgroundColor > 0 {
		out = `<mark data-feishu-bg-color="` + strconv.Itoa(st.BackgroundColor) + `">` + out + "</mark>"
	}
	if st.TextColor > 0 {
		n := strconv.Itoa(st.TextColor)
		style := ""
		if c, ok := textColors[st.TextColor]; ok {
			style = ` style="color:` + c + `;"`
		}
		out = `<span class="feishu-text-color feishu-text-color-` + n + `"` + style + ">" + out + "</span>"
	}
	if href := decodeURL(st.LinkURL); href != "" {
		out = anchor(href, out)
	}
	return out
}

// renderRichText renders inline elements to HTML. The result is not trimmed.
func renderRichText(elems []blocks.Element) string {
	var b strings.Builder
	for _, e := range elems {
		b.WriteString(renderElement(e))
	}
	return b.String()
}

func renderElement(e blocks.Element) string {
	switch {
	case e.TextRun != nil:
		return applyInlineStyles(e.TextRun.Content, e.TextRun.Style)
	case e.MentionUser != nil:
		if e.MentionUser.Name == "" {
			return ""
		}
		return escapeHTML("@" + e.MentionUser.Name)
	case e.MentionDoc != nil:
		title := e.MentionDoc.Title
		href := decodeURL(e.MentionDoc.URL)
		if href == "" {
			return escapeHTML(title)
		}
		if title == "" {
			title = href
		}
		return anchor(href, escapeHTML(title))
	case e.DocsLink != nil:
		href := decodeURL(e.DocsLink.URL)
		if href == "" {
			return ""
		}
		return anchor(href, escapeHTML(href))
	}
	return escapeHTML(e.Plain)
}

// plainText concatenates the readable text of inline elements.
func plainText(elems []blocks.Element) string {
	var b strings.Builder
	for _, e := range elems {
		switch {
		case e.TextRun != nil:
			b.WriteString(e.TextRun.Content)
		case e.MentionUser != nil:
			if e.MentionUser.Name != "" {
				b.WriteString("@" + e.MentionUser.Name)
			}
		case e.MentionDoc != nil:
			b.WriteString(e.MentionDoc.Title)
		case e.DocsLink != nil:
			b.WriteString(decodeURL(e.DocsLink.URL))
		default:
			b.WriteString(e.Plain)
		}
	}
	return b.String()
}

// hasItalicRun reports whether any text run is italic. Italic runs are the
// block-level signal closest to the small/em markup captions usually carry.
func hasItalicRun(elems []blocks.Element) bool {
	for _, e := range elems {
		if e.TextRun != nil && e.TextRun.Style.Italic {
			return true
		}
	}
	return false
}
