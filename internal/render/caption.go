package render

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/alnah/go-lark2html/internal/blocks"
)

const (
	maxCaptionRunes      = 90
	maxCaptionLabelRunes = 42
	minSentenceRunes     = 32
	maxCaptionLines      = 3
)

var (
	captionExcludedLabel = regexp.MustCompile(`^(地址|官网|电话|邮箱|称呼|职位|微信二维码|微信公众号|商务合作联系人)[:：]?$`)
	captionSourceLine    = regexp.MustCompile(`(?i)(图片来源|图源|来源[:：]|供图|摄影|资料来源|photo\s*source|source[:：])`)
	captionShortLabel    = regexp.MustCompile(`(?i)(logo|示意图?|评论截图|评论区|创意吃法|包装|二维码|集市|现场|海报|产品图|封面图|图[0-9一二三四五六七八九十]+)`)
	captionQuotedTone    = regexp.MustCompile(`[「『【（(].+[」』】）)]`)
	captionTerminal      = regexp.MustCompile(`[。！？!?]$`)
	captionLeadSource    = regexp.MustCompile(`(图片来源|图源|来源[:：])`)
	captionLeadKeyword   = regexp.MustCompile(`(?i)(logo|示意|包装|二维码|集市|评论|吃法|组合|现场)`)

	bodySentenceLead  = regexp.MustCompile(`^(目录|一、|二、|三、|四、|五、)`)
	bodySentencePunct = regexp.MustCompile(`[，,。！？!?；;]`)
)

func captionText(n *blocks.Node) string {
	return normalizeText(plainText(n.RichText()))
}

func isParagraph(n *blocks.Node) bool {
	return n != nil && n.Type == blocks.TypeText
}

func looksLikeBodySentence(text string) bool {
	if text == "" {
		return false
	}
	if bodySentenceLead.MatchString(text) {
		return true
	}
	if utf8.RuneCountInString(text) < minSentenceRunes {
		return false
	}
	return bodySentencePunct.MatchString(text)
}

func isShortCaptionLabel(text string) bool {
	if text == "" || utf8.RuneCountInString(text) > maxCaptionLabelRunes {
		return false
	}
	if looksLikeBodySentence(text) {
		return false
	}
	return captionShortLabel.MatchString(text)
}

// isLooseCaptionLead reports whether a short first line may be accepted as
// a caption on weaker evidence. next is the sibling that follows it.
func isLooseCaptionLead(n, next *blocks.Node) bool {
	if !isParagraph(n) {
		return false
	}
	text := captionText(n)
	if text == "" || utf8.RuneCountInString(text) > maxCaptionLabelRunes {
		return false
	}
	if captionTerminal.MatchString(text) || captionExcludedLabel.MatchString(text) {
		return false
	}
	if isParagraph(next) {
		nextText := captionText(next)
		if nextText == "" || captionLeadSource.MatchString(nextText) {
			return true
		}
	}
	return captionQuotedTone.MatchString(text) || captionLeadKeyword.MatchString(text)
}

// isLikelyCaption applies the caption heuristic to one candidate paragraph.
func isLikelyCaption(n *blocks.Node, allowLoose bool) bool {
	if !isParagraph(n) {
		return false
	}
	text := captionText(n)
	if text == "" || utf8.RuneCountInString(text) > maxCaptionRunes {
		return false
	}
	if captionExcludedLabel.MatchString(text) {
		return false
	}

	isSource := captionSourceLine.MatchString(text)
	if !isSource && looksLikeBodySentence(text) {
		return false
	}
	if isSource {
		return true
	}

	label := isShortCaptionLabel(text)
	tone := captionQuotedTone.MatchString(text)
	styled := hasItalicRun(n.RichText())

	if n.Align() == 2 {
		return label || tone || styled || allowLoose
	}
	return styled && (label || tone) && !captionTerminal.MatchString(text)
}

type captionLine struct {
	text  string
	html  string
	align int
}

// renderCaption renders caption paragraphs into a <figcaption>. It returns
// the newline-joined caption text, the markup, and the first line.
func (c *Context) renderCaption(nodes []*blocks.Node) (text, markup, first string) {
	var lines []captionLine
	for _, n := range nodes {
		if n == nil {
			continue
		}
		elems := n.RichText()
		line := captionLine{
			text:  normalizeText(plainText(elems)),
			html:  strings.TrimSpace(renderRichText(elems)),
			align: n.Align(),
		}
		if line.text != "" {
			c.collect(line.text)
			c.ParagraphCount++
		}
		if line.text != "" || line.html != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return "", "", ""
	}

	var texts []string
	for _, l := range lines {
		if l.text != "" {
			texts = append(texts, l.text)
		}
	}
	text = strings.Join(texts, "\n")
	if len(texts) > 0 {
		first = texts[0]
	}

	rootAlign := alignAttr(lines[0].align)
	if len(lines) == 1 {
		return text, "<figcaption" + rootAlign + ">" + lineContent(lines[0]) + "</figcaption>", first
	}

	var b strings.Builder
	b.WriteString("<figcaption" + rootAlign + ">")
	for _, l := range lines {
		align := l.align
		if align == 0 {
			align = lines[0].align
		}
		b.WriteString("<p" + alignAttr(align) + ">" + lineContent(l) + "</p>")
	}
	b.WriteString("</figcaption>")
	return text, b.String(), first
}

func lineContent(l captionLine) string {
	if l.html != "" {
		return l.html
	}
	return escapeHTML(l.text)
}
