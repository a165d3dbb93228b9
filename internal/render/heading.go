package render

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/alnah/go-lark2html/internal/blocks"
)

var (
	// numericHeadingPattern matches an explicit "2.3" style sequence that
	// resynchronises the counters.
	numericHeadingPattern = regexp.MustCompile(`^(\d+(?:[.．]\d+)*)(?:[.．、)\s]|$)`)

	// headingPrefixPattern matches any author-written ordinal: numeric,
	// CJK numeral, roman numeral or single letter.
	headingPrefixPattern = regexp.MustCompile(`^((\d+([.．]\d+)*)[.．、)\s]|[(（]?[一二三四五六七八九十百千万零〇]+[)）.．、]|[ivxlcdmIVXLCDM]+[.．、)\s]|[A-Za-z][.．、)\s])`)

	sequenceSeparator = regexp.MustCompile(`[.．]`)
)

// parseNumericSequence returns the positive parts of a leading numeric
// sequence, at most six of them, or nil.
func parseNumericSequence(text string) []int {
	m := numericHeadingPattern.FindStringSubmatch(text)
	if m == nil || m[1] == "" {
		return nil
	}
	var parts []int
	for _, p := range sequenceSeparator.Split(m[1], -1) {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 {
			continue
		}
		parts = append(parts, n)
		if len(parts) == len(Context{}.HeadingCounters) {
			break
		}
	}
	return parts
}

// syncHeadings resets the counters to an explicit sequence.
func (c *Context) syncHeadings(seq []int) {
	c.HeadingCounters = [6]int{}
	copy(c.HeadingCounters[:], seq)
}

// nextHeading advances the counter at level (1-based) and returns the
// dotted sequence. Missing ancestors are treated as 1 and deeper levels reset.
func (c *Context) nextHeading(level int) string {
	level = max(1, min(len(c.HeadingCounters), level))
	for i := 0; i < level-1; i++ {
		if c.HeadingCounters[i] <= 0 {
			c.HeadingCounters[i] = 1
		}
	}
	c.HeadingCounters[level-1]++
	for i := level; i < len(c.HeadingCounters); i++ {
		c.HeadingCounters[i] = 0
	}
	parts := make([]string, level)
	for i := range parts {
		parts[i] = strconv.Itoa(c.HeadingCounters[i])
	}
	return strings.Join(parts, ".")
}

// applyHeadingRule numbers a heading that carries no ordinal of its own.
// Levels are counted from base, the shallowest heading level present, so a
// document whose top headings are h2 numbers them 1, 2, 3.
func (c *Context) applyHeadingRule(t blocks.Type, base int, plain, html string) (string, string) {
	level := t.HeadingLevel()
	normalized := normalizeText(plain)
	if html == "" || level <= 0 || normalized == "" {
		return html, plain
	}

	if seq := parseNumericSequence(normalized); len(seq) > 0 {
		c.syncHeadings(seq)
		return html, plain
	}
	if headingPrefixPattern.MatchString(normalized) {
		return html, plain
	}

	if base <= 0 || base > level {
		base = 1
	}
	seq := c.nextHeading(level - base + 1)
	return `<span class="feishu-heading-seq">` + escapeHTML(seq) + `</span> ` + html,
		strings.TrimSpace(seq + " " + plain)
}
