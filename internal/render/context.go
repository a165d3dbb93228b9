package render

import (
	"slices"
	"strings"
)

// Image is one manifest entry, recorded in document order.
type Image struct {
	Index   int
	Token   string
	BlockID string
	Alt     string
	Caption string
	Width   int
	Height  int
}

// Context accumulates the side effects of one render call. It is not safe
// for concurrent use and must not be shared between calls.
type Context struct {
	Images          []Image
	TextChunks      []string
	ParagraphCount  int
	Unsupported     map[int]struct{}
	HeadingCounters [6]int
}

// NewContext returns an empty accumulator.
func NewContext() *Context {
	return &Context{Unsupported: make(map[int]struct{})}
}

// collect appends the normalized text when it is non-empty.
func (c *Context) collect(text string) {
	if n := normalizeText(text); n != "" {
		c.TextChunks = append(c.TextChunks, n)
	}
}

// PlainText joins the collected chunks with newlines.
func (c *Context) PlainText() string {
	return strings.TrimSpace(strings.Join(c.TextChunks, "\n"))
}

// UnsupportedTypes returns the unsupported block types in ascending order.
func (c *Context) UnsupportedTypes() []int {
	out := make([]int, 0, len(c.Unsupported))
	for t := range c.Unsupported {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}
