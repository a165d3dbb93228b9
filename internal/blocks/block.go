package blocks

// Type is the numeric block_type discriminant.
type Type int

// Block types the renderer knows about.
const (
	TypePage           Type = 1
	TypeText           Type = 2
	TypeHeading1       Type = 3
	TypeHeading6       Type = 8
	TypeHeading9       Type = 11
	TypeBullet         Type = 12
	TypeOrdered        Type = 13
	TypeCode           Type = 14
	TypeQuote          Type = 15
	TypeTodo           Type = 17
	TypeCallout        Type = 19
	TypeDivider        Type = 22
	TypeFile           Type = 23
	TypeGrid           Type = 24
	TypeGridColumn     Type = 25
	TypeIframe         Type = 26
	TypeImage          Type = 27
	TypeTable          Type = 31
	TypeTableCell      Type = 32
	TypeQuoteContainer Type = 34
)

// HeadingLevel returns 1-6 for heading1..heading6 blocks and 0 otherwise.
// heading7..heading9 exist in the API but have no HTML counterpart.
func (t Type) HeadingLevel() int {
	if t >= TypeHeading1 && t <= TypeHeading6 {
		return int(t-TypeHeading1) + 1
	}
	return 0
}

// Node is one decoded block.
type Node struct {
	ID       string
	Type     Type
	ParentID string
	Children []string
	Payload  Payload
}

// Payload is the type-specific part of a block. The set of implementations
// is closed to this package.
type Payload interface {
	payload()
}

// Text is a rich-text container. Key is the JSON key it was read from
// ("text", "heading2", "bullet", ...).
type Text struct {
	Key      string
	Elements []Element
	Align    int
}

// Image references a media token.
type Image struct {
	Token  string
	Align  int
	Width  int
	Height int
}

// Merge is the span of one table cell.
type Merge struct {
	RowSpan int
	ColSpan int
}

// Table holds the flat, row-major cell list and its sparse span metadata.
type Table struct {
	Cells       []string
	RowSize     int
	ColumnSize  int
	MergeInfo   []Merge
	ColumnWidth []float64
}

// Grid is a side-by-side layout container.
type Grid struct {
	ColumnSize int
}

// GridColumn is one column of a Grid.
type GridColumn struct {
	WidthRatio float64
}

// Callout is a highlighted container block.
type Callout struct {
	EmojiID string
}

// Code is a code block. Text is a plain-string body used when the payload
// carries no rich-text elements.
type Code struct {
	Language string
	Elements []Element
	Text     string
}

// Todo is a checkbox item.
type Todo struct {
	Elements []Element
	Checked  bool
	Align    int
}

// File is an attachment.
type File struct {
	Name  string
	Token string
	URL   string
}

// Embed is a card-like block (sheet, bitable, mindnote, bookmark, link preview).
type Embed struct {
	Key   string
	Title string
	URL   string
}

// Iframe is an embedded external page.
type Iframe struct {
	URL string
}

// Divider is a horizontal rule.
type Divider struct{}

// Unstructured keeps the raw non-meta fields of a block nothing else matched,
// in the order they appeared in the source JSON.
type Unstructured struct {
	Fields []Field
}

func (*Text) payload()         {}
func (*Image) payload()        {}
func (*Table) payload()        {}
func (*Grid) payload()         {}
func (*GridColumn) payload()   {}
func (*Callout) payload()      {}
func (*Code) payload()         {}
func (*Todo) payload()         {}
func (*File) payload()         {}
func (*Embed) payload()        {}
func (*Iframe) payload()       {}
func (*Divider) payload()      {}
func (*Unstructured) payload() {}

// RichText returns the node's rich-text elements, or nil when the payload
// is not a Text container.
func (n *Node) RichText() []Element {
	if n == nil {
		return nil
	}
	if t, ok := n.Payload.(*Text); ok {
		return t.Elements
	}
	return nil
}

// Align returns the raw alignment code (1 left, 2 center, 3 right, 4 justify)
// of an image or rich-text node.
func (n *Node) Align() int {
	if n == nil {
		return 0
	}
	switch p := n.Payload.(type) {
	case *Image:
		return p.Align
	case *Text:
		return p.Align
	}
	return 0
}
