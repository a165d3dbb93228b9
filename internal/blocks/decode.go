package blocks

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotObject is returned when a raw block is not a JSON object.
var ErrNotObject = errors.New("block is not a JSON object")

// Payload key groups, in lookup priority order.
var (
	richTextKeys = []string{
		"text",
		"heading1", "heading2", "heading3", "heading4", "heading5",
		"heading6", "heading7", "heading8", "heading9",
		"quote", "callout", "bullet", "ordered",
	}
	dividerKeys = []string{"divider", "horizontal_rule", "hr"}
	codeKeys    = []string{"code", "code_block", "pre"}
	todoKeys    = []string{"todo", "task", "check_list"}
	fileKeys    = []string{"file", "attachment", "drive_file"}
	embedKeys   = []string{"embed", "sheet", "bitable", "mindnote", "bookmark", "link_preview"}
)

// metaKeys are structural fields that never count as a payload.
var metaKeys = map[string]bool{
	"block_id":   true,
	"block_type": true,
	"parent_id":  true,
	"children":   true,
}

// Field is one raw key/value pair of a block.
type Field struct {
	Key   string
	Value json.RawMessage
}

// IsObject reports whether the value is a JSON object.
func (f Field) IsObject() bool {
	return isObject(f.Value)
}

// Elements returns rich-text elements found under "elements", "content" or
// "text.elements", in that order.
func (f Field) Elements() []Element {
	fields, err := decodeFields(f.Value)
	if err != nil {
		return nil
	}
	for _, key := range []string{"elements", "content"} {
		if raw, ok := lookup(fields, key); ok && isArray(raw) {
			return decodeElements(raw)
		}
	}
	if raw, ok := lookup(fields, "text"); ok {
		if elems, ok := lookupPath(raw, "elements"); ok && isArray(elems) {
			return decodeElements(elems)
		}
	}
	return nil
}

func decodeElements(raw json.RawMessage) []Element {
	var elems []Element
	_ = json.Unmarshal(raw, &elems)
	return elems
}

// URL returns the first of "url", "link" or "component.url" that is a
// non-empty string.
func (f Field) URL() string {
	var p struct {
		URL       flexString `json:"url"`
		Link      flexString `json:"link"`
		Component *urlHolder `json:"component"`
	}
	if !isObject(f.Value) {
		return ""
	}
	_ = json.Unmarshal(f.Value, &p)
	return firstNonEmpty(string(p.URL), string(p.Link), componentURL(p.Component))
}

type urlHolder struct {
	URL flexString `json:"url"`
}

func componentURL(c *urlHolder) string {
	if c == nil {
		return ""
	}
	return string(c.URL)
}

type wireMeta struct {
	BlockID  flexString   `json:"block_id"`
	Type     flexInt      `json:"block_type"`
	ParentID flexString   `json:"parent_id"`
	Children []flexString `json:"children"`
}

// Decode converts one raw block into a Node.
func Decode(data []byte) (*Node, error) {
	fields, err := decodeFields(data)
	if err != nil {
		return nil, err
	}

	var meta wireMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		// Meta fields of the wrong shape are treated as absent.
		meta = wireMeta{}
		if raw, ok := lookup(fields, "block_id"); ok {
			_ = json.Unmarshal(raw, &meta.BlockID)
		}
		if raw, ok := lookup(fields, "block_type"); ok {
			_ = json.Unmarshal(raw, &meta.Type)
		}
	}

	n := &Node{
		ID:       strings.TrimSpace(string(meta.BlockID)),
		Type:     Type(meta.Type),
		ParentID: strings.TrimSpace(string(meta.ParentID)),
	}
	for _, c := range meta.Children {
		n.Children = append(n.Children, string(c))
	}
	n.Payload = decodePayload(n.Type, fields)
	return n, nil
}

// DecodeAll decodes a list of raw blocks, failing on the first malformed one.
func DecodeAll(items []json.RawMessage) ([]*Node, error) {
	nodes := make([]*Node, 0, len(items))
	for i, item := range items {
		n, err := Decode(item)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// decodePayload picks the payload variant in renderer dispatch order.
func decodePayload(t Type, fields []Field) Payload {
	if t == TypeImage {
		return decodeImage(fields)
	}
	if _, _, ok := firstTruthy(fields, dividerKeys); ok {
		return &Divider{}
	}
	if _, raw, ok := firstObject(fields, codeKeys); ok {
		return decodeCode(raw)
	}
	if _, raw, ok := firstObject(fields, todoKeys); ok {
		return decodeTodo(raw, fields)
	}
	if _, raw, ok := firstObject(fields, fileKeys); ok {
		return decodeFile(raw)
	}
	if key, raw, ok := firstObject(fields, embedKeys); ok {
		return decodeEmbed(key, raw)
	}

	switch t {
	case TypeGrid:
		var p struct {
			ColumnSize flexInt `json:"column_size"`
		}
		unmarshalKey(fields, "grid", &p)
		return &Grid{ColumnSize: int(p.ColumnSize)}
	case TypeGridColumn:
		var p struct {
			WidthRatio flexFloat `json:"width_ratio"`
		}
		unmarshalKey(fields, "grid_column", &p)
		return &GridColumn{WidthRatio: float64(p.WidthRatio)}
	case TypeTable:
		return decodeTable(fields)
	case TypeCallout:
		var p struct {
			EmojiID flexString `json:"emoji_id"`
		}
		unmarshalKey(fields, "callout", &p)
		return &Callout{EmojiID: string(p.EmojiID)}
	case TypeIframe:
		var p struct {
			Component *urlHolder `json:"component"`
		}
		unmarshalKey(fields, "iframe", &p)
		return &Iframe{URL: componentURL(p.Component)}
	}

	if txt, ok := decodeRichText(fields); ok {
		return txt
	}

	un := &Unstructured{}
	for _, f := range fields {
		if metaKeys[f.Key] {
			continue
		}
		un.Fields = append(un.Fields, f)
	}
	return un
}

type wireRichText struct {
	Elements []Element `json:"elements"`
	Style    struct {
		Align flexInt `json:"align"`
	} `json:"style"`
}

// decodeRichText returns the first container with non-empty elements, or
// failing that the first container that has an elements array at all.
func decodeRichText(fields []Field) (*Text, bool) {
	var fallback *Text
	for _, key := range richTextKeys {
		raw, ok := lookup(fields, key)
		if !ok || !isObject(raw) {
			continue
		}
		elems, ok := lookupPath(raw, "elements")
		if !ok || !isArray(elems) {
			continue
		}
		var w wireRichText
		_ = json.Unmarshal(raw, &w)
		txt := &Text{Key: key, Elements: w.Elements, Align: int(w.Style.Align)}
		if len(txt.Elements) > 0 {
			return txt, true
		}
		if fallback == nil {
			fallback = txt
		}
	}
	return fallback, fallback != nil
}

func decodeImage(fields []Field) *Image {
	var p struct {
		Token  flexString `json:"token"`
		Align  flexInt    `json:"align"`
		Width  flexInt    `json:"width"`
		Height flexInt    `json:"height"`
	}
	unmarshalKey(fields, "image", &p)
	return &Image{
		Token:  string(p.Token),
		Align:  int(p.Align),
		Width:  int(p.Width),
		Height: int(p.Height),
	}
}

func decodeTable(fields []Field) *Table {
	var p struct {
		Cells    []flexString `json:"cells"`
		Property struct {
			RowSize     flexInt     `json:"row_size"`
			ColumnSize  flexInt     `json:"column_size"`
			ColumnWidth []flexFloat `json:"column_width"`
			MergeInfo   []struct {
				RowSpan flexInt `json:"row_span"`
				ColSpan flexInt `json:"col_span"`
			} `json:"merge_info"`
		} `json:"property"`
	}
	unmarshalKey(fields, "table", &p)

	t := &Table{
		RowSize:    int(p.Property.RowSize),
		ColumnSize: int(p.Property.ColumnSize),
	}
	for _, c := range p.Cells {
		t.Cells = append(t.Cells, string(c))
	}
	for _, w := range p.Property.ColumnWidth {
		t.ColumnWidth = append(t.ColumnWidth, float64(w))
	}
	for _, m := range p.Property.MergeInfo {
		t.MergeInfo = append(t.MergeInfo, Merge{RowSpan: int(m.RowSpan), ColSpan: int(m.ColSpan)})
	}
	return t
}

func decodeCode(raw json.RawMessage) *Code {
	var p struct {
		Language flexString `json:"language"`
		Lang     flexString `json:"lang"`
		Text     flexString `json:"text"`
		Content  flexString `json:"content"`
		Style    struct {
			Language flexString `json:"language"`
		} `json:"style"`
	}
	_ = json.Unmarshal(raw, &p)
	return &Code{
		Language: firstNonEmpty(string(p.Language), string(p.Lang), string(p.Style.Language)),
		Elements: Field{Value: raw}.Elements(),
		Text:     firstNonEmpty(string(p.Text), string(p.Content)),
	}
}

func decodeTodo(raw json.RawMessage, fields []Field) *Todo {
	var p struct {
		Checked     flexBool `json:"checked"`
		Done        flexBool `json:"done"`
		IsChecked   flexBool `json:"is_checked"`
		IsCompleted flexBool `json:"is_completed"`
		Style       struct {
			Align flexInt  `json:"align"`
			Done  flexBool `json:"done"`
		} `json:"style"`
	}
	_ = json.Unmarshal(raw, &p)

	align := int(p.Style.Align)
	if align == 0 {
		if txt, ok := decodeRichText(fields); ok {
			align = txt.Align
		}
	}
	return &Todo{
		Elements: Field{Value: raw}.Elements(),
		Checked:  bool(p.Checked || p.Done || p.IsChecked || p.IsCompleted || p.Style.Done),
		Align:    align,
	}
}

func decodeFile(raw json.RawMessage) *File {
	var p struct {
		Name        flexString `json:"name"`
		Title       flexString `json:"title"`
		FileName    flexString `json:"file_name"`
		DisplayName flexString `json:"display_name"`
		Token       flexString `json:"token"`
		FileToken   flexString `json:"file_token"`
		URL         flexString `json:"url"`
		DownloadURL flexString `json:"download_url"`
		PreviewURL  flexString `json:"preview_url"`
	}
	_ = json.Unmarshal(raw, &p)
	return &File{
		Name:  firstNonEmpty(string(p.Name), string(p.Title), string(p.FileName), string(p.DisplayName)),
		Token: firstNonEmpty(string(p.Token), string(p.FileToken)),
		URL:   firstNonEmpty(string(p.URL), string(p.DownloadURL), string(p.PreviewURL)),
	}
}

func decodeEmbed(key string, raw json.RawMessage) *Embed {
	var p struct {
		URL        flexString `json:"url"`
		Link       flexString `json:"link"`
		PreviewURL flexString `json:"preview_url"`
		Title      flexString `json:"title"`
		Name       flexString `json:"name"`
		Text       flexString `json:"text"`
		Component  *urlHolder `json:"component"`
	}
	_ = json.Unmarshal(raw, &p)
	return &Embed{
		Key:   key,
		Title: firstNonEmpty(string(p.Title), string(p.Name), string(p.Text)),
		URL:   firstNonEmpty(string(p.URL), string(p.Link), string(p.PreviewURL), componentURL(p.Component)),
	}
}

// decodeFields reads the top-level object keys in source order.
func decodeFields(data []byte) ([]Field, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotObject, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, ErrNotObject
	}

	var fields []Field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotObject, err)
		}
		key, _ := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrNotObject, key, err)
		}
		fields = append(fields, Field{Key: key, Value: raw})
	}
	return fields, nil
}

// lookup returns the last value stored under key, matching JSON.parse
// semantics for duplicate keys.
func lookup(fields []Field, key string) (json.RawMessage, bool) {
	for i := len(fields) - 1; i >= 0; i-- {
		if fields[i].Key == key {
			return fields[i].Value, true
		}
	}
	return nil, false
}

func lookupPath(raw json.RawMessage, key string) (json.RawMessage, bool) {
	fields, err := decodeFields(raw)
	if err != nil {
		return nil, false
	}
	return lookup(fields, key)
}

func firstObject(fields []Field, keys []string) (string, json.RawMessage, bool) {
	for _, key := range keys {
		if raw, ok := lookup(fields, key); ok && isObject(raw) {
			return key, raw, true
		}
	}
	return "", nil, false
}

func firstTruthy(fields []Field, keys []string) (string, json.RawMessage, bool) {
	for _, key := range keys {
		if raw, ok := lookup(fields, key); ok && isTruthy(raw) {
			return key, raw, true
		}
	}
	return "", nil, false
}

func unmarshalKey(fields []Field, key string, v any) {
	raw, ok := lookup(fields, key)
	if !ok || !isObject(raw) {
		return
	}
	_ = json.Unmarshal(raw, v)
}

func isObject(raw json.RawMessage) bool {
	b := bytes.TrimSpace(raw)
	return len(b) > 0 && b[0] == '{'
}

func isArray(raw json.RawMessage) bool {
	b := bytes.TrimSpace(raw)
	return len(b) > 0 && b[0] == '['
}

func isTruthy(raw json.RawMessage) bool {
	s := string(bytes.TrimSpace(raw))
	switch s {
	case "", "null", "false", `""`:
		return false
	case "{}", "[]", "true":
		return true
	}
	if s[0] == '{' || s[0] == '[' || s[0] == '"' {
		return true
	}
	f, ok := parseFlexNumber(raw)
	return ok && f != 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
