package blocks

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Element is one inline item of a rich-text container. At most one of the
// pointer fields is set; Plain is used when the API sends a bare string.
type Element struct {
	TextRun     *TextRun
	MentionUser *MentionUser
	MentionDoc  *MentionDoc
	DocsLink    *DocsLink
	Plain       string
}

// TextRun is a styled span of text.
type TextRun struct {
	Content string
	Style   TextStyle
}

// TextStyle is the inline style of a text run.
type TextStyle struct {
	Bold            bool
	Italic          bool
	Underline       bool
	Strikethrough   bool
	InlineCode      bool
	BackgroundColor int
	TextColor       int
	LinkURL         string
}

// MentionUser is an @-mention.
type MentionUser struct {
	Name   string
	UserID string
}

// MentionDoc is an inline reference to another document.
type MentionDoc struct {
	Title string
	URL   string
}

// DocsLink is a bare cross-document link.
type DocsLink struct {
	URL string
}

type wireElement struct {
	TextRun *struct {
		Content flexString `json:"content"`
		Style   struct {
			Bold            flexBool `json:"bold"`
			Italic          flexBool `json:"italic"`
			Underline       flexBool `json:"underline"`
			Strikethrough   flexBool `json:"strikethrough"`
			InlineCode      flexBool `json:"inline_code"`
			BackgroundColor flexInt  `json:"background_color"`
			TextColor       flexInt  `json:"text_color"`
			Link            *struct {
				URL flexString `json:"url"`
			} `json:"link"`
		} `json:"text_element_style"`
	} `json:"text_run"`
	MentionUser *struct {
		Name   flexString `json:"name"`
		UserID flexString `json:"user_id"`
	} `json:"mention_user"`
	MentionDoc *struct {
		Title flexString `json:"title"`
		URL   flexString `json:"url"`
	} `json:"mention_doc"`
	DocsLink *struct {
		URL flexString `json:"url"`
	} `json:"docs_link"`
}

// UnmarshalJSON accepts an element object, a bare string, or anything else
// (which decodes to an empty element).
func (e *Element) UnmarshalJSON(data []byte) error {
	*e = Element{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil
		}
		e.Plain = s
		return nil
	case '{':
	default:
		return nil
	}

	var w wireElement
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return nil
	}
	if w.TextRun != nil {
		st := w.TextRun.Style
		run := &TextRun{
			Content: string(w.TextRun.Content),
			Style: TextStyle{
				Bold:            bool(st.Bold),
				Italic:          bool(st.Italic),
				Underline:       bool(st.Underline),
				Strikethrough:   bool(st.Strikethrough),
				InlineCode:      bool(st.InlineCode),
				BackgroundColor: int(st.BackgroundColor),
				TextColor:       int(st.TextColor),
			},
		}
		if st.Link != nil {
			run.Style.LinkURL = string(st.Link.URL)
		}
		e.TextRun = run
	}
	if w.MentionUser != nil {
		e.MentionUser = &MentionUser{Name: string(w.MentionUser.Name), UserID: string(w.MentionUser.UserID)}
	}
	if w.MentionDoc != nil {
		e.MentionDoc = &MentionDoc{Title: string(w.MentionDoc.Title), URL: string(w.MentionDoc.URL)}
	}
	if w.DocsLink != nil {
		e.DocsLink = &DocsLink{URL: string(w.DocsLink.URL)}
	}
	return nil
}

// flexInt decodes numbers, numeric strings and null. Anything unparseable is 0.
type flexInt int

func (n *flexInt) UnmarshalJSON(data []byte) error {
	f, _ := parseFlexNumber(data)
	*n = flexInt(f)
	return nil
}

// flexFloat is the float64 counterpart of flexInt.
type flexFloat float64

func (n *flexFloat) UnmarshalJSON(data []byte) error {
	f, _ := parseFlexNumber(data)
	*n = flexFloat(f)
	return nil
}

func parseFlexNumber(data []byte) (float64, bool) {
	s := strings.TrimSpace(string(data))
	s = strings.Trim(s, `"`)
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// flexBool treats true, non-zero numbers and non-empty strings as true.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	switch {
	case s == "true":
		*b = true
	case s == "false", s == "null", s == `""`, s == "":
		*b = false
	case s[0] == '"':
		*b = true
	default:
		f, ok := parseFlexNumber(data)
		*b = flexBool(ok && f != 0)
	}
	return nil
}

// flexString decodes strings and numbers (as their literal text); objects,
// arrays and null decode to "".
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		*s = ""
		return nil
	}
	switch trimmed[0] {
	case '"':
		var v string
		if err := json.Unmarshal(trimmed, &v); err != nil {
			*s = ""
			return nil
		}
		*s = flexString(v)
	case '{', '[', 'n', 't', 'f':
		*s = ""
	default:
		*s = flexString(trimmed)
	}
	return nil
}
