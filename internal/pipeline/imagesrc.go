package pipeline

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// TokenAttr is the attribute the renderer puts on every document image.
const TokenAttr = "data-feishu-token"

// SetImageSources sets src on every <img data-feishu-token="T"> whose
// token has an entry in sources. Images without an entry are left as
// they are. With no sources the HTML is returned unchanged.
func SetImageSources(htmlContent string, sources map[string]string) (string, error) {
	if len(sources) == 0 {
		return htmlContent, nil
	}

	doc, isFragment, err := parseHTML(htmlContent)
	if err != nil {
		return "", err
	}
	setSources(doc, sources)
	return renderHTML(doc, isFragment)
}

// parseHTML parses either a full document or a body fragment.
func parseHTML(content string) (*html.Node, bool, error) {
	trimmed := strings.ToLower(strings.TrimSpace(content))
	if strings.HasPrefix(trimmed, "<!doctype") || strings.HasPrefix(trimmed, "<html") {
		doc, err := html.Parse(strings.NewReader(content))
		return doc, false, err
	}

	body := &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
	nodes, err := html.ParseFragment(strings.NewReader(content), body)
	if err != nil {
		return nil, true, err
	}
	container := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return container, true, nil
}

// renderHTML renders a parsed tree. Fragments render child by child so no
// <html><body> wrapper appears.
func renderHTML(doc *html.Node, isFragment bool) (string, error) {
	var buf strings.Builder
	if !isFragment {
		if err := html.Render(&buf, doc); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func setSources(n *html.Node, sources map[string]string) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Img {
		if token := attr(n, TokenAttr); token != "" {
			if src, ok := sources[token]; ok && src != "" {
				setAttr(n, "src", src)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		setSources(c, sources)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
