package blocks

import "strings"

// Map indexes nodes by id. It is read-only after NewMap returns.
type Map struct {
	nodes map[string]*Node
	order []*Node
}

// NewMap indexes nodes by id. Nodes without an id are kept in iteration
// order but cannot be looked up; a repeated id replaces the earlier node.
func NewMap(nodes []*Node) *Map {
	m := &Map{
		nodes: make(map[string]*Node, len(nodes)),
		order: make([]*Node, 0, len(nodes)),
	}
	for _, n := range nodes {
		if n == nil {
			continue
		}
		m.order = append(m.order, n)
		if n.ID != "" {
			m.nodes[n.ID] = n
		}
	}
	return m
}

// Get returns the node with the given id.
func (m *Map) Get(id string) (*Node, bool) {
	if m == nil {
		return nil, false
	}
	n, ok := m.nodes[strings.TrimSpace(id)]
	return n, ok
}

// Len returns the number of decoded nodes.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// Nodes returns the nodes in source order.
func (m *Map) Nodes() []*Node {
	if m == nil {
		return nil
	}
	out := make([]*Node, len(m.order))
	copy(out, m.order)
	return out
}

// Root returns the document root: the node whose id equals the document
// token, else the first page block.
func (m *Map) Root(docToken string) *Node {
	if n, ok := m.Get(docToken); ok {
		return n
	}
	for _, n := range m.order {
		if n.Type == TypePage {
			return n
		}
	}
	return nil
}

// RootChildren returns the ids rendering starts from: the root's children,
// or the document token itself when the root has none.
func (m *Map) RootChildren(docToken string) []string {
	if root := m.Root(docToken); root != nil && len(root.Children) > 0 {
		return root.Children
	}
	return []string{docToken}
}

// MinHeadingLevel returns the shallowest heading level (1-6) reachable
// from rootIDs through children and table cells, or 0 when none is.
// Detached nodes do not count.
func (m *Map) MinHeadingLevel(rootIDs []string) int {
	minLevel := 0
	seen := make(map[string]bool)
	stack := append([]string(nil), rootIDs...)
	for len(stack) > 0 {
		id := strings.TrimSpace(stack[len(stack)-1])
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true

		n, ok := m.Get(id)
		if !ok {
			continue
		}
		if level := n.Type.HeadingLevel(); level > 0 && (minLevel == 0 || level < minLevel) {
			minLevel = level
		}
		stack = append(stack, n.Children...)
		if tbl, ok := n.Payload.(*Table); ok {
			stack = append(stack, tbl.Cells...)
		}
	}
	return minLevel
}
