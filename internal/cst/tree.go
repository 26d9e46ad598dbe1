package cst

// Tree is the parse of one Proto document. It is a pure function of the
// source text that produced it: Parse(text) always yields a tree of the
// same shape for the same text, error recovery included.
type Tree struct {
	source string
	root   *Node
}

// Source returns the text this tree was parsed from.
func (t *Tree) Source() string { return t.source }

// Root returns the tree's root node. Its kind is source_file unless parsing
// could not even establish that much (which does not happen in this
// grammar: Parse always produces a source_file root).
func (t *Tree) Root() *Node { return t.root }

// DescendantForByte returns the smallest node whose byte range contains
// offset, searching from the root down. The root spans from its first to
// its last token, not leading or trailing whitespace; for an offset outside
// that span the root itself is returned.
func (t *Tree) DescendantForByte(offset int) *Node {
	n := t.root
	if n == nil || !n.byteRange.contains(offset) {
		return n
	}
	for {
		next := childContaining(n, offset)
		if next == nil {
			return n
		}
		n = next
	}
}

// NamedDescendantForByte returns the smallest *named* node whose byte range
// contains offset. This is what spec.md calls "the named descendant
// covering a position": the deepest covering node, widened outward until it
// is a grammar production rather than a bare keyword or punctuation token.
func (t *Tree) NamedDescendantForByte(offset int) *Node {
	n := t.DescendantForByte(offset)
	for n != nil && !n.named {
		n = n.parent
	}
	return n
}

func childContaining(n *Node, offset int) *Node {
	for _, c := range n.children {
		if c.byteRange.contains(offset) {
			return c
		}
	}
	return nil
}

// DescendantForPoint is the Point analogue of DescendantForByte, for
// callers that only have row/column information (e.g. debugging output).
func (t *Tree) DescendantForPoint(p Point) *Node {
	n := t.root
	if n == nil || !n.pointRange.contains(p) {
		return n
	}
	for {
		var next *Node
		for _, c := range n.children {
			if c.pointRange.contains(p) {
				next = c
				break
			}
		}
		if next == nil {
			return n
		}
		n = next
	}
}
