// Package cst implements a tolerant, error-recovering concrete syntax tree
// for the Protocol Buffers IDL.
//
// Parse never fails: malformed input produces a tree containing ERROR nodes
// (text that could not be attributed to any grammar production) and MISSING
// nodes (a production whose required piece was simply absent). This mirrors
// how an editor buffer looks mid-keystroke far more often than it looks like
// a file protoc would accept.
package cst

// Point is a zero-based (row, column) source location. Column counts bytes
// from the start of the line, matching the node's byte range; it is not a
// UTF-16 code unit count. Callers that need LSP positions go through byte
// offsets instead (see Tree.DescendantForByte), since that's what an LSP
// position translates into.
type Point struct {
	Row    int
	Column int
}

// Less reports whether p sorts strictly before q.
func (p Point) Less(q Point) bool {
	return p.Row < q.Row || (p.Row == q.Row && p.Column < q.Column)
}

// PointRange is a half-open [Start, End) span expressed as Points.
type PointRange struct {
	Start, End Point
}

func (r PointRange) contains(p Point) bool {
	return !p.Less(r.Start) && (p.Less(r.End) || p == r.End)
}

// ByteRange is a half-open [Start, End) span of byte offsets into the
// source text.
type ByteRange struct {
	Start, End int
}

func (r ByteRange) contains(offset int) bool {
	return offset >= r.Start && offset <= r.End
}

// Kind identifies the grammar production (or literal token) a Node
// represents. Named kinds are the constants below; anonymous kinds for
// punctuation and keywords used as literal tokens are the literal text of
// the token, e.g. "{" or "message". A few other anonymous kinds
// ("numberLit", "intLit", "fieldOptions", "rpcBody") name literals and
// groupings that have no named kind.
type Kind string

// Named node kinds. These are the kinds spec-relevant queries switch on.
const (
	KindSourceFile      Kind = "source_file"
	KindPackage         Kind = "package"
	KindFullIdent       Kind = "fullIdent"
	KindIdent           Kind = "ident"
	KindImport          Kind = "import"
	KindStrLit          Kind = "strLit"
	KindMessage         Kind = "message"
	KindMessageName     Kind = "messageName"
	KindMessageBody     Kind = "messageBody"
	KindEnum            Kind = "enum"
	KindEnumName        Kind = "enumName"
	KindEnumBody        Kind = "enumBody"
	KindEnumValue       Kind = "enumValue"
	KindService         Kind = "service"
	KindServiceName     Kind = "serviceName"
	KindServiceBody     Kind = "serviceBody"
	KindField           Kind = "field"
	KindFieldName       Kind = "fieldName"
	KindType            Kind = "type"
	KindEnumMessageType Kind = "enumMessageType"
	KindOneof           Kind = "oneof"
	KindOneofName       Kind = "oneofName"
	KindOneofBody       Kind = "oneofBody"
	KindMapField        Kind = "mapField"
	KindOption          Kind = "option"
	KindOptionName      Kind = "optionName"
	KindRPC             Kind = "rpc"
	KindRPCName         Kind = "rpcName"
	KindSyntax          Kind = "syntax"
	KindReserved        Kind = "reserved"
	KindExtensions      Kind = "extensions"
	KindGroup           Kind = "group"

	// KindError marks a span of input that could not be attributed to any
	// production; its children are the tokens that were skipped during
	// recovery, as anonymous leaves.
	KindError Kind = "ERROR"
	// KindMissing is not produced by the parser. A piece that the input
	// simply omits (e.g. a message body with no closing brace) is a
	// zero-width node of the expected kind, at the point where the piece
	// was expected, whose IsMissing reports true.
	KindMissing Kind = "MISSING"
)

// Node is one node of a parsed Tree. Nodes are immutable once constructed.
type Node struct {
	tree  *Tree
	kind  Kind
	named bool

	parent   *Node
	children []*Node

	byteRange  ByteRange
	pointRange PointRange

	isError   bool
	isMissing bool
}

// Kind returns the node's grammar production, or the literal token text for
// anonymous nodes.
func (n *Node) Kind() Kind { return n.kind }

// IsNamed reports whether this node corresponds to a grammar production
// (as opposed to a literal keyword or punctuation token).
func (n *Node) IsNamed() bool { return n.named }

// Parent returns the node's parent, or nil for the tree root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns all children, named and anonymous, in source order.
func (n *Node) Children() []*Node { return n.children }

// NamedChildren returns only the named children, in source order.
func (n *Node) NamedChildren() []*Node {
	var out []*Node
	for _, c := range n.children {
		if c.named {
			out = append(out, c)
		}
	}
	return out
}

// ByteRange returns the node's half-open byte span in the source text.
func (n *Node) ByteRange() ByteRange { return n.byteRange }

// PointRange returns the node's half-open (row, column) span.
func (n *Node) PointRange() PointRange { return n.pointRange }

// Text returns the source text spanned by this node.
func (n *Node) Text() string {
	if n.tree == nil {
		return ""
	}
	return n.tree.source[n.byteRange.Start:n.byteRange.End]
}

// IsError reports whether this node is an ERROR node. The tokens inside an
// ERROR node do not report true; use AncestorByKind(KindError) for them.
func (n *Node) IsError() bool { return n.isError }

// IsMissing reports whether this node stands in for a piece of grammar the
// input omitted entirely.
func (n *Node) IsMissing() bool { return n.isMissing }

// ChildByKind returns the first child, named or anonymous, with the given
// kind, or nil.
func (n *Node) ChildByKind(kind Kind) *Node {
	for _, c := range n.children {
		if c.kind == kind {
			return c
		}
	}
	return nil
}

// AncestorByKind walks up from n (inclusive) to find the nearest node with
// the given kind.
func (n *Node) AncestorByKind(kind Kind) *Node {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.kind == kind {
			return cur
		}
	}
	return nil
}
