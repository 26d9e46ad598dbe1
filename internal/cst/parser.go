package cst

// Parse produces the concrete syntax tree for text. It never fails: any
// input that doesn't fit the grammar yields ERROR/MISSING nodes rather than
// an error value, since this is the grammar an editor buffer is parsed
// against mid-keystroke, not a compiler's final-answer parse.
func Parse(text string) *Tree {
	tree := &Tree{source: text}
	p := &parser{toks: lex(text), tree: tree}
	tree.root = p.parseSourceFile()
	return tree
}

var primitiveTypes = map[string]bool{
	"double": true, "float": true, "int32": true, "int64": true,
	"uint32": true, "uint64": true, "sint32": true, "sint64": true,
	"fixed32": true, "fixed64": true, "sfixed32": true, "sfixed64": true,
	"bool": true, "string": true, "bytes": true,
}

func isPrimitiveType(s string) bool { return primitiveTypes[s] }

type parser struct {
	toks []token
	pos  int
	tree *Tree
}

func (p *parser) cur() token { return p.toks[p.pos] }

func (p *parser) peekTok(n int) token {
	idx := p.pos + n
	if idx < 0 {
		idx = 0
	}
	if idx >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[idx]
}

func (p *parser) atEOF() bool { return p.cur().kind == tokEOF }

func (p *parser) at(kind tokKind) bool { return p.cur().kind == kind }

func (p *parser) atSymbol(sym string) bool {
	return p.cur().kind == tokSymbol && p.cur().text == sym
}

func (p *parser) atKeyword(kw string) bool {
	return p.cur().kind == tokIdent && p.cur().text == kw
}

func (p *parser) advance() token {
	tok := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return tok
}

// anon consumes the current token as an anonymous leaf whose kind is its
// own literal text: keywords and punctuation both work this way.
func (p *parser) anon() *Node {
	k := Kind(p.cur().text)
	tok := p.advance()
	return &Node{tree: p.tree, kind: k, named: false, byteRange: tok.start, pointRange: tok.point}
}

// leaf consumes the current token as a named or anonymous leaf of the given
// kind.
func (p *parser) leaf(kind Kind, named bool) *Node {
	tok := p.advance()
	return &Node{tree: p.tree, kind: kind, named: named, byteRange: tok.start, pointRange: tok.point}
}

// missing synthesizes a zero-width named node standing in for a production
// whose content is entirely absent, without consuming any input.
func (p *parser) missing(kind Kind) *Node {
	tok := p.cur()
	return &Node{
		tree: p.tree, kind: kind, named: true, isMissing: true,
		byteRange:  ByteRange{tok.start.Start, tok.start.Start},
		pointRange: PointRange{tok.point.Start, tok.point.Start},
	}
}

// missingAnon is the anonymous counterpart to missing, for expected literal
// tokens (punctuation, keywords) that are absent.
func (p *parser) missingAnon(text string) *Node {
	tok := p.cur()
	return &Node{
		tree: p.tree, kind: Kind(text), named: false, isMissing: true,
		byteRange:  ByteRange{tok.start.Start, tok.start.Start},
		pointRange: PointRange{tok.point.Start, tok.point.Start},
	}
}

func (p *parser) expectSymbol(sym string) *Node {
	if p.atSymbol(sym) {
		return p.anon()
	}
	return p.missingAnon(sym)
}

func (p *parser) expectKeyword(kw string) *Node {
	if p.atKeyword(kw) {
		return p.anon()
	}
	return p.missingAnon(kw)
}

// compose builds a composite node spanning all of its children. An empty
// child list spans a zero-width range at the current token (this happens
// for the root of a source with no tokens; parseErrorUntil always consumes
// at least one token).
func (p *parser) compose(kind Kind, named bool, children []*Node) *Node {
	n := &Node{tree: p.tree, kind: kind, named: named, children: children}
	if len(children) > 0 {
		n.byteRange = ByteRange{children[0].byteRange.Start, children[len(children)-1].byteRange.End}
		n.pointRange = PointRange{children[0].pointRange.Start, children[len(children)-1].pointRange.End}
	} else {
		tok := p.cur()
		n.byteRange = ByteRange{tok.start.Start, tok.start.Start}
		n.pointRange = PointRange{tok.point.Start, tok.point.Start}
	}
	for _, c := range children {
		c.parent = n
	}
	return n
}

// parseErrorUntil consumes tokens as an ERROR node until stop reports true,
// guaranteeing at least one token of progress so callers can never loop
// forever on unrecognized input.
func (p *parser) parseErrorUntil(stop func() bool) *Node {
	var children []*Node
	for !p.atEOF() && (len(children) == 0 || !stop()) {
		children = append(children, p.anon())
	}
	n := p.compose(KindError, true, children)
	n.isError = true
	return n
}

func (p *parser) parseFullIdent(named bool) *Node {
	var children []*Node
	if p.at(tokIdent) {
		children = append(children, p.leaf(KindIdent, true))
	} else {
		children = append(children, p.missing(KindIdent))
	}
	for p.atSymbol(".") {
		children = append(children, p.anon())
		if p.at(tokIdent) {
			children = append(children, p.leaf(KindIdent, true))
		} else {
			children = append(children, p.missing(KindIdent))
			break
		}
	}
	return p.compose(KindFullIdent, named, children)
}

func (p *parser) parseType() *Node {
	if p.at(tokIdent) && isPrimitiveType(p.cur().text) {
		return p.leaf(KindType, true)
	}
	var children []*Node
	if p.atSymbol(".") {
		children = append(children, p.anon())
	}
	if p.at(tokIdent) {
		children = append(children, p.leaf(KindIdent, true))
	} else {
		children = append(children, p.missing(KindIdent))
	}
	for p.atSymbol(".") {
		children = append(children, p.anon())
		if p.at(tokIdent) {
			children = append(children, p.leaf(KindIdent, true))
		} else {
			children = append(children, p.missing(KindIdent))
			break
		}
	}
	return p.compose(KindEnumMessageType, true, children)
}

func (p *parser) parseConstant() *Node {
	switch {
	case p.at(tokString):
		return p.leaf(KindStrLit, true)
	case p.at(tokIdent):
		return p.leaf(KindIdent, true)
	case p.at(tokInt) || p.at(tokFloat):
		return p.leaf(Kind("numberLit"), false)
	case p.atSymbol("-") && (p.peekTok(1).kind == tokInt || p.peekTok(1).kind == tokFloat):
		minus := p.anon()
		num := p.leaf(Kind("numberLit"), false)
		return p.compose(Kind("numberLit"), false, []*Node{minus, num})
	default:
		return p.missing(KindIdent)
	}
}

func (p *parser) parseOptionName() *Node {
	var children []*Node
	if p.atSymbol("(") {
		children = append(children, p.anon())
		children = append(children, p.parseFullIdent(true))
		children = append(children, p.expectSymbol(")"))
	} else {
		children = append(children, p.parseFullIdent(true))
	}
	for p.atSymbol(".") {
		children = append(children, p.anon())
		if p.at(tokIdent) {
			children = append(children, p.leaf(KindIdent, true))
		} else {
			children = append(children, p.missing(KindIdent))
			break
		}
	}
	return p.compose(KindOptionName, true, children)
}

func (p *parser) parseOption() *Node {
	kw := p.expectKeyword("option")
	name := p.parseOptionName()
	eq := p.expectSymbol("=")
	val := p.parseConstant()
	semi := p.expectSymbol(";")
	return p.compose(KindOption, true, []*Node{kw, name, eq, val, semi})
}

func (p *parser) parseFieldOptions() *Node {
	open := p.expectSymbol("[")
	children := []*Node{open}
	for !p.atSymbol("]") && !p.atEOF() {
		name := p.parseOptionName()
		eq := p.expectSymbol("=")
		val := p.parseConstant()
		children = append(children, p.compose(KindOption, true, []*Node{name, eq, val}))
		if p.atSymbol(",") {
			children = append(children, p.anon())
			continue
		}
		break
	}
	children = append(children, p.expectSymbol("]"))
	return p.compose(Kind("fieldOptions"), false, children)
}

func (p *parser) parseSyntax() *Node {
	kw := p.anon()
	eq := p.expectSymbol("=")
	var str *Node
	if p.at(tokString) {
		str = p.leaf(KindStrLit, true)
	} else {
		str = p.missing(KindStrLit)
	}
	semi := p.expectSymbol(";")
	return p.compose(KindSyntax, true, []*Node{kw, eq, str, semi})
}

func (p *parser) parsePackage() *Node {
	kw := p.anon()
	name := p.parseFullIdent(true)
	semi := p.expectSymbol(";")
	return p.compose(KindPackage, true, []*Node{kw, name, semi})
}

func (p *parser) parseImport() *Node {
	kw := p.anon()
	children := []*Node{kw}
	if p.atKeyword("public") || p.atKeyword("weak") {
		children = append(children, p.anon())
	}
	if p.at(tokString) {
		children = append(children, p.leaf(KindStrLit, true))
	} else {
		children = append(children, p.missing(KindStrLit))
	}
	children = append(children, p.expectSymbol(";"))
	return p.compose(KindImport, true, children)
}

func (p *parser) parseReserved() *Node {
	kw := p.anon()
	children := []*Node{kw}
	for !p.atSymbol(";") && !p.atEOF() {
		children = append(children, p.anon())
	}
	children = append(children, p.expectSymbol(";"))
	return p.compose(KindReserved, true, children)
}

func (p *parser) parseExtensions() *Node {
	kw := p.anon()
	children := []*Node{kw}
	for !p.atSymbol(";") && !p.atEOF() {
		children = append(children, p.anon())
	}
	children = append(children, p.expectSymbol(";"))
	return p.compose(KindExtensions, true, children)
}

// -- message --

func (p *parser) parseMessage() *Node {
	kw := p.anon()
	var name *Node
	if p.at(tokIdent) {
		name = p.leaf(KindMessageName, true)
	} else {
		name = p.missing(KindMessageName)
	}
	body := p.parseMessageBody()
	return p.compose(KindMessage, true, []*Node{kw, name, body})
}

func (p *parser) messageMemberSync() bool {
	if p.atEOF() || p.atSymbol("}") || p.atSymbol(";") {
		return true
	}
	// Every identifier can start a member: keywords select their own
	// production, and parseMessageBody parses any other identifier as the
	// type of a field.
	return p.at(tokIdent)
}

func (p *parser) parseMessageBody() *Node {
	open := p.expectSymbol("{")
	children := []*Node{open}
	for !p.atSymbol("}") && !p.atEOF() {
		switch {
		case p.atSymbol(";"):
			children = append(children, p.anon())
		case p.atKeyword("message"):
			children = append(children, p.parseMessage())
		case p.atKeyword("enum"):
			children = append(children, p.parseEnum())
		case p.atKeyword("oneof"):
			children = append(children, p.parseOneof())
		case p.atKeyword("option"):
			children = append(children, p.parseOption())
		case p.atKeyword("reserved"):
			children = append(children, p.parseReserved())
		case p.atKeyword("extensions"):
			children = append(children, p.parseExtensions())
		case p.atKeyword("map") && p.peekTok(1).kind == tokSymbol && p.peekTok(1).text == "<":
			children = append(children, p.parseMapField())
		case p.at(tokIdent) || p.atKeyword("repeated") || p.atKeyword("optional") || p.atKeyword("required"):
			children = append(children, p.parseField())
		default:
			children = append(children, p.parseErrorUntil(p.messageMemberSync))
		}
	}
	children = append(children, p.expectSymbol("}"))
	return p.compose(KindMessageBody, true, children)
}

func (p *parser) parseField() *Node {
	var children []*Node
	if p.atKeyword("repeated") || p.atKeyword("optional") || p.atKeyword("required") {
		children = append(children, p.anon())
	}
	children = append(children, p.parseType())
	var name *Node
	if p.at(tokIdent) {
		name = p.leaf(KindFieldName, true)
	} else {
		name = p.missing(KindFieldName)
	}
	children = append(children, name)
	children = append(children, p.expectSymbol("="))
	if p.at(tokInt) {
		children = append(children, p.leaf(Kind("intLit"), false))
	} else {
		children = append(children, p.missing(Kind("intLit")))
	}
	if p.atSymbol("[") {
		children = append(children, p.parseFieldOptions())
	}
	children = append(children, p.expectSymbol(";"))
	return p.compose(KindField, true, children)
}

func (p *parser) parseMapField() *Node {
	kw := p.anon()
	children := []*Node{kw, p.expectSymbol("<"), p.parseType(), p.expectSymbol(","), p.parseType(), p.expectSymbol(">")}
	var name *Node
	if p.at(tokIdent) {
		name = p.leaf(KindFieldName, true)
	} else {
		name = p.missing(KindFieldName)
	}
	children = append(children, name, p.expectSymbol("="))
	if p.at(tokInt) {
		children = append(children, p.leaf(Kind("intLit"), false))
	} else {
		children = append(children, p.missing(Kind("intLit")))
	}
	if p.atSymbol("[") {
		children = append(children, p.parseFieldOptions())
	}
	children = append(children, p.expectSymbol(";"))
	return p.compose(KindMapField, true, children)
}

// -- oneof --

func (p *parser) oneofMemberSync() bool {
	if p.atEOF() || p.atSymbol("}") || p.atSymbol(";") {
		return true
	}
	return p.atKeyword("option")
}

func (p *parser) parseOneof() *Node {
	kw := p.anon()
	var name *Node
	if p.at(tokIdent) {
		name = p.leaf(KindOneofName, true)
	} else {
		name = p.missing(KindOneofName)
	}
	body := p.parseOneofBody()
	return p.compose(KindOneof, true, []*Node{kw, name, body})
}

func (p *parser) parseOneofBody() *Node {
	open := p.expectSymbol("{")
	children := []*Node{open}
	for !p.atSymbol("}") && !p.atEOF() {
		switch {
		case p.atSymbol(";"):
			children = append(children, p.anon())
		case p.atKeyword("option"):
			children = append(children, p.parseOption())
		case p.at(tokIdent):
			children = append(children, p.parseOneofField())
		default:
			children = append(children, p.parseErrorUntil(p.oneofMemberSync))
		}
	}
	children = append(children, p.expectSymbol("}"))
	return p.compose(KindOneofBody, true, children)
}

func (p *parser) parseOneofField() *Node {
	typ := p.parseType()
	var name *Node
	if p.at(tokIdent) {
		name = p.leaf(KindFieldName, true)
	} else {
		name = p.missing(KindFieldName)
	}
	children := []*Node{typ, name, p.expectSymbol("=")}
	if p.at(tokInt) {
		children = append(children, p.leaf(Kind("intLit"), false))
	} else {
		children = append(children, p.missing(Kind("intLit")))
	}
	if p.atSymbol("[") {
		children = append(children, p.parseFieldOptions())
	}
	children = append(children, p.expectSymbol(";"))
	return p.compose(KindField, true, children)
}

// -- enum --

func (p *parser) enumMemberSync() bool {
	if p.atEOF() || p.atSymbol("}") || p.atSymbol(";") {
		return true
	}
	if p.at(tokIdent) {
		switch p.cur().text {
		case "option", "reserved":
			return true
		}
	}
	return false
}

func (p *parser) parseEnum() *Node {
	kw := p.anon()
	var name *Node
	if p.at(tokIdent) {
		name = p.leaf(KindEnumName, true)
	} else {
		name = p.missing(KindEnumName)
	}
	body := p.parseEnumBody()
	return p.compose(KindEnum, true, []*Node{kw, name, body})
}

func (p *parser) parseEnumBody() *Node {
	open := p.expectSymbol("{")
	children := []*Node{open}
	for !p.atSymbol("}") && !p.atEOF() {
		switch {
		case p.atSymbol(";"):
			children = append(children, p.anon())
		case p.atKeyword("option"):
			children = append(children, p.parseOption())
		case p.atKeyword("reserved"):
			children = append(children, p.parseReserved())
		case p.at(tokIdent):
			children = append(children, p.parseEnumValue())
		default:
			children = append(children, p.parseErrorUntil(p.enumMemberSync))
		}
	}
	children = append(children, p.expectSymbol("}"))
	return p.compose(KindEnumBody, true, children)
}

func (p *parser) parseEnumValue() *Node {
	name := p.leaf(KindIdent, true)
	children := []*Node{name, p.expectSymbol("=")}
	if p.atSymbol("-") {
		children = append(children, p.anon())
	}
	if p.at(tokInt) {
		children = append(children, p.leaf(Kind("intLit"), false))
	} else {
		children = append(children, p.missing(Kind("intLit")))
	}
	if p.atSymbol("[") {
		children = append(children, p.parseFieldOptions())
	}
	children = append(children, p.expectSymbol(";"))
	return p.compose(KindEnumValue, true, children)
}

// -- service --

func (p *parser) serviceMemberSync() bool {
	if p.atEOF() || p.atSymbol("}") || p.atSymbol(";") {
		return true
	}
	if p.at(tokIdent) {
		switch p.cur().text {
		case "option", "rpc":
			return true
		}
	}
	return false
}

func (p *parser) parseService() *Node {
	kw := p.anon()
	var name *Node
	if p.at(tokIdent) {
		name = p.leaf(KindServiceName, true)
	} else {
		name = p.missing(KindServiceName)
	}
	body := p.parseServiceBody()
	return p.compose(KindService, true, []*Node{kw, name, body})
}

func (p *parser) parseServiceBody() *Node {
	open := p.expectSymbol("{")
	children := []*Node{open}
	for !p.atSymbol("}") && !p.atEOF() {
		switch {
		case p.atSymbol(";"):
			children = append(children, p.anon())
		case p.atKeyword("option"):
			children = append(children, p.parseOption())
		case p.atKeyword("rpc"):
			children = append(children, p.parseRPC())
		default:
			children = append(children, p.parseErrorUntil(p.serviceMemberSync))
		}
	}
	children = append(children, p.expectSymbol("}"))
	return p.compose(KindServiceBody, true, children)
}

func (p *parser) rpcBodyMemberSync() bool {
	if p.atEOF() || p.atSymbol("}") || p.atSymbol(";") {
		return true
	}
	return p.atKeyword("option")
}

func (p *parser) parseRPC() *Node {
	kw := p.anon()
	var name *Node
	if p.at(tokIdent) {
		name = p.leaf(KindRPCName, true)
	} else {
		name = p.missing(KindRPCName)
	}
	children := []*Node{kw, name, p.expectSymbol("(")}
	if p.atKeyword("stream") {
		children = append(children, p.anon())
	}
	children = append(children, p.parseType(), p.expectSymbol(")"), p.expectKeyword("returns"), p.expectSymbol("("))
	if p.atKeyword("stream") {
		children = append(children, p.anon())
	}
	children = append(children, p.parseType(), p.expectSymbol(")"))
	if p.atSymbol("{") {
		children = append(children, p.parseRPCBody())
	} else {
		children = append(children, p.expectSymbol(";"))
	}
	return p.compose(KindRPC, true, children)
}

func (p *parser) parseRPCBody() *Node {
	open := p.expectSymbol("{")
	children := []*Node{open}
	for !p.atSymbol("}") && !p.atEOF() {
		switch {
		case p.atSymbol(";"):
			children = append(children, p.anon())
		case p.atKeyword("option"):
			children = append(children, p.parseOption())
		default:
			children = append(children, p.parseErrorUntil(p.rpcBodyMemberSync))
		}
	}
	children = append(children, p.expectSymbol("}"))
	return p.compose(Kind("rpcBody"), false, children)
}

// -- top level --

func (p *parser) topLevelSync() bool {
	if p.atEOF() || p.atSymbol(";") {
		return true
	}
	if p.at(tokIdent) {
		switch p.cur().text {
		case "syntax", "package", "import", "option", "message", "enum", "service":
			return true
		}
	}
	return false
}

func (p *parser) parseSourceFile() *Node {
	var children []*Node
	for !p.atEOF() {
		switch {
		case p.atSymbol(";"):
			children = append(children, p.anon())
		case p.atKeyword("syntax"):
			children = append(children, p.parseSyntax())
		case p.atKeyword("package"):
			children = append(children, p.parsePackage())
		case p.atKeyword("import"):
			children = append(children, p.parseImport())
		case p.atKeyword("option"):
			children = append(children, p.parseOption())
		case p.atKeyword("message"):
			children = append(children, p.parseMessage())
		case p.atKeyword("enum"):
			children = append(children, p.parseEnum())
		case p.atKeyword("service"):
			children = append(children, p.parseService())
		default:
			children = append(children, p.parseErrorUntil(p.topLevelSync))
		}
	}
	return p.compose(KindSourceFile, true, children)
}
