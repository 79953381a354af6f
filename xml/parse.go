package xml

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/MediaArea/libxslt/environ"
)

const MaxDepth = 512

const (
	SupportedVersion  = "1.0"
	SupportedEncoding = "UTF-8"
)

const AttrXmlNS = "xmlns"

type ParseError struct {
	Position
	Element string
	Message string
}

func createParseError(elem, msg string, pos Position) error {
	return ParseError{Position: pos, Element: elem, Message: msg}
}

func (p ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s: %s", p.Line, p.Column, p.Element, p.Message)
}

// PiFunc lets a caller intercept a named processing instruction while
// parsing and turn it into a custom Node.
type PiFunc func(target string, attrs []Attribute) (Node, error)

// Parser is a small hand-rolled recursive-descent XML parser: it reads
// runes directly off a buffered reader rather than going through a
// separate token-stream layer, trading a richer token vocabulary for a
// much smaller implementation — the apply engine only ever consumes the
// resulting tree, never the parser's internals.
type Parser struct {
	r    *bufio.Reader
	pos  Position
	peek rune
	eof  bool

	depth int

	TrimSpace  bool
	KeepEmpty  bool
	OmitProlog bool
	StrictNS   bool
	MaxDepth   int

	namespaces environ.Environ[string]

	piFuncs map[string]PiFunc
}

// NewParser builds a Parser over r. TrimSpace defaults to false: whether a
// blank text node is significant is the stylesheet's strip-space policy to
// decide, not the parser's, so blank runs are preserved unless the caller
// opts in.
func NewParser(r io.Reader) *Parser {
	p := Parser{
		r:          bufio.NewReader(r),
		MaxDepth:   MaxDepth,
		piFuncs:    make(map[string]PiFunc),
		namespaces: environ.Empty[string](),
	}
	p.pos = Position{Line: 1, Column: 0}
	p.readRune()
	return &p
}

func ParseFile(file string) (*Document, error) {
	r, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return ParseReader(r)
}

func ParseString(xml string) (*Document, error) {
	return ParseReader(strings.NewReader(xml))
}

func ParseReader(r io.Reader) (*Document, error) {
	p := NewParser(r)
	return p.Parse()
}

func (p *Parser) RegisterPI(name string, fn PiFunc) {
	p.piFuncs[name] = fn
}

func (p *Parser) UnregisterPI(name string) {
	delete(p.piFuncs, name)
}

func (p *Parser) createError(elem, msg string) error {
	return createParseError(elem, msg, p.pos)
}

func (p *Parser) Parse() (*Document, error) {
	var doc Document
	doc.Version = SupportedVersion
	doc.Encoding = SupportedEncoding

	if err := p.skipProlog(&doc); err != nil {
		return nil, err
	}
	for {
		p.skipSpaceBetweenMarkup()
		if p.eof {
			break
		}
		if p.peek != langle {
			p.readRune()
			continue
		}
		node, err := p.parseMarkup(p.namespaces)
		if err != nil {
			return nil, err
		}
		if node == nil {
			continue
		}
		doc.attach(node)
		if node.Type() == TypeElement {
			break
		}
	}
	if doc.Root() == nil {
		return nil, p.createError("document", "missing root element")
	}
	return &doc, nil
}

func (p *Parser) skipSpaceBetweenMarkup() {
	for !p.eof && isSpace(p.peek) {
		p.readRune()
	}
}

// skipProlog consumes an optional "<?xml ... ?>" declaration. Comments and
// PIs before the root element are left for Parse's main loop to attach.
func (p *Parser) skipProlog(doc *Document) error {
	p.skipSpaceBetweenMarkup()
	if p.eof || p.peek != langle {
		return nil
	}
	mark, _ := p.r.Peek(4)
	if string(mark) == "?xml" {
		p.readRune()
		if _, err := p.parseInstruction(); err != nil {
			return err
		}
	}
	if p.OmitProlog {
		return nil
	}
	return nil
}

func (p *Parser) readRune() {
	r, _, err := p.r.ReadRune()
	if err != nil {
		p.eof = true
		p.peek = 0
		return
	}
	if r == '\n' {
		p.pos.Line++
		p.pos.Column = 0
	} else {
		p.pos.Column++
	}
	p.peek = r
}

func (p *Parser) accept(r rune) bool {
	if p.peek != r {
		return false
	}
	p.readRune()
	return true
}

func (p *Parser) expect(r rune) error {
	if !p.accept(r) {
		return p.createError("scan", fmt.Sprintf("expected %q, got %q", r, p.peek))
	}
	return nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func isNameStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isNameChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.' || r == ':'
}

func (p *Parser) readName() string {
	var buf strings.Builder
	for !p.eof && isNameChar(p.peek) {
		buf.WriteRune(p.peek)
		p.readRune()
	}
	return buf.String()
}

// parseMarkup parses one top-level construct starting at '<': an element,
// a comment, or a processing instruction.
func (p *Parser) parseMarkup(ns environ.Environ[string]) (Node, error) {
	if err := p.expect(langle); err != nil {
		return nil, err
	}
	switch {
	case p.peek == bang:
		return p.parseBang()
	case p.peek == question:
		return p.parseInstruction()
	default:
		return p.parseElement(ns)
	}
}

func (p *Parser) parseBang() (Node, error) {
	p.readRune()
	if p.peek == dash {
		return p.parseComment()
	}
	mark, _ := p.r.Peek(6)
	if string(mark) == "CDATA[" {
		return p.parseCDATA()
	}
	return p.parseDoctype()
}

func (p *Parser) parseComment() (Node, error) {
	if err := p.expect(dash); err != nil {
		return nil, err
	}
	if err := p.expect(dash); err != nil {
		return nil, err
	}
	var buf strings.Builder
	for {
		if p.eof {
			return nil, p.createError("comment", "unterminated comment")
		}
		if p.peek == dash {
			mark, _ := p.r.Peek(2)
			if string(mark) == "->" {
				p.readRune()
				p.readRune()
				p.readRune()
				break
			}
		}
		buf.WriteRune(p.peek)
		p.readRune()
	}
	return NewComment(buf.String()), nil
}

func (p *Parser) parseCDATA() (Node, error) {
	for _, want := range "[CDATA[" {
		if err := p.expect(want); err != nil {
			return nil, err
		}
	}
	var buf strings.Builder
	for {
		if p.eof {
			return nil, p.createError("cdata", "unterminated CDATA section")
		}
		if p.peek == rsquare {
			mark, _ := p.r.Peek(2)
			if string(mark) == "]"+string(rangle) {
				p.readRune()
				p.readRune()
				p.readRune()
				break
			}
		}
		buf.WriteRune(p.peek)
		p.readRune()
	}
	return NewCDATA(buf.String()), nil
}

// parseDoctype skips a "<!DOCTYPE ...>" declaration; internal subsets are
// not retained, matching the engine's read-only consumption of DOCTYPE.
func (p *Parser) parseDoctype() (Node, error) {
	depth := 1
	for depth > 0 && !p.eof {
		p.readRune()
		switch p.peek {
		case langle:
			depth++
		case rangle:
			depth--
		}
	}
	p.readRune()
	return nil, nil
}

func (p *Parser) parseInstruction() (Node, error) {
	if err := p.expect(question); err != nil {
		return nil, err
	}
	name := p.readName()
	attrs, err := p.parseAttributes(environ.Empty[string]())
	if err != nil {
		return nil, err
	}
	p.skipSpaceBetweenMarkup()
	if err := p.expect(question); err != nil {
		return nil, err
	}
	if err := p.expect(rangle); err != nil {
		return nil, err
	}
	if fn, ok := p.piFuncs[name]; ok {
		return fn(name, attrs)
	}
	instr := NewInstruction(LocalName(name))
	instr.Attrs = attrs
	return instr, nil
}

func (p *Parser) parseElement(parentNS environ.Environ[string]) (Node, error) {
	p.depth++
	if p.depth > p.MaxDepth {
		return nil, p.createError("element", "max depth exceeded")
	}
	defer func() { p.depth-- }()

	raw := p.readName()
	qn, _ := ParseName(raw)

	ns := environ.Enclosed(parentNS)
	attrs, err := p.parseAttributes(ns)
	if err != nil {
		return nil, err
	}
	if href, err := ns.Resolve(qn.Space); err == nil {
		qn.Uri = href
	}
	el := NewElement(qn)
	el.Attrs = attrs

	p.skipSpaceBetweenMarkup()
	if p.accept(slash) {
		if err := p.expect(rangle); err != nil {
			return nil, err
		}
		return el, nil
	}
	if err := p.expect(rangle); err != nil {
		return nil, err
	}
	for {
		node, closed, err := p.parseContent(el, ns)
		if err != nil {
			return nil, err
		}
		if closed {
			break
		}
		if node != nil {
			el.Append(node)
		}
	}
	return el, nil
}

// parseContent parses one child (text run, comment, CDATA, or nested
// element) or the closing tag of el. Returns closed=true once the closing
// tag has been consumed.
func (p *Parser) parseContent(el *Element, ns environ.Environ[string]) (Node, bool, error) {
	if p.eof {
		return nil, false, p.createError(el.QualifiedName(), "unexpected end of input")
	}
	if p.peek != langle {
		text, err := p.readText()
		if err != nil {
			return nil, false, err
		}
		if text == "" {
			return nil, false, nil
		}
		if p.TrimSpace && isBlank(text) && !p.KeepEmpty {
			return nil, false, nil
		}
		return NewText(text), false, nil
	}
	mark, _ := p.r.Peek(1)
	if len(mark) == 1 && rune(mark[0]) == slash {
		p.readRune()
		p.readRune()
		closing := p.readName()
		p.skipSpaceBetweenMarkup()
		if err := p.expect(rangle); err != nil {
			return nil, false, err
		}
		if closing != el.QualifiedName() && closing != el.LocalName() {
			return nil, false, p.createError(el.QualifiedName(), fmt.Sprintf("mismatched closing tag %q", closing))
		}
		return nil, true, nil
	}
	node, err := p.parseMarkup(ns)
	return node, false, err
}

func (p *Parser) readText() (string, error) {
	var buf strings.Builder
	for !p.eof && p.peek != langle {
		if p.peek == '&' {
			s, err := p.readEntity()
			if err != nil {
				return "", err
			}
			buf.WriteString(s)
			continue
		}
		buf.WriteRune(p.peek)
		p.readRune()
	}
	return buf.String(), nil
}

func (p *Parser) readEntity() (string, error) {
	p.readRune()
	var name strings.Builder
	for !p.eof && p.peek != ';' {
		name.WriteRune(p.peek)
		p.readRune()
	}
	p.readRune()
	switch n := name.String(); n {
	case "lt":
		return "<", nil
	case "gt":
		return ">", nil
	case "amp":
		return "&", nil
	case "quot":
		return "\"", nil
	case "apos":
		return "'", nil
	default:
		if strings.HasPrefix(n, "#x") {
			v, err := strconv.ParseInt(n[2:], 16, 32)
			if err == nil {
				return string(rune(v)), nil
			}
		} else if strings.HasPrefix(n, "#") {
			v, err := strconv.ParseInt(n[1:], 10, 32)
			if err == nil {
				return string(rune(v)), nil
			}
		}
		return "&" + n + ";", nil
	}
}

func (p *Parser) parseAttributes(ns environ.Environ[string]) ([]Attribute, error) {
	var attrs []Attribute
	for {
		p.skipSpaceBetweenMarkup()
		if p.eof || !isNameStart(p.peek) {
			break
		}
		raw := p.readName()
		qn, _ := ParseName(raw)
		p.skipSpaceBetweenMarkup()
		if err := p.expect(equal); err != nil {
			return nil, err
		}
		p.skipSpaceBetweenMarkup()
		value, err := p.readQuoted()
		if err != nil {
			return nil, err
		}
		if raw == "xmlns" {
			ns.Define("", value)
		} else if qn.Space == "xmlns" {
			ns.Define(qn.Name, value)
		}
		attrs = append(attrs, NewAttribute(qn, value))
	}
	return attrs, nil
}

func (p *Parser) readQuoted() (string, error) {
	q := p.peek
	if q != '"' && q != '\'' {
		return "", p.createError("attribute", "expected quote")
	}
	p.readRune()
	var buf strings.Builder
	for !p.eof && p.peek != q {
		if p.peek == '&' {
			s, err := p.readEntity()
			if err != nil {
				return "", err
			}
			buf.WriteString(s)
			continue
		}
		buf.WriteRune(p.peek)
		p.readRune()
	}
	if err := p.expect(q); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func isBlank(s string) bool {
	for _, r := range s {
		if !isSpace(r) && r != utf8.RuneError {
			return false
		}
	}
	return true
}
