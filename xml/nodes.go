package xml

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

type NodeType int8

const (
	TypeDocument NodeType = 1 << iota
	TypeElement
	TypeComment
	TypeAttribute
	TypeInstruction
	TypeText
)

// TypeNode is the union of every concrete node type, matching the XPath
// node() test, which is satisfied by any node regardless of its kind.
const TypeNode = TypeDocument | TypeElement | TypeComment | TypeAttribute | TypeInstruction | TypeText

func (t NodeType) String() string {
	switch t {
	case TypeDocument:
		return "document"
	case TypeElement:
		return "element"
	case TypeComment:
		return "comment"
	case TypeAttribute:
		return "attribute"
	case TypeInstruction:
		return "instruction"
	case TypeText:
		return "text"
	default:
		return "unknown"
	}
}

// PathInfo is one step of a node's Path from the document root.
type PathInfo struct {
	QName
	Type  NodeType
	Index int
}

// Cloner is implemented by nodes that can produce a detached deep copy of
// themselves.
type Cloner interface {
	Clone() Node
}

// Node is the sealed node interface: every concrete node type lives in this
// package, so external code can only ever hold and pass around a Node, never
// implement one.
type Node interface {
	Type() NodeType
	LocalName() string
	QualifiedName() string
	Leaf() bool
	Position() int
	Parent() Node
	Value() string
	Identity() string
	Path() []PathInfo

	setParent(Node)
	setPosition(int)
	path() []int
}

// TraversableNode is implemented by nodes with children.
type TraversableNode interface {
	Node
	FirstChild() Node
	LastChild() Node
	NextSibling() Node
	PrevSibling() Node
}

// Before reports whether left precedes right in document order.
func Before(left, right Node) bool {
	return comparePath(left.path(), right.path()) < 0
}

// After reports whether left follows right in document order.
func After(left, right Node) bool {
	return comparePath(left.path(), right.path()) > 0
}

func comparePath(left, right []int) int {
	for i := 0; i < len(left) && i < len(right); i++ {
		if left[i] != right[i] {
			return left[i] - right[i]
		}
	}
	return len(left) - len(right)
}

type DocType struct {
	Name     string
	PublicID string
	SystemID string
}

func NewDocType(name, public, system string) *DocType {
	return &DocType{Name: name, PublicID: public, SystemID: system}
}

// Document is the root of a tree: at most one Element child (the document
// root element), plus leading/trailing comments and processing
// instructions.
type Document struct {
	*DocType

	Version    string
	Encoding   string
	Standalone string

	Nodes []Node
}

func NewDocument(root Node) *Document {
	var doc Document
	doc.Version = SupportedVersion
	doc.Encoding = SupportedEncoding
	if root != nil {
		doc.attach(root)
	}
	return &doc
}

func EmptyDocument() *Document {
	return NewDocument(nil)
}

func (d *Document) Root() Node {
	ix := slices.IndexFunc(d.Nodes, func(n Node) bool {
		return n.Type() == TypeElement
	})
	if ix < 0 {
		return nil
	}
	return d.Nodes[ix]
}

func (d *Document) Append(node Node) {
	d.attach(node)
}

func (d *Document) attach(node Node) {
	node.setParent(d)
	node.setPosition(len(d.Nodes))
	d.Nodes = append(d.Nodes, node)
}

func (d *Document) Type() NodeType         { return TypeDocument }
func (d *Document) LocalName() string      { return "" }
func (d *Document) QualifiedName() string  { return "" }
func (d *Document) Leaf() bool             { return false }
func (d *Document) Position() int          { return 0 }
func (d *Document) Parent() Node           { return nil }
func (d *Document) Identity() string       { return "doc()" }
func (d *Document) setParent(_ Node)       {}
func (d *Document) setPosition(_ int)      {}
func (d *Document) path() []int            { return nil }
func (d *Document) Path() []PathInfo       { return nil }

func (d *Document) Value() string {
	if r := d.Root(); r != nil {
		return r.Value()
	}
	return ""
}

func isDocumentNode(n Node) bool {
	_, ok := n.(*Document)
	return ok
}

type Attribute struct {
	QName
	Datum string

	parent   Node
	position int
}

func NewAttribute(name QName, value string) Attribute {
	return Attribute{QName: name, Datum: value}
}

func (a *Attribute) Path() []PathInfo {
	pi := PathInfo{QName: a.QName, Type: TypeAttribute, Index: a.position}
	if a.parent == nil {
		return []PathInfo{pi}
	}
	return append(a.parent.Path(), pi)
}

func (a *Attribute) Type() NodeType { return TypeAttribute }
func (a *Attribute) Leaf() bool     { return true }
func (a *Attribute) Position() int  { return a.position }
func (a *Attribute) Parent() Node   { return a.parent }
func (a Attribute) Value() string   { return a.Datum }

func (a *Attribute) Identity() string {
	return fmt.Sprintf("attr(%s)[%s]", a.QualifiedName(), joinPath(a.path()))
}

func (a *Attribute) path() []int {
	if a.parent == nil {
		return []int{a.position}
	}
	return append(a.parent.path(), a.position)
}

func (a *Attribute) setParent(node Node) { a.parent = node }
func (a *Attribute) setPosition(pos int) { a.position = pos }

// IsNamespace reports whether the attribute is itself a namespace
// declaration (xmlns or xmlns:prefix).
func (a Attribute) IsNamespace() bool {
	return a.Name == "xmlns" || a.Space == "xmlns"
}

type Element struct {
	QName
	Attrs []Attribute
	Nodes []Node

	parent   Node
	position int
}

func NewElement(name QName) *Element {
	return &Element{QName: name}
}

func (e *Element) Path() []PathInfo {
	pi := PathInfo{QName: e.QName, Type: TypeElement, Index: e.position}
	if e.parent == nil {
		return []PathInfo{pi}
	}
	return append(e.parent.Path(), pi)
}

// Namespaces returns the namespace declarations carried directly on this
// element (its xmlns / xmlns:prefix attributes).
func (e *Element) Namespaces() []NS {
	var ns []NS
	for _, a := range e.Attrs {
		if !a.IsNamespace() {
			continue
		}
		n := NS{Prefix: a.Name, Uri: a.Value()}
		if n.Prefix == "xmlns" {
			n.Prefix = ""
		}
		ns = append(ns, n)
	}
	return ns
}

// Attributes returns the element's non-namespace attributes.
func (e *Element) Attributes() []Attribute {
	var as []Attribute
	for _, a := range e.Attrs {
		if a.IsNamespace() {
			continue
		}
		as = append(as, a)
	}
	return as
}

func (e *Element) Clone() Node {
	c := &Element{
		QName: e.QName,
		Attrs: slices.Clone(e.Attrs),
	}
	for i := range e.Nodes {
		if x, ok := e.Nodes[i].(Cloner); ok {
			if y := x.Clone(); y != nil {
				c.Append(y)
			}
		}
	}
	return c
}

func (e *Element) Type() NodeType { return TypeElement }

func (e *Element) Leaf() bool {
	if e.Empty() {
		return true
	}
	switch e.Nodes[0].(type) {
	case *Text, *CDATA:
		return true
	default:
		return false
	}
}

func (e *Element) Empty() bool { return len(e.Nodes) == 0 }

func (e *Element) Value() string {
	var list []string
	for _, n := range e.Nodes {
		list = append(list, n.Value())
	}
	return strings.Join(list, "")
}

func (e *Element) Append(node Node) {
	if a, ok := node.(*Attribute); ok {
		e.SetAttribute(*a)
		return
	}
	node.setParent(e)
	node.setPosition(len(e.Nodes))
	e.Nodes = append(e.Nodes, node)
}

func (e *Element) FirstChild() Node {
	if len(e.Nodes) == 0 {
		return nil
	}
	return e.Nodes[0]
}

func (e *Element) LastChild() Node {
	if len(e.Nodes) == 0 {
		return nil
	}
	return e.Nodes[len(e.Nodes)-1]
}

func (e *Element) NextSibling() Node {
	return siblingAt(e.parent, e.position+1)
}

func (e *Element) PrevSibling() Node {
	return siblingAt(e.parent, e.position-1)
}

func siblingAt(parent Node, pos int) Node {
	switch p := parent.(type) {
	case *Element:
		if pos < 0 || pos >= len(p.Nodes) {
			return nil
		}
		return p.Nodes[pos]
	case *Document:
		if pos < 0 || pos >= len(p.Nodes) {
			return nil
		}
		return p.Nodes[pos]
	default:
		return nil
	}
}

func (e *Element) Position() int { return e.position }
func (e *Element) Parent() Node  { return e.parent }

func (e *Element) Identity() string {
	return fmt.Sprintf("node(%s)[%s]", e.QualifiedName(), joinPath(e.path()))
}

func (e *Element) GetAttribute(name string) Attribute {
	ix := slices.IndexFunc(e.Attrs, func(a Attribute) bool {
		return a.Name == name
	})
	if ix < 0 {
		return Attribute{}
	}
	return e.Attrs[ix]
}

func (e *Element) SetAttribute(attr Attribute) {
	attr.setParent(e)
	ix := slices.IndexFunc(e.Attrs, func(a Attribute) bool {
		return a.QName.Equal(attr.QName)
	})
	if ix < 0 {
		attr.setPosition(len(e.Attrs))
		e.Attrs = append(e.Attrs, attr)
		return
	}
	e.Attrs[ix] = attr
}

func (e *Element) path() []int {
	if e.parent == nil {
		return []int{e.position}
	}
	return append(e.parent.path(), e.position)
}

func (e *Element) setPosition(pos int)   { e.position = pos }
func (e *Element) setParent(parent Node) { e.parent = parent }

type Instruction struct {
	QName
	Attrs []Attribute

	parent   Node
	position int
}

func NewInstruction(name QName) *Instruction {
	return &Instruction{QName: name}
}

func (i *Instruction) Path() []PathInfo {
	pi := PathInfo{QName: i.QName, Type: TypeInstruction, Index: i.position}
	if i.parent == nil {
		return []PathInfo{pi}
	}
	return append(i.parent.Path(), pi)
}

func (i *Instruction) Type() NodeType { return TypeInstruction }
func (i *Instruction) Leaf() bool     { return true }
func (i *Instruction) Value() string  { return "" }

func (i *Instruction) SetAttribute(attr Attribute) {
	ix := slices.IndexFunc(i.Attrs, func(a Attribute) bool {
		return a.QualifiedName() == attr.QualifiedName()
	})
	if ix < 0 {
		i.Attrs = append(i.Attrs, attr)
		return
	}
	i.Attrs[ix] = attr
}

func (i *Instruction) Position() int { return i.position }
func (i *Instruction) Parent() Node  { return i.parent }

func (i *Instruction) Identity() string {
	return fmt.Sprintf("instr(%s)[%s]", i.QualifiedName(), joinPath(i.path()))
}

func (i *Instruction) path() []int {
	if i.parent == nil {
		return []int{i.position}
	}
	return append(i.parent.path(), i.position)
}

func (i *Instruction) setPosition(pos int)   { i.position = pos }
func (i *Instruction) setParent(parent Node) { i.parent = parent }

// CDATA is a literal <![CDATA[ ... ]]> section from the source document.
type CDATA struct {
	Content string

	parent   Node
	position int
}

func NewCDATA(content string) *CDATA {
	return &CDATA{Content: content}
}

func (c *CDATA) Path() []PathInfo {
	pi := PathInfo{Type: TypeText, Index: c.position}
	if c.parent == nil {
		return []PathInfo{pi}
	}
	return append(c.parent.Path(), pi)
}

func (c *CDATA) Clone() Node {
	return &CDATA{Content: c.Content}
}

func (c *CDATA) Type() NodeType        { return TypeText }
func (c *CDATA) LocalName() string     { return "" }
func (c *CDATA) QualifiedName() string { return "" }
func (c *CDATA) Leaf() bool            { return true }
func (c *CDATA) Value() string         { return c.Content }
func (c *CDATA) Position() int         { return c.position }
func (c *CDATA) Parent() Node          { return c.parent }

func (c *CDATA) Identity() string {
	return fmt.Sprintf("cdata[%s]", joinPath(c.path()))
}

func (c *CDATA) path() []int {
	if c.parent == nil {
		return []int{c.position}
	}
	return append(c.parent.path(), c.position)
}

func (c *CDATA) setPosition(pos int)   { c.position = pos }
func (c *CDATA) setParent(parent Node) { c.parent = parent }

// Text is a run of character data. DisableEscaping records whether it was
// produced by an xsl:value-of/xsl:text with disable-output-escaping="yes":
// the writer honours it by skipping entity escaping for this node only.
type Text struct {
	Content         string
	DisableEscaping bool

	parent   Node
	position int
}

func NewText(text string) *Text {
	return &Text{Content: text}
}

func (t *Text) Path() []PathInfo {
	pi := PathInfo{Type: TypeText, Index: t.position}
	if t.parent == nil {
		return []PathInfo{pi}
	}
	return append(t.parent.Path(), pi)
}

func (t *Text) Clone() Node {
	return &Text{Content: t.Content, DisableEscaping: t.DisableEscaping}
}

func (t *Text) Type() NodeType        { return TypeText }
func (t *Text) LocalName() string     { return "" }
func (t *Text) QualifiedName() string { return "" }
func (t *Text) Leaf() bool            { return true }
func (t *Text) Value() string         { return t.Content }
func (t *Text) Position() int         { return t.position }
func (t *Text) Parent() Node          { return t.parent }

func (t *Text) Identity() string {
	return fmt.Sprintf("text[%s]", joinPath(t.path()))
}

func (t *Text) path() []int {
	if t.parent == nil {
		return []int{t.position}
	}
	return append(t.parent.path(), t.position)
}

func (t *Text) setPosition(pos int)   { t.position = pos }
func (t *Text) setParent(parent Node) { t.parent = parent }

type Comment struct {
	Content string

	parent   Node
	position int
}

func NewComment(comment string) *Comment {
	return &Comment{Content: comment}
}

func (c *Comment) Path() []PathInfo {
	pi := PathInfo{Type: TypeComment, Index: c.position}
	if c.parent == nil {
		return []PathInfo{pi}
	}
	return append(c.parent.Path(), pi)
}

func (c *Comment) Clone() Node {
	return &Comment{Content: c.Content}
}

func (c *Comment) Type() NodeType        { return TypeComment }
func (c *Comment) LocalName() string     { return "" }
func (c *Comment) QualifiedName() string { return "" }
func (c *Comment) Leaf() bool            { return true }
func (c *Comment) Value() string         { return c.Content }
func (c *Comment) Position() int         { return c.position }
func (c *Comment) Parent() Node          { return c.parent }

func (c *Comment) Identity() string {
	return fmt.Sprintf("comment[%s]", joinPath(c.path()))
}

func (c *Comment) path() []int {
	if c.parent == nil {
		return []int{c.position}
	}
	return append(c.parent.path(), c.position)
}

func (c *Comment) setPosition(pos int)   { c.position = pos }
func (c *Comment) setParent(parent Node) { c.parent = parent }

func joinPath(path []int) string {
	list := make([]string, len(path))
	for i, p := range path {
		list[i] = strconv.Itoa(p)
	}
	return strings.Join(list, "/")
}

// SearchNamespace walks from node up through its ancestors looking for a
// namespace declaration whose URI matches uri, the same search half of the
// "search-or-declare" policy used when copying literal result elements.
func SearchNamespace(node Node, uri string) (NS, bool) {
	for n := node; n != nil; n = n.Parent() {
		el, ok := n.(*Element)
		if !ok {
			continue
		}
		for _, ns := range el.Namespaces() {
			if ns.Uri == uri {
				return ns, true
			}
		}
	}
	return NS{}, false
}
