package xml

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// WriterOptions is a bitmask controlling serialization style.
type WriterOptions uint64

const (
	OptionCompact WriterOptions = 1 << iota
	OptionNoNamespace
	OptionNoComment
	OptionNoProlog
)

func (w WriterOptions) Compact() bool     { return w&OptionCompact > 0 }
func (w WriterOptions) NoNamespace() bool { return w&OptionNoNamespace > 0 }
func (w WriterOptions) NoComment() bool   { return w&OptionNoComment > 0 }
func (w WriterOptions) NoProlog() bool    { return w&OptionNoProlog > 0 }

// PrologWriter lets a caller replace the default "<?xml ...?>" prolog, e.g.
// with a literal "<!DOCTYPE html>" for HTML output.
type PrologWriter interface {
	WriteProlog(w io.Writer) error
}

type PrologWriterFunc func(w io.Writer) error

func (fn PrologWriterFunc) WriteProlog(w io.Writer) error {
	return fn(w)
}

type Writer struct {
	writer *bufio.Writer

	Indent   string
	Doctype  *DocType
	MaxDepth int
	WriterOptions
	PrologWriter
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{
		writer: bufio.NewWriter(w),
		Indent: "  ",
	}
}

func WriteNode(node Node) string {
	var buf bytes.Buffer
	ws := NewWriter(&buf)
	ws.writeNode(node, 0)
	ws.writer.Flush()
	return buf.String()
}

func (w *Writer) Write(doc *Document) error {
	if err := w.writeProlog(); err != nil {
		return err
	}
	w.writeNL()
	if err := w.writeDoctype(doc); err != nil {
		return err
	}
	for _, n := range doc.Nodes {
		if err := w.writeNode(n, -1); err != nil {
			return err
		}
	}
	return w.writer.Flush()
}

func (w *Writer) writeDoctype(doc *Document) error {
	dt := w.Doctype
	if dt == nil {
		dt = doc.DocType
	}
	if dt == nil || dt.Name == "" {
		return nil
	}
	w.writer.WriteString("<!DOCTYPE ")
	w.writer.WriteString(dt.Name)
	if dt.PublicID != "" {
		fmt.Fprintf(w.writer, " PUBLIC %q %q", dt.PublicID, dt.SystemID)
	} else if dt.SystemID != "" {
		fmt.Fprintf(w.writer, " SYSTEM %q", dt.SystemID)
	}
	w.writer.WriteRune(rangle)
	w.writeNL()
	return nil
}

func (w *Writer) writeNode(node Node, depth int) error {
	switch node := node.(type) {
	case *Document:
		if r := node.Root(); r != nil {
			return w.writeNode(r, depth)
		}
		return nil
	case *Element:
		return w.writeElement(node, depth+1)
	case *CDATA:
		return w.writeCDATA(node, depth+1)
	case *Text:
		return w.writeText(node)
	case *Instruction:
		return w.writeInstruction(node, depth+1)
	case *Comment:
		return w.writeComment(node, depth+1)
	default:
		return fmt.Errorf("node: unsupported type (%T)", node)
	}
}

func (w *Writer) writeElement(node *Element, depth int) error {
	w.writeNL()

	prefix := w.getIndent(depth)
	w.writer.WriteString(prefix)
	w.writer.WriteRune(langle)
	w.writeName(node.QName)
	if err := w.writeAttributes(node.Attrs); err != nil {
		return err
	}
	if len(node.Nodes) == 0 {
		w.writer.WriteRune(slash)
		w.writer.WriteRune(rangle)
		return nil
	}
	w.writer.WriteRune(rangle)
	if w.MaxDepth > 0 && depth >= w.MaxDepth {
		w.writer.WriteRune(langle)
		w.writer.WriteRune(slash)
		w.writeName(node.QName)
		w.writer.WriteRune(rangle)
		return nil
	}
	for _, n := range node.Nodes {
		if err := w.writeNode(n, depth); err != nil {
			return err
		}
	}
	if n := len(node.Nodes); n > 0 {
		if _, ok := node.Nodes[n-1].(*Text); !ok {
			w.writeNL()
			w.writer.WriteString(prefix)
		}
	}
	w.writer.WriteRune(langle)
	w.writer.WriteRune(slash)
	w.writeName(node.QName)
	w.writer.WriteRune(rangle)
	return nil
}

func (w *Writer) writeName(name QName) {
	if w.NoNamespace() {
		w.writer.WriteString(name.LocalName())
	} else {
		w.writer.WriteString(name.QualifiedName())
	}
}

func (w *Writer) writeText(node *Text) error {
	if node.DisableEscaping {
		_, err := w.writer.WriteString(node.Content)
		return err
	}
	_, err := w.writer.WriteString(escapeText(node.Content))
	return err
}

func (w *Writer) writeCDATA(node *CDATA, _ int) error {
	w.writer.WriteString("<![CDATA[")
	w.writer.WriteString(node.Content)
	w.writer.WriteString("]]>")
	return nil
}

func (w *Writer) writeComment(node *Comment, depth int) error {
	if w.NoComment() {
		return nil
	}
	w.writeNL()
	w.writer.WriteString(w.getIndent(depth))
	w.writer.WriteString("<!--")
	w.writer.WriteString(node.Content)
	w.writer.WriteString("-->")
	return nil
}

func (w *Writer) writeInstruction(node *Instruction, depth int) error {
	if depth > 0 {
		w.writeNL()
	}
	w.writer.WriteString(w.getIndent(depth))
	w.writer.WriteRune(langle)
	w.writer.WriteRune(question)
	w.writer.WriteString(node.Name)
	if err := w.writeAttributes(node.Attrs); err != nil {
		return err
	}
	w.writer.WriteRune(question)
	w.writer.WriteRune(rangle)
	return nil
}

func (w *Writer) writeProlog() error {
	if w.NoProlog() {
		return nil
	}
	if w.PrologWriter != nil {
		return w.WriteProlog(w.writer)
	}
	prolog := NewInstruction(LocalName("xml"))
	prolog.Attrs = []Attribute{
		NewAttribute(LocalName("version"), SupportedVersion),
		NewAttribute(LocalName("encoding"), SupportedEncoding),
	}
	return w.writeInstruction(prolog, 0)
}

func (w *Writer) writeAttributes(attrs []Attribute) error {
	for _, a := range attrs {
		if w.NoNamespace() && a.IsNamespace() {
			continue
		}
		w.writer.WriteRune(' ')
		w.writeName(a.QName)
		w.writer.WriteRune(equal)
		w.writer.WriteRune(quote)
		w.writer.WriteString(escapeAttr(a.Value()))
		w.writer.WriteRune(quote)
	}
	return nil
}

func (w *Writer) writeNL() {
	if w.Compact() {
		return
	}
	w.writer.WriteRune('\n')
}

func (w *Writer) getIndent(depth int) string {
	if w.Compact() || depth <= 0 {
		return ""
	}
	return strings.Repeat(w.Indent, depth)
}

func escapeText(str string) string {
	var buf strings.Builder
	for _, r := range str {
		switch r {
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '&':
			buf.WriteString("&amp;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}

// escapeAttr escapes the same characters as escapeText plus the quote used
// to delimit attribute values, so quoted attribute content round-trips.
func escapeAttr(str string) string {
	var buf strings.Builder
	for _, r := range str {
		switch r {
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '&':
			buf.WriteString("&amp;")
		case '"':
			buf.WriteString("&quot;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
