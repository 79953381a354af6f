package xslt

import (
	"io"

	"github.com/MediaArea/libxslt/xml"
)

// Serializer renders a transform result to its final textual form per one
// xsl:output declaration's method/indent/omit-xml-declaration settings.
type Serializer interface {
	Serialize(io.Writer, xml.Node) error
}

func newSerializer(out *Output) Serializer {
	switch out.Method {
	case "text":
		return textSerializer{}
	case "html":
		return htmlSerializer{out: out}
	default:
		return xmlSerializer{out: out}
	}
}

type textSerializer struct{}

// Serialize for method="text" writes every text node's content in document
// order, unescaped, and drops every element, comment and instruction.
func (textSerializer) Serialize(w io.Writer, node xml.Node) error {
	return writeTextOnly(w, node)
}

func writeTextOnly(w io.Writer, node xml.Node) error {
	switch n := node.(type) {
	case *xml.Document:
		if r := n.Root(); r != nil {
			return writeTextOnly(w, r)
		}
		return nil
	case *xml.Element:
		for _, c := range n.Nodes {
			if err := writeTextOnly(w, c); err != nil {
				return err
			}
		}
		return nil
	case *xml.Text:
		_, err := io.WriteString(w, n.Content)
		return err
	default:
		return nil
	}
}

type xmlSerializer struct {
	out *Output
}

func (s xmlSerializer) Serialize(w io.Writer, node xml.Node) error {
	writer := xml.NewWriter(w)
	if !s.out.Indent {
		writer.WriterOptions |= xml.OptionCompact
	}
	if s.out.OmitProlog {
		writer.WriterOptions |= xml.OptionNoProlog
	}
	return writer.Write(asDocument(node))
}

type htmlSerializer struct {
	out *Output
}

func (s htmlSerializer) Serialize(w io.Writer, node xml.Node) error {
	writer := xml.NewWriter(w)
	if !s.out.Indent {
		writer.WriterOptions |= xml.OptionCompact
	}
	writer.WriterOptions |= xml.OptionNoProlog
	if s.out.Version == "" || s.out.Version == "5" || s.out.Version == "5.0" {
		writer.PrologWriter = xml.PrologWriterFunc(writeDoctypeHTML)
	}
	return writer.Write(asDocument(node))
}

func asDocument(node xml.Node) *xml.Document {
	if doc, ok := node.(*xml.Document); ok {
		return doc
	}
	return xml.NewDocument(node)
}
