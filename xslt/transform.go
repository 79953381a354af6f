package xslt

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/MediaArea/libxslt/xml"
	"github.com/MediaArea/libxslt/xpath"
)

// transformNode dispatches a single node of a template body: recognised
// xsl: instructions run through executers, a literal element (any other
// namespace) is copied through processNode, and an unrecognised xsl:
// instruction is reported through the tracer and skipped rather than
// aborting the whole transform. Non-element nodes (text, comments,
// processing instructions already materialised in the body) pass through
// unchanged.
func transformNode(ctx *Context) (xpath.Sequence, error) {
	if ctx.XslNode.Type() != xml.TypeElement {
		c := cloneNode(ctx.XslNode)
		if c == nil {
			return nil, nil
		}
		return xpath.Singleton(c), nil
	}
	elem, err := getElementFromNode(ctx.XslNode)
	if err != nil {
		return nil, ctx.errorWithContext(err)
	}
	fn, ok := executers[elem.QName]
	if !ok {
		if elem.QName.Space == ctx.Stylesheet.namespace {
			err := fmt.Errorf("%s: %w", elem.QualifiedName(), errImplemented)
			ctx.Error(ctx, err)
			return nil, nil
		}
		return processNode(ctx)
	}
	if fn == nil {
		return nil, fmt.Errorf("%s: %w", elem.QualifiedName(), errImplemented)
	}
	return fn(ctx)
}

func processNode(ctx *Context) (xpath.Sequence, error) {
	ctx.Enter(ctx)
	defer ctx.Leave(ctx)

	elem, err := getElementFromNode(cloneNode(ctx.XslNode))
	if err != nil {
		return nil, err
	}
	var (
		nested = ctx.WithXsl(elem)
		nodes  = slices.Clone(elem.Nodes)
	)
	elem.Nodes = elem.Nodes[:0]
	if err := processAVT(nested, elem); err != nil {
		return nil, err
	}
	if err := nested.SetAttributes(elem); err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if n.Type() != xml.TypeElement {
			c := cloneNode(n)
			if c != nil {
				elem.Nodes = append(elem.Nodes, c)

			}
			continue
		}
		res, err := transformNode(nested.WithXsl(n))
		if err != nil {
			return nil, err
		}
		for i := range res {
			appendResult(nested, elem, res[i].Node())
		}
	}
	return xpath.Singleton(elem), nil
}

func cloneNode(n xml.Node) xml.Node {
	cloner, ok := n.(xml.Cloner)
	if !ok {
		return nil
	}
	return cloner.Clone()
}

func getElementFromNode(node xml.Node) (*xml.Element, error) {
	el, ok := node.(*xml.Element)
	if !ok {
		return nil, fmt.Errorf("%s: xml element expected", node.QualifiedName())
	}
	return el, nil
}

func getAttribute(el *xml.Element, ident string) (string, error) {
	ix := slices.IndexFunc(el.Attrs, func(a xml.Attribute) bool {
		return a.Name == ident
	})
	if ix < 0 {
		return "", fmt.Errorf("%s: missing attribute %q", el.QualifiedName(), ident)
	}
	return el.Attrs[ix].Value(), nil
}

// loadDocument parses a source document for transformation: whitespace is
// data here, so it is preserved verbatim.
func loadDocument(file string) (*xml.Document, error) {
	r, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	p := xml.NewParser(r)
	return p.Parse()
}

// loadStylesheetDocument parses a stylesheet document: indentation between
// xsl: elements is layout, not content, so blank text runs are stripped the
// way the parser's TrimSpace option is meant to be used.
func loadStylesheetDocument(file string) (*xml.Document, error) {
	r, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	p := xml.NewParser(r)
	p.TrimSpace = true
	return p.Parse()
}

func writeDocument(file, format string, doc *xml.Document, style *Stylesheet) error {
	w, err := os.Create(file)
	if err != nil {
		return err
	}
	defer w.Close()

	return style.writeDocument(w, format, doc)
}

func writeDoctypeHTML(w io.Writer) error {
	_, err := io.WriteString(w, "<!DOCTYPE html>")
	return err
}

func toString(item xpath.Item) string {
	var v string
	switch x := item.Value().(type) {
	case time.Time:
		v = x.Format("2006-01-02")
	case float64:
		v = strconv.FormatFloat(x, 'f', -1, 64)
	case []byte:
	case string:
		v = x
	default:
	}
	return v
}
