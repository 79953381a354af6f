package xml

import (
	"strings"
	"testing"
)

func TestParseStringSimple(t *testing.T) {
	doc, err := ParseString(`<doc><item id="1">hello</item><item id="2">world</item></doc>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	root, ok := doc.Root().(*Element)
	if !ok {
		t.Fatalf("root is not an element: %T", doc.Root())
	}
	if root.LocalName() != "doc" {
		t.Fatalf("root name: got %q", root.LocalName())
	}
	if len(root.Nodes) != 2 {
		t.Fatalf("children: got %d, want 2", len(root.Nodes))
	}
	first, ok := root.Nodes[0].(*Element)
	if !ok {
		t.Fatalf("first child is not an element: %T", root.Nodes[0])
	}
	if got := first.GetAttribute("id").Value(); got != "1" {
		t.Fatalf("id attribute: got %q", got)
	}
	if got := first.Value(); got != "hello" {
		t.Fatalf("text value: got %q", got)
	}
}

func TestParseStringSelfClosing(t *testing.T) {
	doc, err := ParseString(`<doc><br/><img src="x.png"/></doc>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	root := doc.Root().(*Element)
	if len(root.Nodes) != 2 {
		t.Fatalf("children: got %d, want 2", len(root.Nodes))
	}
	img := root.Nodes[1].(*Element)
	if got := img.GetAttribute("src").Value(); got != "x.png" {
		t.Fatalf("src attribute: got %q", got)
	}
}

func TestParseStringProlog(t *testing.T) {
	doc, err := ParseString(`<?xml version="1.0" encoding="UTF-8"?><doc/>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Root() == nil {
		t.Fatalf("missing root element")
	}
}

func TestParseStringComment(t *testing.T) {
	doc, err := ParseString(`<doc><!-- a comment --><a/></doc>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	root := doc.Root().(*Element)
	if len(root.Nodes) != 2 {
		t.Fatalf("children: got %d, want 2", len(root.Nodes))
	}
	c, ok := root.Nodes[0].(*Comment)
	if !ok {
		t.Fatalf("first child is not a comment: %T", root.Nodes[0])
	}
	if got := strings.TrimSpace(c.Content); got != "a comment" {
		t.Fatalf("comment content: got %q", got)
	}
}

func TestParseStringCDATA(t *testing.T) {
	doc, err := ParseString(`<doc><![CDATA[<not a tag> & stuff]]></doc>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	root := doc.Root().(*Element)
	if len(root.Nodes) != 1 {
		t.Fatalf("children: got %d, want 1", len(root.Nodes))
	}
	cd, ok := root.Nodes[0].(*CDATA)
	if !ok {
		t.Fatalf("child is not CDATA: %T", root.Nodes[0])
	}
	if got := cd.Content; got != "<not a tag> & stuff" {
		t.Fatalf("cdata content: got %q", got)
	}
}

func TestParseStringEntities(t *testing.T) {
	doc, err := ParseString(`<doc>&lt;a&gt; &amp; &#65; &#x42;</doc>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	root := doc.Root().(*Element)
	if got, want := root.Value(), "<a> & A B"; got != want {
		t.Fatalf("decoded text: got %q, want %q", got, want)
	}
}

func TestParseStringNamespace(t *testing.T) {
	doc, err := ParseString(`<a:doc xmlns:a="urn:example"><a:item/></a:doc>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	root := doc.Root().(*Element)
	if root.Uri != "urn:example" {
		t.Fatalf("root uri: got %q", root.Uri)
	}
	item := root.Nodes[0].(*Element)
	if item.Uri != "urn:example" {
		t.Fatalf("item uri: got %q", item.Uri)
	}
}

func TestParseStringDoctypeSkipped(t *testing.T) {
	doc, err := ParseString(`<!DOCTYPE doc [ <!ENTITY foo "bar"> ]><doc/>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Root() == nil {
		t.Fatalf("missing root element")
	}
}

func TestParseStringMismatchedTag(t *testing.T) {
	_, err := ParseString(`<doc><a></b></doc>`)
	if err == nil {
		t.Fatalf("expected a mismatched closing tag error")
	}
}

func TestParseStringProcessingInstruction(t *testing.T) {
	doc, err := ParseString(`<doc><?target foo="bar"?></doc>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	root := doc.Root().(*Element)
	instr, ok := root.Nodes[0].(*Instruction)
	if !ok {
		t.Fatalf("child is not an instruction: %T", root.Nodes[0])
	}
	if instr.LocalName() != "target" {
		t.Fatalf("instruction name: got %q", instr.LocalName())
	}
	if got := instr.Attrs[0].Value(); got != "bar" {
		t.Fatalf("instruction attribute: got %q", got)
	}
}

func TestParseStringRegisteredPI(t *testing.T) {
	p := NewParser(strings.NewReader(`<doc><?hook a="1"?></doc>`))
	p.RegisterPI("hook", func(target string, attrs []Attribute) (Node, error) {
		return NewComment("intercepted:" + target), nil
	})
	doc, err := p.Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	root := doc.Root().(*Element)
	c, ok := root.Nodes[0].(*Comment)
	if !ok {
		t.Fatalf("child is not a comment: %T", root.Nodes[0])
	}
	if c.Content != "intercepted:hook" {
		t.Fatalf("comment content: got %q", c.Content)
	}
}

func TestParseStringWhitespaceDefaultPreserved(t *testing.T) {
	doc, err := ParseString("<doc>\n  <a/>\n  <b/>\n</doc>")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	root := doc.Root().(*Element)
	if len(root.Nodes) != 5 {
		t.Fatalf("children: got %d, want 5 (three blank text runs kept)", len(root.Nodes))
	}
}

func TestParseStringTrimSpaceDropsBlankRuns(t *testing.T) {
	p := NewParser(strings.NewReader("<doc>\n  <a/>\n  <b/>\n</doc>"))
	p.TrimSpace = true
	doc, err := p.Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	root := doc.Root().(*Element)
	if len(root.Nodes) != 2 {
		t.Fatalf("children: got %d, want 2 (blank text runs stripped)", len(root.Nodes))
	}
}

func TestParseStringMissingRoot(t *testing.T) {
	_, err := ParseString("   ")
	if err == nil {
		t.Fatalf("expected an error for a document with no root element")
	}
}
