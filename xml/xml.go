// Package xml implements the minimal XML 1.0 tree the xslt package needs:
// element/attribute/namespace/text/CDATA/comment/processing-instruction
// nodes with parent/child/sibling links, document-order comparison, deep
// cloning, a small hand-rolled parser and a streaming writer.
package xml

import "strings"

const (
	langle   = '<'
	rangle   = '>'
	slash    = '/'
	bang     = '!'
	question = '?'
	equal    = '='
	quote    = '"'
	dash     = '-'
	lsquare  = '['
	rsquare  = ']'
)

// QName is a namespace-qualified name: a local Name, an optional Space
// (the prefix as written in the source), and its resolved Uri.
type QName struct {
	Uri   string
	Space string
	Name  string
}

func LocalName(name string) QName {
	return QName{Name: name}
}

func QualifiedName(name, space string) QName {
	return QName{Name: name, Space: space}
}

// ParseName splits a "prefix:local" or "local" lexical QName.
func ParseName(name string) (QName, error) {
	space, local, ok := strings.Cut(name, ":")
	if !ok {
		return QName{Name: space}, nil
	}
	return QName{Name: local, Space: space}, nil
}

func (q QName) Zero() bool {
	return q.Name == ""
}

func (q QName) LocalName() string {
	return q.Name
}

func (q QName) QualifiedName() string {
	if q.Space == "" {
		return q.Name
	}
	return q.Space + ":" + q.Name
}

func (q QName) ExpandedName() string {
	if q.Uri == "" {
		return q.Name
	}
	return "{" + q.Uri + "}" + q.Name
}

func (q QName) Equal(other QName) bool {
	if q.Uri != "" || other.Uri != "" {
		return q.Uri == other.Uri && q.Name == other.Name
	}
	return q.Space == other.Space && q.Name == other.Name
}

// NS is a namespace declaration: a prefix (empty for the default namespace)
// bound to a URI.
type NS struct {
	Prefix string
	Uri    string
}

func (n NS) Default() bool {
	return n.Prefix == ""
}

// Position tracks a scanner location for diagnostics.
type Position struct {
	Line   int
	Column int
}
