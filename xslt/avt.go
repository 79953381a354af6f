package xslt

import (
	"iter"
	"strings"

	"github.com/MediaArea/libxslt/xml"
)

func processAVT(ctx *Context, node xml.Node) error {
	el := node.(*xml.Element)
	for i, a := range el.Attrs {
		str, err := evalAVT(ctx, a.Value())
		if err != nil {
			return err
		}
		el.Attrs[i].Datum = str
	}
	return nil
}

// evalAVT expands a single attribute-value-template string, substituting
// each {expression} with the string value of evaluating it against the
// context node.
func evalAVT(ctx *Context, value string) (string, error) {
	var str strings.Builder
	for q, ok := range iterAVT(value) {
		if !ok {
			str.WriteString(q)
			continue
		}
		items, err := ctx.ExecuteQuery(q, ctx.ContextNode)
		if err != nil {
			return "", err
		}
		for i := range items {
			str.WriteString(toString(items[i]))
		}
	}
	return str.String(), nil
}

func iterAVT(str string) iter.Seq2[string, bool] {
	fn := func(yield func(string, bool) bool) {
		var offset int
		for {
			var (
				ix  = strings.IndexRune(str[offset:], '{')
				ptr = offset
			)
			if ix < 0 {
				yield(str[offset:], false)
				break
			}
			offset += ix + 1
			ix = strings.IndexRune(str[offset:], '}')
			if ix < 0 {
				yield(str[offset-1:], false)
				break
			}
			if !yield(str[ptr:offset-1], false) {
				break
			}
			if !yield(str[offset:offset+ix], true) {
				break
			}
			offset += ix + 1
		}
	}
	return fn
}
