package xslt

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/MediaArea/libxslt/xml"
	"github.com/MediaArea/libxslt/xpath"
)

type ExecuteFunc func(*Context) (xpath.Sequence, error)

var executers map[xml.QName]ExecuteFunc

// xsltQualifiedName builds the xml.QName the compiler uses for a
// well-known XSLT instruction, under whatever prefix the stylesheet
// declared for the XSLT namespace (Stylesheet.Load rewrites these keys
// to the prefix actually found in the source document).
func xsltQualifiedName(name string) xml.QName {
	return xml.QualifiedName(name, xsltNamespacePrefix)
}

func init() {
	nest := func(exec ExecuteFunc) ExecuteFunc {
		fn := func(ctx *Context) (xpath.Sequence, error) {
			ns := ctx.ResetXpathNamespace()
			defer ctx.SetXpathNamespace(ns)
			return exec(ctx.Nest())
		}
		return fn
	}
	trace := func(exec ExecuteFunc) ExecuteFunc {
		fn := func(ctx *Context) (xpath.Sequence, error) {
			ns := ctx.ResetXpathNamespace()
			defer ctx.SetXpathNamespace(ns)
			return exec(ctx)
		}
		return fn
	}
	executers = map[xml.QName]ExecuteFunc{
		xsltQualifiedName("for-each"):               nest(executeForeach),
		xsltQualifiedName("value-of"):               trace(executeValueOf),
		xsltQualifiedName("call-template"):          nest(executeCallTemplate),
		xsltQualifiedName("apply-templates"):        nest(executeApplyTemplates),
		xsltQualifiedName("if"):                     nest(executeIf),
		xsltQualifiedName("variable"):               trace(executeVariable),
		xsltQualifiedName("with-param"):              trace(executeWithParam),
		xsltQualifiedName("processing-instruction"): trace(executePI),
		xsltQualifiedName("element"):                trace(executeElement),
		xsltQualifiedName("attribute"):               trace(executeAttribute),
		xsltQualifiedName("text"):                   trace(executeText),
		xsltQualifiedName("comment"):                trace(executeComment),
	}
}

// executeVariable binds xsl:variable's value, computed either from its
// select attribute or by running its children as a result-tree fragment.
func executeVariable(ctx *Context) (xpath.Sequence, error) {
	elem, err := getElementFromNode(ctx.XslNode)
	if err != nil {
		return nil, ctx.errorWithContext(err)
	}
	ident, err := getAttribute(elem, "name")
	if err != nil {
		return nil, ctx.errorWithContext(err)
	}
	var seq xpath.Sequence
	if query, err1 := getAttribute(elem, "select"); err1 == nil {
		if len(elem.Nodes) > 0 {
			return nil, fmt.Errorf("select attribute can not be used with children")
		}
		seq, err = ctx.ExecuteQuery(query, ctx.ContextNode)
	} else {
		seq, err = executeConstructor(ctx, elem.Nodes)
	}
	if err != nil {
		return nil, ctx.errorWithContext(err)
	}
	ctx.Define(ident, xpath.NewValueFromSequence(seq))
	return nil, nil
}

func executeWithParam(ctx *Context) (xpath.Sequence, error) {
	elem, err := getElementFromNode(ctx.XslNode)
	if err != nil {
		return nil, ctx.errorWithContext(err)
	}
	ident, err := getAttribute(elem, "name")
	if err != nil {
		return nil, ctx.errorWithContext(err)
	}
	if query, err := getAttribute(elem, "select"); err == nil {
		if len(elem.Nodes) != 0 {
			return nil, fmt.Errorf("select attribute can not be used with children")
		}
		ctx.EvalParam(ident, query, ctx.ContextNode)
	} else {
		if len(elem.Nodes) == 0 {
			err := fmt.Errorf("no value given to param %q", ident)
			return nil, ctx.errorWithContext(err)
		}
		seq, err := executeConstructor(ctx, elem.Nodes)
		if err != nil {
			return nil, err
		}
		ctx.DefineExprParam(ident, xpath.NewValueFromSequence(seq))
	}
	return nil, nil
}

func executeApplyTemplates(ctx *Context) (xpath.Sequence, error) {
	return executeApply(ctx, ctx.Match)
}

func executeCallTemplate(ctx *Context) (xpath.Sequence, error) {
	elem, err := getElementFromNode(ctx.XslNode)
	if err != nil {
		return nil, ctx.errorWithContext(err)
	}
	name, err := getAttribute(elem, "name")
	if err != nil {
		return nil, ctx.errorWithContext(err)
	}
	mode, err := getAttribute(elem, "mode")
	if err == nil {
		ctx = ctx.WithMode(mode)
	}
	tpl, err := ctx.Find(name, mode)
	if err != nil {
		return nil, err
	}
	sub := ctx.Nest()
	if t, ok := tpl.(*Template); ok {
		sub.Env.Merge(t.env)
	}
	if err := applyParams(sub); err != nil {
		return nil, ctx.errorWithContext(err)
	}
	call, ok := tpl.(interface {
		Call(*Context) ([]xml.Node, error)
	})
	if !ok {
		err := fmt.Errorf("template %q can not be called", name)
		return nil, ctx.errorWithContext(err)
	}
	nodes, err := call.Call(sub)
	if err != nil {
		return nil, err
	}
	var seq xpath.Sequence
	for i := range nodes {
		seq.Append(xpath.NewNodeItem(nodes[i]))
	}
	return seq, nil
}

// executeForeach iterates the nodes selected by @select, optionally
// ordering them with a run of leading xsl:sort children (applied as a
// multi-key sort, see sortItems), running the remaining body once per
// iteration item with that item as the context node.
func executeForeach(ctx *Context) (xpath.Sequence, error) {
	elem, err := getElementFromNode(ctx.XslNode)
	if err != nil {
		return nil, ctx.errorWithContext(err)
	}
	query, err := getAttribute(elem, "select")
	if err != nil {
		return nil, ctx.errorWithContext(err)
	}

	keys, nodes, err := collectSortKeys(ctx, elem.Nodes)
	if err != nil {
		return nil, ctx.errorWithContext(err)
	}

	items, err := ctx.ExecuteQuery(query, ctx.ContextNode)
	if err != nil {
		return nil, ctx.errorWithContext(err)
	}
	if len(items) == 0 {
		return nil, nil
	}
	if len(keys) > 0 {
		items, err = sortItems(items, keys)
		if err != nil {
			return nil, ctx.errorWithContext(err)
		}
	}

	seq := xpath.NewSequence()
	for i := range items {
		node := items[i].Node()
		others, err := executeConstructor(ctx.WithXpath(node), nodes)
		if err != nil {
			return nil, err
		}
		seq.Concat(others)
	}
	return seq, nil
}

func executeIf(ctx *Context) (xpath.Sequence, error) {
	elem, err := getElementFromNode(ctx.XslNode)
	if err != nil {
		return nil, err
	}
	test, err := getAttribute(elem, "test")
	if err != nil {
		return nil, err
	}
	ok, err := ctx.TestNode(test, ctx.ContextNode)
	if err != nil {
		return nil, err
	}
	var seq xpath.Sequence
	if ok {
		seq, err = executeConstructor(ctx, elem.Nodes)
	}
	return seq, err
}

func executeValueOf(ctx *Context) (xpath.Sequence, error) {
	elem, err := getElementFromNode(ctx.XslNode)
	if err != nil {
		return nil, ctx.errorWithContext(err)
	}
	sep, err := getAttribute(elem, "separator")
	if err != nil {
		sep = " "
	}
	var items xpath.Sequence
	if query, err1 := getAttribute(elem, "select"); err1 != nil {
		items, err = executeConstructor(ctx, elem.Nodes)
	} else {
		if len(elem.Nodes) > 0 {
			err := fmt.Errorf("select attribute can not be used with children")
			return nil, ctx.errorWithContext(err)
		}
		items, err = ctx.ExecuteQuery(query, ctx.ContextNode)
	}
	if err != nil {
		return nil, ctx.errorWithContext(err)
	}
	if len(items) == 0 {
		return xpath.Singleton(xml.NewText("")), nil
	}

	var str strings.Builder
	for i := range items {
		if i > 0 {
			str.WriteString(sep)
		}
		str.WriteString(toString(items[i]))
	}
	txt := xml.NewText(str.String())
	if doe, err := getAttribute(elem, "disable-output-escaping"); err == nil {
		switch doe {
		case "yes":
			txt.DisableEscaping = true
		case "no":
		default:
			ctx.Error(ctx, fmt.Errorf("%s: invalid disable-output-escaping value", doe))
		}
	}
	return xpath.Singleton(txt), nil
}

// executeConstructor runs every child instruction node of a sequence
// constructor and concatenates the results into a single sequence.
func executeConstructor(ctx *Context, nodes []xml.Node) (xpath.Sequence, error) {
	var seq xpath.Sequence
	for _, n := range nodes {
		c := cloneNode(n)
		if c == nil {
			continue
		}
		others, err := transformNode(ctx.WithXsl(c))
		if err != nil {
			return others, err
		}
		seq.Concat(others)
	}
	return seq, nil
}

func executeNodes(ctx *Context, nodes []xml.Node) (xpath.Sequence, error) {
	var seq xpath.Sequence
	for i := range nodes {
		tmp, err := transformNode(ctx.WithXsl(nodes[i]))
		if err != nil {
			return nil, err
		}
		seq.Concat(tmp)
	}
	return seq, nil
}

func executePI(ctx *Context) (xpath.Sequence, error) {
	el, err := getElementFromNode(ctx.XslNode)
	if err != nil {
		return nil, err
	}
	ident, err := getAttribute(el, "name")
	if err != nil {
		return nil, err
	}
	qn, err := xml.ParseName(ident)
	if err != nil {
		return nil, ctx.errorWithContext(err)
	}
	if qn.LocalName() == "xml" {
		err := fmt.Errorf("processing-instruction can not have 'xml' name")
		return nil, ctx.errorWithContext(err)
	}
	var seq xpath.Sequence
	if query, err := getAttribute(el, "select"); err == nil {
		if len(el.Nodes) != 0 {
			return nil, fmt.Errorf("select attribute can not be used with children")
		}
		seq, err = ctx.ExecuteQuery(query, ctx.ContextNode)
	} else {
		seq, err = executeConstructor(ctx, el.Nodes)
	}
	if err != nil || seq.Empty() {
		return nil, err
	}
	pi := xml.NewInstruction(qn)
	for _, i := range seq {
		a, ok := i.Node().(*xml.Attribute)
		if !ok {
			err := fmt.Errorf("expected attribute")
			return nil, ctx.errorWithContext(err)
		}
		pi.SetAttribute(*a)
	}
	return xpath.Singleton(pi), nil
}

func executeElement(ctx *Context) (xpath.Sequence, error) {
	elem, err := getElementFromNode(ctx.XslNode)
	if err != nil {
		return nil, ctx.errorWithContext(err)
	}
	ident, err := getAttribute(elem, "name")
	if err != nil {
		return nil, ctx.errorWithContext(err)
	}
	qn, err := xml.ParseName(ident)
	if err != nil {
		return nil, ctx.errorWithContext(err)
	}
	seq, err := executeConstructor(ctx, elem.Nodes)
	if err != nil {
		return nil, err
	}
	curr := xml.NewElement(qn)
	if err := resolveNamespace(ctx, elem, curr); err != nil {
		return nil, ctx.errorWithContext(err)
	}
	for i := range seq {
		appendResult(ctx, curr, seq[i].Node())
	}
	return xpath.Singleton(curr), nil
}

func executeAttribute(ctx *Context) (xpath.Sequence, error) {
	elem, err := getElementFromNode(ctx.XslNode)
	if err != nil {
		return nil, ctx.errorWithContext(err)
	}
	ident, err := getAttribute(elem, "name")
	if err != nil {
		return nil, ctx.errorWithContext(err)
	}
	qn, err := xml.ParseName(ident)
	if err != nil {
		return nil, ctx.errorWithContext(err)
	}
	if qn.Space == "" && qn.Name == "xmlns" {
		ctx.Error(ctx, fmt.Errorf("xmlns can not be used as an attribute name"))
		return nil, nil
	}
	var items xpath.Sequence
	if query, err := getAttribute(elem, "select"); err == nil {
		if len(elem.Nodes) != 0 {
			return nil, fmt.Errorf("select attribute can not be used with children")
		}
		items, err = ctx.ExecuteQuery(query, ctx.ContextNode)
	} else {
		items, err = executeConstructor(ctx, elem.Nodes)
	}
	if err != nil {
		return nil, err
	}
	var value string
	if !items.Empty() {
		value = toString(items[0])
	}
	attr := xml.NewAttribute(qn, value)
	seq := xpath.Singleton(&attr)
	if raw, err := getAttribute(elem, "namespace"); err == nil {
		uri, err := evalAVT(ctx, raw)
		if err != nil {
			return nil, ctx.errorWithContext(err)
		}
		ns, found := xml.SearchNamespace(ctx.XslNode, uri)
		switch {
		case uri == "":
			attr.Uri, attr.Space = "", ""
		case found:
			attr.Uri, attr.Space = uri, ns.Prefix
		default:
			prefix := ctx.makeIdent()
			attr.Uri, attr.Space = uri, prefix
			decl := xml.NewAttribute(xml.QualifiedName(prefix, "xmlns"), uri)
			seq = append(seq, xpath.NewNodeItem(&decl))
		}
	}
	return seq, nil
}

// resolveNamespace implements xsl:element's namespace attribute: its value,
// after AVT expansion, is a URI. An ancestor declaration for that URI
// already in scope on the stylesheet is reused (its prefix is adopted);
// otherwise a prefix is synthesized and declared directly on curr.
func resolveNamespace(ctx *Context, elem *xml.Element, curr *xml.Element) error {
	raw, err := getAttribute(elem, "namespace")
	if err != nil {
		return nil
	}
	uri, err := evalAVT(ctx, raw)
	if err != nil {
		return err
	}
	if uri == "" {
		curr.QName.Uri, curr.QName.Space = "", ""
		return nil
	}
	if ns, ok := xml.SearchNamespace(ctx.XslNode, uri); ok {
		curr.QName.Uri, curr.QName.Space = uri, ns.Prefix
		return nil
	}
	prefix := ctx.makeIdent()
	curr.QName.Uri, curr.QName.Space = uri, prefix
	curr.SetAttribute(xml.NewAttribute(xml.QualifiedName(prefix, "xmlns"), uri))
	return nil
}

// appendResult adds a constructed child to its containing result element,
// enforcing that an xsl:attribute result only ever lands before any other
// child has been appended; once later children exist, a further attribute
// is reported and dropped rather than silently rewritten into place.
func appendResult(ctx *Context, container *xml.Element, node xml.Node) {
	if _, ok := node.(*xml.Attribute); ok && len(container.Nodes) > 0 {
		err := fmt.Errorf("%s: attribute added after children, skipped", node.QualifiedName())
		ctx.Error(ctx, err)
		return
	}
	container.Append(node)
}

func executeText(ctx *Context) (xpath.Sequence, error) {
	elem := xml.NewText(ctx.XslNode.Value())
	if el, ok := ctx.XslNode.(*xml.Element); ok {
		if doe, err := getAttribute(el, "disable-output-escaping"); err == nil && doe == "yes" {
			elem.DisableEscaping = true
		}
	}
	return xpath.Singleton(xpath.NewNodeItem(elem)), nil
}

func executeComment(ctx *Context) (xpath.Sequence, error) {
	elem := xml.NewComment(ctx.XslNode.Value())
	return xpath.Singleton(xpath.NewNodeItem(elem)), nil
}

func applyParams(ctx *Context) error {
	elem, err := getElementFromNode(ctx.XslNode)
	if err != nil {
		return ctx.errorWithContext(err)
	}
	for _, n := range slices.Clone(elem.Nodes) {
		if n.QualifiedName() != ctx.getQualifiedName("with-param") {
			return fmt.Errorf("%s: invalid child node %s", ctx.XslNode.QualifiedName(), n.QualifiedName())
		}
		_, err := transformNode(ctx.WithXsl(n))
		if err != nil {
			return err
		}
	}
	return nil
}

// sortKey is one xsl:sort instruction's select/order/data-type, compiled
// once and reused across every comparison of a sort pass.
type sortKey struct {
	expr    xpath.Expr
	numeric bool
	desc    bool
}

// collectSortKeys splits a run of leading xsl:sort children off nodes,
// compiling each into a sortKey, and returns the remaining body nodes
// unchanged.
func collectSortKeys(ctx *Context, nodes []xml.Node) ([]sortKey, []xml.Node, error) {
	var keys []sortKey
	rest := nodes
	for len(rest) > 0 && rest[0].QualifiedName() == ctx.getQualifiedName("sort") {
		elem, err := getElementFromNode(rest[0])
		if err != nil {
			return nil, nil, err
		}
		query, err := getAttribute(elem, "select")
		if err != nil {
			return nil, nil, err
		}
		expr, err := xpath.CompileString(query)
		if err != nil {
			return nil, nil, err
		}
		order, _ := getAttribute(elem, "order")
		dataType, _ := getAttribute(elem, "data-type")
		keys = append(keys, sortKey{
			expr:    expr,
			numeric: dataType == "number",
			desc:    order == "descending",
		})
		rest = rest[1:]
	}
	return keys, rest, nil
}

// sortItems orders items against one or more sort keys. Multi-key sorts
// (§4.8) apply the keys in reverse declaration order with a stable sort
// each pass, so the first-declared key ends up dominant while ties still
// fall back to the ordering established by the lower-priority keys.
func sortItems(items xpath.Sequence, keys []sortKey) (xpath.Sequence, error) {
	out := slices.Clone(items)
	for i := len(keys) - 1; i >= 0; i-- {
		key := keys[i]
		var ferr error
		sort.SliceStable(out, func(a, b int) bool {
			less, err := key.less(out[a], out[b])
			if err != nil {
				ferr = err
			}
			return less
		})
		if ferr != nil {
			return nil, ferr
		}
	}
	return out, nil
}

func (k sortKey) less(a, b xpath.Item) (bool, error) {
	x1, err1 := k.expr.Find(a.Node())
	x2, err2 := k.expr.Find(b.Node())
	if err1 != nil || err2 != nil {
		return false, nil
	}
	if k.numeric {
		n1, ok1 := numberOf(x1)
		n2, ok2 := numberOf(x2)
		if ok1 != ok2 {
			// a value that fails to coerce to a number always sorts
			// last, regardless of sort direction.
			return ok1, nil
		}
		if !ok1 {
			return false, nil
		}
		if k.desc {
			return n1 > n2, nil
		}
		return n1 < n2, nil
	}
	s1, s2 := itemString(x1), itemString(x2)
	if k.desc {
		return strings.Compare(s1, s2) > 0, nil
	}
	return strings.Compare(s1, s2) < 0, nil
}

func itemString(items []xpath.Item) string {
	if len(items) == 0 {
		return ""
	}
	return fmt.Sprint(items[0].Value())
}

func numberOf(items []xpath.Item) (float64, bool) {
	if len(items) == 0 {
		return 0, false
	}
	switch v := items[0].Value().(type) {
	case float64:
		return v, !math.IsNaN(v)
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(itemString(items)), 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// ApplyTemplate matches the context node against the stylesheet's
// templates (falling back to the built-in rule for the current mode) and
// runs whichever one wins. It is what the built-in copy policies
// (textOnlyCopy, shallowCopy, shallowSkip) use to recurse into a node's
// children one at a time; deepCopy clones the node without recursing.
func (c *Context) ApplyTemplate() ([]xml.Node, error) {
	tpl, err := c.Match(c.ContextNode, c.Mode)
	if err != nil {
		return nil, err
	}
	return tpl.Execute(c)
}

type matchFunc func(xml.Node, string) (Executer, error)

// executeApply implements apply-templates: it honours a leading run of
// xsl:sort children (reordering the matched nodes before dispatch) and
// warns once per with-param child, none of which it applies - see the
// design notes on apply-templates parameters.
func executeApply(ctx *Context, match matchFunc) (xpath.Sequence, error) {
	elem, err := getElementFromNode(ctx.XslNode)
	if err != nil {
		return nil, err
	}
	mode, err := getAttribute(elem, "mode")
	if err == nil {
		ctx = ctx.WithMode(mode)
	}

	keys, rest, err := collectSortKeys(ctx, elem.Nodes)
	if err != nil {
		return nil, ctx.errorWithContext(err)
	}
	for _, n := range rest {
		if n.QualifiedName() == ctx.getQualifiedName("with-param") {
			err := fmt.Errorf("with-param under apply-templates is not applied")
			ctx.Error(ctx, err)
		}
	}

	nodes, err := getNodesForTemplate(ctx)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, nil
	}
	if len(keys) > 0 {
		items := make(xpath.Sequence, len(nodes))
		for i := range nodes {
			items[i] = xpath.NewNodeItem(nodes[i])
		}
		sorted, err := sortItems(items, keys)
		if err != nil {
			return nil, ctx.errorWithContext(err)
		}
		nodes = make([]xml.Node, len(sorted))
		for i := range sorted {
			nodes[i] = sorted[i].Node()
		}
	}

	var seq xpath.Sequence
	for _, datum := range nodes {
		tpl, err := match(datum, mode)
		if err != nil {
			return seq, err
		}
		sub := ctx.WithXpath(datum)
		res, err := tpl.Execute(sub)
		if err != nil {
			return nil, err
		}
		for i := range res {
			seq.Append(xpath.NewNodeItem(res[i]))
		}
	}
	return seq, nil
}

func getNodesForTemplate(ctx *Context) ([]xml.Node, error) {
	elem, err := getElementFromNode(ctx.XslNode)
	if err != nil {
		return nil, ctx.errorWithContext(err)
	}
	var res []xml.Node
	if query, err := getAttribute(elem, "select"); err == nil {
		items, err := ctx.ExecuteQuery(query, ctx.ContextNode)
		if err != nil {
			return nil, err
		}
		for i := range items {
			res = append(res, items[i].Node())
		}
	} else {
		res, err = childrenOf(ctx.ContextNode)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// childrenOf implements the default xsl:apply-templates select, which is
// "child::node()": every direct child of the context node, in document
// order.
func childrenOf(node xml.Node) ([]xml.Node, error) {
	switch node.Type() {
	case xml.TypeDocument:
		doc, ok := node.(*xml.Document)
		if !ok {
			return nil, fmt.Errorf("%s: document node expected", node.QualifiedName())
		}
		return slices.Clone(doc.Nodes), nil
	case xml.TypeElement:
		elem, ok := node.(*xml.Element)
		if !ok {
			return nil, fmt.Errorf("%s: element node expected", node.QualifiedName())
		}
		return slices.Clone(elem.Nodes), nil
	default:
		return nil, nil
	}
}
