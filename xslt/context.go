package xslt

import (
	"fmt"

	"github.com/MediaArea/libxslt/environ"
	"github.com/MediaArea/libxslt/xml"
	"github.com/MediaArea/libxslt/xpath"
)

type Context struct {
	XslNode     xml.Node
	ContextNode xml.Node
	Mode        string

	Index int
	Size  int
	Depth int

	*Stylesheet
	*Env
}

func (c *Context) errorWithContext(err error) error {
	if c.XslNode == nil {
		return err
	}
	return errorWithContext(c.XslNode.QualifiedName(), err)
}

func (c *Context) WithNodes(ctxNode, xslNode xml.Node) *Context {
	return c.clone(xslNode, ctxNode)
}

func (c *Context) WithXsl(xslNode xml.Node) *Context {
	return c.clone(xslNode, c.ContextNode)
}

func (c *Context) WithXpath(ctxNode xml.Node) *Context {
	return c.clone(c.XslNode, ctxNode)
}

func (c *Context) WithMode(mode string) *Context {
	child := c.clone(c.XslNode, c.ContextNode)
	child.Mode = mode
	return child
}

func (c *Context) Nest() *Context {
	child := c.clone(c.XslNode, c.ContextNode)
	child.Env = child.Env.Sub()
	return child
}

func (c *Context) Copy() *Context {
	return c.clone(c.XslNode, c.ContextNode)
}

func (c *Context) clone(xslNode, ctxNode xml.Node) *Context {
	child := Context{
		XslNode:     xslNode,
		ContextNode: ctxNode,
		Mode:        c.Mode,
		Index:       1,
		Size:        1,
		Stylesheet:  c.Stylesheet,
		Env:         c.Env,
		Depth:       c.Depth + 1,
	}
	return &child
}

type Resolver interface {
	Resolve(string) (xpath.Expr, error)
}

type Env struct {
	other     Resolver
	Namespace string
	Vars      environ.Environ[xpath.Expr]
	Params    environ.Environ[xpath.Expr]
	Builtins  environ.Environ[xpath.BuiltinFunc]
	Depth     int
}

func Empty() *Env {
	return Enclosed(nil)
}

func Enclosed(other Resolver) *Env {
	e := &Env{
		other:    other,
		Vars:     environ.Empty[xpath.Expr](),
		Params:   environ.Empty[xpath.Expr](),
		Builtins: xpath.DefaultBuiltin(),
	}
	e.Builtins.Define("current", callCurrent)
	e.Builtins.Define("key", callKey)
	e.Builtins.Define("document", callDocument)
	e.Builtins.Define("system-property", callSystemProperty)
	return e
}

func (e *Env) Sub() *Env {
	return &Env{
		other:     e.other,
		Namespace: e.Namespace,
		Vars:      environ.Enclosed[xpath.Expr](e.Vars),
		Params:    environ.Enclosed[xpath.Expr](e.Params),
		Builtins:  e.Builtins,
		Depth:     e.Depth + 1,
	}
}

func (e *Env) ExecuteQuery(query string, datum xml.Node) (xpath.Sequence, error) {
	return e.ExecuteQueryWithNS(query, "", datum)
}

func (e *Env) ExecuteQueryWithNS(query, namespace string, datum xml.Node) (xpath.Sequence, error) {
	if query == "" {
		i := xpath.NewNodeItem(datum)
		return xpath.Singleton(i), nil
	}
	q, err := e.CompileQueryWithNS(query, namespace)
	if err != nil {
		return nil, err
	}
	return q.Find(datum)
}

func (e *Env) queryXSL(query string, datum xml.Node) (xpath.Sequence, error) {
	return e.ExecuteQueryWithNS(query, e.Namespace, datum)
}

// ResetXpathNamespace clears the default namespace an instruction body
// evaluates XPath expressions under, returning the previous value so the
// caller can restore it once the body finishes. Literal result elements
// inside a template should not inherit the stylesheet's own xsl namespace
// binding.
func (e *Env) ResetXpathNamespace() string {
	old := e.Namespace
	e.Namespace = ""
	return old
}

func (e *Env) SetXpathNamespace(ns string) {
	e.Namespace = ns
}

func (e *Env) CompileQuery(query string) (xpath.Expr, error) {
	return e.CompileQueryWithNS(query, "")
}

func (e *Env) CompileQueryWithNS(query, namespace string) (xpath.Expr, error) {
	q, err := xpath.Build(query)
	if err != nil {
		return nil, err
	}
	q.Environ = e
	q.Builtins = e.Builtins
	if namespace != "" {
		q.UseNamespace(namespace)
	}
	return q, nil
}

func (e *Env) TestNode(query string, datum xml.Node) (bool, error) {
	items, err := e.ExecuteQuery(query, datum)
	if err != nil {
		return false, err
	}
	return isTrue(items), nil
}

func (e *Env) Merge(other *Env) {
	if m, ok := e.Vars.(interface {
		Merge(environ.Environ[xpath.Expr])
	}); ok {
		m.Merge(other.Vars)
	}
	if m, ok := e.Params.(interface {
		Merge(environ.Environ[xpath.Expr])
	}); ok {
		m.Merge(other.Params)
	}
}

func (e *Env) Resolve(ident string) (xpath.Expr, error) {
	expr, err := e.Vars.Resolve(ident)
	if err == nil {
		return expr, nil
	}
	expr, err = e.Params.Resolve(ident)
	if err == nil {
		return expr, nil
	}
	if e.other != nil {
		return e.other.Resolve(ident)
	}
	return nil, err
}

func (e *Env) Define(ident string, expr xpath.Expr) {
	e.Vars.Define(ident, expr)
}

func (e *Env) DefineParam(param, value string) error {
	expr, err := e.CompileQuery(value)
	if err == nil {
		e.DefineExprParam(param, expr)
	}
	return err
}

func (e *Env) EvalParam(param, query string, datum xml.Node) error {
	items, err := e.ExecuteQuery(query, datum)
	if err == nil {
		e.DefineExprParam(param, xpath.NewValueFromSequence(items))
	}
	return err
}

func (e *Env) DefineExprParam(param string, expr xpath.Expr) {
	e.Params.Define(param, expr)
}

func isTrue(seq xpath.Sequence) bool {
	if seq.Empty() {
		return false
	}
	first, ok := seq.First()
	if !first.Atomic() {
		return true
	}
	switch res := first.Value().(type) {
	case bool:
		ok = res
	case float64:
		ok = res != 0
	case string:
		ok = res != ""
	default:
	}
	return ok
}

func errorWithContext(ctx string, err error) error {
	return fmt.Errorf("%s: %w", ctx, err)
}
