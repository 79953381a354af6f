package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/MediaArea/libxslt/cmd/cli"
	"github.com/MediaArea/libxslt/xml"
	"github.com/MediaArea/libxslt/xpath"
	"github.com/MediaArea/libxslt/xslt"
	"github.com/midbel/distance"
)

var errFail = errors.New("fail")

func main() {
	root := cli.New()
	root.Register([]string{"run"}, &RunCmd{})
	root.Register([]string{"version"}, cli.HandlerFunc(runVersion))

	if err := root.Execute(os.Args[1:]); err != nil {
		if s, ok := err.(cli.SuggestionError); ok && len(s.Others) > 0 {
			fmt.Fprintln(os.Stderr, "similar command(s)")
			for _, n := range s.Others {
				fmt.Fprintln(os.Stderr, "-", n)
			}
		}
		if !errors.Is(err, errFail) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func runVersion(_ []string) error {
	fmt.Println("xslt 1.0")
	return nil
}

// params collects repeated -p name=value flags into xsl:param overrides.
type params map[string]string

func (p params) String() string {
	return fmt.Sprintf("%v", map[string]string(p))
}

func (p params) Set(raw string) error {
	name, value, ok := splitParam(raw)
	if !ok {
		return fmt.Errorf("%s: expected name=value", raw)
	}
	p[name] = value
	return nil
}

func splitParam(raw string) (string, string, bool) {
	for i := range raw {
		if raw[i] == '=' {
			return raw[:i], raw[i+1:], true
		}
	}
	return "", "", false
}

// RunCmd loads a stylesheet, applies it to an input document and writes the
// result, mirroring how a stylesheet's own xsl:output controls the final
// serialization.
type RunCmd struct {
	Context  string
	Mode     string
	Trace    bool
	WrapRoot bool
	Out      string
	Params   params
}

func (c *RunCmd) Run(args []string) error {
	c.Params = make(params)

	set := flag.NewFlagSet("run", flag.ContinueOnError)
	set.StringVar(&c.Context, "d", "", "context directory used to resolve xsl:import/xsl:include")
	set.StringVar(&c.Mode, "m", "", "initial mode")
	set.BoolVar(&c.Trace, "trace", false, "log every instruction entered/left to stderr")
	set.BoolVar(&c.WrapRoot, "w", false, "wrap multiple result nodes under a single root element")
	set.StringVar(&c.Out, "o", "", "output file (defaults to stdout)")
	set.Var(&c.Params, "p", "stylesheet parameter, name=value (repeatable)")

	if err := set.Parse(args); err != nil {
		return err
	}
	if set.NArg() < 2 {
		return fmt.Errorf("usage: xslt run [options] <stylesheet> <document>")
	}

	sheet, err := xslt.Load(set.Arg(0), c.Context)
	if err != nil {
		return err
	}
	sheet.WrapRoot = c.WrapRoot
	if c.Trace {
		sheet.Tracer = xslt.Stderr()
	}
	if c.Mode != "" {
		if err := c.checkMode(sheet); err != nil {
			return err
		}
		sheet.Mode = c.Mode
	}
	for name, value := range c.Params {
		expr, err := xpath.CompileString(fmt.Sprintf("%q", value))
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		sheet.SetParam(name, expr)
	}

	doc, err := parseDocument(set.Arg(1))
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if c.Out != "" {
		f, err := os.Create(c.Out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return sheet.Generate(w, doc)
}

func (c *RunCmd) checkMode(sheet *xslt.Stylesheet) error {
	names := make([]string, 0, len(sheet.Modes))
	for _, m := range sheet.Modes {
		if m.Name == c.Mode {
			return nil
		}
		names = append(names, m.Name)
	}
	suggestions := distance.Levenshtein(c.Mode, names)
	if len(suggestions) > 0 {
		return fmt.Errorf("%s: unknown mode, did you mean %q?", c.Mode, suggestions[0])
	}
	return fmt.Errorf("%s: unknown mode", c.Mode)
}

func parseDocument(file string) (*xml.Document, error) {
	r, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	p := xml.NewParser(r)
	return p.Parse()
}
