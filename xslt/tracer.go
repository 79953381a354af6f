package xslt

import (
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

type Tracer interface {
	Start(runID string)
	Done(runID string)
	Enter(*Context)
	Leave(*Context)
	Error(*Context, error)
}

func NoopTracer() Tracer {
	return discardTracer{}
}

// newRunID mints the correlation id a Stylesheet attaches to every trace
// line for one Execute call, so log lines from concurrent transforms
// sharing a process don't get interleaved into a single narrative.
func newRunID() string {
	return uuid.NewString()
}

type discardTracer struct{}

func (_ discardTracer) Start(_ string) {}

func (_ discardTracer) Done(_ string) {}

func (_ discardTracer) Enter(_ *Context) {}

func (_ discardTracer) Leave(_ *Context) {}

func (_ discardTracer) Error(_ *Context, _ error) {}

type stdioTracer struct {
	logger *slog.Logger
}

func Stdout() Tracer {
	return stdioTracer{
		logger: stdioLogger(os.Stdout),
	}
}

func Stderr() Tracer {
	return stdioTracer{
		logger: stdioLogger(os.Stderr),
	}
}

func stdioLogger(w io.Writer) *slog.Logger {
	opts := slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	return slog.New(slog.NewTextHandler(w, &opts))
}

func (t stdioTracer) Println(msg string) {
	t.logger.Info(msg)
}

func (t stdioTracer) Start(runID string) {
	t.logger.Debug("start transform", "run", runID)
}

func (t stdioTracer) Done(runID string) {
	t.logger.Debug("done transform", "run", runID)
}

func (t stdioTracer) Enter(ctx *Context) {
	args := []any{
		"instruction",
		ctx.XslNode.QualifiedName(),
		"node",
		ctx.ContextNode.QualifiedName(),
		"depth",
		ctx.Depth,
		"run",
		ctx.runID,
	}
	t.logger.Debug("start instruction", args...)
}

func (t stdioTracer) Leave(ctx *Context) {
	args := []any{
		"instruction",
		ctx.XslNode.QualifiedName(),
		"node",
		ctx.ContextNode.QualifiedName(),
		"depth",
		ctx.Depth,
		"run",
		ctx.runID,
	}
	t.logger.Debug("done instruction", args...)
}

func (t stdioTracer) Error(ctx *Context, err error) {
	t.logger.Error("error while processing instruction", "node", ctx.ContextNode.QualifiedName(), "depth", ctx.Depth, "run", ctx.runID, "err", err.Error())
}
