package compiler

import (
	"context"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/peep/compiler/ir"
	"github.com/slowlang/peep/compiler/opt"
	"github.com/slowlang/peep/compiler/parse"
)

func OptimizeFile(ctx context.Context, name string, passes []string) (obj []byte, err error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return Optimize(ctx, name, text, passes)
}

// Optimize parses the textual IR, applies the named passes to every
// function in order and prints the result back.
func Optimize(ctx context.Context, name string, text []byte, passes []string) (obj []byte, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "optimize", "name", name, "passes", passes)
	defer tr.Finish("err", &err)

	p, err := parse.Parse(ctx, name, text)
	if err != nil {
		return nil, errors.Wrap(err, "parse text")
	}

	for _, f := range p.Funcs {
		changed, err := opt.Run(ctx, f, passes...)
		if err != nil {
			return nil, errors.Wrap(err, "func %v", f.Name)
		}

		tr.Printw("func optimized", "name", f.Name, "changed", changed)
	}

	return ir.AppendPackage(nil, p), nil
}
