package opt

import (
	"context"

	"tlog.app/go/tlog"

	"github.com/slowlang/peep/compiler/ir"
)

func init() {
	register("algebraic-identity", AlgebraicIdentity)
}

// AlgebraicIdentity removes additions of zero and multiplications by
// one, redirecting uses to the surviving operand.
func AlgebraicIdentity(ctx context.Context, f *ir.Func) (changed bool) {
	tr := tlog.SpanFromContext(ctx)

	for _, b := range f.Blocks {
		for it := b.Cursor(); ; {
			x := it.Next()
			if x == nil {
				break
			}

			var keep ir.Value
			var ok bool

			switch x.Op {
			case ir.Add:
				keep, ok = constOther(x, 0)
			case ir.Mul:
				keep, ok = constOther(x, 1)
			}
			if !ok {
				continue
			}

			if tr.If("opt") {
				tr.Printw("algebraic identity", "ins", x)
			}

			x.ReplaceAllUsesWith(keep)
			x.Erase()

			changed = true
		}
	}

	return changed
}
