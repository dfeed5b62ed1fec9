package opt

import (
	"context"

	"tlog.app/go/tlog"

	"github.com/slowlang/peep/compiler/ir"
)

func init() {
	register("multi-instruction", MultiInstruction)
}

// MultiInstruction cancels an add-one followed by a subtract-one of
// its result, directly or through a store-load round trip of the
// added value. Uses of the subtract resolve to the add's other
// operand. The chain is matched in full before anything is touched.
func MultiInstruction(ctx context.Context, f *ir.Func) (changed bool) {
	tr := tlog.SpanFromContext(ctx)

	for _, b := range f.Blocks {
		for it := b.Cursor(); ; {
			add := it.Next()
			if add == nil {
				break
			}
			if add.Op != ir.Add {
				continue
			}

			base, ok := constOther(add, 1)
			if !ok {
				continue
			}

			if sub := it.Peek(1); cancels(sub, add) {
				resume := it.Peek(2)

				if tr.If("opt") {
					tr.Printw("cancel add-sub", "add", add, "sub", sub)
				}

				sub.ReplaceAllUsesWith(base)
				sub.Erase()

				if len(add.Uses()) == 0 {
					add.Erase()
				}

				it.Seek(resume)
				changed = true

				continue
			}

			store, load, sub := it.Peek(1), it.Peek(2), it.Peek(3)

			if store == nil || store.Op != ir.Store || store.Arg(0) != ir.Value(add) {
				continue
			}
			// The load must read back the very slot just written.
			if load == nil || load.Op != ir.Load || load.Arg(0) != store.Arg(1) {
				continue
			}
			if !cancels(sub, load) {
				continue
			}

			resume := it.Peek(4)

			if tr.If("opt") {
				tr.Printw("cancel add-store-load-sub", "add", add, "sub", sub)
			}

			sub.ReplaceAllUsesWith(base)
			sub.Erase()

			// The store keeps the slot's value intact, only the
			// reload became dead.
			if len(load.Uses()) == 0 {
				load.Erase()
			}

			it.Seek(resume)
			changed = true
		}
	}

	return changed
}

// cancels reports whether sub computes v - 1.
func cancels(sub *ir.Instr, v *ir.Instr) bool {
	if sub == nil || sub.Op != ir.Sub || sub.Arg(0) != ir.Value(v) {
		return false
	}

	c, ok := ir.ConstValue(sub.Arg(1))

	return ok && c == 1
}
