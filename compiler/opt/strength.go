package opt

import (
	"context"

	"tlog.app/go/tlog"

	"github.com/slowlang/peep/compiler/ir"
)

func init() {
	register("strength-reduction", StrengthReduction)
}

// StrengthReduction replaces a multiplication by 15 with a shift and a
// subtract, and a division by 8 with the matching right shift.
// Exactly these two constants are handled.
func StrengthReduction(ctx context.Context, f *ir.Func) (changed bool) {
	tr := tlog.SpanFromContext(ctx)

	for _, b := range f.Blocks {
		for it := b.Cursor(); ; {
			x := it.Next()
			if x == nil {
				break
			}

			switch x.Op {
			case ir.Mul:
				v, ok := constOther(x, 15)
				if !ok {
					continue
				}

				// x*15 == (x<<4) - x
				shift := ir.NewInstr(ir.Shl, x.Typ, f.NewName("shift"), v, ir.NewConst(x.Typ, 4))
				b.InsertBefore(shift, x)

				sub := ir.NewInstr(ir.Sub, x.Typ, f.NewName("sub"), shift, v)
				b.InsertBefore(sub, x)

				if tr.If("opt") {
					tr.Printw("strength reduction", "ins", x, "sub", sub)
				}

				x.ReplaceAllUsesWith(sub)
				x.Erase()

				changed = true
			case ir.SDiv, ir.UDiv:
				// Division is not commutative, only the divisor position counts.
				v, ok := ir.ConstValue(x.Arg(1))
				if !ok || v != 8 {
					continue
				}

				// The shift signedness must follow the divide's for
				// negative dividends to keep their exact quotient bits.
				op := ir.AShr
				if x.Op == ir.UDiv {
					op = ir.LShr
				}

				shift := ir.NewInstr(op, x.Typ, f.NewName("shift"), x.Arg(0), ir.NewConst(x.Typ, 3))
				b.InsertBefore(shift, x)

				if tr.If("opt") {
					tr.Printw("strength reduction", "ins", x, "shift", shift)
				}

				x.ReplaceAllUsesWith(shift)
				x.Erase()

				changed = true
			}
		}
	}

	return changed
}
