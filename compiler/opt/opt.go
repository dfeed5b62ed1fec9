// Package opt rewrites local instruction patterns into cheaper forms.
//
// Each pass makes one linear scan over every block of a function and
// reports whether it changed anything. The mutation discipline is
// shared by all passes: match fully before touching the block, then
// redirect uses, then erase, inserting synthesized instructions
// strictly before the instruction they replace.
package opt

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/slowlang/peep/compiler/ir"
)

type (
	Pass struct {
		Name string
		Run  func(ctx context.Context, f *ir.Func) bool

		from loc.PC
	}
)

var passes []*Pass

func register(name string, run func(context.Context, *ir.Func) bool) {
	for _, p := range passes {
		if p.Name == name {
			panic("pass redefined: " + name)
		}
	}

	passes = append(passes, &Pass{
		Name: name,
		Run:  run,
		from: loc.Caller(1),
	})
}

// Lookup finds a registered pass by its stable name.
func Lookup(name string) (*Pass, bool) {
	for _, p := range passes {
		if p.Name == name {
			return p, true
		}
	}

	return nil, false
}

// Names lists registered passes in registration order.
func Names() []string {
	r := make([]string, len(passes))

	for i, p := range passes {
		r[i] = p.Name
	}

	return r
}

func (p *Pass) From() loc.PC { return p.from }

// Run applies the named passes to f in the given order.
// changed is true iff at least one rewrite was applied.
func Run(ctx context.Context, f *ir.Func, names ...string) (changed bool, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "optimize func", "name", f.Name, "passes", names)
	defer tr.Finish("changed", &changed, "err", &err)

	for _, name := range names {
		p, ok := Lookup(name)
		if !ok {
			return changed, errors.New("unknown pass: %v", name)
		}

		ch := p.Run(ctx, f)
		changed = changed || ch

		tr.Printw("pass", "name", name, "changed", ch, "from", p.from)

		if tr.If("dump_ir") {
			tr.Printw("func after pass", "name", name, "ir", f.String())
		}
	}

	return changed, nil
}

// constOther finds a constant operand equal to c and returns the other
// operand. Both positions are checked, the second one first, so that
// when both operands match the operand 0 value is the one returned.
func constOther(x *ir.Instr, c int64) (ir.Value, bool) {
	if v, ok := ir.ConstValue(x.Arg(1)); ok && v == c {
		return x.Arg(0), true
	}
	if v, ok := ir.ConstValue(x.Arg(0)); ok && v == c {
		return x.Arg(1), true
	}

	return nil, false
}
