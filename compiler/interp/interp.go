package interp

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/peep/compiler/ir"
)

type (
	state struct {
		env map[ir.Value]int64
		mem map[ir.Value]int64
	}
)

// Eval executes f on the given arguments.
//
// Integer values are kept as width-masked bit patterns, so arithmetic
// wraps around two's-complement style. Pointer parameters get an
// implicit zero-initialized cell. The result is the sign-extended ret
// operand, zero for a void ret or a function falling off the end.
func Eval(ctx context.Context, f *ir.Func, args ...int64) (ret int64, err error) {
	tr := tlog.SpanFromContext(ctx)

	if len(args) != len(f.In) {
		return 0, errors.New("%v arguments expected, got %v", len(f.In), len(args))
	}

	s := &state{
		env: map[ir.Value]int64{},
		mem: map[ir.Value]int64{},
	}

	for i, p := range f.In {
		if p.Typ == ir.Ptr {
			s.mem[p] = 0
			continue
		}

		s.env[p] = mask(args[i], p.Typ)
	}

	for _, b := range f.Blocks {
		for x := b.First(); x != nil; x = x.Next() {
			done, val, err := s.step(x)
			if err != nil {
				return 0, errors.Wrap(err, "%v", x)
			}
			if done {
				if tr.If("dump_eval") {
					tr.Printw("eval", "func", f.Name, "ret", val)
				}

				return val, nil
			}
		}
	}

	return 0, nil
}

func (s *state) step(x *ir.Instr) (done bool, ret int64, err error) {
	switch x.Op {
	case ir.Alloca:
		s.mem[x] = 0

		return false, 0, nil
	case ir.Store:
		ptr := x.Arg(1)
		if _, ok := s.mem[ptr]; !ok {
			return false, 0, errors.New("store to unknown address")
		}

		v, err := s.operand(x.Arg(0))
		if err != nil {
			return false, 0, err
		}

		s.mem[ptr] = v

		return false, 0, nil
	case ir.Load:
		v, ok := s.mem[x.Arg(0)]
		if !ok {
			return false, 0, errors.New("load from unknown address")
		}

		s.env[x] = mask(v, x.Typ)

		return false, 0, nil
	case ir.Ret:
		if x.NArgs() == 0 {
			return true, 0, nil
		}

		v, err := s.operand(x.Arg(0))
		if err != nil {
			return false, 0, err
		}

		return true, sext(v, x.Arg(0).Type()), nil
	}

	l, err := s.operand(x.Arg(0))
	if err != nil {
		return false, 0, err
	}

	r, err := s.operand(x.Arg(1))
	if err != nil {
		return false, 0, err
	}

	w := int(x.Typ)

	switch x.Op {
	case ir.Add:
		ret = l + r
	case ir.Sub:
		ret = l - r
	case ir.Mul:
		ret = l * r
	case ir.SDiv:
		if r == 0 {
			return false, 0, errors.New("division by zero")
		}

		sl, sr := sext(l, x.Typ), sext(r, x.Typ)
		if sr == -1 { // MinInt / -1 wraps instead of trapping
			ret = -sl
		} else {
			ret = sl / sr
		}
	case ir.UDiv:
		if r == 0 {
			return false, 0, errors.New("division by zero")
		}

		ret = int64(uint64(l) / uint64(r))
	case ir.Shl, ir.AShr, ir.LShr:
		if r < 0 || r >= int64(w) {
			return false, 0, errors.New("shift amount out of range: %v", r)
		}

		switch x.Op {
		case ir.Shl:
			ret = l << r
		case ir.AShr:
			ret = sext(l, x.Typ) >> r
		case ir.LShr:
			ret = int64(uint64(l) >> uint64(r))
		}
	default:
		return false, 0, errors.New("unsupported op: %v", x.Op)
	}

	s.env[x] = mask(ret, x.Typ)

	return false, 0, nil
}

func (s *state) operand(v ir.Value) (int64, error) {
	if c, ok := v.(*ir.Const); ok {
		return mask(c.Val, c.Typ), nil
	}

	r, ok := s.env[v]
	if !ok {
		return 0, errors.New("undefined value")
	}

	return r, nil
}

func mask(v int64, tp ir.Type) int64 {
	w := uint(tp)
	if w >= 64 {
		return v
	}

	return v & (1<<w - 1)
}

func sext(v int64, tp ir.Type) int64 {
	w := uint(tp)
	if w >= 64 || v&(1<<(w-1)) == 0 {
		return v
	}

	return v | ^int64(1<<w-1)
}
