package ir

import "fmt"

func AppendPackage(b []byte, p *Package) []byte {
	for i, f := range p.Funcs {
		if i != 0 {
			b = append(b, '\n')
		}

		b = AppendFunc(b, f)
	}

	return b
}

func AppendFunc(b []byte, f *Func) []byte {
	b = fmt.Appendf(b, "func %v(", f.Name)

	for i, p := range f.In {
		if i != 0 {
			b = append(b, ", "...)
		}

		b = fmt.Appendf(b, "%v %%%v", p.Typ, p.Name)
	}

	b = append(b, ") {\n"...)

	for i, blk := range f.Blocks {
		if i != 0 {
			b = fmt.Appendf(b, "%v:\n", blk.Name)
		}

		for x := blk.First(); x != nil; x = x.Next() {
			b = append(b, '\t')
			b = AppendInstr(b, x)
			b = append(b, '\n')
		}
	}

	b = append(b, "}\n"...)

	return b
}

func AppendInstr(b []byte, x *Instr) []byte {
	switch x.Op {
	case Store:
		b = fmt.Appendf(b, "store %v ", x.Arg(0).Type())
		b = appendValue(b, x.Arg(0))
		b = append(b, ", "...)
		b = appendValue(b, x.Arg(1))
	case Alloca:
		b = fmt.Appendf(b, "%%%v = alloca %v", x.Name, x.Elem)
	case Ret:
		if x.NArgs() == 0 {
			b = append(b, "ret"...)
			break
		}

		b = fmt.Appendf(b, "ret %v ", x.Arg(0).Type())
		b = appendValue(b, x.Arg(0))
	default:
		b = fmt.Appendf(b, "%%%v = %v %v ", x.Name, x.Op, x.Typ)

		for i := 0; i < x.NArgs(); i++ {
			if i != 0 {
				b = append(b, ", "...)
			}

			b = appendValue(b, x.Arg(i))
		}
	}

	return b
}

func appendValue(b []byte, v Value) []byte {
	switch v := v.(type) {
	case *Const:
		return fmt.Appendf(b, "%d", v.Val)
	case *Param:
		return fmt.Appendf(b, "%%%v", v.Name)
	case *Instr:
		return fmt.Appendf(b, "%%%v", v.Name)
	default:
		panic(v)
	}
}

func (f *Func) String() string {
	return string(AppendFunc(nil, f))
}

func (x *Instr) String() string {
	return string(AppendInstr(nil, x))
}
