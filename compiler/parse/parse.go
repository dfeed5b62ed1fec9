package parse

import (
	"context"
	"os"
	"strconv"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/peep/compiler/ir"
)

type (
	state struct {
		name string
		b    []byte
		i    int

		f    *ir.Func
		blk  *ir.Block
		vals map[string]ir.Value
	}
)

var binop = map[string]ir.Op{
	"add":  ir.Add,
	"sub":  ir.Sub,
	"mul":  ir.Mul,
	"sdiv": ir.SDiv,
	"udiv": ir.UDiv,
	"shl":  ir.Shl,
	"ashr": ir.AShr,
	"lshr": ir.LShr,
}

func ParseFile(ctx context.Context, name string) (*ir.Package, error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	return Parse(ctx, name, text)
}

func Parse(ctx context.Context, name string, text []byte) (p *ir.Package, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "parse", "name", name, "size", len(text))
	defer tr.Finish("err", &err)

	s := &state{
		name: name,
		b:    text,
	}

	p = &ir.Package{
		Path: name,
	}

	for {
		s.skipLines()
		if s.i == len(s.b) {
			break
		}

		if kw := s.ident(); kw != "func" {
			return nil, s.wrap(errors.New("func expected, got %q", kw))
		}

		f, err := s.parseFunc(ctx)
		if err != nil {
			return nil, s.wrap(err)
		}

		p.Funcs = append(p.Funcs, f)
	}

	return p, nil
}

func (s *state) parseFunc(ctx context.Context) (f *ir.Func, err error) {
	s.skipSpace()

	name := s.ident()
	if name == "" {
		return nil, errors.New("function name expected")
	}

	f = &ir.Func{Name: name}

	s.f = f
	s.vals = map[string]ir.Value{}

	err = s.expect('(')
	if err != nil {
		return nil, err
	}

	for {
		s.skipSpace()
		if s.skip(')') {
			break
		}

		if len(f.In) != 0 {
			err = s.expect(',')
			if err != nil {
				return nil, err
			}
		}

		tp, err := s.parseType()
		if err != nil {
			return nil, errors.Wrap(err, "param type")
		}

		pname, err := s.valueName()
		if err != nil {
			return nil, errors.Wrap(err, "param name")
		}

		if _, ok := s.vals[pname]; ok {
			return nil, errors.New("name redefined: %v", pname)
		}

		par := ir.NewParam(tp, pname)

		f.In = append(f.In, par)
		s.vals[pname] = par
	}

	err = s.expect('{')
	if err != nil {
		return nil, err
	}

	s.blk = f.NewBlock("entry")

	for {
		s.skipLines()

		if s.i == len(s.b) {
			return nil, errors.New("unexpected end of input")
		}
		if s.skip('}') {
			break
		}

		err = s.parseLine(ctx)
		if err != nil {
			return nil, err
		}
	}

	return f, nil
}

func (s *state) parseLine(ctx context.Context) (err error) {
	if s.skip('%') {
		return s.parseDef(ctx)
	}

	kw := s.ident()

	switch kw {
	case "store":
		return s.parseStore(ctx)
	case "ret":
		return s.parseRet(ctx)
	case "":
		return errors.New("instruction expected")
	}

	if s.skip(':') {
		s.blk = s.f.NewBlock(kw)
		return nil
	}

	return errors.New("unexpected instruction: %v", kw)
}

func (s *state) parseDef(ctx context.Context) (err error) {
	name := s.ident()
	if name == "" {
		return errors.New("value name expected")
	}
	if _, ok := s.vals[name]; ok {
		return errors.New("name redefined: %v", name)
	}

	err = s.expect('=')
	if err != nil {
		return err
	}

	s.skipSpace()
	op := s.ident()

	switch op {
	case "alloca":
		tp, err := s.parseType()
		if err != nil {
			return errors.Wrap(err, "alloca type")
		}

		x := ir.NewInstr(ir.Alloca, ir.Ptr, name)
		x.Elem = tp

		s.define(name, x)

		return nil
	case "load":
		tp, err := s.parseType()
		if err != nil {
			return errors.Wrap(err, "load type")
		}

		ptr, err := s.operand(ir.Ptr)
		if err != nil {
			return errors.Wrap(err, "load address")
		}

		s.define(name, ir.NewInstr(ir.Load, tp, name, ptr))

		return nil
	}

	o, ok := binop[op]
	if !ok {
		return errors.New("unsupported op: %v", op)
	}

	tp, err := s.parseType()
	if err != nil {
		return errors.Wrap(err, "%v type", op)
	}
	if tp <= 0 {
		return errors.New("%v: integer type expected, got %v", op, tp)
	}

	l, err := s.operand(tp)
	if err != nil {
		return errors.Wrap(err, "%v left operand", op)
	}

	err = s.expect(',')
	if err != nil {
		return err
	}

	r, err := s.operand(tp)
	if err != nil {
		return errors.Wrap(err, "%v right operand", op)
	}

	s.define(name, ir.NewInstr(o, tp, name, l, r))

	return nil
}

func (s *state) parseStore(ctx context.Context) (err error) {
	tp, err := s.parseType()
	if err != nil {
		return errors.Wrap(err, "store type")
	}

	val, err := s.operand(tp)
	if err != nil {
		return errors.Wrap(err, "store value")
	}

	err = s.expect(',')
	if err != nil {
		return err
	}

	ptr, err := s.operand(ir.Ptr)
	if err != nil {
		return errors.Wrap(err, "store address")
	}

	s.blk.Append(ir.NewInstr(ir.Store, ir.Void, "", val, ptr))

	return nil
}

func (s *state) parseRet(ctx context.Context) (err error) {
	s.skipSpace()

	if s.i == len(s.b) || s.b[s.i] == '\n' || s.b[s.i] == '}' {
		s.blk.Append(ir.NewInstr(ir.Ret, ir.Void, ""))
		return nil
	}

	tp, err := s.parseType()
	if err != nil {
		return errors.Wrap(err, "ret type")
	}

	v, err := s.operand(tp)
	if err != nil {
		return errors.Wrap(err, "ret value")
	}

	s.blk.Append(ir.NewInstr(ir.Ret, ir.Void, "", v))

	return nil
}

func (s *state) define(name string, x *ir.Instr) {
	s.vals[name] = x
	s.blk.Append(x)
}

func (s *state) operand(tp ir.Type) (ir.Value, error) {
	s.skipSpace()

	if s.skip('%') {
		name := s.ident()
		if name == "" {
			return nil, errors.New("value name expected")
		}

		v, ok := s.vals[name]
		if !ok {
			return nil, errors.New("unknown value: %v", name)
		}
		if v.Type() != tp {
			return nil, errors.New("%%%v: %v expected, got %v", name, tp, v.Type())
		}

		return v, nil
	}

	st := s.i

	if s.i < len(s.b) && s.b[s.i] == '-' {
		s.i++
	}
	for s.i < len(s.b) && s.b[s.i] >= '0' && s.b[s.i] <= '9' {
		s.i++
	}

	if s.i == st {
		return nil, errors.New("operand expected")
	}

	val, err := strconv.ParseInt(string(s.b[st:s.i]), 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "literal")
	}

	return ir.NewConst(tp, val), nil
}

func (s *state) parseType() (ir.Type, error) {
	s.skipSpace()

	t := s.ident()

	switch t {
	case "i8":
		return ir.I8, nil
	case "i16":
		return ir.I16, nil
	case "i32":
		return ir.I32, nil
	case "i64":
		return ir.I64, nil
	case "ptr":
		return ir.Ptr, nil
	}

	return ir.Void, errors.New("unsupported type: %v", t)
}

func (s *state) valueName() (string, error) {
	s.skipSpace()

	if !s.skip('%') {
		return "", errors.New("%% expected")
	}

	name := s.ident()
	if name == "" {
		return "", errors.New("value name expected")
	}

	return name, nil
}

func (s *state) ident() string {
	st := s.i

	for s.i < len(s.b) {
		c := s.b[s.i]

		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' || c == '.' ||
			s.i != st && c >= '0' && c <= '9' {
			s.i++
			continue
		}

		break
	}

	return string(s.b[st:s.i])
}

func (s *state) expect(c byte) error {
	s.skipSpace()

	if !s.skip(c) {
		return errors.New("%q expected", c)
	}

	return nil
}

func (s *state) skip(c byte) bool {
	if s.i < len(s.b) && s.b[s.i] == c {
		s.i++
		return true
	}

	return false
}

func (s *state) skipSpace() {
	for s.i < len(s.b) && (s.b[s.i] == ' ' || s.b[s.i] == '\t') {
		s.i++
	}
}

func (s *state) skipLines() {
	for s.i < len(s.b) {
		switch s.b[s.i] {
		case ' ', '\t', '\n', '\r':
			s.i++
		case '/':
			if s.i+1 == len(s.b) || s.b[s.i+1] != '/' {
				return
			}

			for s.i < len(s.b) && s.b[s.i] != '\n' {
				s.i++
			}
		default:
			return
		}
	}
}

func (s *state) wrap(err error) error {
	return errors.Wrap(err, "%v: at pos %d", s.name, s.i)
}
