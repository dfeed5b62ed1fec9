package ir

import (
	"fmt"

	"tlog.app/go/tlog/tlwire"
)

type (
	Op int

	// Type is a value type. Positive values are integer bit widths.
	Type int

	// Value is anything usable as an instruction operand: a constant
	// literal, a function parameter or another instruction's result.
	// Values compare by identity, constants by numeric value.
	Value interface {
		Type() Type

		Uses() []*Instr
		addUse(x *Instr)
		delUse(x *Instr)
	}

	Const struct {
		uses

		Typ Type
		Val int64
	}

	Param struct {
		uses

		Typ  Type
		Name string
	}

	Instr struct {
		uses

		Op   Op
		Typ  Type
		Name string

		// Elem is the allocated cell type. Alloca only.
		Elem Type

		args []Value

		blk        *Block
		prev, next *Instr
	}

	Block struct {
		Name string

		fn          *Func
		first, last *Instr
	}

	Func struct {
		Name string

		In     []*Param
		Blocks []*Block

		gen int
	}

	Package struct {
		Path string

		Funcs []*Func
	}

	uses struct {
		list []*Instr
	}
)

const (
	None Op = iota

	Add
	Sub
	Mul
	SDiv
	UDiv
	Shl
	AShr
	LShr

	Load
	Store
	Alloca
	Ret
)

const (
	Void Type = 0
	Ptr  Type = -1

	I8  Type = 8
	I16 Type = 16
	I32 Type = 32
	I64 Type = 64
)

func NewConst(tp Type, val int64) *Const {
	return &Const{Typ: tp, Val: val}
}

func NewParam(tp Type, name string) *Param {
	return &Param{Typ: tp, Name: name}
}

func NewInstr(op Op, tp Type, name string, args ...Value) *Instr {
	x := &Instr{
		Op:   op,
		Typ:  tp,
		Name: name,
		args: args,
	}

	for _, a := range x.args {
		a.addUse(x)
	}

	return x
}

// ConstValue unwraps a constant operand.
func ConstValue(v Value) (int64, bool) {
	c, ok := v.(*Const)
	if !ok {
		return 0, false
	}

	return c.Val, true
}

func (c *Const) Type() Type { return c.Typ }
func (p *Param) Type() Type { return p.Typ }
func (x *Instr) Type() Type { return x.Typ }

func (u *uses) Uses() []*Instr { return u.list }

func (u *uses) addUse(x *Instr) {
	u.list = append(u.list, x)
}

func (u *uses) delUse(x *Instr) {
	for i, y := range u.list {
		if y == x {
			u.list = append(u.list[:i], u.list[i+1:]...)
			return
		}
	}

	panic("use not found")
}

func (x *Instr) NArgs() int { return len(x.args) }
func (x *Instr) Arg(i int) Value { return x.args[i] }

// SetArg replaces the i-th operand keeping use lists consistent.
func (x *Instr) SetArg(i int, v Value) {
	old := x.args[i]
	if old == v {
		return
	}

	x.args[i] = v

	old.delUse(x)
	v.addUse(x)
}

// ReplaceAllUsesWith redirects every use of the x result to v.
// x itself stays in place with its operands intact.
func (x *Instr) ReplaceAllUsesWith(v Value) {
	if Value(x) == v {
		return
	}

	users := append([]*Instr{}, x.list...)

	for _, u := range users {
		for i, a := range u.args {
			if a == Value(x) {
				u.SetArg(i, v)
			}
		}
	}
}

// Erase detaches x from its block and releases its operands.
// Erasing a value that is still used corrupts the function,
// so remaining uses are a fatal condition.
func (x *Instr) Erase() {
	if len(x.list) != 0 {
		panic(fmt.Sprintf("erase %v: %d uses left", x.Name, len(x.list)))
	}

	for i, a := range x.args {
		a.delUse(x)
		x.args[i] = nil
	}

	if x.blk != nil {
		x.blk.remove(x)
	}
}

func (x *Instr) Block() *Block { return x.blk }
func (x *Instr) Prev() *Instr { return x.prev }
func (x *Instr) Next() *Instr { return x.next }

func (f *Func) NewBlock(name string) *Block {
	b := &Block{
		Name: name,
		fn:   f,
	}

	f.Blocks = append(f.Blocks, b)

	return b
}

// NewName derives a fresh value name from a base.
func (f *Func) NewName(base string) string {
	f.gen++

	return fmt.Sprintf("%v.%v", base, f.gen)
}

func (b *Block) Func() *Func { return b.fn }
func (b *Block) First() *Instr { return b.first }
func (b *Block) Last() *Instr { return b.last }

func (b *Block) Append(x *Instr) {
	if x.blk != nil {
		panic("instruction is in a block already")
	}

	x.blk = b
	x.prev = b.last

	if b.last != nil {
		b.last.next = x
	} else {
		b.first = x
	}

	b.last = x
}

// InsertBefore links x immediately before pos.
// New instructions go strictly before the instruction they replace
// so that every operand is defined by the time it is read.
func (b *Block) InsertBefore(x, pos *Instr) {
	if x.blk != nil {
		panic("instruction is in a block already")
	}
	if pos.blk != b {
		panic("position is from another block")
	}

	x.blk = b
	x.prev = pos.prev
	x.next = pos

	if pos.prev != nil {
		pos.prev.next = x
	} else {
		b.first = x
	}

	pos.prev = x
}

func (b *Block) remove(x *Instr) {
	if x.blk != b {
		panic("instruction is from another block")
	}

	if x.prev != nil {
		x.prev.next = x.next
	} else {
		b.first = x.next
	}

	if x.next != nil {
		x.next.prev = x.prev
	} else {
		b.last = x.prev
	}

	x.blk = nil
	x.prev = nil
	x.next = nil
}

func (o Op) String() string {
	switch o {
	case None:
		return "none"
	case Add:
		return "add"
	case Sub:
		return "sub"
	case Mul:
		return "mul"
	case SDiv:
		return "sdiv"
	case UDiv:
		return "udiv"
	case Shl:
		return "shl"
	case AShr:
		return "ashr"
	case LShr:
		return "lshr"
	case Load:
		return "load"
	case Store:
		return "store"
	case Alloca:
		return "alloca"
	case Ret:
		return "ret"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

func (o Op) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	return e.AppendString(b, o.String())
}

func (tp Type) String() string {
	switch {
	case tp == Void:
		return "void"
	case tp == Ptr:
		return "ptr"
	case tp > 0:
		return fmt.Sprintf("i%d", int(tp))
	default:
		return fmt.Sprintf("type(%d)", int(tp))
	}
}
