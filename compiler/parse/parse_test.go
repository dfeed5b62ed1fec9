package parse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/peep/compiler/ir"
)

func TestParse(t *testing.T) {
	src := `// small example
func main(i32 %x, ptr %p) {
	%t1 = add i32 %x, 0
	%t2 = mul i32 %t1, 15
	store i32 %t2, %p
	ret i32 %t2
}
`

	ctx := context.Background()

	p, err := Parse(ctx, "test.ir", []byte(src))
	require.NoError(t, err)
	require.Len(t, p.Funcs, 1)

	f := p.Funcs[0]

	require.Equal(t, "main", f.Name)
	require.Len(t, f.In, 2)
	require.Equal(t, ir.I32, f.In[0].Typ)
	require.Equal(t, ir.Ptr, f.In[1].Typ)
	require.Len(t, f.Blocks, 1)

	b := f.Blocks[0]

	add := b.First()
	require.Equal(t, ir.Add, add.Op)
	require.Equal(t, ir.Value(f.In[0]), add.Arg(0))

	c, ok := ir.ConstValue(add.Arg(1))
	require.True(t, ok)
	require.Equal(t, int64(0), c)

	mul := add.Next()
	require.Equal(t, ir.Mul, mul.Op)
	require.Equal(t, ir.Value(add), mul.Arg(0))

	store := mul.Next()
	require.Equal(t, ir.Store, store.Op)
	require.Equal(t, ir.Value(mul), store.Arg(0))
	require.Equal(t, ir.Value(f.In[1]), store.Arg(1))

	ret := store.Next()
	require.Equal(t, ir.Ret, ret.Op)
	require.Nil(t, ret.Next())
}

func TestParseRoundTrip(t *testing.T) {
	src := `func f(i64 %x) {
	%p = alloca i64
	%a = add i64 %x, 1
	store i64 %a, %p
	%l = load i64 %p
	%c = sub i64 %l, 1
	%d = sdiv i64 %c, 8
	%u = udiv i64 %c, 8
	%s = shl i64 %d, 2
	%r = ashr i64 %s, 1
	%q = lshr i64 %r, 3
	ret i64 %q
}
`

	ctx := context.Background()

	p, err := Parse(ctx, "test.ir", []byte(src))
	require.NoError(t, err)

	require.Equal(t, src, string(ir.AppendPackage(nil, p)))
}

func TestParseBlocks(t *testing.T) {
	src := `func f(i32 %x) {
	%a = add i32 %x, 1
next:
	%b = sub i32 %a, 1
	ret i32 %b
}

func g() {
	ret
}
`

	ctx := context.Background()

	p, err := Parse(ctx, "test.ir", []byte(src))
	require.NoError(t, err)
	require.Len(t, p.Funcs, 2)

	f := p.Funcs[0]
	require.Len(t, f.Blocks, 2)
	require.Equal(t, "entry", f.Blocks[0].Name)
	require.Equal(t, "next", f.Blocks[1].Name)
	require.Equal(t, ir.Sub, f.Blocks[1].First().Op)

	g := p.Funcs[1]
	require.Len(t, g.In, 0)
	require.Equal(t, ir.Ret, g.Blocks[0].First().Op)
	require.Equal(t, 0, g.Blocks[0].First().NArgs())

	require.Equal(t, src, string(ir.AppendPackage(nil, p)))
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		src  string
	}{
		{"no func", "ret\n"},
		{"unknown value", "func f() {\n\t%a = add i32 %x, 1\n}\n"},
		{"unknown op", "func f() {\n\t%a = bad i32 1, 1\n}\n"},
		{"unknown type", "func f() {\n\t%a = add i7 1, 1\n}\n"},
		{"redefined", "func f(i32 %x) {\n\t%x = add i32 1, 1\n}\n"},
		{"no close", "func f() {\n\tret\n"},
		{"bad store", "func f(ptr %p) {\n\tstore i32 %p, %p\n}\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(context.Background(), "test.ir", []byte(tc.src))
			assert.Error(t, err)

			t.Logf("error: %v", err)
		})
	}
}
