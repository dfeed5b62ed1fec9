package opt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/peep/compiler/interp"
	"github.com/slowlang/peep/compiler/ir"
	"github.com/slowlang/peep/compiler/parse"
)

func parseFunc(t *testing.T, src string) *ir.Func {
	t.Helper()

	p, err := parse.Parse(context.Background(), "test.ir", []byte(src))
	require.NoError(t, err)
	require.NotEmpty(t, p.Funcs)

	return p.Funcs[0]
}

func optFunc(t *testing.T, src string, passes ...string) (*ir.Func, bool) {
	t.Helper()

	f := parseFunc(t, src)

	changed, err := Run(context.Background(), f, passes...)
	require.NoError(t, err)

	t.Logf("func after %v:\n%s", passes, f)

	return f, changed
}

// checkEquiv verifies the passes preserve the function result on every
// argument tuple given.
func checkEquiv(t *testing.T, src string, passes []string, args ...[]int64) {
	t.Helper()

	ctx := context.Background()

	orig := parseFunc(t, src)
	f, _ := optFunc(t, src, passes...)

	for _, a := range args {
		exp, err := interp.Eval(ctx, orig, a...)
		require.NoError(t, err)

		got, err := interp.Eval(ctx, f, a...)
		require.NoError(t, err)

		assert.Equal(t, exp, got, "args %v", a)
	}
}

// checkIdempotent verifies that a second run has nothing left to do.
func checkIdempotent(t *testing.T, f *ir.Func, passes ...string) {
	t.Helper()

	before := f.String()

	changed, err := Run(context.Background(), f, passes...)
	require.NoError(t, err)

	assert.False(t, changed)
	assert.Equal(t, before, f.String())
}

func TestRegistry(t *testing.T) {
	names := Names()

	assert.ElementsMatch(t, []string{"algebraic-identity", "strength-reduction", "multi-instruction"}, names)

	for _, name := range names {
		p, ok := Lookup(name)
		require.True(t, ok)
		require.NotNil(t, p.Run)

		t.Logf("pass %v registered at %v", p.Name, p.From())
	}

	_, ok := Lookup("no-such-pass")
	assert.False(t, ok)
}

func TestRunUnknownPass(t *testing.T) {
	f := parseFunc(t, "func f(i32 %x) {\n\tret i32 %x\n}\n")

	_, err := Run(context.Background(), f, "no-such-pass")
	assert.Error(t, err)
}

func TestEndToEnd(t *testing.T) {
	src := `func main(i32 %x, ptr %p) {
	%t1 = add i32 %x, 0
	%t2 = mul i32 %t1, 15
	store i32 %t2, %p
}
`

	f, changed := optFunc(t, src, "algebraic-identity", "strength-reduction")

	assert.True(t, changed)

	exp := `func main(i32 %x, ptr %p) {
	%shift.1 = shl i32 %x, 4
	%sub.2 = sub i32 %shift.1, %x
	store i32 %sub.2, %p
}
`

	assert.Equal(t, exp, f.String())

	checkIdempotent(t, f, "algebraic-identity", "strength-reduction")
}

func TestChangedSignal(t *testing.T) {
	src := `func f(i32 %x) {
	%a = sub i32 %x, 7
	ret i32 %a
}
`

	f, changed := optFunc(t, src, Names()...)

	assert.False(t, changed, "nothing to rewrite")
	assert.Equal(t, src, f.String())
}
