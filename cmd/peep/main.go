package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/peep/compiler"
	"github.com/slowlang/peep/compiler/interp"
	"github.com/slowlang/peep/compiler/opt"
	"github.com/slowlang/peep/compiler/parse"
)

func main() {
	parseCmd := &cli.Command{
		Name:        "parse",
		Description: "parse ir files and print them back",
		Action:      parseAct,
		Args:        cli.Args{},
	}

	optCmd := &cli.Command{
		Name:        "opt",
		Description: "optimize an ir file: opt file [pass ...]",
		Action:      optAct,
		Args:        cli.Args{},
	}

	passesCmd := &cli.Command{
		Name:        "passes",
		Description: "list registered passes",
		Action:      passesAct,
	}

	evalCmd := &cli.Command{
		Name:        "eval",
		Description: "evaluate the first function of an ir file: eval file [arg ...]",
		Action:      evalAct,
		Args:        cli.Args{},
	}

	app := &cli.Command{
		Name:        "peep",
		Description: "peep is a peephole optimizer for a small integer ir",
		Commands: []*cli.Command{
			parseCmd,
			optCmd,
			passesCmd,
			evalCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func parseAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		p, err := parse.ParseFile(ctx, a)
		if err != nil {
			return errors.Wrap(err, "parse %v", a)
		}

		for _, f := range p.Funcs {
			fmt.Printf("%s", f)
		}
	}

	return nil
}

func optAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	if len(c.Args) == 0 {
		return errors.New("ir file expected")
	}

	passes := []string(c.Args[1:])
	if len(passes) == 0 {
		passes = opt.Names()
	}

	obj, err := compiler.OptimizeFile(ctx, c.Args[0], passes)
	if err != nil {
		return errors.Wrap(err, "optimize %v", c.Args[0])
	}

	fmt.Printf("%s", obj)

	return nil
}

func passesAct(c *cli.Command) (err error) {
	for _, name := range opt.Names() {
		p, _ := opt.Lookup(name)

		fmt.Printf("%-24v %v\n", p.Name, p.From())
	}

	return nil
}

func evalAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	if len(c.Args) == 0 {
		return errors.New("ir file expected")
	}

	p, err := parse.ParseFile(ctx, c.Args[0])
	if err != nil {
		return errors.Wrap(err, "parse %v", c.Args[0])
	}

	if len(p.Funcs) == 0 {
		return errors.New("no functions in %v", c.Args[0])
	}

	args := make([]int64, len(c.Args)-1)

	for i, a := range c.Args[1:] {
		args[i], err = strconv.ParseInt(a, 10, 64)
		if err != nil {
			return errors.Wrap(err, "arg %v", a)
		}
	}

	f := p.Funcs[0]

	res, err := interp.Eval(ctx, f, args...)
	if err != nil {
		return errors.Wrap(err, "eval %v", f.Name)
	}

	fmt.Printf("%v\n", res)

	return nil
}
