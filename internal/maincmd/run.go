package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/caarlos0/env/v6"
	"github.com/mna/mainer"

	"github.com/mna/meon/lang/compiler"
	"github.com/mna/meon/lang/disasm"
	"github.com/mna/meon/lang/gc"
	"github.com/mna/meon/lang/native"
	"github.com/mna/meon/lang/table"
	"github.com/mna/meon/lang/vm"
)

// Run compiles and executes the single file named in args, honoring the
// command's -d/-dd debug level. It matches buildCmds' reflected signature
// so Validate can resolve it by name.
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		return &exitError{code: exitIOErr, err: fmt.Errorf("%s: %w", args[0], err)}
	}
	return c.runSource(ctx, stdio, string(src), c.debugLevel())
}

// runSource compiles and runs one chunk of source, wiring a GC, the
// standard library and (at debug levels 1 and 2) lang/disasm's listing and
// trace hooks, the same pipeline the REPL drives one line at a time.
func (c *Cmd) runSource(ctx context.Context, stdio mainer.Stdio, src string, level int) error {
	var gcCfg gc.Config
	if err := env.Parse(&gcCfg); err != nil {
		return &exitError{code: exitSoftware, err: fmt.Errorf("parsing gc config: %w", err)}
	}

	globals := table.NewGlobals()
	coll := gc.New(globals, gcCfg)

	fn, err := compiler.Compile(src, coll)
	if err != nil {
		printError(stdio, err)
		return &exitError{code: exitDataErr, err: err}
	}

	if level >= 1 {
		fmt.Fprint(stdio.Stdout, disasm.Function(fn))
	}

	m := vm.New(coll, globals, stdio.Stdout)
	coll.SetVMRoots(m)
	native.Register(m)
	if level >= 2 {
		m.OnStep = func(v *vm.VM) {
			fmt.Fprintln(stdio.Stdout, disasm.Trace(v))
		}
	}

	if err := m.Interpret(ctx, fn); err != nil {
		printError(stdio, err)
		return &exitError{code: exitSoftware, err: err}
	}
	return nil
}
