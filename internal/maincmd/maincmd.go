// Package maincmd implements the meon command-line tool: a REPL when
// invoked with no file, or a one-shot compile-and-run of a source file,
// optionally disassembling and tracing it as it runs.
package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mna/mainer"
)

const binName = "meon"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [-r <file> [-d|-dd]]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s
       %[1]s -r <file> [-d|-dd]
       %[1]s -h|--help
       %[1]s -v|--version

Interpreter for the meon scripting language.

With no arguments and no -r, starts a REPL: each line entered is
compiled and run as a standalone chunk; only output statements print
anything.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       -r --run <file>           Compile and run a source file.

Valid flag options for -r are:
       -d --debug                Print the disassembled chunk before
                                  running it.
       -dd --trace               Also trace every executed instruction
                                  and the stack it leaves behind.
`, binName)
)

// exit codes follow sysexits.h loosely, distinguishing "the script failed
// to compile" (65) from "the script failed at run time" (70) from "the file
// couldn't be read" (74); mainer.ExitCode is just an int under the hood, same as
// mainer.Success/Failure/InvalidArgs.
const (
	exitDataErr  mainer.ExitCode = 65
	exitSoftware mainer.ExitCode = 70
	exitIOErr    mainer.ExitCode = 74
)

type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	RunFlag bool `flag:"r,run"`
	Debug   bool `flag:"d,debug"`
	Trace   bool `flag:"dd,trace"`

	args  []string
	flags map[string]bool
	cmdFn func(context.Context, mainer.Stdio, []string) error
}

func (c *Cmd) SetArgs(args []string) {
	c.args = args
}

func (c *Cmd) SetFlags(flags map[string]bool) {
	c.flags = flags
}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}

	if c.Debug && c.Trace {
		return errors.New("-d and -dd are mutually exclusive")
	}
	if (c.Debug || c.Trace) && !c.RunFlag {
		return errors.New("-d and -dd only apply to -r")
	}

	commands := buildCmds(c)
	if c.RunFlag {
		if len(c.args) != 1 {
			return errors.New("-r requires exactly one file argument")
		}
		c.cmdFn = commands["run"]
	} else {
		if len(c.args) != 0 {
			return fmt.Errorf("unexpected argument: %s", c.args[0])
		}
		c.cmdFn = commands["repl"]
	}
	if c.cmdFn == nil {
		return errors.New("internal error: no command resolved")
	}
	return nil
}

// debugLevel returns 0, 1 or 2: 0 runs silently, 1 disassembles the chunk
// before running it, 2 additionally traces every executed instruction.
func (c *Cmd) debugLevel() int {
	switch {
	case c.Trace:
		return 2
	case c.Debug:
		return 1
	default:
		return 0
	}
}

func printError(stdio mainer.Stdio, err error) error {
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
	}
	return err
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success

	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	if err := c.cmdFn(ctx, stdio, c.args); err != nil {
		var ce *exitError
		if errors.As(err, &ce) {
			return ce.code
		}
		return mainer.Failure
	}
	return mainer.Success
}

// exitError lets Run report one of meon's sysexits-flavored exit codes
// without every caller threading mainer.ExitCode through unrelated
// signatures; Main unwraps it, everything else just sees an error.
type exitError struct {
	code mainer.ExitCode
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// valid commands are those that take a mainer.Stdio and a slice of strings
// as input, and return an error as output: meon only ever resolves to "run"
// or "repl", but the dispatch stays reflection-based so adding a third mode
// later is a one-method change, not a rewrite of Main.
func buildCmds(v interface{}) map[string]func(context.Context, mainer.Stdio, []string) error {
	cmds := make(map[string]func(context.Context, mainer.Stdio, []string) error)

	vv := reflect.ValueOf(v)
	vt := vv.Type()
	for i := 0; i < vt.NumMethod(); i++ {
		m := vt.Method(i)
		mt := m.Type

		if mt.NumIn() != 4 || mt.NumOut() != 1 {
			continue
		}
		if rt := mt.Out(0); rt.Kind() != reflect.Interface || rt.Name() != "error" {
			continue
		}
		if p0 := mt.In(0); p0.Kind() != reflect.Ptr || p0.Elem().Name() != "Cmd" {
			continue
		}
		if p1 := mt.In(1); p1.Kind() != reflect.Interface || p1.Name() != "Context" {
			continue
		}
		if p2 := mt.In(2); p2.Kind() != reflect.Struct || p2.Name() != "Stdio" {
			continue
		}
		if p3 := mt.In(3); p3.Kind() != reflect.Slice || p3.Elem().Name() != "string" {
			continue
		}
		cmds[strings.ToLower(m.Name)] = vv.Method(i).Interface().(func(context.Context, mainer.Stdio, []string) error)
	}
	return cmds
}
