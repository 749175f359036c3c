package maincmd

import (
	"bufio"
	"context"
	"fmt"

	"github.com/mna/mainer"
)

const prompt = "meon > "

// REPL reads one line of source at a time from stdio.Stdin, compiles and
// runs it as a standalone chunk, and repeats until EOF. It matches
// buildCmds' reflected signature so Validate can resolve it by name; args
// is always empty (Validate rejects any for this mode).
func (c *Cmd) REPL(ctx context.Context, stdio mainer.Stdio, args []string) error {
	scanner := bufio.NewScanner(stdio.Stdin)
	for {
		fmt.Fprint(stdio.Stdout, prompt)
		if !scanner.Scan() {
			fmt.Fprintln(stdio.Stdout)
			return scanner.Err()
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		// runSource prints its own diagnostics; the REPL just keeps reading
		// lines regardless of whether the last one compiled or ran cleanly.
		_ = c.runSource(ctx, stdio, line, c.debugLevel())
	}
}
