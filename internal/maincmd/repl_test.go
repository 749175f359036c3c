package maincmd_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/assert"

	"github.com/mna/meon/internal/maincmd"
)

func TestREPLEchoesEachLineResultAndExitsOnEOF(t *testing.T) {
	in := strings.NewReader("output 1 + 1;\noutput \"hi\";\n")
	var out, errs bytes.Buffer

	c := maincmd.Cmd{}
	err := c.REPL(context.Background(), mainer.Stdio{Stdin: in, Stdout: &out, Stderr: &errs}, nil)
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "2")
	assert.Contains(t, out.String(), "hi")
	assert.Contains(t, out.String(), "meon > ")
}

func TestREPLKeepsReadingAfterACompileError(t *testing.T) {
	in := strings.NewReader("let = ;\noutput 42;\n")
	var out, errs bytes.Buffer

	c := maincmd.Cmd{}
	err := c.REPL(context.Background(), mainer.Stdio{Stdin: in, Stdout: &out, Stderr: &errs}, nil)
	assert.NoError(t, err)
	assert.NotEmpty(t, errs.String())
	assert.Contains(t, out.String(), "42")
}

func TestREPLSkipsBlankLines(t *testing.T) {
	in := strings.NewReader("\n\noutput 1;\n")
	var out, errs bytes.Buffer

	c := maincmd.Cmd{}
	require := assert.New(t)
	err := c.REPL(context.Background(), mainer.Stdio{Stdin: in, Stdout: &out, Stderr: &errs}, nil)
	require.NoError(err)
	require.Contains(out.String(), "1")
}
