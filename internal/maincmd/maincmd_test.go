package maincmd_test

import (
	"testing"

	"github.com/mna/meon/internal/maincmd"
	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cmd     maincmd.Cmd
		args    []string
		wantErr bool
	}{
		{name: "help alone is always valid", cmd: maincmd.Cmd{Help: true}, args: []string{"ignored"}},
		{name: "version alone is always valid", cmd: maincmd.Cmd{Version: true}},
		{name: "repl with no args is valid"},
		{name: "repl rejects stray args", args: []string{"foo"}, wantErr: true},
		{name: "run requires exactly one file", cmd: maincmd.Cmd{RunFlag: true}, wantErr: true},
		{name: "run with one file is valid", cmd: maincmd.Cmd{RunFlag: true}, args: []string{"a.meon"}},
		{name: "run with two files is invalid", cmd: maincmd.Cmd{RunFlag: true}, args: []string{"a.meon", "b.meon"}, wantErr: true},
		{name: "debug without run is invalid", cmd: maincmd.Cmd{Debug: true}, wantErr: true},
		{name: "trace without run is invalid", cmd: maincmd.Cmd{Trace: true}, wantErr: true},
		{name: "debug and trace are mutually exclusive", cmd: maincmd.Cmd{RunFlag: true, Debug: true, Trace: true}, args: []string{"a.meon"}, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := tc.cmd
			c.SetArgs(tc.args)
			err := c.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
