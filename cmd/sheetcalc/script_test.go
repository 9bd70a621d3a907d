package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vogtb/go-sheetgraph/packages/config"
	"github.com/vogtb/go-sheetgraph/packages/spreadsheet"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    *command
		wantErr string
	}{
		{name: "blank", line: "   ", want: nil},
		{name: "comment", line: "  # note", want: nil},
		{name: "set text", line: "set A1 hello world", want: &command{name: "set", address: "A1", text: "hello world"}},
		{name: "set keeps inner spacing", line: "set B2  two", want: &command{name: "set", address: "B2", text: " two"}},
		{name: "set formula", line: "SET C3 =A1+B2\r", want: &command{name: "set", address: "C3", text: "=A1+B2"}},
		{name: "set empty", line: "set A1", want: &command{name: "set", address: "A1"}},
		{name: "clear", line: "clear A1", want: &command{name: "clear", address: "A1"}},
		{name: "get", line: "get  Z9 ", want: &command{name: "get", address: "Z9"}},
		{name: "print default", line: "print", want: &command{name: "print"}},
		{name: "print texts", line: "print TEXTS", want: &command{name: "print", mode: config.PrintTexts}},
		{name: "size", line: "size", want: &command{name: "size"}},
		{name: "set without address", line: "set", wantErr: "missing cell address"},
		{name: "get two cells", line: "get A1 A2", wantErr: "exactly one"},
		{name: "bad print mode", line: "print formulas", wantErr: "unknown mode"},
		{name: "size with args", line: "size A1", wantErr: "no arguments"},
		{name: "unknown", line: "frobnicate A1", wantErr: "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCommand(tt.line)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newTestInterpreter(cfg config.Config) (*Interpreter, *bytes.Buffer, *bytes.Buffer) {
	var out, errs bytes.Buffer
	return NewInterpreter(cfg, &out, &errs), &out, &errs
}

var plainValues = config.Config{Output: config.OutputPlain, Print: config.PrintValues}

func TestInterpreterRun(t *testing.T) {
	script := strings.Join([]string{
		"# totals",
		"set A1 10",
		"set A2 =A1*2",
		"set A3 '=A1",
		"get A2",
		"text A3",
		"refs A2",
		"deps A1",
		"set B1 =A2/0",
		"get B1",
		"get C7",
		"print",
		"size",
	}, "\n")

	interp, out, errs := newTestInterpreter(plainValues)
	require.NoError(t, interp.Run(strings.NewReader(script)))
	assert.Empty(t, errs.String())

	assert.Equal(t, strings.Join([]string{
		"A2: 20",
		"A3: '=A1",
		"A2: A1",
		"A1: A2",
		"B1: #ARITHM!",
		"C7: ",
		"10\t#ARITHM!",
		"20\t",
		"=A1\t",
		"size 3x2 printable 3x2 cells 4 formulas 2",
		"",
	}, "\n"), out.String())
}

func TestInterpreterRecalculates(t *testing.T) {
	interp, out, _ := newTestInterpreter(plainValues)
	script := "set A1 1\nset B1 =A1+1\nget B1\nset A1 41\nget B1\nclear A1\nget B1\n"
	require.NoError(t, interp.Run(strings.NewReader(script)))
	assert.Equal(t, "B1: 2\nB1: 42\nB1: 1\n", out.String())
}

func TestInterpreterContinuesAfterErrors(t *testing.T) {
	interp, out, errs := newTestInterpreter(plainValues)
	script := "set A1 =B1\nset B1 =A1\nbogus\nset C1 =1+\nset D1 5\nget D1\n"

	err := interp.Run(strings.NewReader(script))
	assert.ErrorIs(t, err, errScriptFailed)
	assert.ErrorContains(t, err, "3 of 6 lines failed")

	assert.Contains(t, errs.String(), "line 2:")
	assert.Contains(t, errs.String(), "line 3:")
	assert.Contains(t, errs.String(), "line 4:")
	assert.Equal(t, "D1: 5\n", out.String())
}

func TestInterpreterStopOnError(t *testing.T) {
	cfg := plainValues
	cfg.StopOnError = true
	interp, out, _ := newTestInterpreter(cfg)

	err := interp.Run(strings.NewReader("set A1 1\nget a1\nget A1\n"))
	assert.ErrorIs(t, err, errScriptFailed)
	assert.ErrorIs(t, err, spreadsheet.ErrInvalidPosition)
	assert.ErrorContains(t, err, "line 2")
	assert.Empty(t, out.String())
}

func TestInterpreterPrintTable(t *testing.T) {
	cfg := config.Config{Output: config.OutputTable, Print: config.PrintTexts}
	interp, out, _ := newTestInterpreter(cfg)

	require.NoError(t, interp.Run(strings.NewReader("print\nset A1 7\nset B2 =A1*3\nprint\nprint values\n")))

	rendered := out.String()
	assert.True(t, strings.HasPrefix(rendered, "(empty)\n"))
	assert.Contains(t, rendered, "=A1*3")
	assert.Contains(t, rendered, "21")
	assert.Contains(t, rendered, " A ")
	assert.Contains(t, rendered, " B ")
}

func TestInterpreterErrorsDoNotCarryOver(t *testing.T) {
	interp, out, _ := newTestInterpreter(plainValues)

	assert.ErrorIs(t, interp.Exec("set A1 =A1"), spreadsheet.ErrCircularDependency)
	require.NoError(t, interp.Exec("set A000001 =2*3"))
	require.NoError(t, interp.Exec("get A1"))
	require.NoError(t, interp.Exec("text A01"))
	assert.Equal(t, "A1: 6\nA01: =2*3\n", out.String())
}
