package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vogtb/go-sheetgraph/packages/cellref"
	"github.com/vogtb/go-sheetgraph/packages/config"
	"github.com/vogtb/go-sheetgraph/packages/spreadsheet"
)

// errScriptFailed is returned by Run when at least one command failed
var errScriptFailed = errors.New("script failed")

// command is one parsed script line
type command struct {
	name    string
	address string
	text    string // set only
	mode    string // print only
}

// splitWord cuts the first whitespace-delimited word off s. rest starts right
// after the single separator that ended the word.
func splitWord(s string) (word, rest string) {
	s = strings.TrimLeft(s, " \t")
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i+1:]
}

// parseCommand parses a script line. blank lines and # comments yield a nil
// command.
func parseCommand(line string) (*command, error) {
	line = strings.TrimRight(line, "\r")
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil, nil
	}

	name, rest := splitWord(line)
	cmd := &command{name: strings.ToLower(name)}

	switch cmd.name {
	case "set":
		cmd.address, cmd.text = splitWord(rest)
		if cmd.address == "" {
			return nil, fmt.Errorf("set: missing cell address")
		}
	case "clear", "get", "text", "refs", "deps":
		fields := strings.Fields(rest)
		if len(fields) != 1 {
			return nil, fmt.Errorf("%s: want exactly one cell address", cmd.name)
		}
		cmd.address = fields[0]
	case "print":
		fields := strings.Fields(rest)
		switch len(fields) {
		case 0:
		case 1:
			cmd.mode = strings.ToLower(fields[0])
			if cmd.mode != config.PrintValues && cmd.mode != config.PrintTexts {
				return nil, fmt.Errorf("print: unknown mode %q", fields[0])
			}
		default:
			return nil, fmt.Errorf("print: too many arguments")
		}
	case "size":
		if strings.TrimSpace(rest) != "" {
			return nil, fmt.Errorf("size: takes no arguments")
		}
	default:
		return nil, fmt.Errorf("unknown command %q", name)
	}
	return cmd, nil
}

// Interpreter runs script commands against a single sheet
type Interpreter struct {
	runner *spreadsheet.RunnableSheet
	cfg    config.Config
	out    io.Writer
	errs   io.Writer
}

// NewInterpreter creates an interpreter over a fresh sheet built with opts.
// command output goes to out and failures to errs.
func NewInterpreter(cfg config.Config, out, errs io.Writer, opts ...spreadsheet.Option) *Interpreter {
	printLn := func(line string) { fmt.Fprintln(out, line) }
	return &Interpreter{
		runner: spreadsheet.NewRunnableSheet(printLn, opts...),
		cfg:    cfg,
		out:    out,
		errs:   errs,
	}
}

// Sheet returns the sheet the script runs against
func (in *Interpreter) Sheet() *spreadsheet.Sheet {
	return in.runner.Sheet()
}

// Run executes every line from r. failing commands are reported with their
// line number; unless StopOnError is set execution continues and
// errScriptFailed is returned at the end.
func (in *Interpreter) Run(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	failed := 0
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := in.Exec(scanner.Text()); err != nil {
			failed++
			fmt.Fprintln(in.errs, errorStyle.Render(fmt.Sprintf("line %d: %v", lineNo, err)))
			if in.cfg.StopOnError {
				return fmt.Errorf("%w at line %d: %w", errScriptFailed, lineNo, err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d lines failed", errScriptFailed, failed, lineNo)
	}
	return nil
}

// Exec parses and executes one line
func (in *Interpreter) Exec(line string) error {
	cmd, err := parseCommand(line)
	if err != nil || cmd == nil {
		return err
	}

	switch cmd.name {
	case "set":
		in.runner.Set(cmd.address, cmd.text)
	case "clear":
		in.runner.Clear(cmd.address)
	case "get":
		in.runner.Log(cmd.address)
	case "text":
		text := in.runner.Text(cmd.address)
		if in.runner.Error() == nil {
			fmt.Fprintf(in.out, "%s: %s\n", cmd.address, text)
		}
	case "refs", "deps":
		cell := in.runner.Cell(cmd.address)
		if in.runner.Error() == nil {
			var positions []cellref.Position
			if cell != nil && cmd.name == "refs" {
				positions = cell.ReferencedCells()
			} else if cell != nil {
				positions = cell.Dependents()
			}
			fmt.Fprintf(in.out, "%s: %s\n", cmd.address, joinPositions(positions))
		}
	case "print":
		mode := cmd.mode
		if mode == "" {
			mode = in.cfg.Print
		}
		return printSheet(in.out, in.Sheet(), in.cfg.Output, mode)
	case "size":
		sheet := in.Sheet()
		size, printable := sheet.Size(), sheet.PrintableSize()
		_, err := fmt.Fprintf(in.out, "size %dx%d printable %dx%d cells %d formulas %d\n",
			size.Rows, size.Cols, printable.Rows, printable.Cols,
			sheet.CellCount(), sheet.FormulaCount())
		return err
	}

	err = in.runner.Error()
	in.runner.Reset()
	return err
}

func joinPositions(positions []cellref.Position) string {
	names := make([]string, len(positions))
	for i, pos := range positions {
		names[i] = pos.String()
	}
	return strings.Join(names, " ")
}
