package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/apex/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vogtb/go-sheetgraph/packages/config"
	"github.com/vogtb/go-sheetgraph/packages/metrics"
	"github.com/vogtb/go-sheetgraph/packages/spreadsheet"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [script]",
		Short: "Run a sheet script from a file or stdin",
		Long: `Run executes one command per line against a fresh sheet:

  set <cell> <text>     store text or a formula (=...) in a cell
  clear <cell>          clear a cell
  get <cell>            print a cell's value
  text <cell>           print a cell's text
  refs <cell>           print the cells a formula references
  deps <cell>           print the cells whose formulas reference a cell
  print [values|texts]  print the sheet
  size                  print the sheet dimensions

Lines starting with # are comments.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScript,
	}
}

func runScript(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open script: %w", err)
		}
		defer f.Close()
		in = f
	}

	opts := []spreadsheet.Option{spreadsheet.WithLogger(log.Log)}
	var reg *prometheus.Registry
	if cfg.Metrics {
		reg = prometheus.NewRegistry()
		collector, err := metrics.NewCollector(reg)
		if err != nil {
			return err
		}
		opts = append(opts, spreadsheet.WithObserver(collector))
	}

	interp := NewInterpreter(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), opts...)
	runErr := interp.Run(in)
	sheet := interp.Sheet()

	log.WithFields(log.Fields{
		"cells":    sheet.CellCount(),
		"formulas": sheet.FormulaCount(),
	}).Debug("script finished")

	if reg != nil {
		if err := metrics.WriteText(cmd.OutOrStdout(), reg); err != nil {
			return errors.Join(runErr, err)
		}
	}
	return runErr
}
