package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vogtb/go-sheetgraph/packages/formula"
	"github.com/vogtb/go-sheetgraph/packages/spreadsheet"
)

func newEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate a single formula expression",
		Long:  "Eval parses an expression without the leading = and prints its value. Cell references read as empty.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  evalExpression,
	}
	cmd.Flags().Bool("canonical", false, "also print the canonical form of the expression")
	return cmd
}

func evalExpression(cmd *cobra.Command, args []string) error {
	expression := strings.TrimPrefix(strings.Join(args, " "), "=")

	f, err := formula.Parse(expression)
	if err != nil {
		return err
	}

	if canonical, _ := cmd.Flags().GetBool("canonical"); canonical {
		fmt.Fprintln(cmd.OutOrStdout(), "="+f.Expression())
	}

	value, evalErr := f.Evaluate(nil)
	if evalErr != nil {
		fmt.Fprintln(cmd.OutOrStdout(), evalErr.Marker())
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), spreadsheet.FormatValue(value))
	return nil
}
