package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vogtb/go-sheetgraph/packages/config"
	"github.com/vogtb/go-sheetgraph/packages/logging"
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sheetcalc",
		Short:         "In-memory spreadsheet calculator",
		Long:          "sheetcalc evaluates spreadsheet scripts: cells hold text or formulas, and formulas recalculate when the cells they reference change.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return logging.InitLogger(cmd.ErrOrStderr(), cfg.LogLevel)
		},
	}

	cmd.PersistentFlags().String("config", "", "config file (default .sheetcalc.yaml)")
	cmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringP("output", "o", "", "output style (plain, table)")
	cmd.PersistentFlags().String("print", "", "what print shows by default (values, texts)")
	cmd.PersistentFlags().Bool("metrics", false, "dump sheet metrics when done")
	cmd.PersistentFlags().Bool("stop-on-error", false, "stop at the first failing command")

	for key, flag := range map[string]string{
		"log_level":     "log-level",
		"output":        "output",
		"print":         "print",
		"metrics":       "metrics",
		"stop_on_error": "stop-on-error",
	} {
		_ = viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag))
	}

	cmd.AddCommand(newRunCmd(), newEvalCmd())
	return cmd
}

func Execute() {
	cobra.OnInitialize(initConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

func initConfig() {
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".sheetcalc")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("SHEETCALC")
	viper.AutomaticEnv()

	// no config file is fine, defaults apply
	_ = viper.ReadInConfig()
}
