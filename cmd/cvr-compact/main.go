// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the cvr-compact CLI.
//
// The root command converts a directory of Dominion CVR_Export_*.csv files
// into one compact CVR JSON document; subcommands index converted documents
// and print the version.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/cvr-compact/internal/convert"
	"github.com/pdiddy/cvr-compact/internal/logging"
	"github.com/pdiddy/cvr-compact/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd converts CSV exports; it is also the parent of all subcommands.
var rootCmd = &cobra.Command{
	Use:   "cvr-compact <input_dir> <output>",
	Short: "Convert CVR CSV exports to compact JSON",
	Long: `cvr-compact converts Alameda-style Cast Vote Record CSV exports, which carry
one column per candidate per rank, into a compact NIST SP 1500 JSON document
that stores only marked votes.

input_dir must contain CandidateManifest.json, ContestManifest.json and one or
more CVR_Export_*.csv files. Output ending in .gz, or --compress, is written
gzip-compressed. Only ranked-choice contests are converted unless
--all-contests is given.`,
	Args:          cobra.ExactArgs(2),
	SilenceUsage:  true,
	RunE:          runConvert,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(os.Stderr, viper.GetString("log_level"), viper.GetString("log_format"))
	},
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg := convertConfig(args[0], args[1])
	_, err := convert.Run(cmd.Context(), cfg, cmd.OutOrStdout())
	return err
}

// convertConfig merges positional arguments with flag, env and config
// file settings.
func convertConfig(inputDir, output string) types.ConvertConfig {
	return types.ConvertConfig{
		InputDir:    inputDir,
		Output:      output,
		AllContests: viper.GetBool("all_contests"),
		Compress:    viper.GetBool("compress"),
		Version:     viper.GetString("cvr_version"),
		ElectionID:  viper.GetString("election_id"),
		ReportPath:  viper.GetString("report"),
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./cvr-compact.yaml or ~/.config/cvr-compact/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "diagnostic log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "diagnostic log format: text or json")

	rootCmd.Flags().Bool("all-contests", false, "include all contests, not just RCV")
	rootCmd.Flags().Bool("compress", false, "compress output with gzip")
	rootCmd.Flags().String("report", "", "write a YAML conversion report to this path")
	rootCmd.Flags().String("election-id", "", "override the envelope ElectionId (default \""+types.DefaultElectionID+"\")")
	rootCmd.Flags().String("cvr-version", "", "override the envelope Version (default \""+types.DefaultVersion+"\")")

	// Flag names are kebab-case; viper keys are snake_case so env vars
	// read as CVR_COMPACT_ALL_CONTESTS and so on.
	for key, name := range map[string]string{
		"log_level":  "log-level",
		"log_format": "log-format",
	} {
		viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(name))
	}
	for key, name := range map[string]string{
		"all_contests": "all-contests",
		"compress":     "compress",
		"report":       "report",
		"election_id":  "election-id",
		"cvr_version":  "cvr-version",
	} {
		viper.BindPFlag(key, rootCmd.Flags().Lookup(name))
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("cvr-compact")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "cvr-compact"))
		}
	}

	// A .env file fills in CVR_COMPACT_* variables not already set.
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env file")
	}
	viper.SetEnvPrefix("CVR_COMPACT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
