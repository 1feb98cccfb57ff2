// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cvr-compact/internal/ballotdb"
	"github.com/pdiddy/cvr-compact/internal/convert"
	"github.com/pdiddy/cvr-compact/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index <converted.json[.gz]> <db>",
	Short: "Load a converted CVR document into a SQLite ballot index",
	Long: `Index reads a document produced by cvr-compact (plain or gzip) and stores
its sessions and marks in a SQLite database. Re-indexing the same document
replaces its earlier rows. With --summary, per-contest ballot and mark
counts are printed after loading.`,
	Args: cobra.ExactArgs(2),
	RunE: runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	src, dbPath := args[0], args[1]
	out := cmd.OutOrStdout()

	env, err := convert.ReadEnvelope(src)
	if err != nil {
		return err
	}

	store, err := ballotdb.NewStore(types.IndexConfig{DBPath: dbPath})
	if err != nil {
		return err
	}
	defer store.Close()

	if _, err := store.Ingest(cmd.Context(), env, filepath.Base(src), out); err != nil {
		return err
	}

	summary, _ := cmd.Flags().GetBool("summary")
	if !summary {
		return nil
	}

	counts, err := store.ContestSummary(cmd.Context())
	if err != nil {
		return err
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatContestSummary(out, counts, jsonOutput)
}

func formatContestSummary(w io.Writer, counts []ballotdb.ContestCount, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(counts)
	}

	if len(counts) == 0 {
		fmt.Fprintln(w, "No marks indexed.")
		return nil
	}

	fmt.Fprintf(w, "%-10s  %-10s  %-10s  %s\n", "Contest", "Ballots", "Marks", "MaxRank")
	fmt.Fprintln(w, strings.Repeat("-", 44))
	for _, c := range counts {
		fmt.Fprintf(w, "%-10d  %-10d  %-10d  %d\n", c.ContestID, c.Ballots, c.Marks, c.MaxRank)
	}
	return nil
}

func init() {
	indexCmd.Flags().Bool("summary", false, "print per-contest ballot and mark counts")
	indexCmd.Flags().Bool("json", false, "print the summary as JSON")

	rootCmd.AddCommand(indexCmd)
}
