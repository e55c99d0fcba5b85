// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/docextract/internal/store"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List extracted documents recorded in the database",
	Long: `List shows the most recent extraction records, newest first, with the
number of links, images, and tables found in each document.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().Int("limit", 20, "maximum number of records to show")
	listCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	s, err := store.Open(cmd.Context(), appConfig.Database, appLogger)
	if err != nil {
		return err
	}
	defer s.Close()

	summaries, err := s.List(cmd.Context(), limit)
	if err != nil {
		return err
	}
	return formatList(cmd.OutOrStdout(), summaries, jsonOutput)
}

func formatList(w io.Writer, summaries []store.Summary, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}

	if len(summaries) == 0 {
		fmt.Fprintln(w, "No documents recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-36s  %-5s  %-30s  %5s  %6s  %6s  %s\n",
		"ID", "Type", "File", "Links", "Images", "Tables", "Extracted")
	fmt.Fprintln(w, strings.Repeat("-", 120))
	for _, s := range summaries {
		file := s.SourceFile
		if len(file) > 30 {
			file = file[:27] + "..."
		}
		fmt.Fprintf(w, "%-36s  %-5s  %-30s  %5d  %6d  %6d  %s\n",
			s.ID, s.Format, file, s.Links, s.Images, s.Tables, s.ExtractedAt.Format(time.RFC3339))
	}
	return nil
}
