package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/maprix/maprix/internal/input"
	"github.com/maprix/maprix/internal/models"
	"github.com/maprix/maprix/internal/output"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:     "export",
	Aliases: []string{"exportar"},
	Short:   "Download every type, asset, question, position and area as JSON",
	Example: `  maprix export -o backup.json
  maprix export > backup.json`,
	GroupID: "manage",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := newClient(cmd).Export(cmd.Context())
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}

		path, _ := cmd.Flags().GetString("output")
		if path == "" {
			fmt.Println(string(data))
			return nil
		}
		if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		output.Success("Exported %d assets, %d positions, %d areas to %s", len(doc.Assets), len(doc.Records), len(doc.Areas), path)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:     "import <file>",
	Aliases: []string{"importar"},
	Short:   "Load a JSON export into the server",
	Long: `Loads a document produced by "maprix export". Types and equipment that
already exist (by name) are kept; questions, positions and areas are added.`,
	GroupID: "manage",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := input.ReadSource(args[0], cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read import: %w", err)
		}
		var doc models.Export
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse import: %w", err)
		}

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		if dryRun {
			questions := 0
			for _, qs := range doc.Questions {
				questions += len(qs)
			}
			output.Info("Would import %d types, %d assets, %d questions, %d positions, %d areas",
				len(doc.Types), len(doc.Assets), questions, len(doc.Records), len(doc.Areas))
			return nil
		}

		start := time.Now()
		resp, err := newClient(cmd).Import(cmd.Context(), &doc)
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return output.JSON(resp)
		}
		output.Success("Imported %d types, %d assets, %d questions, %d positions, %d areas in %s",
			resp.Types, resp.Assets, resp.Questions, resp.Records, resp.Areas, time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)

	exportCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	importCmd.Flags().Bool("dry-run", false, "Only count what the file contains")
}
