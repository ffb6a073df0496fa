package cmd

import (
	"fmt"
	"strings"

	"github.com/maprix/maprix/internal/apiclient"
	"github.com/maprix/maprix/internal/input"
	"github.com/maprix/maprix/internal/models"
	"github.com/maprix/maprix/internal/output"
	"github.com/spf13/cobra"
)

var recordCmd = &cobra.Command{
	Use:     "record",
	Aliases: []string{"registro", "records"},
	Short:   "Inspect and edit stored positions",
	GroupID: "manage",
}

var recordListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored positions in chronological order",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := newClient(cmd).ListRecords(cmd.Context())
		if err != nil {
			return err
		}
		if equipment, _ := cmd.Flags().GetString("equipment"); equipment != "" {
			key := models.NormalizeName(equipment)
			filtered := records[:0]
			for _, r := range records {
				if models.NormalizeName(r.Equipment) == key {
					filtered = append(filtered, r)
				}
			}
			records = filtered
		}
		if last, _ := cmd.Flags().GetInt("last"); last > 0 && len(records) > last {
			records = records[len(records)-last:]
		}

		if jsonOutput(cmd) {
			return output.JSON(records)
		}
		if len(records) == 0 {
			output.Info("No positions stored")
			return nil
		}
		for _, r := range records {
			fmt.Println(output.FormatRecordLine(r))
		}
		return nil
	},
}

var recordUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Edit a stored position's equipment, color or observation",
	Long:  `Edits a stored position. Fields not given keep their current value.`,
	Example: `  maprix record update 42 --observation "troca de turno"
  maprix record update 42 --equipment TR-02 --color "#dc3545"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		client := newClient(cmd)
		records, err := client.ListRecords(cmd.Context())
		if err != nil {
			return err
		}
		var current *models.Record
		for i := range records {
			if records[i].ID == id {
				current = &records[i]
				break
			}
		}
		if current == nil {
			return fmt.Errorf("%w: record %d", apiclient.ErrNotFound, id)
		}

		u := apiclient.RecordUpdate{
			Equipment:   current.Equipment,
			Color:       current.Color,
			Observation: current.Observation,
		}
		if cmd.Flags().Changed("equipment") {
			u.Equipment, _ = cmd.Flags().GetString("equipment")
		}
		if cmd.Flags().Changed("color") {
			u.Color, _ = cmd.Flags().GetString("color")
		}
		if cmd.Flags().Changed("observation") {
			obs, _ := cmd.Flags().GetString("observation")
			if u.Observation, err = input.ExpandText(obs, cmd.InOrStdin()); err != nil {
				return err
			}
		}
		if strings.TrimSpace(u.Equipment) == "" {
			return fmt.Errorf("equipment cannot be empty")
		}

		if err := client.UpdateRecord(cmd.Context(), id, u); err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return output.JSON(map[string]interface{}{"status": "ok", "id": id})
		}
		output.Success("Updated record #%d", id)
		return nil
	},
}

var recordDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Remove a stored position",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := newClient(cmd).DeleteRecord(cmd.Context(), id); err != nil {
			return err
		}
		return printDeleted(cmd, "record", id)
	},
}

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.AddCommand(recordListCmd, recordUpdateCmd, recordDeleteCmd)

	recordListCmd.Flags().StringP("equipment", "e", "", "Only positions of this equipment")
	recordListCmd.Flags().IntP("last", "n", 0, "Only the n most recent positions")

	recordUpdateCmd.Flags().StringP("equipment", "e", "", "New equipment name")
	recordUpdateCmd.Flags().String("color", "", "New marker color (#rrggbb)")
	recordUpdateCmd.Flags().StringP("observation", "o", "", "New observation (- for stdin, @file)")
}
