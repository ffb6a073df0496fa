package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/maprix/maprix/internal/input"
	"github.com/maprix/maprix/internal/models"
	"github.com/maprix/maprix/internal/output"
	"github.com/spf13/cobra"
)

var areaCmd = &cobra.Command{
	Use:     "area",
	Aliases: []string{"areas"},
	Short:   "Manage geofenced areas",
	GroupID: "manage",
}

var areaListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List areas",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		areas, err := newClient(cmd).ListAreas(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return output.JSON(areas)
		}
		if len(areas) == 0 {
			output.Info("No areas")
			return nil
		}
		for _, a := range areas {
			fmt.Printf("#%d  %s  %d bytes of GeoJSON\n", a.ID, output.Swatch(a.Color, a.Name), len(a.Geometry))
		}
		return nil
	},
}

var areaCreateCmd = &cobra.Command{
	Use:     "create <name> <geojson-file>",
	Aliases: []string{"add"},
	Short:   "Store an area from a GeoJSON geometry file",
	Example: `  maprix area create "Patio Norte" patio.geojson --color "#FFC107"
  cat patio.geojson | maprix area create "Patio Norte" -`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := input.ReadSource(args[1], cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read geometry: %w", err)
		}
		if !json.Valid(data) {
			return fmt.Errorf("%s is not valid JSON", args[1])
		}
		color, _ := cmd.Flags().GetString("color")
		if err := newClient(cmd).SaveArea(cmd.Context(), args[0], json.RawMessage(data), color); err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return output.JSON(map[string]interface{}{"status": "ok", "nome": args[0]})
		}
		output.Success("Saved area %s", args[0])
		return nil
	},
}

var areaDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Remove an area",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := newClient(cmd).DeleteArea(cmd.Context(), id); err != nil {
			return err
		}
		return printDeleted(cmd, "area", id)
	},
}

func init() {
	rootCmd.AddCommand(areaCmd)
	areaCmd.AddCommand(areaListCmd, areaCreateCmd, areaDeleteCmd)

	areaCreateCmd.Flags().String("color", models.DefaultAreaColor, "Fill color (#rrggbb)")
}
