package cmd

import (
	"fmt"
	"strconv"

	"github.com/maprix/maprix/internal/apiclient"
	"github.com/maprix/maprix/internal/models"
	"github.com/maprix/maprix/internal/output"
	"github.com/spf13/cobra"
)

var assetCmd = &cobra.Command{
	Use:     "asset",
	Aliases: []string{"ativo", "assets"},
	Short:   "Manage registered equipment",
	GroupID: "manage",
}

var assetListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List equipment with type and battery status",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		assets, err := newClient(cmd).ListAssets(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return output.JSON(assets)
		}
		if len(assets) == 0 {
			output.Info("No equipment registered")
			return nil
		}
		for _, a := range assets {
			fmt.Println(output.FormatAssetLine(a))
		}
		return nil
	},
}

var assetCreateCmd = &cobra.Command{
	Use:     "create <name>",
	Aliases: []string{"add"},
	Short:   "Register equipment",
	Example: `  maprix asset create TR-01 --type Trator --color "#28a745"
  maprix asset create GER-02`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := apiclient.CreateAssetRequest{Name: args[0]}
		req.Color, _ = cmd.Flags().GetString("color")
		typ, _ := cmd.Flags().GetString("type")
		if typ != "" {
			// numeric values name an existing type id
			if id, err := strconv.ParseInt(typ, 10, 64); err == nil {
				req.TypeID = &id
			} else {
				req.TypeName = typ
			}
		}

		resp, err := newClient(cmd).CreateAsset(cmd.Context(), req)
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return output.JSON(resp)
		}
		output.Success("Registered %s (#%d)", args[0], resp.ID)
		return nil
	},
}

var assetDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Remove equipment",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := newClient(cmd).DeleteAsset(cmd.Context(), id); err != nil {
			return err
		}
		return printDeleted(cmd, "equipment", id)
	},
}

var typeCmd = &cobra.Command{
	Use:     "type",
	Aliases: []string{"tipo", "types"},
	Short:   "Manage equipment types",
	GroupID: "manage",
}

var typeListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List equipment types",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		types, err := newClient(cmd).ListTypes(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return output.JSON(types)
		}
		if len(types) == 0 {
			output.Info("No equipment types")
			return nil
		}
		for _, t := range types {
			fmt.Printf("#%d  %s\n", t.ID, t.Name)
		}
		return nil
	},
}

var typeCreateCmd = &cobra.Command{
	Use:     "create <name>",
	Aliases: []string{"add"},
	Short:   "Create an equipment type (an existing name is reused)",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := newClient(cmd).CreateType(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return output.JSON(t)
		}
		output.Success("Type %s (#%d)", t.Name, t.ID)
		return nil
	},
}

// parseID parses a positive numeric id argument.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func printDeleted(cmd *cobra.Command, what string, id int64) error {
	if jsonOutput(cmd) {
		return output.JSON(map[string]interface{}{"status": "ok", "id": id})
	}
	output.Success("Deleted %s #%d", what, id)
	return nil
}

// findType resolves a type argument given as id or name.
func findType(types []models.AssetType, arg string) (models.AssetType, bool) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		for _, t := range types {
			if t.ID == id {
				return t, true
			}
		}
		return models.AssetType{}, false
	}
	key := models.NormalizeName(arg)
	for _, t := range types {
		if models.NormalizeName(t.Name) == key {
			return t, true
		}
	}
	return models.AssetType{}, false
}

func init() {
	rootCmd.AddCommand(assetCmd)
	assetCmd.AddCommand(assetListCmd, assetCreateCmd, assetDeleteCmd)
	rootCmd.AddCommand(typeCmd)
	typeCmd.AddCommand(typeListCmd, typeCreateCmd)

	assetCreateCmd.Flags().StringP("type", "t", "", "Equipment type id or name (created if missing)")
	assetCreateCmd.Flags().String("color", models.DefaultAssetColor, "Marker color (#rrggbb)")
}
