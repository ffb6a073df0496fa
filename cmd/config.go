package cmd

import (
	"fmt"
	"strings"

	"github.com/maprix/maprix/internal/config"
	"github.com/maprix/maprix/internal/output"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage maprix client configuration",
	Long: `Reads and writes ~/.config/maprix/config.json. Environment variables
(MAPRIX_SERVER_URL, MAPRIX_OFFLINE, MAPRIX_LOCATOR, MAPRIX_GPSD_ADDR,
MAPRIX_GPS_TIMEOUT, MAPRIX_LOG_LEVEL) take precedence over the file.`,
	GroupID: "system",
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value (an empty value unsets it)",
	Example: `  maprix config set server_url http://10.0.0.5:5000
  maprix config set locator gpsd
  maprix config set latitude -23.5505`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Set(args[0], args[1]); err != nil {
			return fmt.Errorf("%w (valid keys: %s)", err, strings.Join(config.Keys(), ", "))
		}
		if args[1] == "" {
			output.Success("Unset %s", args[0])
		} else {
			output.Success("Set %s = %s", args[0], args[1])
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Show a stored config value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := config.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Show every stored value and the effective settings",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stored := map[string]string{}
		for _, k := range config.Keys() {
			v, err := config.Get(k)
			if err != nil {
				return err
			}
			stored[k] = v
		}
		loc := config.GetLocator()
		effective := map[string]interface{}{
			"server_url":  config.GetServerURL(),
			"offline":     config.IsOffline(),
			"locator":     loc.Kind,
			"gpsd_addr":   loc.GPSDAddr,
			"gps_timeout": config.GetGPSTimeout().String(),
			"log_level":   config.GetLogLevel().String(),
		}
		if jsonOutput(cmd) {
			return output.JSON(map[string]interface{}{"stored": stored, "effective": effective})
		}
		for _, k := range config.Keys() {
			v := stored[k]
			if v == "" {
				v = "(unset)"
			}
			fmt.Printf("%-12s %s\n", k, v)
		}
		fmt.Print(output.SectionHeader("effective"))
		fmt.Printf("%-12s %s\n", "server_url", effective["server_url"])
		fmt.Printf("%-12s %v\n", "offline", effective["offline"])
		fmt.Printf("%-12s %s\n", "locator", effective["locator"])
		fmt.Printf("%-12s %s\n", "gps_timeout", effective["gps_timeout"])
		fmt.Printf("%-12s %s\n", "log_level", effective["log_level"])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd, configGetCmd, configListCmd)
}
