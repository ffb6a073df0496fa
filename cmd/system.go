package cmd

import (
	"fmt"

	"github.com/maprix/maprix/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Show version and check for updates",
	GroupID: "system",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		short, _ := cmd.Flags().GetBool("short")
		if short {
			fmt.Print(versionStr)
			return
		}

		fmt.Printf("maprix version %s\n", versionStr)

		checkUpdates, _ := cmd.Flags().GetBool("check")
		if !checkUpdates || version.IsDevelopmentVersion(versionStr) {
			return
		}

		result := version.CachedCheck(versionStr, func() version.CheckResult {
			return version.Check(cmd.Context(), versionStr)
		})
		// network errors are not worth reporting here
		if result.Error != nil || !result.HasUpdate {
			return
		}
		fmt.Printf("\nUpdate available: %s → %s\n", versionStr, result.LatestVersion)
		if c := version.UpdateCommand(result.LatestVersion); c != "" {
			fmt.Printf("Run: %s\n", c)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().Bool("short", false, "Print only the version")
	versionCmd.Flags().Bool("check", true, "Check for a newer release")
}
