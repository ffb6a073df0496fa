package cmd

import (
	"github.com/maprix/maprix/internal/operator"
	"github.com/maprix/maprix/internal/output"
	"github.com/spf13/cobra"
)

var batteryCmd = &cobra.Command{
	Use:     "battery <date>",
	Aliases: []string{"bateria"},
	Short:   "Record the battery manufacture date of the shift's equipment",
	Long: `Records when the battery of the shift's equipment was manufactured. The
server grades it by age: OK, ATENCAO or TROCAR.

Accepts YYYY-MM-DD, DD/MM/YYYY, YYYY-MM, MM/YYYY, "today", "yesterday",
"last-month", "last-year" and relative offsets such as -18m (pass those
after "--" so they are not read as flags).`,
	Example: `  maprix battery 2024-03-01
  maprix battery 15/08/2023
  maprix battery -- -18m`,
	GroupID: "shift",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, cmd, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		// a failed checklist lookup does not matter here
		if sess, err := a.ctrl.Restore(ctx); sess == nil {
			if err != nil {
				return err
			}
			return operator.ErrNoSession
		}

		resp, err := a.ctrl.UpdateBattery(ctx, args[0])
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return output.JSON(resp)
		}
		output.Success("Battery updated: %s", output.FormatBattery(resp.NewStatus, resp.NewColor))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(batteryCmd)
}
