package cmd

import (
	"fmt"

	"github.com/maprix/maprix/internal/output"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Send captures saved on this device",
	Long: `Sends every queued capture in one request, in capture order. The queue is
only emptied once the server acknowledges the batch; a failed sync leaves it
untouched and the next sync resends the same batch under the same id, so the
server never stores it twice.`,
	GroupID: "shift",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, cmd, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.ctrl.Sync(ctx)
		if err != nil {
			return err
		}

		if jsonOutput(cmd) {
			return output.JSON(map[string]interface{}{
				"lote":      res.BatchID,
				"enviados":  res.Sent,
				"duplicado": res.Duplicate,
				"restantes": res.Remaining,
			})
		}
		if res.Sent == 0 {
			output.Info("Nothing to sync")
			return nil
		}
		msg := fmt.Sprintf("Synced %d captures", res.Sent)
		if res.Duplicate {
			msg += " (batch had already been received)"
		}
		output.Success("%s", msg)
		if res.Remaining > 0 {
			output.Info("%s", output.FormatPending(res.Remaining))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
