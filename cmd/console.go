package cmd

import (
	"time"

	"github.com/maprix/maprix/internal/console"
	"github.com/maprix/maprix/internal/operator"
	"github.com/maprix/maprix/internal/output"
	"github.com/spf13/cobra"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Live shift console: capture and sync on single keys",
	Long: `Opens a full-screen console for the active shift. The connection is
checked in the background and shown in the header; captures made offline
are queued and sent with s.

Key bindings:
  c / space   Capture the current position
  o           Capture with an observation
  s           Sync queued captures
  k           Answer the pending checklist
  r           Check the connection now
  q           Quit`,
	GroupID: "shift",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, cmd, appOptions{probe: true})
		if err != nil {
			return err
		}
		defer a.Close()

		sess, err := a.ctrl.Restore(ctx)
		if sess == nil {
			if err != nil {
				return err
			}
			return operator.ErrNoSession
		}
		if err != nil {
			output.Warning("%v", err)
		}

		interval, _ := cmd.Flags().GetDuration("interval")
		if interval < 500*time.Millisecond {
			interval = 5 * time.Second
		}
		probe, _ := cmd.Flags().GetDuration("probe")
		return console.Run(ctx, a.ctrl, console.Options{
			Version:         versionStr,
			RefreshInterval: interval,
		}, probe)
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)

	consoleCmd.Flags().Duration("interval", 5*time.Second, "Status refresh interval")
	consoleCmd.Flags().Duration("probe", 10*time.Second, "Connection check interval (0 disables)")
}
