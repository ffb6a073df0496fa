package cmd

import (
	"fmt"
	"strings"

	"github.com/maprix/maprix/internal/models"
	"github.com/maprix/maprix/internal/operator"
	"github.com/maprix/maprix/internal/output"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"st"},
	Short:   "Show the shift, connectivity and pending captures",
	GroupID: "shift",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, cmd, appOptions{probe: true})
		if err != nil {
			return err
		}
		defer a.Close()

		_, restoreErr := a.ctrl.Restore(ctx)
		st, err := a.ctrl.Status()
		if err != nil {
			return err
		}
		showPending, _ := cmd.Flags().GetBool("pending")
		var pending []models.PendingReport
		if showPending {
			if pending, err = a.ctrl.Pending(); err != nil {
				return err
			}
		}

		if jsonOutput(cmd) {
			if !showPending {
				return output.JSON(st)
			}
			return output.JSON(map[string]interface{}{"status": st, "fila": pending})
		}

		md, err := output.RenderMarkdown(statusMarkdown(st, pending))
		if err != nil {
			return err
		}
		fmt.Println(md)
		if restoreErr != nil && st.GateError == "" {
			output.Warning("%v", restoreErr)
		}
		return nil
	},
}

// statusMarkdown renders a status snapshot and, optionally, the queue.
func statusMarkdown(st *operator.Status, pending []models.PendingReport) string {
	var b strings.Builder
	b.WriteString("# maprix\n\n")
	if st.Session == nil {
		b.WriteString("No active shift. Start one with `maprix login <equipment> <operator>`.\n\n")
	} else {
		fmt.Fprintf(&b, "- **Equipment:** %s\n- **Operator:** %s\n- **Checklist:** %s", st.Session.Equipment, st.Session.Operator, st.Gate)
		if st.Questions > 0 {
			fmt.Fprintf(&b, " (%d questions)", st.Questions)
		}
		b.WriteString("\n")
		if st.GateError != "" {
			fmt.Fprintf(&b, "- **Checklist error:** %s\n", st.GateError)
		}
	}
	conn := "online"
	if !st.Online {
		conn = "offline"
	}
	fmt.Fprintf(&b, "- **Connection:** %s\n- **Pending captures:** %d\n", conn, st.Pending)
	if st.Batch != nil {
		fmt.Fprintf(&b, "- **Unacknowledged batch:** `%s` (%d captures, sealed %s)\n", st.Batch.ID, st.Batch.Size, st.Batch.SealedAt)
	}

	if len(pending) > 0 {
		b.WriteString("\n## Queue\n\n")
		for i, r := range pending {
			fmt.Fprintf(&b, "%d. %s %.6f,%.6f at %s", i+1, r.Equipment, r.Latitude, r.Longitude, r.Timestamp)
			if r.Observation != "" {
				fmt.Fprintf(&b, " - %s", r.Observation)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolP("pending", "p", false, "List the queued captures")
}
