package cmd

import (
	"fmt"

	"github.com/maprix/maprix/internal/gate"
	"github.com/maprix/maprix/internal/geo"
	"github.com/maprix/maprix/internal/input"
	"github.com/maprix/maprix/internal/operator"
	"github.com/maprix/maprix/internal/output"
	"github.com/maprix/maprix/internal/pipeline"
	"github.com/spf13/cobra"
)

var captureCmd = &cobra.Command{
	Use:     "capture",
	Aliases: []string{"registrar", "c"},
	Short:   "Record the current position",
	Long: `Records the equipment's current position. Online, the position is sent
right away; offline, or when sending fails, it is kept on this device until
the next sync. When the shift's checklist is still pending it is asked first.`,
	Example: `  maprix capture -o "abastecido"
  maprix capture -o @ocorrencia.txt
  maprix capture --lat -23.55 --lon -46.63
  maprix capture --answers respostas.json`,
	GroupID: "shift",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		req := operator.CaptureRequest{}
		obs, _ := cmd.Flags().GetString("observation")
		obs, err := input.ExpandText(obs, cmd.InOrStdin())
		if err != nil {
			return err
		}
		req.Observation = obs
		if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
			if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lon") {
				return fmt.Errorf("--lat and --lon must be given together")
			}
			lat, _ := cmd.Flags().GetFloat64("lat")
			lon, _ := cmd.Flags().GetFloat64("lon")
			req.Position = &geo.Position{Latitude: lat, Longitude: lon}
		}

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
		if err == nil && a.ctrl.Gate().State() == gate.Pending {
			answersPath, _ := cmd.Flags().GetString("answers")
			if err := answerChecklist(ctx, a.ctrl, answersPath); err != nil {
				return err
			}
			if !jsonOutput(cmd) {
				output.Success("Checklist sent")
			}
		}

		res, err := a.ctrl.Capture(ctx, req)
		if err != nil {
			return err
		}
		pending, err := a.store.Count()
		if err != nil {
			return err
		}

		if jsonOutput(cmd) {
			out := map[string]interface{}{
				"resultado": res.Outcome.String(),
				"registro":  res.Report,
				"pendentes": pending,
			}
			if res.DeliveryErr != nil {
				out["erro_envio"] = res.DeliveryErr.Error()
			}
			return output.JSON(out)
		}

		pos := fmt.Sprintf("%.6f,%.6f", res.Report.Latitude, res.Report.Longitude)
		if res.Outcome == pipeline.Delivered {
			output.Success("Position sent: %s %s", res.Report.Equipment, pos)
			return nil
		}
		if res.DeliveryErr != nil {
			output.Warning("send failed (%v), saved on this device", res.DeliveryErr)
		} else {
			output.Warning("offline, saved on this device")
		}
		output.Info("%s %s  (%s)", res.Report.Equipment, pos, output.FormatPending(pending))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().StringP("observation", "o", "", "Observation attached to the position (- for stdin, @file)")
	captureCmd.Flags().Float64("lat", 0, "Latitude (skips the configured locator)")
	captureCmd.Flags().Float64("lon", 0, "Longitude (skips the configured locator)")
	captureCmd.Flags().String("answers", "", "Checklist answers file, used when the checklist is pending")
}
