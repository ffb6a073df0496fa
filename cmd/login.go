package cmd

import (
	"fmt"
	"strings"

	"github.com/maprix/maprix/internal/gate"
	"github.com/maprix/maprix/internal/operator"
	"github.com/maprix/maprix/internal/output"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:     "login <equipment> <operator>",
	Aliases: []string{"start"},
	Short:   "Start a shift on a piece of equipment",
	Long: `Starts a shift. Unknown equipment can be registered on the spot (without a
type, so no checklist applies). When the equipment's type has a checklist,
it must be answered before the first capture.`,
	Example: `  maprix login TR-01 "Ana Souza"
  maprix login GER-02 Bruno --yes`,
	GroupID: "shift",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		yes, _ := cmd.Flags().GetBool("yes")
		noRegister, _ := cmd.Flags().GetBool("no-register")

		opts := appOptions{probe: true}
		if !noRegister {
			opts.prompter = confirmPrompter{assumeYes: yes}
		}
		a, err := openApp(ctx, cmd, opts)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.ctrl.StartShift(ctx, args[0], args[1])
		if res == nil {
			return err
		}

		if jsonOutput(cmd) {
			out := map[string]interface{}{
				"sessao":     res.Session,
				"registrado": res.Registered,
				"sugestoes":  res.Suggestions,
				"checklist":  res.Gate,
				"perguntas":  res.Questions,
			}
			if err != nil {
				out["erro_checklist"] = err.Error()
			}
			return output.JSON(out)
		}

		output.Success("Shift started: %s / %s", res.Session.Equipment, res.Session.Operator)
		if res.Registered {
			output.Info("Registered %s without a type", res.Session.Equipment)
		} else if len(res.Suggestions) > 0 {
			output.Warning("%s is not registered. Similar: %s", res.Session.Equipment, strings.Join(res.Suggestions, ", "))
		}
		if err != nil {
			output.Warning("could not load the checklist, captures are blocked until it loads: %v", err)
			return nil
		}
		printGate(res)
		return nil
	},
}

func printGate(res *operator.ShiftResult) {
	switch res.Gate {
	case gate.Exempt:
		output.Info("No checklist required, captures are enabled")
	case gate.Pending:
		output.Warning("Checklist required before capturing (%d questions)", len(res.Questions))
		if md, err := output.RenderMarkdown(output.ChecklistMarkdown(res.Session.Equipment, res.Questions)); err == nil {
			fmt.Println(md)
		}
		output.Info("Answer it with: maprix checklist")
	}
}

var logoutCmd = &cobra.Command{
	Use:     "logout",
	Aliases: []string{"end"},
	Short:   "End the shift (queued captures are kept)",
	GroupID: "shift",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cmd, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.ctrl.EndShift(); err != nil {
			return err
		}
		n, err := a.store.Count()
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return output.JSON(map[string]interface{}{"status": "ok", "pendentes": n})
		}
		output.Success("Shift ended")
		if n > 0 {
			output.Warning("%d captures still waiting to sync", n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)

	loginCmd.Flags().BoolP("yes", "y", false, "Register unknown equipment without asking")
	loginCmd.Flags().Bool("no-register", false, "Never register unknown equipment")
}
