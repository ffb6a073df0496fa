package cmd

import (
	"context"
	"fmt"

	"github.com/maprix/maprix/internal/checklist"
	"github.com/maprix/maprix/internal/gate"
	"github.com/maprix/maprix/internal/models"
	"github.com/maprix/maprix/internal/operator"
	"github.com/maprix/maprix/internal/output"
	"github.com/spf13/cobra"
)

var checklistCmd = &cobra.Command{
	Use:   "checklist",
	Short: "Answer the pending checklist for the shift",
	Long: `Answers the checklist configured for the shift's equipment type. Every item
defaults to conformant; a non-conformant item needs an observation and a
photo. Without a terminal, pass the answers as a JSON file:

  [{"pergunta_id": 3, "conforme": false, "observacao": "pneu baixo", "foto": "pneu.jpg"}]

Relative photo paths resolve against the answers file.`,
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
		if err != nil {
			return err
		}
		if sess == nil {
			return operator.ErrNoSession
		}

		switch a.ctrl.Gate().State() {
		case gate.Exempt:
			output.Info("No checklist is required for %s", sess.Equipment)
			return nil
		case gate.Satisfied:
			output.Info("Checklist already answered")
			return nil
		}

		answersPath, _ := cmd.Flags().GetString("answers")
		if err := answerChecklist(ctx, a.ctrl, answersPath); err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return output.JSON(map[string]interface{}{"status": "ok", "checklist": a.ctrl.Gate().State()})
		}
		output.Success("Checklist sent, captures are enabled")
		return nil
	},
}

var errNoAnswers = fmt.Errorf("%w: run in a terminal or pass --answers <file>", gate.ErrBlocked)

// answerChecklist collects answers from a file or the interactive form and
// submits them. Validation failures are returned as *checklist.ValidationError.
func answerChecklist(ctx context.Context, ctrl *operator.Controller, answersPath string) error {
	var answers []models.ChecklistAnswer
	var err error
	switch {
	case answersPath != "":
		answers, err = checklist.LoadAnswersFile(answersPath)
	case isInteractive():
		sess := ctrl.Session()
		form := checklist.NewFormState(sess.Equipment, ctrl.Gate().Questions())
		answers, err = form.Run()
	default:
		return errNoAnswers
	}
	if err != nil {
		return fmt.Errorf("read answers: %w", err)
	}
	return ctrl.SubmitChecklist(ctx, answers)
}

func init() {
	rootCmd.AddCommand(checklistCmd)

	checklistCmd.Flags().String("answers", "", "JSON file with the answers (non-interactive)")
}
