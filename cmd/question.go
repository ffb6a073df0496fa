package cmd

import (
	"fmt"
	"strings"

	"github.com/maprix/maprix/internal/apiclient"
	"github.com/maprix/maprix/internal/models"
	"github.com/maprix/maprix/internal/output"
	"github.com/spf13/cobra"
)

var questionCmd = &cobra.Command{
	Use:     "question",
	Aliases: []string{"pergunta", "questions"},
	Short:   "Configure checklist questions per equipment type",
	GroupID: "manage",
}

// resolveType looks a type argument up by id or name.
func resolveType(cmd *cobra.Command, client *apiclient.Client, arg string) (models.AssetType, error) {
	types, err := client.ListTypes(cmd.Context())
	if err != nil {
		return models.AssetType{}, err
	}
	t, ok := findType(types, arg)
	if !ok {
		return models.AssetType{}, fmt.Errorf("%w: type %q", apiclient.ErrNotFound, arg)
	}
	return t, nil
}

var questionListCmd = &cobra.Command{
	Use:     "list <type>",
	Aliases: []string{"ls"},
	Short:   "List a type's checklist in answer order",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient(cmd)
		t, err := resolveType(cmd, client, args[0])
		if err != nil {
			return err
		}
		qs, err := client.ChecklistConfig(cmd.Context(), t.ID)
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return output.JSON(qs)
		}
		if len(qs) == 0 {
			output.Info("%s has no checklist", t.Name)
			return nil
		}
		fmt.Print(output.SectionHeader(t.Name))
		for i, q := range qs {
			fmt.Printf("%3d. #%d  %s\n", i+1, q.ID, q.Text)
		}
		return nil
	},
}

var questionAddCmd = &cobra.Command{
	Use:     "add <type> <text>...",
	Short:   "Append a question to a type's checklist",
	Example: `  maprix question add Trator "Pneus calibrados"`,
	Args:    cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient(cmd)
		t, err := resolveType(cmd, client, args[0])
		if err != nil {
			return err
		}
		q, err := client.AddQuestion(cmd.Context(), t.ID, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return output.JSON(q)
		}
		output.Success("Added question #%d to %s", q.ID, t.Name)
		return nil
	},
}

var questionDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Remove a checklist question",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := newClient(cmd).DeleteQuestion(cmd.Context(), id); err != nil {
			return err
		}
		return printDeleted(cmd, "question", id)
	},
}

var submissionsCmd = &cobra.Command{
	Use:     "submissions [equipment]",
	Aliases: []string{"respostas"},
	Short:   "List received checklists, newest first",
	GroupID: "manage",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		equipment := ""
		if len(args) == 1 {
			equipment = args[0]
		}
		subs, err := newClient(cmd).ListSubmissions(cmd.Context(), equipment)
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return output.JSON(subs)
		}
		if len(subs) == 0 {
			output.Info("No checklists received")
			return nil
		}
		limit, _ := cmd.Flags().GetInt("limit")
		var b strings.Builder
		for i, s := range subs {
			if limit > 0 && i >= limit {
				break
			}
			b.WriteString(output.SubmissionMarkdown(s))
			b.WriteString("\n")
		}
		md, err := output.RenderMarkdown(b.String())
		if err != nil {
			return err
		}
		fmt.Println(md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(questionCmd)
	questionCmd.AddCommand(questionListCmd, questionAddCmd, questionDeleteCmd)
	rootCmd.AddCommand(submissionsCmd)

	submissionsCmd.Flags().IntP("limit", "n", 10, "Show at most n checklists (0 for all)")
}
