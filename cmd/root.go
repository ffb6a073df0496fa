package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/maprix/maprix/internal/config"
	"github.com/maprix/maprix/internal/suggest"
	"github.com/maprix/maprix/internal/workdir"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	versionStr  string
	baseDir     string
	workDirFlag string
)

// SetVersion sets the version string
func SetVersion(v string) {
	versionStr = v
}

var rootCmd = &cobra.Command{
	Use:   "maprix",
	Short: "Offline-first fleet position tracking",
	Long: `maprix - operator client for fleet position tracking.

Start a shift with the equipment and your name, answer the equipment's
checklist when one is configured, then capture positions. Captures made
without a connection are kept on this device and sent with "maprix sync".`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if cmd, err := rootCmd.ExecuteC(); err != nil {
		reportError(cmd, err)
		os.Exit(1)
	}
}

// nameWithAliases returns "name, alias1, alias2" if aliases exist, else just "name"
func nameWithAliases(cmd *cobra.Command) string {
	if len(cmd.Aliases) > 0 {
		return cmd.Name() + ", " + strings.Join(cmd.Aliases, ", ")
	}
	return cmd.Name()
}

func init() {
	cobra.OnInitialize(initBaseDir, initLogging)

	cobra.AddTemplateFunc("nameWithAliases", nameWithAliases)
	cobra.AddTemplateFunc("add", func(a, b int) int { return a + b })

	usageTemplate := `Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}{{$cmds := .Commands}}{{if eq (len .Groups) 0}}

Available Commands:{{range $cmds}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad (nameWithAliases .) (add .NamePadding 8)}} {{.Short}}{{end}}{{end}}{{else}}{{range $group := .Groups}}

{{.Title}}{{range $cmds}}{{if (and (eq .GroupID $group.ID) (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad (nameWithAliases .) (add .NamePadding 8)}} {{.Short}}{{end}}{{end}}{{end}}{{if not .AllChildCommandsHaveGroup}}

Additional Commands:{{range $cmds}}{{if (and (eq .GroupID "") (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad (nameWithAliases .) (add .NamePadding 8)}} {{.Short}}{{end}}{{end}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasHelpSubCommands}}

Additional help topics:{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}
  {{rpad .CommandPath .CommandPathPadding}} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`
	rootCmd.SetUsageTemplate(usageTemplate)

	rootCmd.AddGroup(
		&cobra.Group{ID: "shift", Title: "Shift Commands:"},
		&cobra.Group{ID: "manage", Title: "Management Commands:"},
		&cobra.Group{ID: "system", Title: "System Commands:"},
	)
	rootCmd.SetHelpCommandGroupID("system")
	rootCmd.SetCompletionCommandGroupID("system")

	rootCmd.PersistentFlags().Bool("offline", false, "Treat the server as unreachable (queue every capture)")
	rootCmd.PersistentFlags().Bool("json", false, "JSON output")
	rootCmd.PersistentFlags().String("server", "", "Server base URL (default from config)")
	rootCmd.PersistentFlags().StringVarP(&workDirFlag, "work-dir", "w", "", "Directory holding the local .maprix store")

	rootCmd.SetFlagErrorFunc(flagError)
}

// flagError adds close matches and known aliases to unknown-flag errors.
func flagError(cmd *cobra.Command, err error) error {
	msg := err.Error()
	const prefix = "unknown flag: "
	i := strings.Index(msg, prefix)
	if i < 0 {
		return err
	}
	bad := strings.TrimSpace(msg[i+len(prefix):])

	if hint := suggest.GetFlagHint(bad); hint != "" {
		return fmt.Errorf("%s (try %s)", msg, hint)
	}
	var valid []string
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		valid = append(valid, "--"+f.Name)
	})
	if matches := suggest.Flag(bad, valid); len(matches) > 0 {
		return fmt.Errorf("%s (did you mean %s?)", msg, strings.Join(matches, ", "))
	}
	return err
}

func initBaseDir() {
	dir := workDirFlag
	if dir == "" {
		dir = os.Getenv("MAPRIX_DIR")
	}
	if dir != "" {
		baseDir = dir
		return
	}
	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot determine working directory: %v\n", err)
		os.Exit(1)
	}
	baseDir = workdir.ResolveBaseDir(wd)
}

func initLogging() {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: config.GetLogLevel()})
	slog.SetDefault(slog.New(handler))
}

// getBaseDir returns the directory holding the local store
func getBaseDir() string {
	return baseDir
}
