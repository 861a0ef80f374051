package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	inputFile  string
	outputJSON bool
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "avosctl",
	Short: "Operator tool for the voice ordering engine",
	Long: `avosctl - operator tooling for the voice ordering engine.

Examples:
  # Inspect the phonetic index for a menu
  avosctl index -f menu.yaml

  # Replay a scripted conversation with the keyword engine
  avosctl replay -f script.yaml

  # Fetch an archived call record
  avosctl record call-abc123 --table avos-state
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().StringVarP(&inputFile, "file", "f", "", "input file (YAML)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output as JSON (for piping)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(recordCmd)
}

func initLogging() {
	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))
}
