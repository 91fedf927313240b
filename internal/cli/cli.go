package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/lipgloss"
	"github.com/santiagomed/devspark/internal/logger"
	"github.com/santiagomed/devspark/internal/result"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "devspark",
	Short: "DevSpark is your AI co-pilot for project setup and development environment management",
	Long: `DevSpark asks a language model for a project scaffold or a configuration review,
then writes the result to disk and prepares the development environment around it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initApp(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a directory holding config.yaml")
	rootCmd.PersistentFlags().StringP("provider", "p", "", "LLM provider: gemini or openai")
	rootCmd.PersistentFlags().String("log-level", "", "Log level written to ~/.devspark/devspark.log")

	rootCmd.AddCommand(initCmd, checkCmd, reviewCmd, applyCmd, templatesCmd, configCmd)
}

var (
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	faintStyle = lipgloss.NewStyle().Faint(true)
)

func printError(err error) {
	var re *result.Error
	if errors.As(err, &re) {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("Error (%s): %s", re.Type, re.Message)))
		if re.Retried > 0 {
			fmt.Fprintln(os.Stderr, faintStyle.Render(fmt.Sprintf("Gave up after %d retries.", re.Retried)))
		}
		if re.RawResponse != "" {
			fmt.Fprintln(os.Stderr, "Raw LLM response was:")
			fmt.Fprintln(os.Stderr, re.RawResponse)
		}
		return
	}
	fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("Error: %v", err)))
}

// Execute runs the root command. SIGINT cancels the running operation.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		printError(err)
		os.Exit(1)
	}
}
