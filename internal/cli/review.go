package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/santiagomed/devspark/internal/fs"
	"github.com/spf13/cobra"
)

var reviewCmd = &cobra.Command{
	Use:   "review FILE",
	Short: "Ask the model to review a configuration file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, err := cmd.Flags().GetBool("json")
		if err != nil {
			return err
		}
		return reviewFile(cmd, fs.NewOsFileSystem(), args[0], asJSON)
	},
}

func init() {
	reviewCmd.Flags().Bool("json", false, "Print the review as JSON")
}

func reviewFile(cmd *cobra.Command, fsys *fs.FileSystem, path string, asJSON bool) error {
	content, err := fsys.ReadFile(path)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	e, err := current.engine(ctx, engineOptions{fsys: fsys, needsLLM: true, noRunner: true}, nil)
	if err != nil {
		return err
	}
	review, err := e.Review(ctx, path, content)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		b, err := json.MarshalIndent(review, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(b))
		return nil
	}
	fmt.Fprint(out, renderMarkdown(review.Markdown(fmt.Sprintf("Review of %s", filepath.Base(path)))))
	return nil
}
