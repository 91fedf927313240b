package cli

import (
	"fmt"

	"github.com/santiagomed/devspark/internal/fs"
	"github.com/santiagomed/devspark/internal/plan"
	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Write a saved project plan to disk",
	Long: `Write a project plan saved as JSON, in either the directories/files or the
directory_structure/files_to_create shape. With --update only changed files are written.`,
	RunE: runApply,
}

func init() {
	applyCmd.Flags().String("plan", "", "Plan file")
	applyCmd.Flags().StringP("name", "n", "", "Project name")
	applyCmd.Flags().String("dir", "", "Parent directory of the project (default from config)")
	applyCmd.Flags().Bool("update", false, "Only write files whose content changed")
	_ = applyCmd.MarkFlagRequired("plan")
	_ = applyCmd.MarkFlagRequired("name")
}

func runApply(cmd *cobra.Command, args []string) error {
	planPath, _ := cmd.Flags().GetString("plan")
	name, _ := cmd.Flags().GetString("name")
	dir, _ := cmd.Flags().GetString("dir")
	update, _ := cmd.Flags().GetBool("update")
	if dir == "" {
		dir = current.cfg.OutputDir
	}

	fsys := fs.NewOsFileSystem()
	doc, err := readPlan(fsys, planPath)
	if err != nil {
		return err
	}
	e, err := current.engine(cmd.Context(), engineOptions{fsys: fsys, noRunner: true}, nil)
	if err != nil {
		return err
	}
	report, err := e.Apply(dir, name, doc, update)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	printReport(out, report)
	fmt.Fprintln(out, projectMessage(report.Root))
	return nil
}

func readPlan(fsys *fs.FileSystem, path string) (plan.Document, error) {
	content, err := fsys.ReadFile(path)
	if err != nil {
		return plan.Document{}, err
	}
	return plan.Decode([]byte(content))
}
