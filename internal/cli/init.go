package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santiagomed/devspark/internal/core"
	"github.com/santiagomed/devspark/internal/devenv"
	"github.com/santiagomed/devspark/internal/fs"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a new project",
	Long: `Generate a new project from a description, from a saved template, or from a
template customized by the model. With --setup the development environment is
prepared as well: .gitignore, git hooks, tool configs and dependencies.`,
	RunE: runInit,
}

type initFlags struct {
	name        string
	projectType string
	language    string
	description string
	template    string
	customize   string
	set         map[string]string
	dir         string
	setup       bool
	noInstall   bool
	dryRun      bool
	archive     string
}

func init() {
	initCmd.Flags().StringP("name", "n", "my-project", "Project name")
	initCmd.Flags().StringP("type", "t", "web app", "Project type")
	initCmd.Flags().StringP("lang", "l", "Python", "Primary language")
	initCmd.Flags().StringP("description", "d", "", "What the project should do")
	initCmd.Flags().String("template", "", "Start from a saved template")
	initCmd.Flags().String("customize", "", "Ask the model to adapt the template as described")
	initCmd.Flags().StringToString("set", nil, "Extra template variables (key=value)")
	initCmd.Flags().String("dir", "", "Parent directory of the project (default from config)")
	initCmd.Flags().Bool("setup", false, "Prepare the development environment after generating")
	initCmd.Flags().Bool("no-install", false, "With --setup, skip dependency installation")
	initCmd.Flags().Bool("dry-run", false, "Print the project tree without writing to disk")
	initCmd.Flags().String("archive", "", "Write the project to a zip file instead of a directory")
}

func parseInitFlags(cmd *cobra.Command) (initFlags, error) {
	var f initFlags
	var err error
	if f.name, err = cmd.Flags().GetString("name"); err != nil {
		return f, err
	}
	if f.projectType, err = cmd.Flags().GetString("type"); err != nil {
		return f, err
	}
	if f.language, err = cmd.Flags().GetString("lang"); err != nil {
		return f, err
	}
	if f.description, err = cmd.Flags().GetString("description"); err != nil {
		return f, err
	}
	if f.template, err = cmd.Flags().GetString("template"); err != nil {
		return f, err
	}
	if f.customize, err = cmd.Flags().GetString("customize"); err != nil {
		return f, err
	}
	if f.set, err = cmd.Flags().GetStringToString("set"); err != nil {
		return f, err
	}
	if f.dir, err = cmd.Flags().GetString("dir"); err != nil {
		return f, err
	}
	if f.setup, err = cmd.Flags().GetBool("setup"); err != nil {
		return f, err
	}
	if f.noInstall, err = cmd.Flags().GetBool("no-install"); err != nil {
		return f, err
	}
	if f.dryRun, err = cmd.Flags().GetBool("dry-run"); err != nil {
		return f, err
	}
	if f.archive, err = cmd.Flags().GetString("archive"); err != nil {
		return f, err
	}
	if f.customize != "" && f.template == "" {
		return f, fmt.Errorf("--customize requires --template")
	}
	if f.setup && (f.dryRun || f.archive != "") {
		return f, fmt.Errorf("--setup cannot be combined with --dry-run or --archive")
	}
	return f, nil
}

func (f initFlags) request() *core.ProjectRequest {
	r := core.DefaultRequest()
	r.Name = f.name
	r.Type = f.projectType
	r.Language = f.language
	r.Description = f.description
	if len(f.set) > 0 {
		r.Extra = f.set
	}
	return r
}

func (f initFlags) inMemory() bool {
	return f.dryRun || f.archive != ""
}

func (f initFlags) scaffoldOptions(base string) core.ScaffoldOptions {
	o := core.ScaffoldOptions{
		BasePath:     base,
		Template:     f.template,
		Instructions: f.customize,
	}
	if f.setup {
		s := devenv.DefaultSetupOptions(devenv.ParseLanguage(f.language))
		s.Install = !f.noInstall
		o.Setup = &s
	}
	return o
}

func runInit(cmd *cobra.Command, args []string) error {
	f, err := parseInitFlags(cmd)
	if err != nil {
		return err
	}

	fsys := fs.NewOsFileSystem()
	base := f.dir
	if base == "" {
		base = current.cfg.OutputDir
	}
	if f.inMemory() {
		fsys = fs.NewMemoryFileSystem()
		base = "/"
	}

	req := f.request()
	o := f.scaffoldOptions(base)
	eo := engineOptions{
		fsys:     fsys,
		needsLLM: f.template == "" || f.customize != "",
		noRunner: f.inMemory(),
	}

	var state *core.State
	err = runSteps(cmd.Context(), core.ScaffoldSteps(o), func(ctx context.Context, pub core.StepPublisher) error {
		e, err := current.engine(ctx, eo, pub)
		if err != nil {
			return err
		}
		state, err = e.Scaffold(ctx, req, o)
		return err
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	report := state.Report
	printReport(out, report)

	switch {
	case f.dryRun:
		tree, err := fsys.ListFiles(report.Root)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, nameStyle.Render(req.Name))
		fmt.Fprint(out, fs.Tree(tree))
		return nil
	case f.archive != "":
		if err := writeArchive(fsys, report.Root, f.archive); err != nil {
			return err
		}
		fmt.Fprintf(out, "Project archived to: %s\n", nameStyle.Render(f.archive))
		return nil
	}

	fmt.Fprintln(out, projectMessage(report.Root))
	fmt.Fprint(out, nextSteps(report.Root, devenv.ParseLanguage(req.Language), f.setup))
	return nil
}

func writeArchive(fsys *fs.FileSystem, root, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	if err := fsys.WriteToZip(root, out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func nextSteps(root string, lang devenv.Language, setupDone bool) string {
	var b strings.Builder
	b.WriteString("\nNext steps:\n")
	fmt.Fprintf(&b, "  cd %s\n", filepath.Clean(root))
	if !setupDone {
		b.WriteString("  devspark check\n")
	}
	switch lang {
	case devenv.Python:
		b.WriteString("  source venv/bin/activate\n")
	case devenv.Node:
		b.WriteString("  npm start\n")
	case devenv.Go:
		b.WriteString("  go run .\n")
	}
	return b.String()
}
