package cli

import (
	"fmt"
	"path/filepath"

	"github.com/santiagomed/devspark/internal/devenv"
	"github.com/santiagomed/devspark/internal/fs"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the development environment of a project",
	Long: `Check the tools installed on this machine and the files of a project:
missing .env keys, invalid JSON, YAML and TOML, missing README or LICENSE.
With --file the given configuration file is also reviewed by the model.`,
	RunE: runCheck,
}

type checkFlags struct {
	dir      string
	file     string
	language string
}

func init() {
	checkCmd.Flags().String("dir", ".", "Project directory")
	checkCmd.Flags().StringP("file", "f", "", "Configuration file to review")
	checkCmd.Flags().StringP("lang", "l", "", "Project language (detected when empty)")
}

func parseCheckFlags(cmd *cobra.Command) (checkFlags, error) {
	var f checkFlags
	var err error
	if f.dir, err = cmd.Flags().GetString("dir"); err != nil {
		return f, err
	}
	if f.file, err = cmd.Flags().GetString("file"); err != nil {
		return f, err
	}
	if f.language, err = cmd.Flags().GetString("lang"); err != nil {
		return f, err
	}
	return f, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	f, err := parseCheckFlags(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	fsys := fs.NewOsFileSystem()

	if f.file != "" {
		if err := reviewFile(cmd, fsys, f.file, false); err != nil {
			return err
		}
	}

	lang := devenv.ParseLanguage(f.language)
	if lang == devenv.Unknown {
		lang = devenv.DetectLanguage(fsys, f.dir)
	}
	current.logger.Info(fmt.Sprintf("Checking %s as a %s project", f.dir, lang))

	dir, err := filepath.Abs(f.dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Checking %s\n", nameStyle.Render(dir))
	findings := devenv.RunChecks(ctx, fsys, devenv.NewExecRunner(0, current.logger), dir, lang)
	if errs := printFindings(out, findings); errs > 0 {
		return fmt.Errorf("%d check(s) failed", errs)
	}
	return nil
}
