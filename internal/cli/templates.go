package cli

import (
	"context"
	"fmt"

	"github.com/santiagomed/devspark/internal/core"
	"github.com/santiagomed/devspark/internal/fs"
	"github.com/santiagomed/devspark/internal/plan"
	"github.com/spf13/cobra"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Manage project templates",
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := current.store().List()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(names) == 0 {
			fmt.Fprintln(out, faintStyle.Render(fmt.Sprintf("No templates in %s", current.cfg.TemplatesDir)))
			return nil
		}
		for _, n := range names {
			fmt.Fprintln(out, n)
		}
		return nil
	},
}

var templatesCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Save a template from a plan file or a generated plan",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplatesCreate,
}

var templatesCustomizeCmd = &cobra.Command{
	Use:   "customize TEMPLATE",
	Short: "Adapt a template to a project with the model",
	Long: `Ask the model to adapt a saved template to a project. The result is saved
as a new template with --save, otherwise it is written to disk.`,
	Args: cobra.ExactArgs(1),
	RunE: runTemplatesCustomize,
}

func init() {
	templatesCreateCmd.Flags().String("plan", "", "Plan file to save (generated when empty)")
	templatesCreateCmd.Flags().StringP("description", "d", "", "Template description")
	templatesCreateCmd.Flags().StringP("type", "t", "web app", "Project type, when generating")
	templatesCreateCmd.Flags().StringP("lang", "l", "Python", "Template language")

	templatesCustomizeCmd.Flags().StringP("name", "n", "my-project", "Project name")
	templatesCustomizeCmd.Flags().StringP("type", "t", "web app", "Project type")
	templatesCustomizeCmd.Flags().StringP("lang", "l", "Python", "Primary language")
	templatesCustomizeCmd.Flags().StringP("description", "d", "", "Changes to apply to the template")
	templatesCustomizeCmd.Flags().String("save", "", "Save the result as a new template")
	templatesCustomizeCmd.Flags().String("dir", "", "Parent directory of the project (default from config)")

	templatesCmd.AddCommand(templatesListCmd, templatesCreateCmd, templatesCustomizeCmd)
}

func runTemplatesCreate(cmd *cobra.Command, args []string) error {
	name := args[0]
	planPath, _ := cmd.Flags().GetString("plan")
	description, _ := cmd.Flags().GetString("description")
	projectType, _ := cmd.Flags().GetString("type")
	language, _ := cmd.Flags().GetString("lang")

	fsys := fs.NewOsFileSystem()
	var doc plan.Document
	var e *core.Engine
	var err error
	if planPath != "" {
		if doc, err = readPlan(fsys, planPath); err != nil {
			return err
		}
		if e, err = current.engine(cmd.Context(), engineOptions{fsys: fsys, noRunner: true}, nil); err != nil {
			return err
		}
	} else {
		req := core.DefaultRequest()
		req.Name = name
		req.Type = projectType
		req.Language = language
		req.Description = description
		steps := []core.StepType{core.BuildPrompt, core.RequestCompletion, core.NormalizePlan, core.Done}
		err = runSteps(cmd.Context(), steps, func(ctx context.Context, pub core.StepPublisher) error {
			var err error
			if e, err = current.engine(ctx, engineOptions{fsys: fsys, needsLLM: true, noRunner: true}, pub); err != nil {
				return err
			}
			doc, err = e.GeneratePlan(ctx, req)
			return err
		})
		if err != nil {
			return err
		}
	}

	path, err := e.SaveTemplate(name, description, language, doc)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Template saved to: %s\n", nameStyle.Render(path))
	return nil
}

func runTemplatesCustomize(cmd *cobra.Command, args []string) error {
	templateName := args[0]
	req := core.DefaultRequest()
	req.Name, _ = cmd.Flags().GetString("name")
	req.Type, _ = cmd.Flags().GetString("type")
	req.Language, _ = cmd.Flags().GetString("lang")
	description, _ := cmd.Flags().GetString("description")
	saveAs, _ := cmd.Flags().GetString("save")
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = current.cfg.OutputDir
	}

	fsys := fs.NewOsFileSystem()
	var e *core.Engine
	var doc plan.Document
	steps := []core.StepType{core.LoadTemplate, core.BuildPrompt, core.RequestCompletion, core.NormalizePlan, core.Done}
	err := runSteps(cmd.Context(), steps, func(ctx context.Context, pub core.StepPublisher) error {
		var err error
		if e, err = current.engine(ctx, engineOptions{fsys: fsys, needsLLM: true, noRunner: true}, pub); err != nil {
			return err
		}
		if description != "" {
			doc, err = e.CustomizeTemplateWithAI(ctx, req, templateName, description)
		} else {
			doc, err = e.CustomizeTemplate(ctx, req, templateName)
		}
		return err
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if saveAs != "" {
		path, err := e.SaveTemplate(saveAs, description, req.Language, doc)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Template saved to: %s\n", nameStyle.Render(path))
		return nil
	}
	report, err := e.Apply(dir, req.Name, doc, false)
	if err != nil {
		return err
	}
	printReport(out, report)
	fmt.Fprintln(out, projectMessage(report.Root))
	return nil
}
