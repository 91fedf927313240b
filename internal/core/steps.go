package core

import (
	"context"
	"fmt"

	"github.com/santiagomed/devspark/internal/devenv"
	"github.com/santiagomed/devspark/internal/fs"
	"github.com/santiagomed/devspark/internal/llm"
	"github.com/santiagomed/devspark/internal/plan"
	"github.com/santiagomed/devspark/internal/result"
	"github.com/santiagomed/devspark/internal/template"
)

// Dependencies are the collaborators the steps call out to. Client is
// expected to already carry the cache and retry wrappers.
type Dependencies struct {
	Client       llm.Client
	Options      llm.Options
	Materializer *fs.Materializer
	Store        *template.Store
	Runner       devenv.Runner
}

type DefaultStepManager struct {
	steps []StepType
	impl  map[StepType]Step
}

func NewDefaultStepManager(d Dependencies, steps ...StepType) *DefaultStepManager {
	return &DefaultStepManager{
		steps: steps,
		impl: map[StepType]Step{
			LoadTemplate:      &loadTemplateStep{store: d.Store},
			BuildPrompt:       &buildPromptStep{},
			RequestCompletion: &requestCompletionStep{client: d.Client, opts: d.Options},
			NormalizePlan:     &normalizePlanStep{},
			ApplyTemplate:     &applyTemplateStep{},
			Materialize:       &materializeStep{m: d.Materializer, store: d.Store},
			SetupEnvironment:  &setupEnvironmentStep{m: d.Materializer, runner: d.Runner},
			Done:              &doneStep{},
		},
	}
}

func (sm *DefaultStepManager) GetSteps() []StepType { return sm.steps }

func (sm *DefaultStepManager) GetStep(step StepType) Step { return sm.impl[step] }

type loadTemplateStep struct {
	store *template.Store
}

func (s *loadTemplateStep) Execute(ctx context.Context, state *State) error {
	if s.store == nil {
		return fmt.Errorf("no template store configured")
	}
	def, err := s.store.Load(state.TemplateName)
	if err != nil {
		return err
	}
	state.Template = def
	state.Logger.Debug(fmt.Sprintf("Loaded template %s", def.Name))
	return nil
}

type buildPromptStep struct{}

func (s *buildPromptStep) Execute(ctx context.Context, state *State) error {
	switch state.Task {
	case TaskScaffold:
		state.Prompt = ScaffoldPrompt(state.Request)
		state.Schema = plan.SchemaCurrent
	case TaskCustomize:
		if state.Template == nil {
			return fmt.Errorf("no template loaded")
		}
		state.Prompt = TemplateCustomizationPrompt(state.Request, state.Template)
		state.Schema = plan.SchemaLegacy
	case TaskCustomizeWithAI:
		if state.Template == nil {
			return fmt.Errorf("no template loaded")
		}
		state.Prompt = AICustomizationPrompt(state.Request, state.Template, state.Instructions)
		state.Schema = plan.SchemaLegacy
	default:
		return fmt.Errorf("unknown task %d", state.Task)
	}
	state.Logger.Debug(fmt.Sprintf("Built prompt (%d bytes)", len(state.Prompt)))
	return nil
}

type requestCompletionStep struct {
	client llm.Client
	opts   llm.Options
}

func (s *requestCompletionStep) Execute(ctx context.Context, state *State) error {
	if s.client == nil {
		return result.New(result.TypeValue, "no LLM client configured")
	}
	opts := s.opts
	opts.JSON = true
	raw, err := s.client.Complete(ctx, state.Prompt, opts)
	if err != nil {
		return result.From(err)
	}
	state.Raw = raw
	return nil
}

type normalizePlanStep struct{}

func (s *normalizePlanStep) Execute(ctx context.Context, state *State) error {
	doc, err := plan.Extract(state.Raw, state.Schema)
	if err != nil {
		return err
	}
	state.Plan = doc
	state.Logger.Info(fmt.Sprintf("Plan has %d directories and %d files", len(doc.Directories), len(doc.Files)))
	return nil
}

type applyTemplateStep struct{}

// Execute substitutes the request into the template, or into the plan when
// the model already adapted the template.
func (s *applyTemplateStep) Execute(ctx context.Context, state *State) error {
	if state.Instructions != "" && state.Plan.IsEmpty() {
		return result.WithRaw(result.TypeInvalidStructure, "customized template has no files or directories", state.Raw)
	}
	def := state.Template
	if !state.Plan.IsEmpty() || def == nil {
		name := state.TemplateName
		if name == "" {
			name = state.Request.Name
		}
		var err error
		if def, err = template.FromDocument(name, "", state.Request.Language, state.Plan); err != nil {
			return err
		}
	}
	doc, err := template.Substitute(def, state.Request.TemplateContext())
	if err != nil {
		return err
	}
	state.Plan = doc
	return nil
}

type materializeStep struct {
	m     *fs.Materializer
	store *template.Store
}

// Execute writes the plan. A template used as is, with no plan built from
// it, is created straight from the store.
func (s *materializeStep) Execute(ctx context.Context, state *State) error {
	var report *fs.Report
	var err error
	if state.Plan.IsEmpty() && state.Template == nil && state.TemplateName != "" {
		if s.store == nil {
			return fmt.Errorf("no template store configured")
		}
		report, err = template.CreateProjectFromTemplate(s.store, s.m, state.TemplateName,
			state.BasePath, state.Request.Name, state.Request.TemplateContext(), state.Logger)
	} else {
		report, err = s.m.Materialize(state.BasePath, state.Request.Name, state.Plan)
		if err == nil {
			template.PostProcess(s.m.FileSystem(), report, state.Logger)
		}
	}
	if err != nil {
		return err
	}
	for _, f := range report.Failed {
		state.Logger.Warn(fmt.Sprintf("Skipped %s: %v", f.Path, f.Err))
	}
	state.Report = report
	return nil
}

type setupEnvironmentStep struct {
	m      *fs.Materializer
	runner devenv.Runner
}

func (s *setupEnvironmentStep) Execute(ctx context.Context, state *State) error {
	if state.Setup == nil || state.Report == nil {
		return nil
	}
	return devenv.Setup(ctx, s.m.FileSystem(), s.runner, state.Report.Root, *state.Setup, state.Logger)
}

type doneStep struct{}

func (s *doneStep) Execute(ctx context.Context, state *State) error {
	state.Logger.Debug("Pipeline finished")
	return nil
}
