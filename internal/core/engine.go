package core

import (
	"context"
	"fmt"

	"github.com/santiagomed/devspark/internal/devenv"
	"github.com/santiagomed/devspark/internal/fs"
	"github.com/santiagomed/devspark/internal/llm"
	"github.com/santiagomed/devspark/internal/logger"
	"github.com/santiagomed/devspark/internal/plan"
	"github.com/santiagomed/devspark/internal/result"
	"github.com/santiagomed/devspark/internal/template"
)

// Engine runs the devspark operations. Each call builds its own pipeline,
// so an Engine may be reused across operations but not concurrently.
type Engine struct {
	deps   Dependencies
	pub    StepPublisher
	logger logger.Logger
}

func NewEngine(d Dependencies, pub StepPublisher, l logger.Logger) *Engine {
	if l == nil {
		l = logger.NewNullLogger()
	}
	if pub == nil {
		pub = &DefaultStepPublisher{}
	}
	return &Engine{deps: d, pub: pub, logger: l}
}

// ScaffoldOptions controls Scaffold. With a Template and no Instructions the
// template is used as is and the model is not called.
type ScaffoldOptions struct {
	BasePath     string
	Template     string
	Instructions string
	Setup        *devenv.SetupOptions
}

// ScaffoldSteps lists the steps Scaffold runs for o.
func ScaffoldSteps(o ScaffoldOptions) []StepType {
	var steps []StepType
	switch {
	case o.Template == "":
		steps = []StepType{BuildPrompt, RequestCompletion, NormalizePlan, Materialize}
	case o.Instructions == "":
		steps = []StepType{Materialize}
	default:
		steps = []StepType{LoadTemplate, BuildPrompt, RequestCompletion, NormalizePlan, ApplyTemplate, Materialize}
	}
	if o.Setup != nil {
		steps = append(steps, SetupEnvironment)
	}
	return append(steps, Done)
}

func (e *Engine) run(ctx context.Context, state *State, steps ...StepType) (*State, error) {
	state.Logger = e.logger
	if state.Request != nil {
		state.Logger = e.logger.WithField("project", state.Request.Name)
	}
	p := NewPipeline(state, NewDefaultStepManager(e.deps, steps...), e.pub)
	if err := p.Execute(ctx); err != nil {
		return state, err
	}
	return state, nil
}

// Scaffold plans a project and writes it under o.BasePath/r.Name.
func (e *Engine) Scaffold(ctx context.Context, r *ProjectRequest, o ScaffoldOptions) (*State, error) {
	if err := r.Validate(); err != nil {
		return nil, result.Wrap(result.TypeValue, err)
	}
	state := &State{
		Request:      r,
		Task:         TaskScaffold,
		TemplateName: o.Template,
		Instructions: o.Instructions,
		BasePath:     o.BasePath,
		Setup:        o.Setup,
	}
	if o.Template != "" && o.Instructions != "" {
		state.Task = TaskCustomizeWithAI
	}
	return e.run(ctx, state, ScaffoldSteps(o)...)
}

// GeneratePlan asks the model for a project plan without writing it.
func (e *Engine) GeneratePlan(ctx context.Context, r *ProjectRequest) (plan.Document, error) {
	state, err := e.run(ctx, &State{Request: r, Task: TaskScaffold}, BuildPrompt, RequestCompletion, NormalizePlan, Done)
	if err != nil {
		return plan.Document{}, err
	}
	return state.Plan, nil
}

// CustomizeTemplate asks the model to adapt the named template to r. The
// result keeps any placeholders the model left in place.
func (e *Engine) CustomizeTemplate(ctx context.Context, r *ProjectRequest, name string) (plan.Document, error) {
	return e.customize(ctx, &State{Request: r, Task: TaskCustomize, TemplateName: name})
}

// CustomizeTemplateWithAI is CustomizeTemplate guided by a free-text
// description of the wanted changes.
func (e *Engine) CustomizeTemplateWithAI(ctx context.Context, r *ProjectRequest, name, description string) (plan.Document, error) {
	if description == "" {
		return plan.Document{}, result.New(result.TypeValue, "customization description is empty")
	}
	return e.customize(ctx, &State{Request: r, Task: TaskCustomizeWithAI, TemplateName: name, Instructions: description})
}

func (e *Engine) customize(ctx context.Context, state *State) (plan.Document, error) {
	state, err := e.run(ctx, state, LoadTemplate, BuildPrompt, RequestCompletion, NormalizePlan, Done)
	if err != nil {
		return plan.Document{}, err
	}
	return state.Plan, nil
}

// Review asks the model to review a configuration file. path only decides
// the file type.
func (e *Engine) Review(ctx context.Context, path, content string) (plan.Review, error) {
	if e.deps.Client == nil {
		return plan.Review{}, result.New(result.TypeValue, "no LLM client configured")
	}
	fileType := FileType(path)
	e.logger.Info(fmt.Sprintf("Reviewing %s as %s", path, fileType))
	opts := e.deps.Options
	opts.JSON = true
	raw, err := e.deps.Client.Complete(ctx, ReviewPrompt(content, fileType), opts)
	if err != nil {
		return plan.Review{}, result.From(err)
	}
	return plan.ExtractReview(raw)
}

// Apply writes a saved plan. With update set, files whose content did not
// change are left alone.
func (e *Engine) Apply(basePath, projectName string, doc plan.Document, update bool) (*fs.Report, error) {
	if !fs.IsValidProjectName(projectName) {
		return nil, result.New(result.TypeValue, fmt.Sprintf("invalid project name %q", projectName))
	}
	m := e.deps.Materializer
	var report *fs.Report
	var err error
	if update {
		report, err = m.Update(basePath, projectName, doc)
	} else {
		report, err = m.Materialize(basePath, projectName, doc)
	}
	if err != nil {
		return nil, err
	}
	template.PostProcess(m.FileSystem(), report, e.logger)
	return report, nil
}

// SaveTemplate stores doc as a template named name.
func (e *Engine) SaveTemplate(name, description, language string, doc plan.Document) (string, error) {
	if e.deps.Store == nil {
		return "", fmt.Errorf("no template store configured")
	}
	def, err := template.FromDocument(name, description, language, doc)
	if err != nil {
		return "", err
	}
	return e.deps.Store.Save(def)
}
