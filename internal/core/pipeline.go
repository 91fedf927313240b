package core

import (
	"context"
	"fmt"
	"time"

	"github.com/santiagomed/devspark/internal/devenv"
	"github.com/santiagomed/devspark/internal/fs"
	"github.com/santiagomed/devspark/internal/logger"
	"github.com/santiagomed/devspark/internal/plan"
	"github.com/santiagomed/devspark/internal/template"
)

type Step interface {
	Execute(ctx context.Context, state *State) error
}

type StepType int

const (
	LoadTemplate StepType = iota
	BuildPrompt
	RequestCompletion
	NormalizePlan
	ApplyTemplate
	Materialize
	SetupEnvironment
	Done
)

var stepLabels = map[StepType][2]string{
	LoadTemplate:      {"Loading template.", "Loaded template."},
	BuildPrompt:       {"Building prompt.", "Built prompt."},
	RequestCompletion: {"Waiting for the model.", "Received model response."},
	NormalizePlan:     {"Normalizing plan.", "Normalized plan."},
	ApplyTemplate:     {"Applying template.", "Applied template."},
	Materialize:       {"Writing project files.", "Wrote project files."},
	SetupEnvironment:  {"Setting up development environment.", "Set up development environment."},
	Done:              {"Done.", "Done."},
}

func (s StepType) String() string {
	switch s {
	case LoadTemplate:
		return "LoadTemplate"
	case BuildPrompt:
		return "BuildPrompt"
	case RequestCompletion:
		return "RequestCompletion"
	case NormalizePlan:
		return "NormalizePlan"
	case ApplyTemplate:
		return "ApplyTemplate"
	case Materialize:
		return "Materialize"
	case SetupEnvironment:
		return "SetupEnvironment"
	case Done:
		return "Done"
	}
	return fmt.Sprintf("StepType(%d)", int(s))
}

// Present is the label shown while the step runs.
func (s StepType) Present() string { return stepLabels[s][0] }

// Past is the label shown once the step completed.
func (s StepType) Past() string { return stepLabels[s][1] }

// Task selects the prompt a pipeline builds.
type Task int

const (
	TaskScaffold Task = iota
	TaskCustomize
	TaskCustomizeWithAI
)

// State is what the steps of one pipeline run share.
type State struct {
	Request      *ProjectRequest
	Task         Task
	TemplateName string
	Instructions string
	BasePath     string
	Setup        *devenv.SetupOptions

	Template *template.Definition
	Prompt   string
	Schema   plan.Schema
	Raw      string
	Plan     plan.Document
	Report   *fs.Report

	Logger logger.Logger
}

type StepManager interface {
	GetSteps() []StepType
	GetStep(step StepType) Step
}

type Pipeline struct {
	stepManager StepManager
	state       *State
	publisher   StepPublisher
}

func NewPipeline(state *State, sm StepManager, pub StepPublisher) *Pipeline {
	if state.Logger == nil {
		state.Logger = logger.NewNullLogger()
	}
	if pub == nil {
		pub = &DefaultStepPublisher{}
	}
	return &Pipeline{state: state, stepManager: sm, publisher: pub}
}

func (p *Pipeline) State() *State { return p.state }

func (p *Pipeline) Execute(ctx context.Context) error {
	steps := p.stepManager.GetSteps()
	p.state.Logger.Info("Starting pipeline execution")
	for i, stepType := range steps {
		if err := ctx.Err(); err != nil {
			p.state.Logger.Info("Pipeline execution cancelled")
			p.publisher.Error(stepType, err)
			return err
		}

		p.state.Logger.Debug(fmt.Sprintf("Executing step %d: %v", i, stepType))
		step := p.stepManager.GetStep(stepType)
		if step == nil {
			err := fmt.Errorf("step %v not found", stepType)
			p.state.Logger.Error(err.Error())
			p.publisher.Error(stepType, err)
			return err
		}

		startTime := time.Now()
		if err := step.Execute(ctx, p.state); err != nil {
			p.state.Logger.Error(fmt.Sprintf("Error executing step %v: %v", stepType, err))
			p.publisher.Error(stepType, err)
			return err
		}
		p.state.Logger.Info(fmt.Sprintf("Step %v completed in %v", stepType, time.Since(startTime)))
		p.publisher.PublishStep(stepType)
	}

	p.state.Logger.Info("Pipeline execution completed")
	return nil
}

type StepPublisher interface {
	PublishStep(step StepType)
	Error(step StepType, err error)
}

type DefaultStepPublisher struct{}

func (p *DefaultStepPublisher) PublishStep(step StepType) {}

func (p *DefaultStepPublisher) Error(step StepType, err error) {}
