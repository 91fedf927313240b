package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/santiagomed/devspark/internal/core"
	"github.com/santiagomed/devspark/internal/logger"
)

// CliStepPublisher hands pipeline progress to the progress view. It never
// blocks the pipeline: when a channel is full the event is dropped.
type CliStepPublisher struct {
	stepChan  chan core.StepType
	errorChan chan error
	logger    logger.Logger
}

func NewCliStepPublisher(l logger.Logger) *CliStepPublisher {
	if l == nil {
		l = logger.NewNullLogger()
	}
	return &CliStepPublisher{
		stepChan:  make(chan core.StepType, 100),
		errorChan: make(chan error, 10),
		logger:    l,
	}
}

func (p *CliStepPublisher) PublishStep(step core.StepType) {
	select {
	case p.stepChan <- step:
		p.logger.Debug(fmt.Sprintf("Published step: %v", step))
	default:
		p.logger.Warn(fmt.Sprintf("Failed to publish step: %v. Channel full.", step))
	}
}

func (p *CliStepPublisher) Error(step core.StepType, err error) {
	select {
	case p.errorChan <- err:
		p.logger.Debug(fmt.Sprintf("Published error for step: %v", step))
	default:
		p.logger.Warn(fmt.Sprintf("Failed to publish error for step: %v. Channel full.", step))
	}
}

// textPublisher prints one line per finished step. It is used when stdout
// is not a terminal.
type textPublisher struct {
	w io.Writer
}

var checkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

func (p *textPublisher) PublishStep(step core.StepType) {
	if step == core.Done {
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", checkStyle.Render("✓"), step.Past())
}

func (p *textPublisher) Error(step core.StepType, err error) {
	fmt.Fprintf(p.w, "%s %s\n", errorStyle.Render("✗"), step.Present())
}
