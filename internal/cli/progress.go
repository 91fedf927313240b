package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/list"
	"github.com/mattn/go-isatty"
	"github.com/santiagomed/devspark/internal/core"
)

// operation is the work behind a progress view. It must report its steps
// to pub.
type operation func(ctx context.Context, pub core.StepPublisher) error

var interactive = func() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type stepErrMsg struct{ err error }

type resultMsg struct{ err error }

type progressModel struct {
	spinner     spinner.Model
	steps       []core.StepType
	completed   []core.StepType
	publisher   *CliStepPublisher
	result      <-chan error
	cancel      context.CancelFunc
	err         error
	finished    bool
	interrupted bool
}

func newProgressModel(steps []core.StepType, pub *CliStepPublisher, result <-chan error, cancel context.CancelFunc) progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("202"))
	return progressModel{
		spinner:   s,
		steps:     steps,
		publisher: pub,
		result:    result,
		cancel:    cancel,
	}
}

func (m progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listen)
}

func (m progressModel) listen() tea.Msg {
	select {
	case step := <-m.publisher.stepChan:
		return step
	case err := <-m.publisher.errorChan:
		return stepErrMsg{err}
	case err := <-m.result:
		return resultMsg{err}
	}
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
			m.interrupted = true
			m.cancel()
			message := faintStyle.Render("Interrupted. Exiting application...")
			return m, tea.Sequence(tea.Printf("%s", message), tea.Quit)
		}
		return m, nil
	case core.StepType:
		m.completed = append(m.completed, msg)
		return m, m.listen
	case stepErrMsg:
		// the operation itself returns the error
		return m, m.listen
	case resultMsg:
		m.drain()
		m.err = msg.err
		m.finished = true
		return m, tea.Quit
	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

// drain collects steps published before the result arrived.
func (m *progressModel) drain() {
	for {
		select {
		case step := <-m.publisher.stepChan:
			m.completed = append(m.completed, step)
		default:
			return
		}
	}
}

func (m progressModel) View() string {
	enumerator := func(items list.Items, i int) string {
		if i < len(m.completed) {
			return checkStyle.Render("✓")
		}
		if m.err != nil {
			return errorStyle.Render("✗")
		}
		return m.spinner.View()
	}

	l := list.New().Enumerator(enumerator)
	for i, step := range m.steps {
		if step == core.Done && m.finished {
			continue
		}
		if i < len(m.completed) {
			l.Item(step.Past())
		} else if i == len(m.completed) {
			l.Item(step.Present())
		}
	}
	return fmt.Sprint(l) + "\n"
}

// runSteps runs op, showing steps as a spinner list on a terminal and as
// plain lines otherwise.
func runSteps(ctx context.Context, steps []core.StepType, op operation) error {
	if !interactive() {
		return op(ctx, &textPublisher{w: os.Stdout})
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pub := NewCliStepPublisher(current.logger)
	result := make(chan error, 1)
	go func() {
		result <- op(ctx, pub)
	}()

	final, err := tea.NewProgram(newProgressModel(steps, pub, result, cancel)).Run()
	if err != nil {
		cancel()
		<-result
		return err
	}
	pm := final.(progressModel)
	if pm.finished {
		return pm.err
	}
	cancel()
	return <-result
}
