package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/santiagomed/devspark/internal/devenv"
	"github.com/santiagomed/devspark/internal/fs"
)

var (
	nameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

// renderMarkdown styles md for the terminal. Output that is piped gets the
// markdown unchanged.
func renderMarkdown(md string) string {
	if !interactive() {
		return md
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

func findingIcon(l devenv.Level) string {
	switch l {
	case devenv.LevelError:
		return errorStyle.Render("❌")
	case devenv.LevelWarning:
		return warningStyle.Render("⚠️")
	case devenv.LevelSuggestion:
		return infoStyle.Render("💡")
	default:
		return infoStyle.Render("ℹ️")
	}
}

// printFindings writes one line per finding and returns how many are errors.
func printFindings(w io.Writer, findings []devenv.Finding) int {
	if len(findings) == 0 {
		fmt.Fprintln(w, checkStyle.Render("✓ No issues found."))
		return 0
	}
	errs := 0
	for _, f := range findings {
		if f.Level == devenv.LevelError {
			errs++
		}
		fmt.Fprintf(w, "%s %s\n", findingIcon(f.Level), f.Message)
	}
	return errs
}

func printReport(w io.Writer, r *fs.Report) {
	if r == nil {
		return
	}
	rel := func(p string) string {
		if s, err := filepath.Rel(r.Root, p); err == nil {
			return s
		}
		return p
	}
	fmt.Fprintf(w, "%d directories, %d files written", len(r.Directories), len(r.Written))
	if len(r.Unchanged) > 0 {
		fmt.Fprintf(w, ", %d unchanged", len(r.Unchanged))
	}
	fmt.Fprintln(w)
	for _, f := range r.Failed {
		fmt.Fprintf(w, "%s %s: %v\n", errorStyle.Render("✗"), rel(f.Path), f.Err)
	}
}

func projectMessage(root string) string {
	return fmt.Sprintf("Project generated in directory: %s", nameStyle.Render(root))
}
