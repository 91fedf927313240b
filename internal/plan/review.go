package plan

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santiagomed/devspark/internal/result"
)

type Issue struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// UnmarshalJSON also accepts a bare string, read as an info-level issue.
func (i *Issue) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*i = Issue{Severity: "info", Message: s}
		return nil
	}
	type plain Issue
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*i = Issue(p)
	if i.Severity == "" {
		i.Severity = "info"
	}
	return nil
}

// Review is the model's assessment of a configuration file.
type Review struct {
	Issues        []Issue  `json:"issues"`
	Suggestions   []string `json:"suggestions"`
	BestPractices []string `json:"best_practices"`
}

// ExtractReview pulls a Review out of a model completion.
func ExtractReview(raw string) (Review, error) {
	for _, c := range candidates(raw) {
		obj, ok := parseObject(c)
		if !ok {
			continue
		}
		_, hasIssues := obj["issues"]
		_, hasSuggestions := obj["suggestions"]
		_, hasPractices := obj["best_practices"]
		if !hasIssues && !hasSuggestions && !hasPractices {
			continue
		}
		b, _ := json.Marshal(obj)
		var r Review
		if err := json.Unmarshal(b, &r); err != nil {
			return Review{}, result.WithRaw(result.TypeInvalidStructure, fmt.Sprintf("malformed review: %v", err), raw)
		}
		return r, nil
	}
	if _, err := ExtractObject(raw); err != nil {
		return Review{}, err
	}
	return Review{}, result.WithRaw(result.TypeInvalidStructure, "response has no issues, suggestions or best_practices", raw)
}

// Markdown renders the review for terminal display.
func (r Review) Markdown(title string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n## Issues\n\n", title)
	if len(r.Issues) == 0 {
		b.WriteString("No issues found.\n")
	}
	for _, i := range r.Issues {
		fmt.Fprintf(&b, "- **%s**: %s\n", strings.ToUpper(i.Severity), i.Message)
	}
	writeList(&b, "Suggestions", r.Suggestions)
	writeList(&b, "Best practices", r.BestPractices)
	return b.String()
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## %s\n\n", heading)
	for _, s := range items {
		fmt.Fprintf(b, "- %s\n", s)
	}
}
