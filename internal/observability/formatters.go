// Package observability provides logging setup and formatted output for the CLI.
package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/career-compass/internal/careers"
	"github.com/jonathan/career-compass/internal/flow"
	"github.com/jonathan/career-compass/internal/schemas"
	"github.com/jonathan/career-compass/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 7
)

// Printer writes human-readable flow results
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content. Long lines wrap at
// word boundaries.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	width := boxWidth - 4
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", width, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		for _, wrapped := range wrap(line, width) {
			fmt.Fprintf(p.out, "│ %-*s │\n", width, wrapped)
		}
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// wrap splits line into chunks of at most width bytes, preferring spaces.
// Continuation lines keep the original indentation.
func wrap(line string, width int) []string {
	if len(line) <= width {
		return []string{line}
	}
	indent := line[:len(line)-len(strings.TrimLeft(line, " "))]
	if len(indent) > width/2 {
		indent = ""
	}

	var out []string
	rest := line
	for len(rest) > width {
		cut := strings.LastIndex(rest[:width+1], " ")
		if cut <= len(indent) {
			cut = width
		}
		out = append(out, strings.TrimRight(rest[:cut], " "))
		rest = indent + strings.TrimLeft(rest[cut:], " ")
	}
	return append(out, rest)
}

func bulletList(sb *strings.Builder, items []string) {
	count := min(len(items), maxItemsToShow)
	for i := 0; i < count; i++ {
		fmt.Fprintf(sb, "  • %s\n", items[i])
	}
	if len(items) > maxItemsToShow {
		fmt.Fprintf(sb, "  ... and %d more\n", len(items)-maxItemsToShow)
	}
}

// PrintFlows lists the registered flows with their model tier.
func (p *Printer) PrintFlows(runners []flow.Runner) {
	if len(runners) == 0 {
		return
	}

	var sb strings.Builder
	for i, r := range runners {
		fmt.Fprintf(&sb, "%-20s [%s]\n", r.Name(), r.Tier())
		fmt.Fprintf(&sb, "    %s", r.Description())
		if i < len(runners)-1 {
			sb.WriteString("\n")
		}
	}
	p.printBox(fmt.Sprintf("FLOWS (%d)", len(runners)), sb.String())
}

// PrintRoadmaps lists catalog roadmaps.
func (p *Printer) PrintRoadmaps(roadmaps []careers.Roadmap) {
	if len(roadmaps) == 0 {
		return
	}

	var sb strings.Builder
	for i, r := range roadmaps {
		fmt.Fprintf(&sb, "%s (%s)\n", r.Title, r.Slug)
		fmt.Fprintf(&sb, "    %s", r.Description)
		if i < len(roadmaps)-1 {
			sb.WriteString("\n")
		}
	}
	p.printBox("ROADMAPS", sb.String())
}

// PrintChatReply prints one assistant reply in the REPL.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintChatReply(reply string) {
	for _, line := range strings.Split(strings.TrimSpace(reply), "\n") {
		for _, wrapped := range wrap(line, boxWidth) {
			fmt.Fprintf(p.out, "  %s\n", wrapped)
		}
	}
	fmt.Fprintln(p.out)
}

// PrintValidation prints schema violations, one per line.
func (p *Printer) PrintValidation(name string, err *schemas.ValidationError) {
	if err == nil {
		p.printBox("VALID: "+name, "Document satisfies the schema.")
		return
	}
	var sb strings.Builder
	for _, fe := range err.Errors {
		fmt.Fprintf(&sb, "✗ %s: %s\n", fe.Field, fe.Message)
	}
	p.printBox(fmt.Sprintf("INVALID: %s (%d)", name, len(err.Errors)), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintFlowOutput prints a flow result. Known flows get a dedicated layout;
// anything else, or output that does not decode, is printed as indented JSON.
func (p *Printer) PrintFlowOutput(name string, out json.RawMessage) {
	if len(out) == 0 {
		return
	}

	var (
		content string
		ok      bool
	)
	switch name {
	case careers.FlowGoalSetting:
		content, ok = formatAs(out, formatGoalPlan)
	case careers.FlowCareerRoadmap:
		content, ok = formatAs(out, formatRoadmap)
	case careers.FlowJobListings:
		content, ok = formatAs(out, formatJobListings)
	case careers.FlowNetworking:
		content, ok = formatAs(out, formatNetworking)
	case careers.FlowCareerSuggestions:
		content, ok = formatAs(out, func(o *types.CareerSuggestionsOutput) string {
			var sb strings.Builder
			bulletList(&sb, o.CareerSuggestions)
			return sb.String()
		})
	case careers.FlowResumeTuning:
		content, ok = formatAs(out, func(o *types.ResumeTuningOutput) string {
			fixable := "no"
			if o.IsFixable {
				fixable = "yes"
			}
			return fmt.Sprintf("Fixable: %s\n\n%s", fixable, o.Feedback)
		})
	case careers.FlowCareerChat:
		content, ok = formatAs(out, func(o *types.CareerChatOutput) string { return o.Response })
	case careers.FlowRefineDescription:
		content, ok = formatAs(out, func(o *types.RefineDescriptionOutput) string { return o.RefinedDescription })
	case careers.FlowCoverLetter:
		content, ok = formatAs(out, func(o *types.CoverLetterOutput) string { return o.CoverLetter })
	case careers.FlowResumeCorrection:
		content, ok = formatAs(out, func(o *types.ResumeCorrectionOutput) string { return o.CorrectedContent })
	}
	if !ok {
		content = indentJSON(out)
	}

	p.printBox(strings.ToUpper(name), strings.TrimSuffix(content, "\n"))
}

func formatAs[T any](raw json.RawMessage, format func(*T) string) (string, bool) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	return format(&v), true
}

func indentJSON(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(pretty)
}

func formatGoalPlan(o *types.GoalSettingOutput) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n\n", o.Title)
	fmt.Fprintf(&sb, "Goal: %s\n\n", o.SmartGoal)
	for i, step := range o.Steps {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, step.Title)
		fmt.Fprintf(&sb, "   %s\n", step.Description)
		fmt.Fprintf(&sb, "   Metric: %s\n", step.Metric)
	}
	return sb.String()
}

func formatRoadmap(o *types.CareerRoadmapOutput) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", o.Title)
	fmt.Fprintf(&sb, "%s\n\n", o.Description)
	for i, step := range o.Steps {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, step.Title)
		fmt.Fprintf(&sb, "   %s\n", step.Description)
	}
	return sb.String()
}

func formatJobListings(o *types.JobListingsOutput) string {
	var sb strings.Builder
	for i, job := range o.Jobs {
		fmt.Fprintf(&sb, "%s at %s (%s)\n", job.Title, job.Company, job.Location)
		fmt.Fprintf(&sb, "    %s\n", job.Description)
		if i < len(o.Jobs)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func formatNetworking(o *types.NetworkingOutput) string {
	var sb strings.Builder
	sb.WriteString("Reach out to:\n")
	bulletList(&sb, o.ProfessionalTitles)
	fmt.Fprintf(&sb, "\nMessage:\n%s\n", o.ConnectionMessage)
	return sb.String()
}
