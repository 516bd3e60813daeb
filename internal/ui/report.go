package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Detail is one key/value line of a report. Details keep their order.
type Detail struct {
	Key   string
	Value string
}

// Outcome selects the box a Report is drawn in
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailure
	OutcomeWarning
)

// Report is the result block printed by one-shot commands
type Report struct {
	Outcome Outcome
	Title   string
	Details []Detail
	Err     error
	// Hints are shown under a failure, e.g. things to check
	Hints []string
}

// Success builds a success report
func Success(title string, details ...Detail) Report {
	return Report{Outcome: OutcomeSuccess, Title: title, Details: details}
}

// Failure builds a failure report for err
func Failure(title string, err error, hints ...string) Report {
	return Report{Outcome: OutcomeFailure, Title: title, Err: err, Hints: hints}
}

// Warning builds a warning report
func Warning(title string, details ...Detail) Report {
	return Report{Outcome: OutcomeWarning, Title: title, Details: details}
}

// Render draws the report at the given width
func (r Report) Render(width int) string {
	var marker string
	var color lipgloss.Color
	var titleStyle lipgloss.Style
	switch r.Outcome {
	case OutcomeFailure:
		marker, color, titleStyle = FailureMarker, ErrorColor, ErrorTitleStyle
	case OutcomeWarning:
		marker, color, titleStyle = WarningMarker, WarningColor, WarningTitleStyle
	default:
		marker, color, titleStyle = SuccessMarker, SuccessColor, SuccessTitleStyle
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(marker + " " + r.Title))

	if r.Err != nil {
		b.WriteString("\n\n")
		b.WriteString(ErrorMessageStyle.Render(r.Err.Error()))
	}

	if len(r.Details) > 0 {
		b.WriteString("\n")
		for _, d := range r.Details {
			b.WriteString("\n")
			b.WriteString(ResultKeyStyle.Render(d.Key + ":"))
			b.WriteString(ResultValueStyle.Render(d.Value))
		}
	}

	if len(r.Hints) > 0 {
		b.WriteString("\n\n")
		b.WriteString(LogLineStyle.Render("Things to check:"))
		for _, h := range r.Hints {
			b.WriteString("\n")
			b.WriteString(LogLineStyle.Render("  • " + h))
		}
	}

	return ResultBoxStyle(width, color).Render(b.String())
}

// RenderHeader draws the banner printed above command output
func RenderHeader(width int, title, command string) string {
	content := HeaderTitleStyle.Render(strings.ToUpper(title)) + "\n" +
		HeaderCommandStyle.Render(command)
	return HeaderBorderStyle(width).Render(content)
}

// Printer writes headers and reports to a stream at a fixed width
type Printer struct {
	w     io.Writer
	width int
}

// NewPrinter creates a printer sized to the terminal
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, width: GetTerminalWidth()}
}

// Header prints a command banner
func (p *Printer) Header(title, command string) {
	fmt.Fprintln(p.w, RenderHeader(p.width, title, command))
}

// Report prints a result box
func (p *Printer) Report(r Report) {
	fmt.Fprintln(p.w, r.Render(p.width))
}

// Table prints rows as aligned columns under a header row
func (p *Printer) Table(header []string, rows [][]string) {
	fmt.Fprintln(p.w, RenderTable(header, rows))
}

// RenderTable lays rows out in columns padded to the widest cell
func RenderTable(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	measure := func(row []string) {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}
	measure(header)
	for _, row := range rows {
		measure(row)
	}

	line := func(row []string, style lipgloss.Style) string {
		cells := make([]string, 0, len(widths))
		for i := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			cells = append(cells, style.Width(widths[i]).Render(cell))
		}
		return "  " + strings.Join(cells, "  ")
	}

	var b strings.Builder
	b.WriteString(line(header, HeaderTitleStyle.PaddingLeft(0)))
	for _, row := range rows {
		b.WriteString("\n")
		b.WriteString(line(row, ResultValueStyle))
	}
	return b.String()
}
