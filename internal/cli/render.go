package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/xtding233/ltv-backend/internal/tier"
)

const (
	outputText = "text"
	outputJSON = "json"
)

// Theme holds the color scheme for text output.
type Theme struct {
	Title    lipgloss.Color
	Scale    lipgloss.Color
	Iterate  lipgloss.Color
	Shutdown lipgloss.Color
	Hint     lipgloss.Color
}

var defaultTheme = Theme{
	Title:    lipgloss.Color("#5FAFD7"), // light blue
	Scale:    lipgloss.Color("#00D787"), // green
	Iterate:  lipgloss.Color("#FFAF00"), // amber
	Shutdown: lipgloss.Color("#FF005F"), // red
	Hint:     lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Title).Bold(true)
}

func (t Theme) decisionStyle(d tier.Decision) lipgloss.Style {
	c := t.Iterate
	switch d {
	case tier.Scale:
		c = t.Scale
	case tier.Shutdown:
		c = t.Shutdown
	}
	return lipgloss.NewStyle().Foreground(c).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// printer writes either styled text or JSON.
type printer struct {
	w     io.Writer
	json  bool
	color bool
	theme Theme
}

func newPrinter(w io.Writer, output string) *printer {
	return &printer{
		w:     w,
		json:  output == outputJSON,
		color: isTerminal(w),
		theme: defaultTheme,
	}
}

func (p *printer) style(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

func (p *printer) writeJSON(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) title(s string) {
	fmt.Fprintln(p.w, p.style(p.theme.titleStyle(), s))
}

// field is one label/value line of a results table.
type field struct {
	label, value string
}

func (p *printer) fields(fs []field) {
	width := 0
	for _, f := range fs {
		width = max(width, len(f.label))
	}
	for _, f := range fs {
		fmt.Fprintf(p.w, "  %-*s  %s\n", width, f.label, f.value)
	}
}

func (p *printer) decision(d tier.Decision, rule string) {
	line := "Decision: " + p.style(p.theme.decisionStyle(d), strings.ToUpper(string(d)))
	if rule != "" {
		line += " " + p.style(p.theme.hintStyle(), "("+rule+")")
	}
	fmt.Fprintln(p.w, line)
}

func (p *printer) insights(lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintln(p.w, "Insights:")
	for _, l := range lines {
		fmt.Fprintf(p.w, "  - %s\n", l)
	}
}

func (p *printer) hint(s string) {
	fmt.Fprintln(p.w, p.style(p.theme.hintStyle(), s))
}

// report prints an evaluation result.
func report[R any](p *printer, title string, r tier.Report[R], fs []field) error {
	if p.json {
		return p.writeJSON(r)
	}
	p.title(title)
	p.fields(fs)
	fmt.Fprintln(p.w)
	p.decision(r.Decision, r.Rule)
	p.insights(r.Insights)
	return nil
}
