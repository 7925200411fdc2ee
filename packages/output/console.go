package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/restvars/packages/script"
	"github.com/fatih/color"
)

// formatValue truncates long values for display.
func formatValue(s string, maxLen int) string {
	if len([]rune(s)) > maxLen {
		return string([]rune(s)[:maxLen]) + "..."
	}
	return s
}

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
	now     func() time.Time
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

// WithClock sets the time used to judge token expiry.
func WithClock(now func() time.Time) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.now = now
	}
}

func (f *ConsoleFormatter) FormatResolution(r *Resolution) {
	cyan := color.New(color.FgCyan).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s", bold(r.Request))
	if r.Environment != "" {
		fmt.Fprintf(f.writer, " %s", faint("("+r.Environment+")"))
	}
	fmt.Fprintf(f.writer, "\n\n")

	p := r.Prepared
	fmt.Fprintf(f.writer, "%s %s\n", cyan(p.Method), p.URL)

	keys := make([]string, 0, len(p.Headers))
	for k := range p.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(f.writer, "%s: %s\n", k, p.Headers[k])
	}

	if p.Body != "" {
		fmt.Fprintf(f.writer, "\n%s\n", p.Body)
	}

	if p.Auth != nil {
		label := string(p.Auth.Type)
		if p.AuthInherited {
			label += " (inherited from collection)"
		}
		fmt.Fprintf(f.writer, "\n%s %s\n", faint("auth:"), label)
	}

	if len(r.Unresolved) > 0 {
		fmt.Fprintf(f.writer, "\n")
		for _, u := range r.Unresolved {
			fmt.Fprintf(f.writer, "  %s {{%s}} is unresolved", yellow("!"), u.Name)
			if len(u.Suggestions) > 0 {
				fmt.Fprintf(f.writer, ", did you mean %s?", strings.Join(u.Suggestions, ", "))
			}
			fmt.Fprintf(f.writer, "\n")
		}
	}
	fmt.Fprintf(f.writer, "\n")
}

func (f *ConsoleFormatter) FormatExtraction(e *Extraction) {
	green := color.New(color.FgGreen).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s\n", bold(fmt.Sprintf("Candidates (%d)", len(e.Candidates))))
	if len(e.Candidates) == 0 {
		fmt.Fprintf(f.writer, "  %s\n", faint("no credential-shaped fields found"))
	}
	for _, c := range e.Candidates {
		fmt.Fprintf(f.writer, "  %s %s %s\n", cyan(c.JSONPath), faint("->"), c.SuggestedName)
		if f.verbose {
			fmt.Fprintf(f.writer, "      %s\n", formatValue(c.Value, 80))
		}
	}

	if len(e.Captures) > 0 {
		fmt.Fprintf(f.writer, "\n%s\n", bold(fmt.Sprintf("Script captures (%d)", len(e.Captures))))
		for _, c := range e.Captures {
			fmt.Fprintf(f.writer, "  %s %s %s\n", cyan(c.JSONPath), faint("->"), c.VariableName)
			if f.verbose {
				fmt.Fprintf(f.writer, "      %s\n", formatValue(c.Value, 80))
			}
		}
	}

	if len(e.Saved) > 0 {
		fmt.Fprintf(f.writer, "\n")
		for _, t := range e.Saved {
			fmt.Fprintf(f.writer, "  %s saved %s\n", green("✓"), t.Name)
		}
	}
	fmt.Fprintf(f.writer, "\n")
}

func (f *ConsoleFormatter) FormatMappings(mappings []script.TokenMapping) {
	cyan := color.New(color.FgCyan).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	if len(mappings) == 0 {
		fmt.Fprintf(f.writer, "%s\n", faint("no variable assignments found"))
		return
	}
	for _, m := range mappings {
		fmt.Fprintf(f.writer, "%s %s %s\n", m.VariableName, faint("<-"), cyan(m.JSONPath))
	}
}

func (f *ConsoleFormatter) FormatTokens(tokens []TokenView) {
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	if len(tokens) == 0 {
		fmt.Fprintf(f.writer, "%s\n", faint("no tokens stored"))
		return
	}

	now := f.now()
	for _, t := range tokens {
		fmt.Fprintf(f.writer, "%s %s %s", bold(t.Name), t.Value, faint("["+t.Source+"]"))
		switch {
		case t.ExpiresAt == nil:
		case t.Expired:
			fmt.Fprintf(f.writer, " %s", red("expired"))
		default:
			fmt.Fprintf(f.writer, " %s", yellow("expires in "+t.ExpiresAt.Sub(now).Round(time.Second).String()))
		}
		fmt.Fprintf(f.writer, "\n")
		if f.verbose {
			fmt.Fprintf(f.writer, "  %s %s\n", faint("id:"), t.ID)
		}
	}
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("restvars"), version)
}
