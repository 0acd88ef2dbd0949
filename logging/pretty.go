package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// PrettyLogger provides styled console output for CLI commands.
type PrettyLogger struct {
	writer io.Writer
	styles PrettyStyles
}

// PrettyStyles contains lipgloss styles for different output types
type PrettyStyles struct {
	Success lipgloss.Style
	Info    lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Key     lipgloss.Style
	Value   lipgloss.Style
	Kind    lipgloss.Style
	Code    lipgloss.Style
}

// DefaultPrettyStyles returns the default styling for pretty output,
// rendered for the terminal behind r.
func DefaultPrettyStyles(r *lipgloss.Renderer) PrettyStyles {
	return PrettyStyles{
		Success: r.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		Info:    r.NewStyle().Foreground(lipgloss.Color("12")),
		Warning: r.NewStyle().Foreground(lipgloss.Color("11")),
		Error:   r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Key:     r.NewStyle().Foreground(lipgloss.Color("8")),
		Value:   r.NewStyle().Foreground(lipgloss.Color("14")).Bold(true),
		Kind:    r.NewStyle().Foreground(lipgloss.Color("13")).Bold(true),
		Code:    r.NewStyle().Foreground(lipgloss.Color("5")),
	}
}

// NewPrettyLogger creates a pretty logger writing to stderr.
func NewPrettyLogger() *PrettyLogger {
	return (&PrettyLogger{}).WithWriter(os.Stderr)
}

// WithWriter sets a custom writer for pretty output. Colors follow the
// writer's capabilities; NO_COLOR forces plain text.
func (p *PrettyLogger) WithWriter(w io.Writer) *PrettyLogger {
	p.writer = w
	p.styles = DefaultPrettyStyles(newRenderer(w))
	return p
}

func newRenderer(w io.Writer) *lipgloss.Renderer {
	var opts []termenv.OutputOption
	if os.Getenv("NO_COLOR") != "" {
		opts = append(opts, termenv.WithProfile(termenv.Ascii))
	}
	return lipgloss.NewRenderer(w, opts...)
}

// Success prints a success message with a checkmark
func (p *PrettyLogger) Success(message string) {
	fmt.Fprintf(p.writer, "%s %s\n",
		p.styles.Success.Render("✓"),
		p.styles.Success.Render(message))
}

// InfoPretty prints an info message
func (p *PrettyLogger) InfoPretty(message string) {
	fmt.Fprintf(p.writer, "%s\n", p.styles.Info.Render(message))
}

// WarnPretty prints a warning
func (p *PrettyLogger) WarnPretty(message string) {
	fmt.Fprintf(p.writer, "%s %s\n",
		p.styles.Warning.Render("⚠"),
		p.styles.Warning.Render(message))
}

// ErrorPretty prints an error
func (p *PrettyLogger) ErrorPretty(message string, err error) {
	fmt.Fprintf(p.writer, "%s %s",
		p.styles.Error.Render("✗"),
		p.styles.Error.Render(message))
	if err != nil {
		fmt.Fprintf(p.writer, ": %s", p.styles.Error.Render(err.Error()))
	}
	fmt.Fprintln(p.writer)
}

// Field prints a key-value pair
func (p *PrettyLogger) Field(key string, value interface{}) {
	fmt.Fprintf(p.writer, "%s: %s\n",
		p.styles.Key.Render(key),
		p.styles.Value.Render(fmt.Sprint(value)))
}

// Event prints one relayed message: its kind followed by its payload.
func (p *PrettyLogger) Event(kind string, data string) {
	if data == "" {
		fmt.Fprintln(p.writer, p.styles.Kind.Render(kind))
		return
	}
	fmt.Fprintf(p.writer, "%s %s\n", p.styles.Kind.Render(kind), p.styles.Code.Render(data))
}

// Code prints indented multi-line content
func (p *PrettyLogger) Code(content string) {
	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.writer, "  %s\n", p.styles.Code.Render(line))
	}
}
