package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	headlineStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Panel is an output panel bound to a terminal writer. Only the loop
// goroutine writes to it.
type Panel struct {
	Name string
	out  io.Writer
}

// NewPanel creates an output panel named after the package under test
func NewPanel(name string, out io.Writer) *Panel {
	return &Panel{Name: name, out: out}
}

// Insert appends text to the panel
func (p *Panel) Insert(text string) {
	fmt.Fprint(p.out, text)
}

// Headline renders a run title for the top of a panel
func Headline(text string) string {
	return headlineStyle.Render(text)
}

// Notifier surfaces messages the way an editor would with a modal dialog
// and a status bar.
type Notifier struct {
	out    io.Writer
	errOut io.Writer
}

// NewNotifier creates a notifier writing status to out and errors to errOut
func NewNotifier(out, errOut io.Writer) *Notifier {
	return &Notifier{out: out, errOut: errOut}
}

// Error shows a blocking error message
func (n *Notifier) Error(msg string) {
	fmt.Fprintln(n.errOut, errorStyle.Render(msg))
}

// Status shows a transient status message
func (n *Notifier) Status(msg string) {
	fmt.Fprintln(n.out, statusStyle.Render(msg))
}
