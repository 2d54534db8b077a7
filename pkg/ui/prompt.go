package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Prompter asks the user for a line of text. ok is false on cancel.
type Prompter interface {
	Prompt(caption, initial string) (value string, ok bool, err error)
}

// ScriptedPrompter answers prompts from a fixed list, then cancels
type ScriptedPrompter struct {
	Answers []string
	asked   int
}

// Prompt implements Prompter
func (p *ScriptedPrompter) Prompt(caption, initial string) (string, bool, error) {
	if p.asked >= len(p.Answers) {
		return "", false, nil
	}
	answer := p.Answers[p.asked]
	p.asked++
	return answer, true, nil
}

// Asked reports how many prompts were shown
func (p *ScriptedPrompter) Asked() int {
	return p.asked
}

// TeaPrompter is an interactive input panel
type TeaPrompter struct {
	In  io.Reader
	Out io.Writer
}

// Prompt implements Prompter
func (p TeaPrompter) Prompt(caption, initial string) (string, bool, error) {
	var opts []tea.ProgramOption
	if p.In != nil {
		opts = append(opts, tea.WithInput(p.In))
	}
	if p.Out != nil {
		opts = append(opts, tea.WithOutput(p.Out))
	}

	final, err := tea.NewProgram(newPromptModel(caption, initial), opts...).Run()
	if err != nil {
		return "", false, fmt.Errorf("input panel failed: %w", err)
	}
	m := final.(promptModel)
	return m.input.Value(), m.submitted, nil
}

type promptModel struct {
	caption   string
	input     textinput.Model
	submitted bool
}

func newPromptModel(caption, initial string) promptModel {
	ti := textinput.New()
	ti.SetValue(initial)
	ti.CharLimit = 4096
	ti.Width = 72
	ti.Focus()
	return promptModel{caption: caption, input: ti}
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.submitted = true
			return m, tea.Quit
		case tea.KeyEsc, tea.KeyCtrlC:
			m.submitted = false
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	return headlineStyle.Render(m.caption) + "\n" + m.input.View() + "\n"
}
