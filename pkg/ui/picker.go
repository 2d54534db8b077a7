package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// NoSelection is the index reported when the user cancels a pick
const NoSelection = -1

// Picker presents a list of choices and reports the chosen index, or
// NoSelection on cancel.
type Picker interface {
	Pick(title string, items []string) (int, error)
}

// NamePicker selects an item by exact name, deferring to Fallback when no
// name was given.
type NamePicker struct {
	Name     string
	Fallback Picker
}

// Pick implements Picker
func (p NamePicker) Pick(title string, items []string) (int, error) {
	if p.Name == "" {
		if p.Fallback == nil {
			return NoSelection, fmt.Errorf("%s: no choice given", title)
		}
		return p.Fallback.Pick(title, items)
	}
	for i, item := range items {
		if item == p.Name {
			return i, nil
		}
	}
	return NoSelection, fmt.Errorf("%s: %q is not one of the available choices", title, p.Name)
}

// PrefixPicker selects the first item starting with Prefix, which suits
// commit titles that lead with the hash.
type PrefixPicker struct {
	Prefix   string
	Fallback Picker
}

// Pick implements Picker
func (p PrefixPicker) Pick(title string, items []string) (int, error) {
	if p.Prefix == "" {
		if p.Fallback == nil {
			return NoSelection, fmt.Errorf("%s: no choice given", title)
		}
		return p.Fallback.Pick(title, items)
	}
	for i, item := range items {
		if len(item) >= len(p.Prefix) && item[:len(p.Prefix)] == p.Prefix {
			return i, nil
		}
	}
	return NoSelection, fmt.Errorf("%s: nothing matches %q", title, p.Prefix)
}

// TeaPicker is an interactive quick panel
type TeaPicker struct {
	In  io.Reader
	Out io.Writer
}

// Pick implements Picker
func (p TeaPicker) Pick(title string, items []string) (int, error) {
	var opts []tea.ProgramOption
	if p.In != nil {
		opts = append(opts, tea.WithInput(p.In))
	}
	if p.Out != nil {
		opts = append(opts, tea.WithOutput(p.Out))
	}

	final, err := tea.NewProgram(newPickerModel(title, items), opts...).Run()
	if err != nil {
		return NoSelection, fmt.Errorf("quick panel failed: %w", err)
	}
	return final.(pickerModel).chosen, nil
}

type pickerItem string

func (i pickerItem) Title() string       { return string(i) }
func (i pickerItem) Description() string { return "" }
func (i pickerItem) FilterValue() string { return string(i) }

type pickerModel struct {
	list   list.Model
	chosen int
}

func newPickerModel(title string, items []string) pickerModel {
	listItems := make([]list.Item, len(items))
	for i, item := range items {
		listItems[i] = pickerItem(item)
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)

	l := list.New(listItems, delegate, 80, 20)
	l.Title = title
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))

	return pickerModel{list: l, chosen: NoSelection}
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height)
		return m, nil
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "enter":
			if len(m.list.Items()) > 0 {
				if item, ok := m.list.SelectedItem().(pickerItem); ok {
					m.chosen = m.indexOf(item)
				}
			}
			return m, tea.Quit
		case "esc", "ctrl+c", "q":
			m.chosen = NoSelection
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// indexOf maps a (possibly filtered) selection back to the original list
func (m pickerModel) indexOf(item pickerItem) int {
	for i, it := range m.list.Items() {
		if it.(pickerItem) == item {
			return i
		}
	}
	return NoSelection
}

func (m pickerModel) View() string {
	return m.list.View()
}
