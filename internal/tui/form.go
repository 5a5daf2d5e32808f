package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// form is a vertical list of labelled text inputs
type form struct {
	title  string
	labels []string
	inputs []textinput.Model
	focus  int
	err    string
	info   string
	busy   bool
}

type field struct {
	label    string
	value    string
	password bool
	limit    int
}

func newForm(title string, fields ...field) *form {
	f := &form{title: title}
	for _, fd := range fields {
		ti := textinput.New()
		ti.Prompt = "› "
		ti.CharLimit = fd.limit
		ti.Width = 40
		ti.SetValue(fd.value)
		if fd.password {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		f.labels = append(f.labels, fd.label)
		f.inputs = append(f.inputs, ti)
	}
	f.setFocus(0)
	return f
}

func (f *form) setFocus(i int) tea.Cmd {
	n := len(f.inputs)
	f.focus = ((i % n) + n) % n
	var cmd tea.Cmd
	for j := range f.inputs {
		if j == f.focus {
			cmd = f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
	return cmd
}

func (f *form) value(i int) string {
	return strings.TrimSpace(f.inputs[i].Value())
}

// update handles focus keys and forwards the rest to the focused input.
// submit reports that enter was pressed on the last field.
func (f *form) update(msg tea.Msg) (cmd tea.Cmd, submit bool) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			return f.setFocus(f.focus + 1), false
		case "shift+tab", "up":
			return f.setFocus(f.focus - 1), false
		case "enter":
			if f.focus == len(f.inputs)-1 {
				return nil, true
			}
			return f.setFocus(f.focus + 1), false
		}
	}

	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd, false
}

func (f *form) view() string {
	var b strings.Builder
	b.WriteString(styleTitle.Render(f.title))
	b.WriteString("\n\n")
	for i, in := range f.inputs {
		label := f.labels[i]
		if i == f.focus {
			label = styleCursor.Render(label)
		}
		b.WriteString(label + "\n" + in.View() + "\n\n")
	}
	switch {
	case f.busy:
		b.WriteString(styleSubtle.Render("Working..."))
	case f.err != "":
		b.WriteString(styleError.Render(f.err))
	case f.info != "":
		b.WriteString(styleInfo.Render(f.info))
	}
	return b.String()
}
