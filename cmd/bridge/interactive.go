package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/wippyai/http-bridge/bridge"
	"github.com/wippyai/http-bridge/wire"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	statusOK = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#98FB98"))

	statusErr = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const (
	inputMethod = iota
	inputURI
	inputBody
)

type interactiveModel struct {
	err      error
	d        *bridge.Dispatcher
	resp     *wire.Response
	inputs   []textinput.Model
	focusIdx int
	sent     int
}

type responseMsg struct {
	err  error
	resp wire.Response
}

func newInteractiveModel(d *bridge.Dispatcher) *interactiveModel {
	m := &interactiveModel{d: d}
	for i, f := range []struct{ prompt, placeholder, value string }{
		{"method: ", "GET", "GET"},
		{"uri:    ", "/path?key=value", "/"},
		{"body:   ", "(empty)", ""},
	} {
		ti := textinput.New()
		ti.Prompt = labelStyle.Render(f.prompt)
		ti.Placeholder = f.placeholder
		ti.SetValue(f.value)
		ti.Width = 60
		if i == 0 {
			ti.Focus()
		}
		m.inputs = append(m.inputs, ti)
	}
	return m
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "tab", "down":
			m.focus((m.focusIdx + 1) % len(m.inputs))
			return m, nil

		case "shift+tab", "up":
			m.focus((m.focusIdx + len(m.inputs) - 1) % len(m.inputs))
			return m, nil

		case "enter":
			return m, m.send
		}

	case responseMsg:
		m.err = msg.err
		m.resp = nil
		if msg.err == nil {
			m.resp = &msg.resp
			m.sent++
		}
		return m, nil
	}

	var cmds []tea.Cmd
	for i := range m.inputs {
		var cmd tea.Cmd
		m.inputs[i], cmd = m.inputs[i].Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *interactiveModel) focus(idx int) {
	m.inputs[m.focusIdx].Blur()
	m.focusIdx = idx
	m.inputs[m.focusIdx].Focus()
}

func (m *interactiveModel) send() tea.Msg {
	line := m.inputs[inputMethod].Value() + " " + m.inputs[inputURI].Value()
	req, err := parseCall(line, m.inputs[inputBody].Value())
	if err != nil {
		return responseMsg{err: err}
	}
	return responseMsg{resp: m.d.Handle(req)}
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("HTTP Bridge"))
	fmt.Fprintf(&b, " handler %s, %d sent\n\n", m.d.State(), m.sent)

	for _, input := range m.inputs {
		b.WriteString(input.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
	case m.resp != nil:
		b.WriteString(renderResponse(*m.resp))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("tab next field • enter send • esc quit"))
	return b.String()
}

func renderResponse(resp wire.Response) string {
	var b strings.Builder

	style := statusOK
	if resp.Status >= 400 {
		style = statusErr
	}
	b.WriteString(style.Render(fmt.Sprintf("%d", resp.Status)))
	b.WriteString("\n")
	if headers, ok := resp.Headers.Get(); ok {
		for _, kv := range headers {
			b.WriteString(headerStyle.Render(kv.Key + ": " + kv.Value))
			b.WriteString("\n")
		}
	}
	if body, ok := resp.Body.Get(); ok {
		b.WriteString("\n")
		b.Write(body)
		if len(body) > 0 && body[len(body)-1] != '\n' {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func runInteractive(d *bridge.Dispatcher) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("interactive mode requires a terminal")
	}
	p := tea.NewProgram(newInteractiveModel(d), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
