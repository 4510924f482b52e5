package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/flatnest"
	"github.com/wippyai/flatnest/dataset"
	"github.com/wippyai/flatnest/storage/filestore"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	pathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type interactiveModel struct {
	err      error
	file     *filestore.File
	filename string
	preview  string
	entries  []entry
	visible  []int
	filter   textinput.Model
	limit    int
	selected int
	state    modelState
	loaded   bool
}

type entry struct {
	path string
	ds   flatnest.Dataset
}

type modelState int

const (
	stateBrowse modelState = iota
	stateFilter
	statePreview
)

func newInteractiveModel(filename string, cfg config) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "path filter"
	ti.Prompt = "/ "
	ti.Width = 40
	return &interactiveModel{
		filename: filename,
		filter:   ti,
		limit:    cfg.Preview,
		state:    stateBrowse,
	}
}

type loadedMsg struct {
	err     error
	file    *filestore.File
	entries []entry
}

type previewMsg struct {
	err  error
	text string
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadFile
}

func (m *interactiveModel) loadFile() tea.Msg {
	f, err := filestore.OpenWithConfig(m.filename, filestore.MustExist, &filestore.Config{ReadOnly: true})
	if err != nil {
		return loadedMsg{err: err}
	}
	var entries []entry
	err = dataset.Walk(f, func(path string, ds flatnest.Dataset) error {
		entries = append(entries, entry{path: path, ds: ds})
		return nil
	})
	if err != nil {
		f.Close()
		return loadedMsg{err: err}
	}
	return loadedMsg{file: f, entries: entries}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state == stateFilter {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			if m.file != nil {
				m.file.Close()
			}
			return m, tea.Quit

		case "up", "k":
			if m.state == stateBrowse && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateBrowse && m.selected < len(m.visible)-1 {
				m.selected++
			}

		case "/":
			if m.state == stateBrowse {
				m.state = stateFilter
				return m, m.filter.Focus()
			}

		case "enter":
			switch m.state {
			case stateBrowse:
				if len(m.visible) > 0 {
					return m, m.loadPreview
				}
			case statePreview:
				m.state = stateBrowse
				m.preview = ""
				m.err = nil
			}

		case "esc":
			if m.state == statePreview {
				m.state = stateBrowse
				m.preview = ""
				m.err = nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.file = msg.file
		m.entries = msg.entries
		m.loaded = true
		m.applyFilter()

	case previewMsg:
		m.preview = msg.text
		m.err = msg.err
		m.state = statePreview
	}

	return m, nil
}

func (m *interactiveModel) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		if m.file != nil {
			m.file.Close()
		}
		return m, tea.Quit
	case "enter", "esc":
		m.filter.Blur()
		m.state = stateBrowse
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m *interactiveModel) applyFilter() {
	q := strings.ToLower(m.filter.Value())
	m.visible = m.visible[:0]
	for i, e := range m.entries {
		if q == "" || strings.Contains(strings.ToLower(e.path), q) {
			m.visible = append(m.visible, i)
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = max(len(m.visible)-1, 0)
	}
}

func (m *interactiveModel) current() entry {
	return m.entries[m.visible[m.selected]]
}

func (m *interactiveModel) loadPreview() tea.Msg {
	ds := m.current().ds
	raw, err := readAll(ds)
	if err != nil {
		return previewMsg{err: err}
	}
	return previewMsg{text: formatValues(ds.Leaf(), ds.Shape(), raw, m.limit)}
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != statePreview {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if !m.loaded {
		return "Loading file..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Nest Inspector"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	switch m.state {
	case stateBrowse, stateFilter:
		if m.state == stateFilter || m.filter.Value() != "" {
			b.WriteString(m.filter.View())
			b.WriteString("\n\n")
		}
		if len(m.visible) == 0 {
			b.WriteString(helpStyle.Render("no datasets"))
			b.WriteString("\n")
		}
		for i, idx := range m.visible {
			line := m.formatEntry(m.entries[idx])
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		if m.state == stateFilter {
			b.WriteString(helpStyle.Render("type to filter • enter/esc done"))
		} else {
			b.WriteString(helpStyle.Render("↑/↓ select • enter preview • / filter • q quit"))
		}

	case statePreview:
		e := m.current()
		b.WriteString(fmt.Sprintf("%s %s\n\n", pathStyle.Render(e.path), m.formatType(e.ds)))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(valueStyle.Render(m.preview))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter/esc back • q quit"))
	}

	return b.String()
}

func (m *interactiveModel) formatEntry(e entry) string {
	return pathStyle.Render(e.path) + " " + m.formatType(e.ds)
}

func (m *interactiveModel) formatType(ds flatnest.Dataset) string {
	return typeStyle.Render(typeName(ds.Leaf(), ds.Shape())) + " " + shapeString(ds.Shape())
}

func runInteractive(filename string, cfg config) error {
	p := tea.NewProgram(newInteractiveModel(filename, cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
