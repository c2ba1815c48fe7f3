package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/softbody/internal/config"
	"github.com/san-kum/softbody/internal/experiment"
	"github.com/san-kum/softbody/internal/logging"
)

var presetInfo = map[string]string{
	"drape":   "cloth over a post",
	"bounce":  "thrown onto a floor",
	"hammock": "chain on two posts",
	"rest":    "mesh at rest length",
	"liquid":  "bonds break apart",
}

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	subtleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	accentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	keyStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
)

const (
	stateMenu = iota
	stateConfig
	stateSim
)

type app struct {
	registry    *experiment.Registry
	logger      *logging.Logger
	state       int
	cursor      int
	presets     []string
	selected    string
	cfg         *config.Config
	paramNames  []string
	paramCursor int
	editing     bool
	editBuf     string
	err         string
	live        Model
}

func NewInteractiveApp(registry *experiment.Registry, logger *logging.Logger) *app {
	return &app{
		registry:   registry,
		logger:     logger,
		state:      stateMenu,
		presets:    config.ListPresets(),
		paramNames: append(append([]string(nil), tunedParams...), "velocity_x", "velocity_y", "dt"),
	}
}

func (m app) Init() tea.Cmd { return nil }

func (m app) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.state {
		case stateMenu:
			return m.menuKey(msg)
		case stateConfig:
			return m.configKey(msg)
		}
	}
	if m.state == stateSim {
		live, cmd := m.live.Update(msg)
		m.live = live.(Model)
		return m, cmd
	}
	return m, nil
}

func (m app) menuKey(msg tea.KeyMsg) (app, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.selected = m.presets[m.cursor]
		m.cfg = config.GetPreset(m.selected)
		m.state, m.paramCursor, m.err = stateConfig, 0, ""
	}
	return m, nil
}

func (m app) configKey(msg tea.KeyMsg) (app, tea.Cmd) {
	name := m.paramNames[m.paramCursor]
	if m.editing {
		switch msg.String() {
		case "enter":
			var val float64
			if _, err := fmt.Sscanf(m.editBuf, "%g", &val); err == nil {
				_ = m.cfg.Set(name, val)
			}
			m.editing, m.editBuf = false, ""
		case "esc":
			m.editing, m.editBuf = false, ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if s := msg.String(); len(s) == 1 && strings.ContainsAny(s, "0123456789.-e") {
				m.editBuf += s
			}
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "esc":
		m.state = stateMenu
	case "up", "k":
		if m.paramCursor > 0 {
			m.paramCursor--
		}
	case "down", "j":
		if m.paramCursor < len(m.paramNames)-1 {
			m.paramCursor++
		}
	case "enter", " ":
		val, _ := m.cfg.Get(name)
		m.editing, m.editBuf = true, fmt.Sprintf("%g", val)
	case "left", "h":
		val, _ := m.cfg.Get(name)
		_ = m.cfg.Set(name, val*0.9)
	case "right", "l":
		val, _ := m.cfg.Get(name)
		_ = m.cfg.Set(name, val*1.1)
	case "s":
		live, err := NewModel(m.registry, m.cfg, m.selected, m.logger)
		if err != nil {
			m.err = err.Error()
			return m, nil
		}
		m.live, m.state = live, stateSim
		return m, m.live.Init()
	}
	return m, nil
}

func (m app) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateConfig:
		return m.viewConfig()
	case stateSim:
		return m.live.View()
	}
	return ""
}

func hints(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(keyStyle.Render(pairs[i]) + dimStyle.Render(" "+pairs[i+1]+"  "))
	}
	return b.String()
}

func (m app) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n\n    " + titleStyle.Render("SOFTBODY") + "\n    " + subtleStyle.Render("mass-spring mesh simulator") + "\n    " + subtleStyle.Render("─────────────────────────") + "\n\n")
	for i, name := range m.presets {
		desc := presetInfo[name]
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", cursorStyle.Render("▸"), selectedStyle.Render(fmt.Sprintf("%-10s", name)), accentStyle.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", dimStyle.Render(fmt.Sprintf("  %-10s", name)), dimStyle.Render(desc)))
		}
	}
	b.WriteString("\n    " + hints("j/k", "navigate", "enter", "select", "q", "quit") + "\n")
	return b.String()
}

func (m app) viewConfig() string {
	var b strings.Builder
	b.WriteString("\n\n    " + titleStyle.Render(strings.ToUpper(m.selected)) + "\n    " + subtleStyle.Render(presetInfo[m.selected]) + "\n    " + subtleStyle.Render("─────────────────────────") + "\n\n")
	for i, name := range m.paramNames {
		val, _ := m.cfg.Get(name)
		valStr := fmt.Sprintf("%10.4g", val)
		if m.editing && i == m.paramCursor {
			valStr = fmt.Sprintf("%10s", m.editBuf+"_")
		}
		if i == m.paramCursor {
			b.WriteString(fmt.Sprintf("    %s %s %s\n", cursorStyle.Render("▸"), selectedStyle.Render(fmt.Sprintf("%-16s", name)), accentStyle.Render(valStr)))
		} else {
			b.WriteString(fmt.Sprintf("    %s %s\n", dimStyle.Render(fmt.Sprintf("  %-16s", name)), dimStyle.Render(valStr)))
		}
	}
	if m.err != "" {
		b.WriteString("\n    " + accentStyle.Render(m.err) + "\n")
	}
	b.WriteString("\n    " + hints("j/k", "select", "h/l", "adjust", "enter", "edit", "s", "start", "esc", "back") + "\n")
	return b.String()
}

// RunInteractive opens the preset menu.
func RunInteractive(registry *experiment.Registry, logger *logging.Logger) error {
	_, err := tea.NewProgram(NewInteractiveApp(registry, logger), tea.WithAltScreen()).Run()
	return err
}
