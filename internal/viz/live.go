package viz

import (
	"fmt"
	"image"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/softbody/internal/config"
	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/experiment"
	"github.com/san-kum/softbody/internal/logging"
	"github.com/san-kum/softbody/internal/sim"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	tickRate        = time.Second / 60
)

// GIFPath is where a recording is written when it is stopped.
var GIFPath = "softbody.gif"

// tunedParams are the parameters the live view can adjust.
var tunedParams = []string{"stiffness", "damping", "rest_length", "mass", "gravity_y", "cutoff", "particle_radius"}

// Snapshot stores state at a specific time for replay.
type Snapshot struct {
	Particles []dynamo.Particle
	Time      float64
	Energy    float64
}

type TickMsg time.Time

// Model contains simulation state, visualization buffers, and UI context.
type Model struct {
	registry  *experiment.Registry
	logger    *logging.Logger
	cfg       *config.Config
	initial   *config.Config
	sim       *sim.Simulation
	scene     Scene
	view      Viewport
	canvas    *Canvas
	theme     Theme
	styles    styles
	name      string
	running   bool
	substeps  int
	history   []Snapshot
	playHead  int
	energy    []float64
	speed     []float64
	selected  int
	recording bool
	frames    []*image.Paletted
	showHelp  bool
	status    string
}

// NewModel builds the simulation described by cfg. cfg is copied.
func NewModel(registry *experiment.Registry, cfg *config.Config, name string, logger *logging.Logger) (Model, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	m := Model{
		registry: registry,
		logger:   logger,
		cfg:      cfg.Clone(),
		initial:  cfg.Clone(),
		canvas:   NewCanvas(width, height),
		theme:    Themes[0],
		styles:   newStyles(Themes[0]),
		name:     name,
		running:  true,
		substeps: 1,
		history:  make([]Snapshot, 0, historyCapacity),
		playHead: -1,
	}
	if err := m.rebuild(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func tick() tea.Cmd {
	return tea.Tick(tickRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.stopRecording()
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "tab":
			m.selected = (m.selected + 1) % len(tunedParams)
		case "up", "k":
			m.adjustParam(1.1)
		case "down", "j":
			m.adjustParam(1 / 1.1)
		case "+", "=":
			m.substeps = min(m.substeps*2, 64)
		case "-", "_":
			m.substeps = max(m.substeps/2, 1)
		case "g":
			if m.recording {
				m.stopRecording()
			} else {
				m.recording = true
				m.frames = m.frames[:0]
			}
		case "t":
			m.theme = NextTheme(m.theme)
			m.styles = newStyles(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		m.advance()
		m.draw()
		if m.recording {
			m.frames = append(m.frames, CanvasImage(m.canvas, 8, 16))
		}
		return m, tick()
	}
	return m, nil
}

// advance steps the simulation or moves the replay head.
func (m *Model) advance() {
	if !m.running {
		return
	}
	if m.playHead != -1 {
		m.playHead++
		if m.playHead >= len(m.history) {
			m.playHead = -1
		}
		return
	}

	for i := 0; i < m.substeps; i++ {
		m.sim.Step(m.cfg.Dt)
	}

	frame := m.sim.Frame()
	if !frame.IsValid() {
		m.running = false
		m.status = fmt.Sprintf("diverged at step %d, press r to reset", frame.Step)
		m.logger.Warnf("live: %v at step %d", dynamo.ErrUnstable, frame.Step)
		return
	}

	e := m.sim.Energy()
	m.history = appendCapped(m.history, Snapshot{Particles: frame.Particles, Time: frame.Time, Energy: e})
	m.energy = appendCapped(m.energy, e)
	m.speed = appendCapped(m.speed, meanSpeed(frame.Particles))
}

func appendCapped[T any](s []T, v T) []T {
	s = append(s, v)
	if len(s) > historyCapacity {
		s = s[1:]
	}
	return s
}

func meanSpeed(particles []dynamo.Particle) float64 {
	if len(particles) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range particles {
		sum += math.Hypot(p.Vel.X, p.Vel.Y)
	}
	return sum / float64(len(particles))
}

// scrub changes the playback position in history.
func (m *Model) scrub(dir int) {
	if m.playHead == -1 {
		if len(m.history) == 0 {
			return
		}
		m.playHead = len(m.history) - 1
		m.running = false
	}
	m.playHead += dir
	if m.playHead < 0 {
		m.playHead = 0
	}
	if m.playHead >= len(m.history) {
		m.playHead = -1
	}
}

// adjustParam scales the selected parameter and rebuilds from the initial
// layout. Zero values step to a small positive value first.
func (m *Model) adjustParam(factor float64) {
	key := tunedParams[m.selected]
	val, err := m.cfg.Get(key)
	if err != nil {
		m.status = err.Error()
		return
	}

	next := val * factor
	if val == 0 && factor > 1 {
		next = 0.1
	}
	if err := m.cfg.Set(key, next); err != nil {
		m.status = err.Error()
		return
	}
	if err := m.rebuild(); err != nil {
		_ = m.cfg.Set(key, val)
		m.status = err.Error()
		return
	}
	m.status = fmt.Sprintf("%s = %.4g", key, next)
}

// reset restores the initial configuration.
func (m *Model) reset() {
	m.cfg = m.initial.Clone()
	if err := m.rebuild(); err != nil {
		m.status = err.Error()
		return
	}
	m.running = true
	m.status = ""
}

// rebuild constructs a fresh simulation from m.cfg and clears history.
func (m *Model) rebuild() error {
	s, err := experiment.Build(m.registry, m.cfg, m.logger)
	if err != nil {
		return err
	}

	m.sim = s
	m.scene = Scene{Bonds: s.Bonds(), Obstacles: s.ObstacleList(), ParticleRadius: m.cfg.Material.ParticleRadius}
	m.view = m.scene.Fit(m.canvas, s.Particles())
	m.history = m.history[:0]
	m.energy = m.energy[:0]
	m.speed = m.speed[:0]
	m.playHead = -1
	if w := s.Warnings(); len(w) > 0 {
		m.status = "warning: " + w[0].String()
	}
	return nil
}

func (m *Model) stopRecording() {
	if !m.recording {
		return
	}
	m.recording = false
	if len(m.frames) == 0 {
		return
	}
	if err := SaveGIF(GIFPath, m.frames, 2); err != nil {
		m.logger.Errorf("save gif: %v", err)
		m.status = err.Error()
	} else {
		m.status = fmt.Sprintf("saved %d frames to %s", len(m.frames), GIFPath)
	}
	m.frames = nil
}

// current is the snapshot on screen: the replay head or the live state.
func (m *Model) current() Snapshot {
	if m.playHead >= 0 && m.playHead < len(m.history) {
		return m.history[m.playHead]
	}
	if n := len(m.history); n > 0 {
		return m.history[n-1]
	}
	return Snapshot{Particles: m.sim.Particles(), Time: m.sim.Time(), Energy: m.sim.Energy()}
}

func (m *Model) draw() {
	Render(m.canvas, m.view, m.scene, m.current().Particles)
}

func (m Model) statusLine() string {
	switch {
	case m.recording:
		return m.styles.recording.Render(fmt.Sprintf("REC %d", len(m.frames)))
	case m.playHead != -1:
		latest := m.history[len(m.history)-1].Time
		label := "REPLAY"
		if !m.running {
			label = "REPLAY PAUSED"
		}
		return m.styles.paused.Render(fmt.Sprintf("%s (%.2fs)", label, m.history[m.playHead].Time-latest))
	case !m.running:
		return m.styles.paused.Render("PAUSED")
	default:
		return m.styles.running.Render("RUNNING")
	}
}

// View renders the TUI interface.
func (m Model) View() string {
	m.draw()
	snap := m.current()
	st := m.styles

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.name)) + "\n")
	s.WriteString(m.statusLine() + "\n\n")

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		s.WriteString(st.graph.Render(chart) + "\n")
	}

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", snap.Time))
	row("Step", fmt.Sprintf("%d x%d", m.sim.Steps(), m.substeps))
	row("Energy", fmt.Sprintf("%.2f", snap.Energy))
	row("Particles", fmt.Sprintf("%d / %d bonds", len(snap.Particles), len(m.scene.Bonds)))
	row("Contacts", fmt.Sprintf("%d", m.sim.Contacts()))
	row("Speed", Sparkline(m.speed, 24))

	s.WriteString("\nPARAMETERS\n")
	for i, key := range tunedParams {
		val, _ := m.cfg.Get(key)
		initial, _ := m.initial.Get(key)
		ratio := 0.5
		if initial != 0 {
			ratio = val / (2 * initial)
		}
		line := fmt.Sprintf("%-15s %s %.3g", key, ProgressBar(ratio, 10), val)
		if i == m.selected {
			s.WriteString(st.active.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + st.value.Render(line) + "\n")
		}
	}

	if m.status != "" {
		s.WriteString("\n" + st.warning.Render(m.status) + "\n")
	}
	s.WriteString(st.help.Render("SP:Pause R:Reset Q:Quit T:Theme\nG:Record ?:Help [ ]:Replay +/-:Speed\nTab:Select ↑↓:Tune"))

	body := lipgloss.JoinHorizontal(lipgloss.Top, st.canvas.Render(m.canvas.String()), st.stats.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + body
	}
	return body
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  R        - Reset simulation         ║
║  Q        - Quit                     ║
║  Tab      - Cycle parameters         ║
║  Up/K     - Increase parameter (10%) ║
║  Down/J   - Decrease parameter (10%) ║
║  + / -    - More/fewer steps a frame ║
║  [        - Rewind (time travel)     ║
║  ]        - Forward (time travel)    ║
║  G        - Toggle GIF recording     ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

// RunLive opens the live view for cfg.
func RunLive(registry *experiment.Registry, cfg *config.Config, name string, logger *logging.Logger) error {
	m, err := NewModel(registry, cfg, name, logger)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
