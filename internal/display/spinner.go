package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joshuadavidthomas/vibeusage/internal/fetch"
)

// SpinnerShouldShow reports whether the transient fetch spinner should be
// displayed. It is suppressed for quiet mode, JSON output, and piped output.
func SpinnerShouldShow(quiet, jsonOut, tty bool) bool {
	return !quiet && !jsonOut && tty
}

// SpinnerRun shows a spinner for the given providers while fetchFn runs.
// fetchFn receives a progress callback to wire into the orchestrator; the
// spinner quits once every provider has reported. Blocks until both the
// fetch and the spinner program finish.
func SpinnerRun(providerIDs []string, fetchFn func(onProgress func(fetch.FetchOutcome))) error {
	if len(providerIDs) == 0 {
		fetchFn(func(fetch.FetchOutcome) {})
		return nil
	}

	m := newSpinnerModel(providerIDs)
	p := tea.NewProgram(m)

	done := make(chan struct{})
	go func() {
		fetchFn(func(outcome fetch.FetchOutcome) {
			p.Send(spinnerProgressMsg{
				providerID: outcome.ProviderID,
				success:    outcome.Success,
			})
		})
		close(done)
	}()

	_, err := p.Run()
	<-done
	if err != nil {
		return fmt.Errorf("running spinner: %w", err)
	}
	return nil
}

type spinnerProgressMsg struct {
	providerID string
	success    bool
}

var (
	spinnerCheckStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	spinnerErrStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

type spinnerModel struct {
	spinner   spinner.Model
	providers []string
	finished  map[string]bool // provider id -> success
	quitting  bool
}

func newSpinnerModel(providerIDs []string) spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	providers := make([]string, len(providerIDs))
	copy(providers, providerIDs)

	return spinnerModel{
		spinner:   s,
		providers: providers,
		finished:  make(map[string]bool),
	}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinnerProgressMsg:
		if _, dup := m.finished[msg.providerID]; dup {
			return m, nil
		}
		m.finished[msg.providerID] = msg.success
		if len(m.finished) >= len(m.providers) {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m spinnerModel) View() string {
	// Transient progress UI: leave nothing behind once done.
	if m.quitting {
		return ""
	}

	var b strings.Builder
	for i, id := range m.providers {
		if i > 0 {
			b.WriteByte('\n')
		}
		if success, done := m.finished[id]; done {
			if success {
				b.WriteString(spinnerCheckStyle.Render("✓"))
			} else {
				b.WriteString(spinnerErrStyle.Render("✗"))
			}
		} else {
			b.WriteString(m.spinner.View())
		}
		b.WriteByte(' ')
		b.WriteString(id)
	}
	return b.String()
}
