// Package tui renders a live view of the download queue.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	lp "github.com/charmbracelet/lipgloss"

	"videos-midjourney/model"
	"videos-midjourney/store"
	"videos-midjourney/util"
)

var (
	titleStyle     = lp.NewStyle().Bold(true).Foreground(lp.Color("#FFAA00"))
	headerRowStyle = lp.NewStyle().Bold(true).Underline(true)
	completedStyle = lp.NewStyle().Foreground(lp.Color("#00CC66"))
	failedStyle    = lp.NewStyle().Foreground(lp.Color("#FF5555"))
	activeStyle    = lp.NewStyle().Foreground(lp.Color("#FFD700"))
	footerStyle    = lp.NewStyle().Faint(true)
)

// progressMsg carries a fetch event into the update loop.
type progressMsg model.Progress

// eventsClosedMsg means the fetcher is gone; the view freezes but stays up.
type eventsClosedMsg struct{}

type row struct {
	name         string
	status       model.DownloadStatus
	currentBytes int64
	totalBytes   int64
	speed        float64
	err          error
}

// Model represents the state of the download monitor.
type Model struct {
	events      <-chan model.Progress
	rows        []row
	index       map[string]int
	progressBar progress.Model
	active      string
	width       int
	height      int
}

// NewModel seeds the monitor with the current database contents.
func NewModel(st *store.Store, events <-chan model.Progress) *Model {
	progModel := progress.New(
		progress.WithGradient("#FFAA00", "#FFD700"),
		progress.WithoutPercentage(),
		progress.WithWidth(30),
	)

	m := &Model{
		events:      events,
		index:       make(map[string]int),
		progressBar: progModel,
	}
	for _, v := range st.All() {
		status := model.StatusPending
		if v.Downloaded {
			status = model.StatusCompleted
		}
		m.upsert(model.Progress{VideoName: v.VideoName, Status: status})
	}
	return m
}

func (m *Model) upsert(p model.Progress) {
	i, ok := m.index[p.VideoName]
	if !ok {
		m.rows = append(m.rows, row{name: p.VideoName})
		i = len(m.rows) - 1
		m.index[p.VideoName] = i
	}
	r := &m.rows[i]
	r.status = p.Status
	r.err = p.Err
	if p.CurrentBytes > 0 {
		r.currentBytes = p.CurrentBytes
		r.totalBytes = p.TotalBytes
		r.speed = p.Speed
	}

	switch p.Status {
	case model.StatusDownloading:
		m.active = p.VideoName
	case model.StatusCompleted, model.StatusFailed:
		if m.active == p.VideoName {
			m.active = ""
		}
	}
}

// waitForEvent turns the next fetch event into a message.
func waitForEvent(ch <-chan model.Progress) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return progressMsg(p)
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if w := msg.Width - 75; w >= 10 && w <= 60 {
			m.progressBar.Width = w
		}
	case progressMsg:
		m.upsert(model.Progress(msg))
		return m, waitForEvent(m.events)
	case eventsClosedMsg:
		return m, nil
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("videos-midjourney download monitor"))
	b.WriteString("\n\n")
	b.WriteString(headerRowStyle.Render(fmt.Sprintf("%-40s %-12s %s", "NAME", "STATUS", "PROGRESS")))
	b.WriteString("\n")

	for _, r := range m.rows {
		b.WriteString(m.renderRow(r))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(footerStyle.Render("q: close monitor (downloads keep running)"))
	return b.String()
}

func (m *Model) renderRow(r row) string {
	name := r.name
	if len(name) > 38 {
		name = name[:35] + "..."
	}

	var detail string
	switch r.status {
	case model.StatusDownloading:
		percent := 0.0
		if r.totalBytes > 0 {
			percent = float64(r.currentBytes) / float64(r.totalBytes)
		}
		detail = fmt.Sprintf("%s %s / %s  %s",
			m.progressBar.ViewAs(percent),
			util.FormatSize(r.currentBytes),
			util.FormatSize(r.totalBytes),
			util.FormatSpeed(r.speed),
		)
	case model.StatusFailed:
		if r.err != nil {
			detail = r.err.Error()
		}
	}

	line := fmt.Sprintf("%-40s %-12s %s", name, r.status, detail)
	switch r.status {
	case model.StatusCompleted:
		return completedStyle.Render(line)
	case model.StatusFailed:
		return failedStyle.Render(line)
	case model.StatusDownloading:
		return activeStyle.Render(line)
	default:
		return line
	}
}

// Run blocks in the monitor until the user quits it.
func Run(st *store.Store, events <-chan model.Progress) error {
	p := tea.NewProgram(NewModel(st, events), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
