// Package tui renders build progress as a live table, or as plain lines when
// the output is not an interactive terminal.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	tickInterval = 150 * time.Millisecond
	marqueeGap   = "   "
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type tickMsg time.Time

// Build table columns.
const (
	ColVersion   = "VERSION"
	ColStatus    = "STATUS"
	ColToolchain = "TOOLCHAIN"
	ColTime      = "TIME"
	ColOutput    = "OUTPUT"
)

type column struct {
	header string
	width  int
}

var buildColumns = []column{
	{ColVersion, 10},
	{ColStatus, 16},
	{ColToolchain, 28},
	{ColTime, 7},
	{ColOutput, 48},
}

// buildRow is one engine version. started is set by the first stage update
// and elapsed is frozen once the row reaches a final status.
type buildRow struct {
	version   string
	status    string
	toolchain string
	output    string
	started   time.Time
	elapsed   time.Duration
	final     bool
}

func (r buildRow) cells(now time.Time) []string {
	return []string{r.version, r.status, NonEmptyOrDash(r.toolchain), r.timeText(now), NonEmptyOrDash(r.output)}
}

func (r buildRow) timeText(now time.Time) string {
	switch {
	case r.started.IsZero():
		return "-"
	case r.final:
		return formatElapsed(r.elapsed)
	}
	return formatElapsed(now.Sub(r.started))
}

// BuildModel is a bubbletea model showing one row per planned engine version.
type BuildModel struct {
	title    string
	rows     []buildRow
	rowIndex map[string]int
	done     bool
	err      error
	started  time.Time
	now      func() time.Time

	tick int
}

// NewBuildModel returns a table with one pending row per version, in build
// order.
func NewBuildModel(title string, versions []string) BuildModel {
	m := BuildModel{
		title:    title,
		rowIndex: make(map[string]int, len(versions)),
		now:      time.Now,
	}
	m.started = m.now()
	for _, v := range versions {
		if _, dup := m.rowIndex[v]; dup {
			continue
		}
		m.rowIndex[v] = len(m.rows)
		m.rows = append(m.rows, buildRow{version: v, status: StatusPending})
	}
	return m
}

func scheduleTick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m BuildModel) Init() tea.Cmd {
	return scheduleTick()
}

func (m BuildModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.tick++
		if m.done {
			return m, nil
		}
		return m, scheduleTick()

	case RowUpdateMsg:
		m.applyRowUpdate(msg)
		return m, nil

	case WorkDoneMsg:
		m.done = true
		return m, tea.Quit

	case ErrorMsg:
		m.err = msg.Err
		m.done = true
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.err = ErrInterrupted
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *BuildModel) applyRowUpdate(msg RowUpdateMsg) {
	idx, ok := m.rowIndex[msg.Version]
	if !ok {
		return
	}
	row := &m.rows[idx]
	if row.final {
		return
	}
	if msg.Status != "" {
		now := m.now()
		if row.started.IsZero() && msg.Status != StatusPending && msg.Status != StatusSkipped {
			row.started = now
		}
		row.status = msg.Status
		if IsFinal(msg.Status) {
			row.final = true
			if !row.started.IsZero() {
				row.elapsed = now.Sub(row.started)
			}
		}
	}
	if msg.Toolchain != "" {
		row.toolchain = msg.Toolchain
	}
	if msg.Output != "" {
		row.output = msg.Output
	}
}

func (m BuildModel) View() string {
	if m.done && m.err != nil {
		return fmt.Sprintf("Error: %v\n", m.err)
	}

	var b strings.Builder
	if m.title != "" {
		b.WriteString(TitleStyle.Render(m.title))
		b.WriteString("\n\n")
	}

	headers := make([]string, len(buildColumns))
	for i, col := range buildColumns {
		headers[i] = HeaderStyle.Render(pad(col.header, columnWidth(col)))
	}
	b.WriteString(strings.Join(headers, "  "))
	b.WriteByte('\n')

	now := m.now()
	for _, row := range m.rows {
		cells := row.cells(now)
		parts := make([]string, len(buildColumns))
		for i, col := range buildColumns {
			width := columnWidth(col)
			val := cells[i]
			// Long output paths scroll while their row is still moving.
			if col.header == ColOutput && !m.done && !row.final && len(val) > width {
				val = marqueeText(val, width, m.tick)
			} else {
				val = TruncateWithEllipsis(val, width)
			}
			if col.header == ColStatus {
				parts[i] = StatusStyle(row.status).Render(pad(val, width))
			} else {
				parts[i] = pad(val, width)
			}
		}
		b.WriteString(strings.Join(parts, "  "))
		b.WriteByte('\n')
	}

	if !m.done {
		c := m.counts()
		spinner := spinnerFrames[m.tick%len(spinnerFrames)]
		fmt.Fprintf(&b, "\n%s Built %d/%d", spinner, c.built, len(m.rows))
		if c.skipped > 0 {
			fmt.Fprintf(&b, ", %d skipped", c.skipped)
		}
		fmt.Fprintf(&b, " (%s)\n", formatElapsed(now.Sub(m.started)))
	}

	return b.String()
}

func columnWidth(col column) int {
	return max(len(col.header), col.width)
}

type rowCounts struct {
	built, skipped, failed int
}

func (m BuildModel) counts() rowCounts {
	var c rowCounts
	for _, row := range m.rows {
		switch row.status {
		case StatusBuilt:
			c.built++
		case StatusSkipped:
			c.skipped++
		case StatusFailed:
			c.failed++
		}
	}
	return c
}

// Done returns whether the model has finished.
func (m BuildModel) Done() bool {
	return m.done
}

// Err returns any fatal error that occurred.
func (m BuildModel) Err() error {
	return m.err
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// marqueeText scrolls text that exceeds width, one byte per tick.
func marqueeText(text string, width, tick int) string {
	text = strings.TrimSpace(text)
	if width <= 0 {
		return ""
	}
	if len(text) <= width {
		return text
	}
	cycle := text + marqueeGap
	offset := tick % len(cycle)
	var result strings.Builder
	result.Grow(width)
	for i := 0; i < width; i++ {
		result.WriteByte(cycle[(offset+i)%len(cycle)])
	}
	return result.String()
}

// NonEmptyOrDash returns "-" for empty/whitespace strings.
func NonEmptyOrDash(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	return value
}

// TruncateWithEllipsis truncates a string and adds "..." if it exceeds max length.
func TruncateWithEllipsis(value string, max int) string {
	if max <= 0 {
		return ""
	}
	value = strings.TrimSpace(value)
	if len(value) <= max {
		return value
	}
	if max <= 3 {
		return value[:max]
	}
	return value[:max-3] + "..."
}
