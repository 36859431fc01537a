package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// fakeClock returns a model whose clock is advanced by hand.
func fakeClock(m BuildModel) (BuildModel, *time.Time) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	m.started = now
	return m, &now
}

func update(t *testing.T, m BuildModel, msg tea.Msg) BuildModel {
	t.Helper()
	updated, _ := m.Update(msg)
	return updated.(BuildModel)
}

func TestRowUpdateMsg(t *testing.T) {
	m := NewBuildModel("MyPlugin", []string{"5.4", "5.3"})
	m = update(t, m, RowUpdateMsg{Version: "5.4", Status: StatusPackaging, Toolchain: "v22"})

	if m.rows[0].status != StatusPackaging {
		t.Errorf("expected status packaging, got %q", m.rows[0].status)
	}
	if m.rows[0].toolchain != "v22" {
		t.Errorf("expected toolchain v22, got %q", m.rows[0].toolchain)
	}
	if m.rows[1].status != StatusPending {
		t.Errorf("expected 5.3 to stay pending, got %q", m.rows[1].status)
	}

	m = update(t, m, RowUpdateMsg{Version: "5.4", Status: StatusArchiving})
	if m.rows[0].toolchain != "v22" {
		t.Errorf("expected empty field to leave toolchain alone, got %q", m.rows[0].toolchain)
	}
}

func TestRowUpdateMsg_UnknownVersion(t *testing.T) {
	m := NewBuildModel("", []string{"5.4"})
	m = update(t, m, RowUpdateMsg{Version: "5.9", Status: StatusBuilt})

	if m.rows[0].status != StatusPending {
		t.Errorf("expected status unchanged, got %q", m.rows[0].status)
	}
}

func TestNewBuildModelDropsRepeatedVersions(t *testing.T) {
	m := NewBuildModel("", []string{"5.4", "5.3", "5.4"})
	if len(m.rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(m.rows))
	}
}

func TestFinalRowIgnoresLaterUpdates(t *testing.T) {
	m := NewBuildModel("", []string{"5.4"})
	m = update(t, m, RowUpdateMsg{Version: "5.4", Status: StatusFailed, Output: "exit status 1"})
	m = update(t, m, RowUpdateMsg{Version: "5.4", Status: StatusPackaging, Output: "late"})

	if m.rows[0].status != StatusFailed || m.rows[0].output != "exit status 1" {
		t.Errorf("expected failed row to stay as is, got %+v", m.rows[0])
	}
}

func TestRowElapsedFreezesOnFinalStatus(t *testing.T) {
	m, now := fakeClock(NewBuildModel("", []string{"5.4", "5.3"}))

	m = update(t, m, RowUpdateMsg{Version: "5.4", Status: StatusSelecting})
	*now = now.Add(90 * time.Second)
	if got := m.rows[0].timeText(*now); got != "1m30s" {
		t.Errorf("expected running time 1m30s, got %q", got)
	}

	m = update(t, m, RowUpdateMsg{Version: "5.4", Status: StatusBuilt})
	*now = now.Add(time.Hour)
	if got := m.rows[0].timeText(*now); got != "1m30s" {
		t.Errorf("expected frozen time 1m30s, got %q", got)
	}

	m = update(t, m, RowUpdateMsg{Version: "5.3", Status: StatusSkipped, Output: "no engine"})
	if got := m.rows[1].timeText(*now); got != "-" {
		t.Errorf("expected skipped row without time, got %q", got)
	}
}

func TestWorkDoneMsg(t *testing.T) {
	m := NewBuildModel("", []string{"5.4"})

	updated, cmd := m.Update(WorkDoneMsg{})
	m = updated.(BuildModel)

	if !m.Done() {
		t.Error("expected Done() to be true after WorkDoneMsg")
	}
	if cmd == nil {
		t.Error("expected tea.Quit command")
	}
}

func TestErrorMsg(t *testing.T) {
	m := NewBuildModel("", []string{"5.4"})

	updated, cmd := m.Update(ErrorMsg{Err: errors.New("boom")})
	m = updated.(BuildModel)

	if !m.Done() || m.Err() == nil || cmd == nil {
		t.Fatalf("expected done with error and quit, got done=%v err=%v", m.Done(), m.Err())
	}
	if !strings.Contains(m.View(), "boom") {
		t.Errorf("expected error in view, got %q", m.View())
	}
}

func TestView(t *testing.T) {
	m := NewBuildModel("MyPlugin 1.2", []string{"5.4", "5.3"})
	m = update(t, m, RowUpdateMsg{Version: "5.3", Status: StatusSkipped})

	view := m.View()
	for _, want := range []string{"MyPlugin 1.2", ColVersion, ColStatus, ColToolchain, ColTime, ColOutput, "5.4", "5.3", StatusPending, StatusSkipped} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}

func TestNonEmptyOrDash(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "-"},
		{"  ", "-"},
		{"v22", "v22"},
		{" v22 ", "v22"},
	}
	for _, tt := range tests {
		if got := NonEmptyOrDash(tt.input); got != tt.want {
			t.Errorf("NonEmptyOrDash(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTruncateWithEllipsis(t *testing.T) {
	tests := []struct {
		input string
		max   int
		want  string
	}{
		{"short", 10, "short"},
		{"a longer string here", 10, "a longe..."},
		{"abc", 3, "abc"},
		{"abcd", 3, "abc"},
		{"", 5, ""},
		{"hello", 0, ""},
	}
	for _, tt := range tests {
		if got := TruncateWithEllipsis(tt.input, tt.max); got != tt.want {
			t.Errorf("TruncateWithEllipsis(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
		}
	}
}

func TestMarqueeText(t *testing.T) {
	tests := []struct {
		text  string
		width int
		tick  int
		want  string
	}{
		{"short", 10, 0, "short"},
		{"hello world here", 5, 0, "hello"},
		{"hello world here", 5, 1, "ello "},
		{"hello world here", 5, 5, " worl"},
		{"abcdef", 4, 6, "   a"},
	}
	for _, tt := range tests {
		if got := marqueeText(tt.text, tt.width, tt.tick); got != tt.want {
			t.Errorf("marqueeText(%q, %d, %d) = %q, want %q", tt.text, tt.width, tt.tick, got, tt.want)
		}
	}
}

func TestTickStopsAfterDone(t *testing.T) {
	m := NewBuildModel("", []string{"5.4"})

	updated, cmd := m.Update(tickMsg{})
	m = updated.(BuildModel)
	if m.tick != 1 || cmd == nil {
		t.Fatalf("expected tick=1 and a next tick, got %d", m.tick)
	}

	m = update(t, m, WorkDoneMsg{})
	if _, cmd = m.Update(tickMsg{}); cmd != nil {
		t.Error("expected no tick command after done")
	}
}

func TestFooterCounts(t *testing.T) {
	m := NewBuildModel("", []string{"5.5", "5.4", "5.3", "5.2"})
	for v, status := range map[string]string{"5.5": StatusBuilt, "5.4": StatusPackaging, "5.3": StatusSkipped} {
		m = update(t, m, RowUpdateMsg{Version: v, Status: status})
	}

	c := m.counts()
	if c.built != 1 || c.skipped != 1 || c.failed != 0 {
		t.Errorf("unexpected counts %+v", c)
	}
	if !strings.Contains(m.View(), "Built 1/4, 1 skipped") {
		t.Errorf("expected footer with counts, got %q", m.View())
	}
}

func TestViewHidesFooterWhenDone(t *testing.T) {
	m := NewBuildModel("", []string{"5.4"})
	m = update(t, m, WorkDoneMsg{})

	if strings.Contains(m.View(), "Built 0/1") {
		t.Error("expected no footer when done")
	}
}

func TestCtrlCInterrupts(t *testing.T) {
	m := NewBuildModel("", []string{"5.4"})

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = updated.(BuildModel)

	if !errors.Is(m.Err(), ErrInterrupted) || cmd == nil {
		t.Fatalf("expected interrupt and quit, got %v", m.Err())
	}
}
