package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"uetool/internal/build"
)

// StageStatus maps a build stage to its row status.
func StageStatus(stage build.Stage) string {
	switch stage {
	case build.StageRoot:
		return StatusSelecting
	case build.StageToolchain:
		return StatusToolchain
	case build.StagePackage:
		return StatusPackaging
	case build.StageArchive:
		return StatusArchiving
	}
	return string(stage)
}

// TableReporter forwards build progress to a running BuildModel.
type TableReporter struct {
	send func(tea.Msg)
}

func NewTableReporter(send func(tea.Msg)) *TableReporter {
	return &TableReporter{send: send}
}

func (r *TableReporter) Start(v string, stage build.Stage) {
	r.send(RowUpdateMsg{Version: v, Status: StageStatus(stage)})
}

func (r *TableReporter) Skip(v string, err error) {
	r.send(RowUpdateMsg{Version: v, Status: StatusSkipped, Output: err.Error()})
}

func (r *TableReporter) Complete(a build.Artifact) {
	r.send(RowUpdateMsg{
		Version:   a.Version,
		Status:    StatusBuilt,
		Toolchain: a.Toolchain,
		Output:    a.Zip + " (" + humanize.Bytes(uint64(a.Bytes)) + ")",
	})
}

func (r *TableReporter) Fail(v string, err error) {
	r.send(RowUpdateMsg{Version: v, Status: StatusFailed, Output: err.Error()})
}

// LogReporter writes build progress as log records.
type LogReporter struct {
	Logger *log.Logger
}

func (r LogReporter) Start(v string, stage build.Stage) {
	r.Logger.Info(string(stage), "version", v)
}

func (r LogReporter) Skip(v string, err error) {
	r.Logger.Warn("skipped", "version", v, "err", err)
}

func (r LogReporter) Complete(a build.Artifact) {
	r.Logger.Info("built", "version", a.Version, "zip", a.Zip, "size", humanize.Bytes(uint64(a.Bytes)))
}

func (r LogReporter) Fail(v string, err error) {
	r.Logger.Error("failed", "version", v, "err", err)
}

var (
	_ build.ProgressReporter = (*TableReporter)(nil)
	_ build.ProgressReporter = LogReporter{}
)
