package tui

import "errors"

// ErrInterrupted is reported when the user quits the progress view.
var ErrInterrupted = errors.New("interrupted")

// RowUpdateMsg updates the row of one engine version. Empty fields are left
// unchanged. A row that reached a final status ignores later updates.
type RowUpdateMsg struct {
	Version   string
	Status    string
	Toolchain string
	Output    string
}

// WorkDoneMsg signals that the build goroutine has returned.
type WorkDoneMsg struct{}

// ErrorMsg signals a fatal error; the view quits and shows it.
type ErrorMsg struct {
	Err error
}
