package tui

import (
	"context"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// RunWithWork starts a bubbletea program, runs workFn in a goroutine and
// blocks until both have finished. If the view is quit early, cancel is
// called so workFn can wind down its external processes.
func RunWithWork(out io.Writer, model BuildModel, cancel context.CancelFunc, workFn func(send func(tea.Msg))) error {
	p := tea.NewProgram(model, tea.WithOutput(out))
	workDone := make(chan struct{})

	go func() {
		defer close(workDone)
		// Let the event loop render the first frame.
		time.Sleep(50 * time.Millisecond)

		workFn(func(msg tea.Msg) {
			p.Send(msg)
			time.Sleep(5 * time.Millisecond)
		})

		p.Send(WorkDoneMsg{})
	}()

	finalModel, err := p.Run()
	if err != nil {
		cancel()
		<-workDone
		return err
	}
	if m, ok := finalModel.(BuildModel); ok && m.Err() != nil {
		cancel()
		<-workDone
		return m.Err()
	}
	<-workDone
	return nil
}
