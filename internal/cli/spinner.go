package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// Spinner animates a one-line progress message on w while a render runs.
// It stops on Stop or when its context ends, whichever comes first.
type Spinner struct {
	w       io.Writer
	message string

	ctx    context.Context
	cancel context.CancelFunc

	once    sync.Once
	stopped chan struct{}
}

func newSpinnerWithContext(ctx context.Context, w io.Writer, message string) *Spinner {
	ctx, cancel := context.WithCancel(ctx)
	return &Spinner{
		w:       w,
		message: message,
		ctx:     ctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
}

// Start draws frames until the spinner stops. The line is cleared on exit.
func (s *Spinner) Start() {
	go func() {
		defer close(s.stopped)
		defer s.clearLine()

		tick := time.NewTicker(spinnerInterval)
		defer tick.Stop()
		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				return
			case <-tick.C:
				frame := spinnerFrames[i%len(spinnerFrames)]
				fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.message))
			}
		}
	}()
}

// Stop ends the animation and waits for the line to be cleared. It must
// follow Start and may be called more than once.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		s.cancel()
		<-s.stopped
	})
}

func (s *Spinner) clearLine() {
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", len(s.message)+4))
}

// Cancelled reports whether the spinner has stopped or its context ended.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}
