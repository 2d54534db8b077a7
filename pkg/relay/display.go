package relay

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/acarl005/stripansi"
)

// PollInterval is how long the display loop sleeps when the buffer is empty
const PollInterval = 50 * time.Millisecond

// Handoff is the delay applied to each panel insert handed to the scheduler
const Handoff = 10 * time.Millisecond

// Indent nests wrapped output under the headline
const Indent = "  "

// Panel receives text for display. It must only be touched from the
// scheduler's own goroutine.
type Panel interface {
	Insert(text string)
}

// Scheduler hands a closure to the UI's serialized execution context after a
// delay. Closures must run in the order they were handed over.
type Scheduler interface {
	ScheduleAfter(d time.Duration, fn func())
}

// DisplayOptions configures a display loop
type DisplayOptions struct {
	Headline  string
	Panel     Panel
	Scheduler Scheduler
	Buffer    *Buffer
	Capture   io.Writer     // Optional sink for unwrapped output
	Interval  time.Duration // Defaults to PollInterval
}

// Display forwards buffered output to the panel until the sentinel arrives.
// Text following the sentinel is left in the buffer. When ctx is cancelled
// the loop returns ctx.Err(); with a background context a worker that never
// writes the sentinel keeps the loop alive indefinitely.
func Display(ctx context.Context, opts DisplayOptions) error {
	interval := opts.Interval
	if interval <= 0 {
		interval = PollInterval
	}

	// chars is passed by value so each scheduled insert keeps its own chunk
	write := func(chars string) {
		opts.Scheduler.ScheduleAfter(Handoff, func() {
			opts.Panel.Insert(chars)
		})
	}

	write(opts.Headline + "\n\n" + Indent)

	for {
		chars := opts.Buffer.Drain()
		if chars == "" {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval):
			}
			continue
		}

		done := false
		if idx := strings.IndexRune(chars, Sentinel); idx != -1 {
			opts.Buffer.Unread(chars[idx+1:])
			chars = chars[:idx]
			done = true
		}

		if chars != "" {
			if opts.Capture != nil {
				if _, err := io.WriteString(opts.Capture, stripansi.Strip(chars)); err != nil {
					return err
				}
			}
			write(Wrap(chars))
		}

		if done {
			return nil
		}
	}
}

// Wrap reindents embedded newlines so output stays nested under the headline
func Wrap(chars string) string {
	return strings.ReplaceAll(chars, "\n", "\n"+Indent)
}
