package history

import (
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"github.com/mslinn/package-coverage/pkg/browser"
	"github.com/mslinn/package-coverage/pkg/textfmt"
	"github.com/mslinn/package-coverage/pkg/ui"
)

// handoff is the delay used when a worker posts back to the UI loop
const handoff = 10 * time.Millisecond

// Scheduler runs closures on the UI goroutine
type Scheduler interface {
	Schedule(fn func())
	ScheduleAfter(d time.Duration, fn func())
}

// Notifier shows messages to the user
type Notifier interface {
	Error(msg string)
	Status(msg string)
}

// Browser walks the user from a package to a commit to an opened report.
// Queries and report generation run on their own goroutines; every pick and
// message happens on the UI loop.
type Browser struct {
	Store         Store
	Loop          Scheduler
	PackagePicker ui.Picker
	CommitPicker  ui.Picker
	Notifier      Notifier
	PackageDir    func(name string) string
	Open          func(target string) error
	Logger        zerolog.Logger
}

// Browse starts the flow over the given packages. done is called on the UI
// loop exactly once: with nil after a report opens or the user cancels, or
// with the error that ended the flow.
func (b *Browser) Browse(packages []string, done func(error)) {
	b.Loop.Schedule(func() {
		index, err := b.PackagePicker.Pick("Package", packages)
		if err != nil {
			done(err)
			return
		}
		if index == ui.NoSelection {
			done(nil)
			return
		}
		go b.findCommits(packages[index], done)
	})
}

func (b *Browser) findCommits(project string, done func(error)) {
	commits, err := b.Store.ListCommits(project)
	if err != nil {
		b.Loop.ScheduleAfter(handoff, func() { done(err) })
		return
	}

	hashes := make([]string, 0, len(commits))
	titles := make([]string, 0, len(commits))
	for _, c := range commits {
		hashes = append(hashes, c.Hash)
		titles = append(titles, CommitTitle(c))
	}

	b.Loop.ScheduleAfter(handoff, func() { b.showCommits(project, hashes, titles, done) })
}

func (b *Browser) showCommits(project string, hashes, titles []string, done func(error)) {
	if len(hashes) == 0 {
		b.Notifier.Error(textfmt.FormatMessage(`
			Package Coverage

			No coverage results exists for %s
			`, textfmt.Params(project)))
		done(fmt.Errorf("%w for %s", ErrNoResults, project))
		return
	}

	index, err := b.CommitPicker.Pick("Commit", titles)
	if err != nil {
		done(err)
		return
	}
	if index == ui.NoSelection {
		done(nil)
		return
	}

	go b.generate(project, hashes[index], done)
}

func (b *Browser) generate(project, commitHash string, done func(error)) {
	b.Logger.Debug().Str("package", project).Str("commit", commitHash).Msg("Generating report")

	index, err := GenerateReport(b.Store, project, b.PackageDir(project), commitHash)
	if err == nil {
		err = b.Open(browser.FileURL(runtime.GOOS, index))
	}

	b.Loop.ScheduleAfter(handoff, func() {
		if err == nil {
			b.Notifier.Status(fmt.Sprintf("Package Coverage: opened %s", index))
		}
		done(err)
	})
}
