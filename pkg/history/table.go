package history

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/mslinn/package-coverage/pkg/database"
)

// WriteCommitTable lists the archived commits of a project
func WriteCommitTable(w io.Writer, project string, commits []*database.Commit, results map[string]int) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(project)
	t.AppendHeader(table.Row{"Commit", "Date", "Results", "Summary"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Results", Align: text.AlignRight},
	})

	total := 0
	for _, c := range commits {
		t.AppendRow(table.Row{c.Hash, trimFraction(c.Date), results[c.Hash], c.Summary})
		total += results[c.Hash]
	}
	t.AppendFooter(table.Row{"", "", total, ""})
	t.SetStyle(table.StyleLight)
	t.Render()
}
