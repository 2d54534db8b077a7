package coverage

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"
)

// FileSummary holds statement counts for one file
type FileSummary struct {
	Name       string
	Statements int
	Missed     int
}

// Covered returns the number of executed statements
func (s FileSummary) Covered() int {
	return s.Statements - s.Missed
}

// Percent returns the covered share of statements, 100 when there are none
func (s FileSummary) Percent() float64 {
	if s.Statements == 0 {
		return 100
	}
	return 100 * float64(s.Covered()) / float64(s.Statements)
}

// DisplayPercent rounds Percent to a whole number without ever showing 0
// for partly covered code or 100 for incompletely covered code
func (s FileSummary) DisplayPercent() string {
	pc := s.Percent()
	switch {
	case pc > 0 && pc < 1:
		pc = 1
	case pc > 99 && pc < 100:
		pc = 99
	default:
		pc = math.RoundToEven(pc)
	}
	return strconv.FormatFloat(pc, 'f', 0, 64)
}

// Summarize computes per-file statement counts, ordered by file name
func Summarize(d *Data) []FileSummary {
	files := d.Files()
	summaries := make([]FileSummary, 0, len(files))
	for _, name := range files {
		s := FileSummary{Name: name}
		for _, b := range d.files[name] {
			s.Statements += b.NumStmt
			if b.Count == 0 {
				s.Missed += b.NumStmt
			}
		}
		summaries = append(summaries, s)
	}
	return summaries
}

// Total adds up a set of summaries
func Total(summaries []FileSummary) FileSummary {
	total := FileSummary{Name: "TOTAL"}
	for _, s := range summaries {
		total.Statements += s.Statements
		total.Missed += s.Missed
	}
	return total
}

// Report writes the Name / Stmts / Miss / Cover table. The name column is as
// wide as the longest name plus two spaces; rules are as wide as the header.
func Report(w io.Writer, summaries []FileSummary) error {
	width := utf8.RuneCountInString("TOTAL")
	for _, s := range summaries {
		width = max(width, utf8.RuneCountInString(s.Name))
	}

	header := fmt.Sprintf("%-*s  ", width, "Name") + " Stmts   Miss" + "  Cover"
	rule := strings.Repeat("-", utf8.RuneCountInString(header))

	row := func(s FileSummary) string {
		return fmt.Sprintf("%-*s  %6d %6d%6s%%", width, s.Name, s.Statements, s.Missed, s.DisplayPercent())
	}

	lines := []string{header, rule}
	for _, s := range summaries {
		lines = append(lines, row(s))
	}
	lines = append(lines, rule, row(Total(summaries)))

	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

// RewriteSummary replaces the absolute package directory in a Report table
// with ./<packageName> and narrows the header, TOTAL row and rules to match.
// When shortDir is set, rows may match either form; usedShort reports that
// every rewritten row carried the short form, in which case the short form's
// length drives the re-padding.
func RewriteSummary(output, packageDir, shortDir, packageName string) (rewritten string, usedShort bool) {
	newRoot := "." + string(os.PathSeparator) + packageName
	usedShort = shortDir != ""

	lines := strings.Split(output, "\n")
	for i, line := range lines {
		if len(strings.Fields(line)) != 4 {
			continue
		}
		if shortDir == "" {
			lines[i] = strings.ReplaceAll(line, packageDir, newRoot)
			continue
		}
		for _, prefix := range []string{packageDir, shortDir} {
			if strings.HasPrefix(line, prefix) {
				lines[i] = newRoot + line[len(prefix):]
				if prefix == packageDir {
					usedShort = false
				}
				break
			}
		}
	}

	oldLength := utf8.RuneCountInString(packageDir)
	if usedShort {
		oldLength = utf8.RuneCountInString(shortDir)
	}
	newLength := utf8.RuneCountInString(newRoot)

	repad := []struct{ old, new string }{
		{strings.Repeat("-", oldLength), strings.Repeat("-", newLength)},
		{"Name" + spaces(oldLength-4), "Name" + spaces(newLength-4)},
		{"TOTAL" + spaces(oldLength-5), "TOTAL" + spaces(newLength-5)},
	}
	for i, line := range lines {
		for _, r := range repad {
			if strings.HasPrefix(line, r.old) {
				lines[i] = r.new + line[len(r.old):]
				break
			}
		}
	}

	return strings.Join(lines, "\n"), usedShort
}

func spaces(n int) string {
	return strings.Repeat(" ", max(0, n))
}
