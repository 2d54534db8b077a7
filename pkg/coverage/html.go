package coverage

import (
	"bufio"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var funcs = template.FuncMap{
	"coverClass": func(s FileSummary) string {
		switch pc := s.Percent(); {
		case pc >= 80:
			return "high"
		case pc >= 50:
			return "mid"
		default:
			return "low"
		}
	},
}

var (
	indexTemplate = template.Must(template.New("index.html.tmpl").Funcs(funcs).
			ParseFS(templateFS, "templates/index.html.tmpl", "templates/style.html.tmpl"))
	fileTemplate = template.Must(template.New("file.html.tmpl").Funcs(funcs).
			ParseFS(templateFS, "templates/file.html.tmpl", "templates/style.html.tmpl"))
)

// IndexPage is the entry page written by WriteHTML
const IndexPage = "index.html"

type indexEntry struct {
	Summary FileSummary
	Page    string
}

type sourceLine struct {
	Number int
	Text   string
	Class  string // "run", "mis" or ""
}

// WriteHTML renders an index page and one annotated source page per file
// into dir. Source files are read from the paths recorded in d.
func WriteHTML(dir, title string, d *Data) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	summaries := Summarize(d)
	pages := newPageNamer()
	entries := make([]indexEntry, 0, len(summaries))
	for _, s := range summaries {
		entry := indexEntry{Summary: s, Page: pages.name(s.Name)}
		entries = append(entries, entry)

		// Sources that moved or were deleted still get a page with the counts
		lines, _ := annotate(s.Name, d)
		err := render(filepath.Join(dir, entry.Page), fileTemplate, map[string]any{
			"Title":   title,
			"Summary": s,
			"Lines":   lines,
		})
		if err != nil {
			return err
		}
	}

	return render(filepath.Join(dir, IndexPage), indexTemplate, map[string]any{
		"Title":     title,
		"Generated": time.Now().Format("2006-01-02 15:04"),
		"Files":     entries,
		"Total":     Total(summaries),
	})
}

func render(path string, tmpl *template.Template, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// pageName flattens a file path into a page file name. Different paths can
// flatten to the same name; pageNamer resolves that.
func pageName(name string) string {
	r := strings.NewReplacer("/", "_", `\`, "_", ":", "_", ".", "_")
	return strings.TrimLeft(r.Replace(name), "_") + ".html"
}

// pageNamer hands out page names that are unique within one report,
// numbering the later of two colliding paths
type pageNamer struct {
	used map[string]bool
}

func newPageNamer() *pageNamer {
	return &pageNamer{used: make(map[string]bool)}
}

func (p *pageNamer) name(path string) string {
	page := pageName(path)
	base := strings.TrimSuffix(page, ".html")
	for n := 2; p.used[page]; n++ {
		page = base + "_" + strconv.Itoa(n) + ".html"
	}
	p.used[page] = true
	return page
}

// annotate marks each source line as run or missed. A line touched by any
// block that never executed counts as missed.
func annotate(name string, d *Data) ([]sourceLine, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	state := make(map[int]string)
	for _, b := range d.files[name] {
		for line := b.StartLine; line <= b.EndLine; line++ {
			if b.Count == 0 {
				state[line] = "mis"
			} else if state[line] == "" {
				state[line] = "run"
			}
		}
	}

	var lines []sourceLine
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for n := 1; scanner.Scan(); n++ {
		lines = append(lines, sourceLine{Number: n, Text: scanner.Text(), Class: state[n]})
	}
	return lines, scanner.Err()
}
