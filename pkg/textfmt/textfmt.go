// Package textfmt normalizes indented multi-line message literals into the
// text shown to users.
package textfmt

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type options struct {
	params []any
	keep   bool
	indent string
}

// Option customizes FormatMessage
type Option func(*options)

// Params interpolates args with fmt.Sprintf after the text is normalized
func Params(args ...any) Option {
	return func(o *options) { o.params = args }
}

// KeepTrailingNewline leaves a single trailing newline in place
func KeepTrailingNewline() Option {
	return func(o *options) { o.keep = true }
}

// Indent prefixes every line of the result
func Indent(prefix string) Option {
	return func(o *options) { o.indent = prefix }
}

// FormatMessage dedents s, drops one leading and one trailing newline that
// come from source formatting, and joins wrapped lines. Lines that start with
// whitespace, a digit, '*', '-' or '=' are kept on their own line so lists
// and underlines survive.
func FormatMessage(s string, opts ...Option) string {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	out := s
	if strings.Contains(out, "\n") {
		out = Dedent(out)
	}

	if strings.HasPrefix(out, "\n") && !strings.HasPrefix(out, "\n\n") {
		out = out[1:]
	}

	if strings.Contains(out, "\n") {
		out = unwrap(out)
	}

	if !o.keep && strings.HasSuffix(out, "\n") && !strings.HasSuffix(out, "\n\n") {
		out = out[:len(out)-1]
	}

	if o.params != nil {
		out = fmt.Sprintf(out, o.params...)
	}

	if o.indent != "" {
		out = o.indent + strings.ReplaceAll(out, "\n", "\n"+o.indent)
	}

	return out
}

// Dedent removes the whitespace prefix shared by every non-blank line.
// Blank lines are emptied and do not count toward the shared prefix.
func Dedent(s string) string {
	lines := strings.Split(s, "\n")

	margin := ""
	first := true
	for i, line := range lines {
		if strings.TrimLeft(line, " \t") == "" {
			lines[i] = ""
			continue
		}
		lead := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		switch {
		case first:
			margin = lead
			first = false
		case strings.HasPrefix(lead, margin):
		case strings.HasPrefix(margin, lead):
			margin = lead
		default:
			margin = commonPrefix(margin, lead)
		}
	}

	if margin != "" {
		for i, line := range lines {
			lines[i] = strings.TrimPrefix(line, margin)
		}
	}
	return strings.Join(lines, "\n")
}

func commonPrefix(a, b string) string {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:n]
}

// unwrap replaces a newline with a space when it follows a non-space
// character and precedes ordinary text.
func unwrap(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] != '\n' || i == 0 || i == len(s)-1 {
			b.WriteByte(s[i])
			continue
		}

		prev, _ := utf8.DecodeLastRuneInString(s[:i])
		next, _ := utf8.DecodeRuneInString(s[i+1:])
		if !unicode.IsSpace(prev) && joinable(next) {
			b.WriteByte(' ')
		} else {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func joinable(r rune) bool {
	switch r {
	case ' ', '\n', '\t', '*', '-', '=':
		return false
	}
	return !unicode.IsDigit(r)
}
