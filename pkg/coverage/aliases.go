package coverage

import "strings"

type alias struct {
	from string
	to   string
	sep  byte
}

// PathAliases remaps recorded file path prefixes to another root, so data
// measured in one checkout can be reported against a different one
type PathAliases struct {
	aliases []alias
}

// Add registers a prefix rewrite. Both prefixes are treated as directories.
func (p *PathAliases) Add(from, to string) {
	to = withSeparator(to)
	sep := byte('/')
	if to != "" {
		sep = to[len(to)-1]
	}
	p.aliases = append(p.aliases, alias{
		from: withSeparator(from),
		to:   to,
		sep:  sep,
	})
}

// Map returns path rewritten by the first alias whose prefix matches, with
// separators converted to the style of the replacement. Unmatched paths are
// returned unchanged.
func (p *PathAliases) Map(path string) string {
	for _, a := range p.aliases {
		if !strings.HasPrefix(path, a.from) {
			continue
		}
		rest := path[len(a.from):]
		if a.sep == '/' {
			rest = strings.ReplaceAll(rest, `\`, "/")
		} else {
			rest = strings.ReplaceAll(rest, "/", `\`)
		}
		return a.to + rest
	}
	return path
}

// withSeparator appends the separator style already used by dir when it does
// not end with one
func withSeparator(dir string) string {
	if dir == "" || strings.HasSuffix(dir, "/") || strings.HasSuffix(dir, `\`) {
		return dir
	}
	if strings.Contains(dir, `\`) && !strings.Contains(dir, "/") {
		return dir + `\`
	}
	return dir + "/"
}
