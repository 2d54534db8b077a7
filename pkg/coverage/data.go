package coverage

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/tools/cover"
)

// DefaultMode is used for data that has not seen a profile yet
const DefaultMode = "set"

// Data is a set of line coverage blocks keyed by source file
type Data struct {
	Mode  string
	files map[string][]cover.ProfileBlock
}

// NewData returns an empty data set
func NewData() *Data {
	return &Data{files: make(map[string][]cover.ProfileBlock)}
}

// Parse reads a Go cover profile
func Parse(r io.Reader) (*Data, error) {
	profiles, err := cover.ParseProfilesFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse coverage profile: %w", err)
	}

	d := NewData()
	for _, p := range profiles {
		if d.Mode == "" {
			d.Mode = p.Mode
		}
		d.files[p.FileName] = append(d.files[p.FileName], p.Blocks...)
	}
	return d, nil
}

// Decode parses serialized data produced by Encode
func Decode(b []byte) (*Data, error) {
	return Parse(bytes.NewReader(b))
}

// Encode serializes the data in cover profile format, files and blocks sorted
func (d *Data) Encode() []byte {
	var buf bytes.Buffer
	mode := d.Mode
	if mode == "" {
		mode = DefaultMode
	}
	fmt.Fprintf(&buf, "mode: %s\n", mode)

	for _, name := range d.Files() {
		for _, b := range d.Blocks(name) {
			fmt.Fprintf(&buf, "%s:%d.%d,%d.%d %d %d\n",
				name, b.StartLine, b.StartCol, b.EndLine, b.EndCol, b.NumStmt, b.Count)
		}
	}
	return buf.Bytes()
}

// Files returns the measured file names in sorted order
func (d *Data) Files() []string {
	names := make([]string, 0, len(d.files))
	for name := range d.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Blocks returns the blocks of one file ordered by position
func (d *Data) Blocks(name string) []cover.ProfileBlock {
	blocks := append([]cover.ProfileBlock(nil), d.files[name]...)
	sort.Slice(blocks, func(i, j int) bool {
		if blocks[i].StartLine != blocks[j].StartLine {
			return blocks[i].StartLine < blocks[j].StartLine
		}
		return blocks[i].StartCol < blocks[j].StartCol
	})
	return blocks
}

type blockKey struct {
	startLine, startCol, endLine, endCol int
}

func keyOf(b cover.ProfileBlock) blockKey {
	return blockKey{b.StartLine, b.StartCol, b.EndLine, b.EndCol}
}

// Update merges other into d. File names in other are remapped through
// aliases when it is non-nil. Counts are ORed in set mode and summed
// otherwise.
func (d *Data) Update(other *Data, aliases *PathAliases) error {
	if other == nil {
		return nil
	}
	if d.files == nil {
		d.files = make(map[string][]cover.ProfileBlock)
	}
	if d.Mode == "" {
		d.Mode = other.Mode
	} else if other.Mode != "" && other.Mode != d.Mode {
		return fmt.Errorf("cannot merge %s coverage data into %s data", other.Mode, d.Mode)
	}

	for name, blocks := range other.files {
		if aliases != nil {
			name = aliases.Map(name)
		}
		d.files[name] = d.mergeBlocks(d.files[name], blocks)
	}
	return nil
}

func (d *Data) mergeBlocks(into, from []cover.ProfileBlock) []cover.ProfileBlock {
	index := make(map[blockKey]int, len(into))
	for i, b := range into {
		index[keyOf(b)] = i
	}

	for _, b := range from {
		i, ok := index[keyOf(b)]
		if !ok {
			index[keyOf(b)] = len(into)
			into = append(into, b)
			continue
		}
		if d.Mode == "set" {
			if b.Count > 0 {
				into[i].Count = 1
			}
		} else {
			into[i].Count += b.Count
		}
	}
	return into
}

// ResolveFiles rewrites import-path file names (example.com/mod/pkg/file.go)
// to absolute paths using a map of import path to package directory. Names
// that are already absolute or whose package is unknown are left alone.
func (d *Data) ResolveFiles(dirs map[string]string) {
	resolved := make(map[string][]cover.ProfileBlock, len(d.files))
	for name, blocks := range d.files {
		if !filepath.IsAbs(name) {
			if dir, ok := dirs[path.Dir(name)]; ok {
				name = filepath.Join(dir, path.Base(name))
			}
		}
		resolved[name] = append(resolved[name], blocks...)
	}
	d.files = resolved
}

// Filter keeps files below one of the include directories and below none of
// the omit directories. An empty include list keeps everything not omitted.
func (d *Data) Filter(include, omit []string) {
	for name := range d.files {
		if len(include) > 0 && !underAny(name, include) {
			delete(d.files, name)
			continue
		}
		if underAny(name, omit) {
			delete(d.files, name)
		}
	}
}

func underAny(name string, dirs []string) bool {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if strings.HasPrefix(name, withSeparator(dir)) {
			return true
		}
	}
	return false
}
