package solidity

import (
	"errors"
	"sort"
	"unicode/utf8"

	"github.com/weasel-sec/weasel/internal/types"
)

// File is one parsed source file: its path, raw text and syntax tree.
type File struct {
	Path   string
	Source string
	Unit   *SourceUnit

	lineStarts []int
}

// NewFile indexes src for position lookups. Unit is left nil.
func NewFile(path, src string) *File {
	f := &File{Path: path, Source: src, lineStarts: []int{0}}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			f.lineStarts = append(f.lineStarts, i+1)
		}
	}
	return f
}

// ParseFile lexes and parses src. Syntax errors carry the path and a 1-based
// line and column.
func ParseFile(path string, src []byte) (*File, error) {
	f := NewFile(path, string(src))
	unit, err := Parse(f.Source)
	if err != nil {
		var se *SyntaxError
		if errors.As(err, &se) {
			se.Path = path
			se.Line, se.Column = f.Position(se.Offset)
		}
		return nil, err
	}
	f.Unit = unit
	return f, nil
}

// Position converts a byte offset to a 1-based line and 1-based column
// counted in runes.
func (f *File) Position(offset int) (line, col int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(f.Source) {
		offset = len(f.Source)
	}
	i := sort.Search(len(f.lineStarts), func(i int) bool { return f.lineStarts[i] > offset }) - 1
	start := f.lineStarts[i]
	return i + 1, utf8.RuneCountInString(f.Source[start:offset]) + 1
}

// Text returns the exact source text of n.
func (f *File) Text(n Node) string {
	lo, hi := n.Pos(), n.End()
	if lo < 0 {
		lo = 0
	}
	if hi > len(f.Source) {
		hi = len(f.Source)
	}
	if lo >= hi {
		return ""
	}
	return f.Source[lo:hi]
}

// Location describes where n sits in the file.
func (f *File) Location(n Node) types.Location {
	line, col := f.Position(n.Pos())
	endLine, endCol := f.Position(n.End())
	return types.Location{
		Path:      f.Path,
		Line:      line,
		Column:    col,
		EndLine:   endLine,
		EndColumn: endCol,
		Snippet:   f.Text(n),
	}
}

// Lines returns the number of lines in the file.
func (f *File) Lines() int { return len(f.lineStarts) }
