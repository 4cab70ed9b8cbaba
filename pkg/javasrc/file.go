package javasrc

import (
	"strings"
)

// File is a parsed source file
type File struct {
	Lines           []Line
	trailingNewline bool
}

// Parse splits src into classified lines. Bytes on an unedited File returns
// src unchanged.
func Parse(src []byte) *File {
	text := string(src)
	f := &File{}
	if text == "" {
		return f
	}
	if strings.HasSuffix(text, "\n") {
		f.trailingNewline = true
		text = text[:len(text)-1]
	}
	for _, raw := range strings.Split(text, "\n") {
		f.Lines = append(f.Lines, Classify(raw))
	}
	return f
}

// Bytes emits the file text
func (f *File) Bytes() []byte {
	var b strings.Builder
	for i, line := range f.Lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line.Text)
	}
	if f.trailingNewline && len(f.Lines) > 0 {
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// String is Bytes as a string
func (f *File) String() string {
	return string(f.Bytes())
}

// Find returns the index of the first line of the given kind, or -1
func (f *File) Find(kind Kind) int {
	for i, line := range f.Lines {
		if line.Kind == kind {
			return i
		}
	}
	return -1
}

// TypeDecl returns the first top-level type declaration
func (f *File) TypeDecl() (Line, bool) {
	if i := f.Find(TypeDecl); i >= 0 {
		return f.Lines[i], true
	}
	return Line{}, false
}

// HasImport reports whether the file already imports path
func (f *File) HasImport(path string) bool {
	for _, line := range f.Lines {
		if line.Kind == Import && line.Name == path {
			return true
		}
	}
	return false
}

// Contains reports whether any line's trimmed text equals text
func (f *File) Contains(text string) bool {
	text = strings.TrimSpace(text)
	for _, line := range f.Lines {
		if strings.TrimSpace(line.Text) == text {
			return true
		}
	}
	return false
}

// Editor collects the edits for the line currently being visited
type Editor struct {
	file    *File
	index   int
	before  []Line
	after   []Line
	current Line
	dropped bool
	changed bool
}

// Index is the position of the visited line in the unedited file
func (e *Editor) Index() int { return e.index }

// Peek returns the line offset positions away from the visited one in the
// unedited file
func (e *Editor) Peek(offset int) (Line, bool) {
	i := e.index + offset
	if i < 0 || i >= len(e.file.Lines) {
		return Line{}, false
	}
	return e.file.Lines[i], true
}

// Line is the visited line including any replacement made so far
func (e *Editor) Line() Line { return e.current }

// Replace swaps the visited line's text and re-classifies it
func (e *Editor) Replace(text string) {
	if text == e.current.Text {
		return
	}
	e.current = Classify(text)
	e.changed = true
}

// InsertBefore queues lines ahead of the visited line
func (e *Editor) InsertBefore(texts ...string) {
	for _, text := range texts {
		e.before = append(e.before, Classify(text))
	}
	e.changed = e.changed || len(texts) > 0
}

// InsertAfter queues lines behind the visited line, in order
func (e *Editor) InsertAfter(texts ...string) {
	for _, text := range texts {
		e.after = append(e.after, Classify(text))
	}
	e.changed = e.changed || len(texts) > 0
}

// Drop removes the visited line
func (e *Editor) Drop() {
	e.dropped = true
	e.changed = true
}

// Edit visits every original line once, in order. Lines inserted through the
// Editor are placed around the visited line and are never visited themselves,
// so no pass can re-process its own output. Edit reports whether anything
// changed.
func (f *File) Edit(visit func(e *Editor)) bool {
	out := make([]Line, 0, len(f.Lines))
	changed := false
	e := &Editor{file: f}
	for i, line := range f.Lines {
		e.index = i
		e.before, e.after = nil, nil
		e.current = line
		e.dropped, e.changed = false, false

		visit(e)

		out = append(out, e.before...)
		if !e.dropped {
			out = append(out, e.current)
		}
		out = append(out, e.after...)
		changed = changed || e.changed
	}
	if changed {
		f.Lines = out
	}
	return changed
}
