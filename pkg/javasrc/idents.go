package javasrc

import "regexp"

var identRe = regexp.MustCompile(`[A-Za-z_$][\w$]*`)

// ReplaceIdentifiers rewrites every whole identifier of text found in names.
// Substrings of longer identifiers are left alone.
func ReplaceIdentifiers(text string, names map[string]string) string {
	if len(names) == 0 {
		return text
	}
	return identRe.ReplaceAllStringFunc(text, func(ident string) string {
		if replacement, ok := names[ident]; ok {
			return replacement
		}
		return ident
	})
}

// Identifiers returns every identifier appearing in text, in order
func Identifiers(text string) []string {
	return identRe.FindAllString(text, -1)
}

// RenameAll applies ReplaceIdentifiers to every line of the file and reports
// whether anything changed
func (f *File) RenameAll(names map[string]string) bool {
	return f.Edit(func(e *Editor) {
		e.Replace(ReplaceIdentifiers(e.Line().Text, names))
	})
}
