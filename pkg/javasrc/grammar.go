// Package javasrc models the generated Java model sources as a sequence of
// recognized declaration lines, so passes can edit declarations without
// splicing raw text by index.
package javasrc

import (
	"regexp"
	"strings"
)

// Kind tags a recognized line shape
type Kind int

const (
	Other Kind = iota
	Blank
	Package
	Import
	Annotation
	TypeDecl
	PropertyAnnotation
	FieldMapping
	Pattern
)

func (k Kind) String() string {
	switch k {
	case Blank:
		return "blank"
	case Package:
		return "package"
	case Import:
		return "import"
	case Annotation:
		return "annotation"
	case TypeDecl:
		return "type"
	case PropertyAnnotation:
		return "property"
	case FieldMapping:
		return "field-mapping"
	case Pattern:
		return "pattern"
	default:
		return "other"
	}
}

// TypeKind distinguishes the declared type forms
type TypeKind string

const (
	Class     TypeKind = "class"
	Enum      TypeKind = "enum"
	Interface TypeKind = "interface"
)

// Line is one source line with its recognized shape. Name holds the package
// or import path, the declared type name, or the serialized property name,
// depending on Kind.
type Line struct {
	Kind     Kind
	Text     string
	Name     string
	TypeKind TypeKind
	// Opens reports whether a type declaration opens its body on the same line
	Opens bool
}

// Order matters: pattern and field shapes must be tried before the generic
// annotation shape.
var (
	packageRe  = regexp.MustCompile(`^package\s+([\w.]+)\s*;`)
	importRe   = regexp.MustCompile(`^import\s+(?:static\s+)?([\w.*]+)\s*;`)
	typeDeclRe = regexp.MustCompile(`^public\s+(?:(?:abstract|final|static)\s+)*(class|enum|interface)\s+([A-Za-z_$][\w$]*)(.*)$`)
	patternRe  = regexp.MustCompile(`^\s*@Pattern\(`)
	propertyRe = regexp.MustCompile(`^\s+@JsonProperty\("([^"]*)"\)\s*$`)
	mappingRe  = regexp.MustCompile(`^\s+@Field\("([^"]*)"\)\s*$`)
	topAnnotRe = regexp.MustCompile(`^@([\w.]+)`)
)

// Classify recognizes the shape of a single line of text
func Classify(text string) Line {
	line := Line{Kind: Other, Text: text}

	if strings.TrimSpace(text) == "" {
		line.Kind = Blank
		return line
	}
	if m := packageRe.FindStringSubmatch(text); m != nil {
		line.Kind, line.Name = Package, m[1]
		return line
	}
	if m := importRe.FindStringSubmatch(text); m != nil {
		line.Kind, line.Name = Import, m[1]
		return line
	}
	if m := typeDeclRe.FindStringSubmatch(text); m != nil {
		line.Kind = TypeDecl
		line.TypeKind = TypeKind(m[1])
		line.Name = m[2]
		line.Opens = strings.Contains(m[3], "{")
		return line
	}
	if patternRe.MatchString(text) {
		line.Kind = Pattern
		return line
	}
	if m := propertyRe.FindStringSubmatch(text); m != nil {
		line.Kind, line.Name = PropertyAnnotation, m[1]
		return line
	}
	if m := mappingRe.FindStringSubmatch(text); m != nil {
		line.Kind, line.Name = FieldMapping, m[1]
		return line
	}
	if m := topAnnotRe.FindStringSubmatch(text); m != nil {
		line.Kind, line.Name = Annotation, m[1]
		return line
	}
	return line
}
