package services

import (
	"log/slog"
	"regexp"
	"strings"

	"redfish-modelgen/internal/modelgen/models"
	"redfish-modelgen/pkg/javasrc"
)

// versionTokenRe matches a schema revision marker: V, a digit group, and
// optionally further digit groups separated by underscores.
var versionTokenRe = regexp.MustCompile(`V\d+(?:_\d+)*`)

// NormalizedName is the result of stripping version tokens from a type name
type NormalizedName struct {
	Token     string // the first token removed
	Name      string // type name, prefix and suffix joined by one separator
	Container string // storage container; the prefix alone when prefix == suffix
}

// NormalizeName strips every version token from name. It returns false when
// name carries no token, or when nothing would remain once it is removed.
//
//	ManagerV1141Manager -> Name Manager_Manager, Container Manager
//	Manager_V1_3_0      -> Name Manager, Container Manager
//	ResourceV1Status    -> Name Resource_Status, Container Resource_Status
func NormalizeName(name string) (NormalizedName, bool) {
	loc := versionTokenRe.FindStringIndex(name)
	if loc == nil {
		return NormalizedName{Name: name, Container: name}, false
	}

	prefix := strings.TrimRight(name[:loc[0]], "_")
	suffix := strings.TrimLeft(name[loc[1]:], "_")

	n := NormalizedName{Token: name[loc[0]:loc[1]]}
	switch {
	case prefix == "" && suffix == "":
		return NormalizedName{Name: name, Container: name}, false
	case prefix == "":
		n.Name = suffix
	case suffix == "":
		n.Name = prefix
	default:
		n.Name = prefix + "_" + suffix
	}

	n.Container = n.Name
	if prefix == suffix {
		n.Container = prefix
	}

	// Later tokens, if any, go the same way
	if rest, ok := NormalizeName(n.Name); ok {
		n.Name = rest.Name
	}
	if rest, ok := NormalizeName(n.Container); ok {
		n.Container = rest.Name
	}
	return n, true
}

// HasVersionToken reports whether an identifier carries a version token after
// at least one other character.
func HasVersionToken(ident string) bool {
	loc := versionTokenRe.FindStringIndex(ident)
	return loc != nil && loc[0] > 0
}

// Normalization is the output of the normalizer pass
type Normalization struct {
	Definitions []*models.TypeDefinition
	Renames     *models.RenameMap
	Removals    *models.RemovalSet
}

// Aliases maps every original name, winners and collision losers alike, to
// the normalized name references to it must use.
func (n *Normalization) Aliases() map[string]string {
	aliases := make(map[string]string, n.Renames.Len()+n.Removals.Len())
	for _, normalized := range n.Renames.Keys() {
		original, _ := n.Renames.Original(normalized)
		aliases[original] = normalized
	}
	for _, removal := range n.Removals.Items() {
		if removal.Original != removal.LostTo {
			aliases[removal.Original] = removal.LostTo
		}
	}
	return aliases
}

// Normalizer strips version tokens from type declarations
type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Run scans every file once, in workspace order, and rewrites the declaration
// line of each first-seen versioned type. A later type normalizing to an
// already claimed name is a collision: it is recorded in the removal set and
// its declaration is left alone.
func (n *Normalizer) Run(ws *Workspace, report *models.Report) *Normalization {
	result := &Normalization{
		Renames:  models.NewRenameMap(),
		Removals: models.NewRemovalSet(),
	}
	claimed := make(map[string]string)

	for _, sf := range ws.Files() {
		decl, ok := sf.File.TypeDecl()
		if !ok {
			report.Warn("normalize", sf.Name, "no top-level type declaration recognized")
			continue
		}

		def := &models.TypeDefinition{
			RawName:    decl.Name,
			Name:       decl.Name,
			SourceFile: sf.Name,
		}
		switch decl.TypeKind {
		case javasrc.Class:
			def.Kind = models.KindClass
		case javasrc.Enum:
			def.Kind = models.KindEnum
		default:
			report.Warn("normalize", sf.Name, "%s %s is not a model type", decl.TypeKind, decl.Name)
			continue
		}
		if decl.Name != sf.Name {
			report.Warn("normalize", sf.Name, "declares %s, which does not match the file name", decl.Name)
		}

		normalized, versioned := NormalizeName(decl.Name)
		if versioned {
			def.VersionToken = normalized.Token
			def.Name = normalized.Name
			def.Container = normalized.Container
		}
		sf.Definition = def
		result.Definitions = append(result.Definitions, def)

		if winner, taken := claimed[def.Name]; taken {
			slog.Debug("Version collision", "name", def.Name, "kept", winner, "dropped", decl.Name)
			sf.Loser = true
			result.Removals.Add(decl.Name, def.Name)
			report.Collisions++
			continue
		}
		claimed[def.Name] = decl.Name

		if !versioned {
			continue
		}
		result.Renames.Add(def.Name, decl.Name)
		renameDeclaration(sf, decl.Name, def.Name)
		report.Renamed++
	}

	return result
}

func renameDeclaration(sf *SourceFile, from, to string) {
	names := map[string]string{from: to}
	changed := sf.File.Edit(func(e *javasrc.Editor) {
		if line := e.Line(); line.Kind == javasrc.TypeDecl && line.Name == from {
			e.Replace(javasrc.ReplaceIdentifiers(line.Text, names))
		}
	})
	if changed {
		sf.Touch()
	}
}
