package services

import (
	"fmt"
	"strings"

	"redfish-modelgen/internal/modelgen/models"
	"redfish-modelgen/pkg/config"
	"redfish-modelgen/pkg/javasrc"
)

// PersistenceImports are added after the package declaration of every model
var PersistenceImports = []string{
	"org.springframework.data.mongodb.core.mapping.Document",
	"org.springframework.data.mongodb.core.mapping.Field",
	"org.bson.types.ObjectId",
	"org.springframework.data.annotation.Id",
}

const identityMapping = `@Field("_id")`

// Annotator injects the MongoDB mapping metadata into the models
type Annotator struct {
	cfg config.ModelsConfig
}

func NewAnnotator(cfg config.ModelsConfig) *Annotator {
	return &Annotator{cfg: cfg}
}

// ContainerName returns the storage container for a definition, or "" when
// the type is not stored on its own. Collection types keep their name up to
// the collection suffix, dropping whatever the generator appended after it.
func (a *Annotator) ContainerName(def *models.TypeDefinition) string {
	if def == nil {
		return ""
	}
	suffix := a.cfg.CollectionSuffix
	if strings.HasSuffix(def.Name, suffix) {
		return def.Name[:strings.Index(def.Name, suffix)+len(suffix)]
	}
	if def.Versioned() {
		return def.Container
	}
	return ""
}

// Run annotates every surviving file. Files that already carry the
// persistence imports are skipped, so running the pass twice is safe.
func (a *Annotator) Run(ws *Workspace, report *models.Report) {
	for _, sf := range ws.Files() {
		if sf.Loser {
			continue
		}
		if sf.File.HasImport(PersistenceImports[0]) {
			continue
		}
		if a.annotate(sf, report) {
			sf.Touch()
			report.Annotated++
		}
	}
}

func (a *Annotator) annotate(sf *SourceFile, report *models.Report) bool {
	container := a.ContainerName(sf.Definition)
	sourcePrefix := a.cfg.SourcePackage + "."
	seenType := false

	return sf.File.Edit(func(e *javasrc.Editor) {
		if len(a.cfg.Substitutions) > 0 {
			e.Replace(javasrc.ReplaceIdentifiers(e.Line().Text, a.cfg.Substitutions))
		}
		line := e.Line()

		switch line.Kind {
		case javasrc.Package:
			if line.Name == a.cfg.SourcePackage {
				e.Replace(fmt.Sprintf("package %s;", a.cfg.TargetPackage))
			}
			for _, imp := range PersistenceImports {
				if !sf.File.HasImport(imp) {
					e.InsertAfter(fmt.Sprintf("import %s;", imp))
				}
			}

		case javasrc.Import:
			if strings.HasPrefix(line.Name, sourcePrefix) {
				e.Replace(strings.Replace(line.Text, sourcePrefix, a.cfg.TargetPackage+".", 1))
			}

		case javasrc.TypeDecl:
			if seenType {
				return
			}
			seenType = true
			if line.TypeKind != javasrc.Class {
				return
			}
			if !line.Opens {
				report.Warn("annotate", sf.Name, "declaration of %s does not open its body on the same line; left unannotated", line.Name)
				return
			}
			if container != "" && !precededByDocument(e) {
				e.InsertBefore(fmt.Sprintf("@Document(%q)", container))
			}
			if next, ok := e.Peek(1); !ok || strings.TrimSpace(next.Text) != identityMapping {
				e.InsertAfter(
					"  "+identityMapping,
					"  @Id",
					"  private ObjectId _id;",
					"",
				)
			}

		case javasrc.PropertyAnnotation:
			if next, ok := e.Peek(1); ok && next.Kind == javasrc.FieldMapping && next.Name == line.Name {
				return
			}
			e.InsertAfter(fmt.Sprintf("%s@Field(%q)", leadingSpace(line.Text), line.Name))

		case javasrc.Pattern:
			e.Replace(strings.ReplaceAll(line.Text, `\`, `\\`))
		}
	})
}

func precededByDocument(e *javasrc.Editor) bool {
	for offset := -1; ; offset-- {
		prev, ok := e.Peek(offset)
		if !ok {
			return false
		}
		switch prev.Kind {
		case javasrc.Blank:
			continue
		case javasrc.Annotation:
			if prev.Name == "Document" {
				return true
			}
			continue
		default:
			return false
		}
	}
}

func leadingSpace(text string) string {
	return text[:len(text)-len(strings.TrimLeft(text, " \t"))]
}
