package services

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"redfish-modelgen/internal/modelgen/models"
	"redfish-modelgen/pkg/config"
	"redfish-modelgen/pkg/javasrc"
)

// Finalizer settles the file set once every text pass is done: losers are
// deleted, survivors take their normalized file names and the hand-written
// field type overrides are applied.
type Finalizer struct {
	cfg config.ModelsConfig
}

func NewFinalizer(cfg config.ModelsConfig) *Finalizer {
	return &Finalizer{cfg: cfg}
}

// RemoveLosers deletes every collision loser still on disk
func (f *Finalizer) RemoveLosers(ws *Workspace, report *models.Report) error {
	for _, sf := range ws.Files() {
		if !sf.Loser {
			continue
		}
		if err := ws.Remove(sf); err != nil {
			return err
		}
		report.Removed++
	}
	return nil
}

// Run removes remaining losers, renames files and applies overrides. Touched
// files still need a Flush.
func (f *Finalizer) Run(ws *Workspace, report *models.Report) error {
	if err := f.RemoveLosers(ws, report); err != nil {
		return err
	}

	for _, sf := range ws.Files() {
		if sf.Definition == nil || sf.Definition.Name == sf.Name {
			continue
		}
		if err := ws.Rename(sf, sf.Definition.Name); err != nil {
			return err
		}
	}

	for _, override := range f.cfg.FieldOverrides {
		sf, ok := ws.Get(override.Type)
		if !ok {
			report.Warn("finalize", override.Type, "field override target not found")
			continue
		}
		if applyFieldOverride(sf.File, override) {
			sf.Touch()
		}
	}

	for _, sf := range ws.Files() {
		if stale := staleIdentifiers(sf.File); len(stale) > 0 {
			report.Warn("finalize", sf.Name, "identifiers still carry a version token: %s", strings.Join(stale, ", "))
		}
	}
	return nil
}

// applyFieldOverride swaps the declared type of one field, its fluent setter
// parameter and its getter, and imports the replacement type.
func applyFieldOverride(file *javasrc.File, o config.FieldOverride) bool {
	getter := "get" + strings.ToUpper(o.Field[:1]) + o.Field[1:]
	typeRe := regexp.MustCompile(`\b` + regexp.QuoteMeta(o.FromType) + `(\s+` + regexp.QuoteMeta(o.Field) + `\b|\s+` + regexp.QuoteMeta(getter) + `\(\))`)
	needsImport := o.Import != "" && !file.HasImport(o.Import)

	return file.Edit(func(e *javasrc.Editor) {
		line := e.Line()
		if line.Kind == javasrc.Package && needsImport {
			e.InsertAfter(fmt.Sprintf("import %s;", o.Import))
			return
		}
		e.Replace(typeRe.ReplaceAllString(line.Text, o.FieldType+"$1"))
	})
}

func staleIdentifiers(file *javasrc.File) []string {
	seen := make(map[string]struct{})
	for _, line := range file.Lines {
		if line.Kind == javasrc.Package || line.Kind == javasrc.Blank {
			continue
		}
		for _, ident := range javasrc.Identifiers(line.Text) {
			if HasVersionToken(ident) {
				seen[ident] = struct{}{}
			}
		}
	}
	stale := make([]string, 0, len(seen))
	for ident := range seen {
		stale = append(stale, ident)
	}
	sort.Strings(stale)
	return stale
}
