package services

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"redfish-modelgen/internal/security/models"

	"github.com/goccy/go-json"
)

// ErrMalformedSchema is returned when a schema document cannot be decoded.
// Nothing is compiled from a bundle containing one.
var ErrMalformedSchema = errors.New("malformed schema document")

type schemaDocument struct {
	Definitions map[string]json.RawMessage `json:"definitions"`
}

type schemaDefinition struct {
	URIs []string `json:"uris"`
}

type ruleKey struct {
	entity string
	uri    string
}

// Compilation is the compiler output for one bundle
type Compilation struct {
	Rules  []models.SecurityRule
	Cache  []models.SchemaDocument
	Report models.CompileReport
}

// Compiler joins schema URIs against privilege mappings
type Compiler struct{}

func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile produces one rule per (entity, uri) for every schema definition
// with URIs that has a privilege mapping of the same entity. Further mappings
// of the entity merge their privilege sets into that rule; a pair seen again
// with nothing new counts as a duplicate. Definitions without a mapping
// produce no rule. Every file decodes before any rule is
// kept, so a malformed document fails the whole compilation.
func (c *Compiler) Compile(files []SchemaFile, mappings []models.PrivilegeMapping, runID string, now time.Time) (*Compilation, error) {
	byEntity := make(map[string][]models.PrivilegeMapping, len(mappings))
	for _, m := range mappings {
		byEntity[m.Entity] = append(byEntity[m.Entity], m)
	}

	out := &Compilation{
		Report: models.CompileReport{RunID: runID, CompiledAt: now},
	}
	seen := make(map[ruleKey]int)
	unmapped := make(map[string]struct{})

	for _, f := range files {
		var doc schemaDocument
		if err := json.Unmarshal(f.Data, &doc); err != nil {
			return nil, fmt.Errorf("%s: %w: %v", f.Name, ErrMalformedSchema, err)
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, f.Data); err != nil {
			return nil, fmt.Errorf("%s: %w: %v", f.Name, ErrMalformedSchema, err)
		}
		out.Cache = append(out.Cache, models.SchemaDocument{Source: f.Name, Schema: compact.String()})

		base := f.BaseName()
		raw, ok := doc.Definitions[base]
		if !ok {
			continue
		}
		var def schemaDefinition
		if err := json.Unmarshal(raw, &def); err != nil {
			return nil, fmt.Errorf("%s: definition %s: %w: %v", f.Name, base, ErrMalformedSchema, err)
		}
		if def.URIs == nil {
			continue
		}

		entityMappings, mapped := byEntity[base]
		if !mapped {
			slog.Debug("No privilege mapping for entity", "entity", base, "file", f.Name)
			if _, listed := unmapped[base]; !listed {
				unmapped[base] = struct{}{}
				out.Report.Unmapped = append(out.Report.Unmapped, base)
			}
			continue
		}

		for _, mapping := range entityMappings {
			for _, uri := range def.URIs {
				pattern := CompileURI(uri)
				key := ruleKey{entity: base, uri: pattern}
				if i, dup := seen[key]; dup {
					if out.Rules[i].OperationMap.Merge(mapping.OperationMap) > 0 {
						out.Report.Merged++
					} else {
						out.Report.Duplicates++
					}
					continue
				}
				seen[key] = len(out.Rules)
				out.Rules = append(out.Rules, models.SecurityRule{
					URI:          pattern,
					Entity:       base,
					OperationMap: mapping.OperationMap.Clone(),
					RunID:        runID,
					CompiledAt:   now,
				})
			}
		}
	}

	out.Report.Documents = len(out.Cache)
	out.Report.Rules = len(out.Rules)
	return out, nil
}
