package services

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"redfish-modelgen/internal/registry/models"

	"github.com/goccy/go-json"
)

const (
	privilegeRegistryType = "PrivilegeRegistry"
	messageRegistryType   = "MessageRegistry"
)

// CompareVersions compares two dotted numeric versions over their common
// length. It returns -1, 0 or 1; versions differing only in trailing parts
// compare equal.
func CompareVersions(a, b string) (int, error) {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	n := min(len(as), len(bs))
	for i := 0; i < n; i++ {
		x, err := strconv.Atoi(as[i])
		if err != nil {
			return 0, fmt.Errorf("invalid version %q: %w", a, err)
		}
		y, err := strconv.Atoi(bs[i])
		if err != nil {
			return 0, fmt.Errorf("invalid version %q: %w", b, err)
		}
		switch {
		case x > y:
			return 1, nil
		case x < y:
			return -1, nil
		}
	}
	return 0, nil
}

// DocumentVersion derives the version of a registry document from its Id.
// PrivilegeRegistry ids carry it after the first underscore (Redfish_1.3.1),
// other registries after the first dot (Base.1.16.0).
func DocumentVersion(id, odataType string) (string, error) {
	if strings.Contains(id, privilegeRegistryType) || strings.HasSuffix(odataType, "."+privilegeRegistryType) {
		parts := strings.Split(id, "_")
		if len(parts) < 2 {
			return "", fmt.Errorf("privilege registry id %q has no version", id)
		}
		return parts[1], nil
	}
	_, version, ok := strings.Cut(id, ".")
	if !ok {
		return "", fmt.Errorf("registry id %q has no version", id)
	}
	return version, nil
}

// Loader selects registry documents from a directory tree
type Loader struct{}

func NewLoader() *Loader {
	return &Loader{}
}

// Select walks dir for JSON documents carrying @odata.type and keeps the
// highest version of each registry Name. On equal versions the document
// found first, in lexical path order, is kept. Documents whose version
// cannot be determined are skipped with a warning.
func (l *Loader) Select(dir string) (*models.LoadReport, error) {
	paths, err := jsonFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan registry directory: %w", err)
	}

	report := &models.LoadReport{Stored: make(map[string]int)}
	latest := make(map[string]models.Document)
	var order []string

	for _, path := range paths {
		report.Scanned++
		doc, ok, err := readDocument(path)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if doc.Version, err = DocumentVersion(doc.ID, doc.ODataType); err != nil {
			slog.Warn("Skipping registry document", "file", path, "error", err)
			report.Skipped++
			continue
		}

		prev, seen := latest[doc.Name]
		if !seen {
			latest[doc.Name] = doc
			order = append(order, doc.Name)
			continue
		}
		cmp, err := CompareVersions(prev.Version, doc.Version)
		if err != nil {
			slog.Warn("Skipping registry document", "file", path, "error", err)
			report.Skipped++
			continue
		}
		if cmp < 0 {
			latest[doc.Name] = doc
		}
	}

	sort.Strings(order)
	for _, name := range order {
		report.Selected = append(report.Selected, latest[name])
	}
	return report, nil
}

// serviceFiles are the mockup files stored verbatim, relative to the mockup root
var serviceFiles = []models.ServiceFile{
	{Path: filepath.Join("odata", "index.json"), Collection: models.ODataFileCollection},
	{Path: filepath.Join("$metadata", "index.xml"), Collection: models.MetadataFileCollection},
}

// Mockups walks a Redfish mockup tree and collects every document carrying
// @odata.type, except message registries, along with the OData service
// document and the CSDL metadata when present.
func (l *Loader) Mockups(dir string) (*models.MockupReport, error) {
	paths, err := jsonFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan mockup directory: %w", err)
	}

	report := &models.MockupReport{Stored: make(map[string]int)}
	for _, path := range paths {
		report.Scanned++
		doc, ok, err := readDocument(path)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if strings.Contains(doc.ODataType, messageRegistryType) {
			report.Skipped++
			continue
		}
		report.Documents = append(report.Documents, doc)
	}

	for _, sf := range serviceFiles {
		path := filepath.Join(dir, sf.Path)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		report.Files = append(report.Files, models.ServiceFile{Path: path, Collection: sf.Collection, Data: string(data)})
	}
	return report, nil
}

// jsonFiles lists the .json files under dir in lexical path order
func jsonFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".json" {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func readDocument(path string) (models.Document, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Document{}, false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		return models.Document{}, false, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	odataType, _ := body["@odata.type"].(string)
	if odataType == "" {
		return models.Document{}, false, nil
	}
	id, _ := body["Id"].(string)
	odataID, _ := body["@odata.id"].(string)
	name, _ := body["Name"].(string)
	return models.Document{
		Path:      path,
		ID:        id,
		ODataID:   odataID,
		Name:      name,
		ODataType: odataType,
		Body:      body,
	}, true, nil
}
