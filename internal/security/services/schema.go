package services

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

const (
	schemaExt       = ".json"
	bundleSchemaDir = "json-schema"
)

// SchemaFile is one JSON schema document of the bundle
type SchemaFile struct {
	Name   string // file name, e.g. Chassis.v1_22_1.json
	Data   []byte
	Origin string // bundle or override location it was read from
}

// BaseName is the file name up to its first dot. Schema documents describe
// the definition of that name.
func (f SchemaFile) BaseName() string {
	base, _, _ := strings.Cut(f.Name, ".")
	return base
}

// LoadSchemaFiles reads the schema documents of a bundle, either an extracted
// directory or a .zip archive, and overlays the files of the optional override
// directory on top: an override file replaces the bundle file of the same
// name. Files are returned sorted by name.
func LoadSchemaFiles(bundle, override string) ([]SchemaFile, error) {
	var (
		files []SchemaFile
		err   error
	)
	if strings.EqualFold(filepath.Ext(bundle), ".zip") {
		files, err = readSchemaArchive(bundle)
	} else {
		files, err = readSchemaDir(bundleDir(bundle))
	}
	if err != nil {
		return nil, err
	}

	byName := make(map[string]SchemaFile, len(files))
	for _, f := range files {
		byName[f.Name] = f
	}

	if override != "" {
		overrides, err := readSchemaDir(override)
		if err != nil {
			return nil, fmt.Errorf("failed to read local schema overrides: %w", err)
		}
		for _, f := range overrides {
			if prev, exists := byName[f.Name]; exists {
				slog.Debug("Local schema overrides bundle file",
					"file", f.Name,
					"bundle", prev.Origin,
					"override", f.Origin)
			}
			byName[f.Name] = f
		}
	}

	out := make([]SchemaFile, 0, len(byName))
	for _, f := range byName {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// bundleDir descends into the json-schema folder of an extracted bundle when
// the path points at the bundle root
func bundleDir(dir string) string {
	nested := filepath.Join(dir, bundleSchemaDir)
	if info, err := os.Stat(nested); err == nil && info.IsDir() {
		return nested
	}
	return dir
}

func readSchemaDir(dir string) ([]SchemaFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema directory: %w", err)
	}
	var files []SchemaFile
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != schemaExt {
			continue
		}
		full := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(full)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema %s: %w", entry.Name(), err)
		}
		files = append(files, SchemaFile{Name: entry.Name(), Data: data, Origin: full})
	}
	return files, nil
}

// readSchemaArchive reads the documents of the archive's json-schema folder,
// or its top level when the archive has no such folder
func readSchemaArchive(archive string) ([]SchemaFile, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return nil, fmt.Errorf("failed to open schema bundle: %w", err)
	}
	defer r.Close()

	nested := make([]SchemaFile, 0)
	top := make([]SchemaFile, 0)
	for _, entry := range r.File {
		if entry.FileInfo().IsDir() || path.Ext(entry.Name) != schemaExt {
			continue
		}
		dir := path.Dir(entry.Name)
		inSchemaDir := path.Base(dir) == bundleSchemaDir
		if !inSchemaDir && dir != "." {
			continue
		}

		data, err := readArchiveEntry(entry)
		if err != nil {
			return nil, err
		}
		f := SchemaFile{Name: path.Base(entry.Name), Data: data, Origin: archive + "!" + entry.Name}
		if inSchemaDir {
			nested = append(nested, f)
		} else {
			top = append(top, f)
		}
	}
	if len(nested) > 0 {
		return nested, nil
	}
	return top, nil
}

func readArchiveEntry(entry *zip.File) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s in schema bundle: %w", entry.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s in schema bundle: %w", entry.Name, err)
	}
	return data, nil
}
