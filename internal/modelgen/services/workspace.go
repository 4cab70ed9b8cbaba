package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"redfish-modelgen/internal/modelgen/models"
	"redfish-modelgen/pkg/javasrc"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// SourceFile is one model file held in memory between passes
type SourceFile struct {
	Name       string // file name without extension
	File       *javasrc.File
	Definition *models.TypeDefinition
	// Loser marks a collision loser awaiting deletion
	Loser   bool
	dirty   bool
	removed bool
}

// Touch marks the file for writing on the next Flush
func (sf *SourceFile) Touch() {
	sf.dirty = true
}

// Workspace is the models directory, read once and kept parsed. Files are
// ordered by name so every pass sees the same deterministic order.
type Workspace struct {
	dir   string
	ext   string
	files []*SourceFile
}

// OpenWorkspace reads every file with the given extension in dir
func OpenWorkspace(dir, ext string) (*Workspace, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read models directory: %w", err)
	}

	ws := &Workspace{dir: dir, ext: ext}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ext {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}
		ws.files = append(ws.files, &SourceFile{
			Name: strings.TrimSuffix(entry.Name(), ext),
			File: javasrc.Parse(data),
		})
	}
	ws.sort()
	return ws, nil
}

func (w *Workspace) sort() {
	sort.SliceStable(w.files, func(i, j int) bool {
		return w.files[i].Name < w.files[j].Name
	})
}

// Files returns the live files in name order
func (w *Workspace) Files() []*SourceFile {
	files := make([]*SourceFile, 0, len(w.files))
	for _, sf := range w.files {
		if !sf.removed {
			files = append(files, sf)
		}
	}
	return files
}

// Get looks up a live file by name
func (w *Workspace) Get(name string) (*SourceFile, bool) {
	for _, sf := range w.files {
		if !sf.removed && sf.Name == name {
			return sf, true
		}
	}
	return nil, false
}

func (w *Workspace) path(name string) string {
	return filepath.Join(w.dir, name+w.ext)
}

// Flush writes every touched file back to disk and returns how many were written
func (w *Workspace) Flush() (int, error) {
	written := 0
	for _, sf := range w.files {
		if sf.removed || !sf.dirty {
			continue
		}
		if err := writeFileAtomic(w.path(sf.Name), sf.File.Bytes()); err != nil {
			return written, err
		}
		sf.dirty = false
		written++
	}
	return written, nil
}

// Remove deletes a file from disk and from the workspace
func (w *Workspace) Remove(sf *SourceFile) error {
	if sf.removed {
		return nil
	}
	if err := os.Remove(w.path(sf.Name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", sf.Name, err)
	}
	sf.removed = true
	return nil
}

// Rename moves a file to a new name. The target must not belong to another
// live file.
func (w *Workspace) Rename(sf *SourceFile, name string) error {
	if sf.Name == name {
		return nil
	}
	if other, exists := w.Get(name); exists && other != sf {
		return fmt.Errorf("cannot rename %s: %s already exists", sf.Name, name)
	}
	if err := os.Rename(w.path(sf.Name), w.path(name)); err != nil {
		return fmt.Errorf("failed to rename %s to %s: %w", sf.Name, name, err)
	}
	sf.Name = name
	w.sort()
	return nil
}

// GeneratedFile is an artifact produced from scratch
type GeneratedFile struct {
	Filename string
	Content  []byte
}

// WriteFiles writes all generated files to the output directory, creating it
// if needed.
func WriteFiles(files []GeneratedFile, outputDir string) error {
	if err := os.MkdirAll(outputDir, dirPerm); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	for _, file := range files {
		if err := writeFileAtomic(filepath.Join(outputDir, file.Filename), file.Content); err != nil {
			return err
		}
	}
	return nil
}

// writeFileAtomic replaces path through a temporary file in the same
// directory, so a crash never leaves a half-written file behind.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("writing file %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing file %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing file %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing file %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing file %s: %w", path, err)
	}
	return nil
}
