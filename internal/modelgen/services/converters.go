package services

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"

	"redfish-modelgen/internal/modelgen/models"
	"redfish-modelgen/pkg/config"
	"redfish-modelgen/pkg/javasrc"
)

// ErrAnchorNotFound is returned when the registration file has no custom
// conversions block to register converters in
var ErrAnchorNotFound = errors.New("registration anchor not found")

// registrationIndent lines up converter entries inside MongoCustomConversions
const registrationIndent = "                "

var readingConverterTemplate = template.Must(template.New("reading").Parse(`package {{.Package}};

import {{.ModelPackage}}.{{.Enum}};
import org.springframework.core.convert.converter.Converter;
import org.springframework.data.convert.ReadingConverter;

@ReadingConverter
public class {{.Enum}}ReadingConverter implements Converter<String, {{.Enum}}> {
    @Override
    public {{.Enum}} convert(String source) {
        return {{.Enum}}.fromValue(source);
    }
}
`))

var writingConverterTemplate = template.Must(template.New("writing").Parse(`package {{.Package}};

import {{.ModelPackage}}.{{.Enum}};
import org.springframework.core.convert.converter.Converter;
import org.springframework.data.convert.WritingConverter;

@WritingConverter
public class {{.Enum}}WritingConverter implements Converter<{{.Enum}}, String> {
    @Override
    public String convert({{.Enum}} source) {
        return source.getValue();
    }
}
`))

type converterData struct {
	Package      string
	ModelPackage string
	Enum         string
}

// ConverterGenerator emits a reading and a writing converter per enum and
// registers them with the Mongo configuration
type ConverterGenerator struct {
	cfg config.ModelsConfig
}

func NewConverterGenerator(cfg config.ModelsConfig) *ConverterGenerator {
	return &ConverterGenerator{cfg: cfg}
}

// Discover collects the final enum names in workspace order
func (g *ConverterGenerator) Discover(ws *Workspace) []models.ConverterSpec {
	var specs []models.ConverterSpec
	for _, sf := range ws.Files() {
		if decl, ok := sf.File.TypeDecl(); ok && decl.TypeKind == javasrc.Enum {
			specs = append(specs, models.ConverterSpec{EnumName: decl.Name})
		}
	}
	return specs
}

// Generate renders the converter pair of every enum
func (g *ConverterGenerator) Generate(specs []models.ConverterSpec) ([]GeneratedFile, error) {
	files := make([]GeneratedFile, 0, 2*len(specs))
	for _, spec := range specs {
		data := converterData{
			Package:      g.cfg.ConvertersPackage,
			ModelPackage: g.cfg.TargetPackage,
			Enum:         spec.EnumName,
		}
		pairs := []struct {
			name string
			tmpl *template.Template
		}{
			{spec.ReadingName(), readingConverterTemplate},
			{spec.WritingName(), writingConverterTemplate},
		}
		for _, p := range pairs {
			var buf bytes.Buffer
			if err := p.tmpl.Execute(&buf, data); err != nil {
				return nil, fmt.Errorf("rendering %s: %w", p.name, err)
			}
			files = append(files, GeneratedFile{Filename: p.name + g.cfg.Extension, Content: buf.Bytes()})
		}
	}
	return files, nil
}

// Register inserts the registration lines of every enum directly after the
// anchor line of the file at path, in discovery order. Lines already present,
// with or without their separating comma, are skipped, so re-running never
// duplicates a registration. When the anchor is directly followed by the
// closing parenthesis the last inserted line carries no comma. It returns the
// number of lines inserted, and fails with ErrAnchorNotFound before writing
// anything when the anchor is missing.
func (g *ConverterGenerator) Register(path string, specs []models.ConverterSpec) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read registration file: %w", err)
	}
	file := javasrc.Parse(data)

	var pending []string
	for _, spec := range specs {
		for _, line := range spec.RegistrationLines(registrationIndent) {
			if !registered(file, line) {
				pending = append(pending, line)
			}
		}
	}

	anchored := false
	file.Edit(func(e *javasrc.Editor) {
		if anchored || !strings.HasPrefix(strings.TrimSpace(e.Line().Text), g.cfg.RegistrationAnchor) {
			return
		}
		anchored = true
		lines := append([]string(nil), pending...)
		if next, ok := e.Peek(1); ok && len(lines) > 0 && closesCall(next) {
			last := len(lines) - 1
			lines[last] = strings.TrimSuffix(lines[last], ",")
		}
		e.InsertAfter(lines...)
	})
	if !anchored {
		return 0, fmt.Errorf("%s in %s: %w", g.cfg.RegistrationAnchor, path, ErrAnchorNotFound)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	if err := writeFileAtomic(path, file.Bytes()); err != nil {
		return 0, err
	}
	return len(pending), nil
}

// registered reports whether line is present with or without its trailing comma
func registered(file *javasrc.File, line string) bool {
	entry := strings.TrimSuffix(strings.TrimSpace(line), ",")
	return file.Contains(entry) || file.Contains(entry+",")
}

func closesCall(line javasrc.Line) bool {
	return strings.HasPrefix(strings.TrimSpace(line.Text), ")")
}
