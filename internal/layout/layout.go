// Package layout loads report layout definitions from YAML. A definition
// mirrors the composition descriptors (sections, subsections, elements) with
// file-friendly keys and defaults, so recurring reports can be declared as
// data and reused across runs.
package layout

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/reportforge/internal/compose"
)

// Definition is one named report layout.
type Definition struct {
	Name     string       `yaml:"name"`
	Title    string       `yaml:"title"`
	Sections []SectionDef `yaml:"sections"`
}

// SectionDef declares a numbered top-level section.
type SectionDef struct {
	Title       string          `yaml:"title"`
	Subsections []SubsectionDef `yaml:"subsections"`
}

// SubsectionDef declares one subsection. show-title defaults to true when
// omitted, matching how layouts are usually written.
type SubsectionDef struct {
	Title          string       `yaml:"title"`
	ShowTitle      *bool        `yaml:"show-title"`
	Paragraph      string       `yaml:"paragraph"`
	ForcePageBreak bool         `yaml:"force-page-break"`
	Elements       []ElementDef `yaml:"elements"`
}

// ElementDef declares one content element.
type ElementDef struct {
	Type         string   `yaml:"type"`
	Artifact     string   `yaml:"artifact"`
	Caption      string   `yaml:"caption"`
	CaptionClass string   `yaml:"caption-class"`
	Images       []string `yaml:"images"`
}

// Parse decodes and validates a single layout document.
func Parse(data []byte) (*Definition, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("layout document is empty")
	}
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("decode layout: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate checks the definition, including the descriptor rules the
// composition engine enforces.
func (d *Definition) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return errors.New("layout title is required")
	}
	if len(d.Sections) == 0 {
		return errors.New("layout has no sections")
	}
	return d.Report().Validate()
}

// Report converts the definition into composition descriptors, resolving
// defaults.
func (d *Definition) Report() compose.Report {
	report := compose.Report{
		Title:    d.Title,
		Sections: make([]compose.Section, 0, len(d.Sections)),
	}
	for _, sec := range d.Sections {
		s := compose.Section{
			Title:       sec.Title,
			Subsections: make([]compose.Subsection, 0, len(sec.Subsections)),
		}
		for _, sub := range sec.Subsections {
			showTitle := true
			if sub.ShowTitle != nil {
				showTitle = *sub.ShowTitle
			}
			cs := compose.Subsection{
				Title:          sub.Title,
				ShowTitle:      showTitle,
				Paragraph:      sub.Paragraph,
				ForcePageBreak: sub.ForcePageBreak,
				Elements:       make([]compose.Element, 0, len(sub.Elements)),
			}
			for _, el := range sub.Elements {
				cs.Elements = append(cs.Elements, compose.Element{
					Type:         compose.ElementType(el.Type),
					ArtifactName: el.Artifact,
					Caption:      el.Caption,
					CaptionClass: el.CaptionClass,
					Images:       el.Images,
				})
			}
			s.Subsections = append(s.Subsections, cs)
		}
		report.Sections = append(report.Sections, s)
	}
	return report
}

// Load reads and parses a layout file. The definition name defaults to the
// file name without its extension.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout %s: %w", path, err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("layout %s: %w", path, err)
	}
	if def.Name == "" {
		base := filepath.Base(path)
		def.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return def, nil
}

// LoadDir scans dir (non-recursive) for *.yaml and *.yml layouts, keyed by
// definition name. A missing directory is treated as no layouts.
func LoadDir(dir string) (map[string]*Definition, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read layout dir %s: %w", trimmed, err)
	}

	defs := make(map[string]*Definition)
	for _, entry := range entries {
		if entry.IsDir() || !isYAMLFile(entry.Name()) {
			continue
		}
		def, err := Load(filepath.Join(trimmed, entry.Name()))
		if err != nil {
			return nil, err
		}
		if _, exists := defs[def.Name]; exists {
			return nil, fmt.Errorf("duplicate layout name %q", def.Name)
		}
		defs[def.Name] = def
	}
	return defs, nil
}

func isYAMLFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}
