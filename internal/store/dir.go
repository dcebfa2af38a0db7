package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/reportforge/internal/compose"
)

// ManifestName is the registry file expected at the root of an artifact
// bundle directory.
const ManifestName = "manifest.yaml"

// Manifest declares the artifacts an on-disk bundle contains. File paths are
// relative to the bundle root.
type Manifest struct {
	Tables []ManifestTable `yaml:"tables"`
	Charts []ManifestChart `yaml:"charts"`
}

// ManifestTable declares one pre-rendered table file.
type ManifestTable struct {
	Name     string `yaml:"name"`
	File     string `yaml:"file"`
	HasChart bool   `yaml:"has-chart"`
}

// ManifestChart declares one chart image file.
type ManifestChart struct {
	Name string `yaml:"name"`
	File string `yaml:"file"`
}

// Validate checks the manifest for empty or duplicate entries.
func (m Manifest) Validate() error {
	seenTables := make(map[string]bool, len(m.Tables))
	for i, t := range m.Tables {
		if strings.TrimSpace(t.Name) == "" || strings.TrimSpace(t.File) == "" {
			return fmt.Errorf("manifest table %d: name and file are required", i+1)
		}
		if seenTables[t.Name] {
			return fmt.Errorf("manifest: duplicate table %q", t.Name)
		}
		seenTables[t.Name] = true
	}
	seenCharts := make(map[string]bool, len(m.Charts))
	for i, c := range m.Charts {
		if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.File) == "" {
			return fmt.Errorf("manifest chart %d: name and file are required", i+1)
		}
		if seenCharts[c.Name] {
			return fmt.Errorf("manifest: duplicate chart %q", c.Name)
		}
		seenCharts[c.Name] = true
	}
	return nil
}

// Dir serves artifacts from a bundle directory described by a manifest.
// Markup and image bytes are read lazily at fetch time.
type Dir struct {
	root   string
	tables map[string]ManifestTable
	charts map[string]ManifestChart
}

// OpenDir reads and validates the manifest under root.
func OpenDir(root string) (*Dir, error) {
	data, err := os.ReadFile(filepath.Join(root, ManifestName))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if err := manifest.Validate(); err != nil {
		return nil, err
	}

	d := &Dir{
		root:   root,
		tables: make(map[string]ManifestTable, len(manifest.Tables)),
		charts: make(map[string]ManifestChart, len(manifest.Charts)),
	}
	for _, t := range manifest.Tables {
		d.tables[t.Name] = t
	}
	for _, c := range manifest.Charts {
		d.charts[c.Name] = c
	}
	return d, nil
}

// FetchTable implements Source.
func (d *Dir) FetchTable(_ context.Context, name string) (compose.TableArtifact, error) {
	entry, ok := d.tables[name]
	if !ok {
		return compose.TableArtifact{}, &compose.NotFoundError{Kind: compose.KindTable, Name: name}
	}
	markup, err := os.ReadFile(filepath.Join(d.root, entry.File))
	if err != nil {
		return compose.TableArtifact{}, fmt.Errorf("read table %q: %w", name, err)
	}
	return compose.TableArtifact{Markup: string(markup), HasChart: entry.HasChart}, nil
}

// FetchChart implements Source.
func (d *Dir) FetchChart(_ context.Context, name string) (compose.ChartArtifact, error) {
	entry, ok := d.charts[name]
	if !ok {
		return compose.ChartArtifact{}, &compose.NotFoundError{Kind: compose.KindChart, Name: name}
	}
	data, err := os.ReadFile(filepath.Join(d.root, entry.File))
	if err != nil {
		return compose.ChartArtifact{}, fmt.Errorf("read chart %q: %w", name, err)
	}
	return compose.ChartArtifact{Image: filepath.Base(entry.File), Data: data}, nil
}

// List returns the declared artifacts sorted by kind then name.
func (d *Dir) List() []ArtifactInfo {
	infos := make([]ArtifactInfo, 0, len(d.tables)+len(d.charts))
	for name, t := range d.tables {
		infos = append(infos, ArtifactInfo{Name: name, Kind: compose.KindTable, HasChart: t.HasChart})
	}
	for name := range d.charts {
		infos = append(infos, ArtifactInfo{Name: name, Kind: compose.KindChart})
	}
	sortInfos(infos)
	return infos
}
