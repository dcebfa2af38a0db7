package store

import (
	"context"
	"fmt"

	"github.com/dgallion1/reportforge/internal/compose"
)

// Materialize copies the artifacts a report references from src into a fresh
// Memory snapshot, so composition runs purely over local data. Names the
// source does not know are simply left unregistered: composition reports them
// with the proper NotFound or PairedArtifactMissing identity. Transport and
// storage failures abort materialization.
func Materialize(ctx context.Context, src Source, report compose.Report) (*Memory, error) {
	snap := NewMemory()
	seenTables := make(map[string]bool)
	seenCharts := make(map[string]bool)

	fetchChart := func(name string) error {
		if seenCharts[name] {
			return nil
		}
		seenCharts[name] = true
		chart, err := src.FetchChart(ctx, name)
		if err != nil {
			if compose.IsNotFound(err) {
				return nil
			}
			return fmt.Errorf("materialize chart %q: %w", name, err)
		}
		snap.RegisterChart(name, chart)
		return nil
	}

	for _, sec := range report.Sections {
		for _, sub := range sec.Subsections {
			for _, el := range sub.Elements {
				switch el.Type {
				case compose.ElementTable:
					if seenTables[el.ArtifactName] {
						continue
					}
					seenTables[el.ArtifactName] = true
					tab, err := src.FetchTable(ctx, el.ArtifactName)
					if err != nil {
						if compose.IsNotFound(err) {
							continue
						}
						return nil, fmt.Errorf("materialize table %q: %w", el.ArtifactName, err)
					}
					snap.RegisterTable(el.ArtifactName, tab)
					if tab.HasChart {
						if err := fetchChart(el.ArtifactName); err != nil {
							return nil, err
						}
					}
				case compose.ElementChart:
					if err := fetchChart(el.ArtifactName); err != nil {
						return nil, err
					}
				}
			}
		}
	}
	return snap, nil
}
