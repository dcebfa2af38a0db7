// Package store provides the artifact registries that feed composition:
// an in-memory snapshot plus directory, SQLite, and remote-HTTP backends.
// I/O-backed stores implement Source; Materialize copies just the artifacts a
// report references into a Memory snapshot so composition itself runs without
// I/O.
package store

import (
	"context"
	"sort"
	"time"

	"github.com/dgallion1/reportforge/internal/compose"
)

// Source fetches artifacts from a possibly I/O-backed registry. Absent names
// fail with *compose.NotFoundError; other errors are transport or storage
// failures.
type Source interface {
	FetchTable(ctx context.Context, name string) (compose.TableArtifact, error)
	FetchChart(ctx context.Context, name string) (compose.ChartArtifact, error)
}

// ArtifactInfo describes one registered artifact for listings.
type ArtifactInfo struct {
	Name      string               `json:"name"`
	Kind      compose.ArtifactKind `json:"kind"`
	HasChart  bool                 `json:"hasChart,omitempty"`
	UpdatedAt time.Time            `json:"updatedAt,omitzero"`
}

func sortInfos(infos []ArtifactInfo) {
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Kind != infos[j].Kind {
			return infos[i].Kind < infos[j].Kind
		}
		return infos[i].Name < infos[j].Name
	})
}
