package compose

// TableArtifact is a pre-rendered table: markup plus the companion-chart flag.
// HasChart is an explicit contract field, not a lookup side effect; when set,
// a chart artifact must exist under the same name.
type TableArtifact struct {
	Markup   string `json:"markup"`
	HasChart bool   `json:"hasChart"`
}

// ChartArtifact is a pre-rendered chart image. Image is the caller's
// reference (usually a file name); Data optionally carries the encoded bitmap
// for renderers that embed it.
type ChartArtifact struct {
	Image string `json:"image"`
	Data  []byte `json:"-"`
}

// ArtifactStore resolves artifact names for one composition. The store is
// populated before Compose runs and is never mutated by the engine. Absent
// names fail with *NotFoundError.
type ArtifactStore interface {
	GetTable(name string) (TableArtifact, error)
	GetChart(name string) (ChartArtifact, error)
}
