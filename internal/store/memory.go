package store

import (
	"context"
	"sync"

	"github.com/dgallion1/reportforge/internal/compose"
)

// Memory is a mutex-guarded in-memory artifact registry. It is the snapshot
// composition reads from: Materialize loads into it, and it satisfies both
// compose.ArtifactStore and Source.
type Memory struct {
	mu     sync.RWMutex
	tables map[string]compose.TableArtifact
	charts map[string]compose.ChartArtifact
}

// NewMemory returns an empty registry.
func NewMemory() *Memory {
	return &Memory{
		tables: make(map[string]compose.TableArtifact),
		charts: make(map[string]compose.ChartArtifact),
	}
}

// RegisterTable stores or replaces a table artifact under name.
func (m *Memory) RegisterTable(name string, a compose.TableArtifact) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[name] = a
}

// RegisterChart stores or replaces a chart artifact under name.
func (m *Memory) RegisterChart(name string, a compose.ChartArtifact) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.charts[name] = a
}

// GetTable implements compose.ArtifactStore.
func (m *Memory) GetTable(name string) (compose.TableArtifact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.tables[name]
	if !ok {
		return compose.TableArtifact{}, &compose.NotFoundError{Kind: compose.KindTable, Name: name}
	}
	return a, nil
}

// GetChart implements compose.ArtifactStore.
func (m *Memory) GetChart(name string) (compose.ChartArtifact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.charts[name]
	if !ok {
		return compose.ChartArtifact{}, &compose.NotFoundError{Kind: compose.KindChart, Name: name}
	}
	return a, nil
}

// FetchTable implements Source; the context is ignored.
func (m *Memory) FetchTable(_ context.Context, name string) (compose.TableArtifact, error) {
	return m.GetTable(name)
}

// FetchChart implements Source; the context is ignored.
func (m *Memory) FetchChart(_ context.Context, name string) (compose.ChartArtifact, error) {
	return m.GetChart(name)
}

// PutTable stores or replaces a table artifact; the context is ignored.
func (m *Memory) PutTable(_ context.Context, name string, a compose.TableArtifact) error {
	m.RegisterTable(name, a)
	return nil
}

// PutChart stores or replaces a chart artifact; the context is ignored.
func (m *Memory) PutChart(_ context.Context, name string, a compose.ChartArtifact) error {
	m.RegisterChart(name, a)
	return nil
}

// DeleteTable removes a table artifact.
func (m *Memory) DeleteTable(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[name]; !ok {
		return &compose.NotFoundError{Kind: compose.KindTable, Name: name}
	}
	delete(m.tables, name)
	return nil
}

// DeleteChart removes a chart artifact.
func (m *Memory) DeleteChart(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.charts[name]; !ok {
		return &compose.NotFoundError{Kind: compose.KindChart, Name: name}
	}
	delete(m.charts, name)
	return nil
}

// List returns all registered artifacts sorted by kind then name.
func (m *Memory) List(_ context.Context) ([]ArtifactInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	infos := make([]ArtifactInfo, 0, len(m.tables)+len(m.charts))
	for name, a := range m.tables {
		infos = append(infos, ArtifactInfo{Name: name, Kind: compose.KindTable, HasChart: a.HasChart})
	}
	for name := range m.charts {
		infos = append(infos, ArtifactInfo{Name: name, Kind: compose.KindChart})
	}
	sortInfos(infos)
	return infos, nil
}

// Counts returns the number of registered tables and charts.
func (m *Memory) Counts() (tables, charts int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tables), len(m.charts)
}
