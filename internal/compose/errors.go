package compose

import (
	"errors"
	"fmt"
)

// ArtifactKind tags which namespace an artifact lookup failed in.
type ArtifactKind string

const (
	KindTable ArtifactKind = "table"
	KindChart ArtifactKind = "chart"
)

// NotFoundError reports a table or chart reference no registered artifact
// satisfies. Composition aborts with no partial output.
type NotFoundError struct {
	Kind ArtifactKind
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s artifact %q not found", e.Kind, e.Name)
}

// PairedArtifactMissingError reports a table artifact flagged hasChart whose
// companion chart is not registered under the same name.
type PairedArtifactMissingError struct {
	Name string
}

func (e *PairedArtifactMissingError) Error() string {
	return fmt.Sprintf("table artifact %q declares a companion chart but no chart is registered under that name", e.Name)
}

// DescriptorError reports a malformed report descriptor, located by path.
type DescriptorError struct {
	Path   string
	Reason string
}

func (e *DescriptorError) Error() string {
	return fmt.Sprintf("malformed descriptor at %s: %s", e.Path, e.Reason)
}

// IsNotFound reports whether err is an artifact lookup failure.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsDescriptor reports whether err stems from malformed input rather than a
// missing artifact.
func IsDescriptor(err error) bool {
	var de *DescriptorError
	return errors.As(err, &de)
}
