package compose

import (
	"fmt"
	"strings"
)

// Report is the caller-supplied description of one document: ordered sections
// referencing named artifacts. Order is preserved exactly through composition.
type Report struct {
	Title    string    `json:"title,omitempty"`
	Sections []Section `json:"sections"`
}

// Section groups subsections under one numbered top-level heading.
type Section struct {
	Title       string       `json:"title"`
	Subsections []Subsection `json:"subsections"`
}

// Subsection holds an ordered run of content elements. Its label is derived
// from position ("{i1}.{i2}"), never stored.
type Subsection struct {
	Title          string    `json:"title"`
	ShowTitle      bool      `json:"showTitle"`
	Paragraph      string    `json:"paragraph,omitempty"`
	ForcePageBreak bool      `json:"forcePageBreak"`
	Elements       []Element `json:"elements"`
}

// ElementType discriminates the content element variants.
type ElementType string

const (
	ElementTable    ElementType = "table"
	ElementChart    ElementType = "chart"
	ElementPictures ElementType = "pictures"
)

// Element is one content item in a subsection. Type selects the variant:
// tables and charts reference a named artifact, pictures carry their image
// references inline.
type Element struct {
	Type         ElementType `json:"type"`
	ArtifactName string      `json:"artifactName,omitempty"`
	Caption      string      `json:"caption,omitempty"`
	CaptionClass string      `json:"captionClass,omitempty"` // standalone charts only
	Images       []string    `json:"images,omitempty"`       // pictures only
}

// Validate rejects malformed descriptors before any rendering starts. The
// returned error identifies the offending section/subsection/element.
func (r Report) Validate() error {
	for i, sec := range r.Sections {
		path := fmt.Sprintf("section %d %q", i+1, sec.Title)
		if strings.TrimSpace(sec.Title) == "" {
			return &DescriptorError{Path: path, Reason: "section title is empty"}
		}
		for j, sub := range sec.Subsections {
			if err := sub.validate(fmt.Sprintf("%s, subsection %d", path, j+1)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s Subsection) validate(path string) error {
	if s.ShowTitle && strings.TrimSpace(s.Title) == "" {
		return &DescriptorError{Path: path, Reason: "subsection title is empty but showTitle is set"}
	}
	for k, el := range s.Elements {
		if err := el.validate(fmt.Sprintf("%s, element %d", path, k+1)); err != nil {
			return err
		}
	}
	return nil
}

func (e Element) validate(path string) error {
	switch e.Type {
	case ElementTable, ElementChart:
		if strings.TrimSpace(e.ArtifactName) == "" {
			return &DescriptorError{Path: path, Reason: fmt.Sprintf("%s element has no artifactName", e.Type)}
		}
	case ElementPictures:
		if len(e.Images) == 0 {
			return &DescriptorError{Path: path, Reason: "pictures element has no images"}
		}
		for _, img := range e.Images {
			if strings.TrimSpace(img) == "" {
				return &DescriptorError{Path: path, Reason: "pictures element has an empty image reference"}
			}
		}
	case "":
		return &DescriptorError{Path: path, Reason: "element type is missing"}
	default:
		return &DescriptorError{Path: path, Reason: fmt.Sprintf("unknown element type %q", e.Type)}
	}
	return nil
}
