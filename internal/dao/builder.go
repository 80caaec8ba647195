// Package dao turns a matched unit record and its files into the digital
// object tree that is submitted to ArchivesSpace.
package dao

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lehigh-university-libraries/daobatch/internal/techmd"
	"github.com/lehigh-university-libraries/daobatch/internal/units"
)

// ErrInconsistent is returned when the builder is handed input the correlator should never produce
var ErrInconsistent = errors.New("internal consistency fault")

const (
	DefaultObjectType = "still_image"
	DefaultFormatNote = "reformatted digital"
)

// Options are the project-level defaults applied to every digital object
type Options struct {
	ObjectType   string
	FormatNote   string
	HandlePrefix string
}

// DigitalObjectSpec is the normalized payload for one matched unit
type DigitalObjectSpec struct {
	Identifier      string          `json:"identifier" yaml:"identifier"`
	Title           string          `json:"title" yaml:"title"`
	DigitalObjectID string          `json:"digital_object_id" yaml:"digital_object_id"`
	ObjectType      string          `json:"object_type" yaml:"object_type"`
	Container       string          `json:"container,omitempty" yaml:"container,omitempty"`
	Date            Date            `json:"date" yaml:"date"`
	Restriction     string          `json:"restriction,omitempty" yaml:"restriction,omitempty"`
	Language        string          `json:"language,omitempty" yaml:"language,omitempty"`
	Genre           string          `json:"genre,omitempty" yaml:"genre,omitempty"`
	ResourceType    string          `json:"resource_type,omitempty" yaml:"resource_type,omitempty"`
	FormatNote      string          `json:"format_note,omitempty" yaml:"format_note,omitempty"`
	FileTypes       []string        `json:"file_types,omitempty" yaml:"file_types,omitempty"`
	Components      []ComponentSpec `json:"components" yaml:"components"`
}

// ComponentSpec describes one digitized file under a digital object
type ComponentSpec struct {
	Sequence     int               `json:"sequence" yaml:"sequence"`
	Filename     string            `json:"filename" yaml:"filename"`
	Label        string            `json:"label" yaml:"label"`
	ComponentID  string            `json:"component_id" yaml:"component_id"`
	UseStatement string            `json:"use_statement,omitempty" yaml:"use_statement,omitempty"`
	Attributes   techmd.Attributes `json:"attributes" yaml:"attributes"`
}

// Builder maps (unit, files) pairs to digital object specs
type Builder struct {
	opts Options
}

// NewBuilder creates a builder, filling in defaults for empty options
func NewBuilder(opts Options) *Builder {
	if opts.ObjectType == "" {
		opts.ObjectType = DefaultObjectType
	}
	if opts.FormatNote == "" {
		opts.FormatNote = DefaultFormatNote
	}
	return &Builder{opts: opts}
}

// Build assembles the spec for one unit. Files must already be sorted by sequence.
func (b *Builder) Build(unit units.UnitRecord, files []techmd.FileRecord) (DigitalObjectSpec, error) {
	if len(files) == 0 {
		return DigitalObjectSpec{}, fmt.Errorf("%w: identifier %s reached the builder without files", ErrInconsistent, unit.Identifier)
	}

	spec := DigitalObjectSpec{
		Identifier:      unit.Identifier,
		Title:           unit.Title,
		DigitalObjectID: b.digitalObjectID(unit.Identifier),
		ObjectType:      b.opts.ObjectType,
		Container:       unit.Container,
		Date:            ParseDate(unit.DateNormal),
		Restriction:     unit.Restriction,
		Language:        unit.Language,
		Genre:           unit.Genre,
		ResourceType:    unit.ResourceType,
		FormatNote:      b.opts.FormatNote,
		Components:      make([]ComponentSpec, 0, len(files)),
	}
	if unit.ResourceType != "" {
		if objectType, ok := ObjectType(unit.ResourceType); ok {
			spec.ObjectType = objectType
		} else {
			slog.Warn("Resource type is not a digital object type, using default",
				"identifier", unit.Identifier,
				"resource_type", unit.ResourceType,
				"object_type", spec.ObjectType)
		}
	}

	seenTypes := make(map[string]bool)
	prev := 0
	for i, f := range files {
		if f.Identifier != unit.Identifier {
			return DigitalObjectSpec{}, fmt.Errorf("%w: file %s does not belong to %s", ErrInconsistent, f.Filename, unit.Identifier)
		}
		if i > 0 && f.Sequence < prev {
			return DigitalObjectSpec{}, fmt.Errorf("%w: files for %s are not ordered by sequence", ErrInconsistent, unit.Identifier)
		}
		prev = f.Sequence

		spec.Components = append(spec.Components, ComponentSpec{
			Sequence:     f.Sequence,
			Filename:     f.Filename,
			Label:        Label(f.Sequence),
			ComponentID:  strings.TrimSuffix(baseName(f.Filename), "."+extension(f.Filename)),
			UseStatement: UseStatement(f.Extension),
			Attributes:   f.Attributes,
		})

		if mime := f.Attributes.MimeType; mime != "" && !seenTypes[mime] {
			seenTypes[mime] = true
			spec.FileTypes = append(spec.FileTypes, mime)
		}
	}

	return spec, nil
}

// objectTypes is the digital_object_digital_object_type enumeration shipped with ArchivesSpace
var objectTypes = map[string]bool{
	"cartographic":               true,
	"mixed_materials":            true,
	"moving_image":               true,
	"notated_music":              true,
	"software_multimedia":        true,
	"sound_recording":            true,
	"sound_recording_musical":    true,
	"sound_recording_nonmusical": true,
	"still_image":                true,
	"text":                       true,
}

// ObjectType maps a free-text resource type ("Still image", "moving-image")
// onto the digital object type enumeration.
func ObjectType(term string) (string, bool) {
	normalized := strings.ToLower(strings.Join(strings.Fields(term), "_"))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	return normalized, objectTypes[normalized]
}

func (b *Builder) digitalObjectID(identifier string) string {
	if b.opts.HandlePrefix == "" {
		return identifier
	}
	return fmt.Sprintf("https://hdl.handle.net/%s/%s", strings.Trim(b.opts.HandlePrefix, "/"), identifier)
}

// Label is the display label of a component
func Label(sequence int) string {
	return fmt.Sprintf("Image %d", sequence)
}

// UseStatement maps a file extension to an ArchivesSpace file version use statement
func UseStatement(ext string) string {
	switch strings.ToLower(ext) {
	case "tif", "tiff":
		return "archive image"
	case "jpg", "jpeg":
		return "reference image"
	case "jp2":
		return "access image"
	default:
		return ""
	}
}

func baseName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}

func extension(name string) string {
	base := baseName(name)
	if i := strings.LastIndex(base, "."); i >= 0 {
		return base[i+1:]
	}
	return ""
}
