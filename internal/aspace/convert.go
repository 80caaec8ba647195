package aspace

import (
	"strings"

	"github.com/lehigh-university-libraries/daobatch/internal/dao"
)

func note(noteType, label string, content ...string) Note {
	return Note{
		JSONModelType: "note_digital_object",
		Type:          noteType,
		Label:         label,
		Content:       content,
	}
}

// NewDigitalObject maps a spec onto the digital_object JSON model
func NewDigitalObject(spec dao.DigitalObjectSpec) DigitalObject {
	do := DigitalObject{
		JSONModelType:     "digital_object",
		Title:             spec.Title,
		DigitalObjectID:   spec.DigitalObjectID,
		DigitalObjectType: spec.ObjectType,
		Notes:             []Note{},
	}

	if spec.Restriction != "" {
		do.Notes = append(do.Notes, note("userestrict", "", spec.Restriction))
	}
	if spec.Container != "" {
		do.Notes = append(do.Notes, note("dimensions", "", spec.Container))
	}
	if spec.FormatNote != "" {
		do.Notes = append(do.Notes, note("note", "", spec.FormatNote))
	}
	if len(spec.FileTypes) > 0 {
		do.Notes = append(do.Notes, note("note", "File types", strings.Join(spec.FileTypes, ", ")))
	}
	if spec.Genre != "" {
		do.Notes = append(do.Notes, note("note", "Genre", spec.Genre))
	}

	if !spec.Date.IsZero() {
		date := Date{
			JSONModelType: "date",
			DateType:      "single",
			Label:         "creation",
			Begin:         spec.Date.Begin,
			Expression:    spec.Date.Expression,
		}
		if spec.Date.IsRange() {
			date.DateType = "inclusive"
			date.End = spec.Date.End
		}
		do.Dates = []Date{date}
	}

	if spec.Language != "" {
		do.LangMaterials = []LangMaterial{{
			JSONModelType: "lang_material",
			LanguageAndScript: &LanguageAndScript{
				JSONModelType: "language_and_script",
				Language:      spec.Language,
			},
		}}
	}

	return do
}

// NewComponent maps a component spec onto the digital_object_component JSON model
func NewComponent(spec dao.ComponentSpec, position int, digitalObjectURI string) DigitalObjectComponent {
	return DigitalObjectComponent{
		JSONModelType: "digital_object_component",
		Title:         spec.Label,
		Label:         spec.Label,
		ComponentID:   spec.ComponentID,
		Position:      position,
		DigitalObject: Ref{Ref: digitalObjectURI},
		FileVersions: []FileVersion{{
			JSONModelType:     "file_version",
			FileURI:           spec.Filename,
			UseStatement:      spec.UseStatement,
			FileFormatName:    spec.Attributes.Format,
			FileFormatVersion: spec.Attributes.FormatVersion,
			FileSizeBytes:     spec.Attributes.SizeBytes,
			Checksum:          spec.Attributes.Checksum,
			ChecksumMethod:    spec.Attributes.ChecksumMethod,
		}},
	}
}
