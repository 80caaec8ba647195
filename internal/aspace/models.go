package aspace

// Ref is a link to another record by URI
type Ref struct {
	Ref string `json:"ref"`
}

// Note is a note_digital_object
type Note struct {
	JSONModelType string   `json:"jsonmodel_type"`
	Type          string   `json:"type"`
	Label         string   `json:"label,omitempty"`
	Content       []string `json:"content"`
	Publish       bool     `json:"publish"`
}

// Date is a creation date attached to a digital object
type Date struct {
	JSONModelType string `json:"jsonmodel_type"`
	DateType      string `json:"date_type"`
	Label         string `json:"label"`
	Begin         string `json:"begin,omitempty"`
	End           string `json:"end,omitempty"`
	Expression    string `json:"expression,omitempty"`
}

// LanguageAndScript names the language of the material
type LanguageAndScript struct {
	JSONModelType string `json:"jsonmodel_type"`
	Language      string `json:"language"`
}

// LangMaterial wraps a language entry
type LangMaterial struct {
	JSONModelType     string             `json:"jsonmodel_type"`
	LanguageAndScript *LanguageAndScript `json:"language_and_script,omitempty"`
}

// FileVersion describes one stored file of a component
type FileVersion struct {
	JSONModelType     string `json:"jsonmodel_type"`
	FileURI           string `json:"file_uri"`
	UseStatement      string `json:"use_statement,omitempty"`
	FileFormatName    string `json:"file_format_name,omitempty"`
	FileFormatVersion string `json:"file_format_version,omitempty"`
	FileSizeBytes     int64  `json:"file_size_bytes,omitempty"`
	Checksum          string `json:"checksum,omitempty"`
	ChecksumMethod    string `json:"checksum_method,omitempty"`
	Caption           string `json:"caption,omitempty"`
	Publish           bool   `json:"publish"`
}

// DigitalObject is the top-level record for a digitized unit
type DigitalObject struct {
	JSONModelType     string         `json:"jsonmodel_type"`
	Title             string         `json:"title"`
	DigitalObjectID   string         `json:"digital_object_id"`
	DigitalObjectType string         `json:"digital_object_type,omitempty"`
	Publish           bool           `json:"publish"`
	Notes             []Note         `json:"notes"`
	Dates             []Date         `json:"dates,omitempty"`
	LangMaterials     []LangMaterial `json:"lang_materials,omitempty"`
}

// DigitalObjectComponent is one file-level child of a digital object
type DigitalObjectComponent struct {
	JSONModelType string        `json:"jsonmodel_type"`
	Title         string        `json:"title"`
	Label         string        `json:"label,omitempty"`
	ComponentID   string        `json:"component_id,omitempty"`
	Position      int           `json:"position"`
	DigitalObject Ref           `json:"digital_object"`
	FileVersions  []FileVersion `json:"file_versions"`
}

// createResponse is the body ArchivesSpace returns for create and update calls
type createResponse struct {
	Status      string `json:"status"`
	ID          int    `json:"id"`
	URI         string `json:"uri"`
	LockVersion int    `json:"lock_version"`
}

type loginResponse struct {
	Session string `json:"session"`
}

type findByIDResponse struct {
	ArchivalObjects         []Ref `json:"archival_objects"`
	DigitalObjects          []Ref `json:"digital_objects"`
	DigitalObjectComponents []Ref `json:"digital_object_components"`
}
